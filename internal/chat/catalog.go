package chat

import "github.com/toadfans/obsidian-github-copilot/pkg/models"

// DefaultModelID is the model used when neither the call nor the plugin
// settings select one.
const DefaultModelID = "gpt-4o"

// DefaultModels returns the chat models selectable through this client.
func DefaultModels() []models.ModelOption {
	return []models.ModelOption{
		{ID: "gpt-4o", Name: "GPT-4o"},
		{ID: "gpt-4o-mini", Name: "GPT-4o mini"},
		{ID: "gpt-4.1", Name: "GPT-4.1"},
		{ID: "o3-mini", Name: "o3-mini"},
		{ID: "claude-3.5-sonnet", Name: "Claude 3.5 Sonnet"},
		{ID: "gemini-2.0-flash-001", Name: "Gemini 2.0 Flash"},
	}
}
