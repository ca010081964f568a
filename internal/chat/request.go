// Package chat assembles chat completion requests, normalizes responses,
// and orchestrates the credential, dispatch and translation steps behind
// a single client.
package chat

import (
	"github.com/toadfans/obsidian-github-copilot/pkg/models"
)

// Sampling defaults applied when a call leaves them unset.
const (
	defaultTemperature = 0.0
	defaultTopP        = 1.0
)

// CallOptions describes a single chat call. Only Prompt is required;
// everything else has a default.
type CallOptions struct {
	// Prompt is the user's current message, always sent last.
	Prompt string
	// Model overrides the selected model for this call.
	Model string
	// Temperature in [0,1]; nil means 0.
	Temperature *float64
	// TopP in [0,1]; nil means 1.
	TopP *float64
	// SystemPrompt overrides the plugin-wide default system prompt.
	SystemPrompt string
	// MessageHistory is the prior conversation, sent in the given order.
	MessageHistory []models.ChatMessage
}

// buildRequest produces the wire payload for one call. The message
// sequence is strictly: system message (call option, else the configured
// default, else none), the full history in order, then exactly one user
// message carrying the prompt. It is a total function: every field has a
// default and no input fails.
func buildRequest(opts CallOptions, model, defaultSystemPrompt string) models.ChatRequest {
	systemPrompt := opts.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	messages := make([]models.ChatMessage, 0, len(opts.MessageHistory)+2)
	if systemPrompt != "" {
		messages = append(messages, models.ChatMessage{Role: models.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, opts.MessageHistory...)
	messages = append(messages, models.ChatMessage{Role: models.RoleUser, Content: opts.Prompt})

	temperature := defaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	topP := defaultTopP
	if opts.TopP != nil {
		topP = *opts.TopP
	}

	return models.ChatRequest{
		Model:       model,
		Temperature: temperature,
		TopP:        topP,
		N:           1,
		Stream:      false,
		Intent:      false,
		Messages:    messages,
	}
}
