package chat

import (
	"errors"

	"github.com/toadfans/obsidian-github-copilot/pkg/models"
)

// ErrInvalidResponse is returned when the API response is absent or
// carries no choices.
var ErrInvalidResponse = errors.New("invalid response from Copilot API: no choices")

// Normalize maps a raw API response to the stable shape exposed to
// callers. Only the first choice is consulted; additional choices, never
// requested since n=1, are ignored. Usage is carried over field by field
// when present and left nil otherwise.
func Normalize(raw *models.RawResponse) (*models.ChatResponse, error) {
	if raw == nil || len(raw.Choices) == 0 {
		return nil, ErrInvalidResponse
	}

	resp := &models.ChatResponse{
		Content: raw.Choices[0].Message.Content,
		Model:   raw.Model,
		ID:      raw.ID,
	}
	if raw.Usage != nil {
		resp.Usage = &models.Usage{
			PromptTokens:     raw.Usage.PromptTokens,
			CompletionTokens: raw.Usage.CompletionTokens,
			TotalTokens:      raw.Usage.TotalTokens,
		}
	}
	return resp, nil
}
