// Package models contains the shared wire and domain types used across the
// Copilot chat client.
package models

// Message roles understood by the chat completions API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single message in a conversation. Order is significant:
// messages are sent to the model in the exact sequence they appear.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the wire-format payload for the chat completions endpoint.
// N, Stream and Intent are fixed by the client: exactly one completion,
// never streamed, never an intent-classification call.
type ChatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	N           int           `json:"n"`
	Stream      bool          `json:"stream"`
	Intent      bool          `json:"intent"`
	Messages    []ChatMessage `json:"messages"`
}

// RawChoice is one completion choice in the raw API response.
type RawChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// RawUsage is the token accounting block of the raw API response.
type RawUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RawResponse is the chat completions response as it comes off the wire.
type RawResponse struct {
	ID      string      `json:"id"`
	Model   string      `json:"model"`
	Choices []RawChoice `json:"choices"`
	Usage   *RawUsage   `json:"usage,omitempty"`
}

// Usage is the normalized token accounting exposed to callers.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ChatResponse is the stable response shape returned to callers. Usage is
// nil when the API response carried no usage block.
type ChatResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	ID      string `json:"id"`
	Usage   *Usage `json:"usage,omitempty"`
}

// AccessToken is a short-lived Copilot API token together with its expiry
// as a unix timestamp in seconds.
type AccessToken struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// Credentials is the persisted credential record. PersonalAccessToken is
// the long-lived GitHub token; AccessToken is the cached short-lived
// Copilot token, absent until the first exchange.
type Credentials struct {
	PersonalAccessToken string       `json:"personal_access_token"`
	AccessToken         *AccessToken `json:"access_token,omitempty"`
}

// TokenEnvelope is the result of exchanging a personal access token for a
// Copilot API token.
type TokenEnvelope struct {
	Token     string
	ExpiresAt int64
}

// ModelOption describes a selectable chat model.
type ModelOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
