package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/toadfans/obsidian-github-copilot/internal/config"
	"github.com/toadfans/obsidian-github-copilot/pkg/models"
)

// TokenSource supplies usable Copilot API tokens and answers the
// authentication query.
type TokenSource interface {
	GetAccessToken(ctx context.Context) (string, error)
	IsAuthenticated(ctx context.Context) bool
}

// Dispatcher sends an assembled chat request to the completions API.
type Dispatcher interface {
	SendMessage(ctx context.Context, payload models.ChatRequest, accessToken string) (*models.RawResponse, error)
}

// Client is the chat entry point used by the plugin. Each call is
// independent: token acquisition, request assembly, dispatch and
// normalization run in sequence, and the first failure aborts the call
// with its error unmodified. There is no retry and no partial result.
type Client struct {
	tokens     TokenSource
	dispatcher Dispatcher

	systemPrompt string

	mu           sync.RWMutex
	currentModel string
}

// NewClient creates a chat client over the given collaborators, seeded
// with the model selection and default system prompt from settings.
func NewClient(tokens TokenSource, dispatcher Dispatcher, settings config.Settings) *Client {
	return &Client{
		tokens:       tokens,
		dispatcher:   dispatcher,
		systemPrompt: settings.SystemPrompt,
		currentModel: settings.Model,
	}
}

// SendMessage performs one chat call: obtain a token, resolve the model,
// build the payload, dispatch it, and normalize the response.
func (c *Client) SendMessage(ctx context.Context, opts CallOptions) (*models.ChatResponse, error) {
	token, err := c.tokens.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	model := opts.Model
	if model == "" {
		model = c.GetCurrentModel().ID
	}

	payload := buildRequest(opts, model, c.systemPrompt)

	raw, err := c.dispatcher.SendMessage(ctx, payload, token)
	if err != nil {
		return nil, err
	}

	return Normalize(raw)
}

// GetAvailableModels returns the selectable chat models.
func (c *Client) GetAvailableModels() []models.ModelOption {
	return DefaultModels()
}

// GetCurrentModel returns the currently selected model, falling back to
// the default model when none is selected.
func (c *Client) GetCurrentModel() models.ModelOption {
	c.mu.RLock()
	selected := c.currentModel
	c.mu.RUnlock()

	if selected == "" {
		selected = DefaultModelID
	}
	for _, m := range DefaultModels() {
		if m.ID == selected {
			return m
		}
	}
	// A selection not in the catalog is still honored; the API decides
	// whether it exists.
	return models.ModelOption{ID: selected, Name: selected}
}

// SetCurrentModel selects the model used by subsequent calls that do not
// override it.
func (c *Client) SetCurrentModel(id string) error {
	if id == "" {
		return fmt.Errorf("model id must not be empty")
	}
	c.mu.Lock()
	c.currentModel = id
	c.mu.Unlock()
	return nil
}

// IsAuthenticated reports whether the session holds valid credentials.
// It never fails; storage problems read as not authenticated.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	return c.tokens.IsAuthenticated(ctx)
}
