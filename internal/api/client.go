// Package api implements the HTTP collaborators of the chat client: the
// GitHub token exchange, the Copilot chat completions dispatch, and the
// device-flow sign-in endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/toadfans/obsidian-github-copilot/pkg/models"
)

const (
	// DefaultTokenURL is the GitHub endpoint that exchanges a personal
	// access token for a short-lived Copilot API token.
	DefaultTokenURL = "https://api.github.com/copilot_internal/v2/token"
	// DefaultChatURL is the Copilot chat completions endpoint.
	DefaultChatURL = "https://api.githubcopilot.com/chat/completions"

	defaultEditorVersion       = "vscode/1.99.2"
	defaultEditorPluginVersion = "copilot-chat/0.26.3"
)

// Config customizes a Client. Zero values fall back to the production
// endpoints and default editor identifiers.
type Config struct {
	TokenURL            string
	ChatURL             string
	DeviceCodeURL       string
	OAuthTokenURL       string
	EditorVersion       string
	EditorPluginVersion string
	HTTPClient          *http.Client
}

// Client talks to the GitHub and Copilot APIs. It performs single,
// non-streaming calls with no retry; timeout behavior belongs to the
// injected http.Client.
type Client struct {
	tokenURL            string
	chatURL             string
	deviceCodeURL       string
	oauthTokenURL       string
	editorVersion       string
	editorPluginVersion string
	httpClient          *http.Client
}

// NewClient creates a Client from cfg, filling in defaults for unset
// fields.
func NewClient(cfg Config) *Client {
	c := &Client{
		tokenURL:            cfg.TokenURL,
		chatURL:             cfg.ChatURL,
		deviceCodeURL:       cfg.DeviceCodeURL,
		oauthTokenURL:       cfg.OAuthTokenURL,
		editorVersion:       cfg.EditorVersion,
		editorPluginVersion: cfg.EditorPluginVersion,
		httpClient:          cfg.HTTPClient,
	}
	if c.tokenURL == "" {
		c.tokenURL = DefaultTokenURL
	}
	if c.chatURL == "" {
		c.chatURL = DefaultChatURL
	}
	if c.deviceCodeURL == "" {
		c.deviceCodeURL = defaultDeviceCodeURL
	}
	if c.oauthTokenURL == "" {
		c.oauthTokenURL = defaultOAuthTokenURL
	}
	if c.editorVersion == "" {
		c.editorVersion = defaultEditorVersion
	}
	if c.editorPluginVersion == "" {
		c.editorPluginVersion = defaultEditorPluginVersion
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

// ExchangeToken trades a personal access token for a Copilot API token.
// The endpoint reports expiry as either a number or a string; when it is
// missing entirely, the expiry embedded in the token itself is used.
func (c *Client) ExchangeToken(ctx context.Context, personalToken string) (models.TokenEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tokenURL, nil)
	if err != nil {
		return models.TokenEnvelope{}, err
	}

	req.Header.Set("Authorization", "token "+personalToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "GitHubCopilotChat/"+strings.TrimPrefix(c.editorPluginVersion, "copilot-chat/"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.TokenEnvelope{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return models.TokenEnvelope{}, fmt.Errorf("token exchange failed: %s - %s", resp.Status, string(body))
	}

	var payload struct {
		Token     string      `json:"token"`
		ExpiresAt json.Number `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.TokenEnvelope{}, err
	}
	if payload.Token == "" {
		return models.TokenEnvelope{}, fmt.Errorf("token exchange returned no token")
	}

	expiresAt, err := payload.ExpiresAt.Int64()
	if err != nil || expiresAt == 0 {
		if embedded, ok := expiryFromToken(payload.Token); ok {
			expiresAt = embedded
		} else {
			expiresAt = 0
		}
	}

	return models.TokenEnvelope{Token: payload.Token, ExpiresAt: expiresAt}, nil
}

// SendMessage posts a chat completion request with the header set the
// Copilot API requires and decodes the raw response. Non-200 statuses
// surface as errors carrying the response body.
func (c *Client) SendMessage(ctx context.Context, payload models.ChatRequest, accessToken string) (*models.RawResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Editor-Version", c.editorVersion)
	req.Header.Set("Editor-Plugin-Version", c.editorPluginVersion)
	req.Header.Set("Copilot-Integration-ID", "vscode-chat")
	req.Header.Set("User-Agent", "GitHubCopilotChat/"+strings.TrimPrefix(c.editorPluginVersion, "copilot-chat/"))
	req.Header.Set("OpenAI-Intent", "conversation-agent")
	req.Header.Set("X-GitHub-API-Version", "2025-04-01")
	req.Header.Set("X-Initiator", "user")
	req.Header.Set("X-Request-ID", generateRequestID())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat completion failed: %s - %s", resp.Status, string(respBody))
	}

	var raw models.RawResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &raw, nil
}

// generateRequestID creates a unique request ID for Copilot API calls.
func generateRequestID() string {
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102T150405.000Z"), uuid.New().String()[:8])
}
