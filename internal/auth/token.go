package auth

import (
	"context"
	"errors"
	"time"

	"github.com/toadfans/obsidian-github-copilot/pkg/models"
)

// RefreshMargin is the safety window before real expiry within which a
// cached API token is already treated as stale and refreshed.
const RefreshMargin = 5 * time.Minute

// ErrNotAuthenticated is returned when no personal access token is on
// record. The user must sign in before the client can obtain API tokens.
var ErrNotAuthenticated = errors.New("not authenticated: no personal access token on record")

// TokenExchanger exchanges a personal access token for a short-lived
// Copilot API token.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, personalToken string) (models.TokenEnvelope, error)
}

// Manager owns the access-token lifecycle: it decides whether the cached
// token is still usable, refreshes it through the exchanger when it is
// not, and persists the result back to the vault.
//
// Manager holds no credential state of its own; the vault is the single
// source of truth. Two concurrent refreshes may both exchange and both
// persist, which is tolerated: last write wins and either token is valid.
type Manager struct {
	vault     Vault
	exchanger TokenExchanger
	now       func() time.Time
}

// NewManager creates a Manager over the given vault and exchanger.
func NewManager(vault Vault, exchanger TokenExchanger) *Manager {
	return &Manager{
		vault:     vault,
		exchanger: exchanger,
		now:       time.Now,
	}
}

// GetAccessToken returns a usable Copilot API token, refreshing and
// persisting it first when the cached one is absent or within
// RefreshMargin of expiry. It fails with ErrNotAuthenticated, before any
// network call, when no personal access token is stored. Exchange and
// storage errors propagate unchanged; there is no retry.
func (m *Manager) GetAccessToken(ctx context.Context) (string, error) {
	creds, err := m.vault.Credentials(ctx)
	if err != nil {
		return "", err
	}
	if creds == nil || creds.PersonalAccessToken == "" {
		return "", ErrNotAuthenticated
	}

	if cached := creds.AccessToken; cached != nil && cached.Token != "" {
		expiry := time.Unix(cached.ExpiresAt, 0)
		if m.now().Before(expiry.Add(-RefreshMargin)) {
			return cached.Token, nil
		}
	}

	envelope, err := m.exchanger.ExchangeToken(ctx, creds.PersonalAccessToken)
	if err != nil {
		return "", err
	}

	creds.AccessToken = &models.AccessToken{
		Token:     envelope.Token,
		ExpiresAt: envelope.ExpiresAt,
	}
	if err := m.vault.StoreCredentials(ctx, creds); err != nil {
		return "", err
	}

	return envelope.Token, nil
}

// IsAuthenticated reports whether a personal token and an unexpired API
// token are both on record. It never fails: any storage error reads as
// false. The check uses the exact expiry, not RefreshMargin, so a session
// reported authenticated here may still refresh on its next call.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	creds, err := m.vault.Credentials(ctx)
	if err != nil || creds == nil {
		return false
	}
	if creds.PersonalAccessToken == "" {
		return false
	}
	if creds.AccessToken == nil || creds.AccessToken.Token == "" {
		return false
	}
	return m.now().Before(time.Unix(creds.AccessToken.ExpiresAt, 0))
}

// SignIn stores a freshly acquired personal access token. Any cached API
// token is dropped so the next call exchanges against the new one.
func (m *Manager) SignIn(ctx context.Context, personalToken string) error {
	if personalToken == "" {
		return errors.New("empty personal access token")
	}
	return m.vault.StoreCredentials(ctx, &models.Credentials{
		PersonalAccessToken: personalToken,
	})
}

// SignOut removes all stored credentials.
func (m *Manager) SignOut(ctx context.Context) error {
	return m.vault.StoreCredentials(ctx, &models.Credentials{})
}
