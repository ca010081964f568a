package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toadfans/obsidian-github-copilot/pkg/models"
)

type fakeVault struct {
	creds    *models.Credentials
	getErr   error
	storeErr error

	stored     *models.Credentials
	storeCalls int
}

func (v *fakeVault) Credentials(ctx context.Context) (*models.Credentials, error) {
	if v.getErr != nil {
		return nil, v.getErr
	}
	return v.creds, nil
}

func (v *fakeVault) StoreCredentials(ctx context.Context, creds *models.Credentials) error {
	v.storeCalls++
	if v.storeErr != nil {
		return v.storeErr
	}
	v.stored = creds
	return nil
}

type fakeExchanger struct {
	envelope models.TokenEnvelope
	err      error
	calls    int
}

func (e *fakeExchanger) ExchangeToken(ctx context.Context, personalToken string) (models.TokenEnvelope, error) {
	e.calls++
	if e.err != nil {
		return models.TokenEnvelope{}, e.err
	}
	return e.envelope, nil
}

func newTestManager(vault Vault, exchanger TokenExchanger, now time.Time) *Manager {
	m := NewManager(vault, exchanger)
	m.now = func() time.Time { return now }
	return m
}

func TestGetAccessToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fresh := models.TokenEnvelope{Token: "tid=fresh;exp=123", ExpiresAt: now.Add(time.Hour).Unix()}

	tests := []struct {
		name          string
		creds         *models.Credentials
		wantToken     string
		wantExchanges int
		wantStores    int
		wantErr       error
	}{
		{
			name:      "cached token outside refresh margin",
			creds:     credsWithToken("cached", now.Add(RefreshMargin+time.Second)),
			wantToken: "cached",
		},
		{
			name:          "cached token exactly at margin boundary refreshes",
			creds:         credsWithToken("cached", now.Add(RefreshMargin)),
			wantToken:     fresh.Token,
			wantExchanges: 1,
			wantStores:    1,
		},
		{
			name:          "cached token inside refresh margin refreshes",
			creds:         credsWithToken("cached", now.Add(time.Minute)),
			wantToken:     fresh.Token,
			wantExchanges: 1,
			wantStores:    1,
		},
		{
			name:          "expired token refreshes",
			creds:         credsWithToken("cached", now.Add(-time.Hour)),
			wantToken:     fresh.Token,
			wantExchanges: 1,
			wantStores:    1,
		},
		{
			name:          "no cached token refreshes",
			creds:         &models.Credentials{PersonalAccessToken: "ghu_pat"},
			wantToken:     fresh.Token,
			wantExchanges: 1,
			wantStores:    1,
		},
		{
			name:    "no credentials at all",
			creds:   nil,
			wantErr: ErrNotAuthenticated,
		},
		{
			name:    "no personal token",
			creds:   &models.Credentials{AccessToken: &models.AccessToken{Token: "cached", ExpiresAt: now.Add(time.Hour).Unix()}},
			wantErr: ErrNotAuthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vault := &fakeVault{creds: tt.creds}
			exchanger := &fakeExchanger{envelope: fresh}
			m := newTestManager(vault, exchanger, now)

			token, err := m.GetAccessToken(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetAccessToken() error = %v, want %v", err, tt.wantErr)
			}
			if token != tt.wantToken {
				t.Errorf("GetAccessToken() = %q, want %q", token, tt.wantToken)
			}
			if exchanger.calls != tt.wantExchanges {
				t.Errorf("exchange calls = %d, want %d", exchanger.calls, tt.wantExchanges)
			}
			if vault.storeCalls != tt.wantStores {
				t.Errorf("store calls = %d, want %d", vault.storeCalls, tt.wantStores)
			}
		})
	}
}

func TestGetAccessTokenPersistsRefreshedCredentials(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	vault := &fakeVault{creds: &models.Credentials{PersonalAccessToken: "ghu_pat"}}
	exchanger := &fakeExchanger{envelope: models.TokenEnvelope{Token: "new-token", ExpiresAt: now.Add(time.Hour).Unix()}}
	m := newTestManager(vault, exchanger, now)

	if _, err := m.GetAccessToken(context.Background()); err != nil {
		t.Fatalf("GetAccessToken() error = %v", err)
	}

	if vault.stored == nil {
		t.Fatal("refreshed credentials were not persisted")
	}
	if vault.stored.PersonalAccessToken != "ghu_pat" {
		t.Errorf("persisted personal token = %q, want preserved %q", vault.stored.PersonalAccessToken, "ghu_pat")
	}
	if vault.stored.AccessToken == nil || vault.stored.AccessToken.Token != "new-token" {
		t.Errorf("persisted access token = %+v, want new-token", vault.stored.AccessToken)
	}
	if got, want := vault.stored.AccessToken.ExpiresAt, now.Add(time.Hour).Unix(); got != want {
		t.Errorf("persisted expiry = %d, want %d", got, want)
	}
}

func TestGetAccessTokenPropagatesErrors(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	vaultErr := errors.New("vault unavailable")
	exchangeErr := errors.New("token exchange rejected")
	storeErr := errors.New("write failed")

	tests := []struct {
		name      string
		vault     *fakeVault
		exchanger *fakeExchanger
		wantErr   error
	}{
		{
			name:      "vault read error",
			vault:     &fakeVault{getErr: vaultErr},
			exchanger: &fakeExchanger{},
			wantErr:   vaultErr,
		},
		{
			name:      "exchange error",
			vault:     &fakeVault{creds: &models.Credentials{PersonalAccessToken: "ghu_pat"}},
			exchanger: &fakeExchanger{err: exchangeErr},
			wantErr:   exchangeErr,
		},
		{
			name:      "store error",
			vault:     &fakeVault{creds: &models.Credentials{PersonalAccessToken: "ghu_pat"}, storeErr: storeErr},
			exchanger: &fakeExchanger{envelope: models.TokenEnvelope{Token: "t", ExpiresAt: now.Add(time.Hour).Unix()}},
			wantErr:   storeErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(tt.vault, tt.exchanger, now)
			if _, err := m.GetAccessToken(context.Background()); !errors.Is(err, tt.wantErr) {
				t.Errorf("GetAccessToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsAuthenticated(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name  string
		vault *fakeVault
		want  bool
	}{
		{
			name:  "valid token",
			vault: &fakeVault{creds: credsWithToken("t", now.Add(time.Hour))},
			want:  true,
		},
		{
			// Exact expiry, not the refresh margin: a token inside the
			// margin still reads as authenticated.
			name:  "token inside refresh margin",
			vault: &fakeVault{creds: credsWithToken("t", now.Add(time.Minute))},
			want:  true,
		},
		{
			name:  "expired token",
			vault: &fakeVault{creds: credsWithToken("t", now.Add(-time.Second))},
			want:  false,
		},
		{
			name:  "expiry exactly now",
			vault: &fakeVault{creds: credsWithToken("t", now)},
			want:  false,
		},
		{
			name:  "no access token",
			vault: &fakeVault{creds: &models.Credentials{PersonalAccessToken: "ghu_pat"}},
			want:  false,
		},
		{
			name:  "no personal token",
			vault: &fakeVault{creds: &models.Credentials{AccessToken: &models.AccessToken{Token: "t", ExpiresAt: now.Add(time.Hour).Unix()}}},
			want:  false,
		},
		{
			name:  "no credentials",
			vault: &fakeVault{},
			want:  false,
		},
		{
			name:  "vault error reads as false",
			vault: &fakeVault{getErr: errors.New("storage failure")},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(tt.vault, &fakeExchanger{}, now)
			if got := m.IsAuthenticated(context.Background()); got != tt.want {
				t.Errorf("IsAuthenticated() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	vault := &fakeVault{}
	m := NewManager(vault, &fakeExchanger{})

	if err := m.SignIn(context.Background(), ""); err == nil {
		t.Error("SignIn() with empty token should fail")
	}

	if err := m.SignIn(context.Background(), "ghu_pat"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if vault.stored == nil || vault.stored.PersonalAccessToken != "ghu_pat" {
		t.Errorf("SignIn() stored = %+v, want personal token ghu_pat", vault.stored)
	}
	if vault.stored.AccessToken != nil {
		t.Error("SignIn() should not store a cached access token")
	}
}

func TestSignOut(t *testing.T) {
	vault := &fakeVault{creds: credsWithToken("t", time.Now().Add(time.Hour))}
	m := NewManager(vault, &fakeExchanger{})

	if err := m.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if vault.stored == nil || vault.stored.PersonalAccessToken != "" || vault.stored.AccessToken != nil {
		t.Errorf("SignOut() stored = %+v, want empty credentials", vault.stored)
	}
}

func credsWithToken(token string, expiresAt time.Time) *models.Credentials {
	return &models.Credentials{
		PersonalAccessToken: "ghu_pat",
		AccessToken: &models.AccessToken{
			Token:     token,
			ExpiresAt: expiresAt.Unix(),
		},
	}
}
