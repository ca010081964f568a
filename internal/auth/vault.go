// Package auth manages the Copilot credential lifecycle: the persisted
// personal access token, the short-lived API token derived from it, and
// the refresh logic that keeps the latter usable.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/toadfans/obsidian-github-copilot/pkg/models"
)

// vaultKey is the entry under which this client stores its credentials in
// the vault file. Other tools may keep their own entries in the same file.
const vaultKey = "copilot-chat"

// Vault is the persistent credential store. Implementations must be safe
// for concurrent use and must preserve entries they do not own.
type Vault interface {
	// Credentials returns the stored credentials, or nil when none are
	// on record.
	Credentials(ctx context.Context) (*models.Credentials, error)
	// StoreCredentials replaces the stored credentials.
	StoreCredentials(ctx context.Context, creds *models.Credentials) error
}

// FileVault stores credentials in a JSON file, in the same spirit as the
// apps.json file used by official Copilot clients. Keys other than its own
// survive a write untouched.
type FileVault struct {
	path string
	mu   sync.Mutex
}

// NewFileVault creates a vault backed by the file at path. The file and
// its parent directory are created on first write.
func NewFileVault(path string) *FileVault {
	return &FileVault{path: path}
}

// DefaultVaultPath returns the standard location of the credential file
// for the current platform:
//   - Windows: %APPDATA%\GitHub Copilot\chat-credentials.json
//   - macOS, Linux: ~/.config/github-copilot/chat-credentials.json
func DefaultVaultPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", errors.New("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "GitHub Copilot")
	default: // macOS, Linux and other Unix-like systems
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "github-copilot")
	}

	return filepath.Join(configDir, "chat-credentials.json"), nil
}

// Credentials reads this client's entry from the vault file. A missing
// file or missing entry yields nil credentials, not an error.
func (v *FileVault) Credentials(ctx context.Context) (*models.Credentials, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries, err := v.readEntries()
	if err != nil {
		return nil, err
	}

	raw, ok := entries[vaultKey]
	if !ok {
		return nil, nil
	}

	var creds models.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// StoreCredentials writes this client's entry back to the vault file,
// leaving any sibling entries as they were.
func (v *FileVault) StoreCredentials(ctx context.Context, creds *models.Credentials) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries, err := v.readEntries()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	entries[vaultKey] = raw

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(v.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(v.path, data, 0o600)
}

func (v *FileVault) readEntries() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}

	entries := map[string]json.RawMessage{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
