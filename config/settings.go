package config

// settings.go - persisted settings documents.
//
// The server keeps exactly one secret: the argon2id hash of the shared
// password, stored as server_settings.json in the data directory.  The
// client caches its most recent session token in settings.json so
// repeat uploads within the TTL skip the password prompt.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const (
	serverSettingsFile = "server_settings.json"
	clientSettingsFile = "settings.json"
)

// ServerSettings is the persisted server state.
type ServerSettings struct {
	// Hash is the PHC-format argon2id hash of the shared password.
	Hash string `json:"hash"`
}

// ClientSettings is the persisted client state.  The password itself
// is never written to disk; only the short-lived session token is.
type ClientSettings struct {
	SessionID      string    `json:"session_id,omitempty"`
	SessionExpires time.Time `json:"session_expires,omitempty"`
}

// DataDir returns the directory for certificates and settings,
// creating it if needed.  A non-empty override wins; otherwise the
// platform data home is used (e.g. ~/.local/share/remote-print).
func DataDir(override string) (string, error) {
	dir := override
	if dir == "" {
		dir = filepath.Join(xdg.DataHome, AppDirName)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// LoadServerSettings reads server_settings.json from dir.  A missing
// file is reported via os.ErrNotExist so first-run setup can react.
func LoadServerSettings(dir string) (*ServerSettings, error) {
	data, err := os.ReadFile(filepath.Join(dir, serverSettingsFile))
	if err != nil {
		return nil, err
	}
	var s ServerSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse server settings: %w", err)
	}
	return &s, nil
}

// Save writes the settings document to dir with owner-only
// permissions.
func (s *ServerSettings) Save(dir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, serverSettingsFile), data, 0o600)
}

// LoadClientSettings reads settings.json from dir.  A missing file
// yields empty settings, not an error.
func LoadClientSettings(dir string) (*ClientSettings, error) {
	data, err := os.ReadFile(filepath.Join(dir, clientSettingsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &ClientSettings{}, nil
		}
		return nil, err
	}
	var s ClientSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse client settings: %w", err)
	}
	return &s, nil
}

// Save writes the settings document to dir.
func (s *ClientSettings) Save(dir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, clientSettingsFile), data, 0o600)
}
