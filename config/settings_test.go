package config

import (
	"os"
	"testing"
	"time"
)

func TestServerSettings_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := &ServerSettings{Hash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"}
	if err := s.Save(dir); err != nil {
		t.Fatal(err)
	}

	got, err := LoadServerSettings(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Hash != s.Hash {
		t.Errorf("hash = %q, want %q", got.Hash, s.Hash)
	}
}

func TestLoadServerSettings_Missing(t *testing.T) {
	_, err := LoadServerSettings(t.TempDir())
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestClientSettings_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := &ClientSettings{
		SessionID:      "8a6e0804-2bd0-4672-b79d-d97027f9071a",
		SessionExpires: time.Now().Add(4 * time.Hour).UTC(),
	}
	if err := s.Save(dir); err != nil {
		t.Fatal(err)
	}

	got, err := LoadClientSettings(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.SessionID != s.SessionID {
		t.Errorf("session id = %q", got.SessionID)
	}
	if !got.SessionExpires.Equal(s.SessionExpires) {
		t.Errorf("expires = %v, want %v", got.SessionExpires, s.SessionExpires)
	}
}

func TestLoadClientSettings_MissingIsEmpty(t *testing.T) {
	got, err := LoadClientSettings(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if got.SessionID != "" {
		t.Errorf("expected empty settings, got %+v", got)
	}
}

func TestDataDir_Override(t *testing.T) {
	want := t.TempDir() + "/nested"
	got, err := DataDir(want)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("DataDir = %q, want %q", got, want)
	}
	if _, err := os.Stat(got); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}
