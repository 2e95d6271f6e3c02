package client

// session_cache.go - reuse of the cached session token.
//
// The password is never written to disk; only the short-lived session
// survives between runs.  While the cached token is unexpired the
// password prompt is skipped entirely.

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/CodedMasonry/remote-print/config"
	"github.com/CodedMasonry/remote-print/session"
	"github.com/CodedMasonry/remote-print/util"
)

// PasswordFunc supplies the shared password when a new session must be
// fetched, typically by prompting the user.
type PasswordFunc func() ([]byte, error)

// EnsureSession returns a currently-valid session: the cached one when
// still live, otherwise a fresh one fetched with the password and
// cached for next time.
func EnsureSession(ctx context.Context, cfg *config.ClientConfig, logger *util.Logger, password PasswordFunc) (session.Session, error) {
	dataDir, err := config.DataDir(cfg.DataDir)
	if err != nil {
		return session.Session{}, err
	}

	settings, err := config.LoadClientSettings(dataDir)
	if err != nil {
		logger.Warn("failed to load settings: %v", err)
		settings = &config.ClientSettings{}
	}

	if cached, ok := cachedSession(settings); ok {
		logger.Debug("reusing cached session")
		return cached, nil
	}

	pass, err := password()
	if err != nil {
		return session.Session{}, err
	}

	sess, err := Authenticate(ctx, cfg, logger, pass)
	if err != nil {
		return session.Session{}, err
	}

	settings.SessionID = sess.ID.String()
	settings.SessionExpires = sess.ExpiresAt
	if err := settings.Save(dataDir); err != nil {
		// Losing the cache only costs a prompt next run.
		logger.Warn("failed to save settings: %v", err)
	}
	return sess, nil
}

// cachedSession validates the persisted token client-side.  The server
// re-validates anyway; this just avoids a doomed upload.
func cachedSession(settings *config.ClientSettings) (session.Session, bool) {
	if settings.SessionID == "" || !time.Now().Before(settings.SessionExpires) {
		return session.Session{}, false
	}
	id, err := uuid.Parse(settings.SessionID)
	if err != nil {
		return session.Session{}, false
	}
	return session.Session{ID: id, ExpiresAt: settings.SessionExpires}, true
}
