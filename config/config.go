// Package config defines the runtime configuration for the print
// server and client, and persists the settings documents (password
// hash, cached session) in the platform data directory.
package config

import (
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/CodedMasonry/remote-print/internal/errors"
)

// ServerConfig holds every tuneable for a server instance.
type ServerConfig struct {
	// ── Transport ────────────────────────────────────────────────────
	ListenAddr string // address:port to bind the QUIC endpoint on
	CertFile   string // TLS certificate chain, PEM or DER ("" = self-signed)
	KeyFile    string // TLS private key, PEM or DER

	// ── Printing ─────────────────────────────────────────────────────
	Printer string // target printer name ("" = system default)

	// ── Sessions ─────────────────────────────────────────────────────
	SessionTTL time.Duration

	// ── Storage ──────────────────────────────────────────────────────
	DataDir string // overrides the xdg data dir (mainly for tests)

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// ClientConfig holds every tuneable for a single upload.
type ClientConfig struct {
	URL        string // remote server, e.g. "print.example.com:4433"
	ServerName string // hostname override for certificate verification
	CAFile     string // custom CA certificate to trust, PEM or DER
	FilePath   string // the file to send
	DataDir    string
	Verbose    int
}

// Validate checks that the server configuration is internally
// consistent.
func (c *ServerConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return &errors.ConfigError{
			Field:   "listen",
			Value:   c.ListenAddr,
			Message: "not a valid address",
			Hint:    "use host:port, e.g. 0.0.0.0:4433",
		}
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return &errors.ConfigError{
			Field:   "cert",
			Message: "certificate and key must be supplied together",
			Hint:    "pass both --cert and --key, or neither for a self-signed certificate",
		}
	}
	if c.SessionTTL <= 0 {
		return &errors.ConfigError{
			Field:   "session-ttl",
			Value:   c.SessionTTL,
			Message: "must be positive",
		}
	}
	return nil
}

// Validate checks that the client configuration is internally
// consistent.
func (c *ClientConfig) Validate() error {
	if c.URL == "" {
		return &errors.ConfigError{
			Field:   "url",
			Message: "server address is required",
		}
	}
	if c.FilePath == "" {
		return &errors.ConfigError{
			Field:   "file",
			Message: "a file to print is required",
		}
	}
	return nil
}

// RemoteAddr resolves the configured URL into host:port, applying the
// default port when none is given.  Accepts bare "host", "host:port",
// and URL forms like "print://host:port".
func (c *ClientConfig) RemoteAddr() (string, error) {
	raw := c.URL
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		raw = u.Host
	}
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		// No port in the input.
		host, port = raw, strconv.Itoa(DefaultPort)
	}
	if host == "" {
		return "", &errors.ConfigError{
			Field:   "url",
			Value:   c.URL,
			Message: "no hostname",
		}
	}
	return net.JoinHostPort(host, port), nil
}

// Host returns the hostname to present for certificate verification:
// the explicit override if set, else the host part of the URL.
func (c *ClientConfig) Host() (string, error) {
	if c.ServerName != "" {
		return c.ServerName, nil
	}
	addr, err := c.RemoteAddr()
	if err != nil {
		return "", err
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	return host, nil
}
