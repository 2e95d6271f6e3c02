package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultPort is the QUIC port the server listens on and the
	// client dials when the URL carries no port.
	DefaultPort = 4433

	// DefaultListenAddr binds all interfaces on the default port.
	DefaultListenAddr = "0.0.0.0:4433"

	// DefaultSessionTTL is how long an issued session stays valid.
	DefaultSessionTTL = 4 * time.Hour

	// DefaultDialTimeout bounds a single connection attempt from the
	// client.
	DefaultDialTimeout = 5 * time.Second

	// DefaultSweepInterval is how often the server evicts expired
	// sessions from the registry.
	DefaultSweepInterval = 30 * time.Minute

	// MaxHeaderLines bounds the request header block; more lines
	// without a terminator is treated as a malformed request.
	MaxHeaderLines = 16

	// MaxHeaderBytes bounds the total size of the header block.
	MaxHeaderBytes = 4 * 1024

	// MaxPasswordBytes bounds the body of an authentication request.
	MaxPasswordBytes = 4 * 1024
)

// AppDirName is the subdirectory used inside the platform data
// directory for certificates and settings.
const AppDirName = "remote-print"
