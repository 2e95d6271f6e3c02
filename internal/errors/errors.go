// Package errors provides domain-specific error types for remote-print.
//
// These types carry structured context (operation, address, printer
// diagnostics) that lets the stream router turn any failure into a
// response on the stream that produced it, without poisoning the parent
// connection.
package errors

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrInvalidRequest marks a request whose header block could not
	// be decoded.  Fatal to the request stream only.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidCredential is returned when the supplied password does
	// not match the stored hash.  No session is created.
	ErrInvalidCredential = errors.New("invalid password")

	// ErrSessionUnknown is returned when a print request references a
	// session id that was never issued (or already evicted).
	ErrSessionUnknown = errors.New("unknown session")

	// ErrSessionExpired is returned when a print request references a
	// session past its expiry.
	ErrSessionExpired = errors.New("session expired")

	// ErrMissingSession is returned when a print request carries no
	// Session header at all.
	ErrMissingSession = errors.New("print request requires a session")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a transport operation.
type NetworkError struct {
	Op        string // operation: "dial", "listen", "accept", "write", "read"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether the caller should retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PrinterError represents a nonzero exit from the external print
// command.  Stderr carries the command's raw diagnostic text; when the
// failure looks like a missing printer, Available holds a best-effort
// enumeration of the printers the system knows about.
type PrinterError struct {
	Printer   string   // requested printer ("" = system default)
	Stderr    string   // raw stderr from the print command
	Available []string // best-effort printer list, may be nil
}

func (e *PrinterError) Error() string {
	msg := fmt.Sprintf("print command failed: %s", strings.TrimSpace(e.Stderr))
	if len(e.Available) > 0 {
		msg += fmt.Sprintf("; available printers: %s", strings.Join(e.Available, ", "))
	}
	return msg
}

// PrinterNotFound reports whether the stderr text indicates that the
// requested printer does not exist.
func (e *PrinterError) PrinterNotFound() bool {
	return strings.Contains(e.Stderr, "not exist")
}

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// ── Classification helpers ───────────────────────────────────────────

// IsAuthFailure reports whether err is any of the authentication or
// authorization sentinels.  The stream router uses this to decide
// whether to reset the request body before responding.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredential) ||
		errors.Is(err, ErrSessionUnknown) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrMissingSession)
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use this package as a drop-in replacement for
// the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
