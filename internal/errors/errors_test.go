package errors

import (
	"fmt"
	"net"
	"strings"
	"testing"
)

func TestNetworkError_Format(t *testing.T) {
	e := Wrap("dial", "192.0.2.1:4433", New("connection refused"))
	got := e.Error()
	if !strings.Contains(got, "dial") || !strings.Contains(got, "192.0.2.1:4433") {
		t.Errorf("missing context in %q", got)
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	inner := New("boom")
	e := Wrap("read", "addr", inner)
	if !Is(e, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestPrinterError(t *testing.T) {
	e := &PrinterError{
		Printer: "upstairs",
		Stderr:  "lpr: The printer or class does not exist.\n",
	}
	if !e.PrinterNotFound() {
		t.Error("expected PrinterNotFound for 'does not exist' stderr")
	}
	if !strings.Contains(e.Error(), "does not exist") {
		t.Errorf("raw stderr missing from %q", e.Error())
	}

	e.Available = []string{"office", "lab"}
	if !strings.Contains(e.Error(), "office, lab") {
		t.Errorf("available printers missing from %q", e.Error())
	}
}

func TestPrinterError_OtherFailure(t *testing.T) {
	e := &PrinterError{Stderr: "lpr: out of paper"}
	if e.PrinterNotFound() {
		t.Error("generic failure misclassified as missing printer")
	}
}

func TestIsAuthFailure(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrInvalidCredential, true},
		{ErrSessionUnknown, true},
		{ErrSessionExpired, true},
		{ErrMissingSession, true},
		{fmt.Errorf("validate: %w", ErrSessionExpired), true},
		{ErrInvalidRequest, false},
		{New("unrelated"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsAuthFailure(tt.err); got != tt.want {
			t.Errorf("IsAuthFailure(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestConfigError_Hint(t *testing.T) {
	e := &ConfigError{Field: "cert", Message: "requires --key", Hint: "pass both or neither"}
	got := e.Error()
	if !strings.Contains(got, "--cert") || !strings.Contains(got, "hint:") {
		t.Errorf("unexpected format %q", got)
	}
}

func TestIsRetryable_DNSTemporary(t *testing.T) {
	dns := &net.DNSError{Err: "timeout", IsTemporary: true}
	if !IsRetryable(dns) {
		t.Error("temporary DNS error should be retryable")
	}
	if IsRetryable(New("plain")) {
		t.Error("plain error should not be retryable")
	}
}
