package protocol

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CodedMasonry/remote-print/session"
)

// DoneResponse is the fixed payload for a successful print.
const DoneResponse = "done"

// authTimeFormat is round-trippable; session expiry survives the wire
// without losing precision.
const authTimeFormat = time.RFC3339Nano

// EncodeAuthSuccess serializes a freshly issued session as
// "success&<id>&<expires-at>" for the client to cache.
func EncodeAuthSuccess(s session.Session) []byte {
	return []byte(fmt.Sprintf("success&%s&%s", s.ID, s.ExpiresAt.Format(authTimeFormat)))
}

// EncodeError serializes any failure as a human-readable error line.
func EncodeError(err error) []byte {
	return []byte(fmt.Sprintf("Failed to process request: %v\n", err))
}

// ParseAuthResponse is the client-side inverse of EncodeAuthSuccess.
// A response that is not a success payload is returned as an error
// carrying the server's text.
func ParseAuthResponse(resp []byte) (session.Session, error) {
	parts := strings.Split(strings.TrimSpace(string(resp)), "&")
	if len(parts) != 3 || parts[0] != "success" {
		return session.Session{}, fmt.Errorf("authentication failed: %s", strings.TrimSpace(string(resp)))
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return session.Session{}, fmt.Errorf("malformed session id in response: %w", err)
	}
	expires, err := time.Parse(authTimeFormat, parts[2])
	if err != nil {
		return session.Session{}, fmt.Errorf("malformed expiry in response: %w", err)
	}
	return session.Session{ID: id, ExpiresAt: expires}, nil
}

// EncodeAuthRequest builds the header block and body for an
// authentication exchange.  The password travels as the raw body.
func EncodeAuthRequest(password []byte) []byte {
	req := []byte("GET authenticate\r\n\r\n")
	return append(req, password...)
}

// EncodePrintHeaders builds the header block for a print request.  The
// caller streams the file contents after it.
func EncodePrintHeaders(name, extension string, id uuid.UUID, size int64) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "POST %q\r\n", name)
	fmt.Fprintf(&sb, "Content-Length: %d\r\n", size)
	fmt.Fprintf(&sb, "Extension: %q\r\n", extension)
	fmt.Fprintf(&sb, "Session: %s\r\n", id)
	sb.WriteString("\r\n")
	return []byte(sb.String())
}
