package protocol

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/CodedMasonry/remote-print/config"
	"github.com/CodedMasonry/remote-print/internal/errors"
)

// ReadRequest decodes a request header block from br.  On success the
// returned Request's Body reads the remainder of the stream.
//
// The parse is bounded: at most config.MaxHeaderLines lines and
// config.MaxHeaderBytes total before the blank-line terminator,
// otherwise the request is malformed.  A stream that ends before the
// terminator is malformed too — the decoder never blocks forever
// collecting headers.
func ReadRequest(br *bufio.Reader) (*Request, error) {
	var lines []string
	remaining := config.MaxHeaderBytes
	for {
		if len(lines) > config.MaxHeaderLines {
			return nil, fmt.Errorf("%w: header block too long", errors.ErrInvalidRequest)
		}
		line, err := readLine(br, remaining)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
		}
		remaining -= len(line) + 2
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty header block", errors.ErrInvalidRequest)
	}

	req := &Request{Body: br}
	if err := parseRequestLine(req, lines[0]); err != nil {
		return nil, err
	}
	for _, line := range lines[1:] {
		if err := parseHeader(req, line); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// readLine reads one CRLF- (or LF-) terminated line, at most limit
// bytes.  The terminator is stripped.
func readLine(br *bufio.Reader, limit int) (string, error) {
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", fmt.Errorf("missing header terminator: %v", err)
		}
		if b == '\n' {
			return strings.TrimSuffix(sb.String(), "\r"), nil
		}
		if sb.Len() >= limit {
			return "", fmt.Errorf("header line exceeds %d bytes", limit)
		}
		sb.WriteByte(b)
	}
}

// parseRequestLine decides the request kind.  "POST <name>" is a print
// request; "GET" mentioning "auth" is an authentication request;
// anything else is invalid.
func parseRequestLine(req *Request, line string) error {
	switch {
	case strings.HasPrefix(line, "POST"):
		req.Kind = KindPrint
		req.Name = stripQuotes(strings.TrimSpace(strings.TrimPrefix(line, "POST")))
	case strings.HasPrefix(line, "GET") && strings.Contains(line, "auth"):
		req.Kind = KindAuthenticate
	default:
		return fmt.Errorf("%w: unrecognized request line", errors.ErrInvalidRequest)
	}
	return nil
}

func parseHeader(req *Request, line string) error {
	name, value, found := strings.Cut(line, ":")
	if !found {
		// Stray lines between headers are tolerated, matching the
		// permissive parse the clients grew up with.
		return nil
	}
	value = strings.TrimSpace(value)

	switch name {
	case "Extension":
		ext := stripQuotes(value)
		if !validExtension(ext) {
			return fmt.Errorf("%w: bad extension %q", errors.ErrInvalidRequest, ext)
		}
		req.Extension = ext
	case "Session":
		id, err := uuid.Parse(value)
		if err != nil {
			return fmt.Errorf("%w: bad session id: %v", errors.ErrInvalidRequest, err)
		}
		req.SessionID = id
		req.HasSession = true
	}
	// Unknown headers (Content-Length among them) are ignored.
	return nil
}

func stripQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// validExtension accepts short alphanumeric extensions only, so the
// value can never smuggle path separators into a temp file name.
func validExtension(ext string) bool {
	if len(ext) > 16 {
		return false
	}
	for _, r := range ext {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
