// Package protocol implements the line-oriented request format spoken
// over each QUIC stream and the textual responses sent back.
//
// A request is a small CRLF header block terminated by a blank line,
// followed by the raw body for the rest of the stream:
//
//	POST "report.pdf"
//	Extension: "pdf"
//	Session: 8a6e0804-2bd0-4672-b79d-d97027f9071a
//
//	<file bytes...>
//
// Authentication requests use "GET authenticate" and carry the raw
// password as the body.  There is no framing beyond the stream itself:
// whatever bytes remain after the header block are the body, and the
// response occupies the rest of the return direction.
package protocol

import (
	"io"

	"github.com/google/uuid"
)

// ALPN is the application protocol identifier negotiated during the
// TLS handshake.
const ALPN = "hq-29"

// Kind is the request type, decided once during parsing.
type Kind int

const (
	KindPrint Kind = iota
	KindAuthenticate
)

func (k Kind) String() string {
	switch k {
	case KindPrint:
		return "print"
	case KindAuthenticate:
		return "authenticate"
	default:
		return "unknown"
	}
}

// Request is a decoded request descriptor.  Body is a continuation of
// the stream the headers were read from; it is streamed, never
// buffered, so arbitrarily large files pass through.
type Request struct {
	Kind       Kind
	Name       string // client-reported file name (print only)
	Extension  string // file extension, quotes stripped
	SessionID  uuid.UUID
	HasSession bool
	Body       io.Reader
}
