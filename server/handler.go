package server

// handler.go - per-connection and per-stream handling.
//
// Each stream carries exactly one request: headers, body, response,
// half-close.  A failure anywhere is converted to a textual response
// on the stream that produced it; nothing here can poison the parent
// connection or sibling streams.

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/quic-go/quic-go"

	"github.com/CodedMasonry/remote-print/config"
	"github.com/CodedMasonry/remote-print/internal/errors"
	"github.com/CodedMasonry/remote-print/protocol"
	"github.com/CodedMasonry/remote-print/session"
)

// Stream error codes sent with CancelRead when a request body is
// refused.  The client surfaces them as reset errors; the values just
// need to be distinguishable in traces.
const (
	streamErrMalformed    quic.StreamErrorCode = 0x1
	streamErrUnauthorized quic.StreamErrorCode = 0x2
)

// handleConnection accepts request streams until the peer goes away.
// Every stream gets its own goroutine, so a slow print job never
// blocks the next request on the same connection.
func (s *Server) handleConnection(ctx context.Context, conn quic.Connection) {
	s.Metrics.ConnectionOpened()
	defer s.Metrics.ConnectionClosed()

	remote := conn.RemoteAddr()
	s.Logger.Verbose("established remote=%s protocol=%s",
		remote, conn.ConnectionState().TLS.NegotiatedProtocol)

	for {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			var appErr *quic.ApplicationError
			switch {
			case errors.As(err, &appErr) && appErr.Remote:
				s.Logger.Verbose("connection closed by %s", remote)
			case ctx.Err() != nil:
				// Server shutdown.
			default:
				s.Logger.Error("connection %s failed: %v", remote, err)
				s.Metrics.RecordError(err.Error())
			}
			return
		}
		go s.handleStream(ctx, stream)
	}
}

// handleStream runs one request to completion.  The send side is
// always closed after the response, whatever the outcome.
func (s *Server) handleStream(ctx context.Context, stream quic.Stream) {
	defer s.Metrics.RequestHandled()

	resp, err := s.process(ctx, stream)
	if err != nil {
		s.Logger.Error("request failed: %v", err)
		s.Metrics.RecordError(err.Error())
		if errors.IsAuthFailure(err) {
			s.Metrics.AuthFailure()
		}
		resp = protocol.EncodeError(err)
	}

	if _, err := stream.Write(resp); err != nil {
		s.Logger.Error("failed to send response: %v", err)
	}
	if err := stream.Close(); err != nil {
		s.Logger.Debug("failed to finish stream: %v", err)
	}
}

// process decodes the request and routes it.  Returned errors become
// the response payload.
func (s *Server) process(ctx context.Context, stream quic.Stream) ([]byte, error) {
	req, err := protocol.ReadRequest(bufio.NewReader(stream))
	if err != nil {
		stream.CancelRead(streamErrMalformed)
		return nil, err
	}

	switch req.Kind {
	case protocol.KindAuthenticate:
		return s.authenticate(req)
	case protocol.KindPrint:
		return s.print(ctx, stream, req)
	default:
		stream.CancelRead(streamErrMalformed)
		return nil, errors.ErrInvalidRequest
	}
}

// authenticate reads the password from the body and asks the registry
// for a session.  The password bytes never reach a log or disk.
func (s *Server) authenticate(req *protocol.Request) ([]byte, error) {
	password, err := io.ReadAll(io.LimitReader(req.Body, config.MaxPasswordBytes))
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}

	sess, err := s.Registry.Authenticate(password)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("session issued, expires %s", sess.ExpiresAt.Format("15:04:05"))
	return protocol.EncodeAuthSuccess(sess), nil
}

// print authorizes the request and hands the body to the dispatcher.
// An unauthorized body is refused with CancelRead before any byte is
// persisted, so the peer is never left blocked on flow control.
func (s *Server) print(ctx context.Context, stream quic.Stream, req *protocol.Request) ([]byte, error) {
	if !req.HasSession {
		stream.CancelRead(streamErrUnauthorized)
		return nil, errors.ErrMissingSession
	}

	switch s.Registry.Validate(req.SessionID) {
	case session.StatusUnknown:
		stream.CancelRead(streamErrUnauthorized)
		return nil, errors.ErrSessionUnknown
	case session.StatusExpired:
		stream.CancelRead(streamErrUnauthorized)
		return nil, errors.ErrSessionExpired
	}

	s.Logger.Verbose("printing %q (extension %q)", req.Name, req.Extension)
	if err := s.Dispatcher.Print(ctx, req.Body, req.Extension); err != nil {
		return nil, err
	}
	return []byte(protocol.DoneResponse), nil
}
