// Package client implements the upload side of the print protocol:
// fetching a session with the shared password and streaming a file to
// the server.  The interactive surfaces (GUI, prompts) live in cmd/;
// this package only speaks the wire protocol.
package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quic-go/quic-go"

	"github.com/CodedMasonry/remote-print/config"
	"github.com/CodedMasonry/remote-print/internal/errors"
	"github.com/CodedMasonry/remote-print/internal/pki"
	"github.com/CodedMasonry/remote-print/internal/retry"
	"github.com/CodedMasonry/remote-print/protocol"
	"github.com/CodedMasonry/remote-print/session"
	"github.com/CodedMasonry/remote-print/util"
)

// Dial establishes a QUIC connection to the configured server,
// retrying with backoff on transient failures.  The caller owns the
// connection and must close it.
func Dial(ctx context.Context, cfg *config.ClientConfig, logger *util.Logger) (quic.Connection, error) {
	addr, err := cfg.RemoteAddr()
	if err != nil {
		return nil, err
	}
	host, err := cfg.Host()
	if err != nil {
		return nil, err
	}

	dataDir, err := config.DataDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	roots, err := pki.ClientRoots(cfg.CAFile, dataDir, logger)
	if err != nil {
		return nil, err
	}

	tlsConf := &tls.Config{
		RootCAs:    roots,
		ServerName: host,
		NextProtos: []string{protocol.ALPN},
	}

	logger.Verbose("connecting to %s at %s", host, addr)

	var conn quic.Connection
	err = retry.DefaultBackoff().Do(ctx, func(attempt int) error {
		if attempt > 1 {
			logger.Verbose("dial attempt %d", attempt)
		}
		dialCtx, cancel := context.WithTimeout(ctx, config.DefaultDialTimeout)
		defer cancel()

		c, err := quic.DialAddr(dialCtx, addr, tlsConf, nil)
		if err != nil {
			if strings.Contains(err.Error(), "tls") || strings.Contains(err.Error(), "CRYPTO_ERROR") {
				// Certificate trouble will not fix itself.
				return retry.Permanent(errors.Wrap("dial", addr, err))
			}
			return errors.Wrap("dial", addr, err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("connected to server")
	return conn, nil
}

// Authenticate exchanges the password for a session token.
func Authenticate(ctx context.Context, cfg *config.ClientConfig, logger *util.Logger, password []byte) (session.Session, error) {
	conn, err := Dial(ctx, cfg, logger)
	if err != nil {
		return session.Session{}, err
	}
	defer conn.CloseWithError(0, "done")

	resp, err := roundTrip(ctx, conn, func(stream quic.Stream) error {
		_, err := stream.Write(protocol.EncodeAuthRequest(password))
		return err
	})
	if err != nil {
		return session.Session{}, err
	}

	sess, err := protocol.ParseAuthResponse(resp)
	if err != nil {
		return session.Session{}, err
	}
	logger.Verbose("session verified, expires %s", sess.ExpiresAt)
	return sess, nil
}

// SendFile streams the file at path to the server under the given
// session and returns the server's response text.  A response other
// than protocol.DoneResponse means the job was not printed.
func SendFile(ctx context.Context, cfg *config.ClientConfig, logger *util.Logger, sess session.Session, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}

	name := filepath.Base(path)
	extension := strings.TrimPrefix(filepath.Ext(path), ".")
	headers := protocol.EncodePrintHeaders(name, extension, sess.ID, info.Size())

	conn, err := Dial(ctx, cfg, logger)
	if err != nil {
		return "", err
	}
	defer conn.CloseWithError(0, "done")

	resp, err := roundTrip(ctx, conn, func(stream quic.Stream) error {
		if _, err := stream.Write(headers); err != nil {
			return err
		}

		buf := util.GetBuf()
		defer util.PutBuf(buf)
		_, err := io.CopyBuffer(stream, f, *buf)
		return err
	})
	if err != nil {
		return "", err
	}

	logger.Info("sent %s (%d bytes)", name, info.Size())
	return strings.TrimSpace(string(resp)), nil
}

// roundTrip opens one request stream, lets send write the request,
// half-closes, and reads the full response.
func roundTrip(ctx context.Context, conn quic.Connection, send func(quic.Stream) error) ([]byte, error) {
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}

	if err := send(stream); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("failed to shut down stream: %w", err)
	}

	resp, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, nil
}
