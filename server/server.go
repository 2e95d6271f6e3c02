// Package server accepts QUIC connections and serves the print
// protocol over them.
//
// Concurrency model: one goroutine per connection, one nested
// goroutine per request stream, both unbounded.  Requests on the same
// stream are strictly sequential (there is exactly one per stream);
// streams complete in any order.  The session registry is the only
// state shared across connections.
package server

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/CodedMasonry/remote-print/config"
	"github.com/CodedMasonry/remote-print/internal/errors"
	"github.com/CodedMasonry/remote-print/internal/metrics"
	"github.com/CodedMasonry/remote-print/printer"
	"github.com/CodedMasonry/remote-print/protocol"
	"github.com/CodedMasonry/remote-print/session"
	"github.com/CodedMasonry/remote-print/util"
)

// maxUniStreams caps unidirectional streams.  The protocol is
// bidirectional-only, so this exists purely to bound a peer opening
// streams we will never read.
const maxUniStreams = 5

// Server owns the QUIC endpoint and dispatches request streams.
type Server struct {
	Config     *config.ServerConfig
	Registry   *session.Registry
	Dispatcher *printer.Dispatcher
	Logger     *util.Logger
	Metrics    *metrics.Collector

	cert tls.Certificate
}

// New returns a ready-to-run Server presenting the given certificate.
func New(cfg *config.ServerConfig, cert tls.Certificate, reg *session.Registry,
	disp *printer.Dispatcher, logger *util.Logger, m *metrics.Collector) *Server {
	return &Server{
		Config:     cfg,
		Registry:   reg,
		Dispatcher: disp,
		Logger:     logger,
		Metrics:    m,
		cert:       cert,
	}
}

// Run binds the endpoint and accepts connections until ctx is
// cancelled.  Only bind-time failure is fatal; everything after is
// scoped to a single connection or stream.
func (s *Server) Run(ctx context.Context) error {
	tlsConf := &tls.Config{
		Certificates: []tls.Certificate{s.cert},
		NextProtos:   []string{protocol.ALPN},
	}
	quicConf := &quic.Config{
		MaxIncomingUniStreams: maxUniStreams,
	}

	ln, err := quic.ListenAddr(s.Config.ListenAddr, tlsConf, quicConf)
	if err != nil {
		return errors.Wrap("listen", s.Config.ListenAddr, err)
	}
	defer ln.Close()

	s.Logger.Info("listening on %s", ln.Addr())

	// Shut the listener down when the context expires.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	go s.sweepLoop(ctx)

	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.Logger.Info("shutting down: %s", s.Metrics.JSON())
				return nil
			}
			return errors.Wrap("accept", s.Config.ListenAddr, err)
		}

		s.Logger.Info("connection incoming from %s", conn.RemoteAddr())
		go s.handleConnection(ctx, conn)
	}
}

// sweepLoop periodically evicts expired sessions so the registry stays
// bounded over a long process lifetime.
func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(config.DefaultSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Registry.Sweep(); n > 0 {
				s.Logger.Verbose("evicted %d expired sessions", n)
			}
		}
	}
}
