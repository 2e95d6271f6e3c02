// print-server - accepts encrypted uploads and prints them.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/CodedMasonry/remote-print/config"
	"github.com/CodedMasonry/remote-print/credential"
	"github.com/CodedMasonry/remote-print/internal/metrics"
	"github.com/CodedMasonry/remote-print/internal/pki"
	"github.com/CodedMasonry/remote-print/printer"
	"github.com/CodedMasonry/remote-print/server"
	"github.com/CodedMasonry/remote-print/session"
	"github.com/CodedMasonry/remote-print/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X main.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "print-server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg := &config.ServerConfig{
		ListenAddr: config.DefaultListenAddr,
		SessionTTL: config.DefaultSessionTTL,
	}
	config.LoadServerEnv(cfg)

	fs := flag.NewFlagSet("print-server", flag.ContinueOnError)
	fs.StringVarP(&cfg.KeyFile, "key", "k", cfg.KeyFile, "TLS private key in PEM or DER format")
	fs.StringVarP(&cfg.CertFile, "cert", "c", cfg.CertFile, "TLS certificate in PEM or DER format")
	fs.StringVarP(&cfg.ListenAddr, "listen", "l", cfg.ListenAddr, "Address to listen on")
	fs.StringVarP(&cfg.Printer, "printer", "p", cfg.Printer, "Printer to use; if not set, uses default")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "How long issued sessions stay valid")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Override the data directory")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if showVersion {
		fmt.Printf("print-server %s\n", version)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Servers default to informational output; -v raises it further.
	logger := util.NewLogger(cfg.Verbose + 1)

	dataDir, err := config.DataDir(cfg.DataDir)
	if err != nil {
		return err
	}

	settings, err := loadOrCreateSettings(dataDir, logger)
	if err != nil {
		return err
	}
	store, err := credential.NewStore(settings.Hash)
	if err != nil {
		return fmt.Errorf("stored password hash is unusable: %w", err)
	}

	cert, err := pki.ServerCertificate(cfg.CertFile, cfg.KeyFile, dataDir, logger)
	if err != nil {
		return err
	}
	logger.Debug("certificate and key parsed successfully")

	m := metrics.New()
	registry := session.NewRegistry(store, cfg.SessionTTL)
	dispatcher := printer.New(cfg.Printer, logger, m)

	return server.New(cfg, cert, registry, dispatcher, logger, m).Run(ctx)
}

// loadOrCreateSettings reads the persisted settings, running the
// first-time password setup when none exist yet.
func loadOrCreateSettings(dataDir string, logger *util.Logger) (*config.ServerSettings, error) {
	settings, err := config.LoadServerSettings(dataDir)
	if err == nil {
		return settings, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	logger.Info("no settings found, running first-time setup")
	fmt.Println("A password is needed for clients to connect")

	password, err := promptNewPassword()
	if err != nil {
		return nil, err
	}
	hash, err := credential.HashPassword(password)
	if err != nil {
		return nil, err
	}

	settings = &config.ServerSettings{Hash: hash}
	if err := settings.Save(dataDir); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return settings, nil
}

// promptNewPassword asks for the shared password twice, echo off.
func promptNewPassword() ([]byte, error) {
	fmt.Fprint(os.Stderr, "Please enter a password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}

	if !bytes.Equal(first, second) {
		return nil, fmt.Errorf("passwords do not match")
	}
	if len(first) == 0 {
		return nil, fmt.Errorf("password must not be empty")
	}
	return first, nil
}
