// print-client - uploads a file to a remote print server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/CodedMasonry/remote-print/client"
	"github.com/CodedMasonry/remote-print/config"
	"github.com/CodedMasonry/remote-print/protocol"
	"github.com/CodedMasonry/remote-print/util"
)

var version = "1.0.0" //nolint:gochecknoglobals

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "print-client: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg := &config.ClientConfig{}
	config.LoadClientEnv(cfg)

	fs := flag.NewFlagSet("print-client", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerName, "host", cfg.ServerName, "Override hostname used for certificate verification")
	fs.StringVar(&cfg.CAFile, "ca", cfg.CAFile, "Custom certificate authority to trust, in PEM or DER format")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Override the data directory")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("print-client %s\n", version)
		return nil
	}

	rest := fs.Args()
	if len(rest) != 2 {
		printUsage(fs)
		return fmt.Errorf("expected <url> and <file> arguments")
	}
	cfg.URL, cfg.FilePath = rest[0], rest[1]

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose + 1)

	sess, err := client.EnsureSession(ctx, cfg, logger, promptPassword)
	if err != nil {
		return err
	}

	resp, err := client.SendFile(ctx, cfg, logger, sess, cfg.FilePath)
	if err != nil {
		return err
	}
	if resp != protocol.DoneResponse {
		return fmt.Errorf("server: %s", resp)
	}

	fmt.Println("Successfully sent file")
	return nil
}

func promptPassword() ([]byte, error) {
	fmt.Fprint(os.Stderr, "Please enter a password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return password, nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `print-client %s - upload a file to a remote print server

Usage:
  print-client [options] <url> <file>

Example:
  print-client print.example.com:4433 report.pdf

Options:
%s`, version, fs.FlagUsages())
}
