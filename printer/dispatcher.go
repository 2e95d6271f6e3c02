// Package printer persists an uploaded body to a transient file and
// hands it to the system print command.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/CodedMasonry/remote-print/internal/errors"
	"github.com/CodedMasonry/remote-print/internal/metrics"
	"github.com/CodedMasonry/remote-print/util"
)

// Dispatcher runs print jobs.  Safe for concurrent use: every job gets
// a uniquely named temp file, and the external command is spawned per
// job.
type Dispatcher struct {
	// Printer is the target printer name.  Empty means the system
	// default printer.
	Printer string

	Logger  *util.Logger
	Metrics *metrics.Collector

	// Command seams, overridable in tests.  Defaults to lpr / lpstat.
	LprCommand    string
	LpstatCommand string

	// TempDir overrides the spool directory (default: os.TempDir()).
	TempDir string
}

// New returns a Dispatcher printing to the named printer ("" = system
// default).
func New(printerName string, logger *util.Logger, m *metrics.Collector) *Dispatcher {
	return &Dispatcher{
		Printer: printerName,
		Logger:  logger,
		Metrics: m,
	}
}

// Print copies body into a transient file and runs the print command
// on it.  The file is removed once the command exits, success or
// failure.  A retry after a reported failure may print twice; there is
// no exactly-once guarantee.
func (d *Dispatcher) Print(ctx context.Context, body io.Reader, extension string) error {
	path, written, err := d.spool(body, extension)
	if err != nil {
		return fmt.Errorf("spool job: %w", err)
	}
	defer os.Remove(path)

	d.Logger.Debug("spooled %d bytes to %s", written, path)
	d.Metrics.BytesReceived(written)

	args := []string{path}
	if d.Printer != "" {
		args = append(args, "-P", d.Printer)
	}
	cmd := exec.CommandContext(ctx, d.lpr(), args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		perr := &errors.PrinterError{
			Printer: d.Printer,
			Stderr:  stderr.String(),
		}
		if _, ok := err.(*exec.ExitError); !ok {
			// The command never ran (not installed, bad path).
			return fmt.Errorf("run %s: %w", d.lpr(), err)
		}
		if perr.PrinterNotFound() {
			perr.Available = d.availablePrinters(ctx)
			d.Logger.Error("printer %q not found; available: %v", d.Printer, perr.Available)
		}
		return perr
	}

	d.Metrics.PrintJobCompleted()
	d.Logger.Info("printed %s job (%d bytes)", extension, written)
	return nil
}

// spool streams body into a uniquely named temp file.  On I/O failure
// the partial file is removed and no print is attempted.
func (d *Dispatcher) spool(body io.Reader, extension string) (string, int64, error) {
	pattern := "remote-print-*"
	if extension != "" {
		pattern += "." + extension
	}
	f, err := os.CreateTemp(d.TempDir, pattern)
	if err != nil {
		return "", 0, err
	}

	buf := util.GetBuf()
	written, err := io.CopyBuffer(f, body, *buf)
	util.PutBuf(buf)

	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", 0, err
	}
	return f.Name(), written, nil
}

// availablePrinters enumerates printers via lpstat, best-effort: any
// failure is logged and swallowed, returning nil.
func (d *Dispatcher) availablePrinters(ctx context.Context) []string {
	out, err := exec.CommandContext(ctx, d.lpstat(), "-p").Output()
	if err != nil {
		d.Logger.Warn("enumerating printers: %v", err)
		return nil
	}

	// lpstat -p lines look like "printer office is idle. ..."; the
	// second field is the name.
	var printers []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "printer" {
			printers = append(printers, fields[1])
		}
	}
	return printers
}

func (d *Dispatcher) lpr() string {
	if d.LprCommand != "" {
		return d.LprCommand
	}
	return "lpr"
}

func (d *Dispatcher) lpstat() string {
	if d.LpstatCommand != "" {
		return d.LpstatCommand
	}
	return "lpstat"
}
