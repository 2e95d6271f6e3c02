package printer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/CodedMasonry/remote-print/internal/errors"
	"github.com/CodedMasonry/remote-print/internal/metrics"
	"github.com/CodedMasonry/remote-print/util"
)

// writeScript drops an executable shell script into dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake print commands are shell scripts")
	}
}

func TestPrint_Success(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	contentFile := filepath.Join(dir, "content")

	// Record argv and the spooled file's bytes, then succeed.
	lpr := writeScript(t, dir, "lpr",
		"echo \"$@\" >> "+argsFile+"\ncat \"$1\" > "+contentFile+"\nexit 0\n")

	m := metrics.New()
	d := &Dispatcher{
		Logger:     util.NewLogger(0),
		Metrics:    m,
		LprCommand: lpr,
		TempDir:    dir,
	}

	err := d.Print(context.Background(), strings.NewReader("%PDF-1.4 fake"), "pdf")
	if err != nil {
		t.Fatal(err)
	}

	// Invoked exactly once, with a path ending in .pdf.
	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(args)), "\n")
	if len(lines) != 1 {
		t.Fatalf("print command invoked %d times, want 1", len(lines))
	}
	spooled := strings.Fields(lines[0])[0]
	if !strings.HasSuffix(spooled, ".pdf") {
		t.Errorf("spool file %q does not end in .pdf", spooled)
	}

	content, _ := os.ReadFile(contentFile)
	if string(content) != "%PDF-1.4 fake" {
		t.Errorf("printed content = %q", content)
	}

	// Temp file is removed after the command exits.
	if _, err := os.Stat(spooled); !os.IsNotExist(err) {
		t.Errorf("spool file %s not cleaned up", spooled)
	}

	if m.PrintJobs() != 1 {
		t.Errorf("print jobs = %d, want 1", m.PrintJobs())
	}
}

func TestPrint_NamedPrinter(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	lpr := writeScript(t, dir, "lpr", "echo \"$@\" > "+argsFile+"\nexit 0\n")

	d := &Dispatcher{
		Printer:    "office",
		Logger:     util.NewLogger(0),
		LprCommand: lpr,
		TempDir:    dir,
	}
	if err := d.Print(context.Background(), strings.NewReader("x"), "txt"); err != nil {
		t.Fatal(err)
	}

	args, _ := os.ReadFile(argsFile)
	if !strings.Contains(string(args), "-P office") {
		t.Errorf("argv %q missing -P office", args)
	}
}

func TestPrint_PrinterNotFound(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	lpr := writeScript(t, dir, "lpr",
		"echo 'lpr: The printer or class does not exist.' >&2\nexit 1\n")
	lpstat := writeScript(t, dir, "lpstat",
		"echo 'printer office is idle.  enabled since ...'\necho 'printer lab disabled since ...'\nexit 0\n")

	d := &Dispatcher{
		Printer:       "upstairs",
		Logger:        util.NewLogger(0),
		LprCommand:    lpr,
		LpstatCommand: lpstat,
		TempDir:       dir,
	}
	err := d.Print(context.Background(), strings.NewReader("x"), "txt")

	var perr *errors.PrinterError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want PrinterError", err)
	}
	if !perr.PrinterNotFound() {
		t.Error("stderr not classified as missing printer")
	}
	want := []string{"office", "lab"}
	if len(perr.Available) != len(want) {
		t.Fatalf("available = %v, want %v", perr.Available, want)
	}
	for i := range want {
		if perr.Available[i] != want[i] {
			t.Errorf("available[%d] = %q, want %q", i, perr.Available[i], want[i])
		}
	}
}

func TestPrint_GenericFailure(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	lpr := writeScript(t, dir, "lpr", "echo 'lpr: out of paper' >&2\nexit 1\n")

	d := &Dispatcher{
		Logger:     util.NewLogger(0),
		LprCommand: lpr,
		TempDir:    dir,
	}
	err := d.Print(context.Background(), strings.NewReader("x"), "txt")

	var perr *errors.PrinterError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want PrinterError", err)
	}
	if perr.Available != nil {
		t.Errorf("generic failure should not enumerate printers, got %v", perr.Available)
	}
	if !strings.Contains(perr.Error(), "out of paper") {
		t.Errorf("raw stderr missing from %q", perr.Error())
	}
}

func TestPrint_EnumerationFailureSwallowed(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	lpr := writeScript(t, dir, "lpr",
		"echo 'lpr: The printer or class does not exist.' >&2\nexit 1\n")

	d := &Dispatcher{
		Printer:       "upstairs",
		Logger:        util.NewLogger(0),
		LprCommand:    lpr,
		LpstatCommand: filepath.Join(dir, "no-such-lpstat"),
		TempDir:       dir,
	}
	err := d.Print(context.Background(), strings.NewReader("x"), "txt")

	var perr *errors.PrinterError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want PrinterError despite lpstat failure", err)
	}
	if perr.Available != nil {
		t.Errorf("available = %v, want nil", perr.Available)
	}
}

// failingReader errors partway through the body.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("peer went away")
}

func TestPrint_SpoolFailure(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	lpr := writeScript(t, dir, "lpr", "echo ran >> "+argsFile+"\nexit 0\n")

	d := &Dispatcher{
		Logger:     util.NewLogger(0),
		LprCommand: lpr,
		TempDir:    dir,
	}
	err := d.Print(context.Background(), failingReader{}, "txt")
	if err == nil {
		t.Fatal("expected spool error")
	}

	// No partial print attempted.
	if _, statErr := os.Stat(argsFile); !os.IsNotExist(statErr) {
		t.Error("print command ran despite body I/O failure")
	}

	// No stray spool files left behind.
	matches, _ := filepath.Glob(filepath.Join(dir, "remote-print-*"))
	if len(matches) != 0 {
		t.Errorf("leftover spool files: %v", matches)
	}
}
