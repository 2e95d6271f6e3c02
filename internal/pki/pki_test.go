package pki

import (
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodedMasonry/remote-print/util"
)

func TestCachedSelfSigned_GeneratesOnce(t *testing.T) {
	dir := t.TempDir()
	logger := util.NewLogger(0)

	cert1, err := ServerCertificate("", "", dir, logger)
	if err != nil {
		t.Fatal(err)
	}
	if len(cert1.Certificate) == 0 {
		t.Fatal("no certificate material")
	}

	// Both cache files exist.
	for _, name := range []string{"cert.der", "key.der"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("cache file %s: %v", name, err)
		}
	}

	// A second call loads the cache instead of regenerating.
	cert2, err := ServerCertificate("", "", dir, logger)
	if err != nil {
		t.Fatal(err)
	}
	if string(cert1.Certificate[0]) != string(cert2.Certificate[0]) {
		t.Error("second call generated a different certificate")
	}
}

func TestSelfSigned_ParsesForLocalhost(t *testing.T) {
	cert, err := ServerCertificate("", "", t.TempDir(), util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatal(err)
	}
	if err := parsed.VerifyHostname("localhost"); err != nil {
		t.Errorf("certificate not valid for localhost: %v", err)
	}
}

func TestClientRoots_FromCache(t *testing.T) {
	dir := t.TempDir()
	logger := util.NewLogger(0)

	if _, err := ServerCertificate("", "", dir, logger); err != nil {
		t.Fatal(err)
	}

	roots, err := ClientRoots("", dir, logger)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots.Subjects()) != 1 { //nolint:staticcheck // fine for a test
		t.Error("cached certificate not added to pool")
	}
}

func TestClientRoots_MissingCacheNotFatal(t *testing.T) {
	roots, err := ClientRoots("", t.TempDir(), util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	if roots == nil {
		t.Fatal("expected an empty pool, got nil")
	}
}

func TestClientRoots_ExplicitCA(t *testing.T) {
	dir := t.TempDir()
	logger := util.NewLogger(0)

	if _, err := ServerCertificate("", "", dir, logger); err != nil {
		t.Fatal(err)
	}

	roots, err := ClientRoots(filepath.Join(dir, "cert.der"), t.TempDir(), logger)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots.Subjects()) != 1 { //nolint:staticcheck
		t.Error("CA file not added to pool")
	}
}

func TestLoadCertificate_DERPair(t *testing.T) {
	dir := t.TempDir()
	logger := util.NewLogger(0)

	// Generate a cached pair, then load it back as an explicit pair.
	if _, err := ServerCertificate("", "", dir, logger); err != nil {
		t.Fatal(err)
	}

	cert, err := ServerCertificate(
		filepath.Join(dir, "cert.der"),
		filepath.Join(dir, "key.der"),
		t.TempDir(), logger)
	if err != nil {
		t.Fatal(err)
	}
	if cert.PrivateKey == nil {
		t.Error("private key not parsed from DER")
	}
}
