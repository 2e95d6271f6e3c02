// Package pki supplies the TLS certificate material for the QUIC
// endpoint.
//
// Certificates come from one of two places: an externally provided
// key+chain (PEM or DER, chosen by file extension), or a self-signed
// certificate generated on first run and cached as cert.der/key.der in
// the data directory.  Clients trust the cached certificate the same
// way, so a server and client sharing a data directory pair up with no
// extra configuration.
package pki

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CodedMasonry/remote-print/util"
)

const (
	certFileName = "cert.der"
	keyFileName  = "key.der"

	// selfSignedLifetime is deliberately long; the certificate is a
	// pairing credential, not a public identity.
	selfSignedLifetime = 10 * 365 * 24 * time.Hour
)

// ServerCertificate returns the certificate chain and key to present.
// With explicit paths both must be supplied; otherwise the cached
// self-signed certificate is loaded or generated.
func ServerCertificate(certFile, keyFile, dataDir string, logger *util.Logger) (tls.Certificate, error) {
	if certFile != "" && keyFile != "" {
		return loadCertificate(certFile, keyFile)
	}
	return cachedSelfSigned(dataDir, logger)
}

// loadCertificate reads an externally provided pair.  Files ending in
// .der are taken as raw DER; anything else is parsed as PEM.
func loadCertificate(certFile, keyFile string) (tls.Certificate, error) {
	if isDER(certFile) || isDER(keyFile) {
		certDER, err := os.ReadFile(certFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("read certificate: %w", err)
		}
		keyDER, err := os.ReadFile(keyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("read private key: %w", err)
		}
		key, err := parseDERKey(keyDER)
		if err != nil {
			return tls.Certificate{}, err
		}
		return tls.Certificate{
			Certificate: [][]byte{certDER},
			PrivateKey:  key,
		}, nil
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load key pair: %w", err)
	}
	return cert, nil
}

// cachedSelfSigned loads cert.der/key.der from dataDir, generating and
// caching a fresh pair when absent.
func cachedSelfSigned(dataDir string, logger *util.Logger) (tls.Certificate, error) {
	certPath := filepath.Join(dataDir, certFileName)
	keyPath := filepath.Join(dataDir, keyFileName)

	certDER, certErr := os.ReadFile(certPath)
	keyDER, keyErr := os.ReadFile(keyPath)
	if certErr == nil && keyErr == nil {
		key, err := parseDERKey(keyDER)
		if err != nil {
			return tls.Certificate{}, err
		}
		return tls.Certificate{
			Certificate: [][]byte{certDER},
			PrivateKey:  key,
		}, nil
	}
	if !os.IsNotExist(certErr) && certErr != nil {
		return tls.Certificate{}, fmt.Errorf("read cached certificate: %w", certErr)
	}

	logger.Info("generating self-signed certificate")
	certDER, keyDER, err := generateSelfSigned()
	if err != nil {
		return tls.Certificate{}, err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return tls.Certificate{}, fmt.Errorf("create certificate directory: %w", err)
	}
	if err := os.WriteFile(certPath, certDER, 0o644); err != nil {
		return tls.Certificate{}, fmt.Errorf("write certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, keyDER, 0o600); err != nil {
		return tls.Certificate{}, fmt.Errorf("write private key: %w", err)
	}

	key, err := parseDERKey(keyDER)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  key,
	}, nil
}

// generateSelfSigned creates an ECDSA P-256 certificate for localhost.
// Returns the certificate and PKCS#8 key, both DER.
func generateSelfSigned() (certDER, keyDER []byte, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("generate serial: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(selfSignedLifetime),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	certDER, err = x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("create certificate: %w", err)
	}
	keyDER, err = x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal key: %w", err)
	}
	return certDER, keyDER, nil
}

// ClientRoots builds the root pool the client verifies against: an
// explicit CA file when given, else the cached local certificate.  A
// missing cache is logged, not fatal, since a system-trusted
// certificate may still verify.
func ClientRoots(caFile, dataDir string, logger *util.Logger) (*x509.CertPool, error) {
	roots := x509.NewCertPool()

	if caFile != "" {
		data, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		if err := addCert(roots, data); err != nil {
			return nil, fmt.Errorf("parse CA certificate: %w", err)
		}
		return roots, nil
	}

	data, err := os.ReadFile(filepath.Join(dataDir, certFileName))
	switch {
	case err == nil:
		if err := addCert(roots, data); err != nil {
			return nil, fmt.Errorf("parse cached certificate: %w", err)
		}
	case os.IsNotExist(err):
		logger.Info("local server certificate not found")
	default:
		logger.Error("failed to open local server certificate: %v", err)
	}
	return roots, nil
}

// addCert accepts a certificate in DER or PEM form.
func addCert(pool *x509.CertPool, data []byte) error {
	if block, _ := pem.Decode(data); block != nil {
		data = block.Bytes
	}
	cert, err := x509.ParseCertificate(data)
	if err != nil {
		return err
	}
	pool.AddCert(cert)
	return nil
}

// parseDERKey tries the common private key encodings.
func parseDERKey(der []byte) (interface{}, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("no parseable private key found")
}

func isDER(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".der")
}
