// Package tlsutil loads and, for development, generates the server
// certificate pair and builds tls configurations with the minimum
// protocol version enforced.
package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// Default certificate parameters for generated dev pairs.
const (
	certValidity  = 365 * 24 * time.Hour
	dirPermission = 0o750
	keyPermission = 0o600
)

// MinVersion maps a config string to a tls version constant.
// Accepts "1.2" and "1.3"; anything else is an error.
func MinVersion(v string) (uint16, error) {
	switch v {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported minimum tls version: %s", v)
	}
}

// ServerConfig loads the certificate pair and returns a server-side
// tls.Config enforcing the given minimum version.
func ServerConfig(certFile, keyFile, minVersion string) (*tls.Config, error) {
	minVer, err := MinVersion(minVersion)
	if err != nil {
		return nil, err
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("loading key pair: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVer,
	}, nil
}

// ClientConfig returns a client-side tls.Config. With insecure set the
// client skips chain verification, which is how dev clients talk to a
// self-signed server certificate.
func ClientConfig(serverName string, insecure bool) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: insecure, //nolint:gosec // dev clients trust self-signed certs explicitly
		MinVersion:         tls.VersionTLS12,
	}
}

// EnsureKeyPair generates a self-signed certificate pair at the given
// paths when either file is missing. Existing files are left untouched.
func EnsureKeyPair(certFile, keyFile string) error {
	_, certErr := os.Stat(certFile)
	_, keyErr := os.Stat(keyFile)
	if certErr == nil && keyErr == nil {
		return nil
	}
	if certErr != nil && !errors.Is(certErr, os.ErrNotExist) {
		return certErr
	}
	if keyErr != nil && !errors.Is(keyErr, os.ErrNotExist) {
		return keyErr
	}

	if err := os.MkdirAll(filepath.Dir(certFile), dirPermission); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(keyFile), dirPermission); err != nil {
		return err
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("generating serial: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "podium", Organization: []string{"podium dev"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(certValidity),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("creating certificate: %w", err)
	}

	certOut, err := os.Create(certFile)
	if err != nil {
		return err
	}
	defer certOut.Close()
	if err := pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
		return err
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshaling key: %w", err)
	}

	keyOut, err := os.OpenFile(keyFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, keyPermission)
	if err != nil {
		return err
	}
	defer keyOut.Close()
	return pem.Encode(keyOut, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
}
