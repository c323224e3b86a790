package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMinVersion(t *testing.T) {
	Convey("Given version strings", t, func() {
		Convey("1.2 and the empty string map to TLS 1.2", func() {
			for _, v := range []string{"", "1.2"} {
				got, err := MinVersion(v)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, tls.VersionTLS12)
			}
		})

		Convey("1.3 maps to TLS 1.3", func() {
			got, err := MinVersion("1.3")
			So(err, ShouldBeNil)
			So(got, ShouldEqual, tls.VersionTLS13)
		})

		Convey("Anything else is rejected", func() {
			for _, v := range []string{"1.0", "1.1", "tls1.2", "ssl3"} {
				_, err := MinVersion(v)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestEnsureKeyPair(t *testing.T) {
	Convey("Given missing certificate files", t, func() {
		dir := t.TempDir()
		certFile := filepath.Join(dir, "certs", "server.crt")
		keyFile := filepath.Join(dir, "certs", "server.key")

		So(EnsureKeyPair(certFile, keyFile), ShouldBeNil)

		Convey("The generated pair loads as a tls key pair", func() {
			_, err := tls.LoadX509KeyPair(certFile, keyFile)
			So(err, ShouldBeNil)
		})

		Convey("The certificate covers loopback names", func() {
			raw, err := os.ReadFile(certFile)
			So(err, ShouldBeNil)

			block, _ := pem.Decode(raw)
			So(block, ShouldNotBeNil)

			cert, err := x509.ParseCertificate(block.Bytes)
			So(err, ShouldBeNil)
			So(cert.DNSNames, ShouldContain, "localhost")
			So(cert.VerifyHostname("127.0.0.1"), ShouldBeNil)
		})

		Convey("The key file is not world readable", func() {
			info, err := os.Stat(keyFile)
			So(err, ShouldBeNil)
			So(info.Mode().Perm()&0o077, ShouldEqual, os.FileMode(0))
		})

		Convey("Existing files are left untouched", func() {
			before, err := os.ReadFile(certFile)
			So(err, ShouldBeNil)

			So(EnsureKeyPair(certFile, keyFile), ShouldBeNil)

			after, err := os.ReadFile(certFile)
			So(err, ShouldBeNil)
			So(string(after), ShouldEqual, string(before))
		})
	})
}

func TestServerConfig(t *testing.T) {
	Convey("Given a generated pair", t, func() {
		dir := t.TempDir()
		certFile := filepath.Join(dir, "server.crt")
		keyFile := filepath.Join(dir, "server.key")
		So(EnsureKeyPair(certFile, keyFile), ShouldBeNil)

		Convey("ServerConfig enforces the requested minimum version", func() {
			cfg, err := ServerConfig(certFile, keyFile, "1.3")
			So(err, ShouldBeNil)
			So(cfg.MinVersion, ShouldEqual, tls.VersionTLS13)
			So(cfg.Certificates, ShouldHaveLength, 1)
		})

		Convey("A bad version string fails before touching the files", func() {
			_, err := ServerConfig(certFile, keyFile, "1.0")
			So(err, ShouldNotBeNil)
		})

		Convey("Missing files fail to load", func() {
			_, err := ServerConfig(filepath.Join(dir, "nope.crt"), keyFile, "1.2")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestClientConfig(t *testing.T) {
	Convey("ClientConfig carries the server name and verify mode", t, func() {
		cfg := ClientConfig("leaderboard.example", false)
		So(cfg.ServerName, ShouldEqual, "leaderboard.example")
		So(cfg.InsecureSkipVerify, ShouldBeFalse)
		So(cfg.MinVersion, ShouldEqual, tls.VersionTLS12)

		insecure := ClientConfig("", true)
		So(insecure.InsecureSkipVerify, ShouldBeTrue)
	})
}
