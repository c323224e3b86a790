// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Layer defaults, an optional YAML file, and PODIUM_ env vars in Load.
// - External errors must be wrapped via this package's error helpers.
package config

import "context"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the TLS listen address, e.g. ":9443".
	Addr string `koanf:"addr"`

	// OpsAddr configures the plain HTTP listener serving /metrics,
	// /healthz, /stats and the /live websocket feed.
	OpsAddr string `koanf:"ops_addr"`

	// CertFile and KeyFile locate the server certificate pair.
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`

	// GenerateDevCert creates a self-signed pair at CertFile/KeyFile
	// when the files are missing. Meant for development only.
	GenerateDevCert bool `koanf:"generate_dev_cert"`

	// MinTLSVersion is the lowest negotiated protocol version: 1.2 or 1.3.
	MinTLSVersion string `koanf:"min_tls_version"`

	// TopN is the default leaderboard size for GET_TOP without n.
	TopN int `koanf:"top_n"`

	// ReadBufferSize is the per-session read chunk size in bytes.
	ReadBufferSize int `koanf:"read_buffer_size"`

	// MaxRecordSize caps bytes buffered per session while waiting for a
	// record terminator.
	MaxRecordSize int `koanf:"max_record_size"`

	// StatsLogIntervalSeconds controls the periodic stats log line.
	StatsLogIntervalSeconds int `koanf:"stats_log_interval_seconds"`

	// LiveMinIntervalMS coalesces live feed broadcasts to at most one
	// per interval.
	LiveMinIntervalMS int `koanf:"live_min_interval_ms"`
}

// New creates a Config populated with defaults. Context is accepted
// first to satisfy the project-wide convention; it is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9443",
		OpsAddr:                 ":9080",
		CertFile:                "certs/server.crt",
		KeyFile:                 "certs/server.key",
		GenerateDevCert:         true,
		MinTLSVersion:           "1.2",
		TopN:                    10,
		ReadBufferSize:          4096,
		MaxRecordSize:           1 << 20,
		StatsLogIntervalSeconds: 10,
		LiveMinIntervalMS:       250,
	}
}
