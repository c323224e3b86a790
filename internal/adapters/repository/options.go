// Package repository defines the ranking store interface and errors.
package repository

import "time"

// Option applies a configuration option to the MapStore.
type Option func(*MapStore)

// WithDefaultTopN sets the limit used when TopN is called without one.
func WithDefaultTopN(n int) Option {
	return func(s *MapStore) {
		if n > 0 {
			s.defaultTopN = n
		}
	}
}

// WithStartTime overrides the uptime reference point, mainly for tests.
func WithStartTime(t time.Time) Option {
	return func(s *MapStore) {
		if !t.IsZero() {
			s.startedAt = t
		}
	}
}
