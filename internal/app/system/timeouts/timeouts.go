// Package timeouts provides centralized timeout values for handler operations.
//
// These timeouts are used with context.WithTimeout for database operations
// and other I/O in HTTP handlers. Using centralized values ensures consistency
// and makes it easy to adjust timeouts across the application.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Short: simple single-document reads or lookups
//   - Medium: list queries, moderate writes, multi-step reads
//   - Long: operations touching multiple collections or external services
package timeouts

import (
	"sync"
	"time"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

// mu protects all timeout values from concurrent access.
var mu sync.RWMutex

var (
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
)

// Configure overrides the default timeouts. Zero or negative values leave
// the current value unchanged. Safe to call before serving traffic.
func Configure(p, s, m, l time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if p > 0 {
		ping = p
	}
	if s > 0 {
		short = s
	}
	if m > 0 {
		medium = m
	}
	if l > 0 {
		long = l
	}
}

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for single-document lookups.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the timeout for list queries and moderate writes.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Long returns the timeout for multi-collection or external-service work.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}
