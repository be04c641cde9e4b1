// Package cache stores raw forge API responses between runs.
//
// Single-resource and relation lookups (a project, a project's members, a
// user's projects) are stable enough to reuse for a while; paginated search
// results are not cached at all. The [Cache] interface has four backends:
//
//   - [FileCache]: hash-sharded files under ~/.cache/forgemap (CLI default)
//   - [RedisCache]: shared cache for several server instances
//   - [MongoCache]: document cache for deployments that already run MongoDB
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer] so that different forges sharing one
// backend never collide.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the stored bytes and true on a fresh hit. Expired and
	// missing entries are both reported as a miss without error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// HTTPKey returns the key for a GET response of url within namespace.
	HTTPKey(namespace, url string) string
}

// DefaultKeyer hashes the URL so keys have a bounded length.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<sha256(url)>".
func (DefaultKeyer) HTTPKey(namespace, url string) string {
	return "http:" + namespace + ":" + Hash([]byte(url))
}
