// Package cache stores rendered artifacts keyed by content hash.
//
// Exports of a view (DOT, SVG, PNG, PDF) are pure functions of the formatted
// view and the render options, so identical requests from different sessions
// can share one rendering. The [Keyer] derives keys from a hash of the view;
// the [Cache] stores the bytes.
//
// Two backends are provided: [NullCache] disables caching and [FileCache]
// stores entries on disk.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional TTL.
type Cache interface {
	// Get returns the value for key. The boolean is false on a miss;
	// expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// TTLArtifact is how long rendered artifacts stay cached.
const TTLArtifact = 7 * 24 * time.Hour

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey returns the key for an artifact rendered from the view
	// with the given content hash.
	ArtifactKey(viewHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Detailed bool    `json:"detailed,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// DefaultKeyer produces keys of the form "artifact:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(viewHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", viewHash, opts)
}

var _ Keyer = DefaultKeyer{}
