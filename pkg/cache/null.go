package cache

import (
	"context"
	"time"
)

// NullCache is the artifact store used when caching is turned off with
// `[cache] disabled = true` or `--no-cache`, or when no cache directory
// can be resolved. Every export is rendered fresh.
type NullCache struct{}

// NewNullCache returns a store that never holds an artifact.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get misses for every key, so the renderer always runs.
func (c *NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set drops the rendered artifact.
func (c *NullCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (c *NullCache) Delete(context.Context, string) error { return nil }
func (c *NullCache) Close() error                         { return nil }

var _ Cache = (*NullCache)(nil)
