package cache

// ScopedKeyer wraps a Keyer with a prefix that isolates key spaces.
// The CLI scopes keys by build version so that a renderer change never serves
// artifacts produced by an older binary.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1.2.0:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(viewHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(viewHash, opts)
}
