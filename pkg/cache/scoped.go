package cache

// ScopedKeyer wraps a Keyer with a prefix so separate contexts (for
// example, different alternate registries pointed at the same backend)
// get isolated cache namespaces.
//
// Example usage:
//
//	// Registry-specific keys
//	altKeyer := NewScopedKeyer(NewDefaultKeyer(), "registry:internal:")
//
//	// Global keys for crates.io
//	globalKeyer := NewDefaultKeyer()
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

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// CrateKey generates a prefixed key for a resolved crate lookup.
func (k *ScopedKeyer) CrateKey(name string, opts CrateKeyOpts) string {
	return k.prefix + k.inner.CrateKey(name, opts)
}

// ManifestKey generates a prefixed key for a remote manifest fetch.
func (k *ScopedKeyer) ManifestKey(url, ref string) string {
	return k.prefix + k.inner.ManifestKey(url, ref)
}
