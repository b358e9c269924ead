package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several brands or
// environments can share one Redis without colliding:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "brand:acme:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// TemplateKey returns the prefixed template key.
func (k *ScopedKeyer) TemplateKey(backend, family string) string {
	return k.prefix + k.inner.TemplateKey(backend, family)
}

// MarkupKey returns the prefixed markup key.
func (k *ScopedKeyer) MarkupKey(schemaHash string, opts MarkupKeyOpts) string {
	return k.prefix + k.inner.MarkupKey(schemaHash, opts)
}
