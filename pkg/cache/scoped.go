package cache

// ScopedKeyer prefixes every key of an inner Keyer. forgemap scopes keys by
// forge host so that one Redis or Mongo backend can serve several forges.
//
//	keyer := cache.NewScopedKeyer(nil, "forge.apps.education.fr:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey returns the prefixed key.
func (k *ScopedKeyer) HTTPKey(namespace, url string) string {
	return k.prefix + k.inner.HTTPKey(namespace, url)
}
