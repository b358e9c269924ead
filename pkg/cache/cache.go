// Package cache stores compiled markup and loaded templates between runs.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// shared deployments, and [NullCache] when caching is disabled. Keys are
// derived by a [Keyer] so every caller hashes the same inputs the same way.
//
// The compiler itself never touches a cache. Caching lives in the pipeline
// runner, which keys compiled markup by the content hash of the template
// and of every compile option.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value stored under key. hit is false on a miss or an
	// expired entry; err is reserved for backend failures.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Entry lifetimes.
const (
	// TTLMarkup applies to compiled documents. Output is a pure function of
	// the key inputs, so entries only expire to bound disk use.
	TTLMarkup = 7 * 24 * time.Hour

	// TTLTemplate applies to templates fetched from a remote store.
	TTLTemplate = time.Hour
)

// Keyer derives cache keys.
type Keyer interface {
	// TemplateKey addresses a template loaded from a store backend.
	TemplateKey(backend, family string) string

	// MarkupKey addresses compiled markup for a template content hash.
	MarkupKey(schemaHash string, opts MarkupKeyOpts) string
}

// MarkupKeyOpts are the compile inputs besides the template itself.
type MarkupKeyOpts struct {
	Variant    string `json:"variant,omitempty"`
	TokensHash string `json:"tokens,omitempty"`
	DataHash   string `json:"data,omitempty"`
	Title      string `json:"title,omitempty"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TemplateKey returns "template:<backend>:<family>".
func (k *DefaultKeyer) TemplateKey(backend, family string) string {
	return "template:" + backend + ":" + family
}

// MarkupKey returns "markup:<sha256>" over the schema hash and options.
func (k *DefaultKeyer) MarkupKey(schemaHash string, opts MarkupKeyOpts) string {
	return hashKey("markup", schemaHash, opts)
}

var _ Keyer = (*DefaultKeyer)(nil)
