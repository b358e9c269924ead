// Package store loads template schemas by family name.
//
// The compiler does not care where a schema comes from. Backends:
//   - file: a directory of <family>.json / .toml / .yaml documents
//   - mongo: one document per template in a MongoDB collection
//
// [Cached] wraps any backend with a [cache.Cache] so remote templates are
// fetched once per TTL.
//
// # Usage
//
//	st, err := store.NewFileStore("templates")
//	if err != nil {
//	    return err
//	}
//	s, err := st.Load(ctx, "event-poster")
//	if errors.Is(err, errors.ErrCodeTemplateNotFound) {
//	    // unknown family
//	}
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gideonchrapko/template-builder/pkg/cache"
	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/observability"
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// Store supplies schemas.
type Store interface {
	// Load returns the schema for family, or a TEMPLATE_NOT_FOUND error.
	Load(ctx context.Context, family string) (*schema.Schema, error)

	// List describes every template in the store, ordered by family.
	List(ctx context.Context) ([]Summary, error)

	// Name identifies the backend in logs and cache keys.
	Name() string

	Close() error
}

// Summary describes one stored template.
type Summary struct {
	Family   string   `json:"family" bson:"family"`
	Name     string   `json:"name,omitempty" bson:"name,omitempty"`
	Variants []string `json:"variants,omitempty" bson:"-"`
	Legacy   bool     `json:"legacy,omitempty" bson:"-"`
}

func summarize(s *schema.Schema) Summary {
	return Summary{
		Family:   s.Family,
		Name:     s.Name,
		Variants: s.VariantIDs(),
		Legacy:   s.IsLegacy(),
	}
}

func notFound(family, backend string) error {
	return perrors.New(perrors.ErrCodeTemplateNotFound, "template %q not found in %s store", family, backend)
}

// =============================================================================
// Cached
// =============================================================================

// Cached is a Store that keeps loaded schemas in a cache.
type Cached struct {
	Store
	cache cache.Cache
	keyer cache.Keyer
}

// NewCached wraps st. A nil keyer uses the default key scheme.
func NewCached(st Store, c cache.Cache, keyer cache.Keyer) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Cached{Store: st, cache: c, keyer: keyer}
}

// Load returns the cached schema when present, otherwise loads and caches
// it. Cache failures fall through to the backend.
func (c *Cached) Load(ctx context.Context, family string) (*schema.Schema, error) {
	key := c.keyer.TemplateKey(c.Store.Name(), family)
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		var s schema.Schema
		if err := json.Unmarshal(data, &s); err == nil {
			observability.Cache().OnCacheHit(ctx, "template")
			return &s, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "template")

	s, err := c.Store.Load(ctx, family)
	if err != nil {
		return nil, err
	}
	if data, err := schema.Marshal(s); err == nil {
		if c.cache.Set(ctx, key, data, cache.TTLTemplate) == nil {
			observability.Cache().OnCacheSet(ctx, "template", len(data))
		}
	}
	return s, nil
}

// Invalidate drops a cached template.
func (c *Cached) Invalidate(ctx context.Context, family string) error {
	if err := c.cache.Delete(ctx, c.keyer.TemplateKey(c.Store.Name(), family)); err != nil {
		return fmt.Errorf("invalidate %s: %w", family, err)
	}
	return nil
}
