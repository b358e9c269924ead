// Package pipeline runs the load → compile pipeline with caching.
//
// The compiler in pkg/compile is a pure function. This package is the
// shell around it that CLI and service callers share: it loads a template
// from a store, derives a content-addressed cache key from the template and
// every compile input, compiles on a miss, and reports stats, logs, and
// observability events.
//
// # Usage
//
//	runner := pipeline.NewRunner(st, fileCache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Family:  "event-poster",
//	    Variant: "story",
//	    Data:    record,
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("poster.html", []byte(res.Markup), 0o644)
//
// Compile every variant of a template concurrently:
//
//	results, err := runner.ExecuteVariants(ctx, pipeline.Options{Family: "event-poster"})
package pipeline

import (
	"time"

	"github.com/gideonchrapko/template-builder/pkg/cache"
	"github.com/gideonchrapko/template-builder/pkg/compile"
	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// DefaultConcurrency bounds the variant fan-out in ExecuteVariants.
const DefaultConcurrency = 4

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options describes one compile. Either Family (loaded through the
// runner's store) or Schema (already loaded) must be set.
type Options struct {
	Family  string            `json:"family,omitempty"`
	Variant string            `json:"variant,omitempty"`
	Tokens  map[string]string `json:"tokens,omitempty"`
	Data    any               `json:"data,omitempty"`
	Title   string            `json:"title,omitempty"`
	Refresh bool              `json:"refresh,omitempty"` // bypass cached markup

	// Runtime options (not serialized)
	Schema      *schema.Schema `json:"-"`
	Concurrency int            `json:"-"` // ExecuteVariants only

	validated bool
}

// Result is the output of one compile.
type Result struct {
	RunID      string
	Family     string
	Variant    string
	Markup     string
	SchemaHash string
	Stats      Stats
	CacheInfo  CacheInfo
}

// Stats describes a compile.
type Stats struct {
	NodeCount        int           // nodes in the resolved tree, hidden ones included
	Bytes            int           // size of the markup
	UnresolvedTokens []string      // token names left as references
	LoadTime         time.Duration // zero when Options.Schema was supplied
	CompileTime      time.Duration
}

// CacheInfo records cache use.
type CacheInfo struct {
	MarkupHit bool
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Schema == nil {
		if err := perrors.ValidateTemplateName(o.Family); err != nil {
			return err
		}
	} else if o.Family == "" {
		o.Family = o.Schema.Family
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	o.validated = true
	return nil
}

// CompileOptions returns the compiler options.
func (o *Options) CompileOptions() compile.Options {
	return compile.Options{
		Variant: o.Variant,
		Tokens:  o.Tokens,
		Data:    o.Data,
		Title:   o.Title,
	}
}

// MarkupKeyOpts hashes the compile inputs for the markup cache key.
func (o *Options) MarkupKeyOpts() (cache.MarkupKeyOpts, error) {
	opts := cache.MarkupKeyOpts{Variant: o.Variant, Title: o.Title}
	if len(o.Tokens) > 0 {
		h, err := cache.HashValue(o.Tokens)
		if err != nil {
			return opts, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "hash tokens")
		}
		opts.TokensHash = h
	}
	h, err := cache.HashValue(o.Data)
	if err != nil {
		return opts, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "data record is not JSON-encodable")
	}
	opts.DataHash = h
	return opts, nil
}

// forVariant returns a copy of o that compiles variant against s.
func (o Options) forVariant(s *schema.Schema, variant string) Options {
	o.Schema = s
	o.Variant = variant
	return o
}
