package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gideonchrapko/template-builder/pkg/cache"
	"github.com/gideonchrapko/template-builder/pkg/compile"
	"github.com/gideonchrapko/template-builder/pkg/compile/token"
	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/observability"
	"github.com/gideonchrapko/template-builder/pkg/schema"
	"github.com/gideonchrapko/template-builder/pkg/store"
)

// Runner executes compiles with template loading and markup caching.
//
// The Runner holds no per-run state, so one Runner may serve concurrent
// callers with different options.
type Runner struct {
	Store  store.Store
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses the default key scheme, and a nil store limits the runner to
// Options.Schema inputs.
func NewRunner(st store.Store, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Store: st, Cache: c, Keyer: keyer, Logger: logger}
}

// Execute loads and compiles one template variant.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	runID := uuid.NewString()
	logger := r.Logger.With("run_id", runID)

	result := &Result{RunID: runID, Family: opts.Family, Variant: opts.Variant}

	loadStart := time.Now()
	s, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	if opts.Schema == nil {
		result.Stats.LoadTime = time.Since(loadStart)
		logger.Info("loaded template", "family", opts.Family, "duration", result.Stats.LoadTime)
	}

	raw, err := schema.Marshal(s)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "hash template %s", s.Label())
	}
	result.SchemaHash = cache.Hash(raw)

	compileStart := time.Now()
	out, hit, err := r.CompileWithCacheInfo(ctx, s, result.SchemaHash, opts)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", s.Label(), err)
	}
	result.Markup = out.Markup
	result.CacheInfo.MarkupHit = hit
	result.Stats.CompileTime = time.Since(compileStart)
	result.Stats.NodeCount = out.Nodes
	result.Stats.Bytes = len(out.Markup)
	result.Stats.UnresolvedTokens = out.Unresolved

	logger.Info("compiled template",
		"family", opts.Family,
		"variant", opts.Variant,
		"nodes", out.Nodes,
		"bytes", result.Stats.Bytes,
		"cache_hit", hit,
		"duration", result.Stats.CompileTime)
	if len(out.Unresolved) > 0 {
		logger.Warn("unresolved color tokens", "tokens", out.Unresolved)
	}
	return result, nil
}

// Load returns opts.Schema when set, otherwise loads opts.Family from the
// store.
func (r *Runner) Load(ctx context.Context, opts Options) (*schema.Schema, error) {
	if opts.Schema != nil {
		return opts.Schema, nil
	}
	if r.Store == nil {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "no template store configured for %q", opts.Family)
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Family, r.Store.Name())
	start := time.Now()
	s, err := r.Store.Load(ctx, opts.Family)
	hooks.OnLoadComplete(ctx, opts.Family, r.Store.Name(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// compiled is the cached form of a compile.
type compiled struct {
	Markup     string   `json:"markup"`
	Nodes      int      `json:"nodes"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// CompileWithCacheInfo compiles s with caching and reports whether the
// markup came from the cache. schemaHash is the content hash of s.
func (r *Runner) CompileWithCacheInfo(ctx context.Context, s *schema.Schema, schemaHash string, opts Options) (compiled, bool, error) {
	keyOpts, err := opts.MarkupKeyOpts()
	if err != nil {
		return compiled{}, false, err
	}
	key := r.Keyer.MarkupKey(schemaHash, keyOpts)
	cacheHooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var c compiled
			if err := json.Unmarshal(data, &c); err == nil {
				cacheHooks.OnCacheHit(ctx, "markup")
				return c, true, nil
			}
		} else if err != nil {
			r.Logger.Debug("markup cache unavailable", "err", err)
		}
		cacheHooks.OnCacheMiss(ctx, "markup")
	}

	hooks := observability.Pipeline()
	hooks.OnCompileStart(ctx, opts.Family, opts.Variant)
	start := time.Now()

	copts := opts.CompileOptions()
	root, err := compile.Resolve(*s, copts)
	if err != nil {
		hooks.OnCompileComplete(ctx, opts.Family, opts.Variant, 0, time.Since(start), err)
		return compiled{}, false, err
	}
	c := compiled{
		Markup:     compile.Render(*s, root, copts),
		Nodes:      schema.Count(&root),
		Unresolved: token.Unresolved(root),
	}
	hooks.OnCompileComplete(ctx, opts.Family, opts.Variant, c.Nodes, time.Since(start), nil)

	if data, err := json.Marshal(c); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLMarkup); err == nil {
			cacheHooks.OnCacheSet(ctx, "markup", len(data))
		} else {
			r.Logger.Debug("markup cache write failed", "err", err)
		}
	}
	return c, false, nil
}

// ExecuteVariants compiles every variant of a template concurrently, at
// most opts.Concurrency at a time. A template without variants yields one
// base result. Results follow declaration order. The first failure cancels
// the remaining compiles.
func (r *Runner) ExecuteVariants(ctx context.Context, opts Options) ([]*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	s, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}

	variants := s.VariantIDs()
	if len(variants) == 0 {
		variants = []string{""}
	}
	results := make([]*Result, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, v := range variants {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.Execute(gctx, opts.forVariant(s, v))
			if err != nil {
				return fmt.Errorf("variant %q: %w", v, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close releases the cache and store.
func (r *Runner) Close() error {
	var firstErr error
	if r.Cache != nil {
		firstErr = r.Cache.Close()
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
