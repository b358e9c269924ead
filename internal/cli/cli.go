// Package cli implements the postergen command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gideonchrapko/template-builder/pkg/buildinfo"
	"github.com/gideonchrapko/template-builder/pkg/cache"
	"github.com/gideonchrapko/template-builder/pkg/pipeline"
	"github.com/gideonchrapko/template-builder/pkg/schema"
	"github.com/gideonchrapko/template-builder/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "postergen"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile   string // --config
	templatesDir string // --templates, overrides the config file
	getenv       func(string) string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		getenv: os.Getenv,
	}
}

// SetLogLevel updates the logger's level. At debug level pipeline and
// cache events are logged too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	setHooks(c.Logger, level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Postergen compiles poster templates to HTML",
		Long:         `Postergen compiles node-graph poster templates into standalone HTML documents, applying variants, color tokens, and data bindings.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/postergen/config.toml)")
	root.PersistentFlags().StringVar(&c.templatesDir, "templates", "", "templates directory for the file store")

	root.AddCommand(c.compileCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.variantsCommand())
	root.AddCommand(c.outlineCommand())
	root.AddCommand(c.pushCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// config loads the config file, then applies flags, then the environment.
func (c *CLI) config() (*Config, error) {
	cfg, err := loadConfig(c.configFile)
	if err != nil {
		return nil, err
	}
	if c.templatesDir != "" {
		cfg.TemplatesDir = c.templatesDir
	}
	cfg.applyEnv(c.getenv)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	ch, err := c.openCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	keyer := newKeyer(cfg)
	st, err := c.openStore(ctx, cfg, ch, keyer)
	if err != nil {
		ch.Close()
		return nil, err
	}
	return pipeline.NewRunner(st, ch, keyer, c.Logger), nil
}

func newKeyer(cfg *Config) cache.Keyer {
	keyer := cache.NewDefaultKeyer()
	if cfg.Cache.Scope != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Cache.Scope)
	}
	return keyer
}

// openCache returns the configured cache. An unusable file cache
// directory degrades to no caching.
func (c *CLI) openCache(ctx context.Context, cfg *Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case backendNone:
		return cache.NewNullCache(), nil
	case backendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, nil
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			c.Logger.Warn("cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// openStore returns the configured template store. Remote stores are
// wrapped so templates are fetched once per cache TTL.
func (c *CLI) openStore(ctx context.Context, cfg *Config, ch cache.Cache, keyer cache.Keyer) (store.Store, error) {
	if cfg.Store.Backend == backendMongo {
		ms, err := store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return store.NewCached(ms, ch, keyer), nil
	}
	fs, err := store.NewFileStore(cfg.TemplatesDir)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// =============================================================================
// Template Arguments
// =============================================================================

// templateOptions turns a template argument into pipeline options. An
// argument naming an existing schema file is read directly; anything else
// is a family name looked up in the store.
func templateOptions(arg string) (pipeline.Options, error) {
	if _, err := schema.FormatFromPath(arg); err == nil {
		if _, statErr := os.Stat(arg); statErr == nil {
			s, err := readTemplateFile(arg)
			if err != nil {
				return pipeline.Options{}, err
			}
			return pipeline.Options{Family: s.Family, Schema: s}, nil
		}
	}
	return pipeline.Options{Family: arg}, nil
}

// readTemplateFile reads a schema file, defaulting its family to the file name.
func readTemplateFile(path string) (*schema.Schema, error) {
	s, err := schema.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if s.Family == "" {
		base := filepath.Base(path)
		s.Family = base[:len(base)-len(filepath.Ext(base))]
	}
	return s, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/postergen/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
