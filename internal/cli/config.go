package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
)

// Backend names accepted in the config file.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendMongo = "mongo"
	backendNone  = "none"
)

// Config is the postergen config file ($XDG_CONFIG_HOME/postergen/config.toml).
//
//	templates_dir = "templates"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "redis://localhost:6379/0"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
type Config struct {
	TemplatesDir string      `toml:"templates_dir"`
	Cache        CacheConfig `toml:"cache"`
	Store        StoreConfig `toml:"store"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"` // file, redis, none
	Dir       string `toml:"dir"`     // file backend; defaults to the XDG cache dir
	RedisAddr string `toml:"redis_addr"`
	Scope     string `toml:"scope"` // key prefix for caches shared between deployments
}

// StoreConfig selects where templates are loaded from.
type StoreConfig struct {
	Backend       string `toml:"backend"` // file, mongo
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

func defaultConfig() *Config {
	return &Config{
		TemplatesDir: "templates",
		Cache:        CacheConfig{Backend: backendFile},
		Store:        StoreConfig{Backend: backendFile},
	}
}

// loadConfig reads the config file at path over the defaults. An empty
// path uses the default location, which may be absent; an explicit path
// must exist.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// envOverrides maps POSTERGEN_* variables to config fields.
var envOverrides = []struct {
	name  string
	field func(*Config) *string
}{
	{"POSTERGEN_TEMPLATES_DIR", func(c *Config) *string { return &c.TemplatesDir }},
	{"POSTERGEN_CACHE_BACKEND", func(c *Config) *string { return &c.Cache.Backend }},
	{"POSTERGEN_CACHE_DIR", func(c *Config) *string { return &c.Cache.Dir }},
	{"POSTERGEN_REDIS_ADDR", func(c *Config) *string { return &c.Cache.RedisAddr }},
	{"POSTERGEN_CACHE_SCOPE", func(c *Config) *string { return &c.Cache.Scope }},
	{"POSTERGEN_STORE_BACKEND", func(c *Config) *string { return &c.Store.Backend }},
	{"POSTERGEN_MONGO_URI", func(c *Config) *string { return &c.Store.MongoURI }},
	{"POSTERGEN_MONGO_DATABASE", func(c *Config) *string { return &c.Store.MongoDatabase }},
}

// applyEnv overrides fields from non-empty environment variables.
func (c *Config) applyEnv(getenv func(string) string) {
	for _, o := range envOverrides {
		if v := getenv(o.name); v != "" {
			*o.field(c) = v
		}
	}
}

// validate checks backend names and their required settings.
func (c *Config) validate() error {
	switch c.Cache.Backend {
	case backendFile, backendNone:
	case backendRedis:
		if c.Cache.RedisAddr == "" {
			return perrors.New(perrors.ErrCodeInvalidInput, "cache backend redis requires cache.redis_addr")
		}
	default:
		return perrors.New(perrors.ErrCodeInvalidInput, "invalid cache backend %q (must be 'file', 'redis', or 'none')", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case backendFile:
		if c.TemplatesDir == "" {
			return perrors.New(perrors.ErrCodeInvalidInput, "file store requires templates_dir")
		}
	case backendMongo:
		if c.Store.MongoURI == "" {
			return perrors.New(perrors.ErrCodeInvalidInput, "store backend mongo requires store.mongo_uri")
		}
	default:
		return perrors.New(perrors.ErrCodeInvalidInput, "invalid store backend %q (must be 'file' or 'mongo')", c.Store.Backend)
	}
	return nil
}

// configPath returns the default config file (~/.config/postergen/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate config: %w", err)
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
