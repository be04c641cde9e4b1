// Package config loads forgemap settings from built-in defaults, an optional
// TOML file and FORGEMAP_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "forgemap"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration that decodes from strings like "30m".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

type Forge struct {
	RESTURL    string  `toml:"rest_url"`
	GraphQLURL string  `toml:"graphql_url"`
	Token      string  `toml:"token"`
	PerPage    int     `toml:"per_page"`
	RateLimit  float64 `toml:"rate_limit"`
	RateBurst  int     `toml:"rate_burst"`
}

type Cache struct {
	Backend       string   `toml:"backend"`
	TTL           Duration `toml:"ttl"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisDB       int      `toml:"redis_db"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
}

type Share struct {
	BaseURL string `toml:"base_url"`
}

type Server struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
	WorkspaceTTL   Duration `toml:"workspace_ttl"`
	// MaxRestoreIDs caps the ids a shared link may carry.
	MaxRestoreIDs int `toml:"max_restore_ids"`
}

// Config is the complete configuration.
type Config struct {
	Forge  Forge  `toml:"forge"`
	Cache  Cache  `toml:"cache"`
	Share  Share  `toml:"share"`
	Server Server `toml:"server"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Forge: Forge{
			RESTURL:    "https://forge.apps.education.fr/api/v4",
			GraphQLURL: "https://forge.apps.education.fr/api/graphql",
			PerPage:    20,
			RateBurst:  1,
		},
		Cache: Cache{
			Backend:       BackendFile,
			TTL:           Duration{time.Hour},
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: appName,
		},
		Share: Share{BaseURL: "http://localhost:8080"},
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			WorkspaceTTL:   Duration{30 * time.Minute},
			MaxRestoreIDs:  100,
		},
	}
}

// Path returns the default config file location:
// $XDG_CONFIG_HOME/forgemap/config.toml or ~/.config/forgemap/config.toml.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the default file cache directory:
// $XDG_CACHE_HOME/forgemap or ~/.cache/forgemap.
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads path over the defaults and applies the environment. An empty
// path uses Path(); a missing default file is not an error, a missing
// explicit file is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if cfg.Cache.Dir == "" {
		if dir, err := CacheDir(); err == nil {
			cfg.Cache.Dir = dir
		}
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML text over the defaults without touching the
// environment.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides fields from FORGEMAP_<SECTION>_<KEY> variables.
func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"FORGEMAP_FORGE_REST_URL":       &c.Forge.RESTURL,
		"FORGEMAP_FORGE_GRAPHQL_URL":    &c.Forge.GraphQLURL,
		"FORGEMAP_FORGE_TOKEN":          &c.Forge.Token,
		"FORGEMAP_CACHE_BACKEND":        &c.Cache.Backend,
		"FORGEMAP_CACHE_DIR":            &c.Cache.Dir,
		"FORGEMAP_CACHE_REDIS_ADDR":     &c.Cache.RedisAddr,
		"FORGEMAP_CACHE_MONGO_URI":      &c.Cache.MongoURI,
		"FORGEMAP_CACHE_MONGO_DATABASE": &c.Cache.MongoDatabase,
		"FORGEMAP_SHARE_BASE_URL":       &c.Share.BaseURL,
		"FORGEMAP_SERVER_ADDR":          &c.Server.Addr,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"FORGEMAP_FORGE_PER_PAGE":   &c.Forge.PerPage,
		"FORGEMAP_FORGE_RATE_BURST": &c.Forge.RateBurst,
		"FORGEMAP_CACHE_REDIS_DB":   &c.Cache.RedisDB,

		"FORGEMAP_SERVER_MAX_RESTORE_IDS": &c.Server.MaxRestoreIDs,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*Duration{
		"FORGEMAP_CACHE_TTL":            &c.Cache.TTL,
		"FORGEMAP_SERVER_WORKSPACE_TTL": &c.Server.WorkspaceTTL,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
			}
		}
	}

	if v, ok := lookup("FORGEMAP_FORGE_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: FORGEMAP_FORGE_RATE_LIMIT: %v", ErrInvalid, err)
		}
		c.Forge.RateLimit = f
	}
	if v, ok := lookup("FORGEMAP_SERVER_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration for values no component can use.
func (c Config) Validate() error {
	var errs []error
	for name, raw := range map[string]string{
		"forge.rest_url":    c.Forge.RESTURL,
		"forge.graphql_url": c.Forge.GraphQLURL,
		"share.base_url":    c.Share.BaseURL,
	} {
		if err := checkURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err))
		}
	}
	if c.Forge.PerPage <= 0 {
		errs = append(errs, fmt.Errorf("%w: forge.per_page must be positive, got %d", ErrInvalid, c.Forge.PerPage))
	}
	if c.Forge.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%w: forge.rate_limit must not be negative", ErrInvalid))
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendMongo, BackendNone:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown cache.backend %q", ErrInvalid, c.Cache.Backend))
	}
	if c.Cache.TTL.Duration < 0 {
		errs = append(errs, fmt.Errorf("%w: cache.ttl must not be negative", ErrInvalid))
	}
	if c.Server.WorkspaceTTL.Duration <= 0 {
		errs = append(errs, fmt.Errorf("%w: server.workspace_ttl must be positive", ErrInvalid))
	}
	if c.Server.MaxRestoreIDs <= 0 {
		errs = append(errs, fmt.Errorf("%w: server.max_restore_ids must be positive", ErrInvalid))
	}
	return errors.Join(errs...)
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https: %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host: %q", raw)
	}
	return nil
}
