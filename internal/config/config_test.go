package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[forge]
rest_url = "https://gitlab.example.com/api/v4"
per_page = 50
token = "secret"

[cache]
backend = "redis"
ttl = "15m"
redis_addr = "cache:6379"

[server]
allowed_origins = ["https://a.example", "https://b.example"]
workspace_ttl = "2h"
`)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Forge.RESTURL != "https://gitlab.example.com/api/v4" || cfg.Forge.PerPage != 50 || cfg.Forge.Token != "secret" {
		t.Errorf("forge = %+v", cfg.Forge)
	}
	if cfg.Forge.GraphQLURL != Default().Forge.GraphQLURL {
		t.Errorf("unset key lost its default: %q", cfg.Forge.GraphQLURL)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.TTL.Duration != 15*time.Minute || cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.WorkspaceTTL.Duration != 2*time.Hour {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"zero per_page", func(c *Config) { c.Forge.PerPage = 0 }},
		{"bad rest url", func(c *Config) { c.Forge.RESTURL = "forge.example/api" }},
		{"bad share url", func(c *Config) { c.Share.BaseURL = "ftp://x" }},
		{"negative rate", func(c *Config) { c.Forge.RateLimit = -1 }},
		{"zero workspace ttl", func(c *Config) { c.Server.WorkspaceTTL.Duration = 0 }},
		{"zero restore cap", func(c *Config) { c.Server.MaxRestoreIDs = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FORGEMAP_FORGE_TOKEN":            "tok",
		"FORGEMAP_FORGE_PER_PAGE":         "100",
		"FORGEMAP_FORGE_RATE_LIMIT":       "2.5",
		"FORGEMAP_CACHE_BACKEND":          "none",
		"FORGEMAP_CACHE_TTL":              "5s",
		"FORGEMAP_SERVER_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"FORGEMAP_SERVER_MAX_RESTORE_IDS": "20",
	}
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Forge.Token != "tok" || cfg.Forge.PerPage != 100 || cfg.Forge.RateLimit != 2.5 {
		t.Errorf("forge = %+v", cfg.Forge)
	}
	if cfg.Cache.Backend != BackendNone || cfg.Cache.TTL.Duration != 5*time.Second {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if want := []string{"https://a.example", "https://b.example"}; !slices.Equal(cfg.Server.AllowedOrigins, want) {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.MaxRestoreIDs != 20 {
		t.Errorf("max_restore_ids = %d, want 20", cfg.Server.MaxRestoreIDs)
	}
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		if k == "FORGEMAP_FORGE_PER_PAGE" {
			return "lots", true
		}
		return "", false
	})
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("FORGEMAP_FORGE_PER_PAGE", "30")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if cfg.Forge.PerPage != 30 {
		t.Errorf("env not applied: per_page = %d", cfg.Forge.PerPage)
	}
	if cfg.Cache.Dir != filepath.Join(dir, "cache", appName) {
		t.Errorf("cache dir = %q", cfg.Cache.Dir)
	}

	path := filepath.Join(dir, appName, "config.toml")
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte("[forge]\nper_page = 40\n[share]\nbase_url = \"https://share.example\"\n"), 0o644)

	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Forge.PerPage != 30 {
		t.Errorf("env should override file: per_page = %d", cfg.Forge.PerPage)
	}
	if cfg.Share.BaseURL != "https://share.example" {
		t.Errorf("base_url = %q", cfg.Share.BaseURL)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing explicit config file accepted")
	}
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join("/tmp/xdg", appName, "config.toml") {
		t.Errorf("Path() = %q", p)
	}
}
