package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/matzehuels/forgemap/internal/config"
	"github.com/matzehuels/forgemap/pkg/buildinfo"
	"github.com/matzehuels/forgemap/pkg/cache"
	"github.com/matzehuels/forgemap/pkg/forge"
)

const appName = "forgemap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a CLI with a timestamped logger writing to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the loaded configuration.
func (c *CLI) Config() config.Config { return c.cfg }

// RootCommand creates the root cobra command with all subcommands registered.
// The configuration is loaded before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Forgemap explores projects, users and groups of a GitLab forge as a graph",
		Long:         `Forgemap searches a GitLab forge and grows a graph of projects, their members and groups, topics and fork lineage, one expansion at a time.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/forgemap/config.toml)")

	root.AddCommand(c.searchCommand())
	root.AddCommand(c.topicCommand())
	root.AddCommand(c.topicsCommand())
	root.AddCommand(c.forksCommand())
	root.AddCommand(c.restoreCommand())
	root.AddCommand(c.shareCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "forge", cfg.Forge.RESTURL, "cache", cfg.Cache.Backend)
	return nil
}

// newForge builds the forge API from the configuration. The returned cache
// must be closed by the caller.
func (c *CLI) newForge(ctx context.Context, logger *log.Logger) (*forge.API, cache.Cache, error) {
	store, err := newCache(ctx, c.cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	api := forge.New(forge.Options{
		RESTURL:    c.cfg.Forge.RESTURL,
		GraphQLURL: c.cfg.Forge.GraphQLURL,
		Token:      c.cfg.Forge.Token,
		PerPage:    c.cfg.Forge.PerPage,
		Cache:      store,
		CacheTTL:   c.cfg.Cache.TTL.Duration,
		Limiter:    newLimiter(c.cfg.Forge),
		Logger:     logger,
	})
	return api, store, nil
}

// newLimiter returns nil when the rate is unlimited.
func newLimiter(f config.Forge) *rate.Limiter {
	if f.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(f.RateLimit), max(f.RateBurst, 1))
}

// newCache opens the configured response cache backend.
func newCache(ctx context.Context, cfg config.Cache) (cache.Cache, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisDB)
	case config.BackendMongo:
		return cache.NewMongoCache(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.BackendFile, "":
		if cfg.Dir == "" {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(cfg.Dir)
	}
	return nil, fmt.Errorf("%w: unknown cache backend %q", config.ErrInvalid, cfg.Backend)
}
