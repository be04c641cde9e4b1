package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forgemap/internal/config"
	"github.com/matzehuels/forgemap/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the forge response cache",
	}
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached forge response in the file cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg.Cache
			if cfg.Backend != config.BackendFile {
				printInfo("The %s cache backend expires entries on its own", cfg.Backend)
				return nil
			}
			n, err := clearFileCache(cfg.Dir)
			if err != nil {
				return err
			}
			if n == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached responses", n)
			printDetail("Directory: %s", cfg.Dir)
			return nil
		},
	}
}

func clearFileCache(dir string) (int, error) {
	if dir == "" {
		return 0, errors.New("no cache directory configured")
	}
	store, err := cache.NewFileCache(dir)
	if err != nil {
		return 0, err
	}
	return store.(*cache.FileCache).Clear()
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.cfg.Cache.Dir)
			return nil
		},
	}
}
