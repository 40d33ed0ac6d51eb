package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slizzai/slizzai/pkg/cache"
	"github.com/slizzai/slizzai/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render and enhancement cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached tiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			sw := newStopwatch(c.Logger)

			cc, err := c.openCache(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer cc.Close()

			var n int
			switch cc := cc.(type) {
			case *cache.FileCache:
				n, err = cc.Clear(ctx)
			case *cache.RedisCache:
				var m int
				for _, kind := range []string{cache.KindEnhance, cache.KindRender} {
					m, err = cc.Clear(ctx, cfg.Cache.Prefix+kind+":")
					n += m
					if err != nil {
						break
					}
				}
			default:
				printInfo("Cache is disabled")
				return nil
			}
			if err != nil {
				return err
			}
			sw.done("cache cleared", "entries", n, "backend", cfg.Cache.Backend)
			printSuccess("Cleared %d cached entries", n)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			switch cfg.Cache.Backend {
			case config.CacheRedis:
				addr := cfg.Cache.RedisAddr
				if addr == "" {
					addr = defaultRedisAddr
				}
				fmt.Fprintln(cmd.OutOrStdout(), "redis://"+addr)
				return nil
			case config.CacheNone:
				printInfo("Cache is disabled")
				return nil
			}
			dir := cfg.Cache.Dir
			if dir == "" {
				if dir, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
