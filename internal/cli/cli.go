package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/slizzai/slizzai/pkg/buildinfo"
	"github.com/slizzai/slizzai/pkg/cache"
	"github.com/slizzai/slizzai/pkg/config"
	"github.com/slizzai/slizzai/pkg/errors"
	"github.com/slizzai/slizzai/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "slizzai"

	// defaultConfigFile is read when --config is not given.
	defaultConfigFile = "slizzai.yaml"

	// defaultRedisAddr is used when the redis cache has no address.
	defaultRedisAddr = "localhost:6379"
)

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

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "SlizzAi produces rendered and enhanced image tiles under a resource budget",
		Long: `SlizzAi walks a deterministic Fibonacci sequence of tile coordinates,
verifies each tile's geometry payload through a quantized codec, renders the
tile, sends it to a super-sampling service and stops as soon as the simulated
cooling-water budget is spent.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "configuration file (.yaml, .yml or .toml; default ./"+defaultConfigFile+")")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.samplerCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.uvCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the configuration file named by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		path = defaultConfigFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", path)
	return cfg, nil
}

// =============================================================================
// Backends
// =============================================================================

// openCache builds the enhancement cache selected by cfg.
func (c *CLI) openCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		addr := cfg.Cache.RedisAddr
		if addr == "" {
			addr = defaultRedisAddr
		}
		return cache.NewRedisCache(ctx, addr, nil)
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// openStore builds the run record store selected by cfg. A nil store
// means records are not kept.
func (c *CLI) openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreNone:
		return nil, nil
	case config.StoreSQLite:
		path := cfg.Store.Path
		if path == "" {
			dir, err := dataDir()
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "runs.db")
		}
		return store.OpenSQLite(path)
	case config.StoreMongo:
		if cfg.Store.MongoURI == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "store.mongo_uri is required for the mongo backend")
		}
		return store.OpenMongo(ctx, cfg.Store.MongoURI, cfg.Store.Database)
	}
	dir := cfg.Store.Path
	if dir == "" {
		d, err := dataDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(d, "runs")
	}
	return store.NewFileStore(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/slizzai/).
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

// dataDir returns the data directory using XDG standard (~/.local/share/slizzai/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
