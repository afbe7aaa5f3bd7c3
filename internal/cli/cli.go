// Package cli implements the zendeskexport command-line interface.
//
// The root command runs a full export: fetch tickets for the chosen group
// scope, extract and aggregate email addresses, and write the result in the
// chosen format. Subcommands cover group listing and cache management.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Output goes
// to stderr and, for export runs, additionally to a dated file in the log
// directory.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/alderacgit/ZenDeskExport/internal/config"
	"github.com/alderacgit/ZenDeskExport/pkg/buildinfo"
	"github.com/alderacgit/ZenDeskExport/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "zendeskexport"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose bool
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
// The root command itself runs the export.
func (c *CLI) RootCommand() *cobra.Command {
	root := c.exportCommand()
	root.Version = buildinfo.Version
	root.SetVersionTemplate(buildinfo.Template())
	root.SilenceUsage = true

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if c.verbose {
			c.SetLogLevel(log.DebugLevel)
		}
	}

	root.AddCommand(c.groupsCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// newCache selects the cache backend for a run. Redis wins when configured,
// then the file cache; a backend setup failure degrades to no caching rather
// than failing the export.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, useCache bool) cache.Cache {
	if !useCache {
		return cache.NewNullCache()
	}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr)
		if err == nil {
			c.Logger.Debugf("Using Redis cache at %s", cfg.RedisAddr)
			return rc
		}
		c.Logger.Warnf("Redis cache unavailable, falling back to files: %v", err)
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		c.Logger.Warnf("Cache disabled: %v", err)
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warnf("Cache disabled: %v", err)
		return cache.NewNullCache()
	}
	return fc
}

// cacheDir returns the cache directory: the configured one if set, otherwise
// the XDG standard location (~/.cache/zendeskexport/).
func cacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.CacheDir != "" {
		return cfg.CacheDir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
