package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ionoview/internal/catalog"
	"github.com/leapstack-labs/ionoview/internal/cli/config"
	"github.com/leapstack-labs/ionoview/internal/cli/output"
	"github.com/leapstack-labs/ionoview/internal/index"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, loading defaults when no
// command has loaded one yet.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		return &config.Config{Root: config.DefaultRoot, SearchRoot: config.DefaultRoot, OutputFormat: config.DefaultOutput}
	}
	return cfg
}

// openIndex opens and migrates the index database, creating its directory.
// The caller must close the returned store.
func openIndex(cfg *config.Config) (*index.Store, error) {
	if dir := filepath.Dir(cfg.IndexPath); cfg.IndexPath != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	store := index.NewStore()
	if err := store.Open(cfg.IndexPath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// rebuildIndex opens the index and refreshes it from the search root.
func rebuildIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*index.Store, int, error) {
	store, err := openIndex(cfg)
	if err != nil {
		return nil, 0, err
	}
	n, err := store.Rebuild(ctx, cfg.SearchRoot)
	if err != nil {
		_ = store.Close()
		return nil, 0, fmt.Errorf("failed to index %s: %w", cfg.SearchRoot, err)
	}
	logger.Info("index rebuilt", "path", store.Path(), "root", cfg.SearchRoot, "files", n)
	return store, n, nil
}

// newFinder returns the date lookup backend: the index when enabled and
// present, a directory walk otherwise. The cleanup function must be called.
func newFinder(cfg *config.Config, forceWalk bool) (catalog.Finder, func(), error) {
	noop := func() {}
	if forceWalk || !cfg.UseIndex {
		return catalog.NewWalkFinder(cfg.SearchRoot), noop, nil
	}
	if _, err := os.Stat(cfg.IndexPath); err != nil {
		return catalog.NewWalkFinder(cfg.SearchRoot), noop, nil
	}
	store, err := openIndex(cfg)
	if err != nil {
		return nil, noop, err
	}
	return store, func() { _ = store.Close() }, nil
}
