package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ionoview/internal/cli/output"
)

// IndexResult is the JSON output of the index command.
type IndexResult struct {
	Path  string `json:"path"`
	Root  string `json:"root"`
	Files int    `json:"files"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the date lookup index",
		Long: `Walk the search root and record every ionogram by month and day.

Date lookups and the browser use the index when use_index is enabled.
The serve command rebuilds it on start and keeps it current while watching.`,
		Example: `  # Rebuild the index for the configured search root
  ionoview index

  # Index another directory into a separate database
  ionoview index --search-root /data/archive --index /tmp/archive.db`,
		Args: cobra.NoArgs,
		RunE: runIndex,
	}
}

func runIndex(cmd *cobra.Command, _ []string) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	if err := c.Cfg.ValidateDirectories(); err != nil {
		return err
	}

	store, n, err := rebuildIndex(cmd.Context(), c.Cfg, c.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	res := IndexResult{Path: store.Path(), Root: c.Cfg.SearchRoot, Files: n}
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(res)
	case output.ModeMarkdown:
		r.Header(1, "Index")
		r.KeyValue("Database", res.Path)
		r.KeyValue("Search root", res.Root)
		r.KeyValue("Recordings", fmt.Sprint(res.Files))
	default:
		r.Success(fmt.Sprintf("Indexed %d recordings", n))
		r.Muted(fmt.Sprintf("%s → %s", res.Root, res.Path))
	}
	return nil
}
