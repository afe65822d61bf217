package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ionoview/internal/catalog"
	"github.com/leapstack-labs/ionoview/internal/cli/output"
)

// LookupOptions holds options for the lookup command.
type LookupOptions struct {
	Walk bool
}

// LookupResult is the JSON output of the lookup command. It matches the
// body of the /get_files_by_date endpoint.
type LookupResult struct {
	Files []catalog.DateFileEntry `json:"files"`
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand() *cobra.Command {
	opts := &LookupOptions{}

	cmd := &cobra.Command{
		Use:   "lookup <date>",
		Short: "List the recordings of a calendar date",
		Long: `List every ionogram recorded on the month and day of <date> (YYYY-MM-DD).

The year is ignored: recordings are matched by the MM_DD prefix of their
file name anywhere below the search root.`,
		Example: `  # Recordings of March 15th in any year
  ionoview lookup 2024-03-15

  # Skip the index and walk the directory tree
  ionoview lookup 2024-03-15 --walk -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Walk, "walk", false, "Walk the search root instead of using the index")

	return cmd
}

func runLookup(cmd *cobra.Command, date string, opts *LookupOptions) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	day, err := catalog.ParseLookupDate(date)
	if err != nil {
		return err
	}

	finder, cleanup, err := newFinder(c.Cfg, opts.Walk)
	if err != nil {
		return err
	}
	defer cleanup()

	files, err := finder.FilesByDate(cmd.Context(), day)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	c.Logger.Debug("lookup finished", "date", date, "files", len(files))

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(LookupResult{Files: files})
	}

	r.Header(1, fmt.Sprintf("Recordings of %s", day.Format("02.01")))
	if len(files) == 0 {
		r.Muted("No files for this date")
		return nil
	}
	rows := make([][]string, len(files))
	for i, f := range files {
		rows[i] = []string{f.FileName, f.Path}
	}
	r.Table([]string{"File", "Directory"}, rows)
	return nil
}
