package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ionoview/internal/chart"
	"github.com/leapstack-labs/ionoview/internal/cli/output"
	"github.com/leapstack-labs/ionoview/internal/ionogram"
)

// PassportOptions holds options for the passport command.
type PassportOptions struct {
	ChartFile string
}

// PassportParam is one passport entry in JSON output.
type PassportParam struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Value       string `json:"value"`
	Units       string `json:"units,omitempty"`
}

// PassportResult is the JSON output of the passport command.
type PassportResult struct {
	File   string          `json:"file"`
	Time   string          `json:"time"`
	Params []PassportParam `json:"params"`
	Echoes int             `json:"echoes"`
	Noise  int             `json:"noise"`
}

// NewPassportCommand creates the passport command.
func NewPassportCommand() *cobra.Command {
	opts := &PassportOptions{}

	cmd := &cobra.Command{
		Use:   "passport <file>",
		Short: "Show the passport of an ionogram",
		Long: `Decode a DAT recording and print its passport: sounding time, path,
mode and the sweep parameters. Optionally render the ionogram chart to SVG.`,
		Example: `  # Print the passport
  ionoview passport /data/vs/03_15_12_30_00.dat

  # Also write the chart
  ionoview passport /data/vs/03_15_12_30_00.dat --chart out.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPassport(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.ChartFile, "chart", "", "Write the ionogram chart as SVG to this file")

	return cmd
}

func runPassport(cmd *cobra.Command, path string, opts *PassportOptions) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	ion, err := ionogram.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read ionogram: %w", err)
	}
	if ion.AlignErrors > 0 {
		c.Logger.Warn("misaligned clusters", "file", path, "count", ion.AlignErrors)
	}

	if opts.ChartFile != "" {
		svg, err := chart.Ionogram(ion, c.Cfg.Chart.Options())
		if err != nil {
			return fmt.Errorf("cannot plot ionogram: %w", err)
		}
		if err := os.WriteFile(opts.ChartFile, []byte(svg), 0o600); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		c.Logger.Info("chart written", "path", opts.ChartFile)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		res := PassportResult{
			File:   path,
			Time:   ion.Time.UTC().Format("2006-01-02T15:04:05Z"),
			Echoes: len(ion.Echoes),
			Noise:  len(ion.Noise),
		}
		for _, p := range ion.Params() {
			res.Params = append(res.Params, PassportParam{
				Name:        p.Name,
				Description: p.Description,
				Value:       p.Value(),
				Units:       p.Units,
			})
		}
		return r.JSON(res)
	case output.ModeMarkdown:
		r.Header(1, path)
		r.Println(output.FormatCodeBlock("text", ion.Passport()))
	default:
		r.Header(1, path)
		r.Println(ion.Passport())
	}
	return nil
}
