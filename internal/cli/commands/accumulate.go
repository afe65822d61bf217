package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ionoview/internal/accumulate"
	"github.com/leapstack-labs/ionoview/internal/cli/output"
)

// AccumulateOptions holds options for the accumulate command.
type AccumulateOptions struct {
	Check bool
}

// NewAccumulateCommand creates the accumulate command.
func NewAccumulateCommand() *cobra.Command {
	opts := &AccumulateOptions{}

	cmd := &cobra.Command{
		Use:   "accumulate",
		Short: "Average ionograms over fixed time windows",
		Long: `Average every delta_minutes of soundings into one ionogram per window.

Folders may contain {YEAR}, {MONTH} and {DAY}, expanded for each day between
date_from and date_to. Existing outputs are kept. With --check, only the
height resolution of the inputs is compared.`,
		Example: `  # Hourly averages for one day
  ionoview accumulate --folder-in '/data/{YEAR}/{MONTH}{DAY}' \
    --folder-out '/avg/{YEAR}/{MONTH}{DAY}' --from 2024-03-15 --delta 60

  # Report inputs whose resolution differs from the first one
  ionoview accumulate --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAccumulate(cmd, opts)
		},
	}

	cmd.Flags().String("folder-in", "", "Input folder template")
	cmd.Flags().String("folder-out", "", "Output folder template")
	cmd.Flags().String("from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Last day (YYYY-MM-DD, default: --from)")
	cmd.Flags().Int("delta", 0, "Window length in minutes")
	cmd.Flags().Int("workers", 0, "Concurrent windows (default: one per CPU)")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "Only check input resolution")

	return cmd
}

func runAccumulate(cmd *cobra.Command, opts *AccumulateOptions) error {
	c := NewCommandContext(cmd)
	r := c.Renderer

	job, err := c.Cfg.Accumulate.Job()
	if err != nil {
		return err
	}
	runner := accumulate.NewRunner(job, c.Logger.With("component", "accumulate"))

	if opts.Check {
		res, err := runner.CheckResolution(cmd.Context())
		if err != nil {
			return err
		}
		return renderResolution(r, res)
	}

	res, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(res)
	case output.ModeMarkdown:
		r.Header(1, "Accumulation")
		r.KeyValue("Windows", fmt.Sprint(res.Windows))
		r.KeyValue("Written", fmt.Sprint(res.Written))
		r.KeyValue("Skipped", fmt.Sprint(res.Skipped))
		r.KeyValue("Empty", fmt.Sprint(res.Empty))
		r.KeyValue("Missing inputs", fmt.Sprint(res.Missing))
	default:
		r.Success(fmt.Sprintf("Wrote %d averages", res.Written))
		r.StatusLine("skipped", "warning", fmt.Sprintf("%d existing outputs", res.Skipped))
		r.StatusLine("empty", "", fmt.Sprintf("%d windows without inputs", res.Empty))
	}
	return nil
}

func renderResolution(r *output.Renderer, res accumulate.Resolution) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}

	r.Header(1, "Resolution check")
	r.KeyValue("Heights", fmt.Sprint(res.First))
	if len(res.Different) == 0 {
		r.Success("All inputs share the same resolution")
		return nil
	}
	r.Warning(fmt.Sprintf("%d inputs differ", len(res.Different)))
	rows := make([][]string, len(res.Different))
	for i, name := range res.Different {
		rows[i] = []string{name}
	}
	r.Table([]string{"File"}, rows)
	return nil
}
