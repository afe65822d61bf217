package accumulate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/ionoview/internal/ionogram"
)

// Result summarizes a run.
type Result struct {
	Windows int   `json:"windows"`
	Written int64 `json:"written"`
	Skipped int64 `json:"skipped"`
	Empty   int64 `json:"empty"`
	Missing int64 `json:"missing_inputs"`
}

// Runner executes an accumulation plan.
type Runner struct {
	cfg         Config
	logger      *slog.Logger
	startSecond int

	done    atomic.Int64
	written atomic.Int64
	skipped atomic.Int64
	empty   atomic.Int64
	missing atomic.Int64
}

// NewRunner creates a Runner. A nil logger discards output.
func NewRunner(cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Runner{cfg: cfg, logger: logger}
}

// StartSecond returns the detected first-second offset. Valid after Run or CheckResolution.
func (r *Runner) StartSecond() int { return r.startSecond }

func (r *Runner) detectStart() error {
	s, err := DetectStartSecond(ExpandFolder(r.cfg.FolderIn, r.cfg.DateFrom))
	if err != nil {
		return err
	}
	r.startSecond = s
	r.logger.Debug("detected start second", "second", s)
	return nil
}

// Run processes every window of the plan.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	windows, err := Plan(r.cfg)
	if err != nil {
		return Result{}, err
	}
	if err := r.detectStart(); err != nil {
		return Result{}, err
	}

	total := len(windows)
	r.logger.Info("starting accumulation",
		"windows", total,
		"workers", r.cfg.Workers,
		"delta_minutes", r.cfg.DeltaMinutes)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for _, w := range windows {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			err := r.process(gctx, w)
			done := r.done.Add(1)
			r.logger.Debug("window finished",
				"window", w.String(),
				"progress", fmt.Sprintf("%.2f%%", float64(done)/float64(total)*100))
			return err
		})
	}
	err = g.Wait()

	res := Result{
		Windows: total,
		Written: r.written.Load(),
		Skipped: r.skipped.Load(),
		Empty:   r.empty.Load(),
		Missing: r.missing.Load(),
	}
	if err == nil {
		err = ctx.Err()
	}
	r.logger.Info("accumulation completed",
		"written", res.Written,
		"skipped", res.Skipped,
		"empty", res.Empty,
		"missing_inputs", res.Missing)
	return res, err
}

func (r *Runner) outputPath(w Window) string {
	return filepath.Join(ExpandFolder(r.cfg.FolderOut, w.Date), FileName(w.Date, w.Hour, w.Minute, r.startSecond))
}

func (r *Runner) inputs(w Window) []string {
	dir := ExpandFolder(r.cfg.FolderIn, w.Date)
	var paths []string
	for _, m := range w.Minutes() {
		for s := r.startSecond; s < 60; s += int(Cadence.Seconds()) {
			paths = append(paths, filepath.Join(dir, FileName(w.Date, w.Hour, m, s)))
		}
	}
	return paths
}

func (r *Runner) process(ctx context.Context, w Window) error {
	out := r.outputPath(w)
	if _, err := os.Stat(out); err == nil {
		r.skipped.Add(1)
		r.logger.Debug("output exists, skipping", "path", out)
		return nil
	}

	var sum *ionogram.Ionogram
	n := 0
	for _, path := range r.inputs(w) {
		if err := ctx.Err(); err != nil {
			return err
		}

		ion, err := ionogram.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			r.missing.Add(1)
			r.logger.Debug("input missing", "path", path)
			continue
		case err != nil:
			r.logger.Warn("failed to read ionogram", "path", path, "error", err.Error())
			continue
		}

		if sum == nil {
			sum = ion.Clone()
			n = 1
			continue
		}
		if !sum.Compatible(ion) {
			r.logger.Warn("incompatible ionogram, skipping", "path", path)
			continue
		}
		sum.AddInPlace(ion)
		n++
	}

	if sum == nil {
		r.empty.Add(1)
		r.logger.Debug("no ionograms in window", "window", w.String())
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := sum.Div(n).WriteFile(out, false); err != nil {
		if errors.Is(err, ionogram.ErrExists) {
			r.skipped.Add(1)
			return nil
		}
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	r.written.Add(1)
	r.logger.Info("saved average", "path", out, "inputs", n, "window", w.String())
	return nil
}

// Resolution reports the height dimension of the first input and the inputs that differ from it.
type Resolution struct {
	First     int      `json:"first"`
	Different []string `json:"different"`
}

// CheckResolution scans every input of the plan.
func (r *Runner) CheckResolution(ctx context.Context) (Resolution, error) {
	windows, err := Plan(r.cfg)
	if err != nil {
		return Resolution{}, err
	}
	if err := r.detectStart(); err != nil {
		return Resolution{}, err
	}

	var res Resolution
	for _, w := range windows {
		for _, path := range r.inputs(w) {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			ion, err := ionogram.ReadFile(path)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					r.logger.Warn("failed to read ionogram", "path", path, "error", err.Error())
				}
				continue
			}
			dim := ion.Dimension()
			switch {
			case res.First == 0:
				res.First = dim
			case dim != res.First:
				res.Different = append(res.Different, filepath.Base(path))
			}
		}
	}
	return res, nil
}
