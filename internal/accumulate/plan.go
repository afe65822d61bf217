// Package accumulate averages series of ionograms over fixed time windows.
package accumulate

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cadence is the interval between consecutive soundings.
const Cadence = 15 * time.Second

// DateLayout is the format of DateFrom and DateTo in configuration.
const DateLayout = "2006-01-02"

var recordingName = regexp.MustCompile(`^\d{2}_\d{2}_\d{2}_\d{2}_(\d{2})\.dat$`)

// Sentinel errors.
var (
	ErrNoFolder    = errors.New("input and output folders are required")
	ErrBadRange    = errors.New("date_to is before date_from")
	ErrBadDelta    = errors.New("delta_minutes must be between 1 and 60")
	ErrSameFolders = errors.New("input and output folders must differ")
)

// Window is one accumulation interval: minutes [Minute, Minute+Span) of Hour on Date.
type Window struct {
	Date   time.Time
	Hour   int
	Minute int
	Span   int
}

// Minutes returns the minutes covered by the window, capped at the end of the hour.
func (w Window) Minutes() []int {
	end := w.Minute + w.Span
	if end > 60 {
		end = 60
	}
	out := make([]int, 0, end-w.Minute)
	for m := w.Minute; m < end; m++ {
		out = append(out, m)
	}
	return out
}

// String formats the window for logs.
func (w Window) String() string {
	last := w.Minute + w.Span - 1
	if last > 59 {
		last = 59
	}
	return fmt.Sprintf("%s %02d:%02d-%02d:%02d", w.Date.Format("02.01"), w.Hour, w.Minute, w.Hour, last)
}

// Config configures an accumulation run.
type Config struct {
	// FolderIn and FolderOut may contain {YEAR}, {MONTH} and {DAY}.
	FolderIn  string
	FolderOut string
	DateFrom  time.Time
	DateTo    time.Time
	// DeltaMinutes is the window length.
	DeltaMinutes int
	// Workers bounds concurrent windows; zero means one per CPU.
	Workers int
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.FolderIn == "" || c.FolderOut == "" {
		return ErrNoFolder
	}
	if c.FolderIn == c.FolderOut {
		return ErrSameFolders
	}
	if c.DeltaMinutes < 1 || c.DeltaMinutes > 60 {
		return fmt.Errorf("%w: %d", ErrBadDelta, c.DeltaMinutes)
	}
	if c.DateTo.Before(c.DateFrom) {
		return ErrBadRange
	}
	return nil
}

// Plan returns every window of every day in [DateFrom, DateTo].
func Plan(c Config) ([]Window, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var windows []Window
	for _, day := range Days(c.DateFrom, c.DateTo) {
		for h := 0; h < 24; h++ {
			for m := 0; m < 60; m += c.DeltaMinutes {
				windows = append(windows, Window{Date: day, Hour: h, Minute: m, Span: c.DeltaMinutes})
			}
		}
	}
	return windows, nil
}

// Days returns the calendar days from..to inclusive.
func Days(from, to time.Time) []time.Time {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// ExpandFolder substitutes {YEAR}, {MONTH} and {DAY} in tmpl.
func ExpandFolder(tmpl string, day time.Time) string {
	return strings.NewReplacer(
		"{YEAR}", fmt.Sprintf("%02d", day.Year()),
		"{MONTH}", fmt.Sprintf("%02d", int(day.Month())),
		"{DAY}", fmt.Sprintf("%02d", day.Day()),
	).Replace(tmpl)
}

// FileName returns the recording name for a sounding time.
func FileName(day time.Time, hour, minute, second int) string {
	return fmt.Sprintf("%02d_%02d_%02d_%02d_%02d.dat", int(day.Month()), day.Day(), hour, minute, second)
}

// DetectStartSecond returns the seconds offset of the first recording in dir.
// Sounding series do not always start on a whole minute.
func DetectStartSecond(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return 0, nil
	}
	sort.Strings(names)

	m := recordingName.FindStringSubmatch(names[0])
	if m == nil {
		return 0, nil
	}
	s, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, nil
	}
	return s, nil
}

// ParseDate parses a YYYY-MM-DD configuration date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
