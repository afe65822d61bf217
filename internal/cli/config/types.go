// Package config provides configuration management for the ionoview CLI.
package config

import (
	"github.com/leapstack-labs/ionoview/internal/accumulate"
	"github.com/leapstack-labs/ionoview/internal/chart"
)

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Host          string `koanf:"host"`
	Port          int    `koanf:"port"`
	AutoOpen      bool   `koanf:"auto_open"`
	Watch         bool   `koanf:"watch"`
	SessionSecret string `koanf:"session_secret"`
	Dev           bool   `koanf:"dev"`
}

// ChartConfig holds chart geometry.
type ChartConfig struct {
	MaxFrequencyMHz float64 `koanf:"max_frequency_mhz"`
	Width           int     `koanf:"width"`
	Height          int     `koanf:"height"`
}

// Options converts the config to chart options.
func (c ChartConfig) Options() chart.Options {
	return chart.Options{MaxFrequency: c.MaxFrequencyMHz, Width: c.Width, Height: c.Height}
}

// AccumulateConfig holds the averaging job settings.
type AccumulateConfig struct {
	FolderIn     string `koanf:"folder_in"`
	FolderOut    string `koanf:"folder_out"`
	DateFrom     string `koanf:"date_from"`
	DateTo       string `koanf:"date_to"`
	DeltaMinutes int    `koanf:"delta_minutes"`
	Workers      int    `koanf:"workers"`
}

// Job parses the dates and returns the accumulator configuration.
func (c AccumulateConfig) Job() (accumulate.Config, error) {
	from, err := accumulate.ParseDate(c.DateFrom)
	if err != nil {
		return accumulate.Config{}, err
	}
	to := from
	if c.DateTo != "" {
		if to, err = accumulate.ParseDate(c.DateTo); err != nil {
			return accumulate.Config{}, err
		}
	}
	return accumulate.Config{
		FolderIn:     c.FolderIn,
		FolderOut:    c.FolderOut,
		DateFrom:     from,
		DateTo:       to,
		DeltaMinutes: c.DeltaMinutes,
		Workers:      c.Workers,
	}, nil
}

// Config holds all CLI configuration options.
type Config struct {
	// Root is the data directory browsed by the UI.
	Root string `koanf:"root"`
	// SearchRoot is walked by date lookups. Defaults to Root.
	SearchRoot     string           `koanf:"search_root"`
	RestrictToRoot bool             `koanf:"restrict_to_root"`
	IndexPath      string           `koanf:"index_path"`
	UseIndex       bool             `koanf:"use_index"`
	LogLevel       string           `koanf:"log_level"`
	Verbose        bool             `koanf:"verbose"`
	OutputFormat   string           `koanf:"output"`
	UI             UIConfig         `koanf:"ui"`
	Chart          ChartConfig      `koanf:"chart"`
	Accumulate     AccumulateConfig `koanf:"accumulate"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values
const (
	DefaultRoot         = "."
	DefaultIndexFile    = ".ionoview/index.db"
	DefaultLogLevel     = "info"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultPort         = 8765
	DefaultDeltaMinutes = 15
)

// ConfigFileNames are searched in order.
var ConfigFileNames = []string{"ionoview.yaml", "ionoview.yml"}

func defaults() map[string]interface{} {
	c := chart.DefaultOptions()
	return map[string]interface{}{
		"root":                     DefaultRoot,
		"restrict_to_root":         true,
		"index_path":               DefaultIndexFile,
		"use_index":                true,
		"log_level":                DefaultLogLevel,
		"verbose":                  false,
		"output":                   DefaultOutput,
		"ui.host":                  "localhost",
		"ui.port":                  DefaultPort,
		"ui.auto_open":             false,
		"ui.watch":                 true,
		"ui.dev":                   false,
		"chart.max_frequency_mhz":  c.MaxFrequency,
		"chart.width":              c.Width,
		"chart.height":             c.Height,
		"accumulate.delta_minutes": DefaultDeltaMinutes,
		"accumulate.workers":       0,
	}
}
