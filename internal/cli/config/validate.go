package config

import (
	"fmt"
	"os"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("invalid output format %q (want auto|text|markdown|json)", c.OutputFormat)
	}
	if c.UI.Port < 0 || c.UI.Port > 65535 {
		return fmt.Errorf("invalid ui.port %d", c.UI.Port)
	}
	if c.Chart.MaxFrequencyMHz <= 0 {
		return fmt.Errorf("chart.max_frequency_mhz must be positive")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be positive")
	}

	// Only validate directory existence if we're running a command that needs it
	// This allows help commands to work without a valid directory
	return nil
}

// ValidateDirectories checks if the data directories exist.
func (c *Config) ValidateDirectories() error {
	for _, dir := range []string{c.Root, c.SearchRoot} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("data directory does not exist: %s\nHint: set root in ionoview.yaml or use --root", dir)
		}
		if !info.IsDir() {
			return fmt.Errorf("data root is not a directory: %s", dir)
		}
	}
	return nil
}
