// Package main provides the CLI for the Ionoview ionogram browser.
package main

import (
	"os"

	"github.com/leapstack-labs/ionoview/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
