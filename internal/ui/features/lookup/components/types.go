// Package components renders the date lookup widget.
package components

import "github.com/leapstack-labs/ionoview/internal/catalog"

// Placeholder texts.
const (
	EmptyText    = "No files for this date"
	LoadingText  = "Loading…"
	FailedPrefix = "Lookup failed: "
)

// ListID is the element replaced on every lookup.
const ListID = "date-files"

// ListData is what the result list renders.
type ListData struct {
	Loading bool
	Failed  bool
	Err     string
	Entries []catalog.DateFileEntry
}
