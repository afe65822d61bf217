// Package lookup provides the date lookup widget: a calendar input that lists the
// recordings of the picked month and day.
package lookup

import "github.com/leapstack-labs/ionoview/internal/catalog"

// Signals are the client signals sent with every lookup request.
type Signals struct {
	Date     string `json:"date"`
	Token    int64  `json:"lookupToken"`
	ClientID string `json:"clientId"`
}

// FilesResponse is the JSON body of a successful date lookup.
type FilesResponse struct {
	Files []catalog.DateFileEntry `json:"files"`
}

// ErrorResponse is the JSON body of a failed date lookup.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Status is the phase of the widget.
type Status int

// Widget phases.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// State is the widget state. It changes only through Reduce.
type State struct {
	SelectedDate string
	Entries      []catalog.DateFileEntry
	Status       Status
	Token        int64
	Err          string
	Visible      bool
}

// Event is an input to Reduce.
type Event interface {
	event()
}

// DatePicked starts a lookup.
type DatePicked struct {
	Date  string
	Token int64
}

// FilesLoaded completes a lookup.
type FilesLoaded struct {
	Token   int64
	Entries []catalog.DateFileEntry
}

// LookupFailed ends a lookup with an error.
type LookupFailed struct {
	Token int64
	Err   error
}

func (DatePicked) event()   {}
func (FilesLoaded) event()  {}
func (LookupFailed) event() {}
