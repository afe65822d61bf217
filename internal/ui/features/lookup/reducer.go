package lookup

import "github.com/leapstack-labs/ionoview/internal/catalog"

// Reduce applies e to s. Picks older than the current token and results for
// any token other than the pending one leave s unchanged.
func Reduce(s State, e Event) State {
	switch e := e.(type) {
	case DatePicked:
		if e.Token < s.Token {
			return s
		}
		return State{
			SelectedDate: e.Date,
			Status:       StatusLoading,
			Token:        e.Token,
			Visible:      true,
		}

	case FilesLoaded:
		if s.Status != StatusLoading || e.Token != s.Token {
			return s
		}
		entries := e.Entries
		if entries == nil {
			entries = []catalog.DateFileEntry{}
		}
		s.Entries = entries
		s.Status = StatusIdle
		s.Err = ""
		return s

	case LookupFailed:
		if s.Status != StatusLoading || e.Token != s.Token {
			return s
		}
		s.Entries = nil
		s.Status = StatusFailed
		s.Err = "unknown error"
		if e.Err != nil {
			s.Err = e.Err.Error()
		}
		return s
	}
	return s
}
