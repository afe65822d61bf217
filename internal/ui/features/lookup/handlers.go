package lookup

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/ionoview/internal/catalog"
	"github.com/leapstack-labs/ionoview/internal/ui/features/lookup/components"
)

// Handlers provides HTTP handlers for the lookup feature.
type Handlers struct {
	finder    catalog.Finder
	sequencer *Sequencer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(finder catalog.Finder, sequencer *Sequencer) *Handlers {
	if sequencer == nil {
		sequencer = NewSequencer(DefaultIdleTimeout)
	}
	return &Handlers{
		finder:    finder,
		sequencer: sequencer,
	}
}

// FilesByDate answers GET ?date=YYYY-MM-DD with the recordings of that month and day.
func (h *Handlers) FilesByDate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if r.Method != http.MethodGet || !q.Has("date") {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	date, err := catalog.ParseLookupDate(q.Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid date format"})
		return
	}

	files, err := h.finder.FilesByDate(r.Context(), date)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if files == nil {
		files = []catalog.DateFileEntry{}
	}
	writeJSON(w, http.StatusOK, FilesResponse{Files: files})
}

// LookupSSE runs a lookup for the date signal and patches the result list.
// Responses to requests superseded by a newer pick of the same client are dropped.
func (h *Handlers) LookupSSE(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals Signals
	readErr := datastar.ReadSignals(r, &signals)

	sse := datastar.NewSSE(w, r)

	if readErr != nil {
		state := Reduce(Reduce(State{}, DatePicked{}), LookupFailed{Err: errors.New("failed to read signals")})
		_ = sse.PatchElementTempl(components.List(ListData(state)))
		return
	}

	if !h.sequencer.Begin(signals.ClientID, signals.Token) {
		return
	}

	state := Reduce(State{}, DatePicked{Date: signals.Date, Token: signals.Token})
	if err := sse.PatchElementTempl(components.List(ListData(state))); err != nil {
		return
	}

	state = Reduce(state, h.lookup(r, signals))

	if !h.sequencer.IsLatest(signals.ClientID, signals.Token) {
		return
	}
	if err := sse.PatchElementTempl(components.List(ListData(state))); err != nil {
		_ = sse.ConsoleError(err)
	}
}

func (h *Handlers) lookup(r *http.Request, signals Signals) Event {
	date, err := catalog.ParseLookupDate(signals.Date)
	if err != nil {
		return LookupFailed{Token: signals.Token, Err: errors.New("invalid date format")}
	}
	files, err := h.finder.FilesByDate(r.Context(), date)
	if err != nil {
		return LookupFailed{Token: signals.Token, Err: err}
	}
	return FilesLoaded{Token: signals.Token, Entries: files}
}

// ListData maps widget state onto the list component.
func ListData(s State) components.ListData {
	return components.ListData{
		Loading: s.Status == StatusLoading,
		Failed:  s.Status == StatusFailed,
		Err:     s.Err,
		Entries: s.Entries,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
