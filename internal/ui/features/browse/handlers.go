package browse

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/ionoview/internal/catalog"
	"github.com/leapstack-labs/ionoview/internal/chart"
	"github.com/leapstack-labs/ionoview/internal/ionogram"
	"github.com/leapstack-labs/ionoview/internal/ui/features/browse/components"
	"github.com/leapstack-labs/ionoview/internal/ui/features/common"
	lookupComponents "github.com/leapstack-labs/ionoview/internal/ui/features/lookup/components"
	"github.com/leapstack-labs/ionoview/internal/ui/notifier"
)

// Handlers provides HTTP handlers for the browse feature.
type Handlers struct {
	browser      *catalog.Browser
	chart        chart.Options
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	isDev        bool
	now          func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(browser *catalog.Browser, chartOpts chart.Options, sessionStore sessions.Store, notify *notifier.Notifier, isDev bool) *Handlers {
	return &Handlers{
		browser:      browser,
		chart:        chartOpts,
		sessionStore: sessionStore,
		notifier:     notify,
		isDev:        isDev,
		now:          time.Now,
	}
}

// BrowsePage renders the browser for ?path=&file=. Without a path the last
// browsed directory of the session is shown, falling back to the data root.
func (h *Handlers) BrowsePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	file := q.Get("file")

	session := h.session(r)
	if path == "" && session != nil {
		if last, ok := session.Values[sessionPathKey].(string); ok {
			if _, err := h.browser.Resolve(last); err == nil {
				path = last
			}
		}
	}

	bc := h.BuildContext(path, file)

	if session != nil && bc.ErrorText == nil {
		session.Values[sessionPathKey] = bc.CurrentPath
		_ = session.Save(r, w)
	}

	page := common.PageData{Title: "Ionograms", IsDev: h.isDev}
	widget := lookupComponents.Widget(h.now().Format(catalog.LookupDateLayout), uuid.NewString())
	if err := components.BrowsePage(page, bc, widget).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// BrowseUpdates is the long-lived SSE endpoint of a browse page. It re-renders
// the view when the watched directory changes.
func (h *Handlers) BrowseUpdates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path, file := q.Get("path"), q.Get("file")
	dir, _ := h.browser.Resolve(path)

	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case changed := <-updates:
			if !notifier.Affects(changed, dir) {
				continue
			}
			if err := sse.PatchElementTempl(components.BrowseView(h.BuildContext(path, file))); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// BuildContext assembles the view of directory path with an optional selected file.
// Failures are reported through ErrorText; whatever could be read is kept.
func (h *Handlers) BuildContext(path, file string) BrowseContext {
	listing, err := h.browser.List(path)
	bc := BrowseContext{
		CurrentPath:    listing.Path,
		ParentPath:     listing.Parent,
		Subdirectories: listing.Subdirectories,
		MatchingFiles:  listing.Files,
	}

	var problems []string
	if err != nil {
		problems = append(problems, err.Error())
	}

	if file != "" {
		bc.SelectedFile = ptr(file)
		if err == nil {
			if perr := h.plot(&bc, file); perr != nil {
				problems = append(problems, perr.Error())
			}
		}
	}

	if len(problems) > 0 {
		bc.ErrorText = ptr(strings.Join(problems, "; "))
	}
	return bc
}

// plot fills the chart fields for file. A file that does not exist is not an error.
func (h *Handlers) plot(bc *BrowseContext, file string) error {
	full, err := h.browser.File(bc.CurrentPath, file)
	if err != nil {
		return err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil
	}
	if err != nil {
		return err
	}

	ion, err := ionogram.ReadFile(full)
	if err != nil {
		return fmt.Errorf("cannot plot ionogram: %w", err)
	}
	markup, err := chart.Ionogram(ion, h.chart)
	if err != nil {
		return fmt.Errorf("cannot plot ionogram: %w", err)
	}

	bc.ChartMarkup = ptr(markup)
	bc.MetadataText = ptr(ion.Passport())
	if noise, ok := chart.Noise(ion, h.chart); ok {
		bc.NoiseChartMarkup = ptr(noise)
	}
	return nil
}

func (h *Handlers) session(r *http.Request) *sessions.Session {
	if h.sessionStore == nil {
		return nil
	}
	session, err := h.sessionStore.Get(r, SessionName)
	if err != nil {
		return nil
	}
	return session
}
