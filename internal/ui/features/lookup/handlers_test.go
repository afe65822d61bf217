package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ionoview/internal/catalog"
	"github.com/leapstack-labs/ionoview/internal/ui/features"
	"github.com/leapstack-labs/ionoview/internal/ui/features/lookup/components"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t,
		features.TestFile{Path: "vs/03_15_12_30_00.dat"},
		features.TestFile{Path: "vs/03_15_12_45_00.dat"},
		features.TestFile{Path: "vs/03_16_00_00_00.dat"},
		features.TestFile{Path: "ns/2023/03_15_08_00_15.dat"},
	)
	return NewHandlers(fixture.Finder, nil), fixture
}

type stubFinder struct {
	files   []catalog.DateFileEntry
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *stubFinder) FilesByDate(ctx context.Context, _ time.Time) ([]catalog.DateFileEntry, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.files, f.err
}

func getJSON(t *testing.T, h *Handlers, target string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.FilesByDate(rec, req)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func lookupSSE(t *testing.T, h *Handlers, signals string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/lookup?"+features.SignalsQuery(signals), nil)
	req = features.RequestWithTimeout(req, time.Second)
	rec := httptest.NewRecorder()
	h.LookupSSE(rec, req)
	return rec.Body.String()
}

// =============================================================================
// FilesByDate Tests - JSON endpoint
// =============================================================================

func TestFilesByDate(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	code, body := getJSON(t, h, "/get_files_by_date/?date=2024-03-15")
	assert.Equal(t, http.StatusOK, code)

	files, ok := body["files"].([]any)
	require.True(t, ok)
	require.Len(t, files, 3)
	assert.Equal(t, map[string]any{"file": "03_15_08_00_15.dat", "path": fixture.Dir("ns/2023")}, files[0])
	assert.Equal(t, map[string]any{"file": "03_15_12_30_00.dat", "path": fixture.Dir("vs")}, files[1])
}

func TestFilesByDate_YearIgnored(t *testing.T) {
	h, _ := setupTestHandlers(t)

	_, body := getJSON(t, h, "/get_files_by_date/?date=1999-03-16")
	assert.Len(t, body["files"], 1)
}

func TestFilesByDate_Empty(t *testing.T) {
	h, _ := setupTestHandlers(t)

	code, body := getJSON(t, h, "/get_files_by_date/?date=2024-12-01")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, body["files"], "empty list, not null")
}

func TestFilesByDate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		finder     catalog.Finder
		wantStatus int
		wantError  string
	}{
		{"missing date", "/get_files_by_date/", nil, http.StatusBadRequest, "Invalid request"},
		{"malformed date", "/get_files_by_date/?date=15.03.2024", nil, http.StatusBadRequest, "Invalid date format"},
		{"empty date", "/get_files_by_date/?date=", nil, http.StatusBadRequest, "Invalid date format"},
		{"finder failure", "/get_files_by_date/?date=2024-03-15", &stubFinder{err: errors.New("disk gone")}, http.StatusInternalServerError, "disk gone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(tt.finder, nil)
			code, body := getJSON(t, h, tt.target)
			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestFilesByDate_RejectsPost(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/get_files_by_date/?date=2024-03-15", nil)
	rec := httptest.NewRecorder()
	h.FilesByDate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request")
}

func TestSetupRoutes(t *testing.T) {
	_, fixture := setupTestHandlers(t)
	r := chi.NewRouter()
	require.NoError(t, SetupRoutes(r, fixture.Finder, nil))

	for _, target := range []string{"/get_files_by_date/?date=2024-03-16", "/get_files_by_date?date=2024-03-16"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "03_16_00_00_00.dat")
	}
}

// =============================================================================
// LookupSSE Tests - datastar widget endpoint
// =============================================================================

func TestLookupSSE_Populates(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	body := lookupSSE(t, h, `{"date":"2024-03-15","lookupToken":1,"clientId":"c1"}`)

	assert.Equal(t, 2, strings.Count(body, "event:"), "loading placeholder, then the result")
	assert.Contains(t, body, `id="date-files"`)
	assert.Contains(t, body, ">03_15_12_30_00.dat</a>")
	assert.Contains(t, body, ">03_15_12_45_00.dat</a>")
	assert.Contains(t, body, ">03_15_08_00_15.dat</a>")
	assert.NotContains(t, body, "03_16_00_00_00.dat")
	assert.Contains(t, body, `href="?path=`+fixture.Dir("vs")+`&amp;file=03_15_12_30_00.dat"`)
}

func TestLookupSSE_EmptyState(t *testing.T) {
	h, _ := setupTestHandlers(t)

	body := lookupSSE(t, h, `{"date":"2024-12-01","lookupToken":1,"clientId":"c1"}`)
	assert.Contains(t, body, "No files for this date")
	assert.NotContains(t, body, "<a ")
}

func TestLookupSSE_Failure(t *testing.T) {
	h := NewHandlers(&stubFinder{err: errors.New("disk gone")}, nil)

	body := lookupSSE(t, h, `{"date":"2024-03-15","lookupToken":1,"clientId":"c1"}`)
	assert.Contains(t, body, "Lookup failed: disk gone")

	body = lookupSSE(t, h, `{"date":"bad","lookupToken":2,"clientId":"c1"}`)
	assert.Contains(t, body, "Lookup failed: invalid date format")
}

func TestLookupSSE_DropsSupersededRequest(t *testing.T) {
	seq := NewSequencer(time.Minute)
	h := NewHandlers(&stubFinder{}, seq)
	seq.Begin("c1", 5)

	body := lookupSSE(t, h, `{"date":"2024-03-15","lookupToken":3,"clientId":"c1"}`)
	assert.Equal(t, 0, strings.Count(body, "event:"), "older token must not patch the list")
}

func TestLookupSSE_DropsResponseOvertakenInFlight(t *testing.T) {
	finder := &stubFinder{
		files:   []catalog.DateFileEntry{{FileName: "03_15_12_30_00.dat", Path: "/x"}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	seq := NewSequencer(time.Minute)
	h := NewHandlers(finder, seq)

	done := make(chan string)
	go func() {
		done <- lookupSSE(t, h, `{"date":"2024-03-15","lookupToken":1,"clientId":"c1"}`)
	}()

	<-finder.started
	require.True(t, seq.Begin("c1", 2), "user picked another date")
	close(finder.release)

	body := <-done
	assert.Equal(t, 1, strings.Count(body, "event:"), "only the loading placeholder")
	assert.Contains(t, body, components.LoadingText)
	assert.NotContains(t, body, "03_15_12_30_00.dat")
}

func TestLookupSSE_ShowsLoadingBeforeResult(t *testing.T) {
	finder := &stubFinder{
		files:   []catalog.DateFileEntry{{FileName: "03_15_12_30_00.dat", Path: "/x"}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	h := NewHandlers(finder, nil)

	done := make(chan string)
	go func() {
		done <- lookupSSE(t, h, `{"date":"2024-03-15","lookupToken":1,"clientId":"c1"}`)
	}()

	<-finder.started
	close(finder.release)
	body := <-done

	loading := strings.Index(body, components.LoadingText)
	result := strings.Index(body, ">03_15_12_30_00.dat</a>")
	require.GreaterOrEqual(t, loading, 0, "loading placeholder is patched")
	require.GreaterOrEqual(t, result, 0, "result is patched")
	assert.Less(t, loading, result, "placeholder precedes the result")
}
