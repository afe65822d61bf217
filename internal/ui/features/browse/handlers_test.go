package browse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ionoview/internal/ionogram/ionogramtest"
	"github.com/leapstack-labs/ionoview/internal/ui/features"
	"github.com/leapstack-labs/ionoview/internal/ui/features/browse/components"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t,
		features.TestFile{Path: "vs/03_15_12_30_00.dat"},
		features.TestFile{Path: "vs/03_15_12_45_00.dat"},
		features.TestFile{Path: "vs/bad.dat", Raw: []byte("garbage")},
		features.TestFile{Path: "vs/notes.txt", Raw: []byte("not a recording")},
		features.TestFile{Path: "ns/2023/03_15_08_00_15.dat"},
	)
	h := NewHandlers(fixture.Browser, fixture.Chart, fixture.SessionStore, fixture.Notifier, false)
	h.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	return h, fixture
}

func browse(t *testing.T, h *Handlers, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.BrowsePage(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec
}

func render(t *testing.T, c BrowseContext) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, components.BrowseView(c).Render(context.Background(), &b))
	return b.String()
}

// =============================================================================
// BrowsePage Tests - full page render
// =============================================================================

func TestBrowsePage_Root(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	body := browse(t, h, "/").Body.String()

	assert.True(t, strings.HasPrefix(body, "<!doctype html>"))
	assert.Contains(t, body, "<title>Ionograms - Ionoview</title>")
	assert.Contains(t, body, `id="browse-view"`)
	assert.NotContains(t, body, `class="back"`, "the data root has no parent")
	assert.Contains(t, body, `href="?path=`+fixture.Dir("ns")+`"`)
	assert.Contains(t, body, `href="?path=`+fixture.Dir("vs")+`"`)
	assert.Contains(t, body, components.PlaceholderText)
	assert.Contains(t, body, `data-init="@get(&#39;/updates?path=`+fixture.Root+`&#39;, {openWhenHidden: true})"`)
	assert.Contains(t, body, `value="2024-03-15"`, "lookup widget defaults to today")
}

func TestBrowsePage_Directory(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	body := browse(t, h, "/?path="+fixture.Dir("vs")).Body.String()

	assert.Contains(t, body, `<a class="back" href="?path=`+fixture.Root+`">`)
	assert.Contains(t, body, `href="?path=`+fixture.Dir("vs")+`&amp;file=03_15_12_30_00.dat"`)
	assert.Contains(t, body, ">bad.dat</a>")
	assert.NotContains(t, body, "notes.txt", "only recordings are listed")
	assert.NotContains(t, body, `selected`)
	assert.NotContains(t, body, "error-banner")
}

func TestBrowsePage_SelectedFile(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	body := browse(t, h, "/?path="+fixture.Dir("vs")+"&file=03_15_12_30_00.dat").Body.String()

	assert.Equal(t, 1, strings.Count(body, `class="file selected"`))
	assert.Contains(t, body, `<li class="file selected"><a href="?path=`+fixture.Dir("vs")+`&amp;file=03_15_12_30_00.dat"`)
	assert.Contains(t, body, `id="ionogram-chart"`)
	assert.Contains(t, body, `<pre class="passport">`)
	assert.Contains(t, body, "Трасса зондирования: Иркутск")
	assert.Contains(t, body, `id="noise-chart"`)
	assert.NotContains(t, body, components.PlaceholderText)
	assert.Contains(t, body, "/updates?path="+fixture.Dir("vs")+"&amp;file=03_15_12_30_00.dat")
}

func TestBrowsePage_BadFileKeepsListing(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	body := browse(t, h, "/?path="+fixture.Dir("vs")+"&file=bad.dat").Body.String()

	assert.Contains(t, body, "error-banner")
	assert.Contains(t, body, "cannot plot ionogram")
	assert.Contains(t, body, ">03_15_12_45_00.dat</a>", "listing survives the plot error")
	assert.Contains(t, body, `class="file selected"`)
	assert.Contains(t, body, components.PlaceholderText)
}

func TestBrowsePage_ReversedFrequencyPlan(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	reversed := ionogramtest.Default()
	reversed.Freq0, reversed.FreqN = 5000, 1000
	reversed.Write(t, fixture.Dir("vs"), "03_15_13_00_00.dat")

	var body string
	require.NotPanics(t, func() {
		body = browse(t, h, "/?path="+fixture.Dir("vs")+"&file=03_15_13_00_00.dat").Body.String()
	})

	assert.Contains(t, body, "error-banner")
	assert.Contains(t, body, "cannot plot ionogram")
	assert.Contains(t, body, "frequency plan")
	assert.Contains(t, body, ">03_15_12_30_00.dat</a>", "listing survives the plot error")
}

func TestBrowsePage_MissingFileIsNotAnError(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	body := browse(t, h, "/?path="+fixture.Dir("vs")+"&file=03_15_23_59_45.dat").Body.String()

	assert.NotContains(t, body, "error-banner")
	assert.Contains(t, body, components.PlaceholderText)
}

func TestBrowsePage_Errors(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	tests := []struct {
		name    string
		target  string
		wantErr string
	}{
		{"outside root", "/?path=/etc", "outside the data root"},
		{"missing directory", "/?path=" + fixture.Dir("missing"), "no such file or directory"},
		{"escaping file name", "/?path=" + fixture.Dir("vs") + "&file=../ns", "invalid file name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := browse(t, h, tt.target).Body.String()
			assert.Contains(t, body, `class="error-banner"`)
			assert.Contains(t, body, tt.wantErr)
		})
	}
}

func TestBrowsePage_SessionRemembersDirectory(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	first := browse(t, h, "/?path="+fixture.Dir("vs"))
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.BrowsePage(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `<a class="back" href="?path=`+fixture.Root+`">`, "remembered directory is shown")
	assert.Contains(t, body, ">03_15_12_30_00.dat</a>")
}

func TestBrowsePage_ErrorNotRemembered(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := browse(t, h, "/?path=/etc")
	assert.Empty(t, rec.Result().Cookies())
}

// =============================================================================
// BrowseView Tests - pure rendering
// =============================================================================

func TestBrowseView_Idempotent(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	bc := h.BuildContext(fixture.Dir("vs"), "03_15_12_30_00.dat")
	assert.Equal(t, render(t, bc), render(t, bc))
}

func TestBrowseView_ErrorWithoutListing(t *testing.T) {
	html := render(t, BrowseContext{CurrentPath: "/data", ErrorText: ptr("boom <b>")})

	assert.Contains(t, html, "boom &lt;b&gt;")
	assert.Contains(t, html, `<ul class="entries dirs"></ul>`)
	assert.NotContains(t, html, `class="back"`)
}

func TestBrowseView_ChartWithoutNoise(t *testing.T) {
	html := render(t, BrowseContext{
		CurrentPath:  "/data",
		ChartMarkup:  ptr(`<svg id="ionogram-chart"></svg>`),
		MetadataText: ptr("passport"),
	})

	assert.Contains(t, html, `<div class="chart"><svg id="ionogram-chart"></svg></div>`)
	assert.Contains(t, html, `<pre class="passport">passport</pre>`)
	assert.NotContains(t, html, `class="noise"`)
}

func TestBuildContext(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	bc := h.BuildContext(fixture.Dir("ns"), "")
	assert.Equal(t, fixture.Dir("ns"), bc.CurrentPath)
	require.NotNil(t, bc.ParentPath)
	assert.Equal(t, fixture.Root, *bc.ParentPath)
	assert.Equal(t, []string{"2023"}, bc.Subdirectories)
	assert.Empty(t, bc.MatchingFiles)
	assert.Nil(t, bc.SelectedFile)
	assert.Nil(t, bc.ErrorText)
}

// =============================================================================
// BrowseUpdates Tests - SSE endpoint for live updates only
// =============================================================================

func runUpdates(t *testing.T, h *Handlers, target string, trigger func()) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	ctx, cancel := context.WithTimeout(req.Context(), 300*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.BrowseUpdates(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return h.notifier.Len() == 1 }, time.Second, 5*time.Millisecond)
	if trigger != nil {
		trigger()
	}
	<-done

	return rec.Body.String()
}

func TestBrowseUpdates_SendsUpdateForWatchedDirectory(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	body := runUpdates(t, h, "/updates?path="+fixture.Dir("vs"), func() {
		fixture.Notifier.Broadcast(fixture.Dir("vs"))
	})

	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1)
	assert.Contains(t, body, `id="browse-view"`)
	assert.Contains(t, body, "03_15_12_45_00.dat")
}

func TestBrowseUpdates_IgnoresOtherDirectories(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	body := runUpdates(t, h, "/updates?path="+fixture.Dir("vs"), func() {
		fixture.Notifier.Broadcast(fixture.Dir("ns"))
	})

	assert.Equal(t, 0, strings.Count(body, "event:"))
}

func TestBrowseUpdates_CoalescedEventUpdates(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	body := runUpdates(t, h, "/updates", func() {
		fixture.Notifier.Broadcast("")
	})

	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1)
}

func TestBrowseUpdates_NoInitialState(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	body := runUpdates(t, h, "/updates?path="+fixture.Dir("vs"), nil)

	assert.Equal(t, 0, strings.Count(body, "event:"), "content is server-rendered by BrowsePage")
	assert.Equal(t, 0, fixture.Notifier.Len(), "listener is removed on disconnect")
}

// =============================================================================
// Routes
// =============================================================================

func TestSetupRoutes(t *testing.T) {
	fixture := features.SetupTestFixture(t, features.TestFile{Path: "vs/03_15_12_30_00.dat"})

	r := chi.NewRouter()
	require.NoError(t, SetupRoutes(r, fixture.Browser, fixture.Chart, fixture.SessionStore, fixture.Notifier, false))

	req := httptest.NewRequest(http.MethodGet, "/?path="+fixture.Dir("vs"), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "03_15_12_30_00.dat")
}
