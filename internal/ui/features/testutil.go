// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ionoview/internal/catalog"
	"github.com/leapstack-labs/ionoview/internal/chart"
	"github.com/leapstack-labs/ionoview/internal/index"
	"github.com/leapstack-labs/ionoview/internal/ionogram/ionogramtest"
	"github.com/leapstack-labs/ionoview/internal/ui/notifier"
)

// TestFile is a recording placed in the fixture tree. Relative paths are
// resolved against the fixture root.
type TestFile struct {
	Path string
	// Raw replaces the default sample bytes when set.
	Raw []byte
}

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Root         string
	Browser      *catalog.Browser
	Finder       catalog.Finder
	Chart        chart.Options
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
}

// SetupTestFixture creates a data root containing files and a walking finder over it.
func SetupTestFixture(t *testing.T, files ...TestFile) *TestFixture {
	t.Helper()

	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f.Path))
		if f.Raw != nil {
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
			require.NoError(t, os.WriteFile(path, f.Raw, 0o600))
			continue
		}
		ionogramtest.Default().Write(t, filepath.Dir(path), filepath.Base(path))
	}

	return &TestFixture{
		Root:         root,
		Browser:      catalog.NewBrowser(root, true),
		Finder:       catalog.NewWalkFinder(root),
		Chart:        chart.DefaultOptions(),
		Notifier:     notifier.New(),
		SessionStore: NewTestSessionStore(),
	}
}

// WithIndex switches the fixture finder to a migrated in-memory index of the root.
func (f *TestFixture) WithIndex(t *testing.T) *index.Store {
	t.Helper()

	store := index.NewStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })

	_, err := store.Rebuild(context.Background(), f.Root)
	require.NoError(t, err)

	f.Finder = store
	return store
}

// Dir returns the absolute path of a fixture directory.
func (f *TestFixture) Dir(rel string) string {
	return filepath.Join(f.Root, filepath.FromSlash(rel))
}

// RequestWithTimeout wraps a request with a context timeout.
func RequestWithTimeout(r *http.Request, timeout time.Duration) *http.Request {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	_ = cancel // the timeout cancels the context
	return r.WithContext(ctx)
}

// SignalsQuery encodes datastar signals the way the client sends them on GET.
func SignalsQuery(signals string) string {
	return "datastar=" + url.QueryEscape(signals)
}

// NewTestNotifier creates a notifier for testing.
func NewTestNotifier() *notifier.Notifier {
	return notifier.New()
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
