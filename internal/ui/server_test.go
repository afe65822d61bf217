package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ionoview/internal/catalog"
	"github.com/leapstack-labs/ionoview/internal/chart"
	"github.com/leapstack-labs/ionoview/internal/index"
	"github.com/leapstack-labs/ionoview/internal/ionogram/ionogramtest"
	"github.com/leapstack-labs/ionoview/internal/testutil"
)

func newTestServer(t *testing.T, withIndex bool) (*Server, string) {
	t.Helper()

	root := t.TempDir()
	ionogramtest.Default().Write(t, filepath.Join(root, "vs"), "03_15_12_30_00.dat")

	cfg := Config{
		Browser:       catalog.NewBrowser(root, true),
		Chart:         chart.DefaultOptions(),
		SessionSecret: "test-secret-key-32-bytes-long!!",
		Logger:        testutil.NewTestLogger(t),
	}
	if withIndex {
		store := index.NewStore()
		require.NoError(t, store.Open(":memory:"))
		require.NoError(t, store.Migrate())
		t.Cleanup(func() { _ = store.Close() })
		_, err := store.Rebuild(context.Background(), root)
		require.NoError(t, err)
		cfg.Index = store
	}
	return NewServer(cfg), root
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Handler(t *testing.T) {
	for _, withIndex := range []bool{false, true} {
		s, root := newTestServer(t, withIndex)
		h, err := s.Handler()
		require.NoError(t, err)

		rec := get(t, h, "/?path="+filepath.Join(root, "vs"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "03_15_12_30_00.dat")

		rec = get(t, h, "/get_files_by_date/?date=1999-03-15")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Files []catalog.DateFileEntry `json:"files"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []catalog.DateFileEntry{
			{FileName: "03_15_12_30_00.dat", Path: filepath.Join(root, "vs")},
		}, resp.Files, "index=%v", withIndex)

		rec = get(t, h, "/static/app.css")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = get(t, h, "/reload")
		assert.Equal(t, http.StatusNotFound, rec.Code, "reload is dev only")
	}
}

func TestServer_ApplyEvent(t *testing.T) {
	s, root := newTestServer(t, true)
	ctx := context.Background()

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { _ = watcher.Close() })

	updates := s.Notifier().Subscribe()
	t.Cleanup(func() { s.Notifier().Unsubscribe(updates) })

	vs := filepath.Join(root, "vs")
	added := ionogramtest.Default().Write(t, vs, "03_15_12_45_00.dat")

	assert.True(t, s.applyEvent(ctx, watcher, fsnotify.Event{Name: added, Op: fsnotify.Create}))
	n, err := s.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	s.flush()
	select {
	case dir := <-updates:
		assert.Equal(t, vs, dir)
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}

	txt := filepath.Join(vs, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o600))
	assert.False(t, s.applyEvent(ctx, watcher, fsnotify.Event{Name: txt, Op: fsnotify.Create}))

	require.NoError(t, os.Remove(added))
	assert.True(t, s.applyEvent(ctx, watcher, fsnotify.Event{Name: added, Op: fsnotify.Remove}))
	n, err = s.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestServer_ApplyEvent_NewDirectory(t *testing.T) {
	s, root := newTestServer(t, true)
	ctx := context.Background()

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { _ = watcher.Close() })

	dir := filepath.Join(root, "ns", "2024")
	ionogramtest.Default().Write(t, dir, "03_15_00_00_00.dat")

	assert.True(t, s.applyEvent(ctx, watcher, fsnotify.Event{Name: filepath.Join(root, "ns"), Op: fsnotify.Create}))
	assert.Contains(t, watcher.WatchList(), dir)

	files, err := s.index.FilesByDate(ctx, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, files, 2)

	s.mu.Lock()
	_, rootChanged := s.pending[root]
	s.mu.Unlock()
	assert.True(t, rootChanged, "parent listing changed")
}

func TestServer_FlushCoalesces(t *testing.T) {
	s, root := newTestServer(t, false)

	updates := s.Notifier().Subscribe()
	t.Cleanup(func() { s.Notifier().Unsubscribe(updates) })

	s.markChanged(filepath.Join(root, "a"))
	s.markChanged(filepath.Join(root, "b"))
	s.flush()

	assert.Equal(t, "", <-updates, "a slow listener sees a coalesced event")
	assert.Empty(t, s.pending)
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t, false)
	s.host = "127.0.0.1"
	s.port = 0
	s.watch = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
