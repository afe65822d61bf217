// Package ui serves the ionogram browser over HTTP.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/ionoview/internal/catalog"
	"github.com/leapstack-labs/ionoview/internal/chart"
	"github.com/leapstack-labs/ionoview/internal/index"
	"github.com/leapstack-labs/ionoview/internal/ui/notifier"
	"github.com/leapstack-labs/ionoview/internal/ui/router"
)

// debounce is how long file events are collected before listeners are notified.
const debounce = 100 * time.Millisecond

// Server is the main UI server.
type Server struct {
	browser      *catalog.Browser
	finder       catalog.Finder
	index        *index.Store
	chart        chart.Options
	sessionStore *sessions.CookieStore
	host         string
	port         int
	watch        bool
	dev          bool
	logger       *slog.Logger
	notifier     *notifier.Notifier

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

// Config holds configuration for the UI server.
type Config struct {
	Browser *catalog.Browser
	// Finder answers date lookups. Defaults to Index when set, otherwise a
	// walk of the browser root.
	Finder        catalog.Finder
	Index         *index.Store
	Chart         chart.Options
	Host          string
	Port          int
	Watch         bool
	Dev           bool
	SessionSecret string
	Logger        *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	finder := cfg.Finder
	if finder == nil {
		if cfg.Index != nil {
			finder = cfg.Index
		} else {
			finder = catalog.NewWalkFinder(cfg.Browser.Root())
		}
	}

	return &Server{
		browser:      cfg.Browser,
		finder:       finder,
		index:        cfg.Index,
		chart:        cfg.Chart,
		sessionStore: sessionStore,
		host:         cfg.Host,
		port:         cfg.Port,
		watch:        cfg.Watch,
		dev:          cfg.Dev,
		logger:       logger,
		notifier:     notifier.New(),
		pending:      make(map[string]struct{}),
	}
}

// Handler builds the router with middleware and all feature routes.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.browser, s.finder, s.chart, s.sessionStore, s.notifier, s.dev); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))
	s.logger.Info("starting UI server", "addr", "http://"+addr, "root", s.browser.Root())

	eg, egctx := errgroup.WithContext(ctx)

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// IsDev returns true if running in development mode.
func (s *Server) IsDev() bool {
	return s.dev
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchFiles watches the data root and keeps the index and open pages current.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, s.browser.Root()); err != nil {
		s.logger.Error("failed to watch data root", "error", err)
		// Don't fail - continue without watching
	}

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.timer != nil {
				s.timer.Stop()
			}
			s.mu.Unlock()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if s.applyEvent(ctx, watcher, event) {
				s.schedule()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// applyEvent updates the watch list and the index for one event and records
// the directory whose listing changed. It reports whether anything was recorded.
func (s *Server) applyEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	dir := filepath.Dir(event.Name)

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return false
		}
		if info.IsDir() {
			if err := watchDirRecursive(watcher, event.Name); err != nil {
				s.logger.Warn("failed to watch directory", "path", event.Name, "error", err)
			}
			s.indexTree(ctx, event.Name)
			s.markChanged(dir)
			return true
		}
		if filepath.Ext(event.Name) != catalog.Extension {
			return false
		}
		s.indexFile(ctx, event.Name)

	case event.Has(fsnotify.Write):
		if filepath.Ext(event.Name) != catalog.Extension {
			return false
		}
		s.indexFile(ctx, event.Name)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if s.index != nil {
			if _, err := s.index.Remove(ctx, event.Name); err != nil {
				s.logger.Warn("failed to remove from index", "path", event.Name, "error", err)
			}
		}
		// A removed directory has nothing left to show either.
		s.markChanged(event.Name)

	default:
		return false
	}

	s.markChanged(dir)
	return true
}

func (s *Server) indexFile(ctx context.Context, path string) {
	if s.index == nil {
		return
	}
	if _, err := s.index.Upsert(ctx, filepath.Dir(path), filepath.Base(path)); err != nil {
		s.logger.Warn("failed to index file", "path", path, "error", err)
	}
}

func (s *Server) indexTree(ctx context.Context, root string) {
	if s.index == nil {
		return
	}
	err := catalog.Walk(ctx, root, func(dir, name string) error {
		_, err := s.index.Upsert(ctx, dir, name)
		return err
	})
	if err != nil {
		s.logger.Warn("failed to index directory", "path", root, "error", err)
	}
}

func (s *Server) markChanged(dir string) {
	s.mu.Lock()
	s.pending[dir] = struct{}{}
	s.mu.Unlock()
}

// schedule (re)starts the debounce timer.
func (s *Server) schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(debounce, s.flush)
}

// flush notifies listeners of every directory changed since the last flush.
func (s *Server) flush() {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string]struct{})
	s.mu.Unlock()

	for dir := range pending {
		s.logger.Debug("directory changed", "dir", dir)
		s.notifier.Broadcast(dir)
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
