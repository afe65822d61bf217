// Package router sets up HTTP routes for the UI server.
package router

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/ionoview/internal/catalog"
	"github.com/leapstack-labs/ionoview/internal/chart"
	browseFeature "github.com/leapstack-labs/ionoview/internal/ui/features/browse"
	lookupFeature "github.com/leapstack-labs/ionoview/internal/ui/features/lookup"
	"github.com/leapstack-labs/ionoview/internal/ui/notifier"
	"github.com/leapstack-labs/ionoview/internal/ui/resources"
)

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(
	router chi.Router,
	browser *catalog.Browser,
	finder catalog.Finder,
	chartOpts chart.Options,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	isDev bool,
) error {
	// Hot reload endpoint for dev mode
	if isDev {
		setupReload(router)
	}

	router.Handle("/static/*", resources.Handler())

	if err := browseFeature.SetupRoutes(router, browser, chartOpts, sessionStore, notify, isDev); err != nil {
		return err
	}

	sequencer := lookupFeature.NewSequencer(lookupFeature.DefaultIdleTimeout)
	if err := lookupFeature.SetupRoutes(router, finder, sequencer); err != nil {
		return err
	}

	return nil
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
