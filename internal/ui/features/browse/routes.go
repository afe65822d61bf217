package browse

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/ionoview/internal/catalog"
	"github.com/leapstack-labs/ionoview/internal/chart"
	"github.com/leapstack-labs/ionoview/internal/ui/notifier"
)

// SetupRoutes configures routes for the browse feature.
func SetupRoutes(
	router chi.Router,
	browser *catalog.Browser,
	chartOpts chart.Options,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	isDev bool,
) error {
	handlers := NewHandlers(browser, chartOpts, sessionStore, notify, isDev)

	router.Get("/", handlers.BrowsePage)
	router.Get("/updates", handlers.BrowseUpdates)

	return nil
}
