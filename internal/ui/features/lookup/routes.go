package lookup

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/ionoview/internal/catalog"
)

// SetupRoutes configures routes for the lookup feature.
func SetupRoutes(router chi.Router, finder catalog.Finder, sequencer *Sequencer) error {
	handlers := NewHandlers(finder, sequencer)

	router.HandleFunc("/get_files_by_date/", handlers.FilesByDate)
	router.HandleFunc("/get_files_by_date", handlers.FilesByDate)
	router.Get("/lookup", handlers.LookupSSE)

	return nil
}
