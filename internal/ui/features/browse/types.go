// Package browse provides the ionogram directory browser.
package browse

import "github.com/leapstack-labs/ionoview/internal/ui/features/browse/components"

// BrowseContext is re-exported for handlers and tests.
type BrowseContext = components.BrowseContext

// SessionName is the cookie session used by the browser.
const SessionName = "ionoview"

// sessionPathKey stores the last browsed directory.
const sessionPathKey = "path"

func ptr(s string) *string {
	return &s
}
