// Package components renders the ionogram browser view.
package components

// BrowseContext is everything the browser view shows. Nil pointers are absent values.
type BrowseContext struct {
	CurrentPath      string
	ParentPath       *string
	Subdirectories   []string
	MatchingFiles    []string
	SelectedFile     *string
	ChartMarkup      *string
	MetadataText     *string
	NoiseChartMarkup *string
	ErrorText        *string
}

// ViewID is the element replaced by live updates.
const ViewID = "browse-view"

// PlaceholderText is shown when no chart is available.
const PlaceholderText = "Select a file to view its ionogram"
