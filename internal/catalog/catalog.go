// Package catalog lists ionogram directories and finds recordings by calendar date.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Extension is the file extension of ionogram recordings.
const Extension = ".dat"

// LookupDateLayout is the only accepted date format for lookups.
const LookupDateLayout = "2006-01-02"

// Sentinel errors.
var (
	ErrOutsideRoot = errors.New("path is outside the data root")
	ErrInvalidDate = errors.New("invalid date format")
)

// DateFileEntry is a recording found for a calendar date.
type DateFileEntry struct {
	FileName string `json:"file"`
	Path     string `json:"path"`
}

// Finder resolves the recordings of a calendar date.
type Finder interface {
	FilesByDate(ctx context.Context, date time.Time) ([]DateFileEntry, error)
}

// Listing is the content of one browsed directory.
type Listing struct {
	Path           string
	Parent         *string
	Subdirectories []string
	Files          []string
}

// Browser lists directories below an optional root.
type Browser struct {
	root     string
	restrict bool
}

// NewBrowser creates a Browser. When restrict is set, paths outside root are rejected
// and root has no parent.
func NewBrowser(root string, restrict bool) *Browser {
	return &Browser{root: filepath.Clean(root), restrict: restrict}
}

// Root returns the configured data root.
func (b *Browser) Root() string { return b.root }

// Resolve cleans path, falling back to the root when empty.
func (b *Browser) Resolve(path string) (string, error) {
	if path == "" {
		return b.root, nil
	}
	clean := filepath.Clean(path)
	if b.restrict && !within(b.root, clean) {
		return clean, fmt.Errorf("%s: %w", path, ErrOutsideRoot)
	}
	return clean, nil
}

// Parent returns the parent of path, or nil at the top.
func (b *Browser) Parent(path string) *string {
	if b.restrict && filepath.Clean(path) == b.root {
		return nil
	}
	parent := filepath.Dir(path)
	if parent == path {
		return nil
	}
	return &parent
}

// List reads a directory. The returned Listing always carries Path and Parent,
// even when reading fails.
func (b *Browser) List(path string) (Listing, error) {
	resolved, err := b.Resolve(path)
	listing := Listing{Path: resolved}
	if err != nil {
		return listing, err
	}
	listing.Parent = b.Parent(resolved)

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return listing, err
	}

	listing.Subdirectories = []string{}
	listing.Files = []string{}
	for _, e := range entries {
		if isDir(resolved, e) {
			listing.Subdirectories = append(listing.Subdirectories, e.Name())
			continue
		}
		if strings.HasSuffix(e.Name(), Extension) {
			listing.Files = append(listing.Files, e.Name())
		}
	}
	sort.Strings(listing.Subdirectories)
	sort.Strings(listing.Files)

	return listing, nil
}

// File returns the full path of a file inside dir, rejecting names that escape it.
func (b *Browser) File(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(dir, name), nil
}

// ParseLookupDate parses a YYYY-MM-DD date.
func ParseLookupDate(s string) (time.Time, error) {
	t, err := time.Parse(LookupDateLayout, s)
	if err != nil || len(s) != len(LookupDateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// MatchesDate reports whether a recording name (MM_DD_HH_MM_SS.dat) belongs to the
// month and day of date. The year is not encoded in recording names.
func MatchesDate(name string, date time.Time) bool {
	month, day, ok := MonthDay(name)
	return ok && month == fmt.Sprintf("%02d", int(date.Month())) && day == fmt.Sprintf("%02d", date.Day())
}

// MonthDay extracts the month and day fields of a recording name.
func MonthDay(name string) (month, day string, ok bool) {
	if strings.Count(name, "_") < 4 {
		return "", "", false
	}
	parts := strings.SplitN(name, "_", 3)
	return parts[0], parts[1], true
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func isDir(dir string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, e.Name()))
	return err == nil && info.IsDir()
}
