package catalog

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// WalkFunc is called for every recording found by Walk.
type WalkFunc func(dir, name string) error

// Walk visits every recording below root in lexical order. Unreadable
// directories are skipped.
func Walk(ctx context.Context, root string, fn WalkFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), Extension) {
			return nil
		}
		return fn(filepath.Dir(path), d.Name())
	})
}

// SortWalkOrder sorts files into the order Walk visits them. Paths are
// compared segment by segment, so "a/x.dat" sorts before "a-b/x.dat".
func SortWalkOrder(files []DateFileEntry) {
	slices.SortStableFunc(files, func(a, b DateFileEntry) int {
		return slices.Compare(pathSegments(a), pathSegments(b))
	})
}

func pathSegments(e DateFileEntry) []string {
	return strings.Split(filepath.ToSlash(filepath.Join(e.Path, e.FileName)), "/")
}

// WalkFinder answers date lookups by walking the search root on every call.
type WalkFinder struct {
	root string
}

// NewWalkFinder creates a WalkFinder rooted at root.
func NewWalkFinder(root string) *WalkFinder {
	return &WalkFinder{root: root}
}

// FilesByDate implements Finder.
func (f *WalkFinder) FilesByDate(ctx context.Context, date time.Time) ([]DateFileEntry, error) {
	files := []DateFileEntry{}
	err := Walk(ctx, f.root, func(dir, name string) error {
		if MatchesDate(name, date) {
			files = append(files, DateFileEntry{FileName: name, Path: dir})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
