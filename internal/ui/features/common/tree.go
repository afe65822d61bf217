package common

import "strings"

// Breadcrumbs splits a slash separated path into cumulative crumbs.
// e.g., "/data/vs" -> [{/ /} {data /data} {vs /data/vs}]
func Breadcrumbs(path string) []Crumb {
	if path == "" {
		return nil
	}

	var crumbs []Crumb
	prefix := ""
	if strings.HasPrefix(path, "/") {
		crumbs = append(crumbs, Crumb{Name: "/", Path: "/"})
		prefix = "/"
	}

	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		if prefix == "" {
			prefix = part
		} else {
			prefix = JoinPath(prefix, part)
		}
		crumbs = append(crumbs, Crumb{Name: part, Path: prefix})
	}
	return crumbs
}
