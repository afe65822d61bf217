// Package common provides shared types and utilities for UI features.
package common

import (
	"net/url"
	"strings"
)

var queryUnescaper = strings.NewReplacer("%2F", "/", "%3A", ":")

// QueryValue escapes s for use in a query string, keeping '/' and ':' literal
// so plain paths read as written.
func QueryValue(s string) string {
	return queryUnescaper.Replace(url.QueryEscape(s))
}

// DirURL returns the browse link of a directory.
func DirURL(path string) string {
	return "?path=" + QueryValue(path)
}

// FileURL returns the browse link of a file inside dir.
func FileURL(dir, file string) string {
	return "?path=" + QueryValue(dir) + "&file=" + QueryValue(file)
}

// JoinPath appends a child name to dir without doubling a trailing separator.
func JoinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") || strings.HasSuffix(dir, `\`) {
		return dir + name
	}
	return dir + "/" + name
}
