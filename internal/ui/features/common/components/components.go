// Package components provides shared templ components for UI features.
package components

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate -path ../../../../..
