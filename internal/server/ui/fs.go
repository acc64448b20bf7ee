// Package ui embeds the browser frontend served at the web root.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var content embed.FS

// Handler returns an http.Handler serving the embedded UI files.
// The "static" prefix is stripped so index.html sits at the web root.
func Handler() http.Handler {
	fsys, err := fs.Sub(content, "static")
	if err != nil {
		panic(err) // Should never happen with embed
	}
	return http.FileServer(http.FS(fsys))
}
