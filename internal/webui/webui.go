// Package webui provides the embedded upload page for the pngs2apng HTTP
// service.
package webui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFS embed.FS

// StaticFS returns an http.FileSystem for the embedded static files.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// static/ is embedded at build time
		panic(err)
	}
	return http.FS(sub)
}

// Index returns the upload page.
func Index() ([]byte, error) {
	return staticFS.ReadFile("static/index.html")
}
