package web

import (
	"embed"
	"io/fs"
	"net/http"
)

// Assets compiled into the binary and served below /static/.
//
//go:embed static
var staticAssets embed.FS

// StaticFileServer serves the embedded static assets.
func StaticFileServer() http.Handler {
	assets, _ := fs.Sub(staticAssets, "static")
	return http.FileServer(http.FS(assets))
}
