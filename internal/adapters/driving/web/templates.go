package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// pages holds the parsed page templates. Each page pulls in the shared
// head and foot partials from layout.html.
var pages = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

// staticRoot exposes the embedded app assets for the /static route.
func staticRoot() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
