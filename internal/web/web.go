package web

import (
	"embed"
	"io/fs"
	"net/http"

	html "github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var files embed.FS

// Engine returns the view engine over the embedded shell templates.
func Engine() *html.Engine {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}
