// Package views holds the HTML templates rendered by the server.
package views

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed layouts admin *.html
var FS embed.FS

// Layout wraps every page.
const Layout = "layouts/main"

// NewEngine returns a template engine reading from the embedded files.
func NewEngine() *html.Engine {
	return html.NewFileSystem(http.FS(FS), ".html")
}
