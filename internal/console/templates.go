// ABOUTME: Template rendering for the web console
// ABOUTME: Loads pages from the embedded filesystem over a shared base layout

package console

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// render executes a page template over the base layout.
func (c *Console) render(w http.ResponseWriter, page string, data any) {
	tmpl, err := template.ParseFS(templateFS,
		"templates/base.html",
		"templates/"+page,
	)
	if err != nil {
		c.logger.Error("failed to parse template", "page", page, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		c.logger.Error("failed to render template", "page", page, "error", err)
	}
}
