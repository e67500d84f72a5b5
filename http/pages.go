package http

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages renders the built-in HTML surface: landing, login, manager, logout
// and the 404 page. Everything is embedded; there is no on-disk asset dir.
type pages struct {
	t *template.Template
}

func newPages() *pages {
	return &pages{
		t: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

func (p *pages) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.t.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("failed to render page", "page", name, "error", err)
	}
}

func (p *pages) landing(w http.ResponseWriter) {
	p.render(w, http.StatusOK, "landing.html", nil)
}

func (p *pages) login(w http.ResponseWriter, mode AuthMode) {
	p.render(w, http.StatusOK, "login.html", map[string]any{
		"TokenMode": mode == ModeToken,
	})
}

func (p *pages) manage(w http.ResponseWriter, acceptTypes string, mode AuthMode) {
	p.render(w, http.StatusOK, "manage.html", map[string]any{
		"AcceptTypes": acceptTypes,
		"TokenMode":   mode == ModeToken,
	})
}

func (p *pages) logout(w http.ResponseWriter) {
	p.render(w, http.StatusOK, "logout.html", nil)
}

func (p *pages) notFound(w http.ResponseWriter, path string) {
	p.render(w, http.StatusNotFound, "notfound.html", map[string]any{
		"Path": path,
	})
}
