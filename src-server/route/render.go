package route

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// every page is parsed together with base.html so each can define its own
// "title" and "content"
var pages = func() map[string]*template.Template {
	pages := make(map[string]*template.Template)
	for _, name := range []string{
		"index",
		"checkin",
		"admin_login",
		"admin",
		"upload",
		"mobile_checkin",
		"qr_display",
		"qr_scanner",
		"error",
	} {
		pages[name] = template.Must(template.ParseFS(templateFS,
			"templates/base.html",
			"templates/"+name+".html",
		))
	}
	return pages
}()

// Embedded by every page view so base.html can show the flash notice.
type PageData struct {
	Flash *Flash
}

type ErrorPage struct {
	PageData
	Title   string
	Message string
}

func render(w http.ResponseWriter, status int, name string, data any) {
	page, ok := pages[name]
	if !ok {
		slog.Error("unknown page", "where", "route/render.go", "page", name)
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}

	// render into a buffer first so a template error doesn't leave half a page
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "base", data); err != nil {
		slog.Error("can't render page", "where", "route/render.go", "page", name, "error", err)
		http.Error(w, "can't render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("can't write page", "where", "route/render.go", "page", name, "error", err)
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	render(w, status, "error", ErrorPage{
		PageData: PageData{Flash: popFlash(w, r)},
		Title:    title,
		Message:  message,
	})
}
