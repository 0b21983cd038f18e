// Package pages — человекочитаемая страница выдачи /f/{id}.
// Тонкая обёртка над retrieve: вся логика living/vanished остаётся в ядре.
package pages

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/EgorLis/filedrop/internal/domain"
	"github.com/EgorLis/filedrop/internal/transport/web/logx"
	"github.com/EgorLis/filedrop/internal/transport/web/mw"
)

//go:embed templates/*.html
var templateFS embed.FS

type Describer interface {
	Describe(ctx context.Context, id string) (domain.FileInfo, error)
}

type Handler struct {
	Log   *log.Logger
	Files Describer

	tmpl *template.Template
}

func New(logger *log.Logger, files Describer) *Handler {
	return &Handler{
		Log:   logger,
		Files: files,
		tmpl:  template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// File: GET /f/{id} — посадочная страница скачивания.
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	const op = "pages.file"
	reqID := mw.RequestIDFromCtx(r.Context())

	id := r.PathValue("id")
	info, err := h.Files.Describe(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "describe failed", err, "id", id)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_ = h.tmpl.ExecuteTemplate(w, "notfound.html", nil)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := h.tmpl.ExecuteTemplate(w, "file.html", info); err != nil {
		logx.Error(h.Log, reqID, op, "render failed", err, "id", id)
	}
}
