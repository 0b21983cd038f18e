package health

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/EgorLis/filedrop/internal/domain"
	"github.com/EgorLis/filedrop/internal/transport/web/logx"
	"github.com/EgorLis/filedrop/internal/transport/web/mw"
	v1 "github.com/EgorLis/filedrop/internal/transport/web/v1"
)

type Pinger interface {
	Ping(context.Context) error
}

type Handler struct {
	Log   *log.Logger
	Index Pinger
}

// Liveness: жив ли процесс, без обращения к хранилищам.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	const op = "health.liveness"
	reqID := mw.RequestIDFromCtx(r.Context())

	logx.Info(h.Log, reqID, op, "ok")
	v1.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness: документ метаданных читается.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	const op = "health.readiness"
	reqID := mw.RequestIDFromCtx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Index.Ping(ctx); err != nil {
		logx.Error(h.Log, reqID, op, "index ping failed", err)
		v1.WriteDomainError(w, r, domain.ErrMetaPersist)
		return
	}

	logx.Info(h.Log, reqID, op, "ready")
	v1.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
