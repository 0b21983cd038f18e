package upload

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/EgorLis/filedrop/internal/domain"
	"github.com/EgorLis/filedrop/internal/transport/web/logx"
	"github.com/EgorLis/filedrop/internal/transport/web/mw"
	v1 "github.com/EgorLis/filedrop/internal/transport/web/v1"
)

type Ingester interface {
	Ingest(ctx context.Context, contentType string, body io.Reader) (domain.BlobRecord, error)
}

type Handler struct {
	Log     *log.Logger
	Engine  Ingester
	Timeout time.Duration
}

type Response struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Link     string `json:"link"`
}

// Upload принимает multipart/form-data с одной файловой частью.
// Тело уходит в движок потоково; лимит размера навешан роутером
// через http.MaxBytesReader.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "upload"
	reqID := mw.RequestIDFromCtx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	// дедлайн чтения на соединении: стопорящийся клиент не подвесит запрос
	rc := http.NewResponseController(w)
	if err := rc.SetReadDeadline(time.Now().Add(h.Timeout)); err != nil {
		logx.Error(h.Log, reqID, op, "set read deadline", err)
	}

	rec, err := h.Engine.Ingest(ctx, r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		logx.Error(h.Log, reqID, op, "ingest failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "stored", "id", rec.ID, "name", rec.OriginalName)
	v1.WriteJSON(w, r, http.StatusOK, Response{
		ID:       rec.ID,
		Filename: rec.OriginalName,
		Link:     "/f/" + rec.ID,
	})
}
