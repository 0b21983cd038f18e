package file

import (
	"context"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/EgorLis/filedrop/internal/domain"
	"github.com/EgorLis/filedrop/internal/transport/web/logx"
	"github.com/EgorLis/filedrop/internal/transport/web/mw"
	v1 "github.com/EgorLis/filedrop/internal/transport/web/v1"
)

type Retriever interface {
	Describe(ctx context.Context, id string) (domain.FileInfo, error)
	Fetch(ctx context.Context, id string) (io.ReadCloser, int64, domain.BlobRecord, error)
}

type Handler struct {
	Log   *log.Logger
	Files Retriever
}

// Info отдаёт метаданные записи: GET /api/info/{id}
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	const op = "file.info"
	reqID := mw.RequestIDFromCtx(r.Context())

	id := r.PathValue("id")
	info, err := h.Files.Describe(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "describe failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "id", id, "downloads", info.Downloads)
	v1.WriteJSON(w, r, http.StatusOK, info)
}

// Download стримит блоб: GET /api/download/{id}.
// Исходное имя файла идёт в Content-Disposition как предлагаемое имя
// сохранения; скачивание засчитано внутри Fetch.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	const op = "file.download"
	reqID := mw.RequestIDFromCtx(r.Context())

	id := r.PathValue("id")
	rc, size, rec, err := h.Files.Fetch(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "fetch failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": rec.OriginalName})
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		// ответ уже начат; остаётся только залогировать
		logx.Error(h.Log, reqID, op, "stream interrupted", err, "id", id)
		return
	}
	logx.Info(h.Log, reqID, op, "served", "id", id, "bytes", size, "downloads", rec.Downloads)
}
