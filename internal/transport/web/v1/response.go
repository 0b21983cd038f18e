package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/EgorLis/filedrop/internal/domain"
	"github.com/EgorLis/filedrop/internal/transport/web/mw"
)

// ErrorBody — клиентский формат ошибки: {"error": "..."}
type ErrorBody struct {
	Error string `json:"error"`
}

// MapDomainError решает HTTP-статус + текст ошибки для клиента
func MapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMalformedUpload):
		return http.StatusBadRequest, "malformed upload"
	case errors.Is(err, domain.ErrNoFile):
		return http.StatusBadRequest, "no file provided"
	case errors.Is(err, domain.ErrSizeLimit):
		return http.StatusBadRequest, "file too large"
	case errors.Is(err, domain.ErrUploadTimeout):
		return http.StatusRequestTimeout, "upload timed out"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrMetaPersist):
		return http.StatusInternalServerError, "metadata persistence failed"
	case errors.Is(err, domain.ErrBlobIO):
		return http.StatusInternalServerError, "storage failure"
	default:
		return http.StatusInternalServerError, "unexpected error"
	}
}

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", mw.RequestIDFromCtx(r.Context()))
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, ErrorBody{Error: msg})
}

func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := MapDomainError(err)
	WriteError(w, r, status, msg)
}
