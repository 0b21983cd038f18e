package web

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EgorLis/filedrop/internal/transport/web/mw"
	"github.com/EgorLis/filedrop/internal/transport/web/pages"
	"github.com/EgorLis/filedrop/internal/transport/web/v1/file"
	"github.com/EgorLis/filedrop/internal/transport/web/v1/health"
	"github.com/EgorLis/filedrop/internal/transport/web/v1/upload"
)

func newRouter(uh *upload.Handler, fh *file.Handler, ph *pages.Handler, hh *health.Handler, maxUpload int64, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /healthz", hh.Liveness)
	mux.HandleFunc("GET /readyz", hh.Readiness)

	// api
	mux.HandleFunc("POST /upload", limitBody(maxUpload, uh.Upload))
	mux.HandleFunc("GET /api/info/{id}", fh.Info)
	mux.HandleFunc("GET /api/download/{id}", fh.Download)

	// посадочная страница
	mux.HandleFunc("GET /f/{id}", ph.File)

	// metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// 🔗 middleware
	return mw.WithRequestID(mw.Logging(logger)(mux))
}

func limitBody(n int64, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		h(w, r)
	}
}
