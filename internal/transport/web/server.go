package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/EgorLis/filedrop/internal/config"
	"github.com/EgorLis/filedrop/internal/transport/web/pages"
	"github.com/EgorLis/filedrop/internal/transport/web/v1/file"
	"github.com/EgorLis/filedrop/internal/transport/web/v1/health"
	"github.com/EgorLis/filedrop/internal/transport/web/v1/upload"
)

type Server struct {
	log    *log.Logger
	server *http.Server
	cfg    *config.Config
}

func New(logger *log.Logger, cfg *config.Config, engine upload.Ingester, files file.Retriever, index health.Pinger) *Server {
	uploadLog := log.New(logger.Writer(), logger.Prefix()+"[upload] ", logger.Flags())
	fileLog := log.New(logger.Writer(), logger.Prefix()+"[file] ", logger.Flags())
	pagesLog := log.New(logger.Writer(), logger.Prefix()+"[pages] ", logger.Flags())
	healthLog := log.New(logger.Writer(), logger.Prefix()+"[health] ", logger.Flags())

	uploadHandler := &upload.Handler{Log: uploadLog, Engine: engine, Timeout: cfg.UploadTimeout}
	fileHandler := &file.Handler{Log: fileLog, Files: files}
	pagesHandler := pages.New(pagesLog, files)
	healthHandler := &health.Handler{Log: healthLog, Index: index}

	srv := &http.Server{
		Addr:    cfg.AppPort,
		Handler: newRouter(uploadHandler, fileHandler, pagesHandler, healthHandler, cfg.MaxUploadBytes, logger),
		// ReadTimeout не ставим: дедлайн загрузки per-request
		// (см. upload.Handler), а WriteTimeout убил бы стриминг
		// больших скачиваний.
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

func (ws *Server) Run() {
	ws.log.Printf("started on %s", ws.server.Addr)
	if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ws.log.Fatalf("error: %v", err)
	}
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Printf("forced to shutdown: %v", err)
	}
	ws.log.Println("exited gracefully")
}
