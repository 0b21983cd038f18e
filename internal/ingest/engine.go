package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/EgorLis/filedrop/internal/domain"
	"github.com/EgorLis/filedrop/internal/metrics"
	"github.com/EgorLis/filedrop/internal/registry"
)

const chunkSize = 32 << 10

// Engine — потоковый приём загрузки: байты файловой части уходят в
// репозиторий блобов по мере прихода и никогда не накапливаются целиком
// в памяти. Запись в индексе создаётся только после полного и успешного
// Commit блоба.
type Engine struct {
	blobs    domain.BlobStore
	registry *registry.Registry
	logger   *log.Logger

	// strictMeta=false — компромисс в пользу доступности: блоб уже
	// записан, его id известен, значит загрузка удалась, даже если
	// метаданные сохранить не вышло (индекс догонит при следующем load).
	strictMeta bool
}

func New(blobs domain.BlobStore, reg *registry.Registry, logger *log.Logger, strictMeta bool) *Engine {
	return &Engine{blobs: blobs, registry: reg, logger: logger, strictMeta: strictMeta}
}

// Ingest читает body чанками и прогоняет их через машину состояний разбора.
// Дедлайн загрузки приходит через ctx (и read-deadline на соединении,
// который выставляет транспорт); по его истечении частичная запись
// уничтожается и возвращается ErrUploadTimeout.
func (e *Engine) Ingest(ctx context.Context, contentType string, body io.Reader) (domain.BlobRecord, error) {
	boundary, err := parseBoundary(contentType)
	if err != nil {
		return domain.BlobRecord{}, err
	}

	var (
		rec    domain.BlobRecord
		target domain.BlobWriter
		cw     *countingWriter
	)

	p := newParser(boundary)
	p.onFileStart = func(filename string) error {
		// id выдаётся на этапе разбора заголовков: имя цели записи
		// известно до того, как записан первый байт тела
		id := uuid.NewString()
		rec = domain.BlobRecord{
			ID:           id,
			OriginalName: filename,
			StoredName:   id + filepath.Ext(filename),
		}
		w, err := e.blobs.Create(ctx, rec.StoredName)
		if err != nil {
			return err
		}
		target = w
		cw = &countingWriter{w: w}
		p.sink = cw
		return nil
	}

	buf := make([]byte, chunkSize)
	for p.state != terminated {
		if ctx.Err() != nil {
			return domain.BlobRecord{}, e.abort(target, domain.ErrUploadTimeout)
		}
		n, rerr := body.Read(buf)
		if n > 0 {
			if perr := p.feed(buf[:n]); perr != nil {
				return domain.BlobRecord{}, e.abort(target, perr)
			}
		}
		if rerr != nil && p.state != terminated {
			return domain.BlobRecord{}, e.abort(target, mapReadError(rerr, p.state))
		}
	}

	if cw == nil || cw.n == 0 {
		return domain.BlobRecord{}, e.abort(target, domain.ErrNoFile)
	}
	if err := target.Commit(); err != nil {
		return domain.BlobRecord{}, err
	}

	rec.Downloads = 0
	rec.CreatedAt = time.Now().UTC()

	// регистрация не должна сорваться из-за уже истёкшего дедлайна загрузки
	regCtx := context.WithoutCancel(ctx)
	if err := e.registry.Append(regCtx, rec); err != nil {
		if e.strictMeta {
			_ = e.blobs.Delete(regCtx, rec.StoredName)
			return domain.BlobRecord{}, err
		}
		e.logger.Printf("metadata registration failed for %s, blob kept: %v", rec.ID, err)
	}

	metrics.UploadsTotal.Inc()
	metrics.UploadBytesTotal.Add(float64(cw.n))
	return rec, nil
}

// abort закрывает и убирает частичную запись; блоб-сирота не остаётся.
func (e *Engine) abort(target domain.BlobWriter, cause error) error {
	if target != nil {
		if err := target.Discard(); err != nil {
			e.logger.Printf("discard partial blob: %v", err)
		}
	}
	return cause
}

func mapReadError(err error, state parseState) error {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return domain.ErrSizeLimit
	case errors.Is(err, os.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return domain.ErrUploadTimeout
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// поток кончился до закрывающего разделителя
		if state == awaitingHeaders {
			return domain.ErrNoFile
		}
		return fmt.Errorf("%w: body truncated before closing boundary", domain.ErrMalformedUpload)
	default:
		return fmt.Errorf("read request body: %w", err)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
