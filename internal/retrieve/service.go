package retrieve

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/EgorLis/filedrop/internal/domain"
	"github.com/EgorLis/filedrop/internal/metrics"
	"github.com/EgorLis/filedrop/internal/registry"
)

// Service отвечает за выдачу файлов: describe и fetch.
// Расхождение индекса с репозиторием (запись есть, блоба нет) — не сбой,
// а самолечащаяся аномалия: запись тихо убирается, клиент получает 404.
type Service struct {
	blobs    domain.BlobStore
	registry *registry.Registry
	ttl      time.Duration
	logger   *log.Logger
}

func New(blobs domain.BlobStore, reg *registry.Registry, ttl time.Duration, logger *log.Logger) *Service {
	return &Service{blobs: blobs, registry: reg, ttl: ttl, logger: logger}
}

// Describe возвращает метаданные записи вместе с вычисленным сроком жизни.
func (s *Service) Describe(ctx context.Context, id string) (domain.FileInfo, error) {
	rec, err := s.registry.Find(ctx, id)
	if err != nil {
		return domain.FileInfo{}, err
	}
	ok, err := s.blobs.Exists(ctx, rec.StoredName)
	if err != nil {
		return domain.FileInfo{}, err
	}
	if !ok {
		s.heal(ctx, rec)
		return domain.FileInfo{}, domain.ErrNotFound
	}
	return domain.NewFileInfo(rec, s.ttl), nil
}

// Fetch отдаёт поток блоба и атомарно фиксирует скачивание.
// Счётчик точен при параллельных запросах: инкремент идёт через реестр.
func (s *Service) Fetch(ctx context.Context, id string) (io.ReadCloser, int64, domain.BlobRecord, error) {
	rec, err := s.registry.Find(ctx, id)
	if err != nil {
		return nil, 0, domain.BlobRecord{}, err
	}
	ok, err := s.blobs.Exists(ctx, rec.StoredName)
	if err != nil {
		return nil, 0, domain.BlobRecord{}, err
	}
	if !ok {
		s.heal(ctx, rec)
		return nil, 0, domain.BlobRecord{}, domain.ErrNotFound
	}

	rec, err = s.registry.IncrementDownloads(ctx, id)
	if err != nil {
		return nil, 0, domain.BlobRecord{}, err
	}

	rc, size, err := s.blobs.Open(ctx, rec.StoredName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// блоб исчез между проверкой и открытием (например, свипер)
			s.heal(ctx, rec)
			return nil, 0, domain.BlobRecord{}, domain.ErrNotFound
		}
		return nil, 0, domain.BlobRecord{}, err
	}

	metrics.DownloadsTotal.Inc()
	return rc, size, rec, nil
}

func (s *Service) heal(ctx context.Context, rec domain.BlobRecord) {
	s.logger.Printf("blob %q missing for record %s, removing record", rec.StoredName, rec.ID)
	if err := s.registry.Remove(ctx, rec.ID); err != nil {
		s.logger.Printf("self-heal remove %s failed: %v", rec.ID, err)
	}
}
