package sweep

import (
	"context"
	"log"
	"time"

	"github.com/EgorLis/filedrop/internal/domain"
	"github.com/EgorLis/filedrop/internal/metrics"
	"github.com/EgorLis/filedrop/internal/registry"
)

// Sweeper — единственный писатель, удаляющий записи по возрасту.
// Каждый прогон — один Update реестра: просроченные блобы удаляются
// best-effort, документ переписывается только если что-то было убрано.
type Sweeper struct {
	blobs    domain.BlobStore
	registry *registry.Registry
	ttl      time.Duration
	interval time.Duration
	logger   *log.Logger
}

func New(blobs domain.BlobStore, reg *registry.Registry, ttl, interval time.Duration, logger *log.Logger) *Sweeper {
	return &Sweeper{blobs: blobs, registry: reg, ttl: ttl, interval: interval, logger: logger}
}

// Start крутит периодический цикл до отмены ctx. Ошибки прогона только
// логируются: следующий тик попробует снова, процесс не падает.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Printf("started, ttl=%s interval=%s", s.ttl, s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Println("stopped")
			return
		case <-ticker.C:
			// начатый прогон всегда доводится до конца
			if err := s.RunOnce(context.WithoutCancel(ctx)); err != nil {
				s.logger.Printf("sweep failed: %v", err)
			}
		}
	}
}

// RunOnce выполняет один прогон. Идемпотентен: без новых истечений
// повторный запуск ничего не меняет.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	removed := 0
	err := s.registry.Update(ctx, func(records []domain.BlobRecord) ([]domain.BlobRecord, bool, error) {
		now := time.Now().UTC()
		live := make([]domain.BlobRecord, 0, len(records))
		for _, rec := range records {
			if !rec.Expired(now, s.ttl) {
				live = append(live, rec)
				continue
			}
			// отсутствие блоба на этом этапе — не ошибка
			if err := s.blobs.Delete(ctx, rec.StoredName); err != nil {
				s.logger.Printf("delete expired blob %q: %v", rec.StoredName, err)
			}
			removed++
		}
		return live, removed > 0, nil
	})
	if err != nil {
		return err
	}

	metrics.SweepRunsTotal.Inc()
	if removed > 0 {
		metrics.RecordsExpiredTotal.Add(float64(removed))
		s.logger.Printf("removed %d expired record(s)", removed)
	}
	return nil
}
