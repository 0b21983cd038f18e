package registry

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/EgorLis/filedrop/internal/domain"
)

// Registry сериализует весь доступ к документу метаданных.
//
// Цикл load -> mutate -> save не атомарен сам по себе: два параллельных
// инкремента счётчика скачиваний прочитали бы одно и то же значение и один
// из них потерялся бы. Поэтому каждый цикл целиком выполняется под одним
// мьютексом — и для регистрации загрузки, и для инкремента, и для свипера.
type Registry struct {
	mu     sync.Mutex
	store  domain.MetaStore
	logger *log.Logger
}

func New(store domain.MetaStore, logger *log.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// View выполняет fn над свежезагруженной коллекцией без сохранения.
func (r *Registry) View(ctx context.Context, fn func(records []domain.BlobRecord) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	return fn(records)
}

// Update — единица мутации: load, fn, save. Save выполняется только если
// fn вернула changed=true (свипер без просроченных записей — no-op).
func (r *Registry) Update(ctx context.Context, fn func(records []domain.BlobRecord) (out []domain.BlobRecord, changed bool, err error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	out, changed, err := fn(records)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return r.store.Save(ctx, out)
}

// Ping — проверка для readiness: документ метаданных читается.
func (r *Registry) Ping(ctx context.Context) error {
	return r.View(ctx, func([]domain.BlobRecord) error { return nil })
}

// Append регистрирует новую запись.
func (r *Registry) Append(ctx context.Context, rec domain.BlobRecord) error {
	return r.Update(ctx, func(records []domain.BlobRecord) ([]domain.BlobRecord, bool, error) {
		return append(records, rec), true, nil
	})
}

// Find возвращает запись по id; domain.ErrNotFound если её нет.
func (r *Registry) Find(ctx context.Context, id string) (domain.BlobRecord, error) {
	var found domain.BlobRecord
	err := r.View(ctx, func(records []domain.BlobRecord) error {
		for _, rec := range records {
			if rec.ID == id {
				found = rec
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return found, err
}

// Remove убирает запись по id. Отсутствие записи — не ошибка.
func (r *Registry) Remove(ctx context.Context, id string) error {
	return r.Update(ctx, func(records []domain.BlobRecord) ([]domain.BlobRecord, bool, error) {
		for i, rec := range records {
			if rec.ID == id {
				return append(records[:i], records[i+1:]...), true, nil
			}
		}
		return records, false, nil
	})
}

// IncrementDownloads увеличивает счётчик на единицу и возвращает обновлённую
// запись. При ошибке сохранения цикл повторяется один раз (см. §обработка
// ошибок: повторная неудача — уже 500 на уровне транспорта).
func (r *Registry) IncrementDownloads(ctx context.Context, id string) (domain.BlobRecord, error) {
	var updated domain.BlobRecord
	incr := func() error {
		return r.Update(ctx, func(records []domain.BlobRecord) ([]domain.BlobRecord, bool, error) {
			for i := range records {
				if records[i].ID == id {
					records[i].Downloads++
					updated = records[i]
					return records, true, nil
				}
			}
			return records, false, domain.ErrNotFound
		})
	}

	err := incr()
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Printf("increment downloads for %s failed, retrying once: %v", id, err)
		err = incr()
	}
	if err != nil {
		return domain.BlobRecord{}, err
	}
	return updated, nil
}
