package domain

import "context"

// Хранилище метаданных: один цельный документ со всеми записями.
// Частичных обновлений нет — любая мутация это load -> mutate -> save,
// и выполняется она только под замком реестра (internal/registry).
type MetaStore interface {
	// Load возвращает все записи; отсутствующий или битый документ — пустая коллекция.
	Load(ctx context.Context) ([]BlobRecord, error)
	// Save полностью переписывает документ. Ошибка — ErrMetaPersist.
	Save(ctx context.Context, records []BlobRecord) error
}
