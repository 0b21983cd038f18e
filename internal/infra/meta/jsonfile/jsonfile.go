package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/EgorLis/filedrop/internal/domain"
)

// Store — хранилище метаданных: один JSON-документ на диске.
// Документ всегда читается и переписывается целиком; атомарность
// перезаписи — через временный файл и rename.
type Store struct {
	path   string
	logger *log.Logger
}

func New(path string, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create meta dir: %w", err)
	}
	return &Store{path: path, logger: logger}, nil
}

// Load читает документ целиком. Отсутствующий или битый документ —
// это пустая коллекция, а не ошибка: индекс восстановится по мере работы.
func (s *Store) Load(ctx context.Context) ([]domain.BlobRecord, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.BlobRecord{}, nil
		}
		return nil, fmt.Errorf("%w: read %q: %v", domain.ErrMetaPersist, s.path, err)
	}
	var records []domain.BlobRecord
	if err := json.Unmarshal(b, &records); err != nil {
		s.logger.Printf("corrupt metadata document %q, starting empty: %v", s.path, err)
		return []domain.BlobRecord{}, nil
	}
	return records, nil
}

func (s *Store) Save(ctx context.Context, records []domain.BlobRecord) error {
	if records == nil {
		records = []domain.BlobRecord{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", domain.ErrMetaPersist, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".meta-*")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", domain.ErrMetaPersist, err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: write: %v", domain.ErrMetaPersist, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: close: %v", domain.ErrMetaPersist, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: rename: %v", domain.ErrMetaPersist, err)
	}
	return nil
}
