package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/EgorLis/filedrop/internal/domain"
)

const tempDirName = ".tmp"

// Store — репозиторий блобов на локальном диске: один файл на блоб.
// Запись идёт во временный файл и публикуется атомарным rename,
// поэтому частичная загрузка никогда не видна читателям.
type Store struct {
	root   string
	logger *log.Logger
}

func New(root string, logger *log.Logger) (*Store, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(root, tempDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Store{root: root, logger: logger}, nil
}

func (s *Store) Create(ctx context.Context, storedName string) (domain.BlobWriter, error) {
	tmp, err := os.CreateTemp(filepath.Join(s.root, tempDirName), "pending-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp: %v", domain.ErrBlobIO, err)
	}
	return &blobWriter{
		f:   tmp,
		dst: filepath.Join(s.root, filepath.Base(storedName)),
	}, nil
}

func (s *Store) Open(ctx context.Context, storedName string) (io.ReadCloser, int64, error) {
	f, err := os.Open(s.path(storedName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: open %q: %v", domain.ErrBlobIO, storedName, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("%w: stat %q: %v", domain.ErrBlobIO, storedName, err)
	}
	return f, st.Size(), nil
}

func (s *Store) Delete(ctx context.Context, storedName string) error {
	err := os.Remove(s.path(storedName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: delete %q: %v", domain.ErrBlobIO, storedName, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, storedName string) (bool, error) {
	_, err := os.Stat(s.path(storedName))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %q: %v", domain.ErrBlobIO, storedName, err)
	}
	return true, nil
}

// path защищает от traversal: от storedName берётся только базовое имя.
func (s *Store) path(storedName string) string {
	return filepath.Join(s.root, filepath.Base(storedName))
}

type blobWriter struct {
	f   *os.File
	dst string
}

func (w *blobWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: write: %v", domain.ErrBlobIO, err)
	}
	return n, nil
}

func (w *blobWriter) Commit() error {
	if err := w.f.Close(); err != nil {
		os.Remove(w.f.Name())
		return fmt.Errorf("%w: close: %v", domain.ErrBlobIO, err)
	}
	if err := os.Rename(w.f.Name(), w.dst); err != nil {
		os.Remove(w.f.Name())
		return fmt.Errorf("%w: rename: %v", domain.ErrBlobIO, err)
	}
	return nil
}

func (w *blobWriter) Discard() error {
	w.f.Close()
	if err := os.Remove(w.f.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: discard: %v", domain.ErrBlobIO, err)
	}
	return nil
}
