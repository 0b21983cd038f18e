package domain

import (
	"context"
	"io"
)

// BlobWriter — эксклюзивная цель записи одного блоба.
// До Commit блоб не виден читателям; Discard убирает частичную запись.
type BlobWriter interface {
	io.Writer
	Commit() error
	Discard() error
}

// Репозиторий блобов (локальный диск или S3/MinIO).
// Ключ — storedName записи; разные ключи не требуют взаимной синхронизации.
type BlobStore interface {
	Create(ctx context.Context, storedName string) (BlobWriter, error)
	// Open возвращает поток чтения и размер блоба.
	Open(ctx context.Context, storedName string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, storedName string) error
	Exists(ctx context.Context, storedName string) (bool, error)
}
