package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/EgorLis/filedrop/internal/domain"
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

// Store — репозиторий блобов поверх S3/MinIO. Альтернатива локальному диску
// (STORAGE_BACKEND=s3); семантика та же: запись идёт под временный ключ
// и публикуется копированием на итоговый только в Commit.
type Store struct {
	cl     *minio.Client
	bucket string
	logger *log.Logger
}

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &Store{cl: cl, bucket: cfg.Bucket, logger: logger}, nil
}

func (s *Store) Create(ctx context.Context, storedName string) (domain.BlobWriter, error) {
	pr, pw := io.Pipe()
	w := &blobWriter{
		store:  s,
		ctx:    ctx,
		pw:     pw,
		tmpKey: "tmp/" + storedName,
		dstKey: storedName,
		done:   make(chan error, 1),
	}
	// заливаем поток в пайп, PutObject читает с другого конца
	go func() {
		_, err := s.cl.PutObject(ctx, s.bucket, w.tmpKey, pr, -1, minio.PutObjectOptions{})
		pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

func (s *Store) Open(ctx context.Context, storedName string) (io.ReadCloser, int64, error) {
	info, err := s.cl.StatObject(ctx, s.bucket, storedName, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: stat %q: %v", domain.ErrBlobIO, storedName, err)
	}
	obj, err := s.cl.GetObject(ctx, s.bucket, storedName, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: get %q: %v", domain.ErrBlobIO, storedName, err)
	}
	return obj, info.Size, nil
}

func (s *Store) Delete(ctx context.Context, storedName string) error {
	err := s.cl.RemoveObject(ctx, s.bucket, storedName, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("%w: delete %q: %v", domain.ErrBlobIO, storedName, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, storedName string) (bool, error) {
	_, err := s.cl.StatObject(ctx, s.bucket, storedName, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %q: %v", domain.ErrBlobIO, storedName, err)
	}
	return true, nil
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
	}
	return false
}

type blobWriter struct {
	store  *Store
	ctx    context.Context
	pw     *io.PipeWriter
	tmpKey string
	dstKey string
	done   chan error
}

func (w *blobWriter) Write(p []byte) (int, error) {
	n, err := w.pw.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: write: %v", domain.ErrBlobIO, err)
	}
	return n, nil
}

func (w *blobWriter) Commit() error {
	w.pw.Close()
	if err := <-w.done; err != nil {
		return fmt.Errorf("%w: put: %v", domain.ErrBlobIO, err)
	}
	src := minio.CopySrcOptions{Bucket: w.store.bucket, Object: w.tmpKey}
	dst := minio.CopyDestOptions{Bucket: w.store.bucket, Object: w.dstKey}
	if _, err := w.store.cl.CopyObject(w.ctx, dst, src); err != nil {
		_ = w.store.cl.RemoveObject(w.ctx, w.store.bucket, w.tmpKey, minio.RemoveObjectOptions{})
		return fmt.Errorf("%w: copy: %v", domain.ErrBlobIO, err)
	}
	_ = w.store.cl.RemoveObject(w.ctx, w.store.bucket, w.tmpKey, minio.RemoveObjectOptions{})
	return nil
}

func (w *blobWriter) Discard() error {
	w.pw.CloseWithError(errors.New("discarded"))
	<-w.done
	_ = w.store.cl.RemoveObject(w.ctx, w.store.bucket, w.tmpKey, minio.RemoveObjectOptions{})
	return nil
}
