package retrieve

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EgorLis/filedrop/internal/domain"
	"github.com/EgorLis/filedrop/internal/infra/meta/jsonfile"
	"github.com/EgorLis/filedrop/internal/infra/storage/disk"
	"github.com/EgorLis/filedrop/internal/registry"
)

const testTTL = time.Hour

type testEnv struct {
	service  *Service
	blobs    *disk.Store
	registry *registry.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := log.New(io.Discard, "", 0)

	blobs, err := disk.New(filepath.Join(dir, "blobs"), logger)
	require.NoError(t, err)
	meta, err := jsonfile.New(filepath.Join(dir, "meta.json"), logger)
	require.NoError(t, err)
	reg := registry.New(meta, logger)

	return &testEnv{
		service:  New(blobs, reg, testTTL, logger),
		blobs:    blobs,
		registry: reg,
	}
}

// seed кладёт блоб и запись так, как это сделал бы движок приёма.
func (e *testEnv) seed(t *testing.T, id, name, data string) domain.BlobRecord {
	t.Helper()
	ctx := context.Background()
	rec := domain.BlobRecord{
		ID:           id,
		OriginalName: name,
		StoredName:   id + filepath.Ext(name),
		CreatedAt:    time.Now().UTC(),
	}
	w, err := e.blobs.Create(ctx, rec.StoredName)
	require.NoError(t, err)
	_, err = w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	require.NoError(t, e.registry.Append(ctx, rec))
	return rec
}

func TestDescribe(t *testing.T) {
	env := newTestEnv(t)
	rec := env.seed(t, "id1", "a.txt", "12345")

	info, err := env.service.Describe(context.Background(), "id1")
	require.NoError(t, err)
	require.Equal(t, "id1", info.ID)
	require.Equal(t, "a.txt", info.Filename)
	require.Equal(t, int64(0), info.Downloads)
	require.Equal(t, rec.CreatedAt.Add(testTTL), info.ExpiresAt)
}

func TestDescribeUnknown(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.service.Describe(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchStreamsAndCounts(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "id1", "a.txt", "12345")
	ctx := context.Background()

	rc, size, rec, err := env.service.Fetch(ctx, "id1")
	require.NoError(t, err)
	defer rc.Close()
	require.Equal(t, int64(5), size)
	require.Equal(t, "a.txt", rec.OriginalName)
	require.Equal(t, int64(1), rec.Downloads)

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "12345", string(got))

	info, err := env.service.Describe(ctx, "id1")
	require.NoError(t, err)
	require.Equal(t, int64(1), info.Downloads)
}

// N параллельных скачиваний — downloads ровно N.
func TestConcurrentFetches(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "id1", "a.txt", "content")
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			rc, _, _, err := env.service.Fetch(ctx, "id1")
			require.NoError(t, err)
			_, err = io.Copy(io.Discard, rc)
			require.NoError(t, err)
			rc.Close()
		}()
	}
	wg.Wait()

	rec, err := env.registry.Find(ctx, "id1")
	require.NoError(t, err)
	require.Equal(t, int64(n), rec.Downloads)
}

// Блоб удалён мимо сервиса: describe/fetch лечат индекс и отдают 404.
func TestMissingBlobSelfHeal(t *testing.T) {
	env := newTestEnv(t)
	rec := env.seed(t, "id1", "a.txt", "bytes")
	ctx := context.Background()

	require.NoError(t, env.blobs.Delete(ctx, rec.StoredName))

	_, _, _, err := env.service.Fetch(ctx, "id1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	// запись вычищена из документа
	_, err = env.registry.Find(ctx, "id1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMissingBlobSelfHealOnDescribe(t *testing.T) {
	env := newTestEnv(t)
	rec := env.seed(t, "id1", "a.txt", "bytes")
	ctx := context.Background()

	require.NoError(t, env.blobs.Delete(ctx, rec.StoredName))

	_, err := env.service.Describe(ctx, "id1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.registry.Find(ctx, "id1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
