package archive

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func newTestBlobStorage(t *testing.T, prefix string) *BlobStorage {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	s := NewBlobStorageFromBucket(bucket, prefix)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_WriteOverwrite(t *testing.T) {
	for name, storage := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, storage.Write(ctx, "zk1.zk.json", []byte("original")))
			require.NoError(t, storage.Write(ctx, "zk1.zk.json", []byte("updated")))

			data, err := storage.Read(ctx, "zk1.zk.json")
			require.NoError(t, err)
			assert.Equal(t, []byte("updated"), data)
		})
	}
}

func TestStorage_ReadNotFound(t *testing.T) {
	for name, storage := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			_, err := storage.Read(context.Background(), "nonexistent")
			require.Error(t, err)
			assert.True(t, errors.Is(err, os.ErrNotExist))
		})
	}
}

func TestStorage_List(t *testing.T) {
	for name, storage := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, key := range []string{"prefix-a", "prefix-c", "prefix-b", "other-key"} {
				require.NoError(t, storage.Write(ctx, key, []byte(key)))
			}

			keys, err := storage.List(ctx, "prefix-")
			require.NoError(t, err)
			assert.Equal(t, []string{"prefix-c", "prefix-b", "prefix-a"}, keys)

			keys, err = storage.List(ctx, "nonexistent-")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestStorage_Delete(t *testing.T) {
	for name, storage := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, storage.Write(ctx, "zk1.zk.json", []byte("data")))
			require.NoError(t, storage.Delete(ctx, "zk1.zk.json"))

			_, err := storage.Read(ctx, "zk1.zk.json")
			assert.True(t, errors.Is(err, os.ErrNotExist))

			// idempotent
			require.NoError(t, storage.Delete(ctx, "zk1.zk.json"))
		})
	}
}

func TestStorage_Concurrent(t *testing.T) {
	for name, storage := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = storage.Write(ctx, "concurrent.zk.json", []byte("data"))
					_, _ = storage.Read(ctx, "concurrent.zk.json")
					_, _ = storage.List(ctx, "concurrent")
				}()
			}
			wg.Wait()

			data, err := storage.Read(ctx, "concurrent.zk.json")
			require.NoError(t, err)
			assert.Equal(t, []byte("data"), data)
		})
	}
}

func TestFilesystemStorage_Location(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFilesystemStorage(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "zk1.zk.json"), storage.Location("zk1.zk.json"))
}

func TestFilesystemStorage_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dumps")
	storage, err := NewFilesystemStorage(dir)
	require.NoError(t, err)
	require.NoError(t, storage.Write(context.Background(), "zk1.zk.json", []byte("{}")))

	_, err = os.Stat(filepath.Join(dir, "zk1.zk.json"))
	require.NoError(t, err)
}
