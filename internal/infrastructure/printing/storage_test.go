package printing

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *FileSystemStorage {
	t.Helper()
	s, err := NewFileSystemStorage(&FileSystemStorageConfig{
		BasePath: t.TempDir(),
		BaseURL:  "/files/receipts/",
	})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestStorageKey(t *testing.T) {
	jobID := uuid.MustParse("6f1c2c7e-2d4b-4f6e-9a3e-1f2b3c4d5e6f")
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	key := StorageKey(&StoreRequest{JobID: jobID, PrinterName: "EPSON TM-T20 (Caixa 1)"}, now)
	assert.Equal(t, "epson-tm-t20-caixa-1/2025/03/"+jobID.String()+".pdf", key)

	key = StorageKey(&StoreRequest{JobID: jobID, Extension: ".html"}, now)
	assert.Equal(t, "default/2025/03/"+jobID.String()+".html", key)
}

func TestFileSystemStorage_StoreGetDelete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	jobID := uuid.New()

	res, err := s.Store(ctx, &StoreRequest{JobID: jobID, PrinterName: "Microsoft Print to PDF", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)
	assert.EqualValues(t, 8, res.Size)
	assert.Equal(t, "/files/receipts/"+res.Path, res.URL)

	rc, err := s.Get(ctx, res.Path)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, s.Delete(ctx, res.Path))
	require.NoError(t, s.Delete(ctx, res.Path), "deleting twice is not an error")

	_, err = s.Get(ctx, res.Path)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeNotFound, renderErr.Code)
}

func TestFileSystemStorage_InvalidRequests(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Store(ctx, nil)
	assert.Error(t, err)
	_, err = s.Store(ctx, &StoreRequest{Data: []byte("x")})
	assert.Error(t, err)
	_, err = s.Store(ctx, &StoreRequest{JobID: uuid.New()})
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Store(cancelled, &StoreRequest{JobID: uuid.New(), Data: []byte("x")})
	assert.Error(t, err)
}

func TestFileSystemStorage_PathTraversal(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, path := range []string{"../etc/passwd", "a/../../b", "/etc/passwd", `..\secret`} {
		t.Run(path, func(t *testing.T) {
			_, err := s.Get(ctx, path)
			assert.Error(t, err)
			assert.Error(t, s.Delete(ctx, path))
		})
	}
}

func TestFileSystemStorage_CleanupOlderThan(t *testing.T) {
	s := newTestStorage(t)
	s.now = time.Now
	ctx := context.Background()

	oldRes, err := s.Store(ctx, &StoreRequest{JobID: uuid.New(), Data: []byte("old")})
	require.NoError(t, err)
	newRes, err := s.Store(ctx, &StoreRequest{JobID: uuid.New(), Data: []byte("new")})
	require.NoError(t, err)

	oldPath := filepath.Join(s.config.BasePath, filepath.FromSlash(oldRes.Path))
	past := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	deleted, err := s.CleanupOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(s.config.BasePath, filepath.FromSlash(newRes.Path)))
	assert.NoError(t, err)
}
