package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/erp/receipt/internal/infrastructure/config"
	"github.com/erp/receipt/internal/infrastructure/printing"
)

// fakeBucket is a minimal path-style S3 endpoint for a single bucket
type fakeBucket struct {
	mu       sync.Mutex
	name     string
	objects  map[string]time.Time
	uploads  map[string]string
	deletes  []string
	contents map[string]string
}

func newFakeBucket(name string) *fakeBucket {
	return &fakeBucket{
		name:     name,
		objects:  map[string]time.Time{},
		uploads:  map[string]string{},
		contents: map[string]string{},
	}
}

func (f *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/"+f.name), "/")

	switch {
	case r.Method == http.MethodGet && key == "" && r.URL.Query().Get("list-type") == "2":
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
		b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
		fmt.Fprintf(&b, "<Name>%s</Name><KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>", f.name, len(f.objects))
		for k, mod := range f.objects {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><LastModified>%s</LastModified><Size>1</Size></Contents>",
				k, mod.UTC().Format("2006-01-02T15:04:05.000Z"))
		}
		b.WriteString(`</ListBucketResult>`)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, b.String())
	case r.Method == http.MethodPut:
		f.uploads[key] = r.Header.Get("Content-Type")
		f.objects[key] = time.Now()
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		body, ok := f.contents[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		_, _ = io.WriteString(w, body)
	case r.Method == http.MethodDelete:
		f.deletes = append(f.deletes, key)
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3(t *testing.T, bucket *fakeBucket, baseURL string) *S3DocumentStorage {
	t.Helper()
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	s, err := NewS3DocumentStorage(&config.StorageConfig{
		Endpoint:     srv.URL,
		Bucket:       bucket.name,
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
		BaseURL:      baseURL,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestNewS3DocumentStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantErr: "configuration is required"},
		{name: "missing bucket", cfg: &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, wantErr: "bucket is required"},
		{name: "missing access key", cfg: &config.StorageConfig{Bucket: "b", SecretKey: "s"}, wantErr: "access key is required"},
		{name: "missing secret key", cfg: &config.StorageConfig{Bucket: "b", AccessKey: "k"}, wantErr: "secret key is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3DocumentStorage(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid config applies defaults", func(t *testing.T) {
		s, err := NewS3DocumentStorage(&config.StorageConfig{
			Endpoint:  "localhost:9000",
			Bucket:    "receipts",
			AccessKey: "k",
			SecretKey: "s",
		}, WithPresignExpiration(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "receipts", s.GetBucket())
		assert.Equal(t, time.Hour, s.presignExpiration)
	})
}

func TestS3DocumentStorage_Store(t *testing.T) {
	bucket := newFakeBucket("receipts")
	s := newTestS3(t, bucket, "https://cdn.example.com/receipts/")

	jobID := uuid.New()
	result, err := s.Store(context.Background(), &printing.StoreRequest{
		JobID:       jobID,
		PrinterName: "EPSON TM-T20",
		Data:        []byte("%PDF-1.7"),
	})
	require.NoError(t, err)

	wantKey := "epson-tm-t20/2025/03/" + jobID.String() + ".pdf"
	assert.Equal(t, wantKey, result.Path)
	assert.Equal(t, "https://cdn.example.com/receipts/"+wantKey, result.URL)
	assert.Equal(t, int64(8), result.Size)
	assert.Equal(t, "application/pdf", bucket.uploads[wantKey])
}

func TestS3DocumentStorage_StoreRejectsInvalidRequest(t *testing.T) {
	s := newTestS3(t, newFakeBucket("receipts"), "")

	_, err := s.Store(context.Background(), &printing.StoreRequest{JobID: uuid.New()})
	require.Error(t, err)
	var renderErr *printing.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, printing.ErrCodeStorageFailed, renderErr.Code)
}

func TestS3DocumentStorage_Get(t *testing.T) {
	bucket := newFakeBucket("receipts")
	bucket.contents["default/2025/03/a.html"] = "<html>ok</html>"
	s := newTestS3(t, bucket, "")

	t.Run("existing object", func(t *testing.T) {
		rc, err := s.Get(context.Background(), "default/2025/03/a.html")
		require.NoError(t, err)
		defer rc.Close()
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "<html>ok</html>", string(body))
	})

	t.Run("missing object maps to not found", func(t *testing.T) {
		_, err := s.Get(context.Background(), "default/2025/03/b.html")
		var renderErr *printing.RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, printing.ErrCodeNotFound, renderErr.Code)
	})

	t.Run("traversal key is rejected", func(t *testing.T) {
		for _, key := range []string{"", "../secret", "/abs/key", `a\..\b`} {
			_, err := s.Get(context.Background(), key)
			assert.Error(t, err, key)
		}
	})
}

func TestS3DocumentStorage_CleanupOlderThan(t *testing.T) {
	bucket := newFakeBucket("receipts")
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	bucket.objects["default/2025/01/old.pdf"] = now.Add(-40 * 24 * time.Hour)
	bucket.objects["default/2025/03/new.pdf"] = now.Add(-time.Hour)
	s := newTestS3(t, bucket, "")

	deleted, err := s.CleanupOlderThan(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, []string{"default/2025/01/old.pdf"}, bucket.deletes)
}

func TestS3DocumentStorage_GetURLPresigned(t *testing.T) {
	s := newTestS3(t, newFakeBucket("receipts"), "")

	u := s.GetURL("default/2025/03/a.pdf")
	assert.Contains(t, u, "/receipts/default/2025/03/a.pdf")
	assert.Contains(t, u, "X-Amz-Signature=")
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "text/html; charset=utf-8", contentTypeFor("a/b.html"))
	assert.Equal(t, "application/pdf", contentTypeFor("a/b.pdf"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("a/b"))
}
