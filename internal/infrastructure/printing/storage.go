package printing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// DocumentStorage defines the interface for storing and retrieving rendered receipts
type DocumentStorage interface {
	// Store saves a document and returns its location
	Store(ctx context.Context, req *StoreRequest) (*StoreResult, error)
	// Get retrieves a document by its relative path
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes a document
	Delete(ctx context.Context, path string) error
	// CleanupOlderThan removes documents older than the specified duration
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
	// GetURL returns the accessible URL for a stored document
	GetURL(path string) string
}

// StoreRequest contains the parameters for storing a document
type StoreRequest struct {
	// JobID is the print job identifier, used as file name
	JobID uuid.UUID
	// PrinterName groups documents per printer
	PrinterName string
	// Data is the raw file content
	Data []byte
	// Extension of the stored file, default ".pdf"
	Extension string
}

// StoreResult contains the result of storing a document
type StoreResult struct {
	// Path is the storage path (relative to base)
	Path string
	// URL is the accessible URL for the document
	URL string
	// Size is the file size in bytes
	Size int64
}

// StorageKey builds the relative location {printer}/{year}/{month}/{job}{ext}
func StorageKey(req *StoreRequest, now time.Time) string {
	printer := slug.Make(req.PrinterName)
	if printer == "" {
		printer = "default"
	}
	ext := req.Extension
	if ext == "" {
		ext = ".pdf"
	}
	return filepath.ToSlash(filepath.Join(
		printer,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		req.JobID.String()+ext,
	))
}

// ValidateStoreRequest checks the fields every backend requires
func ValidateStoreRequest(req *StoreRequest) error {
	if req == nil {
		return NewRenderError(ErrCodeStorageFailed, "store request is nil", nil)
	}
	if req.JobID == uuid.Nil {
		return NewRenderError(ErrCodeStorageFailed, "job ID is required", nil)
	}
	if len(req.Data) == 0 {
		return NewRenderError(ErrCodeStorageFailed, "document data is empty", nil)
	}
	return nil
}

// FileSystemStorageConfig contains configuration for file system storage
type FileSystemStorageConfig struct {
	// BasePath is the root directory. Default: ./data/receipts
	BasePath string
	// BaseURL is the URL prefix for downloads
	BaseURL string
	// Logger for operations
	Logger *zap.Logger
}

// FileSystemStorage stores documents on the local file system
type FileSystemStorage struct {
	config *FileSystemStorageConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewFileSystemStorage creates a new file system based document storage
func NewFileSystemStorage(config *FileSystemStorageConfig) (*FileSystemStorage, error) {
	if config == nil {
		config = &FileSystemStorageConfig{}
	}
	if config.BasePath == "" {
		config.BasePath = "./data/receipts"
	}
	if config.BaseURL == "" {
		config.BaseURL = "/files/receipts"
	}

	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed,
			fmt.Sprintf("failed to create storage directory: %s", config.BasePath), err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileSystemStorage{
		config: config,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Store saves a document to the file system
func (s *FileSystemStorage) Store(ctx context.Context, req *StoreRequest) (*StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	if err := ValidateStoreRequest(req); err != nil {
		return nil, err
	}

	relativePath := StorageKey(req, s.now())
	fullPath := filepath.Join(s.config.BasePath, filepath.FromSlash(relativePath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to create directory", err)
	}
	if err := os.WriteFile(fullPath, req.Data, 0o644); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to write document", err)
	}

	url := s.GetURL(relativePath)
	s.logger.Info("document stored",
		zap.String("path", fullPath),
		zap.Int("size", len(req.Data)),
		zap.String("url", url))

	return &StoreResult{
		Path: relativePath,
		URL:  url,
		Size: int64(len(req.Data)),
	}, nil
}

// resolve maps a relative path under BasePath, rejecting traversal
func (s *FileSystemStorage) resolve(path string) (string, error) {
	cleanPath := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(cleanPath) || ContainsDotDot(path) {
		s.logger.Warn("blocked potentially malicious path", zap.String("path", path))
		return "", NewRenderError(ErrCodeStorageFailed, "invalid path", nil)
	}

	absBase, err := filepath.Abs(s.config.BasePath)
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to resolve base path", err)
	}
	absPath, err := filepath.Abs(filepath.Join(s.config.BasePath, cleanPath))
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to resolve file path", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked",
			zap.String("path", path),
			zap.String("absPath", absPath))
		return "", NewRenderError(ErrCodeStorageFailed, "invalid path", nil)
	}
	return absPath, nil
}

// Get retrieves a document by its relative path
func (s *FileSystemStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewRenderError(ErrCodeNotFound, "document not found", err)
		}
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to open document", err)
	}
	return file, nil
}

// Delete removes a document. Missing files are not an error.
func (s *FileSystemStorage) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return NewRenderError(ErrCodeStorageFailed, "failed to delete document", err)
	}
	s.logger.Info("document deleted", zap.String("path", path))
	return nil
}

// CleanupOlderThan removes stored files older than the specified duration
func (s *FileSystemStorage) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := s.now().Add(-age)
	deletedCount := 0

	err := filepath.WalkDir(s.config.BasePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				deletedCount++
				s.logger.Debug("deleted old document", zap.String("path", path))
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return deletedCount, NewRenderError(ErrCodeStorageFailed, "cleanup walk failed", err)
	}

	s.logger.Info("cleanup completed",
		zap.Int("deleted", deletedCount),
		zap.Duration("age", age))
	return deletedCount, nil
}

// GetURL returns the accessible URL for a stored document
func (s *FileSystemStorage) GetURL(path string) string {
	cleanPath := filepath.ToSlash(filepath.Clean(path))
	return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.BaseURL, "/"), cleanPath)
}

// ContainsDotDot reports whether a relative path tries to climb out of its root
func ContainsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	return slices.Contains(parts, "..")
}

// Ensure FileSystemStorage implements DocumentStorage
var _ DocumentStorage = (*FileSystemStorage)(nil)
