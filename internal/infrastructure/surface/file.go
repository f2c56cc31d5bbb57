// Package surface provides file backed display surfaces and a log notifier
// for running the receipt dispatcher outside a browser.
package surface

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/erp/receipt/internal/application/printing"
)

// FileSurface writes documents to an HTML file that a browser can open
type FileSurface struct {
	mu       sync.Mutex
	path     string
	geometry printing.Geometry
	closed   bool
	logger   *zap.Logger
}

// Path returns the file backing the surface
func (s *FileSurface) Path() string {
	return s.path
}

// Geometry returns the geometry the surface was opened with
func (s *FileSurface) Geometry() printing.Geometry {
	return s.geometry
}

// IsLive returns true until Close is called
func (s *FileSurface) IsLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Write replaces the file content
func (s *FileSurface) Write(markup string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return printing.ErrSurfaceClosed
	}
	if err := os.WriteFile(s.path, []byte(markup), 0o644); err != nil {
		return fmt.Errorf("failed to write surface file: %w", err)
	}
	s.logger.Info("receipt written to surface", zap.String("path", s.path))
	return nil
}

// Close marks the surface as closed. The file is kept.
func (s *FileSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// FileOpener opens FileSurfaces inside a directory
type FileOpener struct {
	dir    string
	now    func() time.Time
	logger *zap.Logger
}

// NewFileOpener creates an opener for dir
func NewFileOpener(dir string, logger *zap.Logger) *FileOpener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileOpener{dir: dir, now: time.Now, logger: logger}
}

// Open creates {dir}/{name}_{unix nanos}.html. A missing directory or an
// empty dir setting blocks the surface.
func (o *FileOpener) Open(name string, geometry printing.Geometry) (printing.DisplaySurface, error) {
	if o.dir == "" {
		return nil, nil
	}
	info, err := os.Stat(o.dir)
	if err != nil || !info.IsDir() {
		o.logger.Warn("surface directory unavailable", zap.String("dir", o.dir), zap.Error(err))
		return nil, nil
	}

	base := slug.Make(name)
	if base == "" {
		base = "surface"
	}
	path := filepath.Join(o.dir, fmt.Sprintf("%s_%d.html", base, o.now().UnixNano()))
	return &FileSurface{path: path, geometry: geometry, logger: o.logger}, nil
}

var _ printing.SurfaceOpener = (*FileOpener)(nil)
