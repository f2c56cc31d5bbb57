package printing

import (
	"errors"
	"strings"
	"sync"
)

// ErrSurfaceClosed is returned when writing into a closed surface
var ErrSurfaceClosed = errors.New("surface is closed")

// BufferSurface keeps the last written document in memory
type BufferSurface struct {
	mu     sync.Mutex
	markup string
	closed bool
}

// NewBufferSurface returns a live, empty surface
func NewBufferSurface() *BufferSurface {
	return &BufferSurface{}
}

// IsLive returns true until Close is called
func (s *BufferSurface) IsLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Write replaces the surface content
func (s *BufferSurface) Write(markup string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSurfaceClosed
	}
	s.markup = markup
	return nil
}

// Close marks the surface as closed. The content stays readable.
func (s *BufferSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// String returns the written document
func (s *BufferSurface) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Clone(s.markup)
}

var _ DisplaySurface = (*BufferSurface)(nil)
