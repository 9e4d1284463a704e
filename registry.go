package facedetect

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Registry issues handles for loaded sessions and tracks the current one,
// the detector used by FindFaces
type Registry struct {
	mu       sync.RWMutex
	sessions map[Handle]*Session
	// last is the most recently issued handle, handles are never reused
	last    Handle
	current Handle
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[Handle]*Session),
	}
}

// Load creates a session and stores it under a new handle which becomes the
// current detector.  Errors wrap ErrLoad.
func (r *Registry) Load(ctx context.Context, cascadePath, netPath string, opts ...Option) (Handle, error) {

	// loading is slow so happens outside the lock
	s, err := NewSession(ctx, cascadePath, netPath, opts...)

	if err != nil {
		return InvalidHandle, err
	}

	h := r.add(s)

	logger.Debugf(ctx, "detector %d loaded", h)

	return h, nil
}

// add stores a session under a new handle and makes it current
func (r *Registry) add(s *Session) Handle {

	r.mu.Lock()
	defer r.mu.Unlock()

	r.last++
	r.sessions[r.last] = s
	r.current = r.last

	return r.last
}

// Session returns the session for a handle
func (r *Registry) Session(h Handle) (*Session, error) {

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[h]

	if !ok {
		return nil, fmt.Errorf("handle %d: %w", h, ErrUnknownHandle)
	}

	return s, nil
}

// Current returns the most recently loaded session that has not been
// released
func (r *Registry) Current() (*Session, Handle, error) {

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == InvalidHandle {
		return nil, InvalidHandle, ErrNoDetector
	}

	return r.sessions[r.current], r.current, nil
}

// Len returns the number of loaded sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// FindFaces analyses a frame with the current detector.  Without a loaded
// detector it fails with ErrNoDetector and rgba is not modified.
func (r *Registry) FindFaces(ctx context.Context, width, height int, yuv []byte, rgba []uint32) (int, error) {

	s, _, err := r.Current()

	if err != nil {
		return AnalysisFailed, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}

	return s.FindFaces(ctx, width, height, yuv, rgba)
}

// Release closes the session for a handle, waiting for any analysis in
// progress on it.  Releasing the current detector leaves the registry with
// no current detector.
func (r *Registry) Release(h Handle) error {

	r.mu.Lock()
	s, ok := r.sessions[h]

	if ok {
		delete(r.sessions, h)

		if r.current == h {
			r.current = InvalidHandle
		}
	}

	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("handle %d: %w", h, ErrUnknownHandle)
	}

	return s.Close()
}

// Close releases every session
func (r *Registry) Close() error {

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[Handle]*Session)
	r.current = InvalidHandle
	r.mu.Unlock()

	var errs []error

	for h, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("handle %d: %w", h, err))
		}
	}

	return errors.Join(errs...)
}
