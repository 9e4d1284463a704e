package facedetect

import (
	"context"
	"errors"
	"sync"
)

var (
	defaultRegistry = NewRegistry()

	lastErrMu sync.Mutex
	lastErr   error
)

// DefaultRegistry returns the registry used by LoadFaceDetector and
// FindFaces
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// LoadFaceDetector loads a cascade classifier and optional network into
// the default registry, making it the detector used by FindFaces.  It
// returns the detector handle or 0 on failure, see LastError for the cause.
func LoadFaceDetector(cascadePath, netPath string) int64 {

	h, err := defaultRegistry.Load(context.Background(), cascadePath, netPath)
	setLastError(err)

	return int64(h)
}

// FindFaces analyses a YUV frame with the current detector of the default
// registry and draws the faces onto rgba.  It returns the number of faces
// or -1 on failure, see LastError for the cause.
func FindFaces(width, height int32, yuv []byte, rgba []uint32) int32 {

	n, err := defaultRegistry.FindFaces(context.Background(), int(width), int(height), yuv, rgba)
	setLastError(err)

	if err != nil {
		return AnalysisFailed
	}

	return int32(n)
}

// ReleaseFaceDetector releases a detector loaded by LoadFaceDetector.  It
// returns false for a handle that is unknown or already released.
func ReleaseFaceDetector(handle int64) bool {

	if handle <= 0 {
		setLastError(ErrUnknownHandle)
		return false
	}

	// a close error still releases the handle
	err := defaultRegistry.Release(Handle(handle))
	setLastError(err)

	return !errors.Is(err, ErrUnknownHandle)
}

// LastError returns the error behind the most recent failure of
// LoadFaceDetector, FindFaces or ReleaseFaceDetector, or nil if the most
// recent call succeeded
func LastError() error {
	lastErrMu.Lock()
	defer lastErrMu.Unlock()
	return lastErr
}

// SetLastError records err as the cause returned by LastError, for
// callers that reject a call before it reaches the default registry
func SetLastError(err error) {
	setLastError(err)
}

func setLastError(err error) {
	lastErrMu.Lock()
	lastErr = err
	lastErrMu.Unlock()
}
