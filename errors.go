package facedetect

import (
	"errors"

	"github.com/swdee/go-facedetect/preprocess"
	"github.com/swdee/go-facedetect/render"
)

// APIVersion is the version of the detector boundary, reported to callers
// of the C library
const APIVersion = 1

// Handle identifies a loaded detector within a Registry
type Handle uint64

const (
	// InvalidHandle is returned when a detector fails to load
	InvalidHandle Handle = 0
	// AnalysisFailed is the face count returned when a frame can not be
	// analysed
	AnalysisFailed = -1
)

var (
	// ErrLoad is wrapped by every error that prevents a detector loading
	ErrLoad = errors.New("failed to load face detector")
	// ErrAnalysis is wrapped by every error that prevents a frame being
	// analysed
	ErrAnalysis = errors.New("failed to analyse frame")
	// ErrNoDetector is returned when analysing a frame before any detector
	// has been loaded
	ErrNoDetector = errors.New("no face detector loaded")
	// ErrUnknownHandle is returned for a handle the registry never issued or
	// has already released
	ErrUnknownHandle = errors.New("unknown detector handle")
	// ErrClosed is returned when using a session after Close
	ErrClosed = errors.New("session is closed")
	// ErrNoNetwork is returned when scoring with a cascade only session
	ErrNoNetwork = errors.New("no network loaded")
	// ErrBufferSize is returned when the RGBA buffer does not match the frame
	ErrBufferSize = render.ErrBufferSize
	// ErrFrameSize is returned when the YUV buffer does not match the frame
	ErrFrameSize = preprocess.ErrFrameSize
)
