package facedetect

import (
	"github.com/swdee/go-facedetect/postprocess"
	"github.com/swdee/go-facedetect/preprocess"
	"github.com/swdee/go-facedetect/render"
)

// cascadeScaleImage is OpenCV's CASCADE_SCALE_IMAGE flag
const cascadeScaleImage = 2

// Params defines the detection pipeline configuration of a Session
type Params struct {
	// ScaleFactor is how much the image is reduced at each cascade scale
	ScaleFactor float64
	// MinNeighbors is the number of overlapping cascade hits a candidate
	// needs to be kept
	MinNeighbors int
	// Flags are passed to the cascade classifier unchanged
	Flags int
	// MinSize is the smallest face width and height searched for
	MinSize int
	// MaxSize is the largest face width and height searched for, zero is
	// unbounded
	MaxSize int
	// Equalize histogram equalises the grey image before running the
	// cascade
	Equalize bool
	// InputMean is subtracted from each pixel of a face region before it is
	// passed to the network
	InputMean float64
	// InputStd divides each pixel of a face region after the mean is
	// subtracted
	InputStd float64
	// Letterbox keeps the face region aspect ratio when resizing to the
	// network input size
	Letterbox bool
	// Format is the layout of YUV frames given to FindFaces
	Format preprocess.YUVFormat
	// Faces are the post processing parameters
	Faces postprocess.FaceParams
	// Overlay controls how faces are drawn onto RGBA buffers
	Overlay render.OverlayOptions
}

// DefaultParams returns Params matching the original face detector:
// - ScaleFactor: 1.1
// - MinNeighbors: 2
// - Flags: CASCADE_SCALE_IMAGE
// - MinSize: 10
// - Equalize: true
// - InputMean 0 and InputStd 1, the raw grey level is fed to the network
// - Format: NV21
func DefaultParams() Params {
	return Params{
		ScaleFactor:  1.1,
		MinNeighbors: 2,
		Flags:        cascadeScaleImage,
		MinSize:      10,
		Equalize:     true,
		InputMean:    0,
		InputStd:     1,
		Format:       preprocess.NV21,
		Faces:        postprocess.DefaultFaceParams(),
		Overlay:      render.DefaultOverlayOptions(),
	}
}

// Option modifies the Params of a Session being created
type Option func(*Params)

// WithParams replaces all parameters
func WithParams(p Params) Option {
	return func(dst *Params) {
		*dst = p
	}
}

// WithScaleFactor sets the cascade scale step
func WithScaleFactor(f float64) Option {
	return func(p *Params) {
		p.ScaleFactor = f
	}
}

// WithMinNeighbors sets the cascade neighbour count
func WithMinNeighbors(n int) Option {
	return func(p *Params) {
		p.MinNeighbors = n
	}
}

// WithFaceSize sets the smallest and largest face searched for
func WithFaceSize(min, max int) Option {
	return func(p *Params) {
		p.MinSize = min
		p.MaxSize = max
	}
}

// WithScoreThreshold sets the minimum network score for a face to be kept
func WithScoreThreshold(t float64) Option {
	return func(p *Params) {
		p.Faces.ScoreThreshold = t
	}
}

// WithNMSThreshold sets the overlap suppression threshold, zero disables it
func WithNMSThreshold(t float64) Option {
	return func(p *Params) {
		p.Faces.NMSThreshold = t
	}
}

// WithMaxFaces limits the number of faces returned per frame
func WithMaxFaces(n int) Option {
	return func(p *Params) {
		p.Faces.MaxFaces = n
	}
}

// WithNormalization sets the network input normalisation
func WithNormalization(mean, std float64) Option {
	return func(p *Params) {
		p.InputMean = mean
		p.InputStd = std
	}
}

// WithYUVFormat sets the layout of frames given to FindFaces
func WithYUVFormat(f preprocess.YUVFormat) Option {
	return func(p *Params) {
		p.Format = f
	}
}

// WithOverlay sets the RGBA overlay options
func WithOverlay(o render.OverlayOptions) Option {
	return func(p *Params) {
		p.Overlay = o
	}
}
