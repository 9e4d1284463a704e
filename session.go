package facedetect

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/swdee/go-facedetect/convnet"
	"github.com/swdee/go-facedetect/postprocess"
	"github.com/swdee/go-facedetect/preprocess"
	"github.com/swdee/go-facedetect/render"
	"gocv.io/x/gocv"
)

// Session owns a loaded cascade classifier and optional verification
// network.  All methods are safe for concurrent use, calls are serialised
// as neither the classifier nor the network feature maps are re-entrant.
type Session struct {
	mu sync.Mutex
	// params are the pipeline parameters fixed at creation
	params      Params
	cascadePath string
	netPath     string
	cascade     gocv.CascadeClassifier
	// net is nil when running cascade only
	net    *convnet.Net
	norm   *preprocess.Normalizer
	filter *postprocess.FaceFilter
	// grey and equalized are reused between frames
	grey      gocv.Mat
	equalized gocv.Mat
	closed    bool
}

// NewSession loads the cascade classifier at cascadePath and the network
// description at netPath.  An empty netPath creates a cascade only session
// where every face has a score of 1.  Errors wrap ErrLoad.
func NewSession(ctx context.Context, cascadePath, netPath string, opts ...Option) (*Session, error) {

	p := DefaultParams()

	for _, opt := range opts {
		opt(&p)
	}

	if err := checkParams(p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	if err := checkFile("cascade", cascadePath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	s := &Session{
		params:      p,
		cascadePath: cascadePath,
		netPath:     netPath,
		filter:      postprocess.NewFaceFilter(p.Faces),
	}

	if netPath != "" {
		if err := checkFile("network", netPath); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}

		net, err := convnet.ParseFile(netPath)

		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}

		s.net = net
		in := net.InputSize()
		s.norm = preprocess.NewNormalizer(in.Width, in.Height, p.InputMean, p.InputStd)
		s.norm.SetLetterbox(p.Letterbox)

		logger.Debugf(ctx, "loaded network %q with %d planes, input %s",
			net.Name(), len(net.Planes()), in)
	}

	s.cascade = gocv.NewCascadeClassifier()

	if !s.cascade.Load(cascadePath) {
		s.cascade.Close()

		if s.norm != nil {
			s.norm.Close()
		}

		return nil, fmt.Errorf("%w: cascade classifier could not be read from %s", ErrLoad, cascadePath)
	}

	s.grey = gocv.NewMat()
	s.equalized = gocv.NewMat()

	logger.Debugf(ctx, "loaded cascade %s", cascadePath)

	return s, nil
}

// checkFile makes sure path names a regular file before it is handed to
// OpenCV, which only reports a boolean failure
func checkFile(what, path string) error {

	if path == "" {
		return fmt.Errorf("no %s file given", what)
	}

	info, err := os.Stat(path)

	if err != nil {
		return fmt.Errorf("%s file does not exist at %s, error: %w", what, path, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s file is a directory: %s", what, path)
	}

	return nil
}

func checkParams(p Params) error {

	if p.ScaleFactor <= 1 {
		return fmt.Errorf("scale factor must be greater than 1, got %v", p.ScaleFactor)
	}

	if p.MinNeighbors < 0 {
		return fmt.Errorf("min neighbors cannot be negative, got %d", p.MinNeighbors)
	}

	if p.MinSize < 0 || p.MaxSize < 0 {
		return fmt.Errorf("face sizes cannot be negative, got %d and %d", p.MinSize, p.MaxSize)
	}

	if p.InputStd == 0 {
		return fmt.Errorf("input standard deviation cannot be zero")
	}

	return nil
}

// Params returns the parameters the session was created with
func (s *Session) Params() Params {
	return s.params
}

// CascadePath returns the file the cascade classifier was loaded from
func (s *Session) CascadePath() string {
	return s.cascadePath
}

// NetPath returns the file the network was loaded from, empty for a
// cascade only session
func (s *Session) NetPath() string {
	return s.netPath
}

// Network returns the verification network or nil
func (s *Session) Network() *convnet.Net {
	return s.net
}

// FindFaces detects faces in a YUV frame and draws their outlines onto
// rgba, a width x height buffer of 0xAARRGGBB pixels.  Pixels outside the
// outlines are not modified.  It returns the number of faces found, errors
// wrap ErrAnalysis and are returned before either buffer is accessed.
func (s *Session) FindFaces(ctx context.Context, width, height int, yuv []byte, rgba []uint32) (int, error) {

	if err := checkBuffers(width, height, yuv, rgba); err != nil {
		return AnalysisFailed, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	faces, err := s.frameFaces(ctx, width, height, yuv)

	if err != nil {
		return AnalysisFailed, err
	}

	if err := render.Overlay(rgba, width, height, faces, s.params.Overlay); err != nil {
		return AnalysisFailed, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}

	return len(faces), nil
}

// FrameFaces detects faces in a YUV frame without drawing them
func (s *Session) FrameFaces(ctx context.Context, width, height int, yuv []byte) ([]postprocess.Face, error) {

	if err := preprocess.CheckFrame(width, height, yuv); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.frameFaces(ctx, width, height, yuv)
}

// Frame converts a YUV frame in the session's format into a BGR Mat for
// display.  The Mat must be closed by the caller.
func (s *Session) Frame(width, height int, yuv []byte) (gocv.Mat, error) {
	return preprocess.ToBGR(width, height, yuv, s.params.Format)
}

// checkBuffers validates both caller buffers against the frame dimensions
func checkBuffers(width, height int, yuv []byte, rgba []uint32) error {

	if err := preprocess.CheckFrame(width, height, yuv); err != nil {
		return err
	}

	if len(rgba) != width*height {
		return fmt.Errorf("frame %dx%d needs %d pixels, got %d: %w",
			width, height, width*height, len(rgba), ErrBufferSize)
	}

	return nil
}

// frameFaces runs detection on the luma plane, the caller holding the lock
func (s *Session) frameFaces(ctx context.Context, width, height int, yuv []byte) ([]postprocess.Face, error) {

	if s.closed {
		return nil, fmt.Errorf("%w: %w", ErrAnalysis, ErrClosed)
	}

	luma, err := preprocess.Luma(width, height, yuv)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}

	defer luma.Close()

	return s.detect(ctx, luma)
}

// Detect finds faces in a grey, BGR or BGRA image
func (s *Session) Detect(ctx context.Context, img gocv.Mat) ([]postprocess.Face, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("%w: %w", ErrAnalysis, ErrClosed)
	}

	return s.detect(ctx, img)
}

// detect runs the cascade over img then scores each candidate with the
// network, the caller holding the lock
func (s *Session) detect(ctx context.Context, img gocv.Mat) ([]postprocess.Face, error) {

	if img.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrAnalysis)
	}

	grey := img

	switch img.Channels() {
	case 1:
	case 3:
		gocv.CvtColor(img, &s.grey, gocv.ColorBGRToGray)
		grey = s.grey
	case 4:
		gocv.CvtColor(img, &s.grey, gocv.ColorBGRAToGray)
		grey = s.grey
	default:
		return nil, fmt.Errorf("%w: unsupported channel count %d", ErrAnalysis, img.Channels())
	}

	search := grey

	if s.params.Equalize {
		gocv.EqualizeHist(grey, &s.equalized)
		search = s.equalized
	}

	rects := s.cascade.DetectMultiScaleWithParams(search, s.params.ScaleFactor,
		s.params.MinNeighbors, s.params.Flags,
		image.Pt(s.params.MinSize, s.params.MinSize),
		image.Pt(s.params.MaxSize, s.params.MaxSize))

	logger.Tracef(ctx, "cascade found %d candidates in %dx%d image",
		len(rects), img.Cols(), img.Rows())

	candidates := make([]postprocess.Face, 0, len(rects))

	for _, rect := range rects {

		if s.net == nil {
			candidates = append(candidates, postprocess.Face{Box: rect, Score: 1})
			continue
		}

		roi, err := preprocess.Crop(grey, rect)

		if err != nil {
			roi.Close()
			logger.Debugf(ctx, "skipping candidate %v: %v", rect, err)
			continue
		}

		score, err := s.score(roi)
		roi.Close()

		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAnalysis, err)
		}

		logger.Tracef(ctx, "candidate %v scored %f", rect, score)

		candidates = append(candidates, postprocess.Face{
			Box:      rect,
			Score:    score,
			Verified: true,
		})
	}

	faces := s.filter.Process(candidates)

	logger.Debugf(ctx, "kept %d of %d faces", len(faces), len(candidates))

	return faces, nil
}

// Score runs the network over a single face region which is resized to the
// network input size.  It fails with ErrNoNetwork on a cascade only
// session.
func (s *Session) Score(ctx context.Context, roi gocv.Mat) (float64, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("%w: %w", ErrAnalysis, ErrClosed)
	}

	if s.net == nil {
		return 0, fmt.Errorf("%w: %w", ErrAnalysis, ErrNoNetwork)
	}

	score, err := s.score(roi)

	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}

	logger.Tracef(ctx, "region %dx%d scored %f", roi.Cols(), roi.Rows(), score)

	return score, nil
}

func (s *Session) score(roi gocv.Mat) (float64, error) {

	input, err := s.norm.Input(roi)

	if err != nil {
		return 0, err
	}

	return s.net.Forward(input)
}

// Close releases the native classifier and image buffers.  It waits for any
// call in progress and may be called more than once.
func (s *Session) Close() error {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	err := s.cascade.Close()

	if s.norm != nil {
		s.norm.Close()
	}

	s.grey.Close()
	s.equalized.Close()

	return err
}
