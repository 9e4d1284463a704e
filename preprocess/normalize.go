package preprocess

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// Normalizer converts an image region into a network input matrix by
// converting to grey, resizing to the input size and scaling each pixel to
// (v - Mean) / Std
type Normalizer struct {
	width  int
	height int
	mean   float64
	std    float64
	// letterbox keeps the region aspect by padding with the mean grey level
	letterbox bool
	grey      gocv.Mat
	scaled    gocv.Mat
	resized   gocv.Mat
}

// NewNormalizer returns a normalizer producing width x height inputs
func NewNormalizer(width, height int, mean, std float64) *Normalizer {
	return &Normalizer{
		width:   width,
		height:  height,
		mean:    mean,
		std:     std,
		grey:    gocv.NewMat(),
		scaled:  gocv.NewMat(),
		resized: gocv.NewMat(),
	}
}

// SetLetterbox enables aspect preserving resize
func (n *Normalizer) SetLetterbox(on bool) {
	n.letterbox = on
}

// Close frees memory allocated during normalisation
func (n *Normalizer) Close() error {
	n.grey.Close()
	n.scaled.Close()
	return n.resized.Close()
}

// Input returns the normalised input matrix for src, rows being the image
// height.  src may be grey, BGR or BGRA.
func (n *Normalizer) Input(src gocv.Mat) (*mat.Dense, error) {
	if src.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	if n.std == 0 {
		return nil, fmt.Errorf("input standard deviation cannot be zero")
	}

	grey := src

	switch src.Channels() {
	case 1:
	case 3:
		gocv.CvtColor(src, &n.grey, gocv.ColorBGRToGray)
		grey = n.grey
	case 4:
		gocv.CvtColor(src, &n.grey, gocv.ColorBGRAToGray)
		grey = n.grey
	default:
		return nil, fmt.Errorf("unsupported channel count %d", src.Channels())
	}

	if n.letterbox {
		n.letterboxResize(grey)
	} else {
		gocv.Resize(grey, &n.resized, image.Pt(n.width, n.height), 0, 0, gocv.InterpolationLinear)
	}

	data := make([]float64, n.width*n.height)

	for y := 0; y < n.height; y++ {
		for x := 0; x < n.width; x++ {
			v := float64(n.resized.GetUCharAt(y, x))
			data[y*n.width+x] = (v - n.mean) / n.std
		}
	}

	return mat.NewDense(n.height, n.width, data), nil
}

// letterboxResize scales the grey region to fit the input size and centres
// it, padding the remainder with the mean grey level so padded inputs
// normalise to zero
func (n *Normalizer) letterboxResize(grey gocv.Mat) {

	fit, pad := letterboxFit(image.Pt(grey.Cols(), grey.Rows()), image.Pt(n.width, n.height))

	gocv.Resize(grey, &n.scaled, fit, 0, 0, gocv.InterpolationArea)

	v := clamp(n.mean, 0, 255)

	gocv.CopyMakeBorder(n.scaled, &n.resized, pad.Y, n.height-fit.Y-pad.Y,
		pad.X, n.width-fit.X-pad.X, gocv.BorderConstant,
		color.RGBA{R: uint8(v), G: uint8(v), B: uint8(v), A: 255})
}

// letterboxFit returns the aspect preserving size of src within dst and the
// top left padding that centres it.  Neither side of the fit is below one
// pixel.
func letterboxFit(src, dst image.Point) (image.Point, image.Point) {

	scaleW := float64(dst.X) / float64(src.X)
	scaleH := float64(dst.Y) / float64(src.Y)

	fit := dst

	if scaleW < scaleH {
		fit.Y = max(int(float64(src.Y)*scaleW), 1)
	} else {
		fit.X = max(int(float64(src.X)*scaleH), 1)
	}

	return fit, image.Pt((dst.X-fit.X)/2, (dst.Y-fit.Y)/2)
}

// Crop returns the part of rect lying inside img as a Mat sharing img's
// data.  The returned Mat must be closed by the caller.
func Crop(img gocv.Mat, rect image.Rectangle) (gocv.Mat, error) {
	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	rect = rect.Intersect(bounds)

	if rect.Empty() {
		return gocv.NewMat(), fmt.Errorf("region outside image bounds %v", bounds)
	}

	return img.Region(rect), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
