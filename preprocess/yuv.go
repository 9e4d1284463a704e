package preprocess

import (
	"errors"
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// YUVFormat is the memory layout of a 4:2:0 YUV camera frame
type YUVFormat int

const (
	// NV21 is a Y plane followed by interleaved V/U samples, the Android
	// camera default
	NV21 YUVFormat = iota
	// NV12 is a Y plane followed by interleaved U/V samples
	NV12
	// I420 is a Y plane followed by a U plane then a V plane
	I420
)

// ErrFrameSize is returned when a frame buffer does not match its dimensions
var ErrFrameSize = errors.New("frame size mismatch")

func (f YUVFormat) String() string {
	switch f {
	case NV21:
		return "nv21"
	case NV12:
		return "nv12"
	case I420:
		return "i420"
	default:
		return fmt.Sprintf("YUVFormat(%d)", int(f))
	}
}

// ParseYUVFormat returns the format for a case insensitive name
func ParseYUVFormat(s string) (YUVFormat, error) {
	switch strings.ToLower(s) {
	case "nv21":
		return NV21, nil
	case "nv12":
		return NV12, nil
	case "i420", "yuv420p", "iyuv":
		return I420, nil
	default:
		return 0, fmt.Errorf("unknown YUV format %q", s)
	}
}

// conversion returns the OpenCV colour conversion code to BGR
func (f YUVFormat) conversion() (gocv.ColorConversionCode, error) {
	switch f {
	case NV21:
		return gocv.ColorYUVToBGRNV21, nil
	case NV12:
		return gocv.ColorYUVToBGRNV12, nil
	case I420:
		return gocv.ColorYUVToBGRIYUV, nil
	default:
		return 0, fmt.Errorf("unsupported YUV format %v", f)
	}
}

// FrameSize returns the number of bytes in a 4:2:0 frame of the given
// dimensions.  Each chroma plane is subsampled by two in both directions
// rounding up, so a 4x4 frame is 24 bytes.
func FrameSize(width, height int) int {
	cw := (width + 1) / 2
	ch := (height + 1) / 2
	return width*height + 2*cw*ch
}

// CheckFrame validates the frame dimensions against the buffer length
func CheckFrame(width, height int, yuv []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d: %w", width, height, ErrFrameSize)
	}

	if want := FrameSize(width, height); len(yuv) != want {
		return fmt.Errorf("frame %dx%d needs %d bytes, got %d: %w",
			width, height, want, len(yuv), ErrFrameSize)
	}

	return nil
}

// Luma returns the Y plane of the frame as an 8-bit single channel Mat.
// The Mat must be closed by the caller.
func Luma(width, height int, yuv []byte) (gocv.Mat, error) {
	if err := CheckFrame(width, height, yuv); err != nil {
		return gocv.NewMat(), err
	}

	img, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, yuv[:width*height])

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error creating luma Mat: %w", err)
	}

	return img, nil
}

// ToBGR converts the frame to a 3 channel BGR Mat.  OpenCV requires even
// frame dimensions for this conversion.  The Mat must be closed by the
// caller.
func ToBGR(width, height int, yuv []byte, format YUVFormat) (gocv.Mat, error) {
	if err := CheckFrame(width, height, yuv); err != nil {
		return gocv.NewMat(), err
	}

	if width%2 != 0 || height%2 != 0 {
		return gocv.NewMat(), fmt.Errorf("colour conversion needs even dimensions, got %dx%d: %w",
			width, height, ErrFrameSize)
	}

	code, err := format.conversion()

	if err != nil {
		return gocv.NewMat(), err
	}

	src, err := gocv.NewMatFromBytes(height*3/2, width, gocv.MatTypeCV8UC1, yuv)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error creating YUV Mat: %w", err)
	}

	defer src.Close()

	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, code)

	return dst, nil
}

// FromBGR encodes a BGR image as a 4:2:0 frame in the given format.  It is
// the inverse of ToBGR and is used to produce test and replay frames.
func FromBGR(img gocv.Mat, format YUVFormat) ([]byte, error) {
	if img.Cols()%2 != 0 || img.Rows()%2 != 0 {
		return nil, fmt.Errorf("colour conversion needs even dimensions, got %dx%d: %w",
			img.Cols(), img.Rows(), ErrFrameSize)
	}

	i420 := gocv.NewMat()
	defer i420.Close()

	gocv.CvtColor(img, &i420, gocv.ColorBGRToYUVI420)

	planar := i420.ToBytes()

	if format == I420 {
		return planar, nil
	}

	w, h := img.Cols(), img.Rows()
	ySize := w * h
	cSize := ySize / 4
	u := planar[ySize : ySize+cSize]
	v := planar[ySize+cSize:]

	out := make([]byte, ySize+2*cSize)
	copy(out, planar[:ySize])

	for i := 0; i < cSize; i++ {
		switch format {
		case NV21:
			out[ySize+2*i] = v[i]
			out[ySize+2*i+1] = u[i]
		case NV12:
			out[ySize+2*i] = u[i]
			out[ySize+2*i+1] = v[i]
		default:
			return nil, fmt.Errorf("unsupported YUV format %v", format)
		}
	}

	return out, nil
}
