package preprocess

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestNormalizerInput(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 0, 0, 0), 40, 20, gocv.MatTypeCV8UC1)
	defer img.Close()

	n := NewNormalizer(8, 4, 108, 255)
	defer n.Close()

	in, err := n.Input(img)
	require.NoError(t, err)

	r, c := in.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 8, c)
	assert.InDelta(t, 20.0/255, in.At(2, 5), 1e-9)
}

func TestNormalizerBGR(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 16, 16, gocv.MatTypeCV8UC3)
	defer img.Close()

	n := NewNormalizer(4, 4, 0, 1)
	defer n.Close()

	in, err := n.Input(img)
	require.NoError(t, err)
	assert.Equal(t, 255.0, in.At(0, 0))
}

func TestNormalizerLetterbox(t *testing.T) {
	// a wide white strip letterboxed into a square gets mean-grey padding
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 10, 40, gocv.MatTypeCV8UC1)
	defer img.Close()

	n := NewNormalizer(8, 8, 100, 1)
	n.SetLetterbox(true)
	defer n.Close()

	in, err := n.Input(img)
	require.NoError(t, err)
	assert.Equal(t, 0.0, in.At(0, 4))
	assert.Equal(t, 155.0, in.At(4, 4))
}

func TestLetterboxFit(t *testing.T) {

	tests := []struct {
		src     image.Point
		dst     image.Point
		wantFit image.Point
		wantPad image.Point
	}{
		{image.Pt(1280, 720), image.Pt(640, 640), image.Pt(640, 360), image.Pt(0, 140)},
		{image.Pt(800, 1000), image.Pt(640, 640), image.Pt(512, 640), image.Pt(64, 0)},
		{image.Pt(800, 800), image.Pt(640, 640), image.Pt(640, 640), image.Pt(0, 0)},
		{image.Pt(100, 1), image.Pt(8, 8), image.Pt(8, 1), image.Pt(0, 3)},
		{image.Pt(24, 36), image.Pt(128, 128), image.Pt(85, 128), image.Pt(21, 0)},
	}

	for _, tc := range tests {
		fit, pad := letterboxFit(tc.src, tc.dst)
		assert.Equal(t, tc.wantFit, fit, "fit of %v in %v", tc.src, tc.dst)
		assert.Equal(t, tc.wantPad, pad, "padding of %v in %v", tc.src, tc.dst)
	}
}

func TestNormalizerErrors(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	n := NewNormalizer(4, 4, 0, 1)
	defer n.Close()

	_, err := n.Input(empty)
	assert.Error(t, err)

	img := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC1)
	defer img.Close()

	zero := NewNormalizer(4, 4, 0, 0)
	defer zero.Close()

	_, err = zero.Input(img)
	assert.Error(t, err)
}

func TestCrop(t *testing.T) {
	img := gocv.NewMatWithSize(20, 30, gocv.MatTypeCV8UC1)
	defer img.Close()

	roi, err := Crop(img, image.Rect(25, 10, 40, 15))
	require.NoError(t, err)
	defer roi.Close()

	assert.Equal(t, 5, roi.Cols())
	assert.Equal(t, 5, roi.Rows())

	_, err = Crop(img, image.Rect(50, 50, 60, 60))
	assert.Error(t, err)
}
