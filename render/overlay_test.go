package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-facedetect/postprocess"
)

func filled(n int, v uint32) []uint32 {
	pix := make([]uint32, n)
	for i := range pix {
		pix[i] = v
	}
	return pix
}

func TestPackedImage(t *testing.T) {
	pix := make([]uint32, 6)
	img, err := NewPackedImage(pix, 3, 2)
	require.NoError(t, err)

	img.Set(2, 1, color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff})
	assert.Equal(t, uint32(0xff112233), pix[5])
	assert.Equal(t, color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff}, img.At(2, 1))

	// out of bounds writes are dropped
	img.Set(3, 0, Green)
	img.Set(-1, 0, Green)
	assert.Equal(t, make([]uint32, 5), pix[:5])

	_, err = NewPackedImage(pix, 4, 2)
	assert.ErrorIs(t, err, ErrBufferSize)
	_, err = NewPackedImage(nil, 0, 0)
	assert.ErrorIs(t, err, ErrBufferSize)
}

func TestOverlayNoFaces(t *testing.T) {
	pix := filled(16, 0xff808080)
	require.NoError(t, Overlay(pix, 4, 4, nil, DefaultOverlayOptions()))
	assert.Equal(t, filled(16, 0xff808080), pix)
}

func TestOverlayBufferSize(t *testing.T) {
	pix := filled(15, 0xff808080)
	assert.ErrorIs(t, Overlay(pix, 4, 4, nil, DefaultOverlayOptions()), ErrBufferSize)
}

func TestOverlayOutline(t *testing.T) {
	const w, h = 10, 10
	pix := filled(w*h, 0)

	faces := []postprocess.Face{
		{ID: 1, Box: image.Rect(2, 2, 8, 8), Score: 0.9, Verified: true},
	}

	opts := DefaultOverlayOptions()
	opts.LineThickness = 1
	require.NoError(t, Overlay(pix, w, h, faces, opts))

	green := Pack(color.NRGBA(Green))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			onEdge := image.Pt(x, y).In(image.Rect(2, 2, 8, 8)) &&
				(x == 2 || x == 7 || y == 2 || y == 7)

			if onEdge {
				assert.Equal(t, green, pix[y*w+x], "edge (%d,%d)", x, y)
			} else {
				assert.Equal(t, uint32(0), pix[y*w+x], "untouched (%d,%d)", x, y)
			}
		}
	}
}

func TestOverlayClipsAndColors(t *testing.T) {
	const w, h = 8, 8
	pix := filled(w*h, 0)

	faces := []postprocess.Face{
		{ID: 1, Box: image.Rect(-4, -4, 4, 4), Score: 1},
	}

	require.NoError(t, Overlay(pix, w, h, faces, DefaultOverlayOptions()))

	yellow := Pack(color.NRGBA(Yellow))
	assert.Equal(t, yellow, pix[3*w+0])
	assert.Equal(t, yellow, pix[2*w+3])
	assert.Equal(t, uint32(0), pix[0])
	assert.Equal(t, uint32(0), pix[5*w+5])
}

func TestOverlayLabels(t *testing.T) {
	const w, h = 64, 64
	pix := filled(w*h, 0)

	faces := []postprocess.Face{
		{ID: 7, Box: image.Rect(10, 30, 50, 60), Score: 0.75, Verified: true},
	}

	opts := DefaultOverlayOptions()
	opts.Labels = true
	require.NoError(t, Overlay(pix, w, h, faces, opts))

	// some label pixels are written above the box and the rest left alone
	above := 0
	for y := 0; y < 30; y++ {
		for x := 0; x < w; x++ {
			if pix[y*w+x] != 0 {
				above++
			}
		}
	}

	assert.Positive(t, above)
	assert.Less(t, above, 30*w/2)
}

func TestPaletteByID(t *testing.T) {
	assert.Equal(t, faceColors[1], ByID.faceColor(1, true))
	assert.Equal(t, faceColors[1], ByID.faceColor(int64(len(faceColors)+1), false))
	assert.Equal(t, Green, ByVerification.faceColor(1, true))
	assert.Equal(t, Yellow, ByVerification.faceColor(1, false))
}
