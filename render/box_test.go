package render

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"

	"github.com/swdee/go-facedetect/postprocess"
)

func TestFaceBoxes(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 100, 100, gocv.MatTypeCV8UC3)
	defer img.Close()

	faces := []postprocess.Face{
		{ID: 1, Box: image.Rect(20, 40, 60, 80), Score: 0.8, Verified: true},
	}

	font := DefaultFont()
	FaceBoxes(&img, faces, ByVerification, &font, 1)

	// gocv colors are BGR
	px := img.GetVecbAt(40, 40)
	assert.Equal(t, []uint8{0, 255, 0}, []uint8{px[0], px[1], px[2]})

	inside := img.GetVecbAt(60, 40)
	assert.Equal(t, []uint8{0, 0, 0}, []uint8{inside[0], inside[1], inside[2]})
}

func TestFaceLabel(t *testing.T) {
	assert.Equal(t, "#3 0.50", faceLabel(postprocess.Face{ID: 3, Score: 0.5, Verified: true}))
	assert.Equal(t, "#3", faceLabel(postprocess.Face{ID: 3, Score: 1}))
}
