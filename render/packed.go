package render

import (
	"fmt"

	"gocv.io/x/gocv"
)

// PackMat converts a BGR or BGRA image into opaque 0xAARRGGBB pixels, the
// layout Overlay draws onto
func PackMat(img gocv.Mat) ([]uint32, error) {

	ch := img.Channels()

	if img.Empty() || (ch != 3 && ch != 4) {
		return nil, fmt.Errorf("expected a BGR or BGRA image, got %d channels", ch)
	}

	w, h := img.Cols(), img.Rows()
	pix := make([]uint32, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// only the first three channels are read so alpha is always opaque
			b := uint32(img.GetUCharAt(y, x*ch))
			g := uint32(img.GetUCharAt(y, x*ch+1))
			r := uint32(img.GetUCharAt(y, x*ch+2))
			pix[y*w+x] = 0xff000000 | r<<16 | g<<8 | b
		}
	}

	return pix, nil
}

// ToMat converts the packed pixels to a 4 channel BGRA Mat for saving with
// gocv.IMWrite.  The Mat must be closed by the caller.
func (p *PackedImage) ToMat() (gocv.Mat, error) {
	return gocv.ImageToMatRGBA(p)
}
