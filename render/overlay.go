package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-facedetect/postprocess"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// ErrBufferSize is returned when a packed pixel buffer does not hold exactly
// width*height pixels
var ErrBufferSize = errors.New("pixel buffer size mismatch")

// PackedImage is a draw.Image over a row-major buffer of 0xAARRGGBB pixels,
// the layout of Android ARGB_8888 bitmaps read as ints
type PackedImage struct {
	Pix    []uint32
	Width  int
	Height int
}

var _ draw.Image = (*PackedImage)(nil)

// NewPackedImage wraps pix as an image of the given dimensions
func NewPackedImage(pix []uint32, width, height int) (*PackedImage, error) {
	if width <= 0 || height <= 0 || len(pix) != width*height {
		return nil, fmt.Errorf("buffer of %d pixels for %dx%d image: %w",
			len(pix), width, height, ErrBufferSize)
	}

	return &PackedImage{Pix: pix, Width: width, Height: height}, nil
}

func (p *PackedImage) ColorModel() color.Model {
	return color.NRGBAModel
}

func (p *PackedImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

func (p *PackedImage) At(x, y int) color.Color {
	if !image.Pt(x, y).In(p.Bounds()) {
		return color.NRGBA{}
	}

	v := p.Pix[y*p.Width+x]

	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(v >> 24),
	}
}

func (p *PackedImage) Set(x, y int, c color.Color) {
	if !image.Pt(x, y).In(p.Bounds()) {
		return
	}

	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	p.Pix[y*p.Width+x] = Pack(n)
}

// Pack converts a color to a 0xAARRGGBB pixel
func Pack(c color.NRGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// OverlayOptions control how faces are drawn onto a packed buffer
type OverlayOptions struct {
	// Palette selects face outline colors
	Palette Palette
	// LineThickness is the outline width in pixels, drawn inside the box
	LineThickness int
	// Labels draws the face ID and score above each face
	Labels bool
}

// DefaultOverlayOptions returns outline only rendering, 2 pixels wide
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		Palette:       ByVerification,
		LineThickness: 2,
	}
}

// Overlay draws face outlines onto a packed 0xAARRGGBB buffer.  Only outline
// and label pixels are written so a buffer with no faces is left unchanged.
func Overlay(pix []uint32, width, height int, faces []postprocess.Face, opts OverlayOptions) error {

	img, err := NewPackedImage(pix, width, height)

	if err != nil {
		return err
	}

	thickness := opts.LineThickness
	if thickness < 1 {
		thickness = 1
	}

	for _, face := range faces {
		clr := opts.Palette.faceColor(face.ID, face.Verified)
		outline(img, face.Box, clr, thickness)

		if opts.Labels {
			label(img, face, clr)
		}
	}

	return nil
}

// outline fills the four edge strips of box, clipped to the image
func outline(dst draw.Image, box image.Rectangle, clr color.RGBA, thickness int) {

	box = box.Canon()

	if box.Empty() {
		return
	}

	src := image.NewUniform(clr)
	t := thickness

	if 2*t > box.Dx() || 2*t > box.Dy() {
		// thin boxes are filled
		draw.Draw(dst, box.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
		return
	}

	strips := []image.Rectangle{
		image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+t),
		image.Rect(box.Min.X, box.Max.Y-t, box.Max.X, box.Max.Y),
		image.Rect(box.Min.X, box.Min.Y+t, box.Min.X+t, box.Max.Y-t),
		image.Rect(box.Max.X-t, box.Min.Y+t, box.Max.X, box.Max.Y-t),
	}

	for _, s := range strips {
		draw.Draw(dst, s.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

// label writes the face label above the box, or inside it when the box
// touches the top of the image
func label(dst draw.Image, face postprocess.Face, clr color.RGBA) {

	face7 := bitmapFace()
	metrics := face7.Metrics()

	baseline := face.Box.Min.Y - metrics.Descent.Ceil() - 1
	if baseline-metrics.Ascent.Ceil() < 0 {
		baseline = face.Box.Min.Y + metrics.Ascent.Ceil() + 1
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(clr),
		Face: face7,
		Dot:  fixed.P(face.Box.Min.X, baseline),
	}

	d.DrawString(faceLabel(face))
}
