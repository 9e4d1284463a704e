package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-facedetect/postprocess"
	"gocv.io/x/gocv"
)

// boxLabel is a label rendered after all boxes so it sits on top
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// FaceBoxes renders the bounding boxes around the faces detected.  When
// font is nil no score labels are drawn.
func FaceBoxes(img *gocv.Mat, faces []postprocess.Face, palette Palette,
	font *Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(faces))

	for _, face := range faces {

		useClr := palette.faceColor(face.ID, face.Verified)
		box := face.Box

		// draw rectangle around detected face
		gocv.Rectangle(img, box, useClr, lineThickness)

		if font == nil {
			continue
		}

		text := faceLabel(face)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (box.Min.X + box.Max.X) / 2

		case Right:
			centerX = box.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = box.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		// Adjust the label position so the text is centered horizontally
		labelPosition := image.Pt(centerX-textSize.X/2, box.Min.Y-font.BottomPad)

		// create box for placing text on
		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			box.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, box.Min.Y)

		boxLabels = append(boxLabels, boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		})
	}

	for _, label := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, label.rect, label.clr, -1)

		gocv.PutTextWithParams(img, label.text, label.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// faceLabel is the text drawn above a face
func faceLabel(face postprocess.Face) string {
	if !face.Verified {
		return fmt.Sprintf("#%d", face.ID)
	}

	return fmt.Sprintf("#%d %.2f", face.ID, face.Score)
}
