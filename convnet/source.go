package convnet

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SourcePlane holds the network input image.  It has no parents and no
// weights.
type SourcePlane struct {
	basePlane
}

// NewSourcePlane creates an input plane of the given size
func NewSourcePlane(id string, fmapSize Size) *SourcePlane {
	p := &SourcePlane{basePlane: newBasePlane(id, KindSource, fmapSize, Size{})}
	p.connected = true
	return p
}

// Connect fails if any parents are given
func (p *SourcePlane) Connect(parents []Plane) error {
	if len(parents) > 0 {
		return fmt.Errorf("source plane %q cannot have parents", p.id)
	}

	return nil
}

// SetWeights accepts only an empty weight list
func (p *SourcePlane) SetWeights(weights []float64) error {
	return p.setWeights(weights, 0)
}

// SetInput copies the input image into the feature map
func (p *SourcePlane) SetInput(input mat.Matrix) error {
	r, c := input.Dims()

	if r != p.fmapSize.Height || c != p.fmapSize.Width {
		return fmt.Errorf("source plane %q is %s, input is %dx%d: %w",
			p.id, p.fmapSize, c, r, ErrInputSize)
	}

	p.fmap.Copy(input)
	return nil
}

// Forward is a no-op, the feature map is set by SetInput
func (p *SourcePlane) Forward() error {
	return nil
}
