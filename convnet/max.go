package convnet

import (
	"gonum.org/v1/gonum/floats"
)

// MaxPlane outputs the index of the parent whose first feature map value is
// the largest.  It is used as a classifier over a set of 1x1 outputs.
type MaxPlane struct {
	basePlane
	values []float64
}

// NewMaxPlane creates an argmax plane with a 1x1 feature map
func NewMaxPlane(id string) *MaxPlane {
	return &MaxPlane{
		basePlane: newBasePlane(id, KindMax, Size{Width: 1, Height: 1}, Size{}),
	}
}

func (p *MaxPlane) Connect(parents []Plane) error {
	if err := p.checkParents(parents, Size{Width: 1, Height: 1}); err != nil {
		return err
	}

	p.connect(parents)
	p.values = make([]float64, len(parents))
	return nil
}

// SetWeights accepts only an empty weight list
func (p *MaxPlane) SetWeights(weights []float64) error {
	return p.setWeights(weights, 0)
}

func (p *MaxPlane) Forward() error {
	if err := p.ready(0); err != nil {
		return err
	}

	if len(p.parents) == 0 {
		return ErrNotConnected
	}

	for i, parent := range p.parents {
		p.values[i] = parent.FeatureMap().At(0, 0)
	}

	p.fmap.Set(0, 0, float64(floats.MaxIdx(p.values)))
	return nil
}
