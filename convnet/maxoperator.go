package convnet

import (
	"math"
)

// MaxOperatorPlane takes the maximum of non-overlapping windows across all
// parents.  It has no trainable weights but tolerates the two placeholder
// weights some network files carry.
type MaxOperatorPlane struct {
	basePlane
}

// NewMaxOperatorPlane creates a max pooling plane.  Each parent must be at
// least (fmap * neuron) in both dimensions.
func NewMaxOperatorPlane(id string, fmapSize, neuronSize Size) *MaxOperatorPlane {
	return &MaxOperatorPlane{
		basePlane: newBasePlane(id, KindMaxOperator, fmapSize, neuronSize),
	}
}

func (p *MaxOperatorPlane) Connect(parents []Plane) error {
	if err := p.checkParents(parents, strided(p.fmapSize, p.neuronSize)); err != nil {
		return err
	}

	p.connect(parents)
	return nil
}

// SetWeights accepts zero or two weights, neither is used
func (p *MaxOperatorPlane) SetWeights(weights []float64) error {
	if len(weights) == 2 {
		return p.setWeights(weights, 2)
	}

	return p.setWeights(weights, 0)
}

func (p *MaxOperatorPlane) Forward() error {
	if err := p.ready(len(p.weights)); err != nil {
		return err
	}

	nw, nh := p.neuronSize.Width, p.neuronSize.Height

	for y := 0; y < p.fmapSize.Height; y++ {
		for x := 0; x < p.fmapSize.Width; x++ {
			best := math.Inf(-1)

			for _, parent := range p.parents {
				raw := parent.FeatureMap().RawMatrix()

				for j := 0; j < nh; j++ {
					off := (y*nh+j)*raw.Stride + x*nw

					for _, v := range raw.Data[off : off+nw] {
						best = math.Max(best, v)
					}
				}
			}

			p.fmap.Set(y, x, best)
		}
	}

	return nil
}
