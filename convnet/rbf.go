package convnet

// RBFPlane computes the squared euclidean distance between its weights and
// each stride one window of its parents, passed through the fast sigmoid
type RBFPlane struct {
	basePlane
}

// NewRBFPlane creates a radial basis function plane.  Each parent must be
// at least (fmap + neuron - 1) in both dimensions.
func NewRBFPlane(id string, fmapSize, neuronSize Size) *RBFPlane {
	return &RBFPlane{
		basePlane: newBasePlane(id, KindRBF, fmapSize, neuronSize),
	}
}

func (p *RBFPlane) Connect(parents []Plane) error {
	need := Size{
		Width:  p.fmapSize.Width + p.neuronSize.Width - 1,
		Height: p.fmapSize.Height + p.neuronSize.Height - 1,
	}

	if err := p.checkParents(parents, need); err != nil {
		return err
	}

	p.connect(parents)
	return nil
}

// SetWeights expects one window of centre values per parent, no bias
func (p *RBFPlane) SetWeights(weights []float64) error {
	return p.setWeights(weights, p.weightCount())
}

func (p *RBFPlane) weightCount() int {
	return len(p.parents) * p.neuronSize.Width * p.neuronSize.Height
}

func (p *RBFPlane) Forward() error {
	if err := p.ready(p.weightCount()); err != nil {
		return err
	}

	nw, nh := p.neuronSize.Width, p.neuronSize.Height

	for y := 0; y < p.fmapSize.Height; y++ {
		for x := 0; x < p.fmapSize.Width; x++ {
			sum := 0.0
			w := 0

			for _, parent := range p.parents {
				raw := parent.FeatureMap().RawMatrix()

				for j := 0; j < nh; j++ {
					row := raw.Data[(y+j)*raw.Stride+x:]

					for k := 0; k < nw; k++ {
						d := p.weights[w] - row[k]
						sum += d * d
						w++
					}
				}
			}

			p.fmap.Set(y, x, FastSigmoid(sum))
		}
	}

	return nil
}
