package convnet

// RegressionPlane is a single linear neuron reading the top left window of
// every parent.  Its output is not squashed.
type RegressionPlane struct {
	basePlane
}

// NewRegressionPlane creates a regression plane with a 1x1 feature map
func NewRegressionPlane(id string, neuronSize Size) *RegressionPlane {
	return &RegressionPlane{
		basePlane: newBasePlane(id, KindRegression, Size{Width: 1, Height: 1}, neuronSize),
	}
}

func (p *RegressionPlane) Connect(parents []Plane) error {
	if err := p.checkParents(parents, p.neuronSize); err != nil {
		return err
	}

	p.connect(parents)
	return nil
}

// SetWeights expects the bias followed by one window of weights per parent
func (p *RegressionPlane) SetWeights(weights []float64) error {
	return p.setWeights(weights, p.weightCount())
}

func (p *RegressionPlane) weightCount() int {
	return 1 + len(p.parents)*p.neuronSize.Width*p.neuronSize.Height
}

func (p *RegressionPlane) Forward() error {
	if err := p.ready(p.weightCount()); err != nil {
		return err
	}

	sum := p.weights[0]
	w := 1

	for _, parent := range p.parents {
		fm := parent.FeatureMap()

		for j := 0; j < p.neuronSize.Height; j++ {
			for k := 0; k < p.neuronSize.Width; k++ {
				sum += p.weights[w] * fm.At(j, k)
				w++
			}
		}
	}

	p.fmap.Set(0, 0, sum)
	return nil
}
