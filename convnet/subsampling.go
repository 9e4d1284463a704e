package convnet

// SubsamplingPlane sums non-overlapping windows of every parent and scales
// the sum with a trainable coefficient and bias before the fast sigmoid
type SubsamplingPlane struct {
	basePlane
}

// NewSubsamplingPlane creates a subsampling plane.  Each parent must be at
// least (fmap * neuron) in both dimensions.
func NewSubsamplingPlane(id string, fmapSize, neuronSize Size) *SubsamplingPlane {
	return &SubsamplingPlane{
		basePlane: newBasePlane(id, KindSubsampling, fmapSize, neuronSize),
	}
}

func (p *SubsamplingPlane) Connect(parents []Plane) error {
	if err := p.checkParents(parents, strided(p.fmapSize, p.neuronSize)); err != nil {
		return err
	}

	p.connect(parents)
	return nil
}

// SetWeights expects the bias followed by the window sum coefficient
func (p *SubsamplingPlane) SetWeights(weights []float64) error {
	return p.setWeights(weights, 2)
}

func (p *SubsamplingPlane) Forward() error {
	if err := p.ready(2); err != nil {
		return err
	}

	for y := 0; y < p.fmapSize.Height; y++ {
		for x := 0; x < p.fmapSize.Width; x++ {
			sum := 0.0

			for _, parent := range p.parents {
				sum += windowSum(parent, y*p.neuronSize.Height, x*p.neuronSize.Width, p.neuronSize)
			}

			p.fmap.Set(y, x, FastSigmoid(p.weights[0]+p.weights[1]*sum))
		}
	}

	return nil
}

// strided returns the parent size needed for a window sweep with a stride
// equal to the window
func strided(fmapSize, neuronSize Size) Size {
	return Size{
		Width:  fmapSize.Width * neuronSize.Width,
		Height: fmapSize.Height * neuronSize.Height,
	}
}

// windowSum adds up the parent values in the window at row, col
func windowSum(parent Plane, row, col int, window Size) float64 {
	raw := parent.FeatureMap().RawMatrix()
	sum := 0.0

	for j := 0; j < window.Height; j++ {
		off := (row+j)*raw.Stride + col

		for _, v := range raw.Data[off : off+window.Width] {
			sum += v
		}
	}

	return sum
}
