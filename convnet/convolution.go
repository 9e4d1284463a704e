package convnet

import (
	"math"
)

// ConvolutionPlane sweeps a neuron window with stride one over every parent
// and squashes the weighted sum with tanh
type ConvolutionPlane struct {
	basePlane
}

// NewConvolutionPlane creates a convolution plane.  Each parent must be at
// least (fmap + neuron - 1) in both dimensions.
func NewConvolutionPlane(id string, fmapSize, neuronSize Size) *ConvolutionPlane {
	return &ConvolutionPlane{
		basePlane: newBasePlane(id, KindConvolution, fmapSize, neuronSize),
	}
}

func (p *ConvolutionPlane) Connect(parents []Plane) error {
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

// SetWeights expects the bias followed by one window of weights per parent
func (p *ConvolutionPlane) SetWeights(weights []float64) error {
	return p.setWeights(weights, p.weightCount())
}

func (p *ConvolutionPlane) weightCount() int {
	return 1 + len(p.parents)*p.neuronSize.Width*p.neuronSize.Height
}

func (p *ConvolutionPlane) Forward() error {
	if err := p.ready(p.weightCount()); err != nil {
		return err
	}

	nw, nh := p.neuronSize.Width, p.neuronSize.Height

	for y := 0; y < p.fmapSize.Height; y++ {
		for x := 0; x < p.fmapSize.Width; x++ {
			sum := p.weights[0]
			w := 1

			for _, parent := range p.parents {
				raw := parent.FeatureMap().RawMatrix()

				for j := 0; j < nh; j++ {
					row := raw.Data[(y+j)*raw.Stride+x:]

					for k := 0; k < nw; k++ {
						sum += p.weights[w] * row[k]
						w++
					}
				}
			}

			p.fmap.Set(y, x, math.Tanh(sum))
		}
	}

	return nil
}
