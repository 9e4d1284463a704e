package convnet

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Kind identifies the type of neuron a Plane is made of
type Kind string

// plane kinds as named by the type attribute of the XML network description
const (
	KindSource      Kind = "source"
	KindConvolution Kind = "convolution"
	KindSubsampling Kind = "subsampling"
	KindMaxOperator Kind = "maxoperator"
	KindRBF         Kind = "rbf"
	KindMax         Kind = "max"
	KindRegression  Kind = "regression"
)

// MaxFeatureMapSize is the largest feature map or neuron window dimension
// accepted when building a network
const MaxFeatureMapSize = 2048

var (
	// ErrNotConnected is returned when forward propagating a plane that has
	// no parents assigned
	ErrNotConnected = errors.New("plane is not connected")
	// ErrWeightCount is returned when the number of weights given to a plane
	// does not match its topology
	ErrWeightCount = errors.New("wrong number of weights")
	// ErrParentSize is returned when a parent feature map is too small for
	// the neuron window sweep of its child
	ErrParentSize = errors.New("parent feature map too small")
)

// Size is the width and height of a feature map or neuron window
type Size struct {
	Width  int
	Height int
}

// String returns the size in the WxH notation used by the XML format
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Plane is a single feature map of the network together with the neuron
// that computes it from the feature maps of its parents
type Plane interface {
	// ID returns the unique name of the plane
	ID() string
	// Kind returns the neuron type of the plane
	Kind() Kind
	// FeatureMap returns the plane's current output values
	FeatureMap() *mat.Dense
	// FeatureMapSize returns the dimensions of the feature map
	FeatureMapSize() Size
	// NeuronSize returns the dimensions of the neuron window
	NeuronSize() Size
	// Parents returns the planes this plane reads from
	Parents() []Plane
	// Connect attaches the plane to its parents, validating that each parent
	// is large enough for the neuron window
	Connect(parents []Plane) error
	// Weights returns the neuron's weights, bias first where used
	Weights() []float64
	// SetWeights assigns the neuron's weights.  Connect must be called first
	// as the expected weight count depends on the number of parents
	SetWeights(weights []float64) error
	// Forward recomputes the feature map from the parents' feature maps
	Forward() error
}

// basePlane holds the state shared by every plane kind
type basePlane struct {
	id         string
	kind       Kind
	fmapSize   Size
	neuronSize Size
	// fmap is the feature map, rows are height and columns are width
	fmap      *mat.Dense
	parents   []Plane
	weights   []float64
	connected bool
}

func newBasePlane(id string, kind Kind, fmapSize, neuronSize Size) basePlane {
	return basePlane{
		id:         id,
		kind:       kind,
		fmapSize:   fmapSize,
		neuronSize: neuronSize,
		fmap:       mat.NewDense(fmapSize.Height, fmapSize.Width, nil),
	}
}

func (p *basePlane) ID() string             { return p.id }
func (p *basePlane) Kind() Kind             { return p.kind }
func (p *basePlane) FeatureMap() *mat.Dense { return p.fmap }
func (p *basePlane) FeatureMapSize() Size   { return p.fmapSize }
func (p *basePlane) NeuronSize() Size       { return p.neuronSize }
func (p *basePlane) Parents() []Plane       { return p.parents }
func (p *basePlane) Weights() []float64     { return p.weights }

// connect records the parents, the caller having validated their sizes
func (p *basePlane) connect(parents []Plane) {
	p.parents = append([]Plane(nil), parents...)
	p.connected = true
}

// setWeights stores a copy of the weights after checking the expected count
func (p *basePlane) setWeights(weights []float64, want int) error {
	if !p.connected {
		return fmt.Errorf("plane %q: %w", p.id, ErrNotConnected)
	}

	if len(weights) != want {
		return fmt.Errorf("plane %q expects %d weights, got %d: %w",
			p.id, want, len(weights), ErrWeightCount)
	}

	p.weights = append([]float64(nil), weights...)
	return nil
}

// ready reports whether the plane can forward propagate
func (p *basePlane) ready(want int) error {
	if !p.connected {
		return fmt.Errorf("plane %q: %w", p.id, ErrNotConnected)
	}

	if len(p.weights) != want {
		return fmt.Errorf("plane %q has %d of %d weights: %w",
			p.id, len(p.weights), want, ErrWeightCount)
	}

	return nil
}

// checkParents ensures every parent feature map covers a window sweep
// where the bottom right window starts at (need.Height-nh, need.Width-nw)
func (p *basePlane) checkParents(parents []Plane, need Size) error {
	for _, parent := range parents {
		got := parent.FeatureMapSize()

		if got.Width < need.Width || got.Height < need.Height {
			return fmt.Errorf("plane %q needs parent %q of at least %s, got %s: %w",
				p.id, parent.ID(), need, got, ErrParentSize)
		}
	}

	return nil
}

// NewPlane creates a plane of the given kind.  The feature map size is
// ignored for max and regression planes which always produce a single value.
func NewPlane(kind Kind, id string, fmapSize, neuronSize Size) (Plane, error) {
	switch kind {
	case KindSource:
		return NewSourcePlane(id, fmapSize), nil
	case KindConvolution:
		return NewConvolutionPlane(id, fmapSize, neuronSize), nil
	case KindSubsampling:
		return NewSubsamplingPlane(id, fmapSize, neuronSize), nil
	case KindMaxOperator:
		return NewMaxOperatorPlane(id, fmapSize, neuronSize), nil
	case KindRBF:
		return NewRBFPlane(id, fmapSize, neuronSize), nil
	case KindMax:
		return NewMaxPlane(id), nil
	case KindRegression:
		return NewRegressionPlane(id, neuronSize), nil
	default:
		return nil, fmt.Errorf("plane %q has unknown type %q", id, kind)
	}
}
