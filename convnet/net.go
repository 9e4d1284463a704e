// Package convnet implements forward propagation of small convolutional
// neural networks described in an XML format.  A network is an ordered list
// of planes, each plane holding a feature map computed from the feature maps
// of earlier planes.  The first plane is the source plane which receives the
// input image and the network output is the first value of the last plane.
package convnet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidNet is returned when a network description or the planes
	// added to a network do not form a valid network
	ErrInvalidNet = errors.New("invalid network")
	// ErrInputSize is returned when the input given to Forward does not match
	// the source plane size
	ErrInputSize = errors.New("input does not match source plane size")
)

// Net is a feed forward convolutional network.  A Net keeps per plane
// feature maps so Forward must not be called concurrently.
type Net struct {
	name    string
	creator string
	info    string
	planes  []Plane
	index   map[string]int
}

// New returns an empty network
func New(name, creator string) *Net {
	return &Net{
		name:    name,
		creator: creator,
		index:   make(map[string]int),
	}
}

// Name returns the name attribute of the network
func (n *Net) Name() string {
	return n.name
}

// Creator returns the creator attribute of the network
func (n *Net) Creator() string {
	return n.creator
}

// Info returns the free text description of the network
func (n *Net) Info() string {
	return n.info
}

// SetInfo sets the free text description of the network
func (n *Net) SetInfo(info string) {
	n.info = info
}

// Add appends a plane to the network, connecting it to the named parents
// and assigning its weights.  Parents must have been added before the plane
// and the first plane added must be a source plane.
func (n *Net) Add(plane Plane, parentIDs []string, weights []float64) error {
	id := plane.ID()

	if id == "" {
		return fmt.Errorf("plane has no id: %w", ErrInvalidNet)
	}

	if _, ok := n.index[id]; ok {
		return fmt.Errorf("duplicate plane id %q: %w", id, ErrInvalidNet)
	}

	if len(n.planes) == 0 && plane.Kind() != KindSource {
		return fmt.Errorf("first plane %q must be a source plane: %w", id, ErrInvalidNet)
	}

	if plane.Kind() != KindSource && len(parentIDs) == 0 {
		return fmt.Errorf("plane %q is not connected to anything: %w", id, ErrInvalidNet)
	}

	parents := make([]Plane, 0, len(parentIDs))

	for _, pid := range parentIDs {
		i, ok := n.index[pid]

		if !ok {
			return fmt.Errorf("plane %q connects to unknown or later plane %q: %w",
				id, pid, ErrInvalidNet)
		}

		parents = append(parents, n.planes[i])
	}

	if err := plane.Connect(parents); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidNet, err)
	}

	if err := plane.SetWeights(weights); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidNet, err)
	}

	n.index[id] = len(n.planes)
	n.planes = append(n.planes, plane)

	return nil
}

// Forward propagates the input through every plane and returns the value at
// (0,0) of the last plane.  Input rows are the image height and columns the
// image width.
func (n *Net) Forward(input mat.Matrix) (float64, error) {
	if len(n.planes) == 0 {
		return 0, fmt.Errorf("network has no planes: %w", ErrInvalidNet)
	}

	src, ok := n.planes[0].(*SourcePlane)

	if !ok {
		return 0, fmt.Errorf("first plane is not a source plane: %w", ErrInvalidNet)
	}

	if err := src.SetInput(input); err != nil {
		return 0, err
	}

	for _, p := range n.planes {
		if err := p.Forward(); err != nil {
			return 0, fmt.Errorf("error forward propagating plane %q: %w", p.ID(), err)
		}
	}

	return n.planes[len(n.planes)-1].FeatureMap().At(0, 0), nil
}

// FeatureMap returns the current feature map of the named plane
func (n *Net) FeatureMap(id string) (*mat.Dense, bool) {
	p, ok := n.Plane(id)

	if !ok {
		return nil, false
	}

	return p.FeatureMap(), true
}

// Plane returns the named plane
func (n *Net) Plane(id string) (Plane, bool) {
	i, ok := n.index[id]

	if !ok {
		return nil, false
	}

	return n.planes[i], true
}

// Planes returns the planes in propagation order
func (n *Net) Planes() []Plane {
	return append([]Plane(nil), n.planes...)
}

// InputSize returns the size of the source plane, or the zero Size for an
// empty network
func (n *Net) InputSize() Size {
	if len(n.planes) == 0 {
		return Size{}
	}

	return n.planes[0].FeatureMapSize()
}

// Summary writes one line per plane giving its kind, sizes, parents and
// weight count
func (n *Net) Summary(w io.Writer) error {

	total := 0

	for _, p := range n.planes {
		ids := make([]string, 0, len(p.Parents()))

		for _, parent := range p.Parents() {
			ids = append(ids, parent.ID())
		}

		total += len(p.Weights())

		_, err := fmt.Fprintf(w, "  %-12s %-12s fmap %-9s neuron %-7s weights %-6d <- %s\n",
			p.ID(), p.Kind(), p.FeatureMapSize(), p.NeuronSize(), len(p.Weights()),
			strings.Join(ids, ","))

		if err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Planes: %d, weights: %d\n", len(n.planes), total)
	return err
}
