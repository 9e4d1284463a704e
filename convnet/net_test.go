package convnet

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// chainNet builds source(4x4) -> convolution(3x3) -> maxoperator(1x1) ->
// regression, which saturates to roughly 10 for any input
func chainNet(t *testing.T) *Net {
	t.Helper()

	n := New("chain", "test")

	conv := fill(5, 0)
	conv[0] = 10

	require.NoError(t, n.Add(NewSourcePlane("in", Size{4, 4}), nil, nil))
	require.NoError(t, n.Add(NewConvolutionPlane("c1", Size{3, 3}, Size{2, 2}), []string{"in"}, conv))
	require.NoError(t, n.Add(NewMaxOperatorPlane("m1", Size{1, 1}, Size{3, 3}), []string{"c1"}, nil))
	require.NoError(t, n.Add(NewRegressionPlane("out", Size{1, 1}), []string{"m1"}, []float64{0, 10}))

	return n
}

func TestNetForward(t *testing.T) {
	n := chainNet(t)

	out, err := n.Forward(mat.NewDense(4, 4, fill(16, 1)))
	require.NoError(t, err)
	assert.InDelta(t, 10, out, 1e-6)
	assert.InDelta(t, 10*math.Tanh(10), out, 1e-12)

	fm, ok := n.FeatureMap("c1")
	require.True(t, ok)
	assert.Equal(t, 3, fm.RawMatrix().Rows)

	_, ok = n.FeatureMap("missing")
	assert.False(t, ok)
}

func TestNetForwardInputSize(t *testing.T) {
	n := chainNet(t)

	_, err := n.Forward(mat.NewDense(5, 4, nil))
	assert.ErrorIs(t, err, ErrInputSize)
}

func TestNetForwardEmpty(t *testing.T) {
	_, err := New("", "").Forward(mat.NewDense(1, 1, nil))
	assert.ErrorIs(t, err, ErrInvalidNet)
}

func TestNetAccessors(t *testing.T) {
	n := chainNet(t)
	n.SetInfo("saturating chain")

	assert.Equal(t, "chain", n.Name())
	assert.Equal(t, "test", n.Creator())
	assert.Equal(t, "saturating chain", n.Info())
	assert.Equal(t, Size{4, 4}, n.InputSize())
	assert.Equal(t, Size{}, New("", "").InputSize())

	planes := n.Planes()
	require.Len(t, planes, 4)
	assert.Equal(t, "out", planes[3].ID())

	p, ok := n.Plane("m1")
	require.True(t, ok)
	assert.Equal(t, KindMaxOperator, p.Kind())
	assert.Equal(t, "c1", p.Parents()[0].ID())
}

func TestNetAddErrors(t *testing.T) {
	tests := []struct {
		name    string
		plane   func() Plane
		parents []string
		weights []float64
	}{
		{
			name:  "no id",
			plane: func() Plane { return NewMaxPlane("") },
		},
		{
			name:  "duplicate id",
			plane: func() Plane { return NewSourcePlane("in", Size{4, 4}) },
		},
		{
			name:  "not connected",
			plane: func() Plane { return NewMaxPlane("m") },
		},
		{
			name:    "unknown parent",
			plane:   func() Plane { return NewMaxPlane("m") },
			parents: []string{"later"},
		},
		{
			name:    "parent too small",
			plane:   func() Plane { return NewConvolutionPlane("c", Size{4, 4}, Size{2, 2}) },
			parents: []string{"in"},
			weights: fill(5, 0),
		},
		{
			name:    "weight count",
			plane:   func() Plane { return NewConvolutionPlane("c", Size{3, 3}, Size{2, 2}) },
			parents: []string{"in"},
			weights: fill(4, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New("", "")
			require.NoError(t, n.Add(NewSourcePlane("in", Size{4, 4}), nil, nil))

			err := n.Add(tt.plane(), tt.parents, tt.weights)
			assert.ErrorIs(t, err, ErrInvalidNet)
			assert.Len(t, n.Planes(), 1)
		})
	}
}

func TestNetFirstPlaneMustBeSource(t *testing.T) {
	n := New("", "")
	err := n.Add(NewRegressionPlane("r", Size{1, 1}), nil, []float64{0})
	assert.ErrorIs(t, err, ErrInvalidNet)
}

func TestNetSummary(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, chainNet(t).Summary(&buf))

	out := buf.String()
	assert.Contains(t, out, "c1")
	assert.Contains(t, out, "<- in")
	assert.Contains(t, out, "Planes: 4, weights: 7")
}
