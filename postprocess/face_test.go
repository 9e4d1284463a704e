package postprocess

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b image.Rectangle
		want float64
	}{
		{"identical", image.Rect(0, 0, 10, 10), image.Rect(0, 0, 10, 10), 1},
		{"disjoint", image.Rect(0, 0, 10, 10), image.Rect(20, 20, 30, 30), 0},
		{"touching", image.Rect(0, 0, 10, 10), image.Rect(10, 0, 20, 10), 0},
		{"half overlap", image.Rect(0, 0, 10, 10), image.Rect(5, 0, 15, 10), 50.0 / 150},
		{"contained", image.Rect(0, 0, 10, 10), image.Rect(0, 0, 5, 5), 25.0 / 100},
		{"empty", image.Rect(0, 0, 0, 0), image.Rect(0, 0, 5, 5), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, IoU(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, IoU(tt.b, tt.a), 1e-9)
		})
	}
}

func TestFaceFilterProcess(t *testing.T) {
	candidates := []Face{
		{Box: image.Rect(0, 0, 10, 10), Score: 0.4, Verified: true},
		{Box: image.Rect(1, 1, 11, 11), Score: 0.9, Verified: true},
		{Box: image.Rect(50, 50, 60, 60), Score: 0.1, Verified: true},
		{Box: image.Rect(100, 100, 120, 120), Score: 0.7, Verified: true},
	}

	f := NewFaceFilter(FaceParams{ScoreThreshold: 0.2, NMSThreshold: 0.5})
	faces := f.Process(candidates)

	require.Len(t, faces, 2)
	assert.Equal(t, image.Rect(1, 1, 11, 11), faces[0].Box)
	assert.Equal(t, image.Rect(100, 100, 120, 120), faces[1].Box)
	assert.Equal(t, int64(1), faces[0].ID)
	assert.Equal(t, int64(2), faces[1].ID)

	// ids keep increasing across calls
	faces = f.Process(candidates[:1])
	require.Len(t, faces, 1)
	assert.Equal(t, int64(3), faces[0].ID)
}

func TestFaceFilterUnverified(t *testing.T) {
	candidates := []Face{
		{Box: image.Rect(0, 0, 10, 10), Score: 1},
		{Box: image.Rect(2, 2, 12, 12), Score: 1},
		{Box: image.Rect(40, 0, 50, 10), Score: 1},
	}

	t.Run("threshold ignored", func(t *testing.T) {
		f := NewFaceFilter(FaceParams{ScoreThreshold: 5})
		assert.Len(t, f.Process(candidates), 3)
	})

	t.Run("suppression keeps first of equal scores", func(t *testing.T) {
		f := NewFaceFilter(FaceParams{NMSThreshold: 0.3})
		faces := f.Process(candidates)

		require.Len(t, faces, 2)
		assert.Equal(t, image.Rect(0, 0, 10, 10), faces[0].Box)
		assert.Equal(t, image.Rect(40, 0, 50, 10), faces[1].Box)
	})

	t.Run("max faces", func(t *testing.T) {
		f := NewFaceFilter(FaceParams{MaxFaces: 1})
		assert.Len(t, f.Process(candidates), 1)
	})

	t.Run("no candidates", func(t *testing.T) {
		f := NewFaceFilter(DefaultFaceParams())
		assert.Empty(t, f.Process(nil))
	})
}

func TestFaceString(t *testing.T) {
	f := Face{ID: 3, Box: image.Rect(1, 2, 3, 4), Score: 0.5}
	assert.Equal(t, "face 3 @ (1 2 3 4) 0.500000", f.String())
}
