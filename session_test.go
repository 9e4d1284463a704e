package facedetect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestFindFacesBufferValidation(t *testing.T) {

	tests := []struct {
		name   string
		width  int
		height int
		yuv    int
		rgba   int
		want   error
	}{
		{"zero width", 0, 4, 24, 0, ErrFrameSize},
		{"negative height", 4, -4, 24, 16, ErrFrameSize},
		{"short yuv", 4, 4, 23, 16, ErrFrameSize},
		{"long yuv", 4, 4, 25, 16, ErrFrameSize},
		{"rgb sized yuv", 4, 4, 48, 16, ErrFrameSize},
		{"short rgba", 4, 4, 24, 15, ErrBufferSize},
		{"long rgba", 4, 4, 24, 17, ErrBufferSize},
		{"odd frame short rgba", 3, 3, 17, 8, ErrBufferSize},
	}

	// validation happens before the session is used so an unloaded session
	// is enough
	s := &Session{}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rgba := make([]uint32, tc.rgba)
			for i := range rgba {
				rgba[i] = 0xffabcdef
			}

			n, err := s.FindFaces(context.Background(), tc.width, tc.height,
				make([]byte, tc.yuv), rgba)

			assert.Equal(t, AnalysisFailed, n)
			assert.ErrorIs(t, err, ErrAnalysis)
			assert.ErrorIs(t, err, tc.want)

			for _, px := range rgba {
				assert.Equal(t, uint32(0xffabcdef), px)
			}
		})
	}
}

func TestSessionClosed(t *testing.T) {
	s := &Session{closed: true}
	ctx := context.Background()

	_, err := s.FindFaces(ctx, 2, 2, make([]byte, 6), make([]uint32, 4))
	assert.ErrorIs(t, err, ErrClosed)

	_, err = s.FrameFaces(ctx, 2, 2, make([]byte, 6))
	assert.ErrorIs(t, err, ErrClosed)

	img := gocv.NewMat()
	defer img.Close()

	_, err = s.Detect(ctx, img)
	assert.ErrorIs(t, err, ErrClosed)

	_, err = s.Score(ctx, img)
	assert.ErrorIs(t, err, ErrClosed)

	assert.NoError(t, s.Close())
}

func TestSessionScoreNoNetwork(t *testing.T) {
	s := &Session{}

	roi := gocv.NewMat()
	defer roi.Close()

	_, err := s.Score(context.Background(), roi)
	assert.ErrorIs(t, err, ErrNoNetwork)
	assert.ErrorIs(t, err, ErrAnalysis)
}

func TestNewSessionLoadFailures(t *testing.T) {
	dir := t.TempDir()
	cascade := filepath.Join(dir, "cascade.xml")
	require.NoError(t, os.WriteFile(cascade, []byte("<opencv_storage/>"), 0o644))

	badNet := filepath.Join(dir, "net.xml")
	require.NoError(t, os.WriteFile(badNet, []byte("<notanet/>"), 0o644))

	tests := []struct {
		name    string
		cascade string
		net     string
		opts    []Option
		msg     string
	}{
		{"no cascade", "", "", nil, "no cascade file"},
		{"missing cascade", filepath.Join(dir, "missing.xml"), "", nil, "does not exist"},
		{"cascade directory", dir, "", nil, "is a directory"},
		{"missing network", cascade, filepath.Join(dir, "missing.xml"), nil, "network file does not exist"},
		{"invalid network", cascade, badNet, nil, "net"},
		{"bad scale", cascade, "", []Option{WithScaleFactor(1)}, "scale factor"},
		{"zero std", cascade, "", []Option{WithNormalization(0, 0)}, "standard deviation"},
		{"negative size", cascade, "", []Option{WithFaceSize(-1, 0)}, "face sizes"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewSession(context.Background(), tc.cascade, tc.net, tc.opts...)

			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrLoad)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestCheckBuffersOddFrame(t *testing.T) {
	// 3x3 has 2x2 chroma planes
	assert.NoError(t, checkBuffers(3, 3, make([]byte, 17), make([]uint32, 9)))
}
