//go:build integration
// +build integration

package facedetect

import (
	"context"
	"image"
	"os"
	"testing"

	"github.com/swdee/go-facedetect/preprocess"
	"gocv.io/x/gocv"
)

// integrationFiles returns the cascade, network and image paths from the
// FACEDETECT_CASCADE, FACEDETECT_NET and FACEDETECT_IMAGE environment
// variables.  The network is optional.
func integrationFiles(t *testing.T) (string, string, string) {

	cascade := os.Getenv("FACEDETECT_CASCADE")

	if cascade == "" {
		t.Fatalf("No cascade file provided in FACEDETECT_CASCADE")
	}

	imgFile := os.Getenv("FACEDETECT_IMAGE")

	if imgFile == "" {
		t.Fatalf("No image file provided in FACEDETECT_IMAGE")
	}

	return cascade, os.Getenv("FACEDETECT_NET"), imgFile
}

func TestDetectImage(t *testing.T) {

	cascade, net, imgFile := integrationFiles(t)
	ctx := context.Background()

	s, err := NewSession(ctx, cascade, net)

	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	defer s.Close()

	img := gocv.IMRead(imgFile, gocv.IMReadColor)

	if img.Empty() {
		t.Fatalf("Error reading image from: %s", imgFile)
	}

	defer img.Close()

	faces, err := s.Detect(ctx, img)

	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	if len(faces) == 0 {
		t.Fatalf("expected at least one face in %s", imgFile)
	}

	bounds := [4]int{0, 0, img.Cols(), img.Rows()}

	for i, f := range faces {
		if f.Box.Min.X < bounds[0] || f.Box.Min.Y < bounds[1] ||
			f.Box.Max.X > bounds[2] || f.Box.Max.Y > bounds[3] {
			t.Errorf("face %d: box %v outside image", i, f.Box)
		}

		if f.Verified != (net != "") {
			t.Errorf("face %d: verified %v with network %q", i, f.Verified, net)
		}

		if i > 0 && f.Score > faces[i-1].Score {
			t.Errorf("face %d: scores not descending", i)
		}
	}
}

func TestFindFacesFrame(t *testing.T) {

	cascade, net, imgFile := integrationFiles(t)

	img := gocv.IMRead(imgFile, gocv.IMReadColor)

	if img.Empty() {
		t.Fatalf("Error reading image from: %s", imgFile)
	}

	defer img.Close()

	// YUV conversion needs even dimensions
	w, h := img.Cols()&^1, img.Rows()&^1
	even := img.Region(image.Rect(0, 0, w, h))
	defer even.Close()

	bgr := even.Clone()
	defer bgr.Close()

	yuv, err := preprocess.FromBGR(bgr, preprocess.NV21)

	if err != nil {
		t.Fatalf("FromBGR error: %v", err)
	}

	handle := LoadFaceDetector(cascade, net)

	if handle == 0 {
		t.Fatalf("LoadFaceDetector failed: %v", LastError())
	}

	defer ReleaseFaceDetector(handle)

	rgba := make([]uint32, w*h)
	n := FindFaces(int32(w), int32(h), yuv, rgba)

	if n < 0 {
		t.Fatalf("FindFaces failed: %v", LastError())
	}

	if n == 0 {
		t.Fatalf("expected at least one face in %s", imgFile)
	}

	drawn := 0

	for _, px := range rgba {
		if px != 0 {
			drawn++
		}
	}

	if drawn == 0 {
		t.Errorf("no face outlines drawn for %d faces", n)
	}

	if !ReleaseFaceDetector(handle) {
		t.Errorf("release failed: %v", LastError())
	}

	if ReleaseFaceDetector(handle) {
		t.Errorf("second release of handle %d succeeded", handle)
	}
}

func TestFindFacesBlankFrame(t *testing.T) {

	cascade, _, _ := integrationFiles(t)

	handle := LoadFaceDetector(cascade, "")

	if handle == 0 {
		t.Fatalf("LoadFaceDetector failed: %v", LastError())
	}

	defer ReleaseFaceDetector(handle)

	// 4x4 NV21 frame of mid grey luma and neutral chroma
	yuv := make([]byte, 24)

	for i := range yuv {
		yuv[i] = 128
	}

	const sentinel = 0xff123456

	rgba := make([]uint32, 16)

	for i := range rgba {
		rgba[i] = sentinel
	}

	n := FindFaces(4, 4, yuv, rgba)

	if n != 0 {
		t.Fatalf("expected 0 faces in blank frame, got %d: %v", n, LastError())
	}

	for i, px := range rgba {
		if px != sentinel {
			t.Errorf("pixel %d changed to %#08x", i, px)
		}
	}
}

func TestFindFacesRepeatable(t *testing.T) {

	cascade, net, imgFile := integrationFiles(t)

	img := gocv.IMRead(imgFile, gocv.IMReadColor)

	if img.Empty() {
		t.Fatalf("Error reading image from: %s", imgFile)
	}

	defer img.Close()

	w, h := img.Cols()&^1, img.Rows()&^1
	even := img.Region(image.Rect(0, 0, w, h))
	defer even.Close()

	bgr := even.Clone()
	defer bgr.Close()

	yuv, err := preprocess.FromBGR(bgr, preprocess.NV21)

	if err != nil {
		t.Fatalf("FromBGR error: %v", err)
	}

	handle := LoadFaceDetector(cascade, net)

	if handle == 0 {
		t.Fatalf("LoadFaceDetector failed: %v", LastError())
	}

	defer ReleaseFaceDetector(handle)

	first := FindFaces(int32(w), int32(h), yuv, make([]uint32, w*h))
	second := FindFaces(int32(w), int32(h), yuv, make([]uint32, w*h))

	if first < 0 || second < 0 {
		t.Fatalf("FindFaces failed: %v", LastError())
	}

	if first != second {
		t.Errorf("same frame gave %d then %d faces", first, second)
	}
}
