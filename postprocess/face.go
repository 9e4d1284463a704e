package postprocess

import (
	"fmt"
	"image"
	"sort"

	"github.com/swdee/go-facedetect/postprocess/result"
)

// Face is a single detected face
type Face struct {
	// ID is a unique ID assigned to the face by the post processor
	ID int64
	// Box is the face location in image coordinates
	Box image.Rectangle
	// Score is the network output for the face region, or 1 when no network
	// was used
	Score float64
	// Verified is true when a network scored the face
	Verified bool
}

func (f Face) String() string {
	return fmt.Sprintf("face %d @ (%d %d %d %d) %.6f",
		f.ID, f.Box.Min.X, f.Box.Min.Y, f.Box.Max.X, f.Box.Max.Y, f.Score)
}

// FaceParams defines the post processing applied to candidate faces
type FaceParams struct {
	// ScoreThreshold is the minimum network score a verified face needs to be
	// kept.  Unverified faces are always kept.
	ScoreThreshold float64
	// NMSThreshold is the Non-Maximum Suppression threshold defining the
	// maximum allowed Intersection Over Union (IoU) between two faces for
	// both to be kept.  Zero disables suppression.
	NMSThreshold float64
	// MaxFaces is the maximum number of faces returned, zero is unlimited
	MaxFaces int
}

// DefaultFaceParams returns FaceParams configured with:
// - ScoreThreshold: 0
// - NMSThreshold: 0.3
// - MaxFaces: 0
func DefaultFaceParams() FaceParams {
	return FaceParams{
		ScoreThreshold: 0,
		NMSThreshold:   0.3,
		MaxFaces:       0,
	}
}

// FaceFilter turns candidate faces into the final face list
type FaceFilter struct {
	// Params are the post processing parameters
	Params FaceParams
	// idGen provides the next number for each face ID
	idGen *result.IDGenerator
}

// NewFaceFilter returns a post processor for candidate faces
func NewFaceFilter(p FaceParams) *FaceFilter {
	return &FaceFilter{
		Params: p,
		idGen:  result.NewIDGenerator(),
	}
}

// Process applies the score threshold, overlap suppression and face limit
// to the candidates and assigns each kept face an ID.  Kept faces are
// ordered by descending score with ties keeping candidate order.
func (f *FaceFilter) Process(candidates []Face) []Face {

	faces := make([]Face, 0, len(candidates))

	for _, c := range candidates {
		if c.Verified && c.Score < f.Params.ScoreThreshold {
			continue
		}

		faces = append(faces, c)
	}

	sort.SliceStable(faces, func(i, j int) bool {
		return faces[i].Score > faces[j].Score
	})

	if f.Params.NMSThreshold > 0 {
		faces = Suppress(faces, f.Params.NMSThreshold)
	}

	if f.Params.MaxFaces > 0 && len(faces) > f.Params.MaxFaces {
		faces = faces[:f.Params.MaxFaces]
	}

	for i := range faces {
		faces[i].ID = f.idGen.GetNext()
	}

	return faces
}
