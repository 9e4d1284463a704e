// Package tracker follows faces across consecutive video frames so each
// person keeps the same face ID while they stay in view
package tracker

import (
	"image"
	"math"
	"sort"

	"github.com/swdee/go-facedetect/postprocess"
	"github.com/swdee/go-facedetect/postprocess/result"
)

// Params defines the tracker matching configuration
type Params struct {
	// MinIoU is the minimum overlap between a predicted track box and a
	// detected face for them to be matched
	MinIoU float64
	// MaxMisses is the number of consecutive frames a track is kept without
	// a matching face
	MaxMisses int
	// MinHits is the number of matched frames before a track is reported
	MinHits int
	// StdPosition and StdVelocity weight the Kalman filter noise
	StdPosition float64
	StdVelocity float64
}

// DefaultParams returns Params configured with:
// - MinIoU: 0.3
// - MaxMisses: 30
// - MinHits: 1
// - StdPosition: 1/20
// - StdVelocity: 1/160
func DefaultParams() Params {
	return Params{
		MinIoU:      0.3,
		MaxMisses:   30,
		MinHits:     1,
		StdPosition: 1.0 / 20,
		StdVelocity: 1.0 / 160,
	}
}

// Track is a face followed over several frames
type Track struct {
	// ID is the face ID given to every face matched to the track
	ID int64
	// Face is the most recent face matched to the track
	Face postprocess.Face
	// Hits is the number of frames the track has been matched in
	Hits int
	// Misses is the number of consecutive frames without a match
	Misses int
	state  State
}

// Predicted returns the filtered box of the track
func (t *Track) Predicted() image.Rectangle {
	return toRect(t.state.Box())
}

// FaceTracker assigns stable IDs to faces detected in a sequence of frames
type FaceTracker struct {
	// Params are the tracker parameters
	Params Params
	kf     *KalmanFilter
	tracks []*Track
	idGen  *result.IDGenerator
}

// NewFaceTracker returns a tracker with no tracks
func NewFaceTracker(p Params) *FaceTracker {
	return &FaceTracker{
		Params: p,
		kf:     NewKalmanFilter(p.StdPosition, p.StdVelocity),
		idGen:  result.NewIDGenerator(),
	}
}

// Reset drops all tracks, IDs keep increasing
func (ft *FaceTracker) Reset() {
	ft.tracks = nil
}

// Tracks returns the tracks currently followed
func (ft *FaceTracker) Tracks() []Track {

	out := make([]Track, len(ft.tracks))

	for i, t := range ft.tracks {
		out[i] = *t
	}

	return out
}

// pair is a candidate match between a track and a face
type pair struct {
	track int
	face  int
	iou   float64
}

// Update matches the faces of the next frame to the existing tracks.  It
// returns the faces of confirmed tracks in input order with their ID set to
// the track ID.
func (ft *FaceTracker) Update(faces []postprocess.Face) ([]postprocess.Face, error) {

	for _, t := range ft.tracks {
		t.state = ft.kf.Predict(t.state)
	}

	pairs := make([]pair, 0, len(ft.tracks))

	for ti, t := range ft.tracks {
		predicted := t.Predicted()

		for fi, f := range faces {
			if iou := postprocess.IoU(predicted, f.Box); iou >= ft.Params.MinIoU && iou > 0 {
				pairs = append(pairs, pair{track: ti, face: fi, iou: iou})
			}
		}
	}

	// greedy assignment, best overlap first
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].iou > pairs[j].iou
	})

	trackOf := make([]*Track, len(faces))
	matched := make([]bool, len(ft.tracks))

	for _, p := range pairs {
		if matched[p.track] || trackOf[p.face] != nil {
			continue
		}

		t := ft.tracks[p.track]
		state, err := ft.kf.Update(t.state, toMeasurement(faces[p.face].Box))

		if err != nil {
			return nil, err
		}

		t.state = state
		t.Hits++
		t.Misses = 0

		matched[p.track] = true
		trackOf[p.face] = t
	}

	// age unmatched tracks, dropping those lost for too long
	kept := ft.tracks[:0]

	for i, t := range ft.tracks {
		if !matched[i] {
			t.Misses++

			if t.Misses > ft.Params.MaxMisses {
				continue
			}
		}

		kept = append(kept, t)
	}

	ft.tracks = kept

	out := make([]postprocess.Face, 0, len(faces))

	for i, f := range faces {
		t := trackOf[i]

		if t == nil {
			t = &Track{
				ID:    ft.idGen.GetNext(),
				Hits:  1,
				state: ft.kf.Initiate(toMeasurement(f.Box)),
			}

			ft.tracks = append(ft.tracks, t)
		}

		f.ID = t.ID
		t.Face = f

		if t.Hits >= ft.Params.MinHits {
			out = append(out, f)
		}
	}

	return out, nil
}

// toMeasurement converts a box to centre, aspect ratio and height
func toMeasurement(r image.Rectangle) Measurement {

	w := float64(r.Dx())
	h := math.Max(float64(r.Dy()), 1)

	return Measurement{
		float64(r.Min.X) + w/2,
		float64(r.Min.Y) + h/2,
		w / h,
		h,
	}
}

// toRect converts a measurement back to a box
func toRect(m Measurement) image.Rectangle {

	h := m[3]
	w := m[2] * h

	return image.Rect(
		int(math.Round(m[0]-w/2)),
		int(math.Round(m[1]-h/2)),
		int(math.Round(m[0]+w/2)),
		int(math.Round(m[1]+h/2)),
	)
}
