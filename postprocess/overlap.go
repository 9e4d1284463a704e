package postprocess

import (
	"image"

	clipper "github.com/ctessum/go.clipper"
)

// Suppress implements Non-Maximum Suppression over faces already sorted by
// descending score.  A face is dropped when its IoU with a kept face exceeds
// threshold.
func Suppress(faces []Face, threshold float64) []Face {

	keep := make([]Face, 0, len(faces))

	for _, f := range faces {
		suppressed := false

		for _, k := range keep {
			if IoU(f.Box, k.Box) > threshold {
				suppressed = true
				break
			}
		}

		if !suppressed {
			keep = append(keep, f)
		}
	}

	return keep
}

// IoU returns the Intersection over Union of two boxes
func IoU(a, b image.Rectangle) float64 {

	areaA := pathArea(rectPath(a))
	areaB := pathArea(rectPath(b))

	if areaA <= 0 || areaB <= 0 {
		return 0
	}

	inter := intersectionArea(a, b)
	union := areaA + areaB - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}

// intersectionArea clips one box against the other
func intersectionArea(a, b image.Rectangle) float64 {

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(rectPath(a), clipper.PtSubject, true)
	c.AddPath(rectPath(b), clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)

	if !ok {
		return 0
	}

	area := 0.0

	for _, path := range solution {
		area += pathArea(path)
	}

	return area
}

// rectPath converts a box to a closed clockwise polygon
func rectPath(r image.Rectangle) clipper.Path {
	pt := func(x, y int) *clipper.IntPoint {
		return &clipper.IntPoint{X: clipper.CInt(x), Y: clipper.CInt(y)}
	}

	return clipper.Path{
		pt(r.Min.X, r.Min.Y),
		pt(r.Max.X, r.Min.Y),
		pt(r.Max.X, r.Max.Y),
		pt(r.Min.X, r.Max.Y),
	}
}

// pathArea is the shoelace area of a polygon, independent of orientation
func pathArea(path clipper.Path) float64 {

	n := len(path)

	if n < 3 {
		return 0
	}

	sum := 0.0

	for i := 0; i < n; i++ {
		p, q := path[i], path[(i+1)%n]
		sum += float64(p.X)*float64(q.Y) - float64(q.X)*float64(p.Y)
	}

	if sum < 0 {
		sum = -sum
	}

	return sum / 2
}
