// ABOUTME: Multi-term geometric cost for stroke assignments
// ABOUTME: Weighted center/length/angle/relative-position distance and its fitness transform

package matcher

import (
	"math"

	"stroke-grader/stroke"
)

// UnmatchPenalty is the fixed cost charged for every written stroke left
// without a reference partner. It keeps "no match" a last resort: the GA
// only prefers it when every reference stroke is more expensive to align.
const UnmatchPenalty = 1000.0

// weights scales the four distance terms of the per-pair cost.
type weights struct {
	alpha   float64 // center-of-mass distance
	beta    float64 // arc length difference
	gamma   float64 // chord angle difference
	epsilon float64 // relative position difference
}

// distance computes the total cost of an assignment over two feature
// lists. assignment[i] = k maps written stroke i to reference stroke k-1;
// 0 and out-of-range genes charge UnmatchPenalty.
//
// The relative-position term compares each center's distance to the
// top-left corner of its own character's centroid bounding box, which
// stays stable under translational drift between the two frames.
func distance(written, reference []stroke.Features, assignment []int, w weights) float64 {
	writtenTL := centroidTopLeft(written)
	referenceTL := centroidTopLeft(reference)

	total := 0.0

	for i, ref := range assignment {
		if ref < 1 || ref > len(reference) {
			total += UnmatchPenalty
			continue
		}

		wf := written[i]
		rf := reference[ref-1]

		dCenter := wf.Center.Dist(rf.Center)
		dLength := math.Abs(wf.Length - rf.Length)
		dAngle := angleDiff(wf.Angle, rf.Angle)
		dRel := math.Abs(wf.Center.Dist(writtenTL) - rf.Center.Dist(referenceTL))

		total += w.alpha*dCenter + w.beta*dLength + w.gamma*dAngle + w.epsilon*dRel
	}

	return total
}

// fitnessOf converts a distance into a score in (0, 1], strictly
// decreasing in distance.
func fitnessOf(dist float64) float64 {
	return 1.0 / (1.0 + dist)
}

// angleDiff returns |a-b| wrapped to the shortest arc on the circle. The
// comparison against pi must happen after the absolute difference; the
// order decides ties exactly at the pi boundary.
func angleDiff(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > math.Pi {
		d = 2*math.Pi - d
	}

	return d
}

// centroidTopLeft returns the component-wise minima over the stroke
// centers: the top-left corner of the centroid bounding box.
func centroidTopLeft(feats []stroke.Features) stroke.Point {
	if len(feats) == 0 {
		return stroke.Point{}
	}

	tl := feats[0].Center

	for _, f := range feats[1:] {
		tl.X = math.Min(tl.X, f.Center.X)
		tl.Y = math.Min(tl.Y, f.Center.Y)
	}

	return tl
}
