// ABOUTME: Per-stroke geometric descriptors used by the matching engine
// ABOUTME: Computes center of mass, arc length, chord angle and endpoints

package stroke

import "math"

// zeroChordEpsilon is the chord length below which a stroke has no usable
// orientation and its angle is reported as 0.
const zeroChordEpsilon = 1e-6

// Features holds the derived descriptors of a single stroke. Features
// depend only on the stroke's own points; there is no cross-stroke state.
type Features struct {
	Center Point   // arithmetic mean of all samples
	Length float64 // arc length over consecutive samples
	Angle  float64 // chord orientation from the +y axis, (-pi, pi]
	Start  Point   // first sample
	End    Point   // last sample
	Points Stroke  // retained polyline
}

// ExtractFeatures computes the descriptors for one stroke. The angle is
// the orientation of the chord from the first to the last sample measured
// from the positive y axis via atan2(dx, dy); it deliberately ignores the
// samples in between, which makes it robust to mid-stroke wobble while
// still flipping by pi when the stroke is drawn backwards.
func ExtractFeatures(s Stroke) Features {
	if len(s) == 0 {
		return Features{}
	}

	var sumX, sumY float64
	for _, p := range s {
		sumX += p.X
		sumY += p.Y
	}

	n := float64(len(s))

	var length float64
	for i := 1; i < len(s); i++ {
		length += s[i-1].Dist(s[i])
	}

	start := s[0]
	end := s[len(s)-1]
	dx := end.X - start.X
	dy := end.Y - start.Y

	angle := 0.0
	if math.Hypot(dx, dy) >= zeroChordEpsilon {
		angle = math.Atan2(dx, dy)
	}

	return Features{
		Center: Point{X: sumX / n, Y: sumY / n},
		Length: length,
		Angle:  angle,
		Start:  start,
		End:    end,
		Points: s,
	}
}

// ExtractAll computes features for every stroke in order.
func ExtractAll(strokes []Stroke) []Features {
	feats := make([]Features, len(strokes))
	for i, s := range strokes {
		feats[i] = ExtractFeatures(s)
	}

	return feats
}
