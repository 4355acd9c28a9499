// ABOUTME: Preprocessing applied to raw corpus and attempt data before matching
// ABOUTME: Arc-length resampling to a fixed sample count and per-character y-axis inversion

package stroke

import "math"

// Resample returns a copy of s resampled to n points spaced uniformly
// along its arc length, using linear interpolation between the original
// samples. The endpoints are preserved. Strokes with fewer than two points
// and requests for fewer than two samples return an unmodified copy.
func Resample(s Stroke, n int) Stroke {
	if len(s) < 2 || n < 2 {
		return s.Clone()
	}

	cum := make([]float64, len(s))
	for i := 1; i < len(s); i++ {
		cum[i] = cum[i-1] + s[i-1].Dist(s[i])
	}

	total := cum[len(cum)-1]
	out := make(Stroke, n)

	// All samples coincide: nothing to interpolate along.
	if total == 0 {
		for i := range out {
			out[i] = s[0]
		}

		return out
	}

	seg := 1

	for i := range n {
		target := total * float64(i) / float64(n-1)

		for seg < len(cum)-1 && cum[seg] < target {
			seg++
		}

		span := cum[seg] - cum[seg-1]

		t := 0.0
		if span > 0 {
			t = (target - cum[seg-1]) / span
		}

		a, b := s[seg-1], s[seg]
		out[i] = Point{
			X: a.X + (b.X-a.X)*t,
			Y: a.Y + (b.Y-a.Y)*t,
		}
	}

	return out
}

// ResampleAll resamples every stroke of a character to n points.
func ResampleAll(strokes []Stroke, n int) []Stroke {
	out := make([]Stroke, len(strokes))
	for i, s := range strokes {
		out[i] = Resample(s, n)
	}

	return out
}

// InvertY mirrors a character across its horizontal midline. Corpus data
// uses a y-up font coordinate system while the engine treats y as growing
// downwards in drawing space.
func InvertY(strokes []Stroke) []Stroke {
	if len(strokes) == 0 {
		return []Stroke{}
	}

	yMin, yMax := math.Inf(1), math.Inf(-1)

	for _, s := range strokes {
		for _, p := range s {
			yMin = math.Min(yMin, p.Y)
			yMax = math.Max(yMax, p.Y)
		}
	}

	out := make([]Stroke, len(strokes))

	for i, s := range strokes {
		ns := make(Stroke, len(s))
		for j, p := range s {
			ns[j] = Point{X: p.X, Y: yMax + yMin - p.Y}
		}

		out[i] = ns
	}

	return out
}

// Preprocess resamples every stroke to n points and optionally flips the
// y axis. Bounding-box normalization is left to the matching engine.
func Preprocess(strokes []Stroke, n int, flipY bool) []Stroke {
	out := ResampleAll(strokes, n)
	if flipY {
		out = InvertY(out)
	}

	return out
}
