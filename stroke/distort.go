// ABOUTME: Seeded stochastic corruption of characters for demos and end-to-end tests
// ABOUTME: Injects the error classes the matcher is built to detect

package stroke

import "math/rand/v2"

// Jitter returns a copy of the character with Gaussian noise of the given
// standard deviation added to every sample, imitating motor noise.
func Jitter(rng *rand.Rand, strokes []Stroke, sigma float64) []Stroke {
	out := make([]Stroke, len(strokes))

	for i, s := range strokes {
		ns := make(Stroke, len(s))
		for j, p := range s {
			ns[j] = Point{
				X: p.X + rng.NormFloat64()*sigma,
				Y: p.Y + rng.NormFloat64()*sigma,
			}
		}

		out[i] = ns
	}

	return out
}

// DropStroke removes stroke i, producing a missing-stroke error.
func DropStroke(strokes []Stroke, i int) []Stroke {
	if i < 0 || i >= len(strokes) {
		return CloneAll(strokes)
	}

	out := make([]Stroke, 0, len(strokes)-1)
	for j, s := range strokes {
		if j == i {
			continue
		}

		out = append(out, s.Clone())
	}

	return out
}

// ReverseStroke flips the drawing direction of stroke i, producing an
// orientation error.
func ReverseStroke(strokes []Stroke, i int) []Stroke {
	out := CloneAll(strokes)
	if i < 0 || i >= len(out) {
		return out
	}

	s := out[i]
	for a, b := 0, len(s)-1; a < b; a, b = a+1, b-1 {
		s[a], s[b] = s[b], s[a]
	}

	return out
}

// SplitStroke breaks stroke i at its midpoint sample into two fragments
// that share the midpoint, producing a broken-stroke error.
func SplitStroke(strokes []Stroke, i int) []Stroke {
	if i < 0 || i >= len(strokes) || len(strokes[i]) < 3 {
		return CloneAll(strokes)
	}

	out := make([]Stroke, 0, len(strokes)+1)

	for j, s := range strokes {
		if j != i {
			out = append(out, s.Clone())
			continue
		}

		mid := len(s) / 2
		out = append(out, s[:mid+1].Clone(), s[mid:].Clone())
	}

	return out
}

// SwapStrokes exchanges the drawing order of strokes i and j, producing
// order errors.
func SwapStrokes(strokes []Stroke, i, j int) []Stroke {
	out := CloneAll(strokes)
	if i < 0 || j < 0 || i >= len(out) || j >= len(out) {
		return out
	}

	out[i], out[j] = out[j], out[i]

	return out
}

// AddStray appends a short random three-point stroke that starts inside
// the [0, box] square, producing an extra-stroke error. Its end lies within
// box/8 of the start on each axis, so it can extend past the box edge.
func AddStray(rng *rand.Rand, strokes []Stroke, box float64) []Stroke {
	start := Point{X: rng.Float64() * box, Y: rng.Float64() * box}
	end := Point{
		X: start.X + (rng.Float64()-0.5)*box/4,
		Y: start.Y + (rng.Float64()-0.5)*box/4,
	}

	stray := Stroke{
		start,
		{X: (start.X + end.X) / 2, Y: (start.Y + end.Y) / 2},
		end,
	}

	return append(CloneAll(strokes), stray)
}
