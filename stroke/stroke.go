// ABOUTME: Core domain types for handwritten stroke data
// ABOUTME: Defines Point and Stroke plus construction and validation of sampled polylines

package stroke

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidStroke reports stroke data that cannot be interpreted as a
// drawable polyline.
var ErrInvalidStroke = errors.New("invalid stroke")

// Point is one 2-D sample of a pen trajectory.
type Point struct {
	X float64
	Y float64
}

// Dist returns the Euclidean distance to q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Stroke is an ordered polyline sampled in drawing direction.
type Stroke []Point

// Clone returns an independent copy of the stroke.
func (s Stroke) Clone() Stroke {
	out := make(Stroke, len(s))
	copy(out, s)

	return out
}

// CloneAll deep-copies a list of strokes.
func CloneAll(strokes []Stroke) []Stroke {
	out := make([]Stroke, len(strokes))
	for i, s := range strokes {
		out[i] = s.Clone()
	}

	return out
}

// FromSamples builds a Stroke from raw sample rows. Each row carries the
// coordinate channels of one sample in drawing order; only the first two
// channels (x, y) are read, any extra channels are ignored.
func FromSamples(samples [][]float64) (Stroke, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidStroke, len(samples))
	}

	s := make(Stroke, len(samples))

	for i, row := range samples {
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: point %d has %d coordinate channels, need at least 2", ErrInvalidStroke, i, len(row))
		}

		s[i] = Point{X: row[0], Y: row[1]}
	}

	return s, nil
}

// Validate checks that every stroke in the list has enough samples to form
// a polyline.
func Validate(strokes []Stroke) error {
	for i, s := range strokes {
		if len(s) < 2 {
			return fmt.Errorf("%w: stroke %d has %d points, need at least 2", ErrInvalidStroke, i, len(s))
		}
	}

	return nil
}
