// ABOUTME: Isotropic rescaling of a character into a common coordinate box
// ABOUTME: Translates the joint bounding box to the origin and records inverse-mapping metadata

package stroke

import "math"

// NormMetadata records the bounding box and scale applied by Normalize,
// enough to map normalized coordinates back to the source space.
type NormMetadata struct {
	XMin   float64
	YMin   float64
	XMax   float64
	YMax   float64
	Scale  float64
	Width  float64
	Height float64
}

// Normalize translates all strokes so the joint bounding-box minimum sits
// at the origin, then scales isotropically so the larger of width and
// height equals targetSize. Uniform scaling keeps the aspect ratio, so
// chord angles survive normalization unchanged.
//
// A fully degenerate box (single point) is left at scale 1; when only one
// axis is degenerate the other axis is scaled to targetSize. An empty list
// returns an empty list and zero metadata.
func Normalize(strokes []Stroke, targetSize float64) ([]Stroke, NormMetadata) {
	if len(strokes) == 0 {
		return []Stroke{}, NormMetadata{}
	}

	xMin, yMin := math.Inf(1), math.Inf(1)
	xMax, yMax := math.Inf(-1), math.Inf(-1)

	for _, s := range strokes {
		for _, p := range s {
			xMin = math.Min(xMin, p.X)
			xMax = math.Max(xMax, p.X)
			yMin = math.Min(yMin, p.Y)
			yMax = math.Max(yMax, p.Y)
		}
	}

	width := xMax - xMin
	height := yMax - yMin

	var scale float64

	switch {
	case width == 0 && height == 0:
		scale = 1.0
	case width == 0:
		scale = targetSize / height
	case height == 0:
		scale = targetSize / width
	default:
		scale = targetSize / math.Max(width, height)
	}

	out := make([]Stroke, len(strokes))

	for i, s := range strokes {
		ns := make(Stroke, len(s))
		for j, p := range s {
			ns[j] = Point{
				X: (p.X - xMin) * scale,
				Y: (p.Y - yMin) * scale,
			}
		}

		out[i] = ns
	}

	meta := NormMetadata{
		XMin:   xMin,
		YMin:   yMin,
		XMax:   xMax,
		YMax:   yMax,
		Scale:  scale,
		Width:  width,
		Height: height,
	}

	return out, meta
}
