// ABOUTME: Deterministic writing-error classification over a final assignment
// ABOUTME: Emits extra, broken, missing, orientation and order records in fixed pass order

package matcher

import (
	"fmt"
	"math"
	"slices"

	"stroke-grader/stroke"
)

// Kind enumerates the writing-error categories the classifier can emit.
type Kind int

const (
	KindExtra Kind = iota
	KindBroken
	KindMissing
	KindOrientation
	KindOrder
)

// String returns the canonical tag for the error kind.
func (k Kind) String() string {
	switch k {
	case KindExtra:
		return "EXTRA"
	case KindBroken:
		return "BROKEN"
	case KindMissing:
		return "MISSING"
	case KindOrientation:
		return "ORIENTATION"
	case KindOrder:
		return "ORDER"
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// StrokeError is one detected writing error. ReferenceIndex is -1 when no
// single reference stroke applies; AngleDiffDegrees is set only on
// orientation records.
type StrokeError struct {
	Kind             Kind
	Description      string
	WrittenIndices   []int
	ReferenceIndex   int
	AngleDiffDegrees float64
}

// Classify runs the five detection passes over the final assignment.
// The pass order is fixed and passes never suppress each other, so one
// written stroke may appear in several records (an out-of-place fragment
// produces both a duplicate-mapping record and an order record).
func Classify(assignment []int, written, reference []stroke.Features, angleThreshold float64) []StrokeError {
	var errs []StrokeError

	errs = append(errs, checkConcatenatedRedundant(assignment)...)
	errs = append(errs, checkBrokenExtra(assignment)...)
	errs = append(errs, checkMissing(assignment, len(reference))...)
	errs = append(errs, checkOrientation(assignment, written, reference, angleThreshold)...)
	errs = append(errs, checkOrder(assignment)...)

	return errs
}

// checkConcatenatedRedundant is reserved. Telling a concatenation from a
// redundant retrace needs sub-stroke features the extractor does not
// produce yet.
func checkConcatenatedRedundant([]int) []StrokeError {
	return nil
}

// checkBrokenExtra splits duplicate mappings into surplus extras and
// broken strokes. Written indices are grouped by reference gene; the zero
// group is reported as extras outright. A non-zero group with several
// members is surplus when the assignment also left written strokes
// unmatched (the first member keeps the reference, the rest are stray
// marks); otherwise the whole group is one reference stroke drawn in
// fragments.
func checkBrokenExtra(assignment []int) []StrokeError {
	groups := make(map[int][]int)

	var order []int

	for w, ref := range assignment {
		if _, ok := groups[ref]; !ok {
			order = append(order, ref)
		}

		groups[ref] = append(groups[ref], w)
	}

	var errs []StrokeError

	if zero := groups[0]; len(zero) > 0 {
		errs = append(errs, StrokeError{
			Kind:           KindExtra,
			Description:    fmt.Sprintf("extra strokes %v have no reference match", zero),
			WrittenIndices: slices.Clone(zero),
			ReferenceIndex: -1,
		})
	}

	matched := len(assignment) - len(groups[0])

	for _, ref := range order {
		group := groups[ref]
		if ref <= 0 || len(group) < 2 {
			continue
		}

		if len(assignment) > matched {
			errs = append(errs, StrokeError{
				Kind:           KindExtra,
				Description:    fmt.Sprintf("extra strokes %v duplicate the mapping to reference stroke %d", group[1:], ref-1),
				WrittenIndices: slices.Clone(group[1:]),
				ReferenceIndex: ref - 1,
			})
		} else {
			errs = append(errs, StrokeError{
				Kind:           KindBroken,
				Description:    fmt.Sprintf("written strokes %v all map to reference stroke %d", group, ref-1),
				WrittenIndices: slices.Clone(group),
				ReferenceIndex: ref - 1,
			})
		}
	}

	return errs
}

// checkMissing reports every reference stroke no written stroke mapped to.
func checkMissing(assignment []int, numReference int) []StrokeError {
	matched := make(map[int]bool)

	for _, ref := range assignment {
		if ref > 0 {
			matched[ref-1] = true
		}
	}

	var errs []StrokeError

	for ref := range numReference {
		if matched[ref] {
			continue
		}

		errs = append(errs, StrokeError{
			Kind:           KindMissing,
			Description:    fmt.Sprintf("reference stroke %d was not written", ref),
			WrittenIndices: nil,
			ReferenceIndex: ref,
		})
	}

	return errs
}

// checkOrientation reports matched pairs whose chord angles disagree by
// more than the threshold along the shortest arc.
func checkOrientation(assignment []int, written, reference []stroke.Features, threshold float64) []StrokeError {
	var errs []StrokeError

	for w, ref := range assignment {
		if ref < 1 || ref > len(reference) {
			continue
		}

		wf := written[w]
		rf := reference[ref-1]

		diff := angleDiff(wf.Angle, rf.Angle)
		if diff <= threshold {
			continue
		}

		errs = append(errs, StrokeError{
			Kind: KindOrientation,
			Description: fmt.Sprintf("written stroke %d (angle %.1f°) runs against reference stroke %d (angle %.1f°)",
				w, degrees(wf.Angle), ref-1, degrees(rf.Angle)),
			WrittenIndices:   []int{w},
			ReferenceIndex:   ref - 1,
			AngleDiffDegrees: degrees(diff),
		})
	}

	return errs
}

// checkOrder reports every matched written stroke drawn out of canonical
// sequence, i.e. whose gene differs from its own position.
func checkOrder(assignment []int) []StrokeError {
	var errs []StrokeError

	for w, ref := range assignment {
		if ref <= 0 || ref == w+1 {
			continue
		}

		errs = append(errs, StrokeError{
			Kind:           KindOrder,
			Description:    fmt.Sprintf("written stroke %d belongs at position %d (maps to reference stroke %d)", w, ref-1, ref-1),
			WrittenIndices: []int{w},
			ReferenceIndex: ref - 1,
		})
	}

	return errs
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
