// ABOUTME: Report and fitness formatting shared by the CLI and view modes
// ABOUTME: Renders assignment tables and error lists; formats fitness with minimal precision

package main

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"stroke-grader/matcher"
)

// FormatMinimalPrecision returns a formatted string of curr with the
// minimum precision needed to distinguish it from prev. Returns a string
// suitable for displaying fitness values in CLI output.
func FormatMinimalPrecision(prev, curr float64) string {
	if math.IsNaN(prev) || math.IsNaN(curr) {
		return fmt.Sprintf("%.2f", curr)
	}

	if math.IsInf(prev, 0) || math.IsInf(curr, 0) {
		return fmt.Sprintf("%.2f", curr)
	}

	if prev == curr {
		return fmt.Sprintf("%.2f", curr)
	}

	const maxPrecision = 10
	for precision := 1; precision <= maxPrecision; precision++ {
		format := fmt.Sprintf("%%.%df", precision)
		prevStr := fmt.Sprintf(format, prev)
		currStr := fmt.Sprintf(format, curr)

		if prevStr != currStr {
			// Found differing precision, add 1 more digit for clarity
			clarityPrecision := precision + 1
			if clarityPrecision > maxPrecision {
				clarityPrecision = maxPrecision
			}

			return fmt.Sprintf(fmt.Sprintf("%%.%df", clarityPrecision), curr)
		}
	}

	return fmt.Sprintf(fmt.Sprintf("%%.%df", maxPrecision), curr)
}

// RenderReport builds the textual grading report: the stroke assignment
// table followed by the detected writing errors.
func RenderReport(res *matcher.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Fitness %.4f after %d generations\n\n", res.Fitness, res.Generations)

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Written\tReference\tAngle\tLength")
	fmt.Fprintln(w, "-------\t---------\t-----\t------")

	for i, ref := range res.Assignment {
		feat := res.WrittenFeatures[i]
		target := "(no match)"

		if ref >= 1 && ref <= len(res.ReferenceFeatures) {
			target = fmt.Sprintf("R%d", ref-1)
		}

		fmt.Fprintf(w, "W%d\t%s\t%.1f°\t%.1f\n", i, target, feat.Angle*180/math.Pi, feat.Length)
	}

	if err := w.Flush(); err != nil {
		debugf("[REPORT] tabwriter flush failed: %v", err)
	}

	b.WriteString("\n")

	if len(res.Errors) == 0 {
		b.WriteString("No writing errors detected.\n")

		return b.String()
	}

	fmt.Fprintf(&b, "Writing errors (%d):\n", len(res.Errors))

	for _, e := range res.Errors {
		fmt.Fprintf(&b, "  • %s: %s\n", e.Kind, e.Description)
	}

	return b.String()
}
