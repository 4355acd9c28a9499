// ABOUTME: PNG rendering of match results and GA fitness history
// ABOUTME: Draws reference and written characters with error highlighting using gonum/plot

package main

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"stroke-grader/matcher"
	"stroke-grader/stroke"
)

var (
	referenceColor = color.RGBA{R: 170, G: 170, B: 170, A: 255}
	writtenColor   = color.RGBA{R: 40, G: 80, B: 200, A: 255}
	flaggedColor   = color.RGBA{R: 210, G: 40, B: 40, A: 255}
	meanColor      = color.RGBA{R: 220, G: 140, B: 20, A: 255}
)

// WriteMatchPlots renders two PNGs: <prefix>-match.png overlaying the
// normalized reference and written characters, and <prefix>-history.png
// with the GA's best and mean fitness curves.
func WriteMatchPlots(prefix string, res *matcher.Result) error {
	if err := writeOverlayPlot(prefix+"-match.png", res); err != nil {
		return err
	}

	return writeHistoryPlot(prefix+"-history.png", res)
}

// writeOverlayPlot draws the reference in gray and the written strokes in
// blue, switching to red for strokes named by any error record.
func writeOverlayPlot(path string, res *matcher.Result) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("fitness %.4f over %d generations", res.Fitness, res.Generations)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	flagged := make(map[int]bool)
	for _, e := range res.Errors {
		for _, w := range e.WrittenIndices {
			flagged[w] = true
		}
	}

	for i, feat := range res.ReferenceFeatures {
		line, err := strokeLine(feat.Points)
		if err != nil {
			return err
		}

		line.Color = referenceColor
		line.Width = vg.Points(3)
		p.Add(line)

		if i == 0 {
			p.Legend.Add("reference", line)
		}
	}

	var labeledWritten, labeledFlagged bool

	for i, feat := range res.WrittenFeatures {
		line, err := strokeLine(feat.Points)
		if err != nil {
			return err
		}

		line.Width = vg.Points(1.5)

		if flagged[i] {
			line.Color = flaggedColor

			if !labeledFlagged {
				p.Legend.Add("flagged", line)
				labeledFlagged = true
			}
		} else {
			line.Color = writtenColor

			if !labeledWritten {
				p.Legend.Add("written", line)
				labeledWritten = true
			}
		}

		p.Add(line)
	}

	// Drawing space has y growing downwards; invert the axis so the
	// character reads upright.
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}

// writeHistoryPlot draws the best and mean fitness per generation.
func writeHistoryPlot(path string, res *matcher.Result) error {
	p := plot.New()
	p.Title.Text = "fitness history"
	p.X.Label.Text = "generation"
	p.Y.Label.Text = "fitness"

	best := make(plotter.XYs, len(res.History.BestFitness))
	mean := make(plotter.XYs, len(res.History.MeanFitness))

	for i, f := range res.History.BestFitness {
		best[i] = plotter.XY{X: float64(i), Y: f}
	}

	for i, f := range res.History.MeanFitness {
		mean[i] = plotter.XY{X: float64(i), Y: f}
	}

	bestLine, err := plotter.NewLine(best)
	if err != nil {
		return fmt.Errorf("failed to plot best fitness: %w", err)
	}

	bestLine.Color = writtenColor
	bestLine.Width = vg.Points(2)

	meanLine, err := plotter.NewLine(mean)
	if err != nil {
		return fmt.Errorf("failed to plot mean fitness: %w", err)
	}

	meanLine.Color = meanColor
	meanLine.Width = vg.Points(1)

	p.Add(bestLine, meanLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// strokeLine converts a stroke into a line plotter.
func strokeLine(s stroke.Stroke) (*plotter.Line, error) {
	xys := make(plotter.XYs, len(s))
	for i, pt := range s {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("failed to plot stroke: %w", err)
	}

	return line, nil
}
