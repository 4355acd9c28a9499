// ABOUTME: CLI mode implementation for non-interactive grading runs
// ABOUTME: Handles progress display, report output and signal handling for command-line usage

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stroke-grader/matcher"
)

const fitnessImprovementEpsilon = 1e-10

// RunCLI executes one grading run and prints the report.
func RunCLI(opts RunOptions) error {
	input, err := LoadGradingInput(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-stop
		cancel()
	}()

	fmt.Printf("Grading %d written strokes against %d reference strokes of %q\n",
		len(input.Written), len(input.Reference), opts.Character)

	res, err := cliMatch(ctx, input)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(RenderReport(res))

	if opts.PlotPrefix != "" {
		if err := WriteMatchPlots(opts.PlotPrefix, res); err != nil {
			return fmt.Errorf("failed to write plots: %w", err)
		}

		fmt.Printf("\nPlots written to %s-match.png and %s-history.png\n", opts.PlotPrefix, opts.PlotPrefix)
	}

	return nil
}

// cliMatch runs the matcher with live progress printed on improvements.
func cliMatch(ctx context.Context, input *GradingInput) (*matcher.Result, error) {
	startTime := time.Now()

	m, err := matcher.New(input.Config)
	if err != nil {
		return nil, err
	}

	updates := make(chan matcher.Update, 10)
	m.SendUpdates(updates, 0)

	type outcome struct {
		res *matcher.Result
		err error
	}

	done := make(chan outcome, 1)

	go func() {
		res, err := m.Match(ctx, input.Written, input.Reference)
		close(updates)
		done <- outcome{res: res, err: err}
	}()

	previousBest := 0.0

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				// Drained; disable this case and wait for the result.
				updates = nil
				continue
			}

			if hasFitnessImproved(update.BestFitness, previousBest, fitnessImprovementEpsilon) {
				fitnessStr := FormatMinimalPrecision(previousBest, update.BestFitness)
				fmt.Printf("%6s Gen %3d - fitness: %s\n",
					time.Since(startTime).Round(time.Millisecond), update.Generation, fitnessStr)
				previousBest = update.BestFitness
			}

		case out := <-done:
			if out.err != nil {
				return nil, out.err
			}

			fmt.Printf("\nCompleted %d generations in %v\n",
				out.res.Generations, time.Since(startTime).Round(time.Millisecond))

			return out.res, nil
		}
	}
}
