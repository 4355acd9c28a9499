// ABOUTME: Shared initialization code for all modes (CLI, TUI, View)
// ABOUTME: Provides character loading, preprocessing, config setup and debug logging

package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"

	"stroke-grader/config"
	"stroke-grader/stroke"
)

// sampleCount is the per-stroke sample count after resampling. Corpus
// medians carry a handful of points per stroke; the engine's features are
// steadier on a dense uniform sampling.
const sampleCount = 50

// Debug logger - writes to file for debugging
var debugLog *log.Logger

// RunOptions contains command-line options for all modes (CLI, TUI, View)
type RunOptions struct {
	DatasetPath string
	Character   string
	AttemptPath string
	Corrupt     bool
	Seed        uint64
	PlotPrefix  string
	DebugLog    bool
}

// GradingInput bundles the preprocessed characters and configuration for
// one grading run.
type GradingInput struct {
	Written   []stroke.Stroke
	Reference []stroke.Stroke
	Config    config.Config
	Shared    *config.SharedConfig
}

// LoadGradingInput loads the reference character from the corpus, the
// written attempt from a file (or synthesizes one), preprocesses both and
// loads the engine configuration.
func LoadGradingInput(opts RunOptions) (*GradingInput, error) {
	reference, err := stroke.LoadReference(opts.DatasetPath, opts.Character)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference character: %w", err)
	}

	reference = stroke.Preprocess(reference, sampleCount, true)

	var written []stroke.Stroke

	switch {
	case opts.AttemptPath != "":
		written, err = stroke.LoadAttempt(opts.AttemptPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load written attempt: %w", err)
		}

		written = stroke.Preprocess(written, sampleCount, true)
	case opts.Corrupt:
		written = corruptedCopy(reference, opts.Seed)
	default:
		written = stroke.CloneAll(reference)
	}

	cfg, _ := config.Load(config.Path())
	if opts.Seed != 0 {
		cfg.Seed = opts.Seed
	}

	shared := &config.SharedConfig{}
	shared.Update(cfg)

	return &GradingInput{
		Written:   written,
		Reference: reference,
		Config:    cfg,
		Shared:    shared,
	}, nil
}

// corruptedCopy jitters a copy of the reference and injects order,
// orientation and broken-stroke errors, so demo runs have something to
// report. It drops no stroke and adds no stray stroke.
func corruptedCopy(reference []stroke.Stroke, seed uint64) []stroke.Stroke {
	rng := rand.New(rand.NewPCG(seed|1, seed|1))

	written := stroke.Jitter(rng, reference, 1.5)

	if len(written) >= 2 {
		written = stroke.SwapStrokes(written, 0, 1)
		written = stroke.ReverseStroke(written, 0)
	}

	if n := len(written); n >= 3 {
		written = stroke.SplitStroke(written, n-1)
	}

	return written
}

// SetupDebugLog initializes debug logging to the specified file
func SetupDebugLog(filename string) error {
	if err := InitDebugLog(filename); err != nil {
		return fmt.Errorf("failed to initialize debug log: %w", err)
	}

	fileInfo, _ := os.Stdout.Stat()
	if (fileInfo.Mode() & os.ModeCharDevice) != 0 {
		fmt.Printf("Debug logging enabled: %s\n", filename)
	}

	return nil
}

// InitDebugLog initializes debug logging to a file
func InitDebugLog(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugLog = log.New(f, "", log.Ltime|log.Lmicroseconds)

	return nil
}

// debugf logs debug messages to file if debug logger is enabled
func debugf(format string, args ...interface{}) {
	if debugLog != nil {
		debugLog.Printf(format, args...)
	}
}

// truncate truncates a string to maxLen characters, adding "..." if needed
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return s[:maxLen]
	}

	return s[:maxLen-3] + "..."
}

// hasFitnessImproved returns true if newFitness is significantly better
// than oldFitness. Uses an epsilon threshold to avoid false positives
// from floating-point precision issues.
func hasFitnessImproved(newFitness, oldFitness, epsilon float64) bool {
	return newFitness > oldFitness+epsilon
}
