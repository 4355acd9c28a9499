// ABOUTME: Stroke matching pipeline from raw polylines to assignment and error report
// ABOUTME: Normalizes, extracts features, evolves an assignment and classifies the winner

package matcher

import (
	"context"
	"fmt"
	"math/rand/v2"

	"stroke-grader/config"
	"stroke-grader/stroke"
)

// populationFactor sizes the default GA population per written stroke,
// keeping diversity proportional to the breadth of the search space.
const populationFactor = 8

// Result is the outcome of grading one written character against a
// reference. Assignment[i] = k maps written stroke i to reference stroke
// k-1; 0 means the stroke found no partner.
type Result struct {
	Assignment  []int
	Fitness     float64
	Errors      []StrokeError
	Generations int
	History     History

	WrittenFeatures   []stroke.Features
	ReferenceFeatures []stroke.Features

	WrittenNorm   stroke.NormMetadata
	ReferenceNorm stroke.NormMetadata
}

// Matcher grades written characters against references. It holds only
// configuration and may be reused across calls; every call builds its own
// state and its own seeded random source.
type Matcher struct {
	cfg     config.Config
	updates chan<- Update
	epoch   int
}

// New validates the configuration and returns a Matcher. Population size
// 0 means "size to the written character"; the resolved population is
// checked against the tournament size per call.
func New(cfg config.Config) (*Matcher, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &Matcher{cfg: cfg}, nil
}

// SendUpdates routes throttled progress updates to ch, stamped with the
// given epoch so front-ends can discard messages from superseded runs.
// The channel is never closed by the matcher.
func (m *Matcher) SendUpdates(ch chan<- Update, epoch int) {
	m.updates = ch
	m.epoch = epoch
}

// Match grades written against reference. The written character may be
// empty; the reference must not be. Cancelling ctx stops the GA at the
// next generation boundary and returns the best assignment found so far.
func (m *Matcher) Match(ctx context.Context, written, reference []stroke.Stroke) (*Result, error) {
	if len(reference) == 0 {
		return nil, ErrEmptyReference
	}

	if err := stroke.Validate(reference); err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}

	if err := stroke.Validate(written); err != nil {
		return nil, fmt.Errorf("written: %w", err)
	}

	popSize := m.cfg.PopulationSize
	if popSize == 0 {
		popSize = max(1, populationFactor*len(written))
	}

	// With nothing written there is no evolution to run, so the resolved
	// population never hosts a tournament and must not fail validation.
	if len(written) > 0 && m.cfg.TournamentSize > popSize {
		return nil, fmt.Errorf("%w: tournament size %d exceeds population size %d",
			ErrConfig, m.cfg.TournamentSize, popSize)
	}

	res := &Result{}

	writtenNorm, referenceNorm := written, reference
	if m.cfg.Normalize {
		writtenNorm, res.WrittenNorm = stroke.Normalize(written, m.cfg.TargetSize)
		referenceNorm, res.ReferenceNorm = stroke.Normalize(reference, m.cfg.TargetSize)
	}

	res.WrittenFeatures = stroke.ExtractAll(writtenNorm)
	res.ReferenceFeatures = stroke.ExtractAll(referenceNorm)

	var tracker *Tracker
	if m.updates != nil {
		tracker = NewTracker(m.updates)
	}

	run := &ga{
		written:   res.WrittenFeatures,
		reference: res.ReferenceFeatures,
		w: weights{
			alpha:   m.cfg.Alpha,
			beta:    m.cfg.Beta,
			gamma:   m.cfg.Gamma,
			epsilon: m.cfg.Epsilon,
		},
		popSize:   popSize,
		maxGen:    m.cfg.MaxGenerations,
		convGen:   m.cfg.ConvergenceGenerations,
		tourSize:  m.cfg.TournamentSize,
		crossRate: m.cfg.CrossoverRate,
		mutRate:   m.cfg.MutationRate,
		rng:       newRNG(m.cfg.Seed),
		tracker:   tracker,
		epoch:     m.epoch,
	}

	out := run.evolve(ctx)

	res.Assignment = out.assignment
	res.Fitness = out.fitness
	res.Generations = out.generations
	res.History = out.history
	res.Errors = Classify(out.assignment, res.WrittenFeatures, res.ReferenceFeatures, m.cfg.AngleThreshold)

	return res, nil
}

// Match is a convenience wrapper that builds a one-shot Matcher.
func Match(ctx context.Context, written, reference []stroke.Stroke, cfg config.Config) (*Result, error) {
	m, err := New(cfg)
	if err != nil {
		return nil, err
	}

	return m.Match(ctx, written, reference)
}

// validate rejects configurations the GA cannot run with, before any
// evolution starts.
func validate(cfg config.Config) error {
	if cfg.PopulationSize < 0 {
		return fmt.Errorf("%w: population size %d", ErrConfig, cfg.PopulationSize)
	}

	if cfg.TournamentSize <= 0 {
		return fmt.Errorf("%w: tournament size %d", ErrConfig, cfg.TournamentSize)
	}

	if cfg.CrossoverRate < 0 || cfg.CrossoverRate > 1 {
		return fmt.Errorf("%w: crossover rate %.3f outside [0, 1]", ErrConfig, cfg.CrossoverRate)
	}

	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate %.3f outside [0, 1]", ErrConfig, cfg.MutationRate)
	}

	return nil
}

// newRNG builds the run's random source. Seed 0 draws from the global
// source; any other seed makes the run fully reproducible.
func newRNG(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return rand.New(rand.NewPCG(seed, seed))
}
