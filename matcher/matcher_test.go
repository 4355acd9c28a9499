// ABOUTME: End-to-end tests of the grading pipeline
// ABOUTME: Exercises identity, reordering, reversal, missing, extra and fragmented scenarios

package matcher

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"stroke-grader/config"
	"stroke-grader/stroke"
)

// hline builds an n-point horizontal stroke at height y from x0 to x1.
func hline(y, x0, x1 float64, n int) stroke.Stroke {
	s := make(stroke.Stroke, n)
	for i := range n {
		t := float64(i) / float64(n-1)
		s[i] = stroke.Point{X: x0 + (x1-x0)*t, Y: y}
	}

	return s
}

// vline builds an n-point vertical stroke at x from y0 to y1.
func vline(x, y0, y1 float64, n int) stroke.Stroke {
	s := make(stroke.Stroke, n)
	for i := range n {
		t := float64(i) / float64(n-1)
		s[i] = stroke.Point{X: x, Y: y0 + (y1-y0)*t}
	}

	return s
}

func reversed(s stroke.Stroke) stroke.Stroke {
	out := make(stroke.Stroke, len(s))
	for i, p := range s {
		out[len(s)-1-i] = p
	}

	return out
}

// testConfig returns a deterministic configuration with enough search
// budget that the small test characters always converge to the optimum.
func testConfig(seed uint64) config.Config {
	cfg := config.Default()
	cfg.Seed = seed
	cfg.PopulationSize = 64
	cfg.ConvergenceGenerations = 25
	cfg.MaxGenerations = 200

	return cfg
}

func countKind(errs []StrokeError, k Kind) int {
	n := 0

	for _, e := range errs {
		if e.Kind == k {
			n++
		}
	}

	return n
}

func TestMatchIdentitySingleStroke(t *testing.T) {
	ref := []stroke.Stroke{hline(50, 0, 100, 50)}

	res, err := Match(context.Background(), stroke.CloneAll(ref), ref, testConfig(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(res.Assignment, []int{1}) {
		t.Errorf("assignment %v, want [1]", res.Assignment)
	}

	if res.Fitness != 1.0 {
		t.Errorf("fitness %v, want 1.0", res.Fitness)
	}

	if len(res.Errors) != 0 {
		t.Errorf("errors %v, want none", res.Errors)
	}

	if res.Generations < 1 {
		t.Errorf("generations %d, want at least 1", res.Generations)
	}
}

func TestMatchIdentityMultiStroke(t *testing.T) {
	ref := []stroke.Stroke{
		hline(25, 10, 90, 50),
		hline(50, 10, 90, 50),
		hline(75, 10, 90, 50),
	}

	res, err := Match(context.Background(), stroke.CloneAll(ref), ref, testConfig(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(res.Assignment, []int{1, 2, 3}) {
		t.Errorf("assignment %v, want identity", res.Assignment)
	}

	if len(res.Errors) != 0 {
		t.Errorf("errors %v, want none", res.Errors)
	}
}

// Scaling the whole character must not change the verdict: normalization
// maps both renditions onto the same box.
func TestMatchScaleInvariance(t *testing.T) {
	ref := []stroke.Stroke{
		hline(25, 10, 90, 50),
		vline(50, 10, 90, 50),
	}

	written := make([]stroke.Stroke, len(ref))
	for i, s := range ref {
		ns := make(stroke.Stroke, len(s))
		for j, p := range s {
			ns[j] = stroke.Point{X: p.X * 3.7, Y: p.Y * 3.7}
		}

		written[i] = ns
	}

	res, err := Match(context.Background(), written, ref, testConfig(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(res.Assignment, []int{1, 2}) {
		t.Errorf("assignment %v, want identity", res.Assignment)
	}

	if len(res.Errors) != 0 {
		t.Errorf("errors %v, want none", res.Errors)
	}
}

func TestMatchSwappedOrder(t *testing.T) {
	a := hline(10, 10, 90, 50)
	b := hline(90, 10, 90, 50)

	res, err := Match(context.Background(), []stroke.Stroke{b, a}, []stroke.Stroke{a, b}, testConfig(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(res.Assignment, []int{2, 1}) {
		t.Fatalf("assignment %v, want [2 1]", res.Assignment)
	}

	if n := countKind(res.Errors, KindOrder); n != 2 {
		t.Errorf("%d order records, want 2: %v", n, res.Errors)
	}

	if countKind(res.Errors, KindMissing) != 0 || countKind(res.Errors, KindExtra) != 0 {
		t.Errorf("unexpected missing/extra records: %v", res.Errors)
	}
}

func TestMatchReversedDirection(t *testing.T) {
	ref := []stroke.Stroke{hline(50, 0, 100, 50)}
	written := []stroke.Stroke{reversed(ref[0])}

	res, err := Match(context.Background(), written, ref, testConfig(9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(res.Assignment, []int{1}) {
		t.Fatalf("assignment %v, want [1]", res.Assignment)
	}

	orientations := 0

	for _, e := range res.Errors {
		if e.Kind != KindOrientation {
			continue
		}

		orientations++

		if math.Abs(e.AngleDiffDegrees-180) > 1e-6 {
			t.Errorf("angle diff %.3f degrees, want 180", e.AngleDiffDegrees)
		}
	}

	if orientations != 1 {
		t.Errorf("%d orientation records, want 1: %v", orientations, res.Errors)
	}
}

func TestMatchMissingStroke(t *testing.T) {
	ref := []stroke.Stroke{
		hline(25, 10, 90, 50),
		hline(50, 10, 90, 50),
		hline(75, 10, 90, 50),
	}

	written := []stroke.Stroke{ref[0].Clone(), ref[2].Clone()}

	res, err := Match(context.Background(), written, ref, testConfig(11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Assignment) != 2 {
		t.Fatalf("assignment length %d, want 2", len(res.Assignment))
	}

	for _, gene := range res.Assignment {
		if gene < 1 || gene > 3 {
			t.Errorf("gene %d outside the reference range", gene)
		}
	}

	if n := countKind(res.Errors, KindMissing); n != 1 {
		t.Errorf("%d missing records, want 1: %v", n, res.Errors)
	}

	if countKind(res.Errors, KindExtra) != 0 {
		t.Errorf("unexpected extra records: %v", res.Errors)
	}
}

// A stray stroke far outside the character costs more than the unmatch
// penalty when normalization is off, so it maps to zero and is reported
// as an extra.
func TestMatchExtraStroke(t *testing.T) {
	ref := []stroke.Stroke{
		hline(25, 10, 90, 50),
		hline(50, 10, 90, 50),
	}

	stray := hline(5000, 5000, 5080, 50)
	written := []stroke.Stroke{ref[0].Clone(), ref[1].Clone(), stray}

	cfg := testConfig(13)
	cfg.Normalize = false

	res, err := Match(context.Background(), written, ref, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(res.Assignment, []int{1, 2, 0}) {
		t.Fatalf("assignment %v, want [1 2 0]", res.Assignment)
	}

	extras := 0

	for _, e := range res.Errors {
		if e.Kind != KindExtra {
			continue
		}

		extras++

		if !slices.Equal(e.WrittenIndices, []int{2}) {
			t.Errorf("extra record covers %v, want [2]", e.WrittenIndices)
		}
	}

	if extras != 1 {
		t.Errorf("%d extra records, want 1: %v", extras, res.Errors)
	}

	if countKind(res.Errors, KindMissing) != 0 {
		t.Errorf("unexpected missing records: %v", res.Errors)
	}
}

// Two fragments of one long reference stroke both map to it and are
// reported as a single broken stroke.
func TestMatchFragmentedStroke(t *testing.T) {
	ref := []stroke.Stroke{
		hline(10, 10, 90, 50),
		vline(50, 30, 90, 50),
	}

	written := []stroke.Stroke{
		ref[0].Clone(),
		vline(50, 30, 60, 25),
		vline(50, 60, 90, 25),
	}

	res, err := Match(context.Background(), written, ref, testConfig(17))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(res.Assignment, []int{1, 2, 2}) {
		t.Fatalf("assignment %v, want [1 2 2]", res.Assignment)
	}

	broken := 0

	for _, e := range res.Errors {
		if e.Kind != KindBroken {
			continue
		}

		broken++

		if !slices.Equal(e.WrittenIndices, []int{1, 2}) {
			t.Errorf("broken record covers %v, want [1 2]", e.WrittenIndices)
		}

		if e.ReferenceIndex != 1 {
			t.Errorf("broken record reference %d, want 1", e.ReferenceIndex)
		}
	}

	if broken != 1 {
		t.Errorf("%d broken records, want 1: %v", broken, res.Errors)
	}

	if countKind(res.Errors, KindExtra) != 0 {
		t.Errorf("unexpected extra records: %v", res.Errors)
	}
}

func TestMatchJitteredIdentity(t *testing.T) {
	ref := []stroke.Stroke{
		hline(20, 10, 90, 50),
		hline(50, 10, 90, 50),
		hline(80, 10, 90, 50),
	}

	rng := rand.New(rand.NewPCG(23, 23))
	written := stroke.Jitter(rng, ref, 1.0)

	res, err := Match(context.Background(), written, ref, testConfig(23))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(res.Assignment, []int{1, 2, 3}) {
		t.Errorf("assignment %v, want identity despite jitter", res.Assignment)
	}

	if len(res.Errors) != 0 {
		t.Errorf("errors %v, want none for mild jitter", res.Errors)
	}

	if res.Fitness >= 1.0 {
		t.Errorf("fitness %v should reflect the jitter cost", res.Fitness)
	}
}

func TestMatchEmptyWritten(t *testing.T) {
	ref := []stroke.Stroke{
		hline(25, 10, 90, 50),
		hline(75, 10, 90, 50),
	}

	// The stock configuration must work here: the auto-sized population
	// collapses for an empty character, but no tournament ever runs.
	res, err := Match(context.Background(), nil, ref, config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Assignment) != 0 {
		t.Errorf("assignment %v, want empty", res.Assignment)
	}

	if res.Fitness != 1.0 || res.Generations != 0 {
		t.Errorf("fitness %v generations %d, want 1.0 and 0", res.Fitness, res.Generations)
	}

	if n := countKind(res.Errors, KindMissing); n != 2 {
		t.Errorf("%d missing records, want 2", n)
	}
}

func TestMatchInputValidation(t *testing.T) {
	valid := []stroke.Stroke{hline(50, 0, 100, 50)}

	t.Run("empty reference", func(t *testing.T) {
		_, err := Match(context.Background(), valid, nil, testConfig(1))
		if !errors.Is(err, ErrEmptyReference) {
			t.Errorf("got %v, want ErrEmptyReference", err)
		}
	})

	t.Run("short written stroke", func(t *testing.T) {
		written := []stroke.Stroke{{{1, 1}}}

		_, err := Match(context.Background(), written, valid, testConfig(1))
		if !errors.Is(err, stroke.ErrInvalidStroke) {
			t.Errorf("got %v, want ErrInvalidStroke", err)
		}
	})

	t.Run("short reference stroke", func(t *testing.T) {
		ref := []stroke.Stroke{{{1, 1}}}

		_, err := Match(context.Background(), valid, ref, testConfig(1))
		if !errors.Is(err, stroke.ErrInvalidStroke) {
			t.Errorf("got %v, want ErrInvalidStroke", err)
		}
	})
}

func TestMatchConfigValidation(t *testing.T) {
	valid := []stroke.Stroke{hline(50, 0, 100, 50)}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"negative population", func(c *config.Config) { c.PopulationSize = -1 }},
		{"zero tournament", func(c *config.Config) { c.TournamentSize = 0 }},
		{"negative tournament", func(c *config.Config) { c.TournamentSize = -2 }},
		{"crossover rate above one", func(c *config.Config) { c.CrossoverRate = 1.5 }},
		{"negative mutation rate", func(c *config.Config) { c.MutationRate = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)

			_, err := Match(context.Background(), valid, valid, cfg)
			if !errors.Is(err, ErrConfig) {
				t.Errorf("got %v, want ErrConfig", err)
			}
		})
	}

	t.Run("tournament exceeds resolved population", func(t *testing.T) {
		cfg := config.Default()
		cfg.PopulationSize = 2
		cfg.TournamentSize = 3

		_, err := Match(context.Background(), valid, valid, cfg)
		if !errors.Is(err, ErrConfig) {
			t.Errorf("got %v, want ErrConfig", err)
		}
	})
}

func TestMatchDeterministicAcrossCalls(t *testing.T) {
	ref := []stroke.Stroke{
		hline(20, 10, 90, 50),
		vline(30, 10, 90, 50),
		hline(80, 10, 90, 50),
	}

	rng := rand.New(rand.NewPCG(31, 31))
	written := stroke.Jitter(rng, ref, 2.0)

	cfg := testConfig(31)

	a, err := Match(context.Background(), written, ref, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := Match(context.Background(), written, ref, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(a.Assignment, b.Assignment) || a.Fitness != b.Fitness || a.Generations != b.Generations {
		t.Errorf("identical calls diverged: %v/%v vs %v/%v",
			a.Assignment, a.Fitness, b.Assignment, b.Fitness)
	}
}

func TestMatchResultShape(t *testing.T) {
	ref := []stroke.Stroke{
		hline(25, 10, 90, 50),
		vline(50, 10, 90, 50),
	}

	rng := rand.New(rand.NewPCG(3, 3))
	written := stroke.AddStray(rng, stroke.Jitter(rng, ref, 3.0), 100)

	res, err := Match(context.Background(), written, ref, testConfig(37))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Assignment) != len(written) {
		t.Errorf("assignment length %d, want %d", len(res.Assignment), len(written))
	}

	for i, gene := range res.Assignment {
		if gene < 0 || gene > len(ref) {
			t.Errorf("gene %d = %d outside [0, %d]", i, gene, len(ref))
		}
	}

	if res.Fitness <= 0 || res.Fitness > 1 {
		t.Errorf("fitness %v outside (0, 1]", res.Fitness)
	}

	if res.Generations != len(res.History.BestFitness) ||
		res.Generations != len(res.History.MeanFitness) {
		t.Errorf("history lengths %d/%d do not match generations %d",
			len(res.History.BestFitness), len(res.History.MeanFitness), res.Generations)
	}

	if len(res.WrittenFeatures) != len(written) || len(res.ReferenceFeatures) != len(ref) {
		t.Errorf("feature lengths %d/%d, want %d/%d",
			len(res.WrittenFeatures), len(res.ReferenceFeatures), len(written), len(ref))
	}

	if res.WrittenNorm.Scale == 0 || res.ReferenceNorm.Scale == 0 {
		t.Errorf("normalization metadata missing: %+v / %+v", res.WrittenNorm, res.ReferenceNorm)
	}
}

func TestMatchNormalizeDisabled(t *testing.T) {
	ref := []stroke.Stroke{hline(50, 0, 100, 50)}

	cfg := testConfig(1)
	cfg.Normalize = false

	res, err := Match(context.Background(), stroke.CloneAll(ref), ref, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.WrittenNorm != (stroke.NormMetadata{}) || res.ReferenceNorm != (stroke.NormMetadata{}) {
		t.Errorf("metadata should be empty when normalization is off: %+v", res.WrittenNorm)
	}

	if !slices.Equal(res.Assignment, []int{1}) || len(res.Errors) != 0 {
		t.Errorf("identity without normalization: %v / %v", res.Assignment, res.Errors)
	}
}

func TestMatchProgressUpdates(t *testing.T) {
	ref := []stroke.Stroke{
		hline(25, 10, 90, 50),
		hline(75, 10, 90, 50),
	}

	m, err := New(testConfig(41))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updates := make(chan Update, 256)
	m.SendUpdates(updates, 4)

	res, err := m.Match(context.Background(), stroke.CloneAll(ref), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	close(updates)

	count := 0

	for u := range updates {
		count++

		if u.Epoch != 4 {
			t.Errorf("update epoch %d, want 4", u.Epoch)
		}

		if u.BestFitness <= 0 || u.BestFitness > res.Fitness {
			t.Errorf("update fitness %v outside (0, %v]", u.BestFitness, res.Fitness)
		}

		if len(u.BestAssignment) != 2 {
			t.Errorf("update assignment length %d, want 2", len(u.BestAssignment))
		}
	}

	if count == 0 {
		t.Error("no progress updates were delivered")
	}
}

func BenchmarkMatch(b *testing.B) {
	ref := []stroke.Stroke{
		hline(20, 10, 90, 50),
		vline(30, 10, 90, 50),
		hline(50, 10, 90, 50),
		vline(70, 10, 90, 50),
		hline(80, 10, 90, 50),
	}

	rng := rand.New(rand.NewPCG(5, 5))
	written := stroke.Jitter(rng, ref, 2.0)

	cfg := config.Default()
	cfg.Seed = 5

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := Match(context.Background(), written, ref, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
