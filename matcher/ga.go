// ABOUTME: Genetic algorithm over stroke assignment chromosomes
// ABOUTME: Diff-aware initialization, tournament selection, single-point crossover and elitist convergence

package matcher

import (
	"context"
	"math/rand/v2"
	"runtime"
	"slices"

	"gonum.org/v1/gonum/stat"

	"stroke-grader/pool"
	"stroke-grader/stroke"
)

// History records per-generation population statistics, one entry per
// executed generation.
type History struct {
	BestFitness []float64
	MeanFitness []float64
}

// gaResult carries the winning chromosome and the evolution trace.
type gaResult struct {
	assignment  []int
	fitness     float64
	generations int
	history     History
}

// ga holds one evolution run. A chromosome is a []int of length W whose
// i-th gene maps written stroke i to a 1-based reference index, with 0
// meaning "no match".
type ga struct {
	written   []stroke.Features
	reference []stroke.Features
	w         weights

	popSize   int
	maxGen    int
	convGen   int
	tourSize  int
	crossRate float64
	mutRate   float64

	rng     *rand.Rand
	tracker *Tracker
	epoch   int
}

// evolve runs the generation loop until the best fitness stagnates for
// convGen generations, maxGen is reached, or the context is cancelled.
//
// Each generation:
//  1. Score every member (parallel; fitness is pure so worker order
//     cannot change results).
//  2. Record best and mean fitness.
//  3. Keep the all-time best on strict improvement, else age the
//     stagnation counter.
//  4. Breed the next population: one elitist copy of the all-time best,
//     then tournament-selected parents crossed over and mutated.
func (g *ga) evolve(ctx context.Context) gaResult {
	nw := len(g.written)
	nr := len(g.reference)

	// Nothing written: the empty assignment is trivially perfect.
	if nw == 0 {
		return gaResult{assignment: []int{}, fitness: 1.0}
	}

	population := make([][]int, g.popSize)
	for i := range population {
		population[i] = g.newChromosome(nw, nr)
	}

	workers := pool.New(runtime.NumCPU())
	defer workers.Close()

	fitnesses := make([]float64, g.popSize)

	// Reusable index buffer for sampling tournaments without replacement.
	tourScratch := make([]int, g.popSize)
	for i := range tourScratch {
		tourScratch[i] = i
	}

	var (
		best        []int
		bestFitness float64
		stagnant    int
		hist        History
	)

loop:
	for gen := 0; gen < g.maxGen; gen++ {
		select {
		case <-ctx.Done():
			break loop
		default:
		}

		for i := range population {
			workers.Submit(func() {
				fitnesses[i] = fitnessOf(distance(g.written, g.reference, population[i], g.w))
			})
		}
		workers.Wait()

		bestIdx := 0
		for i, f := range fitnesses {
			if f > fitnesses[bestIdx] {
				bestIdx = i
			}
		}

		hist.BestFitness = append(hist.BestFitness, fitnesses[bestIdx])
		hist.MeanFitness = append(hist.MeanFitness, stat.Mean(fitnesses, nil))

		improved := fitnesses[bestIdx] > bestFitness
		if improved {
			bestFitness = fitnesses[bestIdx]
			best = slices.Clone(population[bestIdx])
			stagnant = 0
		} else {
			stagnant++
		}

		g.tracker.send(gen, g.epoch, best, bestFitness, improved)

		if stagnant >= g.convGen {
			break
		}

		next := make([][]int, 0, g.popSize+1)
		next = append(next, slices.Clone(best))

		for len(next) < g.popSize {
			p1 := g.tournament(population, fitnesses, tourScratch)
			p2 := g.tournament(population, fitnesses, tourScratch)

			c1, c2 := g.crossover(p1, p2)
			g.mutate(c1, nr)
			g.mutate(c2, nr)

			next = append(next, c1, c2)
		}

		population = next[:g.popSize]
	}

	// Cancelled before the first evaluation completed: report an
	// all-unmatched assignment so the result still has W genes.
	if best == nil {
		best = make([]int, nw)
		bestFitness = fitnessOf(distance(g.written, g.reference, best, g.w))
	}

	return gaResult{
		assignment:  best,
		fitness:     bestFitness,
		generations: len(hist.BestFitness),
		history:     hist,
	}
}

// newChromosome draws one random assignment. The distribution depends on
// the stroke-count difference: equal counts get a permutation, surplus
// written strokes get exactly that many no-match genes, and a deficit
// draws genes independently so several written strokes may share a
// reference.
func (g *ga) newChromosome(nw, nr int) []int {
	genes := make([]int, nw)
	diff := nw - nr

	switch {
	case diff == 0:
		for i := range genes {
			genes[i] = i + 1
		}

		g.rng.Shuffle(nw, func(a, b int) { genes[a], genes[b] = genes[b], genes[a] })
	case diff > 0:
		for i := range nr {
			genes[i] = i + 1
		}
		// The trailing diff genes stay 0.

		g.rng.Shuffle(nw, func(a, b int) { genes[a], genes[b] = genes[b], genes[a] })
	default:
		for i := range genes {
			genes[i] = 1 + g.rng.IntN(nr)
		}
	}

	return genes
}

// tournament samples tourSize distinct members and returns a copy of the
// fittest; ties go to the earlier sample.
func (g *ga) tournament(population [][]int, fitnesses []float64, scratch []int) []int {
	for i := range g.tourSize {
		j := i + g.rng.IntN(len(scratch)-i)
		scratch[i], scratch[j] = scratch[j], scratch[i]
	}

	best := scratch[0]
	for _, idx := range scratch[1:g.tourSize] {
		if fitnesses[idx] > fitnesses[best] {
			best = idx
		}
	}

	return slices.Clone(population[best])
}

// crossover performs single-point crossover with probability crossRate,
// cutting uniformly in [1, W-1]; otherwise the children are copies.
// Children may repeat genes: permutation validity is not enforced, the
// cost function handles any vector.
func (g *ga) crossover(p1, p2 []int) ([]int, []int) {
	if len(p1) < 2 {
		return slices.Clone(p1), slices.Clone(p2)
	}

	if g.rng.Float64() >= g.crossRate {
		return slices.Clone(p1), slices.Clone(p2)
	}

	cut := 1 + g.rng.IntN(len(p1)-1)

	c1 := make([]int, len(p1))
	copy(c1, p1[:cut])
	copy(c1[cut:], p2[cut:])

	c2 := make([]int, len(p2))
	copy(c2, p2[:cut])
	copy(c2[cut:], p1[cut:])

	return c1, c2
}

// mutate rewrites each gene with probability mutRate to a uniform draw
// from [0, R], so the no-match gene stays reachable whatever the
// initialization produced.
func (g *ga) mutate(genes []int, nr int) {
	for i := range genes {
		if g.rng.Float64() < g.mutRate {
			genes[i] = g.rng.IntN(nr + 1)
		}
	}
}
