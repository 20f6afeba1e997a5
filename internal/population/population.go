// Package population holds the Individual/Population records shared by every
// Algorithm and by the Island driver.
package population

import (
	"fmt"
	"math/rand"

	"islandopt/internal/problem"
)

// Individual is one candidate solution: its current position and fitness,
// the best position/fitness it has ever held, and the step ("velocity") of
// its most recent move.
type Individual struct {
	CurX  []float64
	CurF  []float64
	BestX []float64
	BestF []float64
	CurV  []float64
}

// Clone returns an independent deep copy of the Individual.
func (ind Individual) Clone() Individual {
	return Individual{
		CurX:  append([]float64(nil), ind.CurX...),
		CurF:  append([]float64(nil), ind.CurF...),
		BestX: append([]float64(nil), ind.BestX...),
		BestF: append([]float64(nil), ind.BestF...),
		CurV:  append([]float64(nil), ind.CurV...),
	}
}

// Population is an ordered list of Individuals plus a champion snapshot and
// per-individual domination bookkeeping. The Population owns every
// Individual; Champion is a value snapshot, never a reference into
// Individuals.
type Population struct {
	problem    problem.Problem
	individuals []Individual
	champion    Individual
	hasChampion bool
	domCount    []int // domination-list bookkeeping: how many peers each individual currently dominates
}

// New allocates a Population of n random Individuals within the Problem's
// bounds, using rng for both continuous and integer components.
func New(p problem.Problem, n int, rng *rand.Rand) (*Population, error) {
	if n < 0 {
		return nil, fmt.Errorf("population: size must be >= 0, got %d", n)
	}
	if err := problem.Validate(p); err != nil {
		return nil, err
	}
	lb, ub := p.Bounds()
	d := p.Dimension()
	fd := p.FitnessDimension()

	pop := &Population{
		problem:     p,
		individuals: make([]Individual, n),
		domCount:    make([]int, n),
	}
	for i := 0; i < n; i++ {
		x := make([]float64, d)
		for j := 0; j < d; j++ {
			if lb[j] == ub[j] {
				x[j] = lb[j]
			} else {
				x[j] = lb[j] + rng.Float64()*(ub[j]-lb[j])
			}
		}
		f := make([]float64, fd)
		if err := p.Objective(f, x); err != nil {
			return nil, fmt.Errorf("population: seed individual %d: %w", i, err)
		}
		pop.individuals[i] = Individual{
			CurX:  x,
			CurF:  append([]float64(nil), f...),
			BestX: append([]float64(nil), x...),
			BestF: append([]float64(nil), f...),
			CurV:  make([]float64, d),
		}
		pop.updateChampion(i)
	}
	return pop, nil
}

// Clone returns an independent deep copy of the Population, including a
// clone of the owned Problem.
func (pop *Population) Clone() *Population {
	clone := &Population{
		problem:     pop.problem.Clone(),
		individuals: make([]Individual, len(pop.individuals)),
		champion:    pop.champion.Clone(),
		hasChampion: pop.hasChampion,
		domCount:    append([]int(nil), pop.domCount...),
	}
	for i, ind := range pop.individuals {
		clone.individuals[i] = ind.Clone()
	}
	return clone
}

// Size returns the number of Individuals, N.
func (pop *Population) Size() int { return len(pop.individuals) }

// Problem returns the Population's owned Problem.
func (pop *Population) Problem() problem.Problem { return pop.problem }

// GetIndividual returns a deep copy of the i-th Individual.
func (pop *Population) GetIndividual(i int) Individual {
	return pop.individuals[i].Clone()
}

// SetX overwrites the i-th individual's current position and re-evaluates
// its current fitness, updating best_x/best_f if the new position is at
// least as good, then refreshes the champion and domination list.
func (pop *Population) SetX(i int, x []float64, f []float64) {
	ind := &pop.individuals[i]
	ind.CurX = append([]float64(nil), x...)
	ind.CurF = append([]float64(nil), f...)
	if !pop.problem.Better(ind.BestF, ind.CurF) {
		ind.BestX = append([]float64(nil), x...)
		ind.BestF = append([]float64(nil), f...)
	}
	pop.updateChampion(i)
	pop.updateDomList(i)
}

// SetV overwrites the i-th individual's step vector.
func (pop *Population) SetV(i int, v []float64) {
	pop.individuals[i].CurV = append([]float64(nil), v...)
}

// Champion returns a deep copy of the best Individual ever observed in this
// Population.
func (pop *Population) Champion() Individual {
	return pop.champion.Clone()
}

// GetBestIdx returns the index of the Individual with the best BestF under
// the Problem's comparator.
func (pop *Population) GetBestIdx() int {
	best := 0
	for i := 1; i < len(pop.individuals); i++ {
		if pop.problem.Better(pop.individuals[i].BestF, pop.individuals[best].BestF) {
			best = i
		}
	}
	return best
}

// GetWorstIdx returns the index of the Individual with the worst BestF under
// the Problem's comparator.
func (pop *Population) GetWorstIdx() int {
	worst := 0
	for i := 1; i < len(pop.individuals); i++ {
		if pop.problem.Better(pop.individuals[worst].BestF, pop.individuals[i].BestF) {
			worst = i
		}
	}
	return worst
}

// UpdateChampion re-evaluates whether Individual i should replace the
// current champion snapshot.
func (pop *Population) UpdateChampion(i int) { pop.updateChampion(i) }

func (pop *Population) updateChampion(i int) {
	ind := pop.individuals[i]
	if !pop.hasChampion || pop.problem.Better(ind.BestF, pop.champion.BestF) {
		pop.champion = ind.Clone()
		pop.hasChampion = true
	}
}

// UpdateDomList refreshes individual i's domination-count bookkeeping
// against the rest of the population. This is the only per-individual
// multi-objective ranking hook the core exposes; for the single-objective
// SA-DE path (Fd=1) it degenerates to a strict better/worse count.
func (pop *Population) UpdateDomList(i int) { pop.updateDomList(i) }

func (pop *Population) updateDomList(i int) {
	count := 0
	for j := range pop.individuals {
		if j == i {
			continue
		}
		if pop.problem.Better(pop.individuals[i].BestF, pop.individuals[j].BestF) {
			count++
		}
	}
	pop.domCount[i] = count
}
