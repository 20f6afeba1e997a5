// Package migration implements the S-policy / R-policy pair Island and
// Archipelago apply around each algorithm invocation (spec.md §4.2/§4.3).
// Both policies are pure and value-type polymorphic: Select never mutates
// its Population argument, and Clone returns an independently mutable copy
// of any owned state (e.g. a policy's own rand.Rand).
package migration

import (
	"fmt"
	"math/rand"
	"sort"

	"islandopt/internal/population"
)

// Selector is the S-policy: it chooses which individuals emigrate.
type Selector interface {
	Name() string
	// Select returns copies of the chosen individuals from pop.
	Select(pop *population.Population) ([]population.Individual, error)
	Clone() Selector
}

// Pairing maps one immigrant onto one destination population slot.
// DestIdx must be < the destination population's size; SrcIdx must be <
// len(immigrants), per spec.md §4.3.
type Pairing struct {
	DestIdx int
	SrcIdx  int
}

// Replacer is the R-policy: given a batch of immigrants and the destination
// population, it decides which slots each immigrant overwrites. It does not
// perform the overwrite itself — that is Island.accept_immigrants's job.
type Replacer interface {
	Name() string
	Select(immigrants []population.Individual, pop *population.Population) ([]Pairing, error)
	Clone() Replacer
}

func rankByBest(pop *population.Population) []int {
	prob := pop.Problem()
	idx := make([]int, pop.Size())
	best := make([]population.Individual, pop.Size())
	for i := range idx {
		idx[i] = i
		best[i] = pop.GetIndividual(i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return prob.Better(best[idx[a]].BestF, best[idx[b]].BestF)
	})
	return idx
}

func clampK(k, n int) (int, error) {
	if k < 0 {
		return 0, fmt.Errorf("migration: k must be >= 0, got %d", k)
	}
	if k > n {
		return 0, fmt.Errorf("migration: k=%d exceeds population size %d", k, n)
	}
	return k, nil
}

// BestKSelector emigrates the K individuals with the best BestF, ties broken
// by population index. Pure: no owned random state.
type BestKSelector struct {
	K int
}

func (s BestKSelector) Name() string { return "best_k" }

func (s BestKSelector) Select(pop *population.Population) ([]population.Individual, error) {
	k, err := clampK(s.K, pop.Size())
	if err != nil {
		return nil, err
	}
	ranked := rankByBest(pop)
	out := make([]population.Individual, k)
	for i := 0; i < k; i++ {
		out[i] = pop.GetIndividual(ranked[i])
	}
	return out, nil
}

func (s BestKSelector) Clone() Selector { return BestKSelector{K: s.K} }

// RandomKSelector emigrates K individuals sampled without replacement, using
// an owned random engine so repeated calls do not replay the same draw.
type RandomKSelector struct {
	K   int
	rng *rand.Rand
}

// NewRandomKSelector constructs a RandomKSelector with its own seeded
// engine, per spec.md §9's "each policy owns its randomness" convention.
func NewRandomKSelector(k int, seed int64) *RandomKSelector {
	return &RandomKSelector{K: k, rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomKSelector) Name() string { return "random_k" }

func (s *RandomKSelector) Select(pop *population.Population) ([]population.Individual, error) {
	k, err := clampK(s.K, pop.Size())
	if err != nil {
		return nil, err
	}
	perm := s.rng.Perm(pop.Size())
	out := make([]population.Individual, k)
	for i := 0; i < k; i++ {
		out[i] = pop.GetIndividual(perm[i])
	}
	return out, nil
}

func (s *RandomKSelector) Clone() Selector {
	return &RandomKSelector{K: s.K, rng: rand.New(rand.NewSource(s.rng.Int63()))}
}

// ReplaceWorstReplacer maps each immigrant onto one of the len(immigrants)
// worst-BestF destination slots, in arrival order.
type ReplaceWorstReplacer struct{}

func (ReplaceWorstReplacer) Name() string { return "replace_worst" }

func (ReplaceWorstReplacer) Select(immigrants []population.Individual, pop *population.Population) ([]Pairing, error) {
	if len(immigrants) > pop.Size() {
		return nil, fmt.Errorf("migration: %d immigrants exceed population size %d", len(immigrants), pop.Size())
	}
	ranked := rankByBest(pop)
	pairs := make([]Pairing, len(immigrants))
	for i := range immigrants {
		pairs[i] = Pairing{DestIdx: ranked[len(ranked)-1-i], SrcIdx: i}
	}
	return pairs, nil
}

func (ReplaceWorstReplacer) Clone() Replacer { return ReplaceWorstReplacer{} }

// RandomReplacer maps each immigrant onto a random, non-repeating
// destination slot, using an owned random engine.
type RandomReplacer struct {
	rng *rand.Rand
}

// NewRandomReplacer constructs a RandomReplacer with its own seeded engine.
func NewRandomReplacer(seed int64) *RandomReplacer {
	return &RandomReplacer{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomReplacer) Name() string { return "random" }

func (r *RandomReplacer) Select(immigrants []population.Individual, pop *population.Population) ([]Pairing, error) {
	if len(immigrants) > pop.Size() {
		return nil, fmt.Errorf("migration: %d immigrants exceed population size %d", len(immigrants), pop.Size())
	}
	perm := r.rng.Perm(pop.Size())
	pairs := make([]Pairing, len(immigrants))
	for i := range immigrants {
		pairs[i] = Pairing{DestIdx: perm[i], SrcIdx: i}
	}
	return pairs, nil
}

func (r *RandomReplacer) Clone() Replacer {
	return &RandomReplacer{rng: rand.New(rand.NewSource(r.rng.Int63()))}
}
