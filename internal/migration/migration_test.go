package migration

import (
	"math/rand"
	"testing"

	"islandopt/internal/population"
	"islandopt/internal/problem"
)

func newTestPop(t *testing.T) *population.Population {
	t.Helper()
	prob, err := problem.NewSphere(3, 10.0)
	if err != nil {
		t.Fatalf("NewSphere: %v", err)
	}
	pop, err := population.New(prob, 10, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("population.New: %v", err)
	}
	return pop
}

func TestBestKSelectorPicksLowestFitness(t *testing.T) {
	pop := newTestPop(t)
	out, err := (BestKSelector{K: 3}).Select(pop)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 emigrants, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].BestF[0] < out[i-1].BestF[0] {
			t.Fatalf("emigrants not sorted best-first: %v", out)
		}
	}
}

func TestRandomKSelectorRejectsOversizedK(t *testing.T) {
	pop := newTestPop(t)
	sel := NewRandomKSelector(pop.Size()+1, 1)
	if _, err := sel.Select(pop); err == nil {
		t.Fatal("expected error for k > population size")
	}
}

func TestRandomKSelectorCloneIsIndependent(t *testing.T) {
	sel := NewRandomKSelector(3, 1)
	clone := sel.Clone()
	if clone.Name() != sel.Name() {
		t.Fatalf("clone name mismatch: %s vs %s", clone.Name(), sel.Name())
	}
	c := clone.(*RandomKSelector)
	if c.K != sel.K {
		t.Fatalf("clone K mismatch: %d vs %d", c.K, sel.K)
	}
	if c.rng == sel.rng {
		t.Fatal("clone shares the original's random engine")
	}
}

func TestReplaceWorstReplacerTargetsWorstSlots(t *testing.T) {
	pop := newTestPop(t)
	immigrant := population.Individual{
		CurX:  []float64{0, 0, 0},
		CurF:  []float64{0},
		BestX: []float64{0, 0, 0},
		BestF: []float64{0},
		CurV:  []float64{0, 0, 0},
	}
	pairs, err := (ReplaceWorstReplacer{}).Select([]population.Individual{immigrant}, pop)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pairing, got %d", len(pairs))
	}
	if pairs[0].DestIdx != pop.GetWorstIdx() {
		t.Fatalf("expected dest %d (worst), got %d", pop.GetWorstIdx(), pairs[0].DestIdx)
	}
	if pairs[0].SrcIdx != 0 {
		t.Fatalf("expected src 0, got %d", pairs[0].SrcIdx)
	}
}

func TestRandomReplacerRejectsTooManyImmigrants(t *testing.T) {
	pop := newTestPop(t)
	r := NewRandomReplacer(2)
	immigrants := make([]population.Individual, pop.Size()+1)
	if _, err := r.Select(immigrants, pop); err == nil {
		t.Fatal("expected error for too many immigrants")
	}
}

func TestRandomReplacerPairsAreWithinBounds(t *testing.T) {
	pop := newTestPop(t)
	r := NewRandomReplacer(3)
	immigrants := []population.Individual{
		{CurX: []float64{1, 1, 1}, CurF: []float64{3}, BestX: []float64{1, 1, 1}, BestF: []float64{3}, CurV: []float64{0, 0, 0}},
		{CurX: []float64{2, 2, 2}, CurF: []float64{12}, BestX: []float64{2, 2, 2}, BestF: []float64{12}, CurV: []float64{0, 0, 0}},
	}
	pairs, err := r.Select(immigrants, pop)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	seen := map[int]bool{}
	for _, p := range pairs {
		if p.DestIdx < 0 || p.DestIdx >= pop.Size() {
			t.Fatalf("dest idx %d out of range", p.DestIdx)
		}
		if p.SrcIdx < 0 || p.SrcIdx >= len(immigrants) {
			t.Fatalf("src idx %d out of range", p.SrcIdx)
		}
		if seen[p.DestIdx] {
			t.Fatalf("dest idx %d repeated", p.DestIdx)
		}
		seen[p.DestIdx] = true
	}
}
