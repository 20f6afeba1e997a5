package sade

import (
	"math/rand"
	"testing"

	"islandopt/internal/population"
	"islandopt/internal/problem"
)

func newSpherePop(t *testing.T, n int) *population.Population {
	t.Helper()
	prob, err := problem.NewSphere(5, 5.0)
	if err != nil {
		t.Fatalf("NewSphere: %v", err)
	}
	pop, err := population.New(prob, n, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("population.New: %v", err)
	}
	return pop
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{Gen: -1, Variant: 2, Ftol: 1e-6, Xtol: 1e-6},
		{Gen: 10, Variant: 0, Ftol: 1e-6, Xtol: 1e-6},
		{Gen: 10, Variant: 19, Ftol: 1e-6, Xtol: 1e-6},
		{Gen: 10, Variant: 2, VariantAdptv: 2, Ftol: 1e-6, Xtol: 1e-6},
		{Gen: 10, Variant: 2, Ftol: -1, Xtol: 1e-6},
	}
	for i, c := range cases {
		if _, err := New(c, 1, 2); err == nil {
			t.Errorf("case %d: expected error for config %+v", i, c)
		}
	}
}

func TestEvolveImprovesChampion(t *testing.T) {
	pop := newSpherePop(t, 20)
	before := pop.Champion().BestF[0]

	sa, err := New(Config{Gen: 200, Variant: 2, Ftol: 1e-12, Xtol: 1e-12}, 1, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sa.Evolve(pop); err != nil {
		t.Fatalf("Evolve: %v", err)
	}

	after := pop.Champion().BestF[0]
	if after > before {
		t.Fatalf("champion fitness worsened: before=%g after=%g", before, after)
	}
}

func TestEvolveRespectsBounds(t *testing.T) {
	pop := newSpherePop(t, 12)
	sa, err := New(Config{Gen: 50, Variant: 6, Ftol: 0, Xtol: 0}, 3, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sa.Evolve(pop); err != nil {
		t.Fatalf("Evolve: %v", err)
	}
	lb, ub := pop.Problem().Bounds()
	for i := 0; i < pop.Size(); i++ {
		ind := pop.GetIndividual(i)
		for j, v := range ind.CurX {
			if v < lb[j] || v > ub[j] {
				t.Fatalf("individual %d dim %d out of bounds: %g not in [%g,%g]", i, j, v, lb[j], ub[j])
			}
		}
	}
}

func TestEvolveZeroGenIsNoop(t *testing.T) {
	pop := newSpherePop(t, 10)
	before := pop.Champion().Clone()

	sa, err := New(Config{Gen: 0, Variant: 2, Ftol: 1e-6, Xtol: 1e-6}, 1, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sa.Evolve(pop); err != nil {
		t.Fatalf("Evolve: %v", err)
	}
	after := pop.Champion()
	if before.BestF[0] != after.BestF[0] {
		t.Fatalf("Gen=0 should not change champion fitness: before=%g after=%g", before.BestF[0], after.BestF[0])
	}
}

func TestEvolveRejectsTooSmallPopulation(t *testing.T) {
	pop := newSpherePop(t, 4)
	sa, err := New(Config{Gen: 5, Variant: 2, Ftol: 1e-6, Xtol: 1e-6}, 1, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sa.Evolve(pop); err == nil {
		t.Fatal("expected error for population size < 8")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	sa, err := New(Config{Gen: 10, Variant: 2, Ftol: 1e-6, Xtol: 1e-6}, 1, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	popA := newSpherePop(t, 10)
	if err := sa.Evolve(popA); err != nil {
		t.Fatalf("Evolve: %v", err)
	}

	fBefore := append([]float64(nil), sa.f...)
	crBefore := append([]float64(nil), sa.cr...)

	clone := sa.Clone()
	popB := newSpherePop(t, 10)
	if err := clone.Evolve(popB); err != nil {
		t.Fatalf("clone Evolve: %v", err)
	}
	// Evolving the clone must leave the original's F/CR state untouched.
	cloned := clone.(*SADE)
	if len(cloned.f) != len(sa.f) || len(cloned.cr) != len(sa.cr) {
		t.Fatalf("clone F/CR lengths %d/%d differ from original %d/%d", len(cloned.f), len(cloned.cr), len(sa.f), len(sa.cr))
	}
	for i := range fBefore {
		if sa.f[i] != fBefore[i] || sa.cr[i] != crBefore[i] {
			t.Fatalf("original F/CR changed at %d after evolving the clone", i)
		}
	}
}

func TestVariantsAllRun(t *testing.T) {
	for variant := 1; variant <= 18; variant++ {
		for _, adptv := range []int{0, 1} {
			pop := newSpherePop(t, 10)
			sa, err := New(Config{Gen: 20, Variant: variant, VariantAdptv: adptv, Ftol: 1e-9, Xtol: 1e-9}, int64(variant), int64(variant+100))
			if err != nil {
				t.Fatalf("variant %d adptv %d: New: %v", variant, adptv, err)
			}
			if err := sa.Evolve(pop); err != nil {
				t.Fatalf("variant %d adptv %d: Evolve: %v", variant, adptv, err)
			}
		}
	}
}
