// Package sade implements self-adaptive Differential Evolution (SA-DE), the
// representative numerical Algorithm described in spec.md §4.4: sampling,
// mutation, crossover, feasibility repair, parameter self-adaptation, and
// the periodic convergence exit test.
package sade

import (
	"math/rand"

	"islandopt/internal/algorithm"
	"islandopt/internal/coreerr"
	"islandopt/internal/diagnostics"
	"islandopt/internal/population"
)

// Config holds SA-DE's construction-time parameters, validated once by New.
type Config struct {
	// Gen is the number of internal generations run per Evolve call.
	Gen int
	// Variant selects one of the 18 mutation/crossover rules (spec.md §4.4).
	Variant int
	// VariantAdptv selects jDE-style (1) or classic (0) parameter
	// self-adaptation.
	VariantAdptv int
	// Ftol and Xtol are the convergence exit thresholds.
	Ftol, Xtol float64
	// Restart forces F/CR to be reallocated and resampled on every Evolve
	// call, even when N is unchanged.
	Restart bool
}

func (c Config) validate() error {
	if c.Gen < 0 {
		return coreerr.NewValueError("sade: gen must be >= 0, got %d", c.Gen)
	}
	if c.Variant < 1 || c.Variant > 18 {
		return coreerr.NewValueError("sade: variant must be in [1,18], got %d", c.Variant)
	}
	if c.VariantAdptv != 0 && c.VariantAdptv != 1 {
		return coreerr.NewValueError("sade: variant_adptv must be 0 or 1, got %d", c.VariantAdptv)
	}
	if c.Ftol < 0 {
		return coreerr.NewValueError("sade: ftol must be >= 0, got %g", c.Ftol)
	}
	if c.Xtol < 0 {
		return coreerr.NewValueError("sade: xtol must be >= 0, got %g", c.Xtol)
	}
	return nil
}

// SADE is the concrete Algorithm. F and CR are the two per-individual
// self-adaptive parameter sequences; they persist across Evolve calls unless
// Restart is set or the population size changes (spec.md §3).
type SADE struct {
	cfg Config

	f, cr []float64

	rngCont *rand.Rand // continuous draws: Uniform/Normal samples
	rngDisc *rand.Rand // discrete draws: mate-sampling indices

	sink diagnostics.Sink
}

// New validates cfg and constructs an SADE instance with two independently
// seeded random engines, per spec.md §9's "one continuous, one discrete,
// never shared" rule.
func New(cfg Config, contSeed, discSeed int64) (*SADE, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &SADE{
		cfg:     cfg,
		rngCont: rand.New(rand.NewSource(contSeed)),
		rngDisc: rand.New(rand.NewSource(discSeed)),
		sink:    diagnostics.Noop{},
	}, nil
}

// SetSink installs the diagnostic sink used for convergence-exit notices.
func (s *SADE) SetSink(sink diagnostics.Sink) {
	if sink == nil {
		sink = diagnostics.Noop{}
	}
	s.sink = sink
}

// Blocking reports false: SA-DE's evaluation is pure CPU work safe to run in
// an Island's background worker.
func (s *SADE) Blocking() bool { return false }

// Clone returns an independent SADE with copied F/CR state. The clone's
// random engines are reseeded from draws of the original engines so the two
// instances diverge rather than replay an identical stream.
func (s *SADE) Clone() algorithm.Algorithm {
	clone := &SADE{
		cfg:  s.cfg,
		f:    append([]float64(nil), s.f...),
		cr:   append([]float64(nil), s.cr...),
		sink: s.sink,
	}
	clone.rngCont = rand.New(rand.NewSource(s.rngCont.Int63()))
	clone.rngDisc = rand.New(rand.NewSource(s.rngDisc.Int63()))
	return clone
}

// Evolve runs up to cfg.Gen internal DE generations against pop, per
// spec.md §4.4.
func (s *SADE) Evolve(pop *population.Population) error {
	prob := pop.Problem()
	dc := prob.ContinuousDimension()
	if dc < 1 {
		return coreerr.NewValueError("sade: requires continuous dimension >= 1, got %d", dc)
	}
	if prob.ConstraintDimension() != 0 {
		return coreerr.NewValueError("sade: only box-constrained problems are supported, got %d constraints", prob.ConstraintDimension())
	}
	if prob.FitnessDimension() != 1 {
		return coreerr.NewValueError("sade: only single-objective problems are supported, got Fd=%d", prob.FitnessDimension())
	}
	n := pop.Size()
	if n < 8 {
		return coreerr.NewValueError("sade: population size must be >= 8, got %d", n)
	}
	if s.cfg.Gen == 0 {
		return nil
	}

	if len(s.f) != n || len(s.cr) != n || s.cfg.Restart {
		s.reinitParams(n)
	}

	lb, ub := prob.Bounds()

	popold := make([][]float64, n)
	fit := make([]float64, n)
	for i := 0; i < n; i++ {
		ind := pop.GetIndividual(i)
		popold[i] = append([]float64(nil), ind.CurX...)
		fit[i] = ind.CurF[0]
	}

	gbX, gbfit := s.seedGlobalBest(pop)
	gbIter := append([]float64(nil), gbX...)

	for gen := 1; gen <= s.cfg.Gen; gen++ {
		popnew := make([][]float64, n)
		for i := 0; i < n; i++ {
			r1, r2, r3, r4, r5, r6, r7 := s.sampleMates(n, i)

			fi, cri := s.adaptParams(i, r1, r2, r3, r4, r5, r6)

			tmp := append([]float64(nil), popold[i]...)
			s.crossover(tmp, popold, i, r1, r2, r3, r4, r5, r6, r7, gbIter, fi, cri, dc)
			s.repair(tmp, lb, ub, dc)

			trialF := make([]float64, 1)
			if err := prob.Objective(trialF, tmp); err != nil {
				return err
			}

			if prob.Better(trialF, []float64{fit[i]}) {
				oldX := popold[i]
				fit[i] = trialF[0]
				popnew[i] = tmp
				s.f[i] = fi
				s.cr[i] = cri

				velocity := make([]float64, len(tmp))
				for j := range velocity {
					velocity[j] = tmp[j] - oldX[j]
				}
				pop.SetX(i, tmp, trialF)
				pop.SetV(i, velocity)

				if prob.Better(trialF, []float64{gbfit}) {
					gbfit = trialF[0]
					gbX = append([]float64(nil), tmp...)
				}
			} else {
				popnew[i] = popold[i]
			}
		}
		gbIter = append([]float64(nil), gbX...)
		popold = popnew

		if shouldCheckConvergence(gen) {
			if done, err := s.checkConvergence(pop); done {
				return err
			}
		}
	}
	return nil
}

// shouldCheckConvergence implements the documented behaviour ("every 40
// generations") rather than the source's literal gen%40!=0 — see DESIGN.md
// Open Question 1.
func shouldCheckConvergence(gen int) bool {
	return gen > 0 && gen%40 == 0
}

func (s *SADE) checkConvergence(pop *population.Population) (bool, error) {
	prob := pop.Problem()
	worst := pop.GetIndividual(pop.GetWorstIdx())
	best := pop.GetIndividual(pop.GetBestIdx())

	dx := 0.0
	for j := range worst.BestX {
		diff := worst.BestX[j] - best.BestX[j]
		if diff < 0 {
			diff = -diff
		}
		dx += diff
	}
	if dx < s.cfg.Xtol {
		s.sink.Info("Exit condition -- xtol < %g", s.cfg.Xtol)
		return true, nil
	}

	df := worst.BestF[0] - best.BestF[0]
	if df < 0 {
		df = -df
	}
	if df < s.cfg.Ftol {
		s.sink.Info("Exit condition -- ftol < %g", s.cfg.Ftol)
		return true, nil
	}
	_ = prob
	return false, nil
}

func (s *SADE) seedGlobalBest(pop *population.Population) ([]float64, float64) {
	champ := pop.Champion()
	return append([]float64(nil), champ.BestX...), champ.BestF[0]
}

func (s *SADE) reinitParams(n int) {
	s.f = make([]float64, n)
	s.cr = make([]float64, n)
	for i := 0; i < n; i++ {
		if s.cfg.VariantAdptv == 1 {
			s.f[i] = s.rngCont.NormFloat64()*0.15 + 0.5
			s.cr[i] = s.rngCont.NormFloat64()*0.15 + 0.5
		} else {
			s.cr[i] = s.rngCont.Float64()
			s.f[i] = 0.1 + s.rngCont.Float64()*0.9
		}
	}
}

// sampleMates draws 7 distinct indices from [0,N), each != i, by rejection.
func (s *SADE) sampleMates(n, i int) (r1, r2, r3, r4, r5, r6, r7 int) {
	chosen := make(map[int]struct{}, 8)
	chosen[i] = struct{}{}
	draw := func() int {
		for {
			v := s.rngDisc.Intn(n)
			if _, taken := chosen[v]; !taken {
				chosen[v] = struct{}{}
				return v
			}
		}
	}
	r1, r2, r3, r4, r5, r6, r7 = draw(), draw(), draw(), draw(), draw(), draw(), draw()
	return
}

func (s *SADE) adaptParams(i, r1, r2, r3, r4, r5, r6 int) (fi, cri float64) {
	if s.cfg.VariantAdptv == 1 {
		fi = s.f[i] +
			s.rngCont.NormFloat64()*0.5*(s.f[r1]-s.f[r2]) +
			s.rngCont.NormFloat64()*0.5*(s.f[r3]-s.f[r4]) +
			s.rngCont.NormFloat64()*0.5*(s.f[r5]-s.f[r6])
		cri = s.cr[i] +
			s.rngCont.NormFloat64()*0.5*(s.cr[r1]-s.cr[r2]) +
			s.rngCont.NormFloat64()*0.5*(s.cr[r3]-s.cr[r4]) +
			s.rngCont.NormFloat64()*0.5*(s.cr[r5]-s.cr[r6])
		return fi, cri
	}

	if s.rngCont.Float64() < 0.9 {
		fi = s.f[i]
	} else {
		fi = 0.1 + s.rngCont.Float64()*0.9
	}
	if s.rngCont.Float64() < 0.9 {
		cri = s.cr[i]
	} else {
		cri = s.rngCont.Float64()
	}
	return fi, cri
}

// crossover mutates tmp in place using the variant's base+step rule and the
// exponential/binomial crossover scheme spec.md §4.4 assigns to it.
func (s *SADE) crossover(tmp []float64, popold [][]float64, i, r1, r2, r3, r4, r5, r6, r7 int, gbIter []float64, fi, cri float64, dc int) {
	start := s.rngDisc.Intn(dc)
	value := func(n int) float64 {
		return variantValue(s.cfg.Variant, n, fi, popold, i, r1, r2, r3, r4, r5, r6, r7, gbIter)
	}

	if isExponential(s.cfg.Variant) {
		n := start
		replacements := 0
		for {
			tmp[n] = value(n)
			n = (n + 1) % dc
			replacements++
			if s.rngCont.Float64() >= cri || replacements >= dc {
				break
			}
		}
		return
	}

	n := start
	for l := 0; l < dc; l++ {
		if s.rngCont.Float64() < cri || l == dc-1 {
			tmp[n] = value(n)
		}
		n = (n + 1) % dc
	}
}

func isExponential(variant int) bool {
	switch variant {
	case 1, 2, 3, 4, 5, 11, 13, 15, 17:
		return true
	default:
		return false
	}
}

// variantValue evaluates the base+step expression for one of the 18 DE
// variants (spec.md §4.4's table) at continuous coordinate n.
func variantValue(variant, n int, f float64, popold [][]float64, i, r1, r2, r3, r4, r5, r6, r7 int, gbIter []float64) float64 {
	switch variant {
	case 1, 6:
		return gbIter[n] + f*(popold[r2][n]-popold[r3][n])
	case 2, 7:
		return popold[r1][n] + f*(popold[r2][n]-popold[r3][n])
	case 3, 8:
		return popold[i][n] + f*(gbIter[n]-popold[i][n]) + f*(popold[r1][n]-popold[r2][n])
	case 4, 9:
		return gbIter[n] + f*(popold[r1][n]+popold[r2][n]-popold[r3][n]-popold[r4][n])
	case 5, 10:
		return popold[r5][n] + f*(popold[r1][n]+popold[r2][n]-popold[r3][n]-popold[r4][n])
	case 11, 12:
		return gbIter[n] + f*(popold[r1][n]-popold[r2][n]) + f*(popold[r3][n]-popold[r4][n]) + f*(popold[r5][n]-popold[r6][n])
	case 13, 14:
		return popold[r7][n] + f*(popold[r1][n]-popold[r2][n]) + f*(popold[r3][n]-popold[r4][n]) + f*(popold[r5][n]-popold[r6][n])
	case 15, 16:
		return popold[r7][n] + f*(popold[r1][n]-popold[i][n]) + f*(popold[r3][n]-popold[r4][n])
	case 17, 18:
		return popold[r7][n] + f*(popold[r1][n]-popold[i][n]) + f*(gbIter[n]-popold[r4][n])
	default:
		return popold[i][n]
	}
}

func (s *SADE) repair(tmp, lb, ub []float64, dc int) {
	for j := 0; j < dc; j++ {
		if tmp[j] < lb[j] || tmp[j] > ub[j] {
			tmp[j] = lb[j] + s.rngCont.Float64()*(ub[j]-lb[j])
		}
	}
}
