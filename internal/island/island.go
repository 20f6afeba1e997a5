// Package island implements the Island lifecycle and concurrent evolution
// driver (spec.md §4.1/§5): one background worker goroutine per Island at
// most, joined by every other public call, with migration hooks invoked
// around each algorithm invocation when the Island is attached to an
// Archipelago.
package island

import (
	"math/rand"
	"sync"
	"time"

	"islandopt/internal/algorithm"
	"islandopt/internal/coreerr"
	"islandopt/internal/diagnostics"
	"islandopt/internal/migration"
	"islandopt/internal/population"
	"islandopt/internal/problem"
)

// ArchipelagoHandle is the Island-facing surface of Archipelago (spec.md
// §4.2). It is defined here, not in package archipelago, so that Island
// depends only on this narrow interface and Archipelago can hold Islands
// without a cyclic import — the same non-owning, weak-handle relationship
// spec.md §9 calls for.
type ArchipelagoHandle interface {
	// SyncIslandStart blocks until every non-blocking island in the current
	// round has reached the barrier.
	SyncIslandStart()
	// PreEvolution may deliver queued immigrants to the island at index.
	PreEvolution(index int) error
	// PostEvolution may harvest emigrants from the island at index.
	PostEvolution(index int) error
}

// Island owns a Problem, an Algorithm, a Population, and the S/R migration
// policies that govern it, and drives their evolution either inline or on a
// single background worker goroutine.
type Island struct {
	mu sync.Mutex

	prob     problem.Problem
	algo     algorithm.Algorithm
	pop      *population.Population
	migrProb float64
	sPolicy  migration.Selector
	rPolicy  migration.Replacer
	sink     diagnostics.Sink

	evolutionTimeMs int64

	arch      ArchipelagoHandle
	archIndex int

	busy       bool
	cancel     chan struct{}
	cancelOnce *sync.Once
	done       chan struct{}
}

// New constructs an Island, storing deep clones of problem, algorithm, and
// both policies, and seeding a Population of n random individuals.
func New(prob problem.Problem, algo algorithm.Algorithm, n int, migrProb float64, sPolicy migration.Selector, rPolicy migration.Replacer, rng *rand.Rand) (*Island, error) {
	if n < 0 {
		return nil, coreerr.NewValueError("island: n must be >= 0, got %d", n)
	}
	if migrProb < 0 || migrProb > 1 {
		return nil, coreerr.NewValueError("island: migr_prob must be in [0,1], got %g", migrProb)
	}

	probClone := prob.Clone()
	algoClone := algo.Clone()
	pop, err := population.New(probClone, n, rng)
	if err != nil {
		return nil, err
	}

	return &Island{
		prob:     probClone,
		algo:     algoClone,
		pop:      pop,
		migrProb: migrProb,
		sPolicy:  sPolicy.Clone(),
		rPolicy:  rPolicy.Clone(),
		sink:     diagnostics.Noop{},
	}, nil
}

// SetSink installs the diagnostic sink used for worker-caught errors.
func (isl *Island) SetSink(sink diagnostics.Sink) {
	if sink == nil {
		sink = diagnostics.Noop{}
	}
	isl.mu.Lock()
	isl.sink = sink
	isl.mu.Unlock()
}

// MigrProb returns the island's migration probability, fixed at construction.
func (isl *Island) MigrProb() float64 { return isl.migrProb }

// Clone joins any in-flight worker, then returns an independent deep copy.
// The clone is detached from any Archipelago: the parent back-reference is
// a non-owning relation and is not part of the owned state being copied.
func (isl *Island) Clone() *Island {
	isl.Join()
	isl.mu.Lock()
	defer isl.mu.Unlock()
	return &Island{
		prob:            isl.prob.Clone(),
		algo:            isl.algo.Clone(),
		pop:             isl.pop.Clone(),
		migrProb:        isl.migrProb,
		sPolicy:         isl.sPolicy.Clone(),
		rPolicy:         isl.rPolicy.Clone(),
		sink:            isl.sink,
		evolutionTimeMs: isl.evolutionTimeMs,
	}
}

// Attach installs a non-owning reference to the parent Archipelago and the
// island's index within it. Called by Archipelago when an island joins it.
func (isl *Island) Attach(handle ArchipelagoHandle, index int) {
	isl.Join()
	isl.mu.Lock()
	isl.arch = handle
	isl.archIndex = index
	isl.mu.Unlock()
}

// Detach clears the back-reference, per spec.md §9's non-owning relation.
func (isl *Island) Detach() {
	isl.Join()
	isl.mu.Lock()
	isl.arch = nil
	isl.archIndex = 0
	isl.mu.Unlock()
}

func (isl *Island) archHandle() (ArchipelagoHandle, int) {
	isl.mu.Lock()
	defer isl.mu.Unlock()
	return isl.arch, isl.archIndex
}

// Busy reports whether a background worker is currently active.
func (isl *Island) Busy() bool {
	isl.mu.Lock()
	defer isl.mu.Unlock()
	return isl.busy
}

// Join blocks until any in-flight background worker has completed. It is a
// no-op on a non-busy Island (join idempotence, spec.md §8).
func (isl *Island) Join() {
	isl.mu.Lock()
	done := isl.done
	isl.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Interrupt requests cancellation of any in-flight background worker. The
// worker observes this at the designated interruption point and exits
// cleanly; Interrupt itself always reports a RuntimeError to the caller,
// per spec.md §7.
func (isl *Island) Interrupt() error {
	isl.mu.Lock()
	cancel := isl.cancel
	once := isl.cancelOnce
	isl.mu.Unlock()
	if cancel != nil && once != nil {
		once.Do(func() { close(cancel) })
	}
	return coreerr.NewRuntimeError("island: interrupt requested")
}

// Problem returns a deep clone of the owned Problem.
func (isl *Island) Problem() problem.Problem {
	isl.Join()
	isl.mu.Lock()
	defer isl.mu.Unlock()
	return isl.prob.Clone()
}

// Algorithm returns a deep clone of the owned Algorithm.
func (isl *Island) Algorithm() algorithm.Algorithm {
	isl.Join()
	isl.mu.Lock()
	defer isl.mu.Unlock()
	return isl.algo.Clone()
}

// SPolicy returns a deep clone of the owned S-policy.
func (isl *Island) SPolicy() migration.Selector {
	isl.Join()
	isl.mu.Lock()
	defer isl.mu.Unlock()
	return isl.sPolicy.Clone()
}

// RPolicy returns a deep clone of the owned R-policy.
func (isl *Island) RPolicy() migration.Replacer {
	isl.Join()
	isl.mu.Lock()
	defer isl.mu.Unlock()
	return isl.rPolicy.Clone()
}

// Population returns a deep clone of the owned Population.
func (isl *Island) Population() *population.Population {
	isl.Join()
	isl.mu.Lock()
	defer isl.mu.Unlock()
	return isl.pop.Clone()
}

// EvolutionTimeMs returns the cumulative wall-clock milliseconds spent
// evolving this island, monotonically non-decreasing absent interrupts
// (spec.md §8).
func (isl *Island) EvolutionTimeMs() int64 {
	isl.Join()
	isl.mu.Lock()
	defer isl.mu.Unlock()
	return isl.evolutionTimeMs
}

// AcceptImmigrants asks the R-policy which (dest, src) pairs to apply,
// overwrites those population slots, and relies on Population.SetX to
// refresh the champion and domination list. It returns the number of pairs
// actually applied, for the Archipelago's migration log. Requires the
// Island is currently attached to an Archipelago.
//
// Unlike the get_* accessors, this does not join() first: spec.md §4.2 has
// the Archipelago invoke it from inside the Island's own pre_evolution hook,
// which runs on the Island's own worker goroutine mid-loop — joining there
// would deadlock against the very worker making the call.
func (isl *Island) AcceptImmigrants(immigrants []population.Individual) (int, error) {
	arch, _ := isl.archHandle()
	coreerr.Assert(arch != nil, "island: accept_immigrants called while detached from an archipelago")

	isl.mu.Lock()
	defer isl.mu.Unlock()
	pairs, err := isl.rPolicy.Select(immigrants, isl.pop)
	if err != nil {
		return 0, err
	}
	for _, p := range pairs {
		imm := immigrants[p.SrcIdx]
		isl.pop.SetX(p.DestIdx, imm.CurX, imm.CurF)
		isl.pop.SetV(p.DestIdx, imm.CurV)
	}
	return len(pairs), nil
}

// GetEmigrants returns the S-policy's chosen subset of the population. Like
// AcceptImmigrants, it does not join() first, for the same reason: the
// Archipelago calls it from the Island's own post_evolution hook.
func (isl *Island) GetEmigrants() ([]population.Individual, error) {
	isl.mu.Lock()
	defer isl.mu.Unlock()
	return isl.sPolicy.Select(isl.pop)
}

// Evolve schedules n invocations of the algorithm on the population. If
// either the Problem or the Algorithm reports itself blocking, it runs
// inline on the caller's goroutine; otherwise a single background worker is
// spawned and Evolve returns immediately.
func (isl *Island) Evolve(n int) error {
	if n < 0 {
		return coreerr.NewValueError("island: n must be >= 0, got %d", n)
	}
	isl.Join()

	if isl.isBlocking() {
		isl.runLoop(n, 0, false, nil, false)
		return nil
	}
	return isl.launchWorker(func(cancel <-chan struct{}) {
		isl.runLoop(n, 0, false, cancel, true)
	})
}

// EvolveT repeats algorithm invocations until the accumulated wall-clock
// time for this call is >= tMs, with at least one invocation.
func (isl *Island) EvolveT(tMs int64) error {
	if tMs < 0 {
		return coreerr.NewValueError("island: t_ms must be >= 0, got %d", tMs)
	}
	isl.Join()

	if isl.isBlocking() {
		isl.runLoop(0, tMs, true, nil, false)
		return nil
	}
	return isl.launchWorker(func(cancel <-chan struct{}) {
		isl.runLoop(0, tMs, true, cancel, true)
	})
}

// Blocking reports whether this Island's Problem or Algorithm forces inline
// execution (true) or whether Evolve/EvolveT run on a background worker
// (false). Callers that drive many Islands (e.g. Archipelago.AdvanceRound)
// use this to decide which islands to fan out into goroutines.
func (isl *Island) Blocking() bool {
	return isl.isBlocking()
}

func (isl *Island) isBlocking() bool {
	isl.mu.Lock()
	defer isl.mu.Unlock()
	return isl.prob.Blocking() || isl.algo.Blocking()
}

func (isl *Island) launchWorker(fn func(cancel <-chan struct{})) error {
	isl.mu.Lock()
	if isl.busy {
		isl.mu.Unlock()
		return coreerr.NewRuntimeError("island: a background worker is already running")
	}
	cancel := make(chan struct{})
	done := make(chan struct{})
	var once sync.Once
	isl.cancel = cancel
	isl.cancelOnce = &once
	isl.done = done
	isl.busy = true
	isl.mu.Unlock()

	go func() {
		defer func() {
			isl.mu.Lock()
			isl.busy = false
			isl.mu.Unlock()
			close(done)
		}()
		fn(cancel)
	}()
	return nil
}

// oneIteration runs pre_evolution < algorithm.evolve < post_evolution, the
// total order spec.md §5 requires within a single Island.
func (isl *Island) oneIteration() error {
	arch, idx := isl.archHandle()
	if arch != nil {
		if err := arch.PreEvolution(idx); err != nil {
			return err
		}
	}
	if err := isl.algo.Evolve(isl.pop); err != nil {
		return err
	}
	if arch != nil {
		if err := arch.PostEvolution(idx); err != nil {
			return err
		}
	}
	return nil
}

// runLoop is the evolution driver shared by Evolve and EvolveT (spec.md
// §4.1). When useTime is false it runs exactly maxIter iterations; when
// true it runs until elapsed wall-clock time is >= maxMs, with at least one
// iteration. cancel may be nil, in which case the run is never interrupted
// (the inline/blocking path, where there is no worker to signal). waitBarrier
// requests the archipelago start-barrier wait that non-blocking islands
// perform before their first iteration; blocking islands never wait.
func (isl *Island) runLoop(maxIter int, maxMs int64, useTime bool, cancel <-chan struct{}, waitBarrier bool) {
	start := time.Now()
	if waitBarrier {
		if arch, _ := isl.archHandle(); arch != nil {
			arch.SyncIslandStart()
		}
	}
	iter := 0

runloop:
	for {
		if useTime {
			if iter >= 1 && time.Since(start).Milliseconds() >= maxMs {
				break
			}
		} else if iter >= maxIter {
			break
		}

		if err := isl.oneIteration(); err != nil {
			isl.sink.Warn("island: algorithm error, iteration loop terminated: %v", err)
			break
		}
		iter++

		select {
		case <-cancel:
			break runloop
		default:
		}
	}

	elapsed := time.Since(start)
	if elapsed >= 0 {
		isl.mu.Lock()
		isl.evolutionTimeMs += elapsed.Milliseconds()
		isl.mu.Unlock()
	}
}
