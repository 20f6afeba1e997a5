// Package archipelago implements the migration coordinator (spec.md §4.2):
// island ownership, migration topology, the per-round start barrier, and
// the pre/post-evolution hooks that harvest and deliver migrants between
// algorithm invocations.
package archipelago

import (
	"fmt"
	"math/rand"
	"sync"

	"islandopt/internal/coreerr"
	"islandopt/internal/island"
	"islandopt/internal/population"
)

// Topology maps an island index to the indices of the neighbours its
// emigrants may be sent to.
type Topology map[int][]int

// Ring builds the directed ring topology used by the spec's two-island
// migration scenario: island i emigrates to island (i+1)%n.
func Ring(n int) Topology {
	t := make(Topology, n)
	for i := 0; i < n; i++ {
		t[i] = []int{(i + 1) % n}
	}
	return t
}

// Validate checks that every index topology names is in range.
func (t Topology) Validate(n int) error {
	for src, dests := range t {
		if src < 0 || src >= n {
			return fmt.Errorf("archipelago: topology source index %d out of range [0,%d)", src, n)
		}
		for _, d := range dests {
			if d < 0 || d >= n {
				return fmt.Errorf("archipelago: topology destination index %d out of range [0,%d)", d, n)
			}
		}
	}
	return nil
}

// roundBarrier is a one-shot counting barrier: the total arrival count is
// known up front (the number of non-blocking islands advanced this round),
// and the last arrival releases every waiter.
type roundBarrier struct {
	mu      sync.Mutex
	total   int
	arrived int
	release chan struct{}
}

func newRoundBarrier(total int) *roundBarrier {
	return &roundBarrier{total: total, release: make(chan struct{})}
}

func (b *roundBarrier) arrive() {
	if b.total == 0 {
		return
	}
	b.mu.Lock()
	b.arrived++
	last := b.arrived >= b.total
	b.mu.Unlock()
	if last {
		close(b.release)
		return
	}
	<-b.release
}

// MigrationEvent records one harvested-and-delivered batch of emigrants
// between two islands, for the caller to fold into a persisted migration
// log. Round numbering is the caller's concern; Archipelago only knows
// about a single round at a time.
type MigrationEvent struct {
	SourceIsland  int
	DestIsland    int
	EmigrantCount int
	AppliedCount  int
}

// migrationBatch is one source island's emigrants queued for one
// destination, kept separate from other sources' batches to the same
// destination so each can be recorded as its own MigrationEvent.
type migrationBatch struct {
	source      int
	individuals []population.Individual
}

// Archipelago owns an ordered list of Islands and the migration topology
// over their indices.
type Archipelago struct {
	islands  []*island.Island
	topology Topology

	rngMu sync.Mutex
	rng   *rand.Rand

	barrierMu sync.Mutex
	barrier   *roundBarrier

	pendingMu sync.Mutex
	pending   map[int][]migrationBatch

	eventsMu sync.Mutex
	events   []MigrationEvent
}

// New attaches each Island to the Archipelago at its slice index and
// validates the topology against the island count.
func New(islands []*island.Island, topology Topology, seed int64) (*Archipelago, error) {
	if len(islands) == 0 {
		return nil, coreerr.NewValueError("archipelago: at least one island is required")
	}
	if err := topology.Validate(len(islands)); err != nil {
		return nil, err
	}
	a := &Archipelago{
		islands:  islands,
		topology: topology,
		rng:      rand.New(rand.NewSource(seed)),
		pending:  make(map[int][]migrationBatch),
	}
	for i, isl := range a.islands {
		isl.Attach(a, i)
	}
	return a, nil
}

// Islands returns the Archipelago's owned islands in topology order. The
// slice itself is not a copy; callers needing isolation should clone the
// islands they intend to read concurrently with ongoing evolution.
func (a *Archipelago) Islands() []*island.Island { return a.islands }

// SyncIslandStart implements island.ArchipelagoHandle: it blocks until
// every non-blocking island participating in the current round has reached
// this call.
func (a *Archipelago) SyncIslandStart() {
	a.barrierMu.Lock()
	b := a.barrier
	a.barrierMu.Unlock()
	if b != nil {
		b.arrive()
	}
}

// PreEvolution implements island.ArchipelagoHandle: it delivers any
// immigrants queued for this island by a prior PostEvolution call, one
// source batch at a time so each source/destination pair gets its own
// MigrationEvent.
func (a *Archipelago) PreEvolution(index int) error {
	a.pendingMu.Lock()
	batches := a.pending[index]
	delete(a.pending, index)
	a.pendingMu.Unlock()

	for _, batch := range batches {
		applied, err := a.islands[index].AcceptImmigrants(batch.individuals)
		if err != nil {
			return err
		}
		a.recordEvent(MigrationEvent{
			SourceIsland:  batch.source,
			DestIsland:    index,
			EmigrantCount: len(batch.individuals),
			AppliedCount:  applied,
		})
	}
	return nil
}

func (a *Archipelago) recordEvent(evt MigrationEvent) {
	a.eventsMu.Lock()
	a.events = append(a.events, evt)
	a.eventsMu.Unlock()
}

// DrainEvents returns every MigrationEvent recorded since the last call and
// clears the internal buffer.
func (a *Archipelago) DrainEvents() []MigrationEvent {
	a.eventsMu.Lock()
	defer a.eventsMu.Unlock()
	out := a.events
	a.events = nil
	return out
}

// PostEvolution implements island.ArchipelagoHandle: with probability equal
// to the island's migr_prob, it harvests emigrants via the island's
// S-policy and queues them for its topology neighbours.
func (a *Archipelago) PostEvolution(index int) error {
	isl := a.islands[index]

	a.rngMu.Lock()
	roll := a.rng.Float64()
	a.rngMu.Unlock()
	if roll >= isl.MigrProb() {
		return nil
	}

	neighbours := a.topology[index]
	if len(neighbours) == 0 {
		return nil
	}
	emigrants, err := isl.GetEmigrants()
	if err != nil || len(emigrants) == 0 {
		return err
	}

	a.pendingMu.Lock()
	for _, dest := range neighbours {
		a.pending[dest] = append(a.pending[dest], migrationBatch{source: index, individuals: cloneIndividuals(emigrants)})
	}
	a.pendingMu.Unlock()
	return nil
}

func cloneIndividuals(in []population.Individual) []population.Individual {
	out := make([]population.Individual, len(in))
	for i, ind := range in {
		out[i] = ind.Clone()
	}
	return out
}

// AdvanceRound runs one round of evolution across every island: each
// non-blocking island gets its own worker goroutine (grounded on the
// teacher's evaluatePopulation job/result-channel fan-out, generalized from
// "evaluate every genome" to "advance every island"); blocking islands run
// inline and never wait on the start barrier. AdvanceRound returns once
// every island's round has completed.
func (a *Archipelago) AdvanceRound(iterations int) error {
	return a.advanceRound(func(isl *island.Island) error { return isl.Evolve(iterations) })
}

// AdvanceRoundT is AdvanceRound's wall-clock-duration counterpart.
func (a *Archipelago) AdvanceRoundT(tMs int64) error {
	return a.advanceRound(func(isl *island.Island) error { return isl.EvolveT(tMs) })
}

// advanceRound runs one round via start, shared by AdvanceRound and
// AdvanceRoundT. Non-blocking islands each get their own worker goroutine,
// grounded on the teacher's evaluatePopulation job/result fan-out; blocking
// islands run inline, sequentially, on this call's own goroutine and never
// get a worker — matching spec.md §4.1's "runs inline on the caller's
// thread" exactly, rather than merely being awaited immediately.
func (a *Archipelago) advanceRound(start func(*island.Island) error) error {
	nonBlocking := 0
	for _, isl := range a.islands {
		if !isl.Blocking() {
			nonBlocking++
		}
	}

	a.barrierMu.Lock()
	a.barrier = newRoundBarrier(nonBlocking)
	a.barrierMu.Unlock()

	errs := make([]error, len(a.islands))
	var wg sync.WaitGroup
	for i, isl := range a.islands {
		if isl.Blocking() {
			errs[i] = start(isl)
			continue
		}
		wg.Add(1)
		i, isl := i, isl
		go func() {
			defer wg.Done()
			if err := start(isl); err != nil {
				errs[i] = err
				return
			}
			isl.Join()
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Champions returns a deep-cloned champion snapshot per island, in
// topology order.
func (a *Archipelago) Champions() []population.Individual {
	out := make([]population.Individual, len(a.islands))
	for i, isl := range a.islands {
		out[i] = isl.Population().Champion()
	}
	return out
}
