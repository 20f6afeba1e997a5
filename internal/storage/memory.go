package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process, map-backed Store, grounded directly on the
// teacher's storage.MemoryStore: a sync.RWMutex-guarded set of maps
// populated in Init, mutated by Save/Append, read by Get.
type MemoryStore struct {
	mu sync.RWMutex

	initialized bool
	runs        map[string]RunRecord
	champions   map[string][]ChampionSnapshot
	migrations  map[string][]MigrationEvent
}

// NewMemoryStore constructs an uninitialized MemoryStore; call Init before use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	s.runs = make(map[string]RunRecord)
	s.champions = make(map[string][]ChampionSnapshot)
	s.migrations = make(map[string][]MigrationEvent)
	return nil
}

func (s *MemoryStore) requireInit() error {
	if !s.initialized {
		return fmt.Errorf("storage: memory store is not initialized")
	}
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInit(); err != nil {
		return err
	}
	s.runs[run.RunID] = stampRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.requireInit(); err != nil {
		return RunRecord{}, false, err
	}
	run, ok := s.runs[runID]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryStore) AppendChampionSnapshot(_ context.Context, runID string, snap ChampionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInit(); err != nil {
		return err
	}
	s.champions[runID] = append(s.champions[runID], stampChampion(snap))
	return nil
}

func (s *MemoryStore) GetChampionHistory(_ context.Context, runID string) ([]ChampionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	history := s.champions[runID]
	copied := make([]ChampionSnapshot, len(history))
	copy(copied, history)
	return copied, nil
}

func (s *MemoryStore) AppendMigrationEvent(_ context.Context, runID string, evt MigrationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInit(); err != nil {
		return err
	}
	s.migrations[runID] = append(s.migrations[runID], stampMigration(evt))
	return nil
}

func (s *MemoryStore) GetMigrationLog(_ context.Context, runID string) ([]MigrationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	log := s.migrations[runID]
	copied := make([]MigrationEvent, len(log))
	copy(copied, log)
	return copied, nil
}
