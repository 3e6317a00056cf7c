package memstore

import (
	"fmt"
	"sort"
	"sync"

	"relocate/internal/domain"
	"relocate/internal/port"
)

// MemoryStore is an in-memory Ledger for dry runs, the WASM host, and
// tests.
type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]domain.RunRecord
	moves map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:  make(map[string]domain.RunRecord),
		moves: make(map[string]string),
	}
}

func (s *MemoryStore) PutRun(run domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	for _, r := range run.Result.Renamed {
		s.moves[r.To] = run.ID
	}
	return nil
}

func (s *MemoryStore) GetRun(id string) (domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return domain.RunRecord{}, fmt.Errorf("%w: %s", port.ErrRunNotFound, id)
	}
	return run, nil
}

func (s *MemoryStore) ListRuns(limit int) ([]domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := s.sorted()
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *MemoryStore) FindMove(path string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.moves[path]
	return id, ok, nil
}

func (s *MemoryStore) Trim(keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	runs := s.sorted()
	if len(runs) <= keep {
		return nil
	}
	for _, run := range runs[keep:] {
		delete(s.runs, run.ID)
	}
	for path, id := range s.moves {
		if _, ok := s.runs[id]; !ok {
			delete(s.moves, path)
		}
	}
	return nil
}

// sorted returns runs newest first, by ID like the bolt ledger.
func (s *MemoryStore) sorted() []domain.RunRecord {
	runs := make([]domain.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	return runs
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ port.Ledger = (*MemoryStore)(nil)
