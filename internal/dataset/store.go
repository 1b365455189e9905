package dataset

import (
	"errors"
	"fmt"
	"sync"
)

var ErrStorage = errors.New("dataset: storage failure")

// Store holds the datasets of one session, keyed by id in insertion
// order. Put and Clear are atomic with respect to concurrent reads.
type Store struct {
	mu       sync.RWMutex
	order    []string
	datasets map[string]Dataset
	meta     map[string]Metadata
}

func NewStore() *Store {
	return &Store{
		datasets: make(map[string]Dataset),
		meta:     make(map[string]Metadata),
	}
}

// Put stores or replaces a dataset and recomputes its metadata. A
// replaced id keeps its original position. Shape is never a reason to
// fail; only an internally inconsistent table is.
func (s *Store) Put(id string, t Table) error {
	if err := t.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.datasets[id]; !exists {
		s.order = append(s.order, id)
	}
	s.datasets[id] = Dataset{ID: id, Table: t}
	s.meta[id] = describeTable(t)
	return nil
}

func (s *Store) Get(id string) (Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[id]
	return ds, ok
}

func (s *Store) Metadata(id string) (Metadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.meta[id]
	return meta, ok
}

func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

func (s *Store) All() []Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]Dataset, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.datasets[id])
	}
	return all
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.datasets = make(map[string]Dataset)
	s.meta = make(map[string]Metadata)
}
