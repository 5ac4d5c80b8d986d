package internal

import (
	"context"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/google/uuid"
)

// MemStorage keeps payments ordered by requestedAt. A correlation id is
// stored at most once.
type MemStorage struct {
	tree  *btree.BTree
	keys  map[uuid.UUID]ProcessedPayment
	mutex sync.RWMutex
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		tree: btree.New(2),
		keys: make(map[uuid.UUID]ProcessedPayment),
	}
}

func (s *MemStorage) Save(_ context.Context, pp ProcessedPayment) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.keys[pp.CorrelationId]; exists {
		return nil
	}

	s.keys[pp.CorrelationId] = pp
	s.tree.ReplaceOrInsert(pp)
	return nil
}

func (s *MemStorage) GetSummary(_ context.Context, from, to *time.Time) (Summary, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	summary := NewSummary()
	visit := func(item btree.Item) bool {
		pp := item.(ProcessedPayment)
		if to != nil && pp.RequestedAt.After(*to) {
			return false
		}
		summary.add(pp.Processor, pp.Amount)
		return true
	}

	if from == nil {
		s.tree.Ascend(visit)
	} else {
		s.tree.AscendGreaterOrEqual(ProcessedPayment{RequestedAt: *from}, visit)
	}
	return summary, nil
}

func (s *MemStorage) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tree.Len()
}

// Get returns the stored payment for id, if any.
func (s *MemStorage) Get(id uuid.UUID) (ProcessedPayment, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	pp, ok := s.keys[id]
	return pp, ok
}

func (s *MemStorage) CleanUp(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tree.Clear(false)
	s.keys = make(map[uuid.UUID]ProcessedPayment)
	return nil
}
