package listing

import (
	"sync"

	"github.com/sentrycore/site/internal/domain"
)

// CollectionStore is the in-memory mirror of one collection for one view.
// It is only ever replaced as a whole.
type CollectionStore struct {
	mu      sync.RWMutex
	records []domain.Record
}

// NewCollectionStore seeds the store with the initial snapshot.
func NewCollectionStore(initial []domain.Record) *CollectionStore {
	s := &CollectionStore{}
	s.ReplaceAll(initial)
	return s
}

func (s *CollectionStore) ReplaceAll(fresh []domain.Record) {
	records := make([]domain.Record, len(fresh))
	copy(records, fresh)

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
}

func (s *CollectionStore) Current() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.Record, len(s.records))
	copy(records, s.records)
	return records
}

func (s *CollectionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
