package memory

import (
	"context"
	"sync"

	"github.com/goliatone/go-accesslease/pkg/domain"
	"github.com/goliatone/go-accesslease/pkg/interfaces/store"
)

// LeaseStore is a simple in-memory implementation of the lease record store.
// Records do not survive process restart; that only degrades UX, never
// security, since the secret backend stays authoritative for lease validity.
type LeaseStore struct {
	mu    sync.RWMutex
	items map[string]domain.LeaseRecord
}

var _ store.LeaseStore = (*LeaseStore)(nil)

// NewLeaseStore creates an in-memory lease store.
func NewLeaseStore() *LeaseStore {
	return &LeaseStore{items: make(map[string]domain.LeaseRecord)}
}

func (s *LeaseStore) Put(_ context.Context, rec domain.LeaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Nonce] = rec
	return nil
}

func (s *LeaseStore) Get(_ context.Context, nonce string) (domain.LeaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[nonce]
	if !ok {
		return domain.LeaseRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *LeaseStore) Delete(_ context.Context, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, nonce)
	return nil
}

// Len reports the number of pending records. Test helper.
func (s *LeaseStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
