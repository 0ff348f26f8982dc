package session

import (
	"context"
	"sync"
)

// Record is the single durable record kept per browsing session. The
// last order id lives independently of the cart lifecycle so a buyer
// can return to a payment view after the cart is gone.
type Record struct {
	CartID      string `json:"cart_id,omitempty"`
	LastOrderID string `json:"last_order_id,omitempty"`
}

// Store persists one Record per key in some durable client-side store.
type Store interface {
	Load(ctx context.Context, key string) (Record, bool, error)
	Save(ctx context.Context, key string, record Record) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MemoryStore keeps records in process memory. It backs tests and
// callers that explicitly opt out of durability.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}}
}

func (s *MemoryStore) Load(ctx context.Context, key string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	return record, ok, nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = record
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
