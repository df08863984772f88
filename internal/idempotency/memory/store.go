package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/ports"
)

type entry struct {
	response ports.StoredResponse
	storedAt time.Time
}

// Store retains idempotency responses for replaying duplicate requests.
// Entries older than the retention window are treated as absent and
// dropped on the next write.
type Store struct {
	mu        sync.Mutex
	items     map[string]entry
	retention time.Duration
	now       func() time.Time
}

// NewStore creates a new in-memory idempotency store. A zero retention keeps
// entries forever.
func NewStore(retention time.Duration) *Store {
	return &Store{
		items:     make(map[string]entry),
		retention: retention,
		now:       time.Now,
	}
}

// Get returns the stored response for a given key if present.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok || s.expired(e) {
		return nil, nil
	}
	resp := e.response
	resp.Body = append([]byte(nil), e.response.Body...)
	return &resp, nil
}

// Save stores the response for a key. The first live response wins.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.items {
		if s.expired(e) {
			delete(s.items, k)
		}
	}

	if _, ok := s.items[key]; ok {
		return nil
	}
	response.Body = append([]byte(nil), response.Body...)
	s.items[key] = entry{response: response, storedAt: s.now()}
	return nil
}

func (s *Store) expired(e entry) bool {
	return s.retention > 0 && s.now().Sub(e.storedAt) > s.retention
}
