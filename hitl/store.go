package hitl

import (
	"context"
	"sync"
)

// Store persists input requests so they can be listed and answered, also
// from outside the process when the backing store is shared.
type Store interface {
	Save(ctx context.Context, req *Request) error
	Load(ctx context.Context, id string) (*Request, error)
	Update(ctx context.Context, req *Request) error
	// ListPending returns the unanswered requests for a run.
	ListPending(ctx context.Context, runID string) ([]*Request, error)
}

// InMemoryStore keeps requests in process memory, the default for
// single-process runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*Request
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]*Request)}
}

// Save implements Store.
func (s *InMemoryStore) Save(ctx context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *req
	s.requests[req.ID] = &clone
	return nil
}

// Load implements Store.
func (s *InMemoryStore) Load(ctx context.Context, id string) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	clone := *req
	return &clone, nil
}

// Update implements Store.
func (s *InMemoryStore) Update(ctx context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; !ok {
		return ErrRequestNotFound
	}
	clone := *req
	s.requests[req.ID] = &clone
	return nil
}

// ListPending implements Store.
func (s *InMemoryStore) ListPending(ctx context.Context, runID string) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []*Request
	for _, req := range s.requests {
		if req.RunID == runID && req.Status == StatusPending {
			clone := *req
			pending = append(pending, &clone)
		}
	}
	return pending, nil
}
