package store

import (
	"context"
	"slices"
	"sync"

	"verifdesk/internal/verification/models"
	id "verifdesk/pkg/domain"
	"verifdesk/pkg/platform/sentinel"
)

// InMemory keeps requests in intake order. Every read and write goes through
// Clone so callers never share memory with stored state.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.VerificationID]*models.VerificationRequest
	order    []id.VerificationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		requests: make(map[id.VerificationID]*models.VerificationRequest),
	}
}

// Create stores a new request. Returns sentinel.ErrAlreadyUsed if the id exists.
func (s *InMemory) Create(_ context.Context, request *models.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[request.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.requests[request.ID] = request.Clone()
	s.order = append(s.order, request.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.VerificationID) (*models.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// List returns requests in intake order, restricted to statuses when given.
func (s *InMemory) List(_ context.Context, statuses ...models.Status) ([]*models.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.VerificationRequest, 0, len(s.order))
	for _, requestID := range s.order {
		r := s.requests[requestID]
		if len(statuses) > 0 && !slices.Contains(statuses, r.Status) {
			continue
		}
		out = append(out, r.Clone())
	}
	return out, nil
}

// Execute atomically validates and mutates a request under the write lock.
// Both run on a copy; if either fails, stored state is untouched. A nil
// validate always passes.
func (s *InMemory) Execute(_ context.Context, requestID id.VerificationID, validate func(*models.VerificationRequest) error, mutate func(*models.VerificationRequest) error) (*models.VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := stored.Clone()
	if validate != nil {
		if err := validate(working); err != nil {
			return nil, err
		}
	}
	if err := mutate(working); err != nil {
		return nil, err
	}
	if working.ID != requestID {
		return nil, sentinel.ErrInvalidState
	}
	s.requests[requestID] = working
	return working.Clone(), nil
}
