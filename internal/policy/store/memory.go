package store

import (
	"context"
	"sync"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/platform/sentinel"
)

// InMemory is the process-local policy store. Suitable for tests and
// single-node deployments; the postgres store is the durable counterpart.
type InMemory struct {
	mu       sync.RWMutex
	policies map[id.PolicyID]*models.Policy
	byHolder map[id.Holder][]id.PolicyID
	nextID   uint64
}

func NewInMemory() *InMemory {
	return &InMemory{
		policies: make(map[id.PolicyID]*models.Policy),
		byHolder: make(map[id.Holder][]id.PolicyID),
	}
}

func (s *InMemory) Create(_ context.Context, p *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = id.PolicyID(s.nextID)
	s.policies[p.ID] = p.Clone()
	s.byHolder[p.Holder] = append(s.byHolder[p.Holder], p.ID)
	return nil
}

func (s *InMemory) Get(_ context.Context, policyID id.PolicyID) (*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[policyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemory) ListByHolder(_ context.Context, holder id.Holder) ([]id.PolicyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byHolder[holder]
	out := make([]id.PolicyID, len(ids))
	copy(out, ids)
	return out, nil
}

func (s *InMemory) ListActiveIDs(_ context.Context) ([]id.PolicyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []id.PolicyID
	// IDs are dense and monotonic, so ascending iteration is cheap.
	for i := uint64(1); i <= s.nextID; i++ {
		if p, ok := s.policies[id.PolicyID(i)]; ok && p.IsActive() {
			out = append(out, p.ID)
		}
	}
	return out, nil
}

// Execute runs fn on a copy of the policy while holding the write lock, and
// swaps the copy in only if fn succeeds. Holding the lock across fn gives the
// single-writer-per-policy guarantee; an error from fn leaves the stored
// policy byte-for-byte unchanged.
func (s *InMemory) Execute(_ context.Context, policyID id.PolicyID, fn func(p *models.Policy) error) (*models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.policies[policyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.policies[policyID] = working
	return working.Clone(), nil
}
