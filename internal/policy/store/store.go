// Package store holds the policy persistence implementations. All mutating
// access to a policy goes through Execute, which serializes writers per
// policy: the memory store holds its lock and the postgres store holds a row
// lock across the callback, so no two mutations interleave.
package store

import (
	"context"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
)

// Store is the persistence port for policies and the holder index.
// Implementations return sentinel errors; services translate them into
// domain errors.
type Store interface {
	// Create persists a new policy and assigns its monotonically increasing
	// ID, appending it to the holder's index.
	Create(ctx context.Context, p *models.Policy) error

	// Get returns a copy of the policy or sentinel.ErrNotFound.
	Get(ctx context.Context, policyID id.PolicyID) (*models.Policy, error)

	// ListByHolder returns the holder's policy IDs in creation order.
	// Unknown holders yield an empty slice, never an error.
	ListByHolder(ctx context.Context, holder id.Holder) ([]id.PolicyID, error)

	// ListActiveIDs returns the IDs of all Active policies, ascending.
	ListActiveIDs(ctx context.Context) ([]id.PolicyID, error)

	// Execute loads the policy, runs fn on it under the per-policy lock, and
	// commits the mutation only if fn returns nil. A non-nil error from fn
	// aborts the commit and leaves the stored policy untouched; the error is
	// returned as-is. Returns sentinel.ErrNotFound for unknown IDs.
	Execute(ctx context.Context, policyID id.PolicyID, fn func(p *models.Policy) error) (*models.Policy, error)
}
