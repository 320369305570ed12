// Package settlement defines the boundary to the system that actually moves
// funds. The claim evaluator consumes the Gateway; it never assumes a payout
// succeeds.
package settlement

import (
	"context"
	"errors"

	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
)

// ErrInsufficientFunds is returned when the settlement backend cannot cover a
// transfer.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Gateway executes transfers. Payout may fail; callers must treat a failure
// as "no funds moved" and must not commit a Claimed state on top of it.
type Gateway interface {
	// Payout transfers amountCents to the holder. Returns an error if the
	// transfer did not complete.
	Payout(ctx context.Context, holder id.Holder, amountCents int64) error

	// WithdrawAll drains the remaining pool to the destination and returns
	// the amount moved. Administrative operation.
	WithdrawAll(ctx context.Context, destination string) (int64, error)
}

// Collector receives purchase premiums. The in-memory pool implements both
// Collector and Gateway; a real ledger integration may split them.
type Collector interface {
	Collect(ctx context.Context, holder id.Holder, amountCents int64) error
}
