package settlement

import (
	"context"
	"log/slog"
	"sync"

	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
)

// Pool is an in-memory settlement backend: premiums are credited on purchase
// and claims debited on payout. It gives the core a failable transfer to
// reconcile against without a real ledger integration.
type Pool struct {
	mu      sync.Mutex
	balance int64
	logger  *slog.Logger
}

func NewPool(openingBalanceCents int64, logger *slog.Logger) *Pool {
	return &Pool{balance: openingBalanceCents, logger: logger}
}

func (p *Pool) Collect(ctx context.Context, holder id.Holder, amountCents int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.balance += amountCents
	p.logger.InfoContext(ctx, "premium collected",
		"holder", holder,
		"amount_cents", amountCents,
		"pool_balance_cents", p.balance,
	)
	return nil
}

func (p *Pool) Payout(ctx context.Context, holder id.Holder, amountCents int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.balance < amountCents {
		return ErrInsufficientFunds
	}
	p.balance -= amountCents
	p.logger.InfoContext(ctx, "claim paid out",
		"holder", holder,
		"amount_cents", amountCents,
		"pool_balance_cents", p.balance,
	)
	return nil
}

func (p *Pool) WithdrawAll(ctx context.Context, destination string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	amount := p.balance
	p.balance = 0
	p.logger.InfoContext(ctx, "pool withdrawn",
		"destination", destination,
		"amount_cents", amount,
	)
	return amount, nil
}

// Balance reports the current pool balance.
func (p *Pool) Balance() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance
}
