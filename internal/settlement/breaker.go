package settlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/platform/sentinel"
)

// circuitBreaker prevents hammering a dead settlement backend. When the
// backend is unhealthy the circuit opens and transfers fail fast; the policy
// stays Active and a later evaluation retries.
type circuitBreaker struct {
	mu sync.RWMutex

	threshold int           // consecutive failures to trigger open
	cooldown  time.Duration // how long to stay open

	failures  int
	openUntil time.Time
	isOpen    bool
}

func newCircuitBreaker(threshold int, cooldown time.Duration) *circuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &circuitBreaker{threshold: threshold, cooldown: cooldown}
}

// allow returns true if the circuit is closed (healthy) or half-open (testing).
func (cb *circuitBreaker) allow() bool {
	cb.mu.RLock()
	if !cb.isOpen {
		cb.mu.RUnlock()
		return true
	}
	expired := time.Now().After(cb.openUntil)
	cb.mu.RUnlock()

	if expired {
		cb.mu.Lock()
		defer cb.mu.Unlock()
		if cb.isOpen && time.Now().After(cb.openUntil) {
			cb.isOpen = false
			cb.failures = 0
		}
		return !cb.isOpen
	}
	return false
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.isOpen = false
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	if cb.failures >= cb.threshold {
		cb.isOpen = true
		cb.openUntil = time.Now().Add(cb.cooldown)
	}
}

// Guarded decorates a Gateway with the circuit breaker.
type Guarded struct {
	next Gateway
	cb   *circuitBreaker
}

// NewGuarded wraps next so that after threshold consecutive transfer failures
// further transfers fail fast with sentinel.ErrUnavailable for cooldown.
func NewGuarded(next Gateway, threshold int, cooldown time.Duration) *Guarded {
	return &Guarded{next: next, cb: newCircuitBreaker(threshold, cooldown)}
}

func (g *Guarded) Payout(ctx context.Context, holder id.Holder, amountCents int64) error {
	if !g.cb.allow() {
		return fmt.Errorf("settlement circuit open: %w", sentinel.ErrUnavailable)
	}
	if err := g.next.Payout(ctx, holder, amountCents); err != nil {
		g.cb.recordFailure()
		return err
	}
	g.cb.recordSuccess()
	return nil
}

func (g *Guarded) WithdrawAll(ctx context.Context, destination string) (int64, error) {
	if !g.cb.allow() {
		return 0, fmt.Errorf("settlement circuit open: %w", sentinel.ErrUnavailable)
	}
	amount, err := g.next.WithdrawAll(ctx, destination)
	if err != nil {
		g.cb.recordFailure()
		return 0, err
	}
	g.cb.recordSuccess()
	return amount, nil
}
