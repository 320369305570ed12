package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
)

// activeTTL bounds staleness for cached Active policies. Terminal policies
// never change again, so they get a much longer retention.
const (
	activeTTL   = 30 * time.Second
	terminalTTL = 24 * time.Hour
)

// Cached decorates a Store with a redis read-through cache on Get. The cache
// is advisory: redis failures are logged and the inner store answers.
// Mutations write through so a settled policy is never served as Active for
// longer than a round trip.
type Cached struct {
	inner  Store
	client *redis.Client
	logger *slog.Logger
}

func NewCached(inner Store, client *redis.Client, logger *slog.Logger) *Cached {
	return &Cached{inner: inner, client: client, logger: logger}
}

func cacheKey(policyID id.PolicyID) string {
	return "policy:" + policyID.String()
}

func (c *Cached) Create(ctx context.Context, p *models.Policy) error {
	if err := c.inner.Create(ctx, p); err != nil {
		return err
	}
	c.set(ctx, p)
	return nil
}

func (c *Cached) Get(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	raw, err := c.client.Get(ctx, cacheKey(policyID)).Bytes()
	if err == nil {
		var p models.Policy
		if uerr := json.Unmarshal(raw, &p); uerr == nil {
			return &p, nil
		}
		// Corrupt entry: fall through to the store and rewrite below.
	} else if err != redis.Nil {
		c.logger.WarnContext(ctx, "policy cache read failed",
			"policy_id", policyID,
			"error", err,
		)
	}

	p, err := c.inner.Get(ctx, policyID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, p)
	return p, nil
}

func (c *Cached) ListByHolder(ctx context.Context, holder id.Holder) ([]id.PolicyID, error) {
	return c.inner.ListByHolder(ctx, holder)
}

func (c *Cached) ListActiveIDs(ctx context.Context) ([]id.PolicyID, error) {
	return c.inner.ListActiveIDs(ctx)
}

func (c *Cached) Execute(ctx context.Context, policyID id.PolicyID, fn func(p *models.Policy) error) (*models.Policy, error) {
	p, err := c.inner.Execute(ctx, policyID, fn)
	if err != nil {
		return nil, err
	}
	c.set(ctx, p)
	return p, nil
}

func (c *Cached) set(ctx context.Context, p *models.Policy) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	ttl := activeTTL
	if !p.IsActive() {
		ttl = terminalTTL
	}
	if err := c.client.Set(ctx, cacheKey(p.ID), raw, ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "policy cache write failed",
			"policy_id", p.ID,
			"error", err,
		)
	}
}
