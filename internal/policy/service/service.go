// Package service orchestrates the policy lifecycle: purchase, flight-info
// ingest, and the read surface. The claim decision itself lives in
// internal/claims.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/events"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/platform/metrics"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/store"
	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
	dErrors "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain-errors"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/platform/sentinel"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/requestcontext"
)

// Terms are the configured policy defaults captured at creation. Loaded once
// at startup; changing them never affects existing policies.
type Terms struct {
	PremiumCents     int64
	ClaimAmountCents int64
	DelayThreshold   time.Duration
}

// Service exposes policy creation, ingest, and queries.
type Service struct {
	store    store.Store
	premiums Premiums
	events   events.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	terms    Terms
}

// Premiums receives validated purchase payments. May be nil when no
// settlement pool is wired (tests).
type Premiums interface {
	Collect(ctx context.Context, holder id.Holder, amountCents int64) error
}

func New(st store.Store, premiums Premiums, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger, terms Terms) *Service {
	return &Service{
		store:    st,
		premiums: premiums,
		events:   publisher,
		metrics:  m,
		logger:   logger,
		terms:    terms,
	}
}

// CreateParams is the purchase request.
type CreateParams struct {
	Holder             id.Holder
	FlightCode         string
	ScheduledDeparture time.Time
	ScheduledArrival   time.Time
	PaidAmountCents    int64
}

// CreatePolicy validates the purchase and stores a new Active policy with the
// configured terms. The paid amount must exactly equal the configured premium.
func (s *Service) CreatePolicy(ctx context.Context, params CreateParams) (*models.Policy, error) {
	params.FlightCode = strings.TrimSpace(params.FlightCode)

	if params.PaidAmountCents != s.terms.PremiumCents {
		return nil, dErrors.New(dErrors.CodeIncorrectPremium, "paid amount must equal the configured premium")
	}

	now := requestcontext.Now(ctx)
	p, err := models.NewPolicy(params.Holder, params.FlightCode,
		params.ScheduledDeparture, params.ScheduledArrival,
		s.terms.DelayThreshold, s.terms.PremiumCents, s.terms.ClaimAmountCents, now)
	if err != nil {
		return nil, err
	}

	if s.premiums != nil {
		if err := s.premiums.Collect(ctx, p.Holder, params.PaidAmountCents); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeSettlementFailure, "premium payment did not complete")
		}
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create policy")
	}

	s.publish(ctx, events.TypePolicyCreated, p)
	s.metrics.IncPoliciesCreated()
	s.logger.InfoContext(ctx, "policy created",
		"request_id", requestcontext.RequestID(ctx),
		"policy_id", p.ID,
		"holder", p.Holder,
		"flight_code", p.FlightCode,
	)
	return p, nil
}

// GetPolicy returns the policy or policy_not_found.
func (s *Service) GetPolicy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	p, err := s.store.Get(ctx, policyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodePolicyNotFound, "policy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy")
	}
	return p, nil
}

// GetPoliciesByHolder returns the holder's policy IDs in creation order.
// Unknown holders get an empty list, never an error.
func (s *Service) GetPoliciesByHolder(ctx context.Context, holder id.Holder) ([]id.PolicyID, error) {
	ids, err := s.store.ListByHolder(ctx, holder)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policies")
	}
	return ids, nil
}

// UpdateFlightInfo overwrites the oracle-observed arrival and flight status.
// Rejected hard with policy_not_active on terminal policies so a stale oracle
// update can never corrupt a settled policy.
func (s *Service) UpdateFlightInfo(ctx context.Context, policyID id.PolicyID, actualArrival *time.Time, status models.FlightStatus) (*models.Policy, error) {
	if !models.ValidFlightStatus(status) {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown flight status")
	}

	now := requestcontext.Now(ctx)
	p, err := s.store.Execute(ctx, policyID, func(p *models.Policy) error {
		if !p.IsActive() {
			return dErrors.New(dErrors.CodePolicyNotActive, "policy is no longer active")
		}
		p.ApplyFlightInfo(actualArrival, status, now)
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodePolicyNotFound, "policy not found")
		}
		if dErrors.HasCode(err, dErrors.CodePolicyNotActive) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update flight info")
	}

	s.publish(ctx, events.TypeFlightInfoUpdated, p)
	s.metrics.IncFlightUpdates()
	s.logger.InfoContext(ctx, "flight info updated",
		"request_id", requestcontext.RequestID(ctx),
		"policy_id", p.ID,
		"flight_status", p.FlightStatus,
	)
	return p, nil
}

func (s *Service) publish(ctx context.Context, t events.Type, p *models.Policy) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events.FromPolicy(ctx, t, p)); err != nil {
		s.logger.WarnContext(ctx, "notification publish failed",
			"event_type", t,
			"policy_id", p.ID,
			"error", err,
		)
	}
}
