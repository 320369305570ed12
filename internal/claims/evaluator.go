// Package claims holds the policy state machine driver. Evaluate applies the
// decision rules to one policy exactly once per terminal transition; the
// store's Execute scope makes the payout and the Claimed commit a single
// effective unit.
package claims

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/events"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/platform/metrics"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/store"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/settlement"
	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
	dErrors "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain-errors"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/platform/sentinel"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/requestcontext"
)

// sweepParallelism bounds concurrent evaluations during EvaluateOpen.
// Cross-policy evaluations are independent; per-policy serialization comes
// from the store's Execute lock.
const sweepParallelism = 8

// Evaluator runs the claim decision procedure.
type Evaluator struct {
	store         store.Store
	gateway       settlement.Gateway
	events        events.Publisher
	metrics       *metrics.Metrics
	logger        *slog.Logger
	noDataTimeout time.Duration
	tracer        trace.Tracer
}

func New(st store.Store, gateway settlement.Gateway, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger, noDataTimeout time.Duration) *Evaluator {
	return &Evaluator{
		store:         st,
		gateway:       gateway,
		events:        publisher,
		metrics:       m,
		logger:        logger,
		noDataTimeout: noDataTimeout,
		tracer:        otel.Tracer("claims"),
	}
}

// Result reports what one evaluation did.
type Result struct {
	Policy   *models.Policy
	Decision models.Decision
}

// Evaluate applies the decision rules to the policy against the
// request-scoped current time. Safe to invoke on any cadence: while the
// policy is Active it either settles it or leaves it awaiting data; once the
// policy is terminal it rejects with policy_not_active and changes nothing.
//
// On the payout branch the transfer is issued inside the store's Execute
// callback, before the commit. If the transfer fails, the callback error
// aborts the commit: the policy stays Active and a later call retries. A
// policy can therefore never be Claimed without the funds having moved.
func (e *Evaluator) Evaluate(ctx context.Context, policyID id.PolicyID) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "claims.evaluate",
		trace.WithAttributes(attribute.Int64("policy.id", int64(policyID))))
	defer span.End()

	now := requestcontext.Now(ctx)

	var decision models.Decision
	p, err := e.store.Execute(ctx, policyID, func(p *models.Policy) error {
		if !p.IsActive() {
			return dErrors.New(dErrors.CodePolicyNotActive, "policy is no longer active")
		}

		decision = p.Decide(now, e.noDataTimeout)
		switch decision {
		case models.DecisionAwaitingData:
			p.Touch(now)
		case models.DecisionDenyCanceled, models.DecisionDenyOnTime:
			p.ApplyDenial(now)
		case models.DecisionDenyNoData:
			p.ApplyNoDataDenial(now)
		case models.DecisionPay:
			if err := e.gateway.Payout(ctx, p.Holder, p.ClaimAmountCents); err != nil {
				return dErrors.Wrap(err, dErrors.CodeSettlementFailure, "claim payout did not complete")
			}
			p.ApplyClaim(now)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodePolicyNotFound, "policy not found")
		}
		if dErrors.HasCode(err, dErrors.CodeSettlementFailure) {
			e.metrics.IncPayoutFailures()
			e.logger.ErrorContext(ctx, "payout failed, transition aborted",
				"request_id", requestcontext.RequestID(ctx),
				"policy_id", policyID,
				"error", err,
			)
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("claims.decision", decision.String()))
	e.metrics.IncEvaluations(decision.String())
	if decision == models.DecisionPay {
		e.metrics.IncPayoutsIssued()
	}
	e.emit(ctx, decision, p)

	return &Result{Policy: p, Decision: decision}, nil
}

// SweepReport summarizes one EvaluateOpen pass.
type SweepReport struct {
	Evaluated int `json:"evaluated"`
	Settled   int `json:"settled"`
	Awaiting  int `json:"awaiting"`
	Failed    int `json:"failed"`
}

// EvaluateOpen evaluates every Active policy once, fanning out across
// policies. Policies settled by a concurrent caller are skipped, not errors;
// payout failures are counted and left Active for the next sweep.
func (e *Evaluator) EvaluateOpen(ctx context.Context) (*SweepReport, error) {
	ids, err := e.store.ListActiveIDs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active policies")
	}

	var (
		report SweepReport
		mu     sync.Mutex
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepParallelism)
	for _, policyID := range ids {
		g.Go(func() error {
			res, err := e.Evaluate(ctx, policyID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && res.Decision == models.DecisionAwaitingData:
				report.Evaluated++
				report.Awaiting++
			case err == nil:
				report.Evaluated++
				report.Settled++
			case dErrors.HasCode(err, dErrors.CodePolicyNotActive):
				// Lost the race to another trigger; nothing to do.
			case dErrors.HasCode(err, dErrors.CodeSettlementFailure):
				report.Evaluated++
				report.Failed++
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &report, nil
}

func (e *Evaluator) emit(ctx context.Context, decision models.Decision, p *models.Policy) {
	if e.events == nil {
		return
	}
	var t events.Type
	switch decision {
	case models.DecisionAwaitingData:
		t = events.TypeAwaitingData
	case models.DecisionPay:
		t = events.TypeClaimPaid
	default:
		t = events.TypeClaimDenied
	}
	if err := e.events.Publish(ctx, events.FromPolicy(ctx, t, p)); err != nil {
		e.logger.WarnContext(ctx, "notification publish failed",
			"event_type", t,
			"policy_id", p.ID,
			"error", err,
		)
	}
}
