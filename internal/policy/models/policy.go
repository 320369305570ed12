package models

import (
	"time"

	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
	dErrors "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain-errors"
)

// PolicyStatus is the lifecycle state of a policy.
type PolicyStatus string

const (
	// PolicyStatusActive is the sole initial state. Only Active policies
	// accept flight-info updates or evaluation.
	PolicyStatusActive PolicyStatus = "active"
	// PolicyStatusTerminated is terminal: the claim was denied.
	PolicyStatusTerminated PolicyStatus = "terminated"
	// PolicyStatusClaimed is terminal: the claim was paid out.
	PolicyStatusClaimed PolicyStatus = "claimed"
)

// ClaimOutcome records how a policy's claim was resolved.
type ClaimOutcome string

const (
	OutcomeNone   ClaimOutcome = "none"
	OutcomePaid   ClaimOutcome = "paid"
	OutcomeDenied ClaimOutcome = "denied"
)

// FlightStatus is the oracle-reported status of the insured flight.
type FlightStatus string

const (
	FlightStatusNormal   FlightStatus = "normal"
	FlightStatusCanceled FlightStatus = "canceled"
	// FlightStatusOther marks a policy denied because no arrival data ever
	// arrived, as opposed to an on-time arrival.
	FlightStatusOther FlightStatus = "other"
)

// ValidFlightStatus reports whether s is one of the known flight statuses.
func ValidFlightStatus(s FlightStatus) bool {
	switch s {
	case FlightStatusNormal, FlightStatusCanceled, FlightStatusOther:
		return true
	}
	return false
}

// Policy is the aggregate root for one flight-delay insurance contract.
//
// Invariants:
//   - ScheduledArrival > ScheduledDeparture (checked at creation, never re-checked)
//   - Outcome is OutcomeNone if and only if Status is PolicyStatusActive
//   - Once Status is Terminated or Claimed, no field other than
//     LastEvaluatedAt audit metadata may change again
//   - PremiumCents and ClaimAmountCents are fixed at creation
//
// A payout is issued at most once per policy, exactly when Status transitions
// to Claimed. The store's Execute callback holds the per-policy lock across
// the decision, the payout, and the commit, so a failed transfer never leaves
// a policy marked Claimed.
type Policy struct {
	ID                 id.PolicyID   `json:"id"`
	Holder             id.Holder     `json:"holder"`
	FlightCode         string        `json:"flight_code"`
	ScheduledDeparture time.Time     `json:"scheduled_departure"`
	ScheduledArrival   time.Time     `json:"scheduled_arrival"`
	ActualArrival      *time.Time    `json:"actual_arrival,omitempty"`
	LastEvaluatedAt    time.Time     `json:"last_evaluated_at"`
	DelayThreshold     time.Duration `json:"delay_threshold_ns"`
	PremiumCents       int64         `json:"premium_cents"`
	ClaimAmountCents   int64         `json:"claim_amount_cents"`
	Status             PolicyStatus  `json:"status"`
	Outcome            ClaimOutcome  `json:"outcome"`
	FlightStatus       FlightStatus  `json:"flight_status"`
}

// NewPolicy constructs an Active policy. The ID is zero until the store
// allocates one. Premium, claim amount, and delay threshold come from
// configuration defaults captured by the caller.
func NewPolicy(holder id.Holder, flightCode string, departure, arrival time.Time, threshold time.Duration, premiumCents, claimCents int64, now time.Time) (*Policy, error) {
	if holder == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "holder is required")
	}
	if flightCode == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "flight code is required")
	}
	if !arrival.After(departure) {
		return nil, dErrors.New(dErrors.CodeInvalidSchedule, "scheduled arrival must be after scheduled departure")
	}
	return &Policy{
		Holder:             holder,
		FlightCode:         flightCode,
		ScheduledDeparture: departure,
		ScheduledArrival:   arrival,
		LastEvaluatedAt:    now,
		DelayThreshold:     threshold,
		PremiumCents:       premiumCents,
		ClaimAmountCents:   claimCents,
		Status:             PolicyStatusActive,
		Outcome:            OutcomeNone,
		FlightStatus:       FlightStatusNormal,
	}, nil
}

func (p *Policy) IsActive() bool {
	return p.Status == PolicyStatusActive
}

// Clone returns a deep copy. Stores hand out clones so callers never alias
// the stored aggregate.
func (p *Policy) Clone() *Policy {
	cp := *p
	if p.ActualArrival != nil {
		t := *p.ActualArrival
		cp.ActualArrival = &t
	}
	return &cp
}

// Decision is the outcome of applying the claim rules to a policy's current
// fields and a supplied current time.
type Decision int

const (
	// DecisionAwaitingData keeps the policy Active: no arrival data yet and
	// the no-data window has not elapsed. The only non-terminal branch.
	DecisionAwaitingData Decision = iota
	// DecisionDenyCanceled denies because the flight was canceled.
	DecisionDenyCanceled
	// DecisionDenyNoData denies because no arrival data arrived within the
	// no-data window after the scheduled arrival.
	DecisionDenyNoData
	// DecisionDenyOnTime denies because the flight arrived within the delay
	// threshold.
	DecisionDenyOnTime
	// DecisionPay approves the claim: the flight arrived later than the
	// scheduled arrival plus the delay threshold.
	DecisionPay
)

func (d Decision) String() string {
	switch d {
	case DecisionAwaitingData:
		return "awaiting_data"
	case DecisionDenyCanceled:
		return "deny_canceled"
	case DecisionDenyNoData:
		return "deny_no_data"
	case DecisionDenyOnTime:
		return "deny_on_time"
	case DecisionPay:
		return "pay"
	default:
		return "unknown"
	}
}

// Decide applies the claim rules in priority order and returns the branch
// taken. It is pure: no fields are mutated.
//
// The order matters: cancellation and the no-data timeout are checked before
// any comparison involving ActualArrival, because ActualArrival may be unknown.
func (p *Policy) Decide(now time.Time, noDataTimeout time.Duration) Decision {
	if p.FlightStatus == FlightStatusCanceled {
		return DecisionDenyCanceled
	}
	if p.ActualArrival == nil {
		if !now.Before(p.ScheduledArrival.Add(noDataTimeout)) {
			return DecisionDenyNoData
		}
		return DecisionAwaitingData
	}
	if !p.ActualArrival.After(p.ScheduledArrival.Add(p.DelayThreshold)) {
		return DecisionDenyOnTime
	}
	return DecisionPay
}

// Touch updates the audit timestamp without changing decision state.
func (p *Policy) Touch(now time.Time) {
	p.LastEvaluatedAt = now
}

// ApplyFlightInfo overwrites the oracle-observed fields. Last write wins.
func (p *Policy) ApplyFlightInfo(actualArrival *time.Time, status FlightStatus, now time.Time) {
	if actualArrival != nil {
		t := *actualArrival
		p.ActualArrival = &t
	} else {
		p.ActualArrival = nil
	}
	p.FlightStatus = status
	p.LastEvaluatedAt = now
}

// ApplyDenial transitions the policy to Terminated with a denied outcome.
func (p *Policy) ApplyDenial(now time.Time) {
	p.Status = PolicyStatusTerminated
	p.Outcome = OutcomeDenied
	p.LastEvaluatedAt = now
}

// ApplyNoDataDenial denies and forces the flight status to Other, recording
// that the absence of data caused the denial rather than an on-time arrival.
func (p *Policy) ApplyNoDataDenial(now time.Time) {
	p.ApplyDenial(now)
	p.FlightStatus = FlightStatusOther
}

// ApplyClaim transitions the policy to Claimed with a paid outcome. Callers
// must have already completed the payout transfer.
func (p *Policy) ApplyClaim(now time.Time) {
	p.Status = PolicyStatusClaimed
	p.Outcome = OutcomePaid
	p.LastEvaluatedAt = now
}
