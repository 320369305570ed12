package handler

import (
	"time"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/claims"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
)

// PolicyResponse is the HTTP representation of a policy.
type PolicyResponse struct {
	ID                 id.PolicyID `json:"id"`
	Holder             id.Holder   `json:"holder"`
	FlightCode         string      `json:"flight_code"`
	ScheduledDeparture time.Time   `json:"scheduled_departure"`
	ScheduledArrival   time.Time   `json:"scheduled_arrival"`
	ActualArrival      *time.Time  `json:"actual_arrival,omitempty"`
	FlightStatus       string      `json:"flight_status"`
	DelayThresholdS    int64       `json:"delay_threshold_s"`
	PremiumCents       int64       `json:"premium_cents"`
	ClaimAmountCents   int64       `json:"claim_amount_cents"`
	Status             string      `json:"status"`
	Outcome            string      `json:"outcome"`
	LastEvaluatedAt    time.Time   `json:"last_evaluated_at"`
}

// FromPolicy converts a domain policy to its HTTP representation.
func FromPolicy(p *models.Policy) *PolicyResponse {
	return &PolicyResponse{
		ID:                 p.ID,
		Holder:             p.Holder,
		FlightCode:         p.FlightCode,
		ScheduledDeparture: p.ScheduledDeparture,
		ScheduledArrival:   p.ScheduledArrival,
		ActualArrival:      p.ActualArrival,
		FlightStatus:       string(p.FlightStatus),
		DelayThresholdS:    int64(p.DelayThreshold.Seconds()),
		PremiumCents:       p.PremiumCents,
		ClaimAmountCents:   p.ClaimAmountCents,
		Status:             string(p.Status),
		Outcome:            string(p.Outcome),
		LastEvaluatedAt:    p.LastEvaluatedAt,
	}
}

// HolderPoliciesResponse is the HTTP response for GET /holders/{holder}/policies.
type HolderPoliciesResponse struct {
	Holder   id.Holder     `json:"holder"`
	Policies []id.PolicyID `json:"policies"`
}

// EvaluateResponse is the HTTP response for POST /policies/{policyID}/evaluate.
type EvaluateResponse struct {
	Decision string          `json:"decision"`
	Policy   *PolicyResponse `json:"policy"`
}

// FromResult converts an evaluation result to its HTTP representation.
func FromResult(res *claims.Result) *EvaluateResponse {
	return &EvaluateResponse{
		Decision: res.Decision.String(),
		Policy:   FromPolicy(res.Policy),
	}
}

// WithdrawResponse is the HTTP response for POST /settlement/withdraw.
type WithdrawResponse struct {
	Destination    string `json:"destination"`
	WithdrawnCents int64  `json:"withdrawn_cents"`
}
