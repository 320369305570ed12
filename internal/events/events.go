// Package events carries policy lifecycle notifications. The Event struct is
// transport-agnostic so sinks (in-memory buffer, Kafka) can fan out.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/requestcontext"
)

// Type names a policy lifecycle notification.
type Type string

const (
	TypePolicyCreated     Type = "policy_created"
	TypeFlightInfoUpdated Type = "flight_info_updated"
	// TypeAwaitingData is emitted when an evaluation leaves the policy Active
	// because no arrival data has been reported yet.
	TypeAwaitingData Type = "awaiting_data"
	TypeClaimDenied  Type = "claim_denied"
	TypeClaimPaid    Type = "claim_paid"
)

// Event is a single policy notification.
type Event struct {
	ID           string      `json:"id"`
	Type         Type        `json:"type"`
	Timestamp    time.Time   `json:"timestamp"`
	PolicyID     id.PolicyID `json:"policy_id"`
	Holder       id.Holder   `json:"holder"`
	FlightCode   string      `json:"flight_code"`
	Outcome      string      `json:"outcome,omitempty"`
	FlightStatus string      `json:"flight_status,omitempty"`
	AmountCents  int64       `json:"amount_cents,omitempty"`
	RequestID    string      `json:"request_id,omitempty"`
}

// Publisher delivers events to a sink. Publish failures are the sink's
// problem: notifications are advisory and never veto a state transition.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// FromPolicy builds an event for the given policy, stamping the request-scoped
// time and correlation ID from ctx.
func FromPolicy(ctx context.Context, t Type, p *models.Policy) Event {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       t,
		Timestamp:  requestcontext.Now(ctx),
		PolicyID:   p.ID,
		Holder:     p.Holder,
		FlightCode: p.FlightCode,
		RequestID:  requestcontext.RequestID(ctx),
	}
	switch t {
	case TypeClaimDenied:
		ev.Outcome = string(p.Outcome)
		ev.FlightStatus = string(p.FlightStatus)
	case TypeClaimPaid:
		ev.Outcome = string(p.Outcome)
		ev.AmountCents = p.ClaimAmountCents
	case TypeFlightInfoUpdated:
		ev.FlightStatus = string(p.FlightStatus)
	}
	return ev
}
