package handler

import (
	"strings"
	"time"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	dErrors "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain-errors"
)

// CreatePolicyRequest is the HTTP request body for POST /policies.
type CreatePolicyRequest struct {
	FlightCode         string `json:"flight_code"`
	ScheduledDeparture string `json:"scheduled_departure"`
	ScheduledArrival   string `json:"scheduled_arrival"`
	PaidAmountCents    int64  `json:"paid_amount_cents"`

	// Parsed values (populated by Validate)
	parsedDeparture time.Time
	parsedArrival   time.Time
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreatePolicyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.FlightCode = strings.TrimSpace(r.FlightCode)
	if r.FlightCode == "" {
		return dErrors.New(dErrors.CodeValidation, "flight_code is required")
	}
	if len(r.FlightCode) > 16 {
		return dErrors.New(dErrors.CodeValidation, "flight_code must be at most 16 characters")
	}

	departure, err := time.Parse(time.RFC3339, r.ScheduledDeparture)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "scheduled_departure must be RFC 3339")
	}
	arrival, err := time.Parse(time.RFC3339, r.ScheduledArrival)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "scheduled_arrival must be RFC 3339")
	}
	r.parsedDeparture = departure
	r.parsedArrival = arrival

	if r.PaidAmountCents <= 0 {
		return dErrors.New(dErrors.CodeValidation, "paid_amount_cents must be positive")
	}
	return nil
}

// ParsedDeparture returns the validated scheduled departure.
func (r *CreatePolicyRequest) ParsedDeparture() time.Time {
	return r.parsedDeparture
}

// ParsedArrival returns the validated scheduled arrival.
func (r *CreatePolicyRequest) ParsedArrival() time.Time {
	return r.parsedArrival
}

// UpdateFlightInfoRequest is the HTTP request body for
// PUT /policies/{policyID}/flight-info.
type UpdateFlightInfoRequest struct {
	ActualArrival *string `json:"actual_arrival"`
	FlightStatus  string  `json:"flight_status"`

	parsedArrival *time.Time
	parsedStatus  models.FlightStatus
}

// Validate validates and parses the request.
func (r *UpdateFlightInfoRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	status := models.FlightStatus(strings.TrimSpace(r.FlightStatus))
	if !models.ValidFlightStatus(status) {
		return dErrors.New(dErrors.CodeValidation, "unknown flight status")
	}
	r.parsedStatus = status

	if r.ActualArrival != nil {
		arrival, err := time.Parse(time.RFC3339, *r.ActualArrival)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "actual_arrival must be RFC 3339")
		}
		r.parsedArrival = &arrival
	}
	return nil
}

// ParsedArrival returns the validated actual arrival, nil when not observed.
func (r *UpdateFlightInfoRequest) ParsedArrival() *time.Time {
	return r.parsedArrival
}

// ParsedStatus returns the validated flight status.
func (r *UpdateFlightInfoRequest) ParsedStatus() models.FlightStatus {
	return r.parsedStatus
}

// WithdrawRequest is the HTTP request body for POST /settlement/withdraw.
type WithdrawRequest struct {
	Destination string `json:"destination"`
}

// Validate validates the request.
func (r *WithdrawRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Destination = strings.TrimSpace(r.Destination)
	if r.Destination == "" {
		return dErrors.New(dErrors.CodeValidation, "destination is required")
	}
	return nil
}
