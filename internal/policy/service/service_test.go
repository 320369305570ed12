package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/events"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/store"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/settlement"
	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
	dErrors "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain-errors"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/requestcontext"
)

var testTerms = Terms{
	PremiumCents:     2000,
	ClaimAmountCents: 6000,
	DelayThreshold:   4 * time.Hour,
}

type PolicyServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	pool    *settlement.Pool
	buffer  *events.Buffer
	service *Service
	ctx     context.Context
}

func TestPolicyServiceSuite(t *testing.T) {
	suite.Run(t, new(PolicyServiceSuite))
}

func (s *PolicyServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = store.NewInMemory()
	s.pool = settlement.NewPool(0, logger)
	s.buffer = events.NewBuffer()
	s.service = New(s.store, s.pool, s.buffer, nil, logger, testTerms)
	s.ctx = requestcontext.WithTime(context.Background(), time.Unix(500, 0))
}

func (s *PolicyServiceSuite) createParams() CreateParams {
	return CreateParams{
		Holder:             "holder-1",
		FlightCode:         "CA1234",
		ScheduledDeparture: time.Unix(1000, 0),
		ScheduledArrival:   time.Unix(2000, 0),
		PaidAmountCents:    2000,
	}
}

func (s *PolicyServiceSuite) TestCreatePolicy() {
	s.Run("stores active policy with configured terms", func() {
		p, err := s.service.CreatePolicy(s.ctx, s.createParams())
		s.Require().NoError(err)

		s.Equal(id.PolicyID(1), p.ID)
		s.Equal(models.PolicyStatusActive, p.Status)
		s.Equal(models.OutcomeNone, p.Outcome)
		s.Equal(testTerms.DelayThreshold, p.DelayThreshold)
		s.Equal(testTerms.ClaimAmountCents, p.ClaimAmountCents)
		s.Nil(p.ActualArrival)
	})

	s.Run("credits the premium to the pool", func() {
		before := s.pool.Balance()
		_, err := s.service.CreatePolicy(s.ctx, s.createParams())
		s.Require().NoError(err)
		s.Equal(before+testTerms.PremiumCents, s.pool.Balance())
	})

	s.Run("emits a creation notification", func() {
		_, err := s.service.CreatePolicy(s.ctx, s.createParams())
		s.Require().NoError(err)
		s.NotEmpty(s.buffer.OfType(events.TypePolicyCreated))
	})

	s.Run("rejects incorrect premium", func() {
		params := s.createParams()
		params.PaidAmountCents = 1999
		_, err := s.service.CreatePolicy(s.ctx, params)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeIncorrectPremium))
	})

	s.Run("rejects invalid schedule", func() {
		params := s.createParams()
		params.ScheduledArrival = params.ScheduledDeparture
		_, err := s.service.CreatePolicy(s.ctx, params)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSchedule))
	})
}

func (s *PolicyServiceSuite) TestGetPolicy() {
	s.Run("returns stored policy", func() {
		created, err := s.service.CreatePolicy(s.ctx, s.createParams())
		s.Require().NoError(err)

		p, err := s.service.GetPolicy(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created.ID, p.ID)
	})

	s.Run("maps unknown ID to policy_not_found", func() {
		_, err := s.service.GetPolicy(s.ctx, id.PolicyID(9999))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyNotFound))
	})
}

func (s *PolicyServiceSuite) TestGetPoliciesByHolder() {
	s.Run("returns identifiers in creation order", func() {
		var want []id.PolicyID
		for range 3 {
			p, err := s.service.CreatePolicy(s.ctx, s.createParams())
			s.Require().NoError(err)
			want = append(want, p.ID)
		}

		got, err := s.service.GetPoliciesByHolder(s.ctx, "holder-1")
		s.Require().NoError(err)
		s.Equal(want, got)
	})

	s.Run("unknown holder yields empty list", func() {
		got, err := s.service.GetPoliciesByHolder(s.ctx, "nobody")
		s.Require().NoError(err)
		s.Empty(got)
	})
}

func (s *PolicyServiceSuite) TestUpdateFlightInfo() {
	arrival := time.Unix(20000, 0)

	s.Run("overwrites observed fields on active policy", func() {
		created, err := s.service.CreatePolicy(s.ctx, s.createParams())
		s.Require().NoError(err)

		p, err := s.service.UpdateFlightInfo(s.ctx, created.ID, &arrival, models.FlightStatusNormal)
		s.Require().NoError(err)
		s.Require().NotNil(p.ActualArrival)
		s.True(p.ActualArrival.Equal(arrival))

		// Last write wins: a second update replaces both fields.
		p, err = s.service.UpdateFlightInfo(s.ctx, created.ID, nil, models.FlightStatusCanceled)
		s.Require().NoError(err)
		s.Nil(p.ActualArrival)
		s.Equal(models.FlightStatusCanceled, p.FlightStatus)
	})

	s.Run("emits an update notification", func() {
		created, err := s.service.CreatePolicy(s.ctx, s.createParams())
		s.Require().NoError(err)

		before := len(s.buffer.OfType(events.TypeFlightInfoUpdated))
		_, err = s.service.UpdateFlightInfo(s.ctx, created.ID, &arrival, models.FlightStatusNormal)
		s.Require().NoError(err)
		s.Len(s.buffer.OfType(events.TypeFlightInfoUpdated), before+1)
	})

	s.Run("hard-rejects updates to terminal policies", func() {
		created, err := s.service.CreatePolicy(s.ctx, s.createParams())
		s.Require().NoError(err)

		_, err = s.store.Execute(s.ctx, created.ID, func(p *models.Policy) error {
			p.ApplyDenial(time.Unix(3000, 0))
			return nil
		})
		s.Require().NoError(err)

		_, err = s.service.UpdateFlightInfo(s.ctx, created.ID, &arrival, models.FlightStatusNormal)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyNotActive))

		// And nothing changed.
		p, err := s.service.GetPolicy(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Nil(p.ActualArrival)
	})

	s.Run("rejects unknown flight status", func() {
		created, err := s.service.CreatePolicy(s.ctx, s.createParams())
		s.Require().NoError(err)

		_, err = s.service.UpdateFlightInfo(s.ctx, created.ID, &arrival, models.FlightStatus("delayed?"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("maps unknown ID to policy_not_found", func() {
		_, err := s.service.UpdateFlightInfo(s.ctx, id.PolicyID(9999), &arrival, models.FlightStatusNormal)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyNotFound))
	})
}
