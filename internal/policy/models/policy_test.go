package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain-errors"
)

const (
	testThreshold = 4 * time.Hour
	noDataTimeout = 72 * time.Hour
)

type PolicyModelSuite struct {
	suite.Suite
}

func TestPolicyModelSuite(t *testing.T) {
	suite.Run(t, new(PolicyModelSuite))
}

func (s *PolicyModelSuite) newPolicy() *Policy {
	p, err := NewPolicy("holder-1", "CA1234",
		time.Unix(1000, 0), time.Unix(2000, 0),
		testThreshold, 2000, 6000, time.Unix(500, 0))
	s.Require().NoError(err)
	return p
}

func (s *PolicyModelSuite) TestNewPolicy() {
	s.Run("starts active with no outcome and unknown arrival", func() {
		p := s.newPolicy()
		s.Equal(PolicyStatusActive, p.Status)
		s.Equal(OutcomeNone, p.Outcome)
		s.Equal(FlightStatusNormal, p.FlightStatus)
		s.Nil(p.ActualArrival)
	})

	s.Run("rejects arrival not after departure", func() {
		_, err := NewPolicy("holder-1", "CA1234",
			time.Unix(2000, 0), time.Unix(2000, 0),
			testThreshold, 2000, 6000, time.Unix(500, 0))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSchedule))
	})

	s.Run("rejects missing holder", func() {
		_, err := NewPolicy("", "CA1234",
			time.Unix(1000, 0), time.Unix(2000, 0),
			testThreshold, 2000, 6000, time.Unix(500, 0))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *PolicyModelSuite) TestDecide() {
	arrival := func(sec int64) *time.Time {
		t := time.Unix(sec, 0)
		return &t
	}

	s.Run("cancellation wins over everything, even unknown arrival", func() {
		p := s.newPolicy()
		p.FlightStatus = FlightStatusCanceled
		s.Equal(DecisionDenyCanceled, p.Decide(time.Unix(2100, 0), noDataTimeout))

		p.ActualArrival = arrival(1_000_000) // far past the threshold
		s.Equal(DecisionDenyCanceled, p.Decide(time.Unix(2100, 0), noDataTimeout))
	})

	s.Run("awaiting data while window open", func() {
		p := s.newPolicy()
		before := time.Unix(2000, 0).Add(noDataTimeout).Add(-time.Second)
		s.Equal(DecisionAwaitingData, p.Decide(before, noDataTimeout))
	})

	s.Run("no-data denial exactly at window boundary", func() {
		p := s.newPolicy()
		deadline := time.Unix(2000, 0).Add(noDataTimeout)
		s.Equal(DecisionDenyNoData, p.Decide(deadline, noDataTimeout))
		s.Equal(DecisionDenyNoData, p.Decide(deadline.Add(time.Second), noDataTimeout))
	})

	s.Run("no-data timeout checked before arrival comparisons", func() {
		// Arrival known: the timeout branch must not fire even long after it.
		p := s.newPolicy()
		p.ActualArrival = arrival(2000)
		late := time.Unix(2000, 0).Add(noDataTimeout).Add(time.Hour)
		s.Equal(DecisionDenyOnTime, p.Decide(late, noDataTimeout))
	})

	s.Run("on-time exactly at threshold boundary", func() {
		p := s.newPolicy()
		p.ActualArrival = arrival(2000 + int64(testThreshold/time.Second))
		s.Equal(DecisionDenyOnTime, p.Decide(time.Unix(20000, 0), noDataTimeout))
	})

	s.Run("one second past threshold pays", func() {
		p := s.newPolicy()
		p.ActualArrival = arrival(2000 + int64(testThreshold/time.Second) + 1)
		s.Equal(DecisionPay, p.Decide(time.Unix(20000, 0), noDataTimeout))
	})

	s.Run("arrival 20000 with threshold 14400s pays", func() {
		p := s.newPolicy()
		p.ActualArrival = arrival(20000) // 20000 > 2000 + 14400
		s.Equal(DecisionPay, p.Decide(time.Unix(20001, 0), noDataTimeout))
	})
}

func (s *PolicyModelSuite) TestTransitions() {
	now := time.Unix(3000, 0)

	s.Run("denial terminates with denied outcome", func() {
		p := s.newPolicy()
		p.ApplyDenial(now)
		s.Equal(PolicyStatusTerminated, p.Status)
		s.Equal(OutcomeDenied, p.Outcome)
		s.False(p.IsActive())
	})

	s.Run("no-data denial forces flight status to other", func() {
		p := s.newPolicy()
		p.ApplyNoDataDenial(now)
		s.Equal(PolicyStatusTerminated, p.Status)
		s.Equal(OutcomeDenied, p.Outcome)
		s.Equal(FlightStatusOther, p.FlightStatus)
	})

	s.Run("claim marks paid", func() {
		p := s.newPolicy()
		p.ApplyClaim(now)
		s.Equal(PolicyStatusClaimed, p.Status)
		s.Equal(OutcomePaid, p.Outcome)
	})

	s.Run("outcome is none iff active", func() {
		p := s.newPolicy()
		s.True(p.IsActive())
		s.Equal(OutcomeNone, p.Outcome)

		p.ApplyDenial(now)
		s.False(p.IsActive())
		s.NotEqual(OutcomeNone, p.Outcome)
	})
}

func (s *PolicyModelSuite) TestClone() {
	p := s.newPolicy()
	t := time.Unix(2500, 0)
	p.ActualArrival = &t

	cp := p.Clone()
	*cp.ActualArrival = time.Unix(9999, 0)
	cp.Status = PolicyStatusClaimed

	s.Equal(time.Unix(2500, 0), *p.ActualArrival, "clone must not alias arrival")
	s.Equal(PolicyStatusActive, p.Status)
}
