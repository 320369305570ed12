package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newPolicy(holder id.Holder) *models.Policy {
	p, err := models.NewPolicy(holder, "CA1234",
		time.Unix(1000, 0), time.Unix(2000, 0),
		4*time.Hour, 2000, 6000, time.Unix(500, 0))
	s.Require().NoError(err)
	return p
}

func (s *MemoryStoreSuite) TestCreateAssignsMonotonicIDs() {
	first := s.newPolicy("holder-a")
	second := s.newPolicy("holder-b")

	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, second))

	s.Equal(id.PolicyID(1), first.ID)
	s.Equal(id.PolicyID(2), second.ID)
}

func (s *MemoryStoreSuite) TestGet() {
	s.Run("returns stored policy", func() {
		p := s.newPolicy("holder-a")
		s.Require().NoError(s.store.Create(s.ctx, p))

		found, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.Holder, found.Holder)
		s.Equal(p.FlightCode, found.FlightCode)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.Get(s.ctx, id.PolicyID(9999))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("hands out copies, not the stored aggregate", func() {
		p := s.newPolicy("holder-a")
		s.Require().NoError(s.store.Create(s.ctx, p))

		found, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		found.Status = models.PolicyStatusClaimed

		again, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.PolicyStatusActive, again.Status)
	})
}

func (s *MemoryStoreSuite) TestHolderIndex() {
	s.Run("preserves creation order with no duplicates", func() {
		var want []id.PolicyID
		for range 5 {
			p := s.newPolicy("holder-a")
			s.Require().NoError(s.store.Create(s.ctx, p))
			want = append(want, p.ID)
		}

		got, err := s.store.ListByHolder(s.ctx, "holder-a")
		s.Require().NoError(err)
		s.Equal(want, got)
	})

	s.Run("unknown holder yields empty slice, not an error", func() {
		got, err := s.store.ListByHolder(s.ctx, "nobody")
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("holders are independent", func() {
		a := s.newPolicy("holder-a")
		b := s.newPolicy("holder-b")
		s.Require().NoError(s.store.Create(s.ctx, a))
		s.Require().NoError(s.store.Create(s.ctx, b))

		got, err := s.store.ListByHolder(s.ctx, "holder-b")
		s.Require().NoError(err)
		s.Equal([]id.PolicyID{b.ID}, got)
	})
}

func (s *MemoryStoreSuite) TestExecute() {
	s.Run("commits mutation on success", func() {
		p := s.newPolicy("holder-a")
		s.Require().NoError(s.store.Create(s.ctx, p))

		updated, err := s.store.Execute(s.ctx, p.ID, func(p *models.Policy) error {
			p.ApplyDenial(time.Unix(3000, 0))
			return nil
		})
		s.Require().NoError(err)
		s.Equal(models.PolicyStatusTerminated, updated.Status)

		stored, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.PolicyStatusTerminated, stored.Status)
	})

	s.Run("aborts commit when callback fails", func() {
		p := s.newPolicy("holder-a")
		s.Require().NoError(s.store.Create(s.ctx, p))

		boom := errors.New("payout failed")
		_, err := s.store.Execute(s.ctx, p.ID, func(p *models.Policy) error {
			p.ApplyClaim(time.Unix(3000, 0))
			return boom
		})
		s.Require().ErrorIs(err, boom)

		stored, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.PolicyStatusActive, stored.Status)
		s.Equal(models.OutcomeNone, stored.Outcome)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.Execute(s.ctx, id.PolicyID(9999), func(p *models.Policy) error {
			return nil
		})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestListActiveIDs() {
	a := s.newPolicy("holder-a")
	b := s.newPolicy("holder-a")
	c := s.newPolicy("holder-b")
	for _, p := range []*models.Policy{a, b, c} {
		s.Require().NoError(s.store.Create(s.ctx, p))
	}

	_, err := s.store.Execute(s.ctx, b.ID, func(p *models.Policy) error {
		p.ApplyDenial(time.Unix(3000, 0))
		return nil
	})
	s.Require().NoError(err)

	ids, err := s.store.ListActiveIDs(s.ctx)
	s.Require().NoError(err)
	s.Equal([]id.PolicyID{a.ID, c.ID}, ids)
}
