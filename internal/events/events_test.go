package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/requestcontext"
)

func testPolicy(t *testing.T) *models.Policy {
	t.Helper()
	p, err := models.NewPolicy("holder-1", "CA1234",
		time.Unix(1000, 0), time.Unix(2000, 0),
		4*time.Hour, 2000, 6000, time.Unix(500, 0))
	require.NoError(t, err)
	p.ID = 7
	return p
}

func TestFromPolicy(t *testing.T) {
	now := time.Unix(3000, 0)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	t.Run("paid claim carries outcome and amount", func(t *testing.T) {
		p := testPolicy(t)
		p.ApplyClaim(now)

		ev := FromPolicy(ctx, TypeClaimPaid, p)
		assert.Equal(t, TypeClaimPaid, ev.Type)
		assert.Equal(t, p.ID, ev.PolicyID)
		assert.Equal(t, "paid", ev.Outcome)
		assert.Equal(t, int64(6000), ev.AmountCents)
		assert.Equal(t, now, ev.Timestamp)
		assert.Equal(t, "req-1", ev.RequestID)
		assert.NotEmpty(t, ev.ID)
	})

	t.Run("denial carries flight status", func(t *testing.T) {
		p := testPolicy(t)
		p.ApplyNoDataDenial(now)

		ev := FromPolicy(ctx, TypeClaimDenied, p)
		assert.Equal(t, "denied", ev.Outcome)
		assert.Equal(t, "other", ev.FlightStatus)
		assert.Zero(t, ev.AmountCents)
	})
}

func TestBuffer(t *testing.T) {
	ctx := context.Background()
	b := NewBuffer()
	p := testPolicy(t)

	require.NoError(t, b.Publish(ctx, FromPolicy(ctx, TypePolicyCreated, p)))
	require.NoError(t, b.Publish(ctx, FromPolicy(ctx, TypeAwaitingData, p)))
	require.NoError(t, b.Publish(ctx, FromPolicy(ctx, TypeAwaitingData, p)))

	assert.Len(t, b.Events(), 3)
	assert.Len(t, b.OfType(TypeAwaitingData), 2)
	assert.Len(t, b.OfType(TypeClaimPaid), 0)
}

func TestAsyncDeliversToNext(t *testing.T) {
	buf := NewBuffer()
	a := NewAsync(buf, 16, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = a.Run(ctx)
		close(done)
	}()

	p := testPolicy(t)
	require.NoError(t, a.Publish(ctx, FromPolicy(ctx, TypePolicyCreated, p)))

	assert.Eventually(t, func() bool {
		return len(buf.Events()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
