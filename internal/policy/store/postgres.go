package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/platform/sentinel"
)

// Postgres is the durable policy store. IDs come from a BIGSERIAL so they are
// monotonic across restarts; Execute serializes writers per policy with
// SELECT ... FOR UPDATE.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the policies table if it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS policies (
			id                  BIGSERIAL PRIMARY KEY,
			holder              TEXT        NOT NULL,
			flight_code         TEXT        NOT NULL,
			scheduled_departure TIMESTAMPTZ NOT NULL,
			scheduled_arrival   TIMESTAMPTZ NOT NULL,
			actual_arrival      TIMESTAMPTZ,
			last_evaluated_at   TIMESTAMPTZ NOT NULL,
			delay_threshold_s   BIGINT      NOT NULL,
			premium_cents       BIGINT      NOT NULL,
			claim_amount_cents  BIGINT      NOT NULL,
			status              TEXT        NOT NULL,
			outcome             TEXT        NOT NULL,
			flight_status       TEXT        NOT NULL
		);
		CREATE INDEX IF NOT EXISTS policies_holder_idx ON policies (holder, id);
		CREATE INDEX IF NOT EXISTS policies_status_idx ON policies (status) WHERE status = 'active';
	`)
	if err != nil {
		return fmt.Errorf("migrate policies: %w", err)
	}
	return nil
}

const policyColumns = `id, holder, flight_code, scheduled_departure, scheduled_arrival,
	actual_arrival, last_evaluated_at, delay_threshold_s, premium_cents,
	claim_amount_cents, status, outcome, flight_status`

func (s *Postgres) Create(ctx context.Context, p *models.Policy) error {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO policies (
			holder, flight_code, scheduled_departure, scheduled_arrival,
			actual_arrival, last_evaluated_at, delay_threshold_s,
			premium_cents, claim_amount_cents, status, outcome, flight_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		string(p.Holder), p.FlightCode, p.ScheduledDeparture, p.ScheduledArrival,
		nullableTime(p.ActualArrival), p.LastEvaluatedAt, int64(p.DelayThreshold/time.Second),
		p.PremiumCents, p.ClaimAmountCents, string(p.Status), string(p.Outcome), string(p.FlightStatus),
	)

	var assigned int64
	if err := row.Scan(&assigned); err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}
	p.ID = id.PolicyID(assigned)
	return nil
}

func (s *Postgres) Get(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = $1`, uint64(policyID))
	p, err := scanPolicy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select policy: %w", err)
	}
	return p, nil
}

func (s *Postgres) ListByHolder(ctx context.Context, holder id.Holder) ([]id.PolicyID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM policies WHERE holder = $1 ORDER BY id`, string(holder))
	if err != nil {
		return nil, fmt.Errorf("select policies by holder: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (s *Postgres) ListActiveIDs(ctx context.Context) ([]id.PolicyID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM policies WHERE status = $1 ORDER BY id`, string(models.PolicyStatusActive))
	if err != nil {
		return nil, fmt.Errorf("select active policies: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// Execute loads the row FOR UPDATE inside a transaction, runs fn, and writes
// the result back. The row lock is held across fn, so the payout call a
// caller makes inside fn commits atomically with the state transition; an
// error from fn rolls the transaction back.
func (s *Postgres) Execute(ctx context.Context, policyID id.PolicyID, fn func(p *models.Policy) error) (*models.Policy, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = $1 FOR UPDATE`, uint64(policyID))
	p, err := scanPolicy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select policy for update: %w", err)
	}

	if err := fn(p); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE policies SET
			actual_arrival = $2, last_evaluated_at = $3,
			status = $4, outcome = $5, flight_status = $6
		WHERE id = $1`,
		uint64(p.ID), nullableTime(p.ActualArrival), p.LastEvaluatedAt,
		string(p.Status), string(p.Outcome), string(p.FlightStatus),
	)
	if err != nil {
		return nil, fmt.Errorf("update policy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit policy update: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (*models.Policy, error) {
	var (
		p          models.Policy
		rawID      int64
		holder     string
		actual     sql.NullTime
		thresholdS int64
		status     string
		outcome    string
		flight     string
	)
	err := row.Scan(&rawID, &holder, &p.FlightCode, &p.ScheduledDeparture, &p.ScheduledArrival,
		&actual, &p.LastEvaluatedAt, &thresholdS, &p.PremiumCents,
		&p.ClaimAmountCents, &status, &outcome, &flight)
	if err != nil {
		return nil, err
	}
	p.ID = id.PolicyID(rawID)
	p.Holder = id.Holder(holder)
	if actual.Valid {
		t := actual.Time
		p.ActualArrival = &t
	}
	p.DelayThreshold = time.Duration(thresholdS) * time.Second
	p.Status = models.PolicyStatus(status)
	p.Outcome = models.ClaimOutcome(outcome)
	p.FlightStatus = models.FlightStatus(flight)
	return &p, nil
}

func scanIDs(rows *sql.Rows) ([]id.PolicyID, error) {
	out := []id.PolicyID{}
	for rows.Next() {
		var raw int64
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan policy id: %w", err)
		}
		out = append(out, id.PolicyID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy ids: %w", err)
	}
	return out, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
