package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openclub/attendance/internal/model"
)

// DepositRepo persists deposit policies and per-participant deposit
// state.  State transitions are guarded by conditional updates so that a
// deposit can never move backwards and a settlement can never run twice,
// even under concurrent callers.
type DepositRepo struct {
	db *sql.DB
}

// NewDepositRepo returns a new DepositRepo bound to the given database.
func NewDepositRepo(db *sql.DB) *DepositRepo { return &DepositRepo{db: db} }

// GetPolicy returns a program's deposit policy, or ErrNotFound when the
// program takes no deposit.
func (r *DepositRepo) GetPolicy(ctx context.Context, programID uint64) (*model.DepositPolicy, error) {
	const q = `SELECT id, program_id, amount_cents, minimum_rate, partial_rate, carry_forward
	           FROM deposit_policies WHERE program_id = ?`
	var p model.DepositPolicy
	err := r.db.QueryRowContext(ctx, q, programID).Scan(
		&p.ID, &p.ProgramID, &p.AmountCents, &p.MinimumRate, &p.PartialRate, &p.CarryForward,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

const depositColumns = `id, program_id, participant_id, status, paid_at, return_cents, forfeit_cents, final_rate, settled_at`

func scanDeposit(row interface{ Scan(...any) error }) (*model.DepositState, error) {
	var d model.DepositState
	var paidAt, settledAt sql.NullTime
	var returnCents, forfeitCents sql.NullInt64
	var finalRate sql.NullFloat64
	err := row.Scan(&d.ID, &d.ProgramID, &d.ParticipantID, &d.Status,
		&paidAt, &returnCents, &forfeitCents, &finalRate, &settledAt)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		v := paidAt.Time
		d.PaidAt = &v
	}
	if returnCents.Valid {
		v := uint32(returnCents.Int64)
		d.ReturnCents = &v
	}
	if forfeitCents.Valid {
		v := uint32(forfeitCents.Int64)
		d.ForfeitCents = &v
	}
	if finalRate.Valid {
		v := finalRate.Float64
		d.FinalRate = &v
	}
	if settledAt.Valid {
		v := settledAt.Time
		d.SettledAt = &v
	}
	return &d, nil
}

// GetState returns a participant's deposit state for a program, or
// ErrNotFound when no deposit row exists.
func (r *DepositRepo) GetState(ctx context.Context, programID, participantID uint64) (*model.DepositState, error) {
	d, err := scanDeposit(r.db.QueryRowContext(ctx,
		`SELECT `+depositColumns+` FROM deposit_states WHERE program_id = ? AND participant_id = ?`,
		programID, participantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListByStatus returns all deposit rows of a program in the given status,
// ordered by participant.  Batch settlement iterates the PAID set.
func (r *DepositRepo) ListByStatus(ctx context.Context, programID uint64, status string) ([]model.DepositState, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+depositColumns+` FROM deposit_states WHERE program_id = ? AND status = ? ORDER BY participant_id`,
		programID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var states []model.DepositState
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, *d)
	}
	return states, rows.Err()
}

// MarkPaid records payment of an UNPAID deposit.  The status guard makes
// the transition race-safe; a zero-row update means the deposit was not
// UNPAID and is reported as ErrConflict.
func (r *DepositRepo) MarkPaid(ctx context.Context, programID, participantID uint64, paidAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE deposit_states SET status = ?, paid_at = ?
		 WHERE program_id = ? AND participant_id = ? AND status = ?`,
		model.DepositPaid, paidAt.UTC(), programID, participantID, model.DepositUnpaid)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// Settle writes the terminal outcome of a PAID deposit: the frozen
// attendance rate, the return/forfeit split and the settled timestamp.
// The WHERE status = 'PAID' clause is the idempotence guard – a second
// settlement attempt (or a concurrent one) updates zero rows and is
// reported as ErrConflict, leaving the frozen snapshot untouched.
func (r *DepositRepo) Settle(ctx context.Context, d *model.DepositState) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE deposit_states
		 SET status = ?, return_cents = ?, forfeit_cents = ?, final_rate = ?, settled_at = ?
		 WHERE program_id = ? AND participant_id = ? AND status = ?`,
		d.Status, d.ReturnCents, d.ForfeitCents, d.FinalRate, d.SettledAt.UTC(),
		d.ProgramID, d.ParticipantID, model.DepositPaid)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
