package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openclub/attendance/internal/model"
)

// AbsenceRepo persists absence requests.  One request per (session,
// participant) pair, enforced by a unique key.
type AbsenceRepo struct {
	db *sql.DB
}

// NewAbsenceRepo returns a new AbsenceRepo bound to the given database.
func NewAbsenceRepo(db *sql.DB) *AbsenceRepo { return &AbsenceRepo{db: db} }

const absenceColumns = `id, session_id, participant_id, reason, status, reviewer_id, reviewed_at, review_note, created_at`

func scanAbsence(row interface{ Scan(...any) error }) (*model.AbsenceRequest, error) {
	var req model.AbsenceRequest
	var reviewerID sql.NullInt64
	var reviewedAt sql.NullTime
	var reviewNote sql.NullString
	err := row.Scan(&req.ID, &req.SessionID, &req.ParticipantID, &req.Reason, &req.Status,
		&reviewerID, &reviewedAt, &reviewNote, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	if reviewerID.Valid {
		v := uint64(reviewerID.Int64)
		req.ReviewerID = &v
	}
	if reviewedAt.Valid {
		v := reviewedAt.Time
		req.ReviewedAt = &v
	}
	if reviewNote.Valid {
		v := reviewNote.String
		req.ReviewNote = &v
	}
	return &req, nil
}

// Create inserts a PENDING request and populates its id.  A duplicate
// (session, participant) pair surfaces as ErrConflict via the unique key.
func (r *AbsenceRepo) Create(ctx context.Context, req *model.AbsenceRequest) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO absence_requests (session_id, participant_id, reason, status)
		 VALUES (?, ?, ?, ?)`,
		req.SessionID, req.ParticipantID, req.Reason, model.AbsencePending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	req.Status = model.AbsencePending
	return nil
}

// Get returns a request by id, or ErrNotFound.
func (r *AbsenceRepo) Get(ctx context.Context, id uint64) (*model.AbsenceRequest, error) {
	req, err := scanAbsence(r.db.QueryRowContext(ctx,
		`SELECT `+absenceColumns+` FROM absence_requests WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// GetBySessionAndParticipant returns the request for a pair, or ErrNotFound.
func (r *AbsenceRepo) GetBySessionAndParticipant(ctx context.Context, sessionID, participantID uint64) (*model.AbsenceRequest, error) {
	req, err := scanAbsence(r.db.QueryRowContext(ctx,
		`SELECT `+absenceColumns+` FROM absence_requests WHERE session_id = ? AND participant_id = ?`,
		sessionID, participantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// Decide moves a PENDING request to APPROVED or REJECTED and records the
// reviewer.  The status guard in the WHERE clause makes the transition
// race-safe; a zero-row update means the request was no longer pending
// and is reported as ErrConflict.
func (r *AbsenceRepo) Decide(ctx context.Context, id uint64, status string, reviewerID uint64, reviewedAt time.Time, note *string) error {
	var reviewNote any
	if note != nil {
		reviewNote = *note
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE absence_requests
		 SET status = ?, reviewer_id = ?, reviewed_at = ?, review_note = ?
		 WHERE id = ? AND status = ?`,
		status, reviewerID, reviewedAt.UTC(), reviewNote, id, model.AbsencePending)
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

// DeletePending removes a request while it is still PENDING (owner
// cancellation).  A zero-row delete is reported as ErrConflict.
func (r *AbsenceRepo) DeletePending(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM absence_requests WHERE id = ? AND status = ?`, id, model.AbsencePending)
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
