package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openclub/attendance/internal/model"
)

// AttendanceRepo persists attendance records.  The table carries a
// unique key on (session_id, participant_id); Upsert relies on it so two
// concurrent writes for the same pair resolve to one row.
type AttendanceRepo struct {
	db *sql.DB
}

// NewAttendanceRepo returns a new AttendanceRepo bound to the given database.
func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{db: db} }

const attendanceColumns = `id, session_id, participant_id, status, checked_at, method, note, token_id, created_at, updated_at`

func scanAttendance(row interface{ Scan(...any) error }) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	var checkedAt sql.NullTime
	var note sql.NullString
	var tokenID sql.NullInt64
	err := row.Scan(&rec.ID, &rec.SessionID, &rec.ParticipantID, &rec.Status,
		&checkedAt, &rec.Method, &note, &tokenID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if checkedAt.Valid {
		v := checkedAt.Time
		rec.CheckedAt = &v
	}
	if note.Valid {
		v := note.String
		rec.Note = &v
	}
	if tokenID.Valid {
		v := uint64(tokenID.Int64)
		rec.TokenID = &v
	}
	return &rec, nil
}

// Get returns the record for a (session, participant) pair, or ErrNotFound.
func (r *AttendanceRepo) Get(ctx context.Context, sessionID, participantID uint64) (*model.AttendanceRecord, error) {
	rec, err := scanAttendance(r.db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records WHERE session_id = ? AND participant_id = ?`,
		sessionID, participantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Upsert writes the record for its (session, participant) pair, creating
// the row on first check-in and replacing status, checked_at, method,
// note and token_id on every later write.  The unique key guarantees at
// most one row per pair regardless of write interleaving.
func (r *AttendanceRepo) Upsert(ctx context.Context, rec *model.AttendanceRecord) error {
	var checkedAt any
	if rec.CheckedAt != nil {
		checkedAt = rec.CheckedAt.UTC()
	}
	var note any
	if rec.Note != nil {
		note = *rec.Note
	}
	var tokenID any
	if rec.TokenID != nil {
		tokenID = *rec.TokenID
	}
	const q = `INSERT INTO attendance_records (session_id, participant_id, status, checked_at, method, note, token_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	               status = VALUES(status),
	               checked_at = VALUES(checked_at),
	               method = VALUES(method),
	               note = VALUES(note),
	               token_id = VALUES(token_id)`
	_, err := r.db.ExecContext(ctx, q,
		rec.SessionID, rec.ParticipantID, rec.Status, checkedAt, rec.Method, note, tokenID)
	return err
}

// ListBySession returns all records for a session.
func (r *AttendanceRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttendance(rows)
}

// ListByParticipant returns all of a participant's records.  Callers
// restrict to held sessions themselves.
func (r *AttendanceRepo) ListByParticipant(ctx context.Context, participantID uint64) ([]model.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records WHERE participant_id = ?`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttendance(rows)
}

func collectAttendance(rows *sql.Rows) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
