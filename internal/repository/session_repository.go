package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openclub/attendance/internal/model"
)

// SessionRepo reads session rows.  Session scheduling is owned by the
// external program module; the engine reads sessions to resolve tokens,
// classify lateness and enumerate held meetings for rate computation.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = `id, program_id, ordinal, title, location, starts_at, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var title, location sql.NullString
	if err := row.Scan(&s.ID, &s.ProgramID, &s.Ordinal, &title, &location, &s.StartsAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if title.Valid {
		v := title.String
		s.Title = &v
	}
	if location.Valid {
		v := location.String
		s.Location = &v
	}
	return &s, nil
}

// Get returns a session by id, or ErrNotFound.
func (r *SessionRepo) Get(ctx context.Context, id uint64) (*model.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListHeld returns the sessions of a program whose scheduled start is at
// or before the given instant, ordered by ordinal.  These are the
// sessions that count toward attendance rates.
func (r *SessionRepo) ListHeld(ctx context.Context, programID uint64, now time.Time) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE program_id = ? AND starts_at <= ? ORDER BY ordinal`,
		programID, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
