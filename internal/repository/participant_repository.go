package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openclub/attendance/internal/model"
)

// ParticipantRepo reads program membership rows.  Enrollment is owned by
// the external membership module; the engine resolves participants to
// validate check-ins and to authorize organizer actions.
type ParticipantRepo struct {
	db *sql.DB
}

// NewParticipantRepo returns a new ParticipantRepo bound to the given database.
func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{db: db} }

const participantColumns = `id, program_id, user_id, role, joined_at`

// Get returns a participant by id, or ErrNotFound.
func (r *ParticipantRepo) Get(ctx context.Context, id uint64) (*model.Participant, error) {
	var p model.Participant
	err := r.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = ?`, id).
		Scan(&p.ID, &p.ProgramID, &p.UserID, &p.Role, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByProgramAndUser resolves a user's enrollment in a program, or
// ErrNotFound when the user is not a participant.
func (r *ParticipantRepo) GetByProgramAndUser(ctx context.Context, programID, userID uint64) (*model.Participant, error) {
	var p model.Participant
	err := r.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE program_id = ? AND user_id = ?`,
		programID, userID).
		Scan(&p.ID, &p.ProgramID, &p.UserID, &p.Role, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByProgram returns all participants of a program ordered by join
// time.  Used to build full session rosters, including members who have
// no attendance record yet.
func (r *ParticipantRepo) ListByProgram(ctx context.Context, programID uint64) ([]model.Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE program_id = ? ORDER BY joined_at, id`,
		programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var participants []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.ProgramID, &p.UserID, &p.Role, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
