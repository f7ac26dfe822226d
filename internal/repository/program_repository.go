package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openclub/attendance/internal/model"
)

// ProgramRepo reads program rows. Programs are created and edited by the
// external management module; the engine only consumes the per-program
// configuration (grace window, token TTL).
type ProgramRepo struct {
	db *sql.DB
}

// NewProgramRepo returns a new ProgramRepo bound to the given database.
func NewProgramRepo(db *sql.DB) *ProgramRepo { return &ProgramRepo{db: db} }

// Get returns a program by id, or ErrNotFound.
func (r *ProgramRepo) Get(ctx context.Context, id uint64) (*model.Program, error) {
	const q = `SELECT id, name, grace_minutes, token_ttl_min, created_at, updated_at
	           FROM programs WHERE id = ?`
	var p model.Program
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.GraceMinutes, &p.TokenTTLMin, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
