package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openclub/attendance/internal/model"
)

// TokenRepo persists check-in tokens.  Only SHA-256 digests of token
// values are stored; validation looks rows up by digest.  The one-active-
// token-per-session invariant is enforced by Rotate, which deactivates
// and inserts inside a single transaction so no validator can observe a
// session mid-rotation.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo returns a new TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// Rotate deactivates every active token for the session and inserts a
// new one with the given digest and validity window, as one atomic unit.
// It returns the stored token row.
func (r *TokenRepo) Rotate(ctx context.Context, sessionID uint64, tokenHash string, validFrom, validUntil time.Time) (*model.CheckInToken, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		`UPDATE checkin_tokens SET is_active = FALSE WHERE session_id = ? AND is_active = TRUE`,
		sessionID); err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO checkin_tokens (session_id, token_hash, valid_from, valid_until, is_active)
		 VALUES (?, ?, ?, ?, TRUE)`,
		sessionID, tokenHash, validFrom.UTC(), validUntil.UTC())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &model.CheckInToken{
		ID:         uint64(id),
		SessionID:  sessionID,
		TokenHash:  tokenHash,
		ValidFrom:  validFrom.UTC(),
		ValidUntil: validUntil.UTC(),
		IsActive:   true,
	}, nil
}

// GetByHash returns the token row matching the digest, or ErrNotFound.
// It does not check the validity window or active flag; that is the
// service's decision so the caller can report one opaque failure for
// every invalid-token condition.
func (r *TokenRepo) GetByHash(ctx context.Context, tokenHash string) (*model.CheckInToken, error) {
	const q = `SELECT id, session_id, token_hash, valid_from, valid_until, is_active, created_at
	           FROM checkin_tokens WHERE token_hash = ? LIMIT 1`
	var t model.CheckInToken
	err := r.db.QueryRowContext(ctx, q, tokenHash).Scan(
		&t.ID, &t.SessionID, &t.TokenHash, &t.ValidFrom, &t.ValidUntil, &t.IsActive, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
