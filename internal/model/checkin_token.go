package model

import "time"

// CheckInToken is a short-lived credential bound to one session.  The raw
// token value is handed to the organizer (rendered as a QR code by the
// front end) and never stored; only its SHA-256 hex digest is persisted.
// At most one token per session is active at any time – issuing a new one
// deactivates all predecessors in the same transaction.
//
// Fields:
//  ID         – primary key identifier.
//  SessionID  – session the token admits to.
//  TokenHash  – SHA-256 hex digest of the raw token value (unique).
//  ValidFrom  – start of the validity window.
//  ValidUntil – end of the validity window.
//  IsActive   – false once rotated out.
//  CreatedAt  – creation timestamp.
type CheckInToken struct {
	ID         uint64    // checkin_tokens.id
	SessionID  uint64    // checkin_tokens.session_id
	TokenHash  string    // checkin_tokens.token_hash
	ValidFrom  time.Time // checkin_tokens.valid_from
	ValidUntil time.Time // checkin_tokens.valid_until
	IsActive   bool      // checkin_tokens.is_active
	CreatedAt  time.Time // checkin_tokens.created_at
}

// Usable reports whether the token admits check-ins at the given instant.
// Both window bounds are inclusive.
func (t CheckInToken) Usable(now time.Time) bool {
	return t.IsActive && !now.Before(t.ValidFrom) && !now.After(t.ValidUntil)
}
