package model

import "time"

// Session represents a single scheduled meeting of a program.  Attendance
// records and check-in tokens are always bound to a session.
//
// Fields:
//  ID        – primary key identifier.
//  ProgramID – program this session belongs to.
//  Ordinal   – one-based meeting number within the program.
//  Title     – optional session title.
//  Location  – optional meeting place.
//  StartsAt  – scheduled start time (UTC).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Session struct {
	ID        uint64    // sessions.id
	ProgramID uint64    // sessions.program_id
	Ordinal   uint32    // sessions.ordinal
	Title     *string   // sessions.title (nullable)
	Location  *string   // sessions.location (nullable)
	StartsAt  time.Time // sessions.starts_at
	CreatedAt time.Time // sessions.created_at
	UpdatedAt time.Time // sessions.updated_at
}

// Held reports whether the session's scheduled start has passed at the
// given instant.  Only held sessions count toward attendance rates.
func (s Session) Held(now time.Time) bool {
	return !s.StartsAt.After(now)
}
