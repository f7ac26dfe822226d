package model

import "time"

// Program represents one run of a club program (a course, study group or
// project cohort).  Sessions, participants and deposits all hang off a
// program.  The program directory itself is owned by an external module;
// the engine only reads these rows.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name of the program.
//  GraceMinutes – minutes after a session start during which a QR
//                 check-in still counts as on time.
//  TokenTTLMin  – lifetime in minutes of an issued check-in token.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Program struct {
	ID           uint64    // programs.id
	Name         string    // programs.name
	GraceMinutes int       // programs.grace_minutes
	TokenTTLMin  int       // programs.token_ttl_min
	CreatedAt    time.Time // programs.created_at
	UpdatedAt    time.Time // programs.updated_at
}
