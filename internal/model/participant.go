package model

import "time"

// Participant roles within a program.  Organizers and facilitators may
// issue tokens, correct attendance and review absence requests for their
// own program; members may only check themselves in.
const (
	ParticipantRoleOrganizer   = "ORGANIZER"
	ParticipantRoleFacilitator = "FACILITATOR"
	ParticipantRoleMember      = "MEMBER"
)

// Participant links a user to a program.  It is created on enrollment by
// the external membership module and anchors all attendance and deposit
// state for that program.
//
// Fields:
//  ID        – primary key identifier.
//  ProgramID – program the user is enrolled in.
//  UserID    – enrolled user.
//  Role      – role within the program (ORGANIZER, FACILITATOR, MEMBER).
//  JoinedAt  – enrollment timestamp.
type Participant struct {
	ID        uint64    // participants.id
	ProgramID uint64    // participants.program_id
	UserID    uint64    // participants.user_id
	Role      string    // participants.role
	JoinedAt  time.Time // participants.joined_at
}

// Manages reports whether the participant's program role carries
// organizer capabilities.
func (p Participant) Manages() bool {
	return p.Role == ParticipantRoleOrganizer || p.Role == ParticipantRoleFacilitator
}
