package model

import "time"

// Absence request statuses.  PENDING requests may be approved, rejected
// or cancelled by their owner; APPROVED and REJECTED are final.
const (
	AbsencePending  = "PENDING"
	AbsenceApproved = "APPROVED"
	AbsenceRejected = "REJECTED"
)

// AbsenceRequest is a participant's advance request to be excused from a
// session.  One request per (session, participant) pair; requests cannot
// be filed for sessions whose start has already passed.
//
// Fields:
//  ID            – primary key identifier.
//  SessionID     – session the absence applies to.
//  ParticipantID – requesting participant.
//  Reason        – reason supplied by the participant.
//  Status        – PENDING, APPROVED or REJECTED.
//  ReviewerID    – user who decided the request (nullable while pending).
//  ReviewedAt    – decision timestamp (nullable while pending).
//  ReviewNote    – optional note from the reviewer.
//  CreatedAt     – submission timestamp.
type AbsenceRequest struct {
	ID            uint64     // absence_requests.id
	SessionID     uint64     // absence_requests.session_id
	ParticipantID uint64     // absence_requests.participant_id
	Reason        string     // absence_requests.reason
	Status        string     // absence_requests.status
	ReviewerID    *uint64    // absence_requests.reviewer_id (nullable)
	ReviewedAt    *time.Time // absence_requests.reviewed_at (nullable)
	ReviewNote    *string    // absence_requests.review_note (nullable)
	CreatedAt     time.Time  // absence_requests.created_at
}
