package model

import "time"

// Attendance statuses.  EXCUSED is only ever produced by an approved
// absence request.
const (
	AttendancePresent = "PRESENT"
	AttendanceLate    = "LATE"
	AttendanceAbsent  = "ABSENT"
	AttendanceExcused = "EXCUSED"
)

// Check-in methods.
const (
	MethodQR     = "QR"
	MethodManual = "MANUAL"
)

// AttendanceRecord stores one participant's attendance for one session.
// The (session_id, participant_id) pair is unique – repeated check-ins
// upsert the same row, never create a second one.
//
// Fields:
//  ID            – primary key identifier.
//  SessionID     – session the record belongs to.
//  ParticipantID – participant the record belongs to.
//  Status        – PRESENT, LATE, ABSENT or EXCUSED.
//  CheckedAt     – when the participant checked in; nil for ABSENT and
//                  EXCUSED rows.
//  Method        – QR or MANUAL.
//  Note          – optional free-text note (manual corrections, reviews).
//  TokenID       – token used for a QR check-in, kept for auditability.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type AttendanceRecord struct {
	ID            uint64     // attendance_records.id
	SessionID     uint64     // attendance_records.session_id
	ParticipantID uint64     // attendance_records.participant_id
	Status        string     // attendance_records.status
	CheckedAt     *time.Time // attendance_records.checked_at (nullable)
	Method        string     // attendance_records.method
	Note          *string    // attendance_records.note (nullable)
	TokenID       *uint64    // attendance_records.token_id (nullable)
	CreatedAt     time.Time  // attendance_records.created_at
	UpdatedAt     time.Time  // attendance_records.updated_at
}

// Attended reports whether the record counts toward the attendance rate
// numerator.
func (r AttendanceRecord) Attended() bool {
	return r.Status == AttendancePresent || r.Status == AttendanceLate
}
