// Package queue defines message payloads exchanged over the message
// broker and the publisher that delivers them.  Consumers live in the
// external notification module; the engine only publishes.
package queue

// CheckInRecorded is published after every successful check-in or manual
// correction.  It carries enough information for downstream consumers to
// notify or log without querying the primary database.
type CheckInRecorded struct {
	EventID       string `json:"event_id"`
	ProgramID     uint64 `json:"program_id"`
	SessionID     uint64 `json:"session_id"`
	ParticipantID uint64 `json:"participant_id"`
	UserID        uint64 `json:"user_id"`
	Status        string `json:"status"`
	Method        string `json:"method"`
	CheckedAt     string `json:"checked_at,omitempty"`
}

// DepositSettled is published once per successful settlement.
type DepositSettled struct {
	EventID       string  `json:"event_id"`
	ProgramID     uint64  `json:"program_id"`
	ParticipantID uint64  `json:"participant_id"`
	UserID        uint64  `json:"user_id"`
	Status        string  `json:"status"`
	ReturnCents   uint32  `json:"return_cents"`
	ForfeitCents  uint32  `json:"forfeit_cents"`
	FinalRate     float64 `json:"final_rate"`
	SettledAt     string  `json:"settled_at"`
}
