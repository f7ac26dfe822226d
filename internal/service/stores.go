package service

import (
	"context"
	"time"

	"github.com/openclub/attendance/internal/model"
	"github.com/openclub/attendance/internal/queue"
)

// Clock supplies the current instant.  Services default to UTC wall
// time; tests inject a fixed clock.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// The store interfaces below are the persistence surface the engine
// needs.  internal/repository implements them against MySQL; tests
// implement them in memory.

// ProgramStore reads program rows (per-program grace window and token TTL).
type ProgramStore interface {
	Get(ctx context.Context, id uint64) (*model.Program, error)
}

// SessionStore reads session rows.
type SessionStore interface {
	Get(ctx context.Context, id uint64) (*model.Session, error)
	ListHeld(ctx context.Context, programID uint64, now time.Time) ([]model.Session, error)
}

// ParticipantStore reads program membership.
type ParticipantStore interface {
	Get(ctx context.Context, id uint64) (*model.Participant, error)
	GetByProgramAndUser(ctx context.Context, programID, userID uint64) (*model.Participant, error)
	ListByProgram(ctx context.Context, programID uint64) ([]model.Participant, error)
}

// TokenStore persists check-in tokens.  Rotate must apply deactivation
// and insertion as one atomic unit.
type TokenStore interface {
	Rotate(ctx context.Context, sessionID uint64, tokenHash string, validFrom, validUntil time.Time) (*model.CheckInToken, error)
	GetByHash(ctx context.Context, tokenHash string) (*model.CheckInToken, error)
}

// AttendanceStore persists attendance records keyed by the unique
// (session, participant) pair.
type AttendanceStore interface {
	Get(ctx context.Context, sessionID, participantID uint64) (*model.AttendanceRecord, error)
	Upsert(ctx context.Context, rec *model.AttendanceRecord) error
	ListBySession(ctx context.Context, sessionID uint64) ([]model.AttendanceRecord, error)
	ListByParticipant(ctx context.Context, participantID uint64) ([]model.AttendanceRecord, error)
}

// AbsenceStore persists absence requests.
type AbsenceStore interface {
	Create(ctx context.Context, req *model.AbsenceRequest) error
	Get(ctx context.Context, id uint64) (*model.AbsenceRequest, error)
	GetBySessionAndParticipant(ctx context.Context, sessionID, participantID uint64) (*model.AbsenceRequest, error)
	Decide(ctx context.Context, id uint64, status string, reviewerID uint64, reviewedAt time.Time, note *string) error
	DeletePending(ctx context.Context, id uint64) error
}

// DepositStore persists deposit policies and state.
type DepositStore interface {
	GetPolicy(ctx context.Context, programID uint64) (*model.DepositPolicy, error)
	GetState(ctx context.Context, programID, participantID uint64) (*model.DepositState, error)
	ListByStatus(ctx context.Context, programID uint64, status string) ([]model.DepositState, error)
	MarkPaid(ctx context.Context, programID, participantID uint64, paidAt time.Time) error
	Settle(ctx context.Context, d *model.DepositState) error
}

// Stores bundles every store a service may need so wiring stays in one
// place.
type Stores struct {
	Programs     ProgramStore
	Sessions     SessionStore
	Participants ParticipantStore
	Tokens       TokenStore
	Attendance   AttendanceStore
	Absences     AbsenceStore
	Deposits     DepositStore
}

// ViewCache caches rendered session attendance views.  Implementations
// must be safe to call with a missing backend (cache misses); the cache
// is never authoritative.
type ViewCache interface {
	GetSession(ctx context.Context, sessionID uint64) ([]byte, bool)
	SetSession(ctx context.Context, sessionID uint64, payload []byte)
	InvalidateSession(ctx context.Context, sessionID uint64)
}

// Events publishes domain events for the external notification module.
// Publishing is fire-and-forget: failures are logged by the publisher
// and never fail the originating request.
type Events interface {
	CheckInRecorded(ctx context.Context, evt queue.CheckInRecorded)
	DepositSettled(ctx context.Context, evt queue.DepositSettled)
}
