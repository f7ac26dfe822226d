package service

import (
	"context"
	"errors"
	"time"

	"github.com/openclub/attendance/internal/metrics"
	"github.com/openclub/attendance/internal/model"
	"github.com/openclub/attendance/internal/queue"
	"github.com/openclub/attendance/internal/repository"
)

// CheckInService converts valid tokens and authorized manual actions
// into attendance records.
type CheckInService struct {
	programs     ProgramStore
	sessions     SessionStore
	participants ParticipantStore
	attendance   AttendanceStore
	tokens       *TokenService
	authz        *Authorizer
	cache        ViewCache
	events       Events
	defaultGrace time.Duration
	now          Clock
}

// NewCheckInService builds a CheckInService.  cache and events may be
// nil; both side effects are then skipped.  defaultGrace applies to
// programs without their own grace window.
func NewCheckInService(stores Stores, tokens *TokenService, authz *Authorizer, cache ViewCache, events Events, defaultGrace time.Duration) *CheckInService {
	return &CheckInService{
		programs:     stores.Programs,
		sessions:     stores.Sessions,
		participants: stores.Participants,
		attendance:   stores.Attendance,
		tokens:       tokens,
		authz:        authz,
		cache:        cache,
		events:       events,
		defaultGrace: defaultGrace,
		now:          utcNow,
	}
}

// CheckInViaToken records a self check-in through a scanned token.  The
// record becomes PRESENT when the scan happens within the program's
// grace window after the session start, LATE afterwards.  A repeated
// scan fails with ErrAlreadyCheckedIn unless the existing record is a
// defaulted ABSENT, which a scan may upgrade.
func (s *CheckInService) CheckInViaToken(ctx context.Context, raw string, userID uint64) (*model.AttendanceRecord, error) {
	tok, err := s.tokens.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, tok.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	part, err := s.participants.GetByProgramAndUser(ctx, sess.ProgramID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, err
	}
	existing, err := s.attendance.Get(ctx, sess.ID, part.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status != model.AttendanceAbsent {
		return nil, ErrAlreadyCheckedIn
	}

	grace := s.defaultGrace
	prog, err := s.programs.Get(ctx, sess.ProgramID)
	if err != nil {
		return nil, err
	}
	if prog.GraceMinutes > 0 {
		grace = time.Duration(prog.GraceMinutes) * time.Minute
	}

	now := s.now()
	status := model.AttendanceLate
	if !now.After(sess.StartsAt.Add(grace)) {
		status = model.AttendancePresent
	}
	rec := &model.AttendanceRecord{
		SessionID:     sess.ID,
		ParticipantID: part.ID,
		Status:        status,
		CheckedAt:     &now,
		Method:        model.MethodQR,
		TokenID:       &tok.ID,
	}
	if err := s.attendance.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	s.recorded(ctx, sess, part, rec)
	return rec, nil
}

// ManualCheckIn lets an organizer set a participant's status directly,
// bypassing token validation.  This path is the authority for
// corrections: it overwrites whatever status exists.  checked_at is set
// for PRESENT and LATE and cleared for ABSENT.
func (s *CheckInService) ManualCheckIn(ctx context.Context, sessionID, targetUserID uint64, status string, note *string, actor model.Actor) (*model.AttendanceRecord, error) {
	switch status {
	case model.AttendancePresent, model.AttendanceLate, model.AttendanceAbsent:
	default:
		return nil, ErrInvalidStatus
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if err := s.authz.RequireManage(ctx, actor, sess.ProgramID); err != nil {
		return nil, err
	}
	part, err := s.participants.GetByProgramAndUser(ctx, sess.ProgramID, targetUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, err
	}

	rec := &model.AttendanceRecord{
		SessionID:     sess.ID,
		ParticipantID: part.ID,
		Status:        status,
		Method:        model.MethodManual,
		Note:          note,
	}
	if status != model.AttendanceAbsent {
		now := s.now()
		rec.CheckedAt = &now
	}
	if err := s.attendance.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	s.recorded(ctx, sess, part, rec)
	return rec, nil
}

// recorded applies the shared side effects of a successful write: the
// session's cached view is stale, downstream consumers are notified and
// the counter ticks.
func (s *CheckInService) recorded(ctx context.Context, sess *model.Session, part *model.Participant, rec *model.AttendanceRecord) {
	if s.cache != nil {
		s.cache.InvalidateSession(ctx, sess.ID)
	}
	if s.events != nil {
		evt := queue.CheckInRecorded{
			ProgramID:     sess.ProgramID,
			SessionID:     sess.ID,
			ParticipantID: part.ID,
			UserID:        part.UserID,
			Status:        rec.Status,
			Method:        rec.Method,
		}
		if rec.CheckedAt != nil {
			evt.CheckedAt = rec.CheckedAt.UTC().Format(time.RFC3339)
		}
		s.events.CheckInRecorded(ctx, evt)
	}
	metrics.CheckIns.WithLabelValues(rec.Method, rec.Status).Inc()
}
