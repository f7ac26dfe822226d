package service

import (
	"context"
	"errors"

	"github.com/openclub/attendance/internal/model"
	"github.com/openclub/attendance/internal/repository"
)

// AbsenceService runs the excused-absence workflow: a participant files
// a request before the session, an organizer approves or rejects it, and
// an approval upserts the attendance record to EXCUSED.  Approval is the
// only path that produces EXCUSED.
type AbsenceService struct {
	sessions     SessionStore
	participants ParticipantStore
	absences     AbsenceStore
	attendance   AttendanceStore
	authz        *Authorizer
	cache        ViewCache
	now          Clock
}

// NewAbsenceService builds an AbsenceService.  cache may be nil.
func NewAbsenceService(stores Stores, authz *Authorizer, cache ViewCache) *AbsenceService {
	return &AbsenceService{
		sessions:     stores.Sessions,
		participants: stores.Participants,
		absences:     stores.Absences,
		attendance:   stores.Attendance,
		authz:        authz,
		cache:        cache,
		now:          utcNow,
	}
}

// Submit files a PENDING request for a future session.  Sessions whose
// scheduled start has passed and pairs that already have a request are
// rejected.
func (s *AbsenceService) Submit(ctx context.Context, sessionID, userID uint64, reason string) (*model.AbsenceRequest, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if sess.Held(s.now()) {
		return nil, ErrSessionAlreadyPast
	}
	part, err := s.participants.GetByProgramAndUser(ctx, sess.ProgramID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, err
	}
	if _, err := s.absences.GetBySessionAndParticipant(ctx, sess.ID, part.ID); err == nil {
		return nil, ErrDuplicateAbsenceRequest
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	req := &model.AbsenceRequest{
		SessionID:     sess.ID,
		ParticipantID: part.ID,
		Reason:        reason,
	}
	if err := s.absences.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Approve moves a PENDING request to APPROVED and upserts the pair's
// attendance record to EXCUSED, creating it when absent.  Requires the
// manage capability on the session's program.
func (s *AbsenceService) Approve(ctx context.Context, requestID uint64, actor model.Actor, note *string) (*model.AbsenceRequest, error) {
	req, sess, err := s.pending(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.absences.Decide(ctx, req.ID, model.AbsenceApproved, actor.UserID, now, note); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRequestNotPending
		}
		return nil, err
	}
	rec := &model.AttendanceRecord{
		SessionID:     req.SessionID,
		ParticipantID: req.ParticipantID,
		Status:        model.AttendanceExcused,
		Method:        model.MethodManual,
		Note:          note,
	}
	if err := s.attendance.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateSession(ctx, sess.ID)
	}
	req.Status = model.AbsenceApproved
	req.ReviewerID = &actor.UserID
	req.ReviewedAt = &now
	req.ReviewNote = note
	return req, nil
}

// Reject moves a PENDING request to REJECTED.  The attendance record is
// left untouched.
func (s *AbsenceService) Reject(ctx context.Context, requestID uint64, actor model.Actor, reason *string) (*model.AbsenceRequest, error) {
	req, _, err := s.pending(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.absences.Decide(ctx, req.ID, model.AbsenceRejected, actor.UserID, now, reason); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRequestNotPending
		}
		return nil, err
	}
	req.Status = model.AbsenceRejected
	req.ReviewerID = &actor.UserID
	req.ReviewedAt = &now
	req.ReviewNote = reason
	return req, nil
}

// Cancel deletes a PENDING request.  Only the owning participant may
// cancel.
func (s *AbsenceService) Cancel(ctx context.Context, requestID, ownerUserID uint64) error {
	req, err := s.absences.Get(ctx, requestID)
	if err != nil {
		return err
	}
	part, err := s.participants.Get(ctx, req.ParticipantID)
	if err != nil {
		return err
	}
	if part.UserID != ownerUserID {
		return ErrForbidden
	}
	if req.Status != model.AbsencePending {
		return ErrRequestNotPending
	}
	if err := s.absences.DeletePending(ctx, req.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrRequestNotPending
		}
		return err
	}
	return nil
}

// pending loads a request, verifies it is still PENDING and that the
// actor manages the session's program.
func (s *AbsenceService) pending(ctx context.Context, requestID uint64, actor model.Actor) (*model.AbsenceRequest, *model.Session, error) {
	req, err := s.absences.Get(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req.Status != model.AbsencePending {
		return nil, nil, ErrRequestNotPending
	}
	sess, err := s.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authz.RequireManage(ctx, actor, sess.ProgramID); err != nil {
		return nil, nil, err
	}
	return req, sess, nil
}
