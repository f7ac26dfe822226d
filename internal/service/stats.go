package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/openclub/attendance/internal/model"
	"github.com/openclub/attendance/internal/repository"
)

// ParticipantStats aggregates one participant's attendance across a
// program's held sessions.  Excused sessions are excluded from both the
// numerator and the denominator, so an excused absence neither helps nor
// hurts the rate.
type ParticipantStats struct {
	ProgramID     uint64     `json:"program_id"`
	ParticipantID uint64     `json:"participant_id"`
	UserID        uint64     `json:"user_id"`
	Present       int        `json:"present"`
	Late          int        `json:"late"`
	Absent        int        `json:"absent"`
	Excused       int        `json:"excused"`
	HeldSessions  int        `json:"held_sessions"`
	Rate          float64    `json:"rate"`
	LastAttended  *time.Time `json:"last_attended,omitempty"`
}

// RosterEntry is one participant's line in a session attendance view.
// Participants with no record yet appear as ABSENT so organizers see the
// whole membership.
type RosterEntry struct {
	ParticipantID uint64     `json:"participant_id"`
	UserID        uint64     `json:"user_id"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	CheckedAt     *time.Time `json:"checked_at,omitempty"`
	Method        string     `json:"method,omitempty"`
	Note          *string    `json:"note,omitempty"`
}

// SessionAttendanceView is the roster plus aggregate counts for one
// session, the payload behind the polling endpoint.
type SessionAttendanceView struct {
	SessionID   uint64        `json:"session_id"`
	ProgramID   uint64        `json:"program_id"`
	Entries     []RosterEntry `json:"entries"`
	Present     int           `json:"present"`
	Late        int           `json:"late"`
	Absent      int           `json:"absent"`
	Excused     int           `json:"excused"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// StatsService recomputes attendance aggregates from the record set on
// every call.  There is no incremental counter to keep in sync: given
// the same records the result is always identical.
type StatsService struct {
	sessions     SessionStore
	participants ParticipantStore
	attendance   AttendanceStore
	cache        ViewCache
	now          Clock
}

// NewStatsService builds a StatsService.  cache may be nil; views are
// then always recomputed.
func NewStatsService(stores Stores, cache ViewCache) *StatsService {
	return &StatsService{
		sessions:     stores.Sessions,
		participants: stores.Participants,
		attendance:   stores.Attendance,
		cache:        cache,
		now:          utcNow,
	}
}

// AttendanceRate returns the percentage of counted sessions attended,
// rounded to one decimal.  A non-positive denominator yields 0.
func AttendanceRate(attended, counted int) float64 {
	if counted <= 0 {
		return 0
	}
	return math.Round(float64(attended)/float64(counted)*1000) / 10
}

// RateFor computes a participant's live attendance rate and counts for a
// program.
func (s *StatsService) RateFor(ctx context.Context, programID, userID uint64) (*ParticipantStats, error) {
	part, err := s.participants.GetByProgramAndUser(ctx, programID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, err
	}
	return s.rateForParticipant(ctx, programID, part)
}

// rateForParticipant is the shared aggregation core used by RateFor and
// by settlement freezing.
func (s *StatsService) rateForParticipant(ctx context.Context, programID uint64, part *model.Participant) (*ParticipantStats, error) {
	held, err := s.sessions.ListHeld(ctx, programID, s.now())
	if err != nil {
		return nil, err
	}
	heldIDs := make(map[uint64]bool, len(held))
	for _, sess := range held {
		heldIDs[sess.ID] = true
	}
	records, err := s.attendance.ListByParticipant(ctx, part.ID)
	if err != nil {
		return nil, err
	}

	stats := &ParticipantStats{
		ProgramID:     programID,
		ParticipantID: part.ID,
		UserID:        part.UserID,
		HeldSessions:  len(held),
	}
	for _, rec := range records {
		if !heldIDs[rec.SessionID] {
			continue
		}
		switch rec.Status {
		case model.AttendancePresent:
			stats.Present++
			if rec.CheckedAt != nil && (stats.LastAttended == nil || rec.CheckedAt.After(*stats.LastAttended)) {
				t := *rec.CheckedAt
				stats.LastAttended = &t
			}
		case model.AttendanceLate:
			stats.Late++
		case model.AttendanceExcused:
			stats.Excused++
		}
	}
	// Held sessions without any record are absences, exactly as the
	// roster view displays them, so the four counts always sum to the
	// held total.
	stats.Absent = stats.HeldSessions - stats.Present - stats.Late - stats.Excused
	stats.Rate = AttendanceRate(stats.Present+stats.Late, len(held)-stats.Excused)
	return stats, nil
}

// SessionProgram resolves the program a session belongs to.  Callers
// authorize against the program before asking for the roster view.
func (s *StatsService) SessionProgram(ctx context.Context, sessionID uint64) (uint64, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrSessionNotFound
		}
		return 0, err
	}
	return sess.ProgramID, nil
}

// SessionAttendance returns the roster view for a session, serving a
// cached copy when one is fresh.  The cache is advisory only: every
// write invalidates it and a miss recomputes from the records.
func (s *StatsService) SessionAttendance(ctx context.Context, sessionID uint64) (*SessionAttendanceView, error) {
	if s.cache != nil {
		if payload, ok := s.cache.GetSession(ctx, sessionID); ok {
			var view SessionAttendanceView
			if err := json.Unmarshal(payload, &view); err == nil {
				return &view, nil
			}
		}
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	parts, err := s.participants.ListByProgram(ctx, sess.ProgramID)
	if err != nil {
		return nil, err
	}
	records, err := s.attendance.ListBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	byParticipant := make(map[uint64]model.AttendanceRecord, len(records))
	for _, rec := range records {
		byParticipant[rec.ParticipantID] = rec
	}

	view := &SessionAttendanceView{
		SessionID:   sess.ID,
		ProgramID:   sess.ProgramID,
		Entries:     make([]RosterEntry, 0, len(parts)),
		GeneratedAt: s.now(),
	}
	for _, p := range parts {
		entry := RosterEntry{
			ParticipantID: p.ID,
			UserID:        p.UserID,
			Role:          p.Role,
			Status:        model.AttendanceAbsent,
		}
		if rec, ok := byParticipant[p.ID]; ok {
			entry.Status = rec.Status
			entry.CheckedAt = rec.CheckedAt
			entry.Method = rec.Method
			entry.Note = rec.Note
		}
		switch entry.Status {
		case model.AttendancePresent:
			view.Present++
		case model.AttendanceLate:
			view.Late++
		case model.AttendanceExcused:
			view.Excused++
		default:
			view.Absent++
		}
		view.Entries = append(view.Entries, entry)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(view); err == nil {
			s.cache.SetSession(ctx, sessionID, payload)
		}
	}
	return view, nil
}
