package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openclub/attendance/internal/model"
)

type checkinFixture struct {
	store  *memStore
	tokens *TokenService
	svc    *CheckInService
	cache  *memCache
	events *eventLog
	sess   model.Session
	org    model.Actor
	member model.Participant
}

func newCheckinFixture(t *testing.T, graceMinutes int) *checkinFixture {
	t.Helper()
	m := newMemStore()
	prog := m.addProgram(model.Program{Name: "evening club", GraceMinutes: graceMinutes})
	sess := m.addSession(model.Session{ProgramID: prog.ID, Ordinal: 1, StartsAt: base})
	org := m.addParticipant(model.Participant{ProgramID: prog.ID, UserID: 100, Role: model.ParticipantRoleOrganizer})
	member := m.addParticipant(model.Participant{ProgramID: prog.ID, UserID: 200, Role: model.ParticipantRoleMember})

	authz := NewAuthorizer(m.stores().Participants)
	tokens := NewTokenService(m.stores(), authz, 10*time.Minute)
	tokens.now = fixedClock(base)
	tokens.generate = sequenceTokens()

	cache := newMemCache()
	events := &eventLog{}
	svc := NewCheckInService(m.stores(), tokens, authz, cache, events, 10*time.Minute)
	svc.now = fixedClock(base)

	return &checkinFixture{
		store:  m,
		tokens: tokens,
		svc:    svc,
		cache:  cache,
		events: events,
		sess:   sess,
		org:    model.Actor{UserID: org.UserID, Role: org.Role},
		member: member,
	}
}

// at moves both the token and check-in clocks.
func (f *checkinFixture) at(t time.Time) {
	f.tokens.now = fixedClock(t)
	f.svc.now = fixedClock(t)
}

func (f *checkinFixture) issue(t *testing.T) string {
	t.Helper()
	issued, err := f.tokens.Issue(context.Background(), f.sess.ID, f.org)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return issued.Token
}

func TestCheckInWithinGraceIsPresent(t *testing.T) {
	f := newCheckinFixture(t, 10)
	raw := f.issue(t)

	f.at(base.Add(4 * time.Minute))
	rec, err := f.svc.CheckInViaToken(context.Background(), raw, f.member.UserID)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if rec.Status != model.AttendancePresent {
		t.Fatalf("status = %s, want PRESENT", rec.Status)
	}
	if rec.Method != model.MethodQR {
		t.Fatalf("method = %s, want QR", rec.Method)
	}
	if rec.CheckedAt == nil || !rec.CheckedAt.Equal(base.Add(4*time.Minute)) {
		t.Fatalf("checked at = %v", rec.CheckedAt)
	}
	if rec.TokenID == nil {
		t.Fatal("expected token id on QR record")
	}
}

func TestCheckInAfterGraceIsLate(t *testing.T) {
	f := newCheckinFixture(t, 10)

	// Scanning 12 minutes after start with a 10 minute grace window.
	// The displayed token is refreshed continuously, so it is issued at
	// scan time.
	f.at(base.Add(12 * time.Minute))
	raw := f.issue(t)
	rec, err := f.svc.CheckInViaToken(context.Background(), raw, f.member.UserID)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if rec.Status != model.AttendanceLate {
		t.Fatalf("status = %s, want LATE", rec.Status)
	}
}

func TestCheckInGraceBoundaryIsPresent(t *testing.T) {
	f := newCheckinFixture(t, 10)
	raw := f.issue(t)

	f.at(base.Add(10 * time.Minute))
	rec, err := f.svc.CheckInViaToken(context.Background(), raw, f.member.UserID)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if rec.Status != model.AttendancePresent {
		t.Fatalf("status at exact boundary = %s, want PRESENT", rec.Status)
	}
}

func TestCheckInFallsBackToDefaultGrace(t *testing.T) {
	// Program carries no grace window of its own; the service default
	// (10 minutes) applies.
	f := newCheckinFixture(t, 0)

	f.at(base.Add(11 * time.Minute))
	raw := f.issue(t)
	rec, err := f.svc.CheckInViaToken(context.Background(), raw, f.member.UserID)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if rec.Status != model.AttendanceLate {
		t.Fatalf("status = %s, want LATE", rec.Status)
	}
}

func TestCheckInRejectsNonParticipant(t *testing.T) {
	f := newCheckinFixture(t, 10)
	raw := f.issue(t)

	if _, err := f.svc.CheckInViaToken(context.Background(), raw, 555); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("check in = %v, want ErrNotParticipant", err)
	}
}

func TestCheckInTwiceRejected(t *testing.T) {
	f := newCheckinFixture(t, 10)
	raw := f.issue(t)

	if _, err := f.svc.CheckInViaToken(context.Background(), raw, f.member.UserID); err != nil {
		t.Fatalf("first check in: %v", err)
	}
	if _, err := f.svc.CheckInViaToken(context.Background(), raw, f.member.UserID); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("second check in = %v, want ErrAlreadyCheckedIn", err)
	}
}

func TestCheckInUpgradesDefaultedAbsent(t *testing.T) {
	f := newCheckinFixture(t, 10)

	// An organizer marked the participant ABSENT; a later scan may
	// still upgrade it.
	f.store.setRecord(model.AttendanceRecord{
		SessionID:     f.sess.ID,
		ParticipantID: f.member.ID,
		Status:        model.AttendanceAbsent,
		Method:        model.MethodManual,
	})

	f.at(base.Add(20 * time.Minute))
	raw := f.issue(t)
	rec, err := f.svc.CheckInViaToken(context.Background(), raw, f.member.UserID)
	if err != nil {
		t.Fatalf("check in over ABSENT: %v", err)
	}
	if rec.Status != model.AttendanceLate {
		t.Fatalf("status = %s, want LATE", rec.Status)
	}
}

func TestCheckInExpiredToken(t *testing.T) {
	f := newCheckinFixture(t, 10)
	raw := f.issue(t)

	f.at(base.Add(10*time.Minute + time.Second))
	if _, err := f.svc.CheckInViaToken(context.Background(), raw, f.member.UserID); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("check in = %v, want ErrInvalidToken", err)
	}
}

func TestCheckInSideEffects(t *testing.T) {
	f := newCheckinFixture(t, 10)
	raw := f.issue(t)

	f.cache.SetSession(context.Background(), f.sess.ID, []byte("stale"))
	if _, err := f.svc.CheckInViaToken(context.Background(), raw, f.member.UserID); err != nil {
		t.Fatalf("check in: %v", err)
	}
	if _, ok := f.cache.GetSession(context.Background(), f.sess.ID); ok {
		t.Fatal("expected cached view to be invalidated")
	}
	if len(f.events.checkins) != 1 {
		t.Fatalf("events published = %d, want 1", len(f.events.checkins))
	}
	evt := f.events.checkins[0]
	if evt.SessionID != f.sess.ID || evt.UserID != f.member.UserID || evt.Method != model.MethodQR {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestManualCheckInValidStatusesOnly(t *testing.T) {
	f := newCheckinFixture(t, 10)
	for _, status := range []string{"EXCUSED", "PENDING", "present", ""} {
		if _, err := f.svc.ManualCheckIn(context.Background(), f.sess.ID, f.member.UserID, status, nil, f.org); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("status %q = %v, want ErrInvalidStatus", status, err)
		}
	}
}

func TestManualCheckInRequiresManage(t *testing.T) {
	f := newCheckinFixture(t, 10)
	memberActor := model.Actor{UserID: f.member.UserID, Role: f.member.Role}
	if _, err := f.svc.ManualCheckIn(context.Background(), f.sess.ID, f.member.UserID, model.AttendancePresent, nil, memberActor); !errors.Is(err, ErrForbidden) {
		t.Fatalf("manual check in = %v, want ErrForbidden", err)
	}
}

func TestManualCheckInOverridesExisting(t *testing.T) {
	f := newCheckinFixture(t, 10)
	raw := f.issue(t)
	if _, err := f.svc.CheckInViaToken(context.Background(), raw, f.member.UserID); err != nil {
		t.Fatalf("check in: %v", err)
	}

	note := "arrived before the session, corrected on appeal"
	rec, err := f.svc.ManualCheckIn(context.Background(), f.sess.ID, f.member.UserID, model.AttendanceAbsent, &note, f.org)
	if err != nil {
		t.Fatalf("manual override: %v", err)
	}
	if rec.Status != model.AttendanceAbsent {
		t.Fatalf("status = %s, want ABSENT", rec.Status)
	}
	if rec.CheckedAt != nil {
		t.Fatal("ABSENT record should carry no checked_at")
	}
	if rec.Method != model.MethodManual {
		t.Fatalf("method = %s, want MANUAL", rec.Method)
	}
	stored, ok := f.store.record(f.sess.ID, f.member.ID)
	if !ok || stored.Status != model.AttendanceAbsent {
		t.Fatalf("stored record = %+v", stored)
	}
}

func TestManualCheckInAdmin(t *testing.T) {
	// A site admin manages every program without holding a
	// participant row.
	f := newCheckinFixture(t, 10)
	admin := model.Actor{UserID: 1, Role: model.RoleAdmin}
	rec, err := f.svc.ManualCheckIn(context.Background(), f.sess.ID, f.member.UserID, model.AttendanceLate, nil, admin)
	if err != nil {
		t.Fatalf("admin manual check in: %v", err)
	}
	if rec.Status != model.AttendanceLate {
		t.Fatalf("status = %s, want LATE", rec.Status)
	}
}
