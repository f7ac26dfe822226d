package service

import (
	"context"
	"testing"
	"time"

	"github.com/openclub/attendance/internal/model"
)

func TestAttendanceRate(t *testing.T) {
	cases := []struct {
		name     string
		attended int
		counted  int
		want     float64
	}{
		{"perfect", 10, 10, 100.0},
		{"none attended", 0, 10, 0.0},
		{"two thirds", 2, 3, 66.7},
		{"eight of nine", 8, 9, 88.9},
		{"one of seven", 1, 7, 14.3},
		{"exact decimal", 5, 8, 62.5},
		{"zero denominator", 0, 0, 0.0},
		{"negative denominator", 3, -1, 0.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AttendanceRate(tc.attended, tc.counted); got != tc.want {
				t.Fatalf("AttendanceRate(%d, %d) = %v, want %v", tc.attended, tc.counted, got, tc.want)
			}
		})
	}
}

type statsFixture struct {
	store  *memStore
	svc    *StatsService
	cache  *memCache
	prog   model.Program
	member model.Participant
	held   []model.Session
}

// newStatsFixture seeds a program with ten held sessions and one future
// session; the clock sits one hour after the tenth session.
func newStatsFixture(t *testing.T) *statsFixture {
	t.Helper()
	m := newMemStore()
	prog := m.addProgram(model.Program{Name: "evening club"})
	member := m.addParticipant(model.Participant{ProgramID: prog.ID, UserID: 200, Role: model.ParticipantRoleMember})

	var held []model.Session
	for i := 0; i < 10; i++ {
		held = append(held, m.addSession(model.Session{
			ProgramID: prog.ID,
			Ordinal:   uint32(i + 1),
			StartsAt:  base.Add(time.Duration(i) * 7 * 24 * time.Hour),
		}))
	}
	now := held[9].StartsAt.Add(time.Hour)
	// An upcoming session must not count toward anything.
	m.addSession(model.Session{ProgramID: prog.ID, Ordinal: 11, StartsAt: now.Add(7 * 24 * time.Hour)})

	cache := newMemCache()
	svc := NewStatsService(m.stores(), cache)
	svc.now = fixedClock(now)
	return &statsFixture{store: m, svc: svc, cache: cache, prog: prog, member: member, held: held}
}

// seedRecords writes 6 PRESENT, 2 LATE, 1 ABSENT and 1 EXCUSED across
// the ten held sessions.
func (f *statsFixture) seedRecords() {
	for i, sess := range f.held {
		rec := model.AttendanceRecord{
			SessionID:     sess.ID,
			ParticipantID: f.member.ID,
			Method:        model.MethodQR,
		}
		switch {
		case i < 6:
			rec.Status = model.AttendancePresent
			at := sess.StartsAt.Add(2 * time.Minute)
			rec.CheckedAt = &at
		case i < 8:
			rec.Status = model.AttendanceLate
			at := sess.StartsAt.Add(25 * time.Minute)
			rec.CheckedAt = &at
		case i < 9:
			rec.Status = model.AttendanceAbsent
			rec.Method = model.MethodManual
		default:
			rec.Status = model.AttendanceExcused
			rec.Method = model.MethodManual
		}
		f.store.setRecord(rec)
	}
}

func TestRateExcludesExcusedFromBothSides(t *testing.T) {
	f := newStatsFixture(t)
	f.seedRecords()

	stats, err := f.svc.RateFor(context.Background(), f.prog.ID, f.member.UserID)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if stats.Present != 6 || stats.Late != 2 || stats.Absent != 1 || stats.Excused != 1 {
		t.Fatalf("counts = %+v", stats)
	}
	if stats.HeldSessions != 10 {
		t.Fatalf("held = %d, want 10", stats.HeldSessions)
	}
	// (6 + 2) / (10 - 1) = 88.888... -> 88.9
	if stats.Rate != 88.9 {
		t.Fatalf("rate = %v, want 88.9", stats.Rate)
	}
}

func TestRateCountsRecordlessAsAbsent(t *testing.T) {
	f := newStatsFixture(t)
	// Records on only four of the ten held sessions; the other six have
	// no row at all.
	for i := 0; i < 3; i++ {
		at := f.held[i].StartsAt.Add(2 * time.Minute)
		f.store.setRecord(model.AttendanceRecord{
			SessionID:     f.held[i].ID,
			ParticipantID: f.member.ID,
			Status:        model.AttendancePresent,
			Method:        model.MethodQR,
			CheckedAt:     &at,
		})
	}
	f.store.setRecord(model.AttendanceRecord{
		SessionID:     f.held[3].ID,
		ParticipantID: f.member.ID,
		Status:        model.AttendanceExcused,
		Method:        model.MethodManual,
	})

	stats, err := f.svc.RateFor(context.Background(), f.prog.ID, f.member.UserID)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if stats.Present != 3 || stats.Late != 0 || stats.Absent != 6 || stats.Excused != 1 {
		t.Fatalf("counts = %+v", stats)
	}
	if got := stats.Present + stats.Late + stats.Absent + stats.Excused; got != stats.HeldSessions {
		t.Fatalf("counts sum to %d, held = %d", got, stats.HeldSessions)
	}
	// 3 / (10 - 1) = 33.333... -> 33.3
	if stats.Rate != 33.3 {
		t.Fatalf("rate = %v, want 33.3", stats.Rate)
	}
}

func TestRateDeterministic(t *testing.T) {
	f := newStatsFixture(t)
	f.seedRecords()

	first, err := f.svc.RateFor(context.Background(), f.prog.ID, f.member.UserID)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	second, err := f.svc.RateFor(context.Background(), f.prog.ID, f.member.UserID)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if first.Rate != second.Rate || first.Present != second.Present {
		t.Fatalf("recomputation diverged: %+v vs %+v", first, second)
	}
}

func TestRateNoHeldSessions(t *testing.T) {
	m := newMemStore()
	prog := m.addProgram(model.Program{Name: "new program"})
	member := m.addParticipant(model.Participant{ProgramID: prog.ID, UserID: 200, Role: model.ParticipantRoleMember})
	m.addSession(model.Session{ProgramID: prog.ID, Ordinal: 1, StartsAt: base.Add(time.Hour)})

	svc := NewStatsService(m.stores(), nil)
	svc.now = fixedClock(base)

	stats, err := svc.RateFor(context.Background(), prog.ID, member.UserID)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if stats.Rate != 0 || stats.HeldSessions != 0 {
		t.Fatalf("stats = %+v, want zero rate and no held sessions", stats)
	}
}

func TestLastAttendedIsLatestPresent(t *testing.T) {
	f := newStatsFixture(t)
	f.seedRecords()

	stats, err := f.svc.RateFor(context.Background(), f.prog.ID, f.member.UserID)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	want := f.held[5].StartsAt.Add(2 * time.Minute)
	if stats.LastAttended == nil || !stats.LastAttended.Equal(want) {
		t.Fatalf("last attended = %v, want %v", stats.LastAttended, want)
	}
}

func TestSessionAttendanceIncludesRecordless(t *testing.T) {
	f := newStatsFixture(t)
	// Second member never checked in anywhere.
	f.store.addParticipant(model.Participant{ProgramID: f.prog.ID, UserID: 300, Role: model.ParticipantRoleMember})
	sess := f.held[0]
	at := sess.StartsAt.Add(time.Minute)
	f.store.setRecord(model.AttendanceRecord{
		SessionID:     sess.ID,
		ParticipantID: f.member.ID,
		Status:        model.AttendancePresent,
		Method:        model.MethodQR,
		CheckedAt:     &at,
	})

	view, err := f.svc.SessionAttendance(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(view.Entries))
	}
	if view.Present != 1 || view.Absent != 1 {
		t.Fatalf("counts = present %d absent %d, want 1 and 1", view.Present, view.Absent)
	}
	for _, e := range view.Entries {
		if e.UserID == 300 && e.Status != model.AttendanceAbsent {
			t.Fatalf("recordless participant status = %s, want ABSENT", e.Status)
		}
	}
}

func TestSessionAttendanceUsesCache(t *testing.T) {
	f := newStatsFixture(t)
	sess := f.held[0]

	first, err := f.svc.SessionAttendance(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if _, ok := f.cache.GetSession(context.Background(), sess.ID); !ok {
		t.Fatal("expected the view to be cached")
	}

	// A write bypassing the service leaves the cache stale until an
	// invalidation; the cached copy is served as-is.
	at := sess.StartsAt.Add(time.Minute)
	f.store.setRecord(model.AttendanceRecord{
		SessionID:     sess.ID,
		ParticipantID: f.member.ID,
		Status:        model.AttendancePresent,
		Method:        model.MethodQR,
		CheckedAt:     &at,
	})
	cached, err := f.svc.SessionAttendance(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("cached view: %v", err)
	}
	if cached.Present != first.Present {
		t.Fatalf("cached view recomputed: %+v", cached)
	}

	f.cache.InvalidateSession(context.Background(), sess.ID)
	fresh, err := f.svc.SessionAttendance(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("fresh view: %v", err)
	}
	if fresh.Present != 1 {
		t.Fatalf("fresh view present = %d, want 1", fresh.Present)
	}
}
