package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openclub/attendance/internal/model"
	"github.com/openclub/attendance/internal/queue"
	"github.com/openclub/attendance/internal/repository"
)

// memStore is the shared in-memory state behind the fake stores.  The
// per-interface wrappers below mirror the conditional-update semantics
// of the MySQL repositories.
type memStore struct {
	mu           sync.Mutex
	programs     map[uint64]model.Program
	sessions     map[uint64]model.Session
	participants map[uint64]model.Participant
	tokens       []model.CheckInToken
	records      map[[2]uint64]model.AttendanceRecord
	absences     map[uint64]model.AbsenceRequest
	policies     map[uint64]model.DepositPolicy
	deposits     map[[2]uint64]model.DepositState
	nextID       uint64
}

func newMemStore() *memStore {
	return &memStore{
		programs:     map[uint64]model.Program{},
		sessions:     map[uint64]model.Session{},
		participants: map[uint64]model.Participant{},
		records:      map[[2]uint64]model.AttendanceRecord{},
		absences:     map[uint64]model.AbsenceRequest{},
		policies:     map[uint64]model.DepositPolicy{},
		deposits:     map[[2]uint64]model.DepositState{},
	}
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) stores() Stores {
	return Stores{
		Programs:     fakePrograms{m},
		Sessions:     fakeSessions{m},
		Participants: fakeParticipants{m},
		Tokens:       fakeTokens{m},
		Attendance:   fakeAttendance{m},
		Absences:     fakeAbsences{m},
		Deposits:     fakeDeposits{m},
	}
}

func (m *memStore) addProgram(p model.Program) model.Program {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.id()
	}
	m.programs[p.ID] = p
	return p
}

func (m *memStore) addSession(s model.Session) model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.id()
	}
	m.sessions[s.ID] = s
	return s
}

func (m *memStore) addParticipant(p model.Participant) model.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.id()
	}
	m.participants[p.ID] = p
	return p
}

func (m *memStore) setPolicy(p model.DepositPolicy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[p.ProgramID] = p
}

func (m *memStore) setDeposit(d model.DepositState) model.DepositState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == 0 {
		d.ID = m.id()
	}
	m.deposits[[2]uint64{d.ProgramID, d.ParticipantID}] = d
	return d
}

func (m *memStore) setRecord(r model.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == 0 {
		r.ID = m.id()
	}
	m.records[[2]uint64{r.SessionID, r.ParticipantID}] = r
}

func (m *memStore) deposit(programID, participantID uint64) model.DepositState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deposits[[2]uint64{programID, participantID}]
}

func (m *memStore) record(sessionID, participantID uint64) (model.AttendanceRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[[2]uint64{sessionID, participantID}]
	return r, ok
}

type fakePrograms struct{ m *memStore }

func (f fakePrograms) Get(ctx context.Context, id uint64) (*model.Program, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	p, ok := f.m.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

type fakeSessions struct{ m *memStore }

func (f fakeSessions) Get(ctx context.Context, id uint64) (*model.Session, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	s, ok := f.m.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f fakeSessions) ListHeld(ctx context.Context, programID uint64, now time.Time) ([]model.Session, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []model.Session
	for _, s := range f.m.sessions {
		if s.ProgramID == programID && s.Held(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeParticipants struct{ m *memStore }

func (f fakeParticipants) Get(ctx context.Context, id uint64) (*model.Participant, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	p, ok := f.m.participants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f fakeParticipants) GetByProgramAndUser(ctx context.Context, programID, userID uint64) (*model.Participant, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, p := range f.m.participants {
		if p.ProgramID == programID && p.UserID == userID {
			part := p
			return &part, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeParticipants) ListByProgram(ctx context.Context, programID uint64) ([]model.Participant, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []model.Participant
	for _, p := range f.m.participants {
		if p.ProgramID == programID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeTokens struct{ m *memStore }

func (f fakeTokens) Rotate(ctx context.Context, sessionID uint64, tokenHash string, validFrom, validUntil time.Time) (*model.CheckInToken, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for i := range f.m.tokens {
		if f.m.tokens[i].SessionID == sessionID {
			f.m.tokens[i].IsActive = false
		}
	}
	tok := model.CheckInToken{
		ID:         f.m.id(),
		SessionID:  sessionID,
		TokenHash:  tokenHash,
		ValidFrom:  validFrom,
		ValidUntil: validUntil,
		IsActive:   true,
		CreatedAt:  validFrom,
	}
	f.m.tokens = append(f.m.tokens, tok)
	return &tok, nil
}

func (f fakeTokens) GetByHash(ctx context.Context, tokenHash string) (*model.CheckInToken, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, tok := range f.m.tokens {
		if tok.TokenHash == tokenHash {
			t := tok
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeAttendance struct{ m *memStore }

func (f fakeAttendance) Get(ctx context.Context, sessionID, participantID uint64) (*model.AttendanceRecord, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	r, ok := f.m.records[[2]uint64{sessionID, participantID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (f fakeAttendance) Upsert(ctx context.Context, rec *model.AttendanceRecord) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	key := [2]uint64{rec.SessionID, rec.ParticipantID}
	if existing, ok := f.m.records[key]; ok {
		rec.ID = existing.ID
	} else {
		rec.ID = f.m.id()
	}
	f.m.records[key] = *rec
	return nil
}

func (f fakeAttendance) ListBySession(ctx context.Context, sessionID uint64) ([]model.AttendanceRecord, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []model.AttendanceRecord
	for _, r := range f.m.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f fakeAttendance) ListByParticipant(ctx context.Context, participantID uint64) ([]model.AttendanceRecord, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []model.AttendanceRecord
	for _, r := range f.m.records {
		if r.ParticipantID == participantID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAbsences struct{ m *memStore }

func (f fakeAbsences) Create(ctx context.Context, req *model.AbsenceRequest) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	req.ID = f.m.id()
	req.Status = model.AbsencePending
	f.m.absences[req.ID] = *req
	return nil
}

func (f fakeAbsences) Get(ctx context.Context, id uint64) (*model.AbsenceRequest, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	r, ok := f.m.absences[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (f fakeAbsences) GetBySessionAndParticipant(ctx context.Context, sessionID, participantID uint64) (*model.AbsenceRequest, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, r := range f.m.absences {
		if r.SessionID == sessionID && r.ParticipantID == participantID {
			req := r
			return &req, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeAbsences) Decide(ctx context.Context, id uint64, status string, reviewerID uint64, reviewedAt time.Time, note *string) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	r, ok := f.m.absences[id]
	if !ok || r.Status != model.AbsencePending {
		return repository.ErrConflict
	}
	r.Status = status
	r.ReviewerID = &reviewerID
	r.ReviewedAt = &reviewedAt
	r.ReviewNote = note
	f.m.absences[id] = r
	return nil
}

func (f fakeAbsences) DeletePending(ctx context.Context, id uint64) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	r, ok := f.m.absences[id]
	if !ok || r.Status != model.AbsencePending {
		return repository.ErrConflict
	}
	delete(f.m.absences, id)
	return nil
}

type fakeDeposits struct{ m *memStore }

func (f fakeDeposits) GetPolicy(ctx context.Context, programID uint64) (*model.DepositPolicy, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	p, ok := f.m.policies[programID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f fakeDeposits) GetState(ctx context.Context, programID, participantID uint64) (*model.DepositState, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	d, ok := f.m.deposits[[2]uint64{programID, participantID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (f fakeDeposits) ListByStatus(ctx context.Context, programID uint64, status string) ([]model.DepositState, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []model.DepositState
	for _, d := range f.m.deposits {
		if d.ProgramID == programID && d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f fakeDeposits) MarkPaid(ctx context.Context, programID, participantID uint64, paidAt time.Time) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	key := [2]uint64{programID, participantID}
	d, ok := f.m.deposits[key]
	// A missing row fails the conditional update the same way a wrong
	// status does: zero rows matched.
	if !ok || d.Status != model.DepositUnpaid {
		return repository.ErrConflict
	}
	d.Status = model.DepositPaid
	d.PaidAt = &paidAt
	f.m.deposits[key] = d
	return nil
}

func (f fakeDeposits) Settle(ctx context.Context, st *model.DepositState) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	key := [2]uint64{st.ProgramID, st.ParticipantID}
	d, ok := f.m.deposits[key]
	if !ok {
		return repository.ErrNotFound
	}
	if d.Status != model.DepositPaid {
		return repository.ErrConflict
	}
	f.m.deposits[key] = *st
	return nil
}

// memCache records view cache traffic.
type memCache struct {
	mu            sync.Mutex
	views         map[uint64][]byte
	invalidations int
}

func newMemCache() *memCache { return &memCache{views: map[uint64][]byte{}} }

func (c *memCache) GetSession(ctx context.Context, sessionID uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.views[sessionID]
	return payload, ok
}

func (c *memCache) SetSession(ctx context.Context, sessionID uint64, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[sessionID] = payload
}

func (c *memCache) InvalidateSession(ctx context.Context, sessionID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, sessionID)
	c.invalidations++
}

// eventLog records published events.
type eventLog struct {
	mu       sync.Mutex
	checkins []queue.CheckInRecorded
	settled  []queue.DepositSettled
}

func (l *eventLog) CheckInRecorded(ctx context.Context, evt queue.CheckInRecorded) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.checkins = append(l.checkins, evt)
}

func (l *eventLog) DepositSettled(ctx context.Context, evt queue.DepositSettled) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settled = append(l.settled, evt)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// sequenceTokens returns a deterministic token generator.
func sequenceTokens() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("token-%04d", n), nil
	}
}
