package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/openclub/attendance/internal/metrics"
	"github.com/openclub/attendance/internal/model"
	"github.com/openclub/attendance/internal/queue"
	"github.com/openclub/attendance/internal/repository"
)

// SettlementService converts a live attendance rate into a one-time
// financial outcome for a paid deposit.  Settlement freezes the rate
// into the deposit row; attendance recorded afterwards never changes a
// settled amount.
type SettlementService struct {
	participants ParticipantStore
	deposits     DepositStore
	stats        *StatsService
	authz        *Authorizer
	events       Events
	now          Clock
}

// NewSettlementService builds a SettlementService.  events may be nil.
func NewSettlementService(stores Stores, stats *StatsService, authz *Authorizer, events Events) *SettlementService {
	return &SettlementService{
		participants: stores.Participants,
		deposits:     stores.Deposits,
		stats:        stats,
		authz:        authz,
		events:       events,
		now:          utcNow,
	}
}

// ApplySettlementPolicy computes the return/forfeit split for a frozen
// attendance rate.  The minimum-rate threshold is inclusive: hitting it
// exactly earns the full deposit back.  Below it, the partial tier (when
// enabled) returns half the deposit, anything lower returns nothing.
// The withheld remainder is forfeited, or carried to a future program
// when the policy says so.  The two amounts always sum to the deposit.
func ApplySettlementPolicy(p *model.DepositPolicy, rate float64) (returnCents, forfeitCents uint32, status string) {
	switch {
	case rate >= p.MinimumRate:
		return p.AmountCents, 0, model.DepositReturned
	case p.PartialRate > 0 && rate >= p.PartialRate:
		returnCents = p.AmountCents / 2
	default:
		returnCents = 0
	}
	forfeitCents = p.AmountCents - returnCents
	status = model.DepositForfeited
	if p.CarryForward {
		status = model.DepositCarried
	}
	return returnCents, forfeitCents, status
}

// MarkPaid records payment of an UNPAID deposit.  Money movement is
// handled outside the engine; this only flips the state.  Requires the
// manage capability.
func (s *SettlementService) MarkPaid(ctx context.Context, programID, userID uint64, actor model.Actor) error {
	if err := s.authz.RequireManage(ctx, actor, programID); err != nil {
		return err
	}
	part, err := s.participants.GetByProgramAndUser(ctx, programID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotParticipant
		}
		return err
	}
	if err := s.deposits.MarkPaid(ctx, programID, part.ID, s.now()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrDepositNotUnpaid
		}
		return err
	}
	return nil
}

// Settle freezes the participant's live attendance rate and applies the
// program's deposit policy.  Only a PAID deposit may settle; a settled
// one is rejected with ErrAlreadySettled rather than recomputed.
func (s *SettlementService) Settle(ctx context.Context, programID, userID uint64, actor model.Actor) (*model.DepositState, error) {
	if err := s.authz.RequireManage(ctx, actor, programID); err != nil {
		return nil, err
	}
	part, err := s.participants.GetByProgramAndUser(ctx, programID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, err
	}
	return s.settleParticipant(ctx, programID, part)
}

// settleParticipant is the authorization-free settlement core shared by
// Settle and SettleAll.
func (s *SettlementService) settleParticipant(ctx context.Context, programID uint64, part *model.Participant) (*model.DepositState, error) {
	state, err := s.deposits.GetState(ctx, programID, part.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDepositNotPaid
		}
		return nil, err
	}
	if state.Settled() {
		return nil, ErrAlreadySettled
	}
	if state.Status != model.DepositPaid {
		return nil, ErrDepositNotPaid
	}
	policy, err := s.deposits.GetPolicy(ctx, programID)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats.rateForParticipant(ctx, programID, part)
	if err != nil {
		return nil, err
	}

	returnCents, forfeitCents, status := ApplySettlementPolicy(policy, stats.Rate)
	now := s.now()
	rate := stats.Rate
	state.Status = status
	state.ReturnCents = &returnCents
	state.ForfeitCents = &forfeitCents
	state.FinalRate = &rate
	state.SettledAt = &now
	if err := s.deposits.Settle(ctx, state); err != nil {
		// A concurrent settlement won the conditional update; the frozen
		// snapshot belongs to the winner.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadySettled
		}
		return nil, err
	}

	if s.events != nil {
		s.events.DepositSettled(ctx, queue.DepositSettled{
			ProgramID:     programID,
			ParticipantID: part.ID,
			UserID:        part.UserID,
			Status:        status,
			ReturnCents:   returnCents,
			ForfeitCents:  forfeitCents,
			FinalRate:     rate,
			SettledAt:     now.Format(time.RFC3339),
		})
	}
	metrics.Settlements.WithLabelValues(status).Inc()
	return state, nil
}

// SettlementResult is one participant's line in a batch settlement
// report.
type SettlementResult struct {
	ParticipantID uint64  `json:"participant_id"`
	UserID        uint64  `json:"user_id"`
	Status        string  `json:"status,omitempty"`
	ReturnCents   uint32  `json:"return_cents"`
	ForfeitCents  uint32  `json:"forfeit_cents"`
	FinalRate     float64 `json:"final_rate"`
	Error         string  `json:"error,omitempty"`
}

// SettlementReport summarizes a batch settlement run.
type SettlementReport struct {
	ReportID  string             `json:"report_id"`
	ProgramID uint64             `json:"program_id"`
	Settled   int                `json:"settled"`
	Failed    int                `json:"failed"`
	Results   []SettlementResult `json:"results"`
}

// SettleAll settles every PAID deposit of the program, continuing past
// individual failures and reporting the outcome per participant.  One
// bad row never blocks the rest of the program.
func (s *SettlementService) SettleAll(ctx context.Context, programID uint64, actor model.Actor) (*SettlementReport, error) {
	if err := s.authz.RequireManage(ctx, actor, programID); err != nil {
		return nil, err
	}
	states, err := s.deposits.ListByStatus(ctx, programID, model.DepositPaid)
	if err != nil {
		return nil, err
	}

	report := &SettlementReport{
		ReportID:  uuid.NewString(),
		ProgramID: programID,
		Results:   make([]SettlementResult, 0, len(states)),
	}
	for _, state := range states {
		result := SettlementResult{ParticipantID: state.ParticipantID}
		part, err := s.participants.Get(ctx, state.ParticipantID)
		if err == nil {
			result.UserID = part.UserID
			var settled *model.DepositState
			settled, err = s.settleParticipant(ctx, programID, part)
			if err == nil {
				result.Status = settled.Status
				result.ReturnCents = *settled.ReturnCents
				result.ForfeitCents = *settled.ForfeitCents
				result.FinalRate = *settled.FinalRate
			}
		}
		if err != nil {
			result.Error = err.Error()
			report.Failed++
		} else {
			report.Settled++
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}
