package model

import "time"

// Deposit states.  A deposit only moves forward: UNPAID -> PAID ->
// one of RETURNED, FORFEITED or CARRIED.  Settlement is terminal.
const (
	DepositNone      = "NONE"
	DepositUnpaid    = "UNPAID"
	DepositPaid      = "PAID"
	DepositReturned  = "RETURNED"
	DepositForfeited = "FORFEITED"
	DepositCarried   = "CARRIED"
)

// DepositPolicy holds a program's deposit rule.  The full deposit is
// returned when the final attendance rate reaches MinimumRate
// (inclusive).  Below that, a rate of at least PartialRate earns back
// half the deposit; anything lower earns nothing.  When CarryForward is
// set the withheld portion is carried to a future program instead of
// being forfeited.
//
// Fields:
//  ID          – primary key identifier.
//  ProgramID   – program the policy applies to (unique).
//  AmountCents – deposit amount in cents.
//  MinimumRate – attendance rate (percent) required for full return.
//  PartialRate – rate threshold for the half-return tier; 0 disables it.
//  CarryForward – carry the withheld amount instead of forfeiting.
type DepositPolicy struct {
	ID           uint64  // deposit_policies.id
	ProgramID    uint64  // deposit_policies.program_id
	AmountCents  uint32  // deposit_policies.amount_cents
	MinimumRate  float64 // deposit_policies.minimum_rate
	PartialRate  float64 // deposit_policies.partial_rate
	CarryForward bool    // deposit_policies.carry_forward
}

// DepositState tracks one participant's deposit for one program.  The
// (program_id, participant_id) pair is unique.  FinalRate is a frozen
// snapshot taken at settlement time; attendance recorded afterwards
// never changes a settled outcome.  ReturnCents + ForfeitCents always
// equals the policy amount once both are set.
//
// Fields:
//  ID            – primary key identifier.
//  ProgramID     – program the deposit belongs to.
//  ParticipantID – participant who owes or paid the deposit.
//  Status        – UNPAID, PAID, RETURNED, FORFEITED or CARRIED.
//  PaidAt        – when payment was recorded (nullable).
//  ReturnCents   – settled return amount (nullable until settled).
//  ForfeitCents  – settled forfeit amount (nullable until settled).
//  FinalRate     – frozen attendance rate at settlement (nullable).
//  SettledAt     – settlement timestamp (nullable).
type DepositState struct {
	ID            uint64     // deposit_states.id
	ProgramID     uint64     // deposit_states.program_id
	ParticipantID uint64     // deposit_states.participant_id
	Status        string     // deposit_states.status
	PaidAt        *time.Time // deposit_states.paid_at (nullable)
	ReturnCents   *uint32    // deposit_states.return_cents (nullable)
	ForfeitCents  *uint32    // deposit_states.forfeit_cents (nullable)
	FinalRate     *float64   // deposit_states.final_rate (nullable)
	SettledAt     *time.Time // deposit_states.settled_at (nullable)
}

// Settled reports whether the deposit has reached a terminal state.
func (d DepositState) Settled() bool {
	switch d.Status {
	case DepositReturned, DepositForfeited, DepositCarried:
		return true
	}
	return false
}
