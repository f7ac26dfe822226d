// Package service implements the attendance and settlement engine behind
// transport-independent contracts.  Handlers are thin adapters over the
// services defined here; every expected failure is one of the sentinel
// errors below so callers can map outcomes without string matching.
package service

import "errors"

// Typed domain outcomes.  These are expected results of user actions,
// not defects – services never log them and handlers translate them to
// short human-readable responses.
var (
	// ErrInvalidToken covers every failed token precondition (unknown,
	// rotated out, not yet valid, expired).  Collapsing them into one
	// opaque error keeps validation from becoming a probing oracle.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrNotParticipant is returned when the user is not enrolled in the
	// session's program.
	ErrNotParticipant = errors.New("not a participant of this program")

	// ErrAlreadyCheckedIn is returned for a repeated QR scan once a
	// non-ABSENT record exists for the pair.
	ErrAlreadyCheckedIn = errors.New("already checked in")

	// ErrSessionNotFound is returned when the referenced session does
	// not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrForbidden is returned when the actor lacks the organizer
	// capability for the program.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidStatus is returned for a manual check-in requesting a
	// status outside PRESENT, LATE, ABSENT.
	ErrInvalidStatus = errors.New("invalid attendance status")

	// ErrDuplicateAbsenceRequest is returned when a request already
	// exists for the (session, participant) pair.
	ErrDuplicateAbsenceRequest = errors.New("absence request already exists")

	// ErrSessionAlreadyPast rejects absence requests for sessions whose
	// scheduled start has passed.
	ErrSessionAlreadyPast = errors.New("session has already started")

	// ErrRequestNotPending rejects approve/reject/cancel on a request
	// that has already been decided or removed.
	ErrRequestNotPending = errors.New("absence request is not pending")

	// ErrDepositNotUnpaid rejects recording payment for a deposit that
	// is not awaiting payment (already paid, settled, or missing).
	ErrDepositNotUnpaid = errors.New("deposit is not awaiting payment")

	// ErrDepositNotPaid rejects settlement of a deposit that is not in
	// PAID state (including participants with no deposit row at all).
	ErrDepositNotPaid = errors.New("deposit is not in paid state")

	// ErrAlreadySettled rejects re-settlement; the frozen snapshot of a
	// settled deposit never changes.
	ErrAlreadySettled = errors.New("deposit already settled")
)
