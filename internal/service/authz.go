package service

import (
	"context"
	"errors"

	"github.com/openclub/attendance/internal/model"
	"github.com/openclub/attendance/internal/repository"
)

// Authorizer is the single capability check shared by every operation
// that manages a program: token issuance, manual check-in, absence
// review and settlement.  Site admins pass unconditionally; everyone
// else must hold an organizer or facilitator participant row in the
// program.
type Authorizer struct {
	participants ParticipantStore
}

// NewAuthorizer returns an Authorizer backed by the given membership store.
func NewAuthorizer(participants ParticipantStore) *Authorizer {
	return &Authorizer{participants: participants}
}

// RequireManage returns nil when the actor may manage the program and
// ErrForbidden otherwise.  Storage failures pass through unchanged.
func (a *Authorizer) RequireManage(ctx context.Context, actor model.Actor, programID uint64) error {
	if actor.IsAdmin() {
		return nil
	}
	p, err := a.participants.GetByProgramAndUser(ctx, programID, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if !p.Manages() {
		return ErrForbidden
	}
	return nil
}
