package service

import (
	"context"
	"errors"
	"time"

	"github.com/openclub/attendance/internal/metrics"
	"github.com/openclub/attendance/internal/model"
	"github.com/openclub/attendance/internal/repository"
	"github.com/openclub/attendance/internal/utils"
)

// IssuedToken is the result of issuing a check-in token: the raw value
// for QR rendering plus its expiry so clients can schedule a refresh.
type IssuedToken struct {
	Token     string    `json:"token"`
	SessionID uint64    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenService issues and validates check-in tokens.
type TokenService struct {
	programs   ProgramStore
	sessions   SessionStore
	tokens     TokenStore
	authz      *Authorizer
	defaultTTL time.Duration
	now        Clock
	generate   func() (string, error)
}

// NewTokenService builds a TokenService.  defaultTTL applies to
// programs that do not carry their own token lifetime.
func NewTokenService(stores Stores, authz *Authorizer, defaultTTL time.Duration) *TokenService {
	return &TokenService{
		programs:   stores.Programs,
		sessions:   stores.Sessions,
		tokens:     stores.Tokens,
		authz:      authz,
		defaultTTL: defaultTTL,
		now:        utcNow,
		generate:   utils.NewCheckInToken,
	}
}

// Issue rotates the session's token: every previously active token is
// deactivated and a fresh one inserted in the same transaction, so at no
// instant are two tokens active.  Requires the manage capability on the
// session's program.
func (s *TokenService) Issue(ctx context.Context, sessionID uint64, actor model.Actor) (*IssuedToken, error) {
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

	ttl := s.defaultTTL
	prog, err := s.programs.Get(ctx, sess.ProgramID)
	if err != nil {
		return nil, err
	}
	if prog.TokenTTLMin > 0 {
		ttl = time.Duration(prog.TokenTTLMin) * time.Minute
	}

	raw, err := s.generate()
	if err != nil {
		return nil, err
	}
	now := s.now()
	tok, err := s.tokens.Rotate(ctx, sess.ID, utils.HashTokenRaw(raw), now, now.Add(ttl))
	if err != nil {
		return nil, err
	}
	metrics.TokensIssued.Inc()
	return &IssuedToken{Token: raw, SessionID: sess.ID, ExpiresAt: tok.ValidUntil}, nil
}

// Refresh re-issues the session's token.  The previous token becomes
// unusable immediately, even if its TTL has not elapsed.
func (s *TokenService) Refresh(ctx context.Context, sessionID uint64, actor model.Actor) (*IssuedToken, error) {
	return s.Issue(ctx, sessionID, actor)
}

// Validate resolves a raw token to its row iff the token exists, is the
// session's active token and the current instant lies inside its
// validity window.  Every failure mode collapses into ErrInvalidToken.
func (s *TokenService) Validate(ctx context.Context, raw string) (*model.CheckInToken, error) {
	tok, err := s.tokens.GetByHash(ctx, utils.HashTokenRaw(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !tok.Usable(s.now()) {
		return nil, ErrInvalidToken
	}
	return tok, nil
}
