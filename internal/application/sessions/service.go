// Package sessions implements session resolution, login, logout, and
// permission checks over the repository's session store.
package sessions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainSession "cdrcgi/internal/domain/session"
	domainUser "cdrcgi/internal/domain/user"
	"cdrcgi/internal/infrastructure/upstream"
	"cdrcgi/internal/shared/errors"
)

// Oracle answers authorization questions once the action name has
// passed the whitelist.
type Oracle interface {
	Enforce(userName, action, doctype string) (bool, error)
}

// ActionSource loads the authoritative action whitelist.
type ActionSource interface {
	Names(ctx context.Context) ([]string, error)
}

// Service resolves and manages sessions. One instance serves the whole
// process; per-request state stays in the Session values it returns.
type Service struct {
	sessions  domainSession.Repository
	users     domainUser.Repository
	actions   ActionSource
	client    upstream.Client
	oracle    Oracle
	expiry    time.Duration
	logger    *slog.Logger

	whitelistOnce sync.Once
	whitelist     map[string]bool
	whitelistErr  error
}

func NewService(sessions domainSession.Repository, users domainUser.Repository,
	actions ActionSource, client upstream.Client, oracle Oracle,
	expiry time.Duration, logger *slog.Logger) *Service {
	return &Service{
		sessions: sessions,
		users:    users,
		actions:  actions,
		client:   client,
		oracle:   oracle,
		expiry:   expiry,
		logger:   logger,
	}
}

// Resolve maps a request token onto a session. An absent, unknown,
// ended, or expired token degrades to the guest identity; it never
// silently authorizes.
func (s *Service) Resolve(ctx context.Context, token string) (*domainSession.Session, error) {
	if token == "" || token == domainSession.GuestName {
		return domainSession.Guest(), nil
	}

	row, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, errors.NewInfrastructureError("session lookup failed", err.Error())
	}
	if row == nil || !row.Active(s.expiry, time.Now()) {
		s.logger.Debug("session degraded to guest", "token_known", row != nil)
		return domainSession.Guest(), nil
	}

	if err := s.sessions.Touch(ctx, token); err != nil {
		// Activity tracking is advisory; the request proceeds.
		s.logger.Warn("cannot update session activity", "error", err)
	}
	return row, nil
}

// Require resolves a token and rejects the guest fallback.
func (s *Service) Require(ctx context.Context, token string) (*domainSession.Session, error) {
	session, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.IsGuest() {
		return nil, errors.NewAuthError("a valid session is required")
	}
	return session, nil
}

// Login authenticates a user against the repository server and returns
// the new session token.
func (s *Service) Login(ctx context.Context, userName string) (string, error) {
	token, err := s.client.Login(ctx, userName, "")
	if err != nil {
		return "", err
	}
	s.logger.Info("session opened", "user", userName)
	return token, nil
}

// Logout ends a session both upstream and locally. Logging out the
// guest identity is a caller error; endpoints surface it as a warning
// alert instead of calling here.
func (s *Service) Logout(ctx context.Context, session *domainSession.Session) error {
	if session.IsGuest() {
		return errors.NewInputError("You are not currently logged in.")
	}
	if err := s.client.Logout(ctx, session.Token); err != nil {
		// Best-effort: still end the local row so the token cannot be
		// replayed against this tier.
		s.logger.Warn("upstream logout failed", "user", session.UserName, "error", err)
	}
	if err := s.sessions.End(ctx, session.Token); err != nil {
		return errors.NewInfrastructureError("cannot end session", err.Error())
	}
	s.logger.Info("session ended", "user", session.UserName)
	return nil
}

// CanDo checks a permission. Any action name outside the loaded
// whitelist is rejected without consulting the oracle; the guest
// identity holds no permissions.
func (s *Service) CanDo(ctx context.Context, session *domainSession.Session, action, doctype string) (bool, error) {
	allowed, err := s.allowedAction(ctx, action)
	if err != nil {
		return false, err
	}
	if !allowed {
		s.logger.Warn("unknown action rejected", "action", action)
		return false, nil
	}
	if session.IsGuest() {
		return false, nil
	}
	return s.oracle.Enforce(session.UserName, action, doctype)
}

// GetUser fetches a profile with group memberships. An empty name means
// the session's own user.
func (s *Service) GetUser(ctx context.Context, session *domainSession.Session, name string) (*domainUser.User, error) {
	if name == "" {
		name = session.UserName
	}
	u, err := s.users.GetByName(ctx, name)
	if err != nil {
		return nil, errors.NewInfrastructureError("user lookup failed", err.Error())
	}
	if u == nil {
		return nil, errors.NewInputError("unknown user", name)
	}
	return u, nil
}

func (s *Service) allowedAction(ctx context.Context, action string) (bool, error) {
	s.whitelistOnce.Do(func() {
		names, err := s.actions.Names(ctx)
		if err != nil {
			s.whitelistErr = errors.NewInfrastructureError("cannot load action set", err.Error())
			return
		}
		wl := make(map[string]bool, len(names))
		for _, n := range names {
			wl[n] = true
		}
		s.whitelist = wl
	})
	if s.whitelistErr != nil {
		return false, s.whitelistErr
	}
	return s.whitelist[action], nil
}
