// Package auth turns a verified identity into a session and drives the
// backend switch that comes with logging in and out.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/gameday/domain"
	"github.com/fastygo/gameday/repository"
	"github.com/fastygo/gameday/usecase/reconcile"
)

// Switcher moves the process between the local and the remote reminder
// backend. The session manager implements it.
type Switcher interface {
	RemoteEnabled() bool
	Login(ctx context.Context, userID string) (reconcile.Result, error)
	Logout(ctx context.Context)
	UserID() string
	Reconciled() reconcile.Result
}

// Identity is what the bearer token says about the caller.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	Session   *domain.Session  `json:"session"`
	User      *domain.User     `json:"user,omitempty"`
	Reconcile reconcile.Result `json:"reconcile"`
}

// Me describes the current authentication state.
type Me struct {
	Authenticated bool             `json:"authenticated"`
	User          *domain.User     `json:"user,omitempty"`
	Reconcile     reconcile.Result `json:"reconcile"`
}

// UseCase serialises Login, Logout and EnforceExpiry so an expiry check
// never observes the gap between a backend switch and its session.
type UseCase struct {
	mu       sync.Mutex
	users    repository.UserRepository
	sessions repository.SessionRepository
	switcher Switcher
	clock    domain.Clock
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, switcher Switcher, clock domain.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		switcher: switcher,
		clock:    clock,
		logger:   logger,
	}
}

// Login records the identity's profile, switches to its remote reminders
// (reconciling with local ones) and issues a session.
func (uc *UseCase) Login(ctx context.Context, id Identity, ttl time.Duration) (*LoginResult, error) {
	if !uc.switcher.RemoteEnabled() {
		return nil, domain.ErrRemoteDisabled
	}
	if id.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	now := uc.clock.Now()
	user := &domain.User{
		ID:          id.UserID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		LastLoginAt: &now,
	}
	if err := uc.users.Upsert(ctx, user); err != nil {
		return nil, domain.Unavailable("save user profile", err)
	}

	previous := uc.switcher.UserID()
	result, err := uc.switcher.Login(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if previous != "" && previous != id.UserID {
		uc.revoke(ctx, previous)
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := uc.sessions.Save(ctx, session, ttl); err != nil {
		uc.switcher.Logout(ctx)
		return nil, domain.Unavailable("save session", err)
	}

	uc.logger.Info("user logged in",
		zap.String("user_id", id.UserID),
		zap.String("session_id", session.ID),
		zap.String("reconcile", string(result.Outcome)))
	return &LoginResult{Session: session, User: user, Reconcile: result}, nil
}

// Logout returns to the local backend and revokes every session of the
// identity that was logged in. sessionID is revoked as well when it belongs
// to someone else, such as a session left over from an earlier switch.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	userID := uc.switcher.UserID()
	uc.switcher.Logout(ctx)
	if uc.sessions == nil {
		return nil
	}

	if userID != "" {
		uc.revoke(ctx, userID)
	}
	if sessionID != "" {
		if err := uc.sessions.Delete(ctx, sessionID); err != nil {
			uc.logger.Warn("revoke session failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return nil
}

func (uc *UseCase) revoke(ctx context.Context, userID string) {
	n, err := uc.sessions.RevokeUser(ctx, userID)
	if err != nil {
		uc.logger.Warn("revoke sessions failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	uc.logger.Info("sessions revoked", zap.String("user_id", userID), zap.Int("count", n))
}

// Me reports who is logged in, if anyone.
func (uc *UseCase) Me(ctx context.Context) (*Me, error) {
	userID := uc.switcher.UserID()
	if userID == "" || uc.users == nil {
		return &Me{}, nil
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Me{Authenticated: true, User: user, Reconcile: uc.switcher.Reconciled()}, nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if uc.sessions == nil {
		return nil, domain.ErrRemoteDisabled
	}
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(uc.clock.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) (*domain.Session, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.ExpiresAt = uc.clock.Now().Add(ttl)
	if err := uc.sessions.Extend(ctx, session, ttl); err != nil {
		return nil, err
	}
	return session, nil
}

// Authorize checks that sessionID is a live session of the identity that is
// logged in. Without a login there is nothing to protect and it returns a nil
// session.
func (uc *UseCase) Authorize(ctx context.Context, sessionID string) (*domain.Session, error) {
	userID := uc.switcher.UserID()
	if userID == "" {
		return nil, nil
	}
	if sessionID == "" || uc.sessions == nil {
		return nil, domain.ErrUnauthorized
	}

	session, err := uc.GetSession(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, domain.Unavailable("load session", err)
	}
	if session.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}

// EnforceExpiry ends remote sync once the logged-in identity has no live
// session left. It reports whether it logged out.
func (uc *UseCase) EnforceExpiry(ctx context.Context) (bool, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	userID := uc.switcher.UserID()
	if userID == "" || uc.sessions == nil {
		return false, nil
	}

	sessions, err := uc.sessions.ListUser(ctx, userID)
	if err != nil {
		return false, domain.Unavailable("list sessions", err)
	}
	now := uc.clock.Now()
	for i := range sessions {
		if !sessions[i].IsExpired(now) {
			return false, nil
		}
	}

	uc.switcher.Logout(ctx)
	uc.revoke(ctx, userID)
	uc.logger.Info("sessions expired, remote sync ended", zap.String("user_id", userID))
	return true, nil
}
