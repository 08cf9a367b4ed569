package repository

import (
	"context"
	"time"

	"github.com/fastygo/gameday/domain"
)

// SessionRepository stores login sessions. Sessions are indexed by identity
// because logging out closes the remote backend for every session of it.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, session *domain.Session, ttl time.Duration) error
	ListUser(ctx context.Context, userID string) ([]domain.Session, error)
	RevokeUser(ctx context.Context, userID string) (int, error)
}
