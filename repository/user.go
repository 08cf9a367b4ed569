package repository

import (
	"context"

	"github.com/fastygo/gameday/domain"
)

// UserRepository stores the profile of each identity that logged in.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
}
