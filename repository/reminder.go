package repository

import (
	"context"
	"time"

	"github.com/fastygo/gameday/domain"
)

// ReminderRepository is the remote document store: reminders keyed by id and
// scoped to the owning identity.
type ReminderRepository interface {
	List(ctx context.Context, userID string) ([]domain.Reminder, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Reminder, error)
	Create(ctx context.Context, reminder *domain.Reminder) error
	// CreateBatch inserts every reminder or none of them.
	CreateBatch(ctx context.Context, userID string, reminders []domain.Reminder) error
	// Update rewrites the editable fields. Completion fields are untouched.
	Update(ctx context.Context, reminder *domain.Reminder) error
	// Resolve completes a reminder only if it is still open and reports whether it did.
	Resolve(ctx context.Context, userID, id string, status domain.CompletionStatus, at time.Time) (bool, error)
	Delete(ctx context.Context, userID, id string) error
}

// ChangeFeed signals that an identity's reminder collection changed.
// Subscribers re-read the full collection; the signal carries no diff.
type ChangeFeed interface {
	Publish(ctx context.Context, userID string) error
	// Subscribe delivers a signal per change until ctx is done, then closes the channel.
	Subscribe(ctx context.Context, userID string) (<-chan struct{}, error)
}
