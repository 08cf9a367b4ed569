// Package reminder owns the reminder collection. Two backends implement Store:
// LocalStore keeps it in a device-local bbolt file, RemoteStore keeps it in the
// per-identity remote document store and follows it through a change feed.
package reminder

import (
	"context"
	"time"

	"github.com/fastygo/gameday/domain"
)

// Snapshot is a self-consistent view of the collection and the stats derived from it.
type Snapshot struct {
	Reminders []domain.Reminder `json:"reminders"`
	Stats     domain.Stats      `json:"stats"`
}

// Listener receives a fresh snapshot after every change.
type Listener func(Snapshot)

// Store is the contract shared by both backends. Callers depend only on it.
type Store interface {
	Add(ctx context.Context, draft domain.Draft) (domain.Reminder, error)
	Update(ctx context.Context, id string, patch domain.Patch) (domain.Reminder, error)
	Delete(ctx context.Context, id string) error
	// Complete classifies the reminder against the current instant and persists
	// the outcome. Completing an already completed reminder changes nothing.
	Complete(ctx context.Context, id string) (domain.Reminder, error)
	// MarkMissed resolves an overdue reminder as a turnover and reports whether
	// this call made the transition.
	MarkMissed(ctx context.Context, id string, at time.Time) (domain.Reminder, bool, error)

	Get(id string) (domain.Reminder, error)
	Reminders() []domain.Reminder
	Upcoming() []domain.Reminder
	Completed() []domain.Reminder
	Overdue() []domain.Reminder
	Stats() domain.Stats
	Snapshot() Snapshot

	Subscribe(fn Listener) (unsubscribe func())
}
