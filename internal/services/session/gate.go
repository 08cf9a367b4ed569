package session

import (
	"context"
	"time"

	"github.com/fastygo/gameday/domain"
	"github.com/fastygo/gameday/usecase/reminder"
)

// gatedStore is the Store handed out by Manager.Store. Writes wait while the
// backend is being switched and then go to whichever store is active, so a
// write racing a login lands on the remote store instead of the local one
// being pushed and cleared.
type gatedStore struct {
	m *Manager
}

var _ reminder.Store = gatedStore{}

func (g gatedStore) Add(ctx context.Context, draft domain.Draft) (domain.Reminder, error) {
	g.m.gate.RLock()
	defer g.m.gate.RUnlock()
	return g.m.Active().Add(ctx, draft)
}

func (g gatedStore) Update(ctx context.Context, id string, patch domain.Patch) (domain.Reminder, error) {
	g.m.gate.RLock()
	defer g.m.gate.RUnlock()
	return g.m.Active().Update(ctx, id, patch)
}

func (g gatedStore) Delete(ctx context.Context, id string) error {
	g.m.gate.RLock()
	defer g.m.gate.RUnlock()
	return g.m.Active().Delete(ctx, id)
}

func (g gatedStore) Complete(ctx context.Context, id string) (domain.Reminder, error) {
	g.m.gate.RLock()
	defer g.m.gate.RUnlock()
	return g.m.Active().Complete(ctx, id)
}

func (g gatedStore) MarkMissed(ctx context.Context, id string, at time.Time) (domain.Reminder, bool, error) {
	g.m.gate.RLock()
	defer g.m.gate.RUnlock()
	return g.m.Active().MarkMissed(ctx, id, at)
}

func (g gatedStore) Get(id string) (domain.Reminder, error) { return g.m.Active().Get(id) }

func (g gatedStore) Reminders() []domain.Reminder { return g.m.Active().Reminders() }

func (g gatedStore) Upcoming() []domain.Reminder { return g.m.Active().Upcoming() }

func (g gatedStore) Completed() []domain.Reminder { return g.m.Active().Completed() }

func (g gatedStore) Overdue() []domain.Reminder { return g.m.Active().Overdue() }

func (g gatedStore) Stats() domain.Stats { return g.m.Active().Stats() }

func (g gatedStore) Snapshot() reminder.Snapshot { return g.m.Active().Snapshot() }

func (g gatedStore) Subscribe(fn reminder.Listener) func() { return g.m.Subscribe(fn) }
