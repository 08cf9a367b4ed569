package reminder

import (
	"sort"
	"sync"

	"github.com/fastygo/gameday/domain"
)

// view holds the collection currently in effect for a backend together with
// its derived stats and the registered listeners. Stats are recomputed on
// every replace and never carried over from an older collection.
type view struct {
	clock domain.Clock

	mu        sync.RWMutex
	reminders []domain.Reminder
	stats     domain.Stats

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func newView(clock domain.Clock) *view {
	return &view{
		clock:     clock,
		listeners: make(map[int]Listener),
	}
}

// replace installs a new collection and notifies listeners.
func (v *view) replace(reminders []domain.Reminder) {
	next := clone(reminders)
	stats := domain.Aggregate(next)

	v.mu.Lock()
	v.reminders = next
	v.stats = stats
	v.mu.Unlock()

	v.notify(Snapshot{Reminders: clone(next), Stats: stats})
}

func (v *view) notify(snap Snapshot) {
	v.lmu.Lock()
	ids := make([]int, 0, len(v.listeners))
	for id := range v.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, v.listeners[id])
	}
	v.lmu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (v *view) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	v.lmu.Lock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	v.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.lmu.Lock()
			delete(v.listeners, id)
			v.lmu.Unlock()
		})
	}
}

func (v *view) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Snapshot{Reminders: clone(v.reminders), Stats: v.stats}
}

func (v *view) Reminders() []domain.Reminder {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return clone(v.reminders)
}

func (v *view) Stats() domain.Stats {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stats
}

func (v *view) Get(id string) (domain.Reminder, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, r := range v.reminders {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Reminder{}, domain.ErrReminderNotFound
}

// Upcoming lists open reminders by deadline, soonest first.
func (v *view) Upcoming() []domain.Reminder {
	out := v.filter(func(r domain.Reminder) bool { return !r.IsCompleted })
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		if out[i].Priority.Rank() != out[j].Priority.Rank() {
			return out[i].Priority.Rank() < out[j].Priority.Rank()
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Completed lists resolved reminders, most recently completed first.
func (v *view) Completed() []domain.Reminder {
	out := v.filter(func(r domain.Reminder) bool { return r.IsCompleted })
	sort.SliceStable(out, func(i, j int) bool {
		a, b := completedAt(out[i]), completedAt(out[j])
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Overdue lists open reminders whose deadline already passed. They become
// turnovers only once the sweeper resolves them.
func (v *view) Overdue() []domain.Reminder {
	now := v.clock.Now()
	out := v.filter(func(r domain.Reminder) bool { return r.IsOverdue(now) })
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return out
}

func (v *view) filter(keep func(domain.Reminder) bool) []domain.Reminder {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]domain.Reminder, 0, len(v.reminders))
	for _, r := range v.reminders {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
