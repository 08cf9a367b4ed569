package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/gameday/domain"
)

// Disk is the device-local persistence used by LocalStore. The bbolt store in
// internal/infrastructure/localstore satisfies it.
type Disk interface {
	Load() ([]domain.Reminder, error)
	LoadStats() (domain.Stats, error)
	Save(reminders []domain.Reminder, stats domain.Stats) error
	Clear() error
}

// LocalStore keeps the collection on the device. Every mutation is written to
// disk before the in-memory view changes, so a failed write leaves both untouched.
type LocalStore struct {
	*view
	disk   Disk
	logger *zap.Logger

	writeMu sync.Mutex
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore loads the persisted collection. Stats are recomputed from the
// loaded reminders; a persisted snapshot that disagrees is rewritten.
func NewLocalStore(disk Disk, clock domain.Clock, logger *zap.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &LocalStore{
		view:   newView(clock),
		disk:   disk,
		logger: logger,
	}
	reminders, err := disk.Load()
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "load local reminders", err)
	}
	s.view.replace(reminders)
	s.repairStats(reminders)
	return s, nil
}

func (s *LocalStore) repairStats(reminders []domain.Reminder) {
	persisted, err := s.disk.LoadStats()
	if err != nil {
		s.logger.Warn("read persisted stats failed", zap.Error(err))
		return
	}
	current := s.view.Stats()
	if persisted == current {
		return
	}
	s.logger.Warn("persisted stats out of date",
		zap.Int("persisted_plays", persisted.TotalPlays),
		zap.Int("plays", current.TotalPlays))
	if err := s.disk.Save(reminders, current); err != nil {
		s.logger.Warn("rewrite persisted stats failed", zap.Error(err))
	}
}

func (s *LocalStore) Add(ctx context.Context, draft domain.Draft) (domain.Reminder, error) {
	now := s.clock.Now()
	if err := draft.Validate(now); err != nil {
		return domain.Reminder{}, err
	}
	created := draft.Build(uuid.NewString(), now)

	err := s.mutate(func(list []domain.Reminder) ([]domain.Reminder, error) {
		return append(list, created), nil
	})
	if err != nil {
		return domain.Reminder{}, err
	}
	return created, nil
}

func (s *LocalStore) Update(ctx context.Context, id string, patch domain.Patch) (domain.Reminder, error) {
	if err := patch.Validate(); err != nil {
		return domain.Reminder{}, err
	}
	var updated domain.Reminder
	err := s.mutate(func(list []domain.Reminder) ([]domain.Reminder, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, domain.ErrReminderNotFound
		}
		if err := patch.ValidateFor(list[i]); err != nil {
			return nil, err
		}
		updated = patch.Apply(list[i], s.clock.Now())
		list[i] = updated
		return list, nil
	})
	if err != nil {
		return domain.Reminder{}, err
	}
	return updated, nil
}

func (s *LocalStore) Delete(ctx context.Context, id string) error {
	return s.mutate(func(list []domain.Reminder) ([]domain.Reminder, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, domain.ErrReminderNotFound
		}
		return append(list[:i], list[i+1:]...), nil
	})
}

func (s *LocalStore) Complete(ctx context.Context, id string) (domain.Reminder, error) {
	var result domain.Reminder
	err := s.mutate(func(list []domain.Reminder) ([]domain.Reminder, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, domain.ErrReminderNotFound
		}
		if list[i].IsCompleted {
			result = list[i]
			return nil, nil
		}
		now := s.clock.Now()
		result = list[i].Resolve(domain.Classify(list[i].Deadline, now), now)
		list[i] = result
		return list, nil
	})
	if err != nil {
		return domain.Reminder{}, err
	}
	return result, nil
}

func (s *LocalStore) MarkMissed(ctx context.Context, id string, at time.Time) (domain.Reminder, bool, error) {
	var (
		result  domain.Reminder
		changed bool
	)
	err := s.mutate(func(list []domain.Reminder) ([]domain.Reminder, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, domain.ErrReminderNotFound
		}
		if !list[i].IsOverdue(at) {
			result = list[i]
			return nil, nil
		}
		result = list[i].Resolve(domain.CompletionTurnover, at)
		list[i] = result
		changed = true
		return list, nil
	})
	if err != nil {
		return domain.Reminder{}, false, err
	}
	return result, changed, nil
}

// Drain hands the collection to fn and holds off every other write until it
// returns. When fn reports true the collection is cleared before writes
// resume, so nothing written meanwhile is lost by the clear.
func (s *LocalStore) Drain(ctx context.Context, fn func([]domain.Reminder) (bool, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	drained, err := fn(s.view.Reminders())
	if err != nil || !drained {
		return err
	}
	return s.clearLocked()
}

func (s *LocalStore) clearLocked() error {
	if err := s.disk.Clear(); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "clear local reminders", err)
	}
	s.view.replace(nil)
	s.logger.Info("local reminders cleared")
	return nil
}

// mutate applies fn to a private copy of the collection. A nil result with a
// nil error means nothing changed and nothing is written.
func (s *LocalStore) mutate(fn func([]domain.Reminder) ([]domain.Reminder, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, err := fn(s.view.Reminders())
	if err != nil || next == nil {
		return err
	}
	if err := s.disk.Save(next, domain.Aggregate(next)); err != nil {
		s.logger.Error("persist local reminders failed", zap.Error(err))
		return domain.WrapError(domain.ErrCodeInternal, "persist local reminders", err)
	}
	s.view.replace(next)
	return nil
}
