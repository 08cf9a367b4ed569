// Package testutil holds in-memory fakes shared by package tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/gameday/domain"
	"github.com/fastygo/gameday/repository"
)

// ReminderRepository is an in-memory repository.ReminderRepository. Setting one
// of the *Err fields makes the matching operation fail without side effects.
type ReminderRepository struct {
	mu    sync.Mutex
	items map[string]map[string]domain.Reminder

	ListErr        error
	GetErr         error
	CreateErr      error
	CreateBatchErr error
	UpdateErr      error
	ResolveErr     error
	DeleteErr      error

	BatchCalls int
}

var _ repository.ReminderRepository = (*ReminderRepository)(nil)

func NewReminderRepository() *ReminderRepository {
	return &ReminderRepository{items: make(map[string]map[string]domain.Reminder)}
}

// Seed stores reminders for userID directly, bypassing error injection.
func (r *ReminderRepository) Seed(userID string, reminders ...domain.Reminder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rem := range reminders {
		rem.UserID = userID
		r.bucket(userID)[rem.ID] = rem
	}
}

// Snapshot returns the stored reminders for userID ordered by id.
func (r *ReminderRepository) Snapshot(userID string) []domain.Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(userID)
}

func (r *ReminderRepository) List(ctx context.Context, userID string) ([]domain.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	return r.sorted(userID), nil
}

func (r *ReminderRepository) GetByID(ctx context.Context, userID, id string) (*domain.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	rem, ok := r.bucket(userID)[id]
	if !ok {
		return nil, domain.ErrReminderNotFound
	}
	return &rem, nil
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	b := r.bucket(reminder.UserID)
	if _, exists := b[reminder.ID]; exists {
		return domain.NewError(domain.ErrCodeConflict, "reminder already exists")
	}
	b[reminder.ID] = *reminder
	return nil
}

func (r *ReminderRepository) CreateBatch(ctx context.Context, userID string, reminders []domain.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BatchCalls++
	if r.CreateBatchErr != nil {
		return r.CreateBatchErr
	}
	b := r.bucket(userID)
	for _, rem := range reminders {
		if _, exists := b[rem.ID]; exists {
			return domain.NewError(domain.ErrCodeConflict, "reminder already exists")
		}
	}
	for _, rem := range reminders {
		rem.UserID = userID
		b[rem.ID] = rem
	}
	return nil
}

func (r *ReminderRepository) Update(ctx context.Context, reminder *domain.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	b := r.bucket(reminder.UserID)
	stored, ok := b[reminder.ID]
	if !ok {
		return domain.ErrReminderNotFound
	}
	stored.Title = reminder.Title
	stored.Description = reminder.Description
	stored.Deadline = reminder.Deadline
	stored.Priority = reminder.Priority
	stored.Category = reminder.Category
	stored.NotifyBefore = reminder.NotifyBefore
	stored.UpdatedAt = reminder.UpdatedAt
	b[reminder.ID] = stored
	return nil
}

func (r *ReminderRepository) Resolve(ctx context.Context, userID, id string, status domain.CompletionStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ResolveErr != nil {
		return false, r.ResolveErr
	}
	b := r.bucket(userID)
	stored, ok := b[id]
	if !ok || stored.IsCompleted {
		return false, nil
	}
	b[id] = stored.Resolve(status, at)
	return true, nil
}

func (r *ReminderRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	b := r.bucket(userID)
	if _, ok := b[id]; !ok {
		return domain.ErrReminderNotFound
	}
	delete(b, id)
	return nil
}

func (r *ReminderRepository) bucket(userID string) map[string]domain.Reminder {
	b, ok := r.items[userID]
	if !ok {
		b = make(map[string]domain.Reminder)
		r.items[userID] = b
	}
	return b
}

func (r *ReminderRepository) sorted(userID string) []domain.Reminder {
	b := r.bucket(userID)
	out := make([]domain.Reminder, 0, len(b))
	for _, rem := range b {
		out = append(out, rem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
