package testutil

import (
	"sync"

	"github.com/fastygo/gameday/domain"
)

// Disk is an in-memory stand-in for the bbolt local store.
type Disk struct {
	mu        sync.Mutex
	reminders []domain.Reminder
	stats     domain.Stats

	LoadErr  error
	SaveErr  error
	ClearErr error
	Saves    int
}

func NewDisk(reminders ...domain.Reminder) *Disk {
	return &Disk{reminders: append([]domain.Reminder(nil), reminders...)}
}

func (d *Disk) Load() ([]domain.Reminder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.LoadErr != nil {
		return nil, d.LoadErr
	}
	return append([]domain.Reminder(nil), d.reminders...), nil
}

func (d *Disk) LoadStats() (domain.Stats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.LoadErr != nil {
		return domain.Stats{}, d.LoadErr
	}
	return d.stats, nil
}

func (d *Disk) Save(reminders []domain.Reminder, stats domain.Stats) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SaveErr != nil {
		return d.SaveErr
	}
	d.Saves++
	d.reminders = append([]domain.Reminder(nil), reminders...)
	d.stats = stats
	return nil
}

func (d *Disk) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ClearErr != nil {
		return d.ClearErr
	}
	d.reminders = nil
	d.stats = domain.Stats{}
	return nil
}

// Stored returns what was last persisted.
func (d *Disk) Stored() ([]domain.Reminder, domain.Stats) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Reminder(nil), d.reminders...), d.stats
}
