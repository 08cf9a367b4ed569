package reminder

import (
	"time"

	"github.com/fastygo/gameday/domain"
)

// clone always returns a non-nil slice so callers can tell "empty" from "unchanged".
func clone(in []domain.Reminder) []domain.Reminder {
	out := make([]domain.Reminder, len(in))
	copy(out, in)
	return out
}

func indexOf(list []domain.Reminder, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func completedAt(r domain.Reminder) time.Time {
	if r.CompletedAt == nil {
		return time.Time{}
	}
	return *r.CompletedAt
}
