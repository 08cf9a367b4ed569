package domain

import (
	"math"
	"sort"
	"time"
)

// Stats is the scoreboard derived from a reminder collection. It is never
// patched in place: every change recomputes it with Aggregate.
type Stats struct {
	Touchdowns    int `json:"touchdowns"`
	FieldGoals    int `json:"field_goals"`
	Turnovers     int `json:"turnovers"`
	CurrentStreak int `json:"current_streak"`
	BestStreak    int `json:"best_streak"`
	TotalPlays    int `json:"total_plays"`
}

// Resolved is the number of reminders that reached an outcome.
func (s Stats) Resolved() int {
	return s.Touchdowns + s.FieldGoals + s.Turnovers
}

// WinRate is the rounded percentage of resolved reminders that were touchdowns.
func (s Stats) WinRate() int {
	resolved := s.Resolved()
	if resolved == 0 {
		return 0
	}
	return int(math.Round(float64(s.Touchdowns) * 100 / float64(resolved)))
}

// Aggregate computes Stats from scratch.
func Aggregate(reminders []Reminder) Stats {
	stats := Stats{TotalPlays: len(reminders)}

	completed := make([]Reminder, 0, len(reminders))
	for _, r := range reminders {
		if !r.IsCompleted {
			continue
		}
		completed = append(completed, r)
		switch r.CompletionStatus {
		case CompletionTouchdown:
			stats.Touchdowns++
		case CompletionFieldGoal:
			stats.FieldGoals++
		case CompletionTurnover:
			stats.Turnovers++
		}
	}

	sort.SliceStable(completed, func(i, j int) bool {
		a, b := completedAt(completed[i]), completedAt(completed[j])
		if a.Equal(b) {
			return completed[i].ID < completed[j].ID
		}
		return a.Before(b)
	})

	run := 0
	for _, r := range completed {
		if r.CompletionStatus == CompletionTouchdown {
			run++
			if run > stats.BestStreak {
				stats.BestStreak = run
			}
			continue
		}
		run = 0
	}

	for i := len(completed) - 1; i >= 0; i-- {
		if completed[i].CompletionStatus != CompletionTouchdown {
			break
		}
		stats.CurrentStreak++
	}

	return stats
}

func completedAt(r Reminder) time.Time {
	if r.CompletedAt == nil {
		return time.Time{}
	}
	return *r.CompletedAt
}
