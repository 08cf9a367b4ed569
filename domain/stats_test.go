package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

func resolved(id string, status CompletionStatus, offset time.Duration) Reminder {
	at := base.Add(offset)
	return Reminder{
		ID:               id,
		Title:            id,
		Deadline:         base,
		IsCompleted:      true,
		CompletedAt:      &at,
		CompletionStatus: status,
	}
}

func pending(id string) Reminder {
	return Reminder{ID: id, Title: id, Deadline: base.Add(24 * time.Hour)}
}

func TestAggregateEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, Aggregate(nil))
	assert.Equal(t, 0, Aggregate(nil).WinRate())
}

func TestAggregateStreakLaw(t *testing.T) {
	// Shuffled on purpose: streaks follow completion time, not slice order.
	reminders := []Reminder{
		resolved("d", CompletionTouchdown, 4*time.Minute),
		resolved("b", CompletionTouchdown, 2*time.Minute),
		resolved("c", CompletionTurnover, 3*time.Minute),
		resolved("a", CompletionTouchdown, 1*time.Minute),
	}

	stats := Aggregate(reminders)

	assert.Equal(t, 2, stats.BestStreak)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 3, stats.Touchdowns)
	assert.Equal(t, 1, stats.Turnovers)
	assert.Equal(t, 4, stats.TotalPlays)
}

func TestAggregateFieldGoalResetsStreak(t *testing.T) {
	stats := Aggregate([]Reminder{
		resolved("a", CompletionTouchdown, 1*time.Minute),
		resolved("b", CompletionTouchdown, 2*time.Minute),
		resolved("c", CompletionTouchdown, 3*time.Minute),
		resolved("d", CompletionFieldGoal, 4*time.Minute),
	})

	assert.Equal(t, 3, stats.BestStreak)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 1, stats.FieldGoals)
}

func TestAggregateCountsUncompletedInTotalPlays(t *testing.T) {
	reminders := []Reminder{
		resolved("a", CompletionTouchdown, time.Minute),
		resolved("b", CompletionFieldGoal, 2*time.Minute),
		pending("c"),
		pending("d"),
	}

	stats := Aggregate(reminders)

	assert.Equal(t, 4, stats.TotalPlays)
	assert.Equal(t, 2, stats.Resolved())
	assert.Equal(t, 50, stats.WinRate())
}

func TestAggregateTotalsNeverExceedPlays(t *testing.T) {
	statuses := []CompletionStatus{CompletionTouchdown, CompletionFieldGoal, CompletionTurnover}

	for n := 0; n < 12; n++ {
		var reminders []Reminder
		uncompleted := 0
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("r%02d", i)
			if i%4 == 3 {
				reminders = append(reminders, pending(id))
				uncompleted++
				continue
			}
			reminders = append(reminders, resolved(id, statuses[i%3], time.Duration(i)*time.Minute))
		}

		stats := Aggregate(reminders)
		require.LessOrEqual(t, stats.Resolved(), stats.TotalPlays)
		assert.Equal(t, uncompleted == 0, stats.Resolved() == stats.TotalPlays, "n=%d", n)
	}
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	forward := []Reminder{
		resolved("a", CompletionTouchdown, time.Minute),
		resolved("b", CompletionTurnover, time.Minute),
		resolved("c", CompletionTouchdown, 2*time.Minute),
	}
	backward := []Reminder{forward[2], forward[1], forward[0]}

	assert.Equal(t, Aggregate(forward), Aggregate(backward))
}

func TestWinRateRounds(t *testing.T) {
	stats := Stats{Touchdowns: 2, FieldGoals: 1}
	assert.Equal(t, 67, stats.WinRate())
}
