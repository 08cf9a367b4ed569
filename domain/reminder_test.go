package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftValidate(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	valid := Draft{Title: "Ship report", Deadline: now.Add(time.Hour), Priority: PriorityRedZone, Category: CategoryWork}

	tests := []struct {
		name  string
		edit  func(d *Draft)
		want  error
		field string
	}{
		{"valid", func(d *Draft) {}, nil, ""},
		{"blank title", func(d *Draft) { d.Title = "   " }, ErrTitleRequired, "title"},
		{"missing deadline", func(d *Draft) { d.Deadline = time.Time{} }, ErrDeadlineRequired, "deadline"},
		{"deadline in the past", func(d *Draft) { d.Deadline = now.Add(-time.Minute) }, ErrDeadlinePast, "deadline"},
		{"unknown priority", func(d *Draft) { d.Priority = "blitz" }, ErrInvalidPriority, "priority"},
		{"unknown category", func(d *Draft) { d.Category = "hobby" }, ErrInvalidCategory, "category"},
		{"negative lead", func(d *Draft) { d.NotifyBefore = -5 }, ErrInvalidNotify, "notify_before"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.edit(&d)
			err := d.Validate(now)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, IsDomainError(err, ErrCodeInvalid))
			assert.Equal(t, tt.field, FieldOf(err))
		})
	}
}

func TestDraftBuildDefaults(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	r := Draft{Title: "  Essay  ", Deadline: now.Add(time.Hour)}.Build("id-1", now)

	assert.Equal(t, "Essay", r.Title)
	assert.Equal(t, PriorityFirstDown, r.Priority)
	assert.Equal(t, CategoryOther, r.Category)
	assert.False(t, r.IsCompleted)
	assert.True(t, r.Consistent())
	assert.Equal(t, now, r.CreatedAt)
}

func TestResolveKeepsInvariant(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	r := Draft{Title: "Run", Deadline: now.Add(time.Hour)}.Build("id-1", now)

	done := r.Resolve(CompletionTouchdown, now.Add(time.Minute))
	require.True(t, done.Consistent())
	assert.True(t, done.IsCompleted)
	assert.Equal(t, CompletionTouchdown, done.CompletionStatus)

	again := done.Resolve(CompletionTurnover, now.Add(2*time.Hour))
	assert.Equal(t, done, again)
}

func TestConsistentRejectsPartialCompletion(t *testing.T) {
	at := time.Now()
	assert.False(t, Reminder{IsCompleted: true}.Consistent())
	assert.False(t, Reminder{CompletedAt: &at}.Consistent())
	assert.False(t, Reminder{CompletionStatus: CompletionTurnover}.Consistent())
	assert.True(t, Reminder{}.Consistent())
}

func TestPatchApply(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	r := Draft{Title: "Run", Deadline: now.Add(time.Hour)}.Build("id-1", now)

	title := "Run 5k"
	lead := 30
	past := now.Add(-time.Hour)
	patch := Patch{Title: &title, NotifyBefore: &lead, Deadline: &past}
	require.NoError(t, patch.Validate())

	updated := patch.Apply(r, now.Add(time.Minute))
	assert.Equal(t, "Run 5k", updated.Title)
	assert.Equal(t, 30, updated.NotifyBefore)
	assert.Equal(t, past, updated.Deadline)
	assert.Equal(t, r.ID, updated.ID)
	assert.Equal(t, r.CreatedAt, updated.CreatedAt)
}

func TestPatchValidateForCompleted(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	r := Draft{Title: "Essay", Deadline: now.Add(time.Hour)}.Build("id-1", now)
	done := r.Resolve(CompletionTouchdown, now.Add(30*time.Minute))

	later := r.Deadline.Add(-time.Hour)
	same := r.Deadline
	title := "Essay draft"

	assert.NoError(t, Patch{Deadline: &later}.ValidateFor(r))
	assert.ErrorIs(t, Patch{Deadline: &later}.ValidateFor(done), ErrDeadlineSettled)
	assert.NoError(t, Patch{Deadline: &same, Title: &title}.ValidateFor(done))
	assert.Equal(t, "deadline", FieldOf(Patch{Deadline: &later}.ValidateFor(done)))
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityHailMary.Rank(), PriorityRedZone.Rank())
	assert.Less(t, PriorityRedZone.Rank(), PriorityFirstDown.Rank())
	assert.Less(t, PriorityFirstDown.Rank(), PriorityPractice.Rank())
	assert.False(t, Priority("audible").IsValid())
}
