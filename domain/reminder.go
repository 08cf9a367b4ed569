package domain

import (
	"strings"
	"time"
)

// Priority orders reminders for display. It has no effect on classification.
type Priority string

const (
	PriorityHailMary  Priority = "hail-mary"
	PriorityRedZone   Priority = "red-zone"
	PriorityFirstDown Priority = "first-down"
	PriorityPractice  Priority = "practice"
)

// Rank returns 0 for the most urgent priority; unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHailMary:
		return 0
	case PriorityRedZone:
		return 1
	case PriorityFirstDown:
		return 2
	case PriorityPractice:
		return 3
	default:
		return 4
	}
}

func (p Priority) IsValid() bool {
	return p.Rank() < 4
}

type Category string

const (
	CategoryWork     Category = "work"
	CategorySchool   Category = "school"
	CategoryPersonal Category = "personal"
	CategoryHealth   Category = "health"
	CategoryOther    Category = "other"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryWork, CategorySchool, CategoryPersonal, CategoryHealth, CategoryOther:
		return true
	default:
		return false
	}
}

// CompletionStatus is the outcome recorded when a reminder is resolved.
type CompletionStatus string

const (
	CompletionTouchdown CompletionStatus = "touchdown"  // completed before the deadline
	CompletionFieldGoal CompletionStatus = "field-goal" // completed at or after the deadline
	CompletionTurnover  CompletionStatus = "turnover"   // never completed, swept as missed
)

// Reminder is a user-defined, deadline-bound unit of work.
type Reminder struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id,omitempty"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	Deadline         time.Time        `json:"deadline"`
	Priority         Priority         `json:"priority"`
	Category         Category         `json:"category"`
	IsCompleted      bool             `json:"is_completed"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	CompletionStatus CompletionStatus `json:"completion_status,omitempty"`
	NotifyBefore     int              `json:"notify_before,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Consistent reports whether the completion fields agree with each other:
// either all unset or all set.
func (r Reminder) Consistent() bool {
	if !r.IsCompleted {
		return r.CompletedAt == nil && r.CompletionStatus == ""
	}
	return r.CompletedAt != nil && r.CompletionStatus != ""
}

// IsOverdue reports an unresolved reminder whose deadline is strictly before now.
func (r Reminder) IsOverdue(now time.Time) bool {
	return !r.IsCompleted && r.Deadline.Before(now)
}

// Resolve returns a copy of r completed at the given instant with the given outcome.
// Resolving an already completed reminder returns it unchanged.
func (r Reminder) Resolve(status CompletionStatus, at time.Time) Reminder {
	if r.IsCompleted {
		return r
	}
	completedAt := at
	r.IsCompleted = true
	r.CompletedAt = &completedAt
	r.CompletionStatus = status
	r.UpdatedAt = at
	return r
}

// Draft carries the fields a collaborator supplies to create a reminder.
type Draft struct {
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Deadline     time.Time `json:"deadline"`
	Priority     Priority  `json:"priority"`
	Category     Category  `json:"category"`
	NotifyBefore int       `json:"notify_before,omitempty"`
}

// Validate checks a draft at the creation boundary. New reminders must be due in the future.
func (d Draft) Validate(now time.Time) error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if d.Deadline.IsZero() {
		return ErrDeadlineRequired
	}
	if d.Deadline.Before(now) {
		return ErrDeadlinePast
	}
	if d.Priority != "" && !d.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if d.Category != "" && !d.Category.IsValid() {
		return ErrInvalidCategory
	}
	if d.NotifyBefore < 0 {
		return ErrInvalidNotify
	}
	return nil
}

// Build turns a validated draft into a fresh, uncompleted reminder.
func (d Draft) Build(id string, now time.Time) Reminder {
	r := Reminder{
		ID:           id,
		Title:        strings.TrimSpace(d.Title),
		Description:  strings.TrimSpace(d.Description),
		Deadline:     d.Deadline,
		Priority:     d.Priority,
		Category:     d.Category,
		NotifyBefore: d.NotifyBefore,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if r.Priority == "" {
		r.Priority = PriorityFirstDown
	}
	if r.Category == "" {
		r.Category = CategoryOther
	}
	return r
}

// Patch holds the editable fields of a reminder. Nil fields are left untouched.
// Completion fields are not patchable: only Complete and the sweeper resolve reminders.
type Patch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Priority     *Priority  `json:"priority,omitempty"`
	Category     *Category  `json:"category,omitempty"`
	NotifyBefore *int       `json:"notify_before,omitempty"`
}

// Validate checks an edit. Unlike drafts, edits may keep a deadline that already passed.
func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrTitleRequired
	}
	if p.Deadline != nil && p.Deadline.IsZero() {
		return ErrDeadlineRequired
	}
	if p.Priority != nil && !p.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if p.Category != nil && !p.Category.IsValid() {
		return ErrInvalidCategory
	}
	if p.NotifyBefore != nil && *p.NotifyBefore < 0 {
		return ErrInvalidNotify
	}
	return nil
}

// ValidateFor checks the edit against the reminder it applies to. A completed
// reminder keeps its deadline, so its outcome always matches Classify.
func (p Patch) ValidateFor(r Reminder) error {
	if r.IsCompleted && p.Deadline != nil && !p.Deadline.Equal(r.Deadline) {
		return ErrDeadlineSettled
	}
	return nil
}

// Apply returns a copy of r with the patch applied.
func (p Patch) Apply(r Reminder, now time.Time) Reminder {
	if p.Title != nil {
		r.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		r.Description = strings.TrimSpace(*p.Description)
	}
	if p.Deadline != nil {
		r.Deadline = *p.Deadline
	}
	if p.Priority != nil {
		r.Priority = *p.Priority
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.NotifyBefore != nil {
		r.NotifyBefore = *p.NotifyBefore
	}
	r.UpdatedAt = now
	return r
}

// Clock supplies the current instant. Tests substitute a fixed or manual clock.
type Clock func() time.Time

// Now returns the clock's instant, falling back to time.Now for a nil clock.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
