package transport

import (
	"strings"
	"time"

	"github.com/fastygo/gameday/domain"
)

var errDeadlineFormat = domain.NewFieldError("deadline", "deadline must be an RFC 3339 timestamp")

// ReminderRequest is the createTask payload, shared by manual entry and any
// draft producer.
type ReminderRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Deadline     string `json:"deadline"`
	Priority     string `json:"priority"`
	Category     string `json:"category"`
	NotifyBefore int    `json:"notify_before"`
}

func (r ReminderRequest) Draft() (domain.Draft, error) {
	draft := domain.Draft{
		Title:        r.Title,
		Description:  r.Description,
		Priority:     domain.Priority(r.Priority),
		Category:     domain.Category(r.Category),
		NotifyBefore: r.NotifyBefore,
	}
	if strings.TrimSpace(r.Deadline) == "" {
		return draft, domain.ErrDeadlineRequired
	}
	deadline, err := time.Parse(time.RFC3339, r.Deadline)
	if err != nil {
		return draft, errDeadlineFormat
	}
	draft.Deadline = deadline
	return draft, nil
}

// ReminderPatchRequest is the editTask payload. Omitted fields stay unchanged.
type ReminderPatchRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Deadline     *string `json:"deadline"`
	Priority     *string `json:"priority"`
	Category     *string `json:"category"`
	NotifyBefore *int    `json:"notify_before"`
}

func (r ReminderPatchRequest) Patch() (domain.Patch, error) {
	patch := domain.Patch{
		Title:        r.Title,
		Description:  r.Description,
		NotifyBefore: r.NotifyBefore,
	}
	if r.Deadline != nil {
		deadline, err := time.Parse(time.RFC3339, *r.Deadline)
		if err != nil {
			return patch, errDeadlineFormat
		}
		patch.Deadline = &deadline
	}
	if r.Priority != nil {
		p := domain.Priority(*r.Priority)
		patch.Priority = &p
	}
	if r.Category != nil {
		c := domain.Category(*r.Category)
		patch.Category = &c
	}
	return patch, nil
}

type AuthLoginRequest struct {
	TTL int `json:"ttl_seconds"`
}

// RefreshRequest optionally overrides the session lifetime. The session
// itself is named by the X-Session-ID header.
type RefreshRequest struct {
	TTL int `json:"ttl_seconds"`
}
