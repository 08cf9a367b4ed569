// Package countdown turns a deadline into a live "time remaining" breakdown
// with an urgency tier. Everything here is a pure function of its inputs.
package countdown

import (
	"fmt"
	"time"
)

// Urgency buckets the time left before a deadline.
type Urgency string

const (
	UrgencyOverdue  Urgency = "overdue"
	UrgencyCritical Urgency = "critical"
	UrgencyUrgent   Urgency = "urgent"
	UrgencySoon     Urgency = "soon"
	UrgencyUpcoming Urgency = "upcoming"
	UrgencyNormal   Urgency = "normal"
)

// Thresholds are inclusive upper bounds in minutes for each urgency tier.
type Thresholds struct {
	Critical int
	Urgent   int
	Soon     int
	Upcoming int
}

// DefaultThresholds: one hour, three hours, one day, three days.
var DefaultThresholds = Thresholds{
	Critical: 60,
	Urgent:   180,
	Soon:     1440,
	Upcoming: 4320,
}

// Result is a display-ready countdown.
type Result struct {
	Days         int     `json:"days"`
	Hours        int     `json:"hours"`
	Minutes      int     `json:"minutes"`
	Seconds      int     `json:"seconds"`
	TotalMinutes int     `json:"total_minutes"`
	Overdue      bool    `json:"overdue"`
	Urgency      Urgency `json:"urgency"`
	Display      string  `json:"display"`
}

// Evaluator classifies countdowns against a set of thresholds.
type Evaluator struct {
	thresholds Thresholds
}

// New builds an Evaluator; zero-valued thresholds fall back to the defaults.
func New(t Thresholds) *Evaluator {
	if t.Critical <= 0 {
		t.Critical = DefaultThresholds.Critical
	}
	if t.Urgent <= 0 {
		t.Urgent = DefaultThresholds.Urgent
	}
	if t.Soon <= 0 {
		t.Soon = DefaultThresholds.Soon
	}
	if t.Upcoming <= 0 {
		t.Upcoming = DefaultThresholds.Upcoming
	}
	return &Evaluator{thresholds: t}
}

// Thresholds returns the tier bounds in use.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate computes the countdown from now to deadline using the default thresholds.
func Evaluate(deadline, now time.Time) Result {
	return New(DefaultThresholds).Evaluate(deadline, now)
}

// Evaluate computes the countdown from now to deadline. Once now reaches the
// deadline the result is overdue with every component zero.
func (e *Evaluator) Evaluate(deadline, now time.Time) Result {
	if !now.Before(deadline) {
		return Result{Overdue: true, Urgency: UrgencyOverdue, Display: "Overdue!"}
	}

	total := int64(deadline.Sub(now) / time.Second)
	res := Result{
		Days:         int(total / 86400),
		Hours:        int(total / 3600 % 24),
		Minutes:      int(total / 60 % 60),
		Seconds:      int(total % 60),
		TotalMinutes: int(total / 60),
	}
	res.Urgency = e.urgency(res.TotalMinutes)
	res.Display = display(res)
	return res
}

func (e *Evaluator) urgency(totalMinutes int) Urgency {
	switch {
	case totalMinutes <= e.thresholds.Critical:
		return UrgencyCritical
	case totalMinutes <= e.thresholds.Urgent:
		return UrgencyUrgent
	case totalMinutes <= e.thresholds.Soon:
		return UrgencySoon
	case totalMinutes <= e.thresholds.Upcoming:
		return UrgencyUpcoming
	default:
		return UrgencyNormal
	}
}

func display(r Result) string {
	switch {
	case r.Days > 0:
		return fmt.Sprintf("%dd %dh", r.Days, r.Hours)
	case r.Hours > 0:
		return fmt.Sprintf("%dh %dm", r.Hours, r.Minutes)
	case r.Minutes > 0:
		return fmt.Sprintf("%dm %ds", r.Minutes, r.Seconds)
	default:
		return fmt.Sprintf("%ds", r.Seconds)
	}
}
