package countdown

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

func TestEvaluateOverdue(t *testing.T) {
	for _, deadline := range []time.Time{now, now.Add(-time.Second), now.Add(-72 * time.Hour)} {
		res := Evaluate(deadline, now)
		assert.True(t, res.Overdue)
		assert.Equal(t, UrgencyOverdue, res.Urgency)
		assert.Equal(t, Result{Overdue: true, Urgency: UrgencyOverdue, Display: "Overdue!"}, res)
	}
}

func TestEvaluateBreakdown(t *testing.T) {
	deadline := now.Add(2*24*time.Hour + 5*time.Hour + 7*time.Minute + 9*time.Second + 500*time.Millisecond)

	res := Evaluate(deadline, now)

	require.False(t, res.Overdue)
	assert.Equal(t, 2, res.Days)
	assert.Equal(t, 5, res.Hours)
	assert.Equal(t, 7, res.Minutes)
	assert.Equal(t, 9, res.Seconds)
	assert.Equal(t, 2*1440+5*60+7, res.TotalMinutes)
	assert.Equal(t, UrgencyUpcoming, res.Urgency)
	assert.Equal(t, "2d 5h", res.Display)
}

func TestEvaluateUrgencyTiers(t *testing.T) {
	tests := []struct {
		left time.Duration
		want Urgency
		text string
	}{
		{30 * time.Second, UrgencyCritical, "30s"},
		{60 * time.Minute, UrgencyCritical, "1h 0m"},
		{60*time.Minute + time.Minute, UrgencyUrgent, "1h 1m"},
		{180 * time.Minute, UrgencyUrgent, "3h 0m"},
		{181 * time.Minute, UrgencySoon, "3h 1m"},
		{1440 * time.Minute, UrgencySoon, "1d 0h"},
		{4320 * time.Minute, UrgencyUpcoming, "3d 0h"},
		{4321 * time.Minute, UrgencyNormal, "3d 0h"},
		{90 * time.Second, UrgencyCritical, "1m 30s"},
	}

	for _, tt := range tests {
		res := Evaluate(now.Add(tt.left), now)
		assert.Equal(t, tt.want, res.Urgency, "left=%s", tt.left)
		assert.Equal(t, tt.text, res.Display, "left=%s", tt.left)
	}
}

func TestCustomThresholds(t *testing.T) {
	ev := New(Thresholds{Critical: 10, Urgent: 20})

	assert.Equal(t, UrgencyCritical, ev.Evaluate(now.Add(10*time.Minute), now).Urgency)
	assert.Equal(t, UrgencyUrgent, ev.Evaluate(now.Add(15*time.Minute), now).Urgency)
	assert.Equal(t, UrgencySoon, ev.Evaluate(now.Add(30*time.Minute), now).Urgency)
	assert.Equal(t, DefaultThresholds.Soon, ev.Thresholds().Soon)
}

func TestEvaluatorIsSafeForConcurrentUse(t *testing.T) {
	ev := New(DefaultThresholds)
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := ev.Evaluate(now.Add(time.Duration(i)*time.Hour), now)
			if i == 0 {
				assert.True(t, res.Overdue)
				return
			}
			assert.Equal(t, i, res.Days*24+res.Hours)
		}(i)
	}
	wg.Wait()
}
