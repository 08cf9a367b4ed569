package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/gameday/api/transport"
	"github.com/fastygo/gameday/domain"
	"github.com/fastygo/gameday/internal/testutil"
	"github.com/fastygo/gameday/pkg/countdown"
	"github.com/fastygo/gameday/pkg/httpcontext"
	"github.com/fastygo/gameday/usecase/reminder"
)

var gametime = time.Date(2025, 10, 12, 20, 15, 0, 0, time.UTC)

type localSource struct {
	store *reminder.LocalStore
}

func (s localSource) Store() reminder.Store { return s.store }

func (s localSource) Subscribe(fn reminder.Listener) func() { return s.store.Subscribe(fn) }

func newReminderHandler(t *testing.T) (*ReminderHandler, *reminder.LocalStore, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock(gametime)
	store, err := reminder.NewLocalStore(testutil.NewDisk(), clock.Now, nil)
	require.NoError(t, err)
	h := NewReminderHandler(localSource{store: store}, countdown.New(countdown.DefaultThresholds), clock.Now, httpcontext.NewAdapter(time.Second), nil)
	return h, store, clock
}

func request(method, body string, id string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	if id != "" {
		ctx.SetUserValue("id", id)
	}
	return ctx
}

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Meta   map[string]any  `json:"meta"`
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func TestCreateReminder(t *testing.T) {
	h, store, _ := newReminderHandler(t)

	ctx := request(http.MethodPost, `{"title":"Game plan","deadline":"2025-10-12T21:00:00Z","priority":"red-zone","category":"work","notify_before":30}`, "")
	h.Create(ctx)

	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode())
	env := decodeEnvelope(t, ctx)
	var view transport.ReminderView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "Game plan", view.Title)
	assert.Equal(t, domain.PriorityRedZone, view.Priority)
	require.NotNil(t, view.Countdown)
	assert.Equal(t, countdown.UrgencyCritical, view.Countdown.Urgency)
	assert.Equal(t, 45, view.Countdown.TotalMinutes)
	assert.NotEmpty(t, ctx.Response.Header.Peek("X-Request-ID"))

	assert.Len(t, store.Reminders(), 1)
}

func TestCreateReminderValidation(t *testing.T) {
	h, store, _ := newReminderHandler(t)

	cases := map[string]struct {
		body  string
		field string
	}{
		"empty title":   {`{"title":" ","deadline":"2025-10-12T21:00:00Z"}`, "title"},
		"no deadline":   {`{"title":"x"}`, "deadline"},
		"past deadline": {`{"title":"x","deadline":"2025-10-12T20:00:00Z"}`, "deadline"},
		"bad format":    {`{"title":"x","deadline":"tomorrow"}`, "deadline"},
		"bad priority":  {`{"title":"x","deadline":"2025-10-12T21:00:00Z","priority":"blitz"}`, "priority"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := request(http.MethodPost, tc.body, "")
			h.Create(ctx)

			assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
			env := decodeEnvelope(t, ctx)
			assert.Equal(t, string(domain.ErrCodeInvalid), env.Code)
			assert.Equal(t, tc.field, env.Meta["field"])
		})
	}

	ctx := request(http.MethodPost, `not json`, "")
	h.Create(ctx)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	assert.Empty(t, store.Reminders())
}

func TestCompleteAndStats(t *testing.T) {
	h, store, clock := newReminderHandler(t)
	created, err := store.Add(context.Background(), domain.Draft{Title: "Drive", Deadline: gametime.Add(time.Hour)})
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	ctx := request(http.MethodPost, "", created.ID)
	h.Complete(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	var done transport.ReminderView
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &done))
	assert.Equal(t, domain.CompletionTouchdown, done.CompletionStatus)
	assert.Nil(t, done.Countdown)

	ctx = request(http.MethodGet, "", "")
	h.Stats(ctx)
	var stats transport.StatsView
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &stats))
	assert.Equal(t, 1, stats.Touchdowns)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 100, stats.WinRate)
}

func TestNotFound(t *testing.T) {
	h, _, _ := newReminderHandler(t)

	ctx := request(http.MethodPost, "", "nope")
	h.Complete(ctx)
	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())

	ctx = request(http.MethodGet, "", "nope")
	h.Countdown(ctx)
	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())

	ctx = request(http.MethodDelete, "", "nope")
	h.Delete(ctx)
	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())
}

func TestUpdateDeleteAndLists(t *testing.T) {
	h, store, clock := newReminderHandler(t)
	a, err := store.Add(context.Background(), domain.Draft{Title: "a", Deadline: gametime.Add(2 * time.Hour)})
	require.NoError(t, err)
	b, err := store.Add(context.Background(), domain.Draft{Title: "b", Deadline: gametime.Add(time.Hour)})
	require.NoError(t, err)

	ctx := request(http.MethodPatch, `{"title":"a2","deadline":"2025-10-12T20:30:00Z"}`, a.ID)
	h.Update(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	ctx = request(http.MethodGet, "", "")
	h.Upcoming(ctx)
	env := decodeEnvelope(t, ctx)
	var views []transport.ReminderView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 2)
	assert.Equal(t, "a2", views[0].Title)
	assert.Equal(t, float64(2), env.Meta["count"])
	assert.Equal(t, "upcoming", env.Meta["view"])

	clock.Advance(45 * time.Minute)
	ctx = request(http.MethodGet, "", "")
	h.Overdue(ctx)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, a.ID, views[0].ID)
	assert.True(t, views[0].Countdown.Overdue)

	ctx = request(http.MethodDelete, "", b.ID)
	h.Delete(ctx)
	assert.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())

	ctx = request(http.MethodGet, "", "")
	h.Completed(ctx)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &views))
	assert.Empty(t, views)
}

func TestCountdown(t *testing.T) {
	h, store, _ := newReminderHandler(t)
	r, err := store.Add(context.Background(), domain.Draft{Title: "Bye week", Deadline: gametime.Add(50*time.Hour + 5*time.Minute)})
	require.NoError(t, err)

	ctx := request(http.MethodGet, "", r.ID)
	h.Countdown(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	var res countdown.Result
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &res))
	assert.Equal(t, 2, res.Days)
	assert.Equal(t, 2, res.Hours)
	assert.Equal(t, 5, res.Minutes)
	assert.Equal(t, countdown.UrgencyUpcoming, res.Urgency)
	assert.Equal(t, "2d 2h", res.Display)
}

func TestMapError(t *testing.T) {
	status, code := mapError(domain.Unavailable("load remote reminders", assert.AnError))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "UNAVAILABLE", code)
	assert.Equal(t, "load remote reminders", message(domain.Unavailable("load remote reminders", assert.AnError)))

	status, _ = mapError(domain.ErrRemoteDisabled)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = mapError(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
}
