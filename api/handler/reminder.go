package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gameday/api/transport"
	"github.com/fastygo/gameday/domain"
	"github.com/fastygo/gameday/pkg/countdown"
	"github.com/fastygo/gameday/pkg/httpcontext"
	appLogger "github.com/fastygo/gameday/pkg/logger"
	"github.com/fastygo/gameday/usecase/reminder"
)

// StoreSource hands out the reminder store currently in effect and forwards
// its snapshots. The session manager implements it.
type StoreSource interface {
	Store() reminder.Store
	Subscribe(fn reminder.Listener) func()
}

type ReminderHandler struct {
	baseHandler
	source    StoreSource
	countdown *countdown.Evaluator
	clock     domain.Clock
}

func NewReminderHandler(source StoreSource, evaluator *countdown.Evaluator, clock domain.Clock, adapter *httpcontext.Adapter, logger *zap.Logger) *ReminderHandler {
	if evaluator == nil {
		evaluator = countdown.New(countdown.DefaultThresholds)
	}
	return &ReminderHandler{
		baseHandler: newBaseHandler(adapter, logger),
		source:      source,
		countdown:   evaluator,
		clock:       clock,
	}
}

// @Summary Create reminder
// @Tags reminders
// @Router /api/v1/reminders [post]
func (h *ReminderHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.ReminderRequest
	if !h.decode(ctx, &req) {
		return
	}
	draft, err := req.Draft()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.source.Store().Add(stdCtx, draft)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	appLogger.WithRequestID(stdCtx, h.logger).Debug("reminder created", zap.String("reminder_id", created.ID))
	h.respondSuccess(ctx, http.StatusCreated, h.view(created))
}

// @Summary Edit reminder
// @Tags reminders
// @Router /api/v1/reminders/{id} [patch]
func (h *ReminderHandler) Update(ctx *fasthttp.RequestCtx) {
	var req transport.ReminderPatchRequest
	if !h.decode(ctx, &req) {
		return
	}
	patch, err := req.Patch()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.source.Store().Update(stdCtx, pathID(ctx), patch)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.view(updated))
}

// @Summary Delete reminder
// @Tags reminders
// @Router /api/v1/reminders/{id} [delete]
func (h *ReminderHandler) Delete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.source.Store().Delete(stdCtx, pathID(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Complete reminder
// @Tags reminders
// @Router /api/v1/reminders/{id}/complete [post]
func (h *ReminderHandler) Complete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	done, err := h.source.Store().Complete(stdCtx, pathID(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.view(done))
}

// @Summary Upcoming reminders
// @Tags reminders
// @Router /api/v1/reminders/upcoming [get]
func (h *ReminderHandler) Upcoming(ctx *fasthttp.RequestCtx) {
	h.respondViews(ctx, "upcoming", h.source.Store().Upcoming())
}

// @Summary Completed reminders
// @Tags reminders
// @Router /api/v1/reminders/completed [get]
func (h *ReminderHandler) Completed(ctx *fasthttp.RequestCtx) {
	h.respondViews(ctx, "completed", h.source.Store().Completed())
}

// @Summary Overdue reminders
// @Tags reminders
// @Router /api/v1/reminders/overdue [get]
func (h *ReminderHandler) Overdue(ctx *fasthttp.RequestCtx) {
	h.respondViews(ctx, "overdue", h.source.Store().Overdue())
}

// @Summary Reminder countdown
// @Tags reminders
// @Router /api/v1/reminders/{id}/countdown [get]
func (h *ReminderHandler) Countdown(ctx *fasthttp.RequestCtx) {
	r, err := h.source.Store().Get(pathID(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.countdown.Evaluate(r.Deadline, h.clock.Now()))
}

// @Summary Scoreboard
// @Tags stats
// @Router /api/v1/stats [get]
func (h *ReminderHandler) Stats(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, transport.NewStatsView(h.source.Store().Stats()))
}

func (h *ReminderHandler) respondViews(ctx *fasthttp.RequestCtx, name string, list []domain.Reminder) {
	views := make([]transport.ReminderView, 0, len(list))
	for _, r := range list {
		views = append(views, h.view(r))
	}
	h.respondList(ctx, views, transport.ListMeta{Count: len(views), View: name})
}

func (h *ReminderHandler) view(r domain.Reminder) transport.ReminderView {
	v := transport.ReminderView{Reminder: r}
	if !r.IsCompleted {
		c := h.countdown.Evaluate(r.Deadline, h.clock.Now())
		v.Countdown = &c
	}
	return v
}

func pathID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}
