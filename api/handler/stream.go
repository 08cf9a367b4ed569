package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gameday/api/transport"
	"github.com/fastygo/gameday/pkg/httpcontext"
	"github.com/fastygo/gameday/usecase/reminder"
)

const streamHeartbeat = 15 * time.Second

type streamEvent struct {
	Reminders []transport.ReminderView `json:"reminders"`
	Stats     transport.StatsView      `json:"stats"`
}

// StreamHandler pushes the full reminder collection and stats to clients as
// server-sent events, one "snapshot" event per change.
type StreamHandler struct {
	baseHandler
	reminders *ReminderHandler

	closeOnce sync.Once
	closing   chan struct{}
}

func NewStreamHandler(reminders *ReminderHandler, adapter *httpcontext.Adapter, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		baseHandler: newBaseHandler(adapter, logger),
		reminders:   reminders,
		closing:     make(chan struct{}),
	}
}

// Close ends every open stream.
func (h *StreamHandler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// @Summary Reminder snapshots
// @Tags reminders
// @Router /api/v1/stream [get]
func (h *StreamHandler) Stream(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.SetStatusCode(fasthttp.StatusOK)

	source := h.reminders.source
	initial := source.Store().Snapshot()

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		updates := make(chan reminder.Snapshot, 1)
		unsubscribe := source.Subscribe(func(s reminder.Snapshot) {
			// Keep only the newest snapshot for slow clients.
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- s:
			default:
			}
		})
		defer unsubscribe()

		if err := h.write(w, initial); err != nil {
			return
		}

		ticker := time.NewTicker(streamHeartbeat)
		defer ticker.Stop()

		for {
			select {
			case snap := <-updates:
				if err := h.write(w, snap); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-h.closing:
				return
			}
		}
	})
}

func (h *StreamHandler) write(w *bufio.Writer, snap reminder.Snapshot) error {
	event := streamEvent{
		Reminders: make([]transport.ReminderView, 0, len(snap.Reminders)),
		Stats:     transport.NewStatsView(snap.Stats),
	}
	for _, r := range snap.Reminders {
		event.Reminders = append(event.Reminders, h.reminders.view(r))
	}
	body, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode snapshot failed", zap.Error(err))
		return err
	}
	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", body); err != nil {
		return err
	}
	return w.Flush()
}
