package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fastygo/gameday/domain"
)

// Alert is handed to the notification collaborator when a reminder enters its
// alert window.
type Alert struct {
	ReminderID  string    `json:"reminder_id"`
	Title       string    `json:"title"`
	LeadMinutes int       `json:"lead_minutes"`
	Deadline    time.Time `json:"deadline"`
}

// AlertSink delivers alerts.
type AlertSink interface {
	Notify(ctx context.Context, alert Alert) error
}

// NotifyTarget supplies the open reminders, soonest first.
type NotifyTarget interface {
	Upcoming() []domain.Reminder
}

type NotifierConfig struct {
	Interval time.Duration
	Clock    domain.Clock
}

// Notifier checks upcoming reminders on a fixed cadence and raises an alert
// for each one whose notify time falls within the next interval.
type Notifier struct {
	target NotifyTarget
	sinks  []AlertSink
	logger *zap.Logger
	cron   *cron.Cron
	cfg    NotifierConfig

	mu     sync.Mutex
	fired  map[string]time.Time
	ctx    context.Context
	cancel context.CancelFunc
}

func NewNotifier(target NotifyTarget, logger *zap.Logger, cfg NotifierConfig, sinks ...AlertSink) *Notifier {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		target: target,
		sinks:  sinks,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
		fired:  make(map[string]time.Time),
		ctx:    ctx,
		cancel: cancel,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = n.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(n.ctx, cfg.Interval)
		defer cancel()
		if _, err := n.Check(ctx); err != nil {
			n.logger.Error("alert delivery failed", zap.Error(err))
		}
	})

	return n
}

// Start checks once right away so a notify time falling before the first tick
// is not missed, then launches the schedule.
func (n *Notifier) Start() {
	if n == nil || n.cron == nil {
		return
	}
	ctx, cancel := context.WithTimeout(n.ctx, n.cfg.Interval)
	if _, err := n.Check(ctx); err != nil {
		n.logger.Error("initial alert check failed", zap.Error(err))
	}
	cancel()

	n.cron.Start()
	n.logger.Info("notifier started", zap.Duration("interval", n.cfg.Interval))
}

func (n *Notifier) Stop(ctx context.Context) {
	if n == nil || n.cron == nil {
		return
	}
	n.cancel()
	stopCtx := n.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	n.logger.Info("notifier stopped")
}

// Check raises alerts for reminders whose notify time lies strictly between
// now and now+interval. Completed reminders and reminders without a lead time
// never alert. Each reminder alerts at most once per notify time; the record
// of a reminder is dropped once it leaves the upcoming list.
func (n *Notifier) Check(ctx context.Context) ([]Alert, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.cfg.Clock.Now()
	var (
		alerts []Alert
		errs   error
	)
	list := n.target.Upcoming()
	n.forget(list)
	for _, r := range list {
		if r.IsCompleted || r.NotifyBefore <= 0 {
			continue
		}
		notifyAt := r.Deadline.Add(-time.Duration(r.NotifyBefore) * time.Minute)
		until := notifyAt.Sub(now)
		if until <= 0 || until >= n.cfg.Interval {
			continue
		}
		if prev, ok := n.fired[r.ID]; ok && prev.Equal(notifyAt) {
			continue
		}

		alert := Alert{
			ReminderID:  r.ID,
			Title:       r.Title,
			LeadMinutes: r.NotifyBefore,
			Deadline:    r.Deadline,
		}
		for _, sink := range n.sinks {
			if err := sink.Notify(ctx, alert); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("reminder %s: %w", r.ID, err))
			}
		}
		n.fired[r.ID] = notifyAt
		alerts = append(alerts, alert)
	}
	return alerts, errs
}

func (n *Notifier) forget(upcoming []domain.Reminder) {
	if len(n.fired) == 0 {
		return
	}
	live := make(map[string]struct{}, len(upcoming))
	for _, r := range upcoming {
		live[r.ID] = struct{}{}
	}
	for id := range n.fired {
		if _, ok := live[id]; !ok {
			delete(n.fired, id)
		}
	}
}

// LogSink writes alerts to the application log.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Notify(_ context.Context, alert Alert) error {
	if s.Logger == nil {
		return nil
	}
	s.Logger.Info("reminder alert",
		zap.String("reminder_id", alert.ReminderID),
		zap.String("title", alert.Title),
		zap.Int("lead_minutes", alert.LeadMinutes),
		zap.Time("deadline", alert.Deadline))
	return nil
}

// Publisher fans a payload out to an identity's subscribers.
type Publisher interface {
	Publish(ctx context.Context, userID string, payload interface{}) error
}

// PublishSink forwards alerts to a per-identity channel, such as the Redis
// alert publisher.
type PublishSink struct {
	Publisher Publisher
	UserID    string
}

func (s PublishSink) Notify(ctx context.Context, alert Alert) error {
	if s.Publisher == nil {
		return nil
	}
	return s.Publisher.Publish(ctx, s.UserID, alert)
}
