package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ExpiryEnforcer ends remote sync once the logged-in identity has no live
// session. The auth use case implements it.
type ExpiryEnforcer interface {
	EnforceExpiry(ctx context.Context) (bool, error)
}

type SessionWatcherConfig struct {
	Interval time.Duration
}

// SessionWatcher periodically asks the enforcer to end sync for sessions
// that expired or were dropped from Redis.
type SessionWatcher struct {
	enforcer ExpiryEnforcer
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      SessionWatcherConfig

	runMu  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSessionWatcher(enforcer ExpiryEnforcer, logger *zap.Logger, cfg SessionWatcherConfig) *SessionWatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &SessionWatcher{
		enforcer: enforcer,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		ctx:      ctx,
		cancel:   cancel,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = w.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(w.ctx, cfg.Interval)
		defer cancel()
		w.Check(ctx)
	})

	return w
}

func (w *SessionWatcher) Start() {
	if w == nil || w.cron == nil {
		return
	}
	w.cron.Start()
	w.logger.Info("session watcher started", zap.Duration("interval", w.cfg.Interval))
}

func (w *SessionWatcher) Stop(ctx context.Context) {
	if w == nil || w.cron == nil {
		return
	}
	w.cancel()
	stopCtx := w.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	w.logger.Info("session watcher stopped")
}

// Check runs one expiry pass and reports whether it ended remote sync. A
// failed lookup keeps the login; the next pass retries.
func (w *SessionWatcher) Check(ctx context.Context) bool {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	ended, err := w.enforcer.EnforceExpiry(ctx)
	if err != nil {
		w.logger.Warn("session expiry check failed", zap.Error(err))
		return false
	}
	return ended
}
