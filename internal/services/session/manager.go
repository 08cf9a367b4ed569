// Package session selects the reminder backend from the authentication state
// and owns the timers that write to it.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/gameday/domain"
	"github.com/fastygo/gameday/internal/services"
	"github.com/fastygo/gameday/repository"
	"github.com/fastygo/gameday/usecase/reconcile"
	"github.com/fastygo/gameday/usecase/reminder"
)

// Config holds the timer cadences and the clock shared by every store.
type Config struct {
	SweepInterval  time.Duration
	NotifyInterval time.Duration
	Clock          domain.Clock
}

// Remote bundles the dependencies of the synchronized backend. A zero Remote
// means the process runs local-only and Login is rejected.
type Remote struct {
	Reminders repository.ReminderRepository
	Feed      repository.ChangeFeed
	Alerts    services.Publisher
}

// Manager starts out on the local store. Login swaps in the identity's remote
// store after reconciling, Logout swaps back. Sweeper and notifier always run
// against the active store and are stopped before every swap. Writes made
// through Store wait for a swap in progress to finish.
type Manager struct {
	local  *reminder.LocalStore
	remote Remote
	cfg    Config
	logger *zap.Logger

	opMu sync.Mutex
	gate sync.RWMutex

	mu          sync.RWMutex
	active      reminder.Store
	remoteStore *reminder.RemoteStore
	userID      string
	reconciled  reconcile.Result
	sweeper     *services.Sweeper
	notifier    *services.Notifier
	unsubscribe func()

	lmu       sync.Mutex
	listeners map[int]reminder.Listener
	nextID    int
}

func NewManager(local *reminder.LocalStore, remote Remote, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		local:     local,
		remote:    remote,
		cfg:       cfg,
		logger:    logger,
		active:    local,
		listeners: make(map[int]reminder.Listener),
	}
}

// RemoteEnabled reports whether Login can succeed.
func (m *Manager) RemoteEnabled() bool {
	return m.remote.Reminders != nil
}

// Start launches the timers for the local store.
func (m *Manager) Start() {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.activate(m.local, "")
}

// Stop halts the timers and the remote subscription. The manager can be
// started again afterwards.
func (m *Manager) Stop(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.stopTimers(ctx)
	m.mu.Lock()
	remote := m.remoteStore
	m.mu.Unlock()
	if remote != nil {
		remote.Stop()
	}
	return nil
}

// Store returns a view of the backend in effect whose writes are held while
// the backend switches.
func (m *Manager) Store() reminder.Store {
	return gatedStore{m: m}
}

// Active returns the backend currently in effect.
func (m *Manager) Active() reminder.Store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// UserID returns the logged-in identity, or "" when running local-only.
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID
}

// Reconciled returns how the current login reconciled local and remote reminders.
func (m *Manager) Reconciled() reconcile.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reconciled
}

// Login switches to userID's remote store. The reconciler runs once for the
// login; logging in again as the same identity is a no-op.
func (m *Manager) Login(ctx context.Context, userID string) (reconcile.Result, error) {
	if !m.RemoteEnabled() {
		return reconcile.Result{}, domain.ErrRemoteDisabled
	}
	if userID == "" {
		return reconcile.Result{}, domain.ErrUnauthorized
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.UserID() == userID {
		return reconcile.Result{Outcome: reconcile.OutcomeSkipped}, nil
	}

	m.gate.Lock()
	defer m.gate.Unlock()

	// No timer may write to the local store while it is being pushed.
	m.stopTimers(ctx)
	if m.UserID() != "" {
		m.logoutLocked(ctx)
	}

	store := reminder.NewRemoteStore(userID, m.remote.Reminders, m.remote.Feed, m.cfg.Clock, m.logger)
	if err := store.Start(ctx); err != nil {
		m.activate(m.local, "")
		return reconcile.Result{}, err
	}

	result, err := reconcile.New(m.local, store, m.logger).Run(ctx)
	if err != nil {
		store.Stop()
		m.activate(m.local, "")
		return reconcile.Result{}, err
	}

	m.mu.Lock()
	m.remoteStore = store
	m.reconciled = result
	m.mu.Unlock()
	m.activate(store, userID)

	m.logger.Info("session started", zap.String("user_id", userID), zap.String("reconcile", string(result.Outcome)))
	return result, nil
}

// Logout returns to the local store. Logging out while local-only does nothing.
func (m *Manager) Logout(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if m.UserID() == "" {
		return
	}

	m.gate.Lock()
	defer m.gate.Unlock()
	m.logoutLocked(ctx)
	m.activate(m.local, "")
}

func (m *Manager) logoutLocked(ctx context.Context) {
	m.stopTimers(ctx)

	m.mu.Lock()
	store, userID := m.remoteStore, m.userID
	m.remoteStore = nil
	m.userID = ""
	m.reconciled = reconcile.Result{}
	m.mu.Unlock()

	if store != nil {
		store.Stop()
	}
	m.logger.Info("session ended", zap.String("user_id", userID))
}

// activate makes store the active backend, forwards its snapshots and starts
// the timers bound to it.
func (m *Manager) activate(store reminder.Store, userID string) {
	sinks := []services.AlertSink{services.LogSink{Logger: m.logger}}
	if userID != "" && m.remote.Alerts != nil {
		sinks = append(sinks, services.PublishSink{Publisher: m.remote.Alerts, UserID: userID})
	}
	logger := m.logger
	if userID != "" {
		logger = logger.With(zap.String("user_id", userID))
	}

	sweeper := services.NewSweeper(store, logger, services.SweeperConfig{
		Interval: m.cfg.SweepInterval,
		Clock:    m.cfg.Clock,
	})
	notifier := services.NewNotifier(store, logger, services.NotifierConfig{
		Interval: m.cfg.NotifyInterval,
		Clock:    m.cfg.Clock,
	}, sinks...)

	m.mu.Lock()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.active = store
	m.userID = userID
	m.sweeper = sweeper
	m.notifier = notifier
	m.unsubscribe = store.Subscribe(m.broadcast)
	m.mu.Unlock()

	m.broadcast(store.Snapshot())
	sweeper.Start()
	notifier.Start()
}

func (m *Manager) stopTimers(ctx context.Context) {
	m.mu.Lock()
	sweeper, notifier := m.sweeper, m.notifier
	m.sweeper, m.notifier = nil, nil
	m.mu.Unlock()

	sweeper.Stop(ctx)
	notifier.Stop(ctx)
}

// Subscribe registers fn for snapshots of whichever store is active, including
// the snapshot of a newly activated store.
func (m *Manager) Subscribe(fn reminder.Listener) func() {
	if fn == nil {
		return func() {}
	}
	m.lmu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.lmu.Lock()
			delete(m.listeners, id)
			m.lmu.Unlock()
		})
	}
}

func (m *Manager) broadcast(snap reminder.Snapshot) {
	m.lmu.Lock()
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]reminder.Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.listeners[id])
	}
	m.lmu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
