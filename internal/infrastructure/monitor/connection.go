package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PostgresPinger is satisfied by *pgxpool.Pool.
type PostgresPinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger reduces a Redis client to a ping.
type RedisPinger func(ctx context.Context) error

// LocalProbe is satisfied by *localstore.Store.
type LocalProbe interface {
	Ping() error
	Size() (int, error)
}

type Monitor struct {
	pg    PostgresPinger
	redis RedisPinger
	local LocalProbe

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// New builds a monitor. pg and redis may be nil when remote sync is disabled.
func New(pg PostgresPinger, redis RedisPinger, local LocalProbe, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pg:       pg,
		redis:    redis,
		local:    local,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh pings every dependency concurrently and records the result.
func (m *Monitor) Refresh() Status {
	status := Status{RemoteEnabled: m.pg != nil || m.redis != nil}

	var g errgroup.Group
	g.Go(func() error {
		status.PostgreSQL = m.checkPostgres()
		return nil
	})
	g.Go(func() error {
		status.Redis = m.checkRedis()
		return nil
	})
	g.Go(func() error {
		status.Local, status.LocalSize = m.checkLocal()
		return nil
	})
	_ = g.Wait()
	status.LastCheck = time.Now()

	if status.RemoteEnabled && !(status.PostgreSQL && status.Redis) {
		m.logger.Warn("remote backend unreachable",
			zap.Bool("postgresql", status.PostgreSQL),
			zap.Bool("redis", status.Redis))
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
	return status
}

func (m *Monitor) checkPostgres() bool {
	if m.pg == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.pg.Ping(ctx) == nil
}

func (m *Monitor) checkRedis() bool {
	if m.redis == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.redis(ctx) == nil
}

func (m *Monitor) checkLocal() (bool, int) {
	if m.local == nil {
		return false, 0
	}
	if err := m.local.Ping(); err != nil {
		m.logger.Warn("local store check failed", zap.Error(err))
		return false, 0
	}
	size, err := m.local.Size()
	if err != nil {
		m.logger.Warn("local store size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
