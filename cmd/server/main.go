package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/gameday/api/handler"
	"github.com/fastygo/gameday/domain"
	"github.com/fastygo/gameday/internal/config"
	"github.com/fastygo/gameday/internal/infrastructure/localstore"
	"github.com/fastygo/gameday/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/gameday/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/gameday/internal/infrastructure/redis"
	"github.com/fastygo/gameday/internal/middleware"
	"github.com/fastygo/gameday/internal/router"
	"github.com/fastygo/gameday/internal/services"
	"github.com/fastygo/gameday/internal/services/lifecycle"
	"github.com/fastygo/gameday/internal/services/session"
	"github.com/fastygo/gameday/pkg/countdown"
	"github.com/fastygo/gameday/pkg/httpcontext"
	"github.com/fastygo/gameday/pkg/logger"
	"github.com/fastygo/gameday/repository"
	"github.com/fastygo/gameday/repository/postgres"
	redisRepo "github.com/fastygo/gameday/repository/redis"
	authUC "github.com/fastygo/gameday/usecase/auth"
	"github.com/fastygo/gameday/usecase/reminder"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	clock := domain.Clock(time.Now)

	disk, err := localstore.Open(cfg.Local.Path, cfg.Local.Bucket)
	if err != nil {
		zapLogger.Fatal("failed to open local reminder store", zap.Error(err))
	}
	manager.Register("local_store", func(ctx context.Context) error {
		return disk.Close()
	})

	localStore, err := reminder.NewLocalStore(disk, clock, zapLogger.Named("local"))
	if err != nil {
		zapLogger.Fatal("failed to load local reminders", zap.Error(err))
	}

	var (
		remote      session.Remote
		userRepo    repository.UserRepository
		sessionRepo repository.SessionRepository
		pgPinger    monitor.PostgresPinger
		redisPing   monitor.RedisPinger
	)

	if cfg.Remote.Enabled {
		if cfg.Migrations.Enabled {
			if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
				zapLogger.Fatal("migrations failed", zap.Error(err))
			}
		}

		pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})

		redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, cfg.AppName)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})

		pgPinger = pool
		redisPing = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }

		remote = session.Remote{
			Reminders: postgres.NewReminderRepository(pool),
			Feed:      redisRepo.NewChangeFeed(redisClient, zapLogger),
			Alerts:    redisRepo.NewAlertPublisher(redisClient),
		}
		userRepo = postgres.NewUserRepository(pool)
		sessionRepo = redisRepo.NewSessionRepository(redisClient, cfg.JWT.SessionTTL)
	}

	sessions := session.NewManager(localStore, remote, session.Config{
		SweepInterval:  cfg.Schedule.SweepInterval,
		NotifyInterval: cfg.Schedule.NotifyInterval,
		Clock:          clock,
	}, zapLogger.Named("session"))

	mon := monitor.New(pgPinger, redisPing, disk, cfg.Remote.MonitorInterval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	sessions.Start()
	manager.Register("session", sessions.Stop)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	evaluator := countdown.New(countdown.Thresholds{
		Critical: cfg.Urgency.CriticalMinutes,
		Urgent:   cfg.Urgency.UrgentMinutes,
		Soon:     cfg.Urgency.SoonMinutes,
		Upcoming: cfg.Urgency.UpcomingMinutes,
	})

	reminders := apiHandler.NewReminderHandler(sessions, evaluator, clock, ctxAdapter, zapLogger)
	stream := apiHandler.NewStreamHandler(reminders, ctxAdapter, zapLogger)

	authUseCase := authUC.New(userRepo, sessionRepo, sessions, clock, zapLogger)

	if cfg.Remote.Enabled {
		watcher := services.NewSessionWatcher(authUseCase, zapLogger.Named("session_watch"), services.SessionWatcherConfig{
			Interval: cfg.Schedule.SessionCheckInterval,
		})
		watcher.Start()
		manager.Register("session_watch", func(ctx context.Context) error {
			watcher.Stop(ctx)
			return nil
		})
	}

	handlers := router.Handlers{
		Auth:      apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.JWT.SessionTTL),
		Reminders: reminders,
		Stream:    stream,
		Health:    apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	sessionMiddleware := middleware.RequireSession(authUseCase, zapLogger)
	r := router.New(handlers, authMiddleware, sessionMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.Bool("remote_enabled", cfg.Remote.Enabled))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})
	manager.Register("stream", func(ctx context.Context) error {
		stream.Close()
		return nil
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
