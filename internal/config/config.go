package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Local       LocalConfig
	Remote      RemoteConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Schedule    ScheduleConfig
	Urgency     UrgencyConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LocalConfig points at the device-local reminder file.
type LocalConfig struct {
	Path   string
	Bucket string
}

// RemoteConfig toggles the synchronized backend. Without it the app runs local-only
// and login is rejected.
type RemoteConfig struct {
	Enabled         bool
	MonitorInterval time.Duration
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
}

// ScheduleConfig holds the recurring timer cadences.
type ScheduleConfig struct {
	SweepInterval        time.Duration
	NotifyInterval       time.Duration
	SessionCheckInterval time.Duration
}

// UrgencyConfig holds the countdown tier bounds in minutes.
type UrgencyConfig struct {
	CriticalMinutes int
	UrgentMinutes   int
	SoonMinutes     int
	UpcomingMinutes int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults so the app can boot local-only with no environment at all.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "gameday"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "127.0.0.1"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Local: LocalConfig{
			Path:   getString("LOCAL_STORE_PATH", "./data/gameday.db"),
			Bucket: getString("LOCAL_STORE_BUCKET", "gameday"),
		},
		Remote: RemoteConfig{
			Enabled:         getBool("REMOTE_ENABLED", false),
			MonitorInterval: getDuration("MONITOR_INTERVAL", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "gameday"),
			User:            getString("DB_USER", "gameday"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 2),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Issuer:     getString("JWT_ISSUER", "gameday"),
			SessionTTL: getDuration("SESSION_TTL", 24*time.Hour),
		},
		Schedule: ScheduleConfig{
			SweepInterval:        getDuration("SWEEP_INTERVAL", time.Minute),
			NotifyInterval:       getDuration("NOTIFY_INTERVAL", time.Minute),
			SessionCheckInterval: getDuration("SESSION_CHECK_INTERVAL", 30*time.Second),
		},
		Urgency: UrgencyConfig{
			CriticalMinutes: getInt("URGENCY_CRITICAL_MINUTES", 60),
			UrgentMinutes:   getInt("URGENCY_URGENT_MINUTES", 180),
			SoonMinutes:     getInt("URGENCY_SOON_MINUTES", 1440),
			UpcomingMinutes: getInt("URGENCY_UPCOMING_MINUTES", 4320),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Remote.Enabled && c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required when REMOTE_ENABLED is set")
	}
	u := c.Urgency
	if !(u.CriticalMinutes < u.UrgentMinutes && u.UrgentMinutes < u.SoonMinutes && u.SoonMinutes < u.UpcomingMinutes) {
		return fmt.Errorf("urgency thresholds must be strictly increasing, got %d/%d/%d/%d",
			u.CriticalMinutes, u.UrgentMinutes, u.SoonMinutes, u.UpcomingMinutes)
	}
	sc := c.Schedule
	if sc.SweepInterval < time.Second || sc.NotifyInterval < time.Second || sc.SessionCheckInterval < time.Second {
		return fmt.Errorf("schedule intervals must be at least one second")
	}
	return nil
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
