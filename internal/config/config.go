package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Escalation EscalationConfig
	Reopen     ReopenConfig
	Notify     NotifyConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token validation parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// EscalationConfig tunes the severity evaluator and the re-scan scheduler.
type EscalationConfig struct {
	GreenUntilMinutes  int
	YellowUntilMinutes int
	OrangeUntilMinutes int
	SweepIntervalSec   int
}

// ReopenConfig tunes the reopen workflow.
type ReopenConfig struct {
	WindowHours      int
	MinRejectionNote int
}

// NotifyConfig holds channel endpoints and the per-channel time budget.
type NotifyConfig struct {
	EmailFrom         string
	SMTPAddr          string
	SMTPUser          string
	SMTPPassword      string
	SlackBotToken     string
	DeliverTimeoutSec int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-core"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Escalation: EscalationConfig{
			GreenUntilMinutes:  getEnvAsInt("ESCALATION_GREEN_UNTIL_MINUTES", 1),
			YellowUntilMinutes: getEnvAsInt("ESCALATION_YELLOW_UNTIL_MINUTES", 3),
			OrangeUntilMinutes: getEnvAsInt("ESCALATION_ORANGE_UNTIL_MINUTES", 5),
			SweepIntervalSec:   getEnvAsInt("ESCALATION_SWEEP_INTERVAL_SECONDS", 60),
		},
		Reopen: ReopenConfig{
			WindowHours:      getEnvAsInt("REOPEN_WINDOW_HOURS", 72),
			MinRejectionNote: getEnvAsInt("REOPEN_MIN_REJECTION_NOTE", 10),
		},
		Notify: NotifyConfig{
			EmailFrom:         getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			SMTPAddr:          getEnv("NOTIFY_SMTP_ADDR", ""),
			SMTPUser:          getEnv("NOTIFY_SMTP_USER", ""),
			SMTPPassword:      os.Getenv("NOTIFY_SMTP_PASSWORD"),
			SlackBotToken:     os.Getenv("NOTIFY_SLACK_BOT_TOKEN"),
			DeliverTimeoutSec: getEnvAsInt("NOTIFY_DELIVER_TIMEOUT_SECONDS", 5),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SweepInterval returns the scheduler cadence.
func (e EscalationConfig) SweepInterval() time.Duration {
	if e.SweepIntervalSec <= 0 {
		return time.Minute
	}
	return time.Duration(e.SweepIntervalSec) * time.Second
}

// Window returns the reopen deadline measured from final state.
func (r ReopenConfig) Window() time.Duration {
	if r.WindowHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(r.WindowHours) * time.Hour
}

// DeliverTimeout bounds a single channel delivery attempt.
func (n NotifyConfig) DeliverTimeout() time.Duration {
	if n.DeliverTimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.DeliverTimeoutSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
