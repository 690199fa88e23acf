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
	App         AppConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Logger      LoggerConfig
	Auth        AuthConfig
	Tickets     TicketsConfig
	AutoClose   AutoCloseConfig
	Entitlement EntitlementConfig
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

// PostgresConfig holds DB connection values. An empty DSN switches the
// service to in-memory repositories.
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

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	BootstrapAPIKey       string
}

// TicketsConfig defines lifecycle guard parameters.
type TicketsConfig struct {
	MaxOpenPerCreator int
	BotUserID         string
	ForwardOfferTTL   time.Duration
}

// AutoCloseConfig defines the staleness sweep parameters. The sweep interval
// must stay well below the warn window so a warning is always observed at
// least once before the close fires.
type AutoCloseConfig struct {
	SweepInterval  time.Duration
	StartupDelay   time.Duration
	CloseThreshold time.Duration
	WarnWindow     time.Duration
	ExemptPriority int
}

// EntitlementConfig defines tier resolution parameters.
type EntitlementConfig struct {
	SupportTenantID string
	TrialDays       int
	RenewalDays     int
	CacheTTL        time.Duration
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
			Name:                  getEnv("APP_NAME", "supportdesk"),
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
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			BootstrapAPIKey:       os.Getenv("AUTH_BOOTSTRAP_API_KEY"),
		},
		Tickets: TicketsConfig{
			MaxOpenPerCreator: getEnvAsInt("TICKET_MAX_OPEN_PER_CREATOR", 3),
			BotUserID:         getEnv("TICKET_BOT_USER_ID", "supportdesk-bot"),
			ForwardOfferTTL:   getEnvAsDuration("TICKET_FORWARD_OFFER_TTL", 24*time.Hour),
		},
		AutoClose: AutoCloseConfig{
			SweepInterval:  getEnvAsDuration("AUTOCLOSE_SWEEP_INTERVAL", 10*time.Minute),
			StartupDelay:   getEnvAsDuration("AUTOCLOSE_STARTUP_DELAY", 30*time.Second),
			CloseThreshold: getEnvAsDuration("AUTOCLOSE_THRESHOLD", 72*time.Hour),
			WarnWindow:     getEnvAsDuration("AUTOCLOSE_WARN_WINDOW", 24*time.Hour),
			ExemptPriority: getEnvAsInt("AUTOCLOSE_EXEMPT_PRIORITY", 2),
		},
		Entitlement: EntitlementConfig{
			SupportTenantID: getEnv("ENTITLEMENT_SUPPORT_TENANT_ID", ""),
			TrialDays:       getEnvAsInt("ENTITLEMENT_TRIAL_DAYS", 14),
			RenewalDays:     getEnvAsInt("ENTITLEMENT_RENEWAL_DAYS", 30),
			CacheTTL:        getEnvAsDuration("ENTITLEMENT_CACHE_TTL", 5*time.Minute),
		},
	}

	if cfg.AutoClose.SweepInterval >= cfg.AutoClose.WarnWindow {
		return nil, fmt.Errorf("AUTOCLOSE_SWEEP_INTERVAL (%s) must be shorter than AUTOCLOSE_WARN_WINDOW (%s)",
			cfg.AutoClose.SweepInterval, cfg.AutoClose.WarnWindow)
	}
	if cfg.AutoClose.WarnWindow >= cfg.AutoClose.CloseThreshold {
		return nil, fmt.Errorf("AUTOCLOSE_WARN_WINDOW (%s) must be shorter than AUTOCLOSE_THRESHOLD (%s)",
			cfg.AutoClose.WarnWindow, cfg.AutoClose.CloseThreshold)
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
