package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendPgx      = "pgx"
	BackendREST     = "rest"
)

// Config holds runtime configuration values for the portfolio server.
type Config struct {
	StorageBackend  string
	DBPath          string
	DatabaseURL     string
	SupabaseURL     string
	SupabaseAnonKey string
	AutoMigrate     bool

	ServerPort         int
	CORSAllowedOrigins []string
	RateLimitBurst     int
	RateLimitRPS       float64
	TrustProxyHeaders  bool

	LogLevel      string
	SentryDSN     string
	Environment   string
	ShutdownGrace time.Duration
}

const (
	defaultStorageBackend = BackendSQLite
	defaultDBPath         = "./data/portfolio.db"
	defaultServerPort     = 8080
	defaultLogLevel       = "info"
	defaultEnvironment    = "development"
	defaultShutdownGrace  = 10 * time.Second
	defaultRateLimitBurst = 30
	defaultRateLimitRPS   = 10.0
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		StorageBackend:     strings.ToLower(getEnv("STORAGE_BACKEND", defaultStorageBackend)),
		DBPath:             getEnv("DB_PATH", defaultDBPath),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		LogLevel:           getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:          os.Getenv("SENTRY_DSN"),
		Environment:        getEnv("ENV", defaultEnvironment),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		ShutdownGrace:      defaultShutdownGrace,
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil || port <= 0 || port > 65535 {
		if err == nil {
			err = eris.New("port out of range")
		}
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	burstValue := getEnv("RATE_LIMIT_BURST", strconv.Itoa(defaultRateLimitBurst))
	burst, err := strconv.Atoi(burstValue)
	if err != nil || burst < 0 {
		if err == nil {
			err = eris.New("burst must not be negative")
		}
		return nil, eris.Wrapf(err, "invalid RATE_LIMIT_BURST value: %s", burstValue)
	}
	cfg.RateLimitBurst = burst

	rpsValue := getEnv("RATE_LIMIT_RPS", strconv.FormatFloat(defaultRateLimitRPS, 'f', -1, 64))
	rps, err := strconv.ParseFloat(rpsValue, 64)
	if err != nil || rps < 0 {
		if err == nil {
			err = eris.New("rate must not be negative")
		}
		return nil, eris.Wrapf(err, "invalid RATE_LIMIT_RPS value: %s", rpsValue)
	}
	cfg.RateLimitRPS = rps

	trustValue := getEnv("TRUST_PROXY_HEADERS", "false")
	trust, err := strconv.ParseBool(trustValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid TRUST_PROXY_HEADERS value: %s", trustValue)
	}
	cfg.TrustProxyHeaders = trust

	// Schema creation is on by default only where the process owns the database file.
	autoMigrateValue := getEnv("AUTO_MIGRATE", strconv.FormatBool(cfg.StorageBackend == BackendSQLite))
	autoMigrate, err := strconv.ParseBool(autoMigrateValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid AUTO_MIGRATE value: %s", autoMigrateValue)
	}
	cfg.AutoMigrate = autoMigrate

	if err := cfg.validateBackend(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateBackend() error {
	switch c.StorageBackend {
	case BackendSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return eris.New("DB_PATH is required for the sqlite backend")
		}
	case BackendPostgres, BackendPgx:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return eris.Errorf("DATABASE_URL is required for the %s backend", c.StorageBackend)
		}
	case BackendREST:
		if strings.TrimSpace(c.SupabaseURL) == "" || strings.TrimSpace(c.SupabaseAnonKey) == "" {
			return eris.New("SUPABASE_URL and SUPABASE_ANON_KEY are required for the rest backend")
		}
	default:
		return eris.Errorf("invalid STORAGE_BACKEND value: %s", c.StorageBackend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
