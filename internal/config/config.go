package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSessionSecret is only acceptable outside production.
const DefaultSessionSecret = "dev-session-secret-change-me"

type Config struct {
	Port string

	// DatabaseURL is DATABASE_URL, or composed from the DB_* parts when unset.
	DatabaseURL string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int
	// DBConnMaxLifetime bounds how long a pooled connection is reused (default 30m).
	DBConnMaxLifetime time.Duration

	SessionSecret string
	// SessionTTL is how long an idle session survives (default 24h). Set via SESSION_TTL.
	SessionTTL time.Duration

	// RedisAddr selects the Redis session store. When empty, sessions live in process memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Env is "dev" (default) or "prod". When "prod", SESSION_SECRET must be set and not the default.
	Env string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	BcryptCost int

	// CatalogSourceURL is the base URL serving pokemon_names.json.
	CatalogSourceURL string
	// CatalogSeedOnStart imports the catalog when the server boots.
	CatalogSeedOnStart bool
	// CatalogSyncCron is an optional cron spec (e.g. "0 3 * * *") for periodic resync.
	CatalogSyncCron string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// AuthRateLimitPerMin caps login/signup submissions per client IP.
	AuthRateLimitPerMin int
}

// Load reads an optional .env file and then the environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8080"),

		DatabaseURL: getEnv("DATABASE_URL", composeDatabaseURL(
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_NAME", "pokecollect"),
			getEnv("DB_USER", "pokecollect"),
			getEnv("DB_PASS", "pokecollect"),
			getEnv("DB_SSLMODE", "disable"),
		)),

		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		SessionSecret: getEnv("SESSION_SECRET", DefaultSessionSecret),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		Env:       getEnv("ENV", "dev"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		CatalogSourceURL:   getEnv("CATALOG_SOURCE_URL", "https://pogoapi.net/api/v1/"),
		CatalogSeedOnStart: getEnvBool("CATALOG_SEED_ON_START", false),
		CatalogSyncCron:    getEnv("CATALOG_SYNC_CRON", ""),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 20),
	}
}

// Validate rejects settings that are unsafe for the configured environment.
func (c Config) Validate() error {
	var errs []error
	if c.Env == "prod" && (c.SessionSecret == "" || c.SessionSecret == DefaultSessionSecret) {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production"))
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// UseTLS reports whether both certificate and key are configured.
func (c Config) UseTLS() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

func composeDatabaseURL(host, port, name, user, pass, sslmode string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     host + ":" + port,
		Path:     "/" + name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
