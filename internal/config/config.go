package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"gideon/internal/logger"
)

// Config holds the API server configuration
type Config struct {
	// Server
	Env        string
	Port       string
	CORSOrigin string

	// Database
	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AutoConfirm     bool
}

// ClientConfig holds the command-line client configuration
type ClientConfig struct {
	APIURL      string
	HTTPTimeout time.Duration
	SessionFile string
}

// Load loads the server configuration from environment variables
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		Env:        getEnv("ENV", "development"),
		Port:       getEnv("PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBPath:     getEnv("DB_PATH", "gideon.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "gideon"),
		DBPassword: getEnv("DB_PASSWORD", "gideon"),
		DBName:     getEnv("DB_NAME", "gideon"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:       getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		AccessTokenTTL:  getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		AutoConfirm:     getBool("AUTH_AUTOCONFIRM", false),
	}

	return cfg, nil
}

// LoadClient loads the client configuration from environment variables
func LoadClient() (*ClientConfig, error) {
	loadDotEnv()

	sessionFile := os.Getenv("GIDEON_SESSION_FILE")
	if sessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		sessionFile = filepath.Join(dir, "gideon", "session.json")
	}

	return &ClientConfig{
		APIURL:      getEnv("GIDEON_API_URL", "http://localhost:8080"),
		HTTPTimeout: getDuration("GIDEON_HTTP_TIMEOUT", 15*time.Second),
		SessionFile: sessionFile,
	}, nil
}

// PostgresURL returns the migrate-compatible connection URL.
func (c *Config) PostgresURL() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort +
		"/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Get().Debug(".env file not found, using process environment")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Get().Warnf("invalid %s value '%s', falling back to %s", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Get().Warnf("invalid %s value '%s', falling back to %v", key, raw, defaultValue)
		return defaultValue
	}
	return b
}
