package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultEndpoint  = "https://api.audd.io/"
	DefaultReturn    = "apple_music,spotify"
	DefaultAPIToken  = "test"
	DefaultTimeout   = 2 * time.Minute
	DefaultListen    = ":8080"
	DefaultDatabase  = "DEFAULT"
	databaseURLEnvFn = "DATABASE_URL_%s"
)

// Config holds every externally supplied setting. Values come from the
// environment (optionally seeded by a .env file); command-line flags
// override them in the binaries.
type Config struct {
	APIToken    string
	Endpoint    string
	Return      string
	OutputDir   string
	WorkDir     string
	LogLevel    slog.Level
	Socks5Proxy string
	HTTPTimeout time.Duration

	ServiceAPIKey string
	ListenAddr    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LoadEnv loads a .env file from the working directory if one exists.
// A missing file is not an error.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Error loading .env file", "error", err.Error())
	}
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		APIToken:      getenv("AUDD_API_TOKEN", DefaultAPIToken),
		Endpoint:      getenv("AUDD_ENDPOINT", DefaultEndpoint),
		Return:        getenv("AUDD_RETURN", DefaultReturn),
		OutputDir:     os.Getenv("OUTPUT_DIR"),
		WorkDir:       getenv("WORK_DIR", os.TempDir()),
		LogLevel:      ParseLogLevel(getenv("LOG_LEVEL", "INFO")),
		Socks5Proxy:   os.Getenv("SOCKS5_PROXY"),
		HTTPTimeout:   DefaultTimeout,
		ServiceAPIKey: os.Getenv("SERVICE_API_KEY"),
		ListenAddr:    getenv("LISTEN_ADDR", DefaultListen),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", v, err)
		}
		cfg.HTTPTimeout = d
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = n
	}

	return cfg, nil
}

// GetDatabaseURL returns the database URL for the given identifier.
// If no identifier is provided, it defaults to "DEFAULT"
func GetDatabaseURL(dbID string) (string, error) {
	if dbID == "" {
		dbID = DefaultDatabase
	}

	dbURLKey := fmt.Sprintf(databaseURLEnvFn, strings.ToUpper(dbID))
	dbURL := os.Getenv(dbURLKey)
	if dbURL == "" {
		return "", fmt.Errorf("no database URL found for %s", dbURLKey)
	}

	return dbURL, nil
}

// ParseLogLevel maps a level name to a slog level, falling back to INFO.
func ParseLogLevel(level string) slog.Level {
	levels := map[string]slog.Level{
		"ERROR":   slog.LevelError,
		"INFO":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"WARN":    slog.LevelWarn,
	}

	l, ok := levels[strings.ToUpper(strings.TrimSpace(level))]
	if !ok {
		l = slog.LevelInfo
	}

	return l
}

// NewLogger installs a text slog handler on stderr as the default logger.
func NewLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
