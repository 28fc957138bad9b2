package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process configuration, loaded from environment
// variables (optionally seeded from a .env file).
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// DataDir is the root directory for all persisted state.
	DataDir string

	// DatabasePath is the SQLite favorites database file.
	DatabasePath string

	// TMDBAPIKey authenticates against the movie metadata provider.
	// Empty means the seed catalog is served instead.
	TMDBAPIKey string

	// Language is the metadata language preference, e.g. "en-US".
	Language string

	// Region is the default watch-provider region, e.g. "US".
	Region string

	// CacheTTLHours is the base TTL for cached metadata responses.
	CacheTTLHours int

	// OpenAIAPIKey authenticates the AI proxy upstream. Empty disables
	// the AI endpoints.
	OpenAIAPIKey string

	// OpenAIModel overrides the chat model name.
	OpenAIModel string

	// OpenAIBaseURL overrides the chat-completions base URL.
	OpenAIBaseURL string

	// SessionDuration is the lifetime of issued sessions.
	SessionDuration time.Duration

	// LogFile is the rotating log file path; empty logs to stderr only.
	LogFile string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env file")
	}

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		DataDir:         getEnv("DATA_DIR", "./data"),
		TMDBAPIKey:      os.Getenv("TMDB_API_KEY"),
		Language:        getEnv("TMDB_LANGUAGE", "en-US"),
		Region:          getEnv("TMDB_REGION", "US"),
		CacheTTLHours:   getEnvInt("METADATA_CACHE_TTL_HOURS", 24),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		SessionDuration: time.Duration(getEnvInt("SESSION_DURATION_HOURS", 30*24)) * time.Hour,
		LogFile:         os.Getenv("LOG_FILE"),
	}

	cfg.DatabasePath = getEnv("DATABASE_PATH", filepath.Join(cfg.DataDir, "favorites.db"))

	return cfg
}

// CacheDir is where metadata responses are cached on disk.
func (c Config) CacheDir() string {
	return filepath.Join(c.DataDir, "cache", "metadata")
}

// AccountsDir is where account records are stored.
func (c Config) AccountsDir() string {
	return filepath.Join(c.DataDir, "accounts")
}

// SessionsDir is where session records are stored.
func (c Config) SessionsDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid integer for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return parsed
}
