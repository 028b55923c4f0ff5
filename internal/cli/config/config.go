package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL = "http://localhost:8081"
	DefaultTimeout = 30 * time.Second

	configDirName = "capitalhub"
)

// Session store kinds
const (
	StoreKeyring = "keyring"
	StoreFile    = "file"
	StoreMemory  = "memory"
)

// Environment variables read by Load
const (
	EnvBaseURL        = "CAPITALHUB_API_BASE_URL"
	EnvSessionStore   = "CAPITALHUB_SESSION_STORE"
	EnvConfigDir      = "CAPITALHUB_CONFIG_DIR"
	EnvTimeout        = "CAPITALHUB_TIMEOUT"
	EnvLogLevel       = "CAPITALHUB_LOG_LEVEL"
	EnvLogFormat      = "CAPITALHUB_LOG_FORMAT"
	EnvLogoutOnDenied = "CAPITALHUB_LOGOUT_ON_DENIED"
	EnvEmail          = "CAPITALHUB_EMAIL"
	EnvPassword       = "CAPITALHUB_PASSWORD"
)

// Config holds all configuration for the CLI
type Config struct {
	API         APIConfig
	Session     SessionConfig
	Logging     LoggingConfig
	Credentials CredentialsConfig
}

// APIConfig selects the backend
type APIConfig struct {
	// BaseURL is the API origin. Empty means paths are used as they are.
	BaseURL string
	Timeout time.Duration
}

// SessionConfig controls where the session is kept
type SessionConfig struct {
	Store          string
	Dir            string
	LogoutOnDenied bool
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// CredentialsConfig holds non-interactive login defaults
type CredentialsConfig struct {
	Email    string
	Password string
}

// Load reads .env files from the working directory, then the environment
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from a lookup function
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	// An explicitly empty base URL is kept so requests use relative paths.
	baseURL := DefaultBaseURL
	if v, ok := lookup(EnvBaseURL); ok {
		baseURL = strings.TrimRight(strings.TrimSpace(v), "/")
	}

	timeout, err := parseTimeout(get(EnvTimeout, ""))
	if err != nil {
		return nil, err
	}

	store := strings.ToLower(get(EnvSessionStore, StoreKeyring))
	switch store {
	case StoreKeyring, StoreFile, StoreMemory:
	default:
		return nil, fmt.Errorf("invalid %s %q, must be one of: keyring, file, memory", EnvSessionStore, store)
	}

	dir := get(EnvConfigDir, "")
	if dir == "" {
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	logoutOnDenied := false
	if v := get(EnvLogoutOnDenied, ""); v != "" {
		logoutOnDenied, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvLogoutOnDenied, v, err)
		}
	}

	// Password is taken verbatim, surrounding spaces included.
	password, _ := lookup(EnvPassword)

	return &Config{
		API: APIConfig{
			BaseURL: baseURL,
			Timeout: timeout,
		},
		Session: SessionConfig{
			Store:          store,
			Dir:            dir,
			LogoutOnDenied: logoutOnDenied,
		},
		Logging: LoggingConfig{
			Level:  get(EnvLogLevel, "warn"),
			Format: get(EnvLogFormat, "console"),
		},
		Credentials: CredentialsConfig{
			Email:    get(EnvEmail, ""),
			Password: password,
		},
	}, nil
}

// DefaultDir returns ~/.config/capitalhub
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName), nil
}

// parseTimeout accepts whole seconds ("15") or a Go duration ("1m30s")
func parseTimeout(v string) (time.Duration, error) {
	if v == "" {
		return DefaultTimeout, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("invalid %s %q, must be positive", EnvTimeout, v)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q, must be positive", EnvTimeout, v)
	}
	return d, nil
}
