// config.go

// Environment variable loading and validation.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all env configuration vars for the bridge.
type Config struct {
	// PublicURL is this service's externally reachable base URL, without a
	// trailing slash. Used to build the OAuth redirect URL, the portal token
	// domain claim, and class-info URLs.
	PublicURL string
	Port      string
	LogLevel  slog.Level

	// LocalJWTSecret signs every locally verified token (auth cookie, OAuth
	// state, portal and launch tokens).
	LocalJWTSecret string

	// APBaseURL is the Activity Player base URL launches redirect to.
	APBaseURL string

	// Google OAuth client. Must match the client configured in the Google
	// Cloud Console, including the registered redirect URL.
	GoogleClientID     string
	GoogleClientSecret string

	// Firebase signing identity for the report service, loaded from the
	// JSON file at FIREBASE_APP_CONFIG.
	FirebaseClientEmail string
	FirebasePrivateKey  string

	// AuthTTL is the gc-auth cookie lifetime. Default 168h (7 days).
	AuthTTL time.Duration
}

// firebaseAppConfig mirrors the key file layout: a service-account client
// email plus its PEM private key.
type firebaseAppConfig struct {
	ClientEmail string `json:"clientEmail"`
	PrivateKey  string `json:"privateKey"`
}

// LoadConfig reads a .env file (when present) and the environment, returning
// a validated Config. Returns an error if any required variable is missing
// or the firebase key file cannot be read.
func LoadConfig() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.PublicURL = strings.TrimSuffix(os.Getenv("PUBLIC_URL"), "/")
	if cfg.PublicURL == "" {
		return nil, fmt.Errorf("PUBLIC_URL is required")
	}

	cfg.LocalJWTSecret = os.Getenv("LOCAL_JWT_SECRET")
	if cfg.LocalJWTSecret == "" {
		return nil, fmt.Errorf("LOCAL_JWT_SECRET is required")
	}

	cfg.APBaseURL = os.Getenv("AP_BASE_URL")
	if cfg.APBaseURL == "" {
		return nil, fmt.Errorf("AP_BASE_URL is required")
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	if cfg.GoogleClientID == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	if cfg.GoogleClientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_SECRET is required")
	}

	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		cfg.Port = "3000"
	}

	// Parse log level, default to info
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	firebasePath := os.Getenv("FIREBASE_APP_CONFIG")
	if firebasePath == "" {
		firebasePath = "firebase-configs/report-service-dev.json"
	}
	fb, err := loadFirebaseConfig(firebasePath)
	if err != nil {
		return nil, err
	}
	cfg.FirebaseClientEmail = fb.ClientEmail
	cfg.FirebasePrivateKey = fb.PrivateKey

	cfg.AuthTTL = envDuration("AUTH_TOKEN_TTL", 168*time.Hour)

	return cfg, nil
}

// loadFirebaseConfig reads and validates the firebase signing key file.
func loadFirebaseConfig(path string) (*firebaseAppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading firebase app config %s: %w", path, err)
	}
	var fb firebaseAppConfig
	if err := json.Unmarshal(raw, &fb); err != nil {
		return nil, fmt.Errorf("parsing firebase app config %s: %w", path, err)
	}
	if strings.TrimSpace(fb.ClientEmail) == "" {
		return nil, fmt.Errorf("firebase app config %s: missing or empty clientEmail", path)
	}
	if strings.TrimSpace(fb.PrivateKey) == "" {
		return nil, fmt.Errorf("firebase app config %s: missing or empty privateKey", path)
	}
	return &fb, nil
}

// envDuration reads an env var as time.Duration, returning def if missing or unparseable.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
