package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	BaseURL    string
	Env        string

	// Backing reservation API
	RainHost   string
	RainAPIKey string
	APITimeout time.Duration

	// Wizard session cookie
	CookieHashKey  []byte
	CookieBlockKey []byte

	LogLevel string
}

// FromEnv builds the configuration from the environment, loading a local
// .env file first when present.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr: getenv("LISTEN_ADDR", ":8080"),
		BaseURL:    strings.TrimRight(getenv("BASE_URL", "http://localhost:8080"), "/"),
		Env:        getenv("ENV", "development"),
		RainHost:   strings.TrimSpace(os.Getenv("RAIN_HOST")),
		RainAPIKey: strings.TrimSpace(os.Getenv("RAIN_API_KEY")),
		LogLevel:   getenv("LOG_LEVEL", "info"),
	}

	if cfg.RainHost == "" {
		return Config{}, fmt.Errorf("RAIN_HOST is required")
	}
	if cfg.RainAPIKey == "" {
		return Config{}, fmt.Errorf("RAIN_API_KEY is required")
	}

	timeoutSec, err := strconv.Atoi(getenv("API_TIMEOUT_SECONDS", "10"))
	if err != nil || timeoutSec < 1 {
		return Config{}, fmt.Errorf("invalid API_TIMEOUT_SECONDS")
	}
	cfg.APITimeout = time.Duration(timeoutSec) * time.Second

	if cfg.CookieHashKey, err = requiredB64("COOKIE_HASH_KEY"); err != nil {
		return Config{}, err
	}
	if cfg.CookieBlockKey, err = requiredB64("COOKIE_BLOCK_KEY"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// requiredB64 reads a base64 env var. The value may instead be a path to a
// file holding the key, for k8s secret mounts.
func requiredB64(k string) ([]byte, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil, fmt.Errorf("%s is required (base64)", k)
	}
	if b, err := os.ReadFile(v); err == nil {
		v = strings.TrimSpace(string(b))
	}
	dec, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		if dec, err = base64.RawStdEncoding.DecodeString(v); err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
	}
	return dec, nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
