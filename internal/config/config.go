// Package config loads credentials and tunables for the service.
//
// Secrets come only from the environment (optionally seeded from a .env
// file). Non-secret tunables may also come from a YAML file; environment
// variables win over the file and defaults fill whatever is left.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ewilliams-labs/vibecover/internal/core/domain"
)

// Environment variable names for the four secrets.
const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvGoogleAPIKey        = "GOOGLE_API_KEY"
	EnvOpenRouterAPIKey    = "OPENROUTER_API_KEY"
)

const (
	DefaultAddr           = ":5000"
	DefaultSpotifyTimeout = 15 * time.Second
	DefaultGeminiTimeout  = 60 * time.Second
	DefaultImageTimeout   = 90 * time.Second
	DefaultAppTitle       = "Vibe Cover"
	DefaultCORSOrigin     = "*"
)

// Credentials holds the upstream secrets. It is read once at startup and
// never mutated afterwards.
type Credentials struct {
	SpotifyClientID     string
	SpotifyClientSecret string
	GoogleAPIKey        string
	OpenRouterAPIKey    string
}

// Missing returns the environment variable names of the absent secrets.
func (c Credentials) Missing() []string {
	var missing []string
	if c.SpotifyClientID == "" {
		missing = append(missing, EnvSpotifyClientID)
	}
	if c.SpotifyClientSecret == "" {
		missing = append(missing, EnvSpotifyClientSecret)
	}
	if c.GoogleAPIKey == "" {
		missing = append(missing, EnvGoogleAPIKey)
	}
	if c.OpenRouterAPIKey == "" {
		missing = append(missing, EnvOpenRouterAPIKey)
	}
	return missing
}

// Validate reports domain.ErrConfiguration when any secret is absent.
func (c Credentials) Validate() error {
	if missing := c.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// Config is the full runtime configuration.
type Config struct {
	Credentials Credentials `yaml:"-"`

	Addr        string `yaml:"addr"`
	GeminiModel string `yaml:"gemini_model"`
	ImageModel  string `yaml:"image_model"`
	ImageCount  int    `yaml:"image_count"`

	SpotifyTimeout time.Duration `yaml:"spotify_timeout"`
	GeminiTimeout  time.Duration `yaml:"gemini_timeout"`
	ImageTimeout   time.Duration `yaml:"image_timeout"`

	// Empty URLs leave each adapter on its public default.
	SpotifyTokenURL string `yaml:"spotify_token_url"`
	SpotifyAPIURL   string `yaml:"spotify_api_url"`
	GeminiBaseURL   string `yaml:"gemini_base_url"`
	OpenRouterURL   string `yaml:"openrouter_url"`

	AppReferer string `yaml:"app_referer"`
	AppTitle   string `yaml:"app_title"`
	CORSOrigin string `yaml:"cors_origin"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	Env      string `yaml:"env"`
}

// Development reports whether the service runs outside production.
func (c Config) Development() bool {
	return c.Env != "production"
}

// Load reads .env (when present), then the optional YAML file at path, then
// the environment. A path that is set but unreadable is an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Credentials = Credentials{
		SpotifyClientID:     strings.TrimSpace(os.Getenv(EnvSpotifyClientID)),
		SpotifyClientSecret: strings.TrimSpace(os.Getenv(EnvSpotifyClientSecret)),
		GoogleAPIKey:        strings.TrimSpace(os.Getenv(EnvGoogleAPIKey)),
		OpenRouterAPIKey:    strings.TrimSpace(os.Getenv(EnvOpenRouterAPIKey)),
	}

	strs := map[string]*string{
		"ADDR":              &cfg.Addr,
		"GEMINI_MODEL":      &cfg.GeminiModel,
		"IMAGE_MODEL":       &cfg.ImageModel,
		"SPOTIFY_TOKEN_URL": &cfg.SpotifyTokenURL,
		"SPOTIFY_API_URL":   &cfg.SpotifyAPIURL,
		"GEMINI_BASE_URL":   &cfg.GeminiBaseURL,
		"OPENROUTER_URL":    &cfg.OpenRouterURL,
		"APP_REFERER":       &cfg.AppReferer,
		"APP_TITLE":         &cfg.AppTitle,
		"CORS_ORIGIN":       &cfg.CORSOrigin,
		"LOG_LEVEL":         &cfg.LogLevel,
		"LOG_FILE":          &cfg.LogFile,
		"ENV":               &cfg.Env,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("IMAGE_COUNT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: IMAGE_COUNT: %w", err)
		}
		cfg.ImageCount = n
	}

	durations := map[string]*time.Duration{
		"SPOTIFY_TIMEOUT": &cfg.SpotifyTimeout,
		"GEMINI_TIMEOUT":  &cfg.GeminiTimeout,
		"IMAGE_TIMEOUT":   &cfg.ImageTimeout,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

func applyDefaults(cfg *Config) {
	cfg.Addr = firstNonEmpty(cfg.Addr, DefaultAddr)
	cfg.AppTitle = firstNonEmpty(cfg.AppTitle, DefaultAppTitle)
	cfg.CORSOrigin = firstNonEmpty(cfg.CORSOrigin, DefaultCORSOrigin)
	cfg.Env = firstNonEmpty(cfg.Env, "development")

	switch {
	case cfg.ImageCount <= 0:
		cfg.ImageCount = domain.DefaultImageCount
	case cfg.ImageCount > domain.MaxImageCount:
		cfg.ImageCount = domain.MaxImageCount
	}

	if cfg.SpotifyTimeout <= 0 {
		cfg.SpotifyTimeout = DefaultSpotifyTimeout
	}
	if cfg.GeminiTimeout <= 0 {
		cfg.GeminiTimeout = DefaultGeminiTimeout
	}
	if cfg.ImageTimeout <= 0 {
		cfg.ImageTimeout = DefaultImageTimeout
	}
}

// lookup returns a trimmed, non-empty environment value.
func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
