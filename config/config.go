// Package config loads the portal settings from the environment and an
// optional .env file.
package config

import (
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the portal configuration.
type Config struct {
	// HTTPAddr is the listen address, e.g. :8572.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// PublicURL is the portal origin used to build callback URLs.
	PublicURL string `mapstructure:"PUBLIC_URL"`

	// AuthBaseURL is the remote auth service origin. Required.
	AuthBaseURL  string        `mapstructure:"AUTH_BASE_URL"`
	AuthBasePath string        `mapstructure:"AUTH_BASE_PATH"`
	AuthTimeout  time.Duration `mapstructure:"AUTH_TIMEOUT"`

	// SessionCacheSecret signs the session cache cookie. Empty disables it.
	SessionCacheSecret string        `mapstructure:"SESSION_CACHE_SECRET"`
	SessionCacheTTL    time.Duration `mapstructure:"SESSION_CACHE_TTL"`

	CSRFSecret string `mapstructure:"CSRF_SECRET"`

	// RedisURL switches enrollment and CSRF storage to redis.
	RedisURL      string        `mapstructure:"REDIS_URL"`
	EnrollmentTTL time.Duration `mapstructure:"ENROLLMENT_TTL"`

	// ActivityDSN is a sqlite DSN for the activity log. Empty disables it.
	ActivityDSN string `mapstructure:"ACTIVITY_DSN"`

	Env      string `mapstructure:"APP_ENV"`
	Debug    bool   `mapstructure:"DEBUG"`
	ViewsDir string `mapstructure:"VIEWS_DIR"`
}

// Load reads .env when present, then the environment. Environment values win.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8572")
	v.SetDefault("PUBLIC_URL", "http://localhost:8572")
	v.SetDefault("AUTH_BASE_URL", "")
	v.SetDefault("AUTH_BASE_PATH", "/api/auth")
	v.SetDefault("AUTH_TIMEOUT", "10s")
	v.SetDefault("SESSION_CACHE_SECRET", "")
	v.SetDefault("SESSION_CACHE_TTL", "5m")
	v.SetDefault("CSRF_SECRET", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ENROLLMENT_TTL", "30m")
	v.SetDefault("ACTIVITY_DSN", "")
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("DEBUG", false)
	v.SetDefault("VIEWS_DIR", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "config: unable to decode")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required values and their shape.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AuthBaseURL) == "" {
		return invalid("config: AUTH_BASE_URL must be set")
	}
	if !absoluteURL(c.AuthBaseURL) {
		return invalid("config: AUTH_BASE_URL must be an absolute http(s) URL")
	}
	if !absoluteURL(c.PublicURL) {
		return invalid("config: PUBLIC_URL must be an absolute http(s) URL")
	}
	if c.HTTPAddr == "" {
		return invalid("config: HTTP_ADDR must be set")
	}
	if c.AuthTimeout <= 0 {
		return invalid("config: AUTH_TIMEOUT must be positive")
	}
	if c.IsProduction() && len(c.CSRFSecret) < 32 {
		return invalid("config: CSRF_SECRET must be at least 32 bytes when APP_ENV=production")
	}
	if c.CSRFSecret != "" && len(c.CSRFSecret) < 32 {
		return invalid("config: CSRF_SECRET must be at least 32 bytes")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	u, err := url.Parse(c.PublicURL)
	return err == nil && u.Scheme == "https"
}

func absoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func invalid(msg string) error {
	return goerrors.New(msg, goerrors.CategoryValidation).
		WithTextCode("INVALID_CONFIG")
}
