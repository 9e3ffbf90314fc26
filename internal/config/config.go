// Package config loads address book settings from an optional YAML file,
// a .env file and ADDRESSBOOK_* environment variables, in that order of precedence
// (later wins).
package config

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
	"gopkg.in/yaml.v3"
)

// Config holds every address book setting.
type Config struct {
	Env      string         `yaml:"env"` // local, dev, test, prod
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Web      WebConfig      `yaml:"web"`
	Receipts ReceiptsConfig `yaml:"receipts"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	SlowQueryMs int    `yaml:"slow_query_ms"`
}

// WebConfig holds settings for `addressbook serve`.
type WebConfig struct {
	Addr               string `yaml:"addr"`
	Secret             string `yaml:"secret"` // CSRF key material
	SecureCookies      bool   `yaml:"secure_cookies"`
	RateLimitPerSecond int    `yaml:"rate_limit_per_second"`
}

// ReceiptsConfig holds deletion receipt e-mail settings.
type ReceiptsConfig struct {
	Enabled   bool          `yaml:"enabled"`
	To        []string      `yaml:"to"`
	From      string        `yaml:"from"`
	ResendKey string        `yaml:"resend_key"` // empty logs receipts instead of sending
	Breaker   BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker around the receipt sender.
type BreakerConfig struct {
	FailureThreshold uint32        `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
}

// Defaults.
const (
	DefaultEnv                = "local"
	DefaultDatabasePath       = "addressbook.db"
	DefaultAddr               = "127.0.0.1:8080"
	DefaultRateLimitPerSecond = 10
	DefaultFailureThreshold   = 3
	DefaultOpenTimeout        = 30 * time.Second
)

// Load reads configuration. path may be empty, in which case only .env,
// the environment and defaults apply.
// PRE: none
// POST: Returned config has defaults applied and passes Validate
func Load(path string) (Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := decode(expandEnvVars(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overlays ADDRESSBOOK_* variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set("ADDRESSBOOK_ENV", &c.Env)
	set("ADDRESSBOOK_LOG_LEVEL", &c.Log.Level)
	set("ADDRESSBOOK_DB", &c.Database.Path)
	set("ADDRESSBOOK_ADDR", &c.Web.Addr)
	set("ADDRESSBOOK_SECRET", &c.Web.Secret)
	set("ADDRESSBOOK_RESEND_KEY", &c.Receipts.ResendKey)

	if v := getenv("ADDRESSBOOK_RECEIPTS_TO"); v != "" {
		c.Receipts.To = splitList(v)
		c.Receipts.Enabled = true
	}
	if v := getenv("ADDRESSBOOK_SLOW_QUERY_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ADDRESSBOOK_SLOW_QUERY_MS: %w", err)
		}
		c.Database.SlowQueryMs = ms
	}
	return nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Env == "" {
		c.Env = DefaultEnv
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Web.Addr == "" {
		c.Web.Addr = DefaultAddr
	}
	if c.Web.RateLimitPerSecond <= 0 {
		c.Web.RateLimitPerSecond = DefaultRateLimitPerSecond
	}
	if c.Receipts.Breaker.FailureThreshold == 0 {
		c.Receipts.Breaker.FailureThreshold = DefaultFailureThreshold
	}
	if c.Receipts.Breaker.OpenTimeout <= 0 {
		c.Receipts.Breaker.OpenTimeout = DefaultOpenTimeout
	}
}

// IsProduction reports whether the config targets production.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Env {
	case "local", "dev", "development", "test", "prod", "production":
	default:
		return fmt.Errorf("env must be local, dev, test or prod, got %q", c.Env)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Database.SlowQueryMs < 0 {
		return fmt.Errorf("database.slow_query_ms must not be negative")
	}
	if c.IsProduction() && len(c.Web.Secret) < 16 {
		return fmt.Errorf("web.secret of at least 16 characters is required in production")
	}
	if c.Receipts.Enabled {
		if len(c.Receipts.To) == 0 {
			return fmt.Errorf("receipts.to is required when receipts are enabled")
		}
		if c.Receipts.ResendKey != "" && c.Receipts.From == "" {
			return fmt.Errorf("receipts.from is required when sending through Resend")
		}
	}
	return nil
}

// CSRFKey returns the 32-byte key for gorilla/csrf. A configured secret is
// stretched with HKDF-SHA256; without one a random key is generated, so forms
// do not survive a restart.
// PRE: Validate has passed
func (c *Config) CSRFKey() ([]byte, error) {
	key := make([]byte, 32)
	if c.Web.Secret == "" {
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
		}
		return key, nil
	}
	r := hkdf.New(sha256.New, []byte(c.Web.Secret), nil, []byte("addressbook csrf v1"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive CSRF key: %w", err)
	}
	return key, nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
