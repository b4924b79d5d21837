// Package config loads service settings from YAML and SEEE_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SEEE_"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Safety  SafetyConfig  `yaml:"safety"`
	LLM     LLMConfig     `yaml:"llm"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// AllowedOrigins lists browser origins that may open the chat
	// WebSocket besides the server's own host. "*" allows any.
	AllowedOrigins []string `yaml:"allowed_origins"`
	// SelfPayments exposes POST /payments so accounts can record their
	// own payments. Only for demos and tests.
	SelfPayments bool `yaml:"self_payments"`
}

// StorageConfig selects where sessions and the ledger live.
// The ledger and accounts go to SQL (DSN) unless Driver is memory; the file
// and redis drivers only move sessions.
type StorageConfig struct {
	Driver     string        `yaml:"driver"`
	Dir        string        `yaml:"dir"`
	DSN        string        `yaml:"dsn"`
	RedisAddr  string        `yaml:"redis_addr"`
	SessionTTL time.Duration `yaml:"session_ttl"`

	// EncryptionKey seals sessions at rest with AES-256-GCM when set.
	// It is a base64 or hex encoded 32-byte key.
	EncryptionKey   string   `yaml:"encryption_key"`
	FallbackKeys    []string `yaml:"fallback_keys"`
	AcceptPlaintext bool     `yaml:"accept_plaintext"`
	// MaskFields are patterns of concept fields masked before saving.
	MaskFields []string `yaml:"mask_fields"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type SafetyConfig struct {
	LexiconFile  string `yaml:"lexicon_file"`
	MaxInputSize int    `yaml:"max_input_size"`
}

// LLMConfig enables optional phrasing of engine replies.
type LLMConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: DriverFile,
			Dir:    ".seee",
			DSN:    ".seee/seee.db",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Safety: SafetyConfig{
			MaxInputSize: 4096,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 20 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (if non-empty and present), then applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ADDR":           &c.Server.Addr,
		"STORAGE_DRIVER": &c.Storage.Driver,
		"STORAGE_DIR":    &c.Storage.Dir,
		"DATABASE_DSN":   &c.Storage.DSN,
		"REDIS_ADDR":     &c.Storage.RedisAddr,
		"JWT_SECRET":     &c.Auth.JWTSecret,
		"LEXICON_FILE":   &c.Safety.LexiconFile,
		"LLM_BASE_URL":   &c.LLM.BaseURL,
		"LLM_API_KEY":    &c.LLM.APIKey,
		"LLM_MODEL":      &c.LLM.Model,
		"LOG_LEVEL":      &c.Log.Level,
		"LOG_FORMAT":     &c.Log.Format,
		"ENCRYPTION_KEY": &c.Storage.EncryptionKey,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"SESSION_TTL": &c.Storage.SessionTTL,
		"TOKEN_TTL":   &c.Auth.TokenTTL,
		"LLM_TIMEOUT": &c.LLM.Timeout,
	}
	for key, dst := range durations {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
	}

	if v, ok := lookup(EnvPrefix + "MAX_INPUT_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_INPUT_SIZE: %w", EnvPrefix, err)
		}
		c.Safety.MaxInputSize = n
	}

	lists := map[string]*[]string{
		"ALLOWED_ORIGINS": &c.Server.AllowedOrigins,
		"FALLBACK_KEYS":   &c.Storage.FallbackKeys,
		"MASK_FIELDS":     &c.Storage.MaskFields,
	}
	for key, dst := range lists {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = splitList(v)
		}
	}

	bools := map[string]*bool{
		"LLM_ENABLED":      &c.LLM.Enabled,
		"SELF_PAYMENTS":    &c.Server.SelfPayments,
		"ACCEPT_PLAINTEXT": &c.Storage.AcceptPlaintext,
	}
	for key, dst := range bools {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
	}
	return nil
}

// splitList reads a comma separated value, dropping blank entries.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverSQLite, DriverPostgres:
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("%w: storage.redis_addr is required for the redis driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Storage.Driver == DriverPostgres && c.Storage.DSN == "" {
		return fmt.Errorf("%w: storage.dsn is required for postgres", ErrInvalidConfig)
	}
	if c.LLM.Enabled && c.LLM.APIKey == "" {
		return fmt.Errorf("%w: llm.api_key is required when llm is enabled", ErrInvalidConfig)
	}
	if c.Storage.EncryptionKey == "" && (len(c.Storage.FallbackKeys) > 0 || c.Storage.AcceptPlaintext) {
		return fmt.Errorf("%w: storage.encryption_key is required with fallback keys or accept_plaintext", ErrInvalidConfig)
	}
	if c.Safety.MaxInputSize <= 0 {
		return fmt.Errorf("%w: safety.max_input_size must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// RequireSecret checks the settings only the HTTP server needs.
func (c Config) RequireSecret() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("%w: auth.jwt_secret must be at least 16 bytes", ErrInvalidConfig)
	}
	return nil
}
