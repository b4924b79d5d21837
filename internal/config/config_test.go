package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seee.yaml")
	content := `
server:
  addr: ":9090"
storage:
  driver: redis
  redis_addr: localhost:6379
  session_ttl: 2h
safety:
  lexicon_file: crisis.yaml
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Storage.SessionTTL)
	assert.Equal(t, "crisis.yaml", cfg.Safety.LexiconFile)
	assert.Equal(t, 4096, cfg.Safety.MaxInputSize, "unset keys keep defaults")
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seee.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [:"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SEEE_ADDR":           ":7000",
		"SEEE_JWT_SECRET":     "0123456789abcdef",
		"SEEE_SESSION_TTL":    "30m",
		"SEEE_MAX_INPUT_SIZE": "128",
		"SEEE_LLM_ENABLED":    "true",
		"SEEE_LLM_API_KEY":    "sk-test",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Storage.SessionTTL)
	assert.Equal(t, 128, cfg.Safety.MaxInputSize)
	assert.True(t, cfg.LLM.Enabled)
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.RequireSecret())
}

func TestApplyEnv_ListsAndFlags(t *testing.T) {
	env := map[string]string{
		"SEEE_ALLOWED_ORIGINS":  "https://app.example.com, ,https://admin.example.com",
		"SEEE_SELF_PAYMENTS":    "1",
		"SEEE_ENCRYPTION_KEY":   "c2VjcmV0",
		"SEEE_FALLBACK_KEYS":    "old1,old2",
		"SEEE_ACCEPT_PLAINTEXT": "true",
		"SEEE_MASK_FIELDS":      "founder",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	assert.False(t, cfg.Server.SelfPayments)
	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Server.SelfPayments)
	assert.Equal(t, "c2VjcmV0", cfg.Storage.EncryptionKey)
	assert.Equal(t, []string{"old1", "old2"}, cfg.Storage.FallbackKeys)
	assert.True(t, cfg.Storage.AcceptPlaintext)
	assert.Equal(t, []string{"founder"}, cfg.Storage.MaskFields)
	require.NoError(t, cfg.Validate())
}

func TestLoad_StorageProtection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seee.yaml")
	content := `
server:
  self_payments: true
  allowed_origins: ["https://app.example.com"]
storage:
  encryption_key: c2VjcmV0
  mask_fields: [founder, "^consequences\\."]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Server.SelfPayments)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "c2VjcmV0", cfg.Storage.EncryptionKey)
	assert.Equal(t, []string{"founder", `^consequences\.`}, cfg.Storage.MaskFields)
}

func TestApplyEnv_Invalid(t *testing.T) {
	for key, value := range map[string]string{
		"SEEE_TOKEN_TTL":        "soon",
		"SEEE_MAX_INPUT_SIZE":   "big",
		"SEEE_LLM_ENABLED":      "maybe",
		"SEEE_SELF_PAYMENTS":    "perhaps",
		"SEEE_ACCEPT_PLAINTEXT": "sometimes",
	} {
		cfg := Default()
		err := cfg.applyEnv(func(k string) (string, bool) {
			if k == key {
				return value, true
			}
			return "", false
		})
		assert.Error(t, err, key)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seee.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))
	t.Setenv("SEEE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"redis without addr", func(c *Config) { c.Storage.Driver = DriverRedis }},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = DriverPostgres; c.Storage.DSN = "" }},
		{"llm without key", func(c *Config) { c.LLM.Enabled = true }},
		{"zero input size", func(c *Config) { c.Safety.MaxInputSize = 0 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"fallback keys without key", func(c *Config) { c.Storage.FallbackKeys = []string{"old"} }},
		{"plaintext without key", func(c *Config) { c.Storage.AcceptPlaintext = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	assert.ErrorIs(t, Default().RequireSecret(), ErrInvalidConfig)
}
