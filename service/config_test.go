package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PERPSIGN_LISTEN_ADDR",
		"PERPSIGN_CHAIN_ID",
		"PERPSIGN_READ_TIMEOUT",
		"PERPSIGN_MAX_BODY_BYTES",
		"LOG_LEVEL",
		"LOG_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8787", cfg.ListenAddr)
	assert.Equal(t, "SN_MAIN", cfg.ChainID)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, int64(65536), cfg.MaxBodyBytes)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogFormat)
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PERPSIGN_LISTEN_ADDR", ":9000")
	t.Setenv("PERPSIGN_CHAIN_ID", "SN_SEPOLIA")
	t.Setenv("PERPSIGN_READ_TIMEOUT", "2s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "SN_SEPOLIA", cfg.ChainID)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfigDotenv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PERPSIGN_CHAIN_ID=SN_SEPOLIA\nPERPSIGN_MAX_BODY_BYTES=1024\n"), 0o600))

	// already-set variables win over the file
	t.Setenv("PERPSIGN_MAX_BODY_BYTES", "2048")
	t.Cleanup(func() { os.Unsetenv("PERPSIGN_CHAIN_ID") })

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "SN_SEPOLIA", cfg.ChainID)
	assert.Equal(t, int64(2048), cfg.MaxBodyBytes)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad duration", "PERPSIGN_READ_TIMEOUT", "soon"},
		{"bad size", "PERPSIGN_MAX_BODY_BYTES", "lots"},
		{"bad chain id", "PERPSIGN_CHAIN_ID", "SN MAIN"},
		{"bad log format", "LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		ListenAddr:   "127.0.0.1:8787",
		ChainID:      "SN_MAIN",
		ReadTimeout:  time.Second,
		MaxBodyBytes: 1024,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"console format", func(c *Config) { c.LogFormat = "console" }, false},
		{"missing addr", func(c *Config) { c.ListenAddr = "" }, true},
		{"missing chain", func(c *Config) { c.ChainID = "" }, true},
		{"long chain", func(c *Config) { c.ChainID = "SN_MAIN_THAT_IS_FAR_TOO_LONG_FOR_A_FELT" }, true},
		{"zero timeout", func(c *Config) { c.ReadTimeout = 0 }, true},
		{"zero body", func(c *Config) { c.MaxBodyBytes = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := (*Config)(nil).Validate(); err == nil {
		t.Error("nil config should fail validation")
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		logger, err := NewLogger("debug", format)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel), "debug should be enabled for format %q", format)
	}

	logger, err := NewLogger("nonsense", "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel), "unknown level should fall back to info")
}
