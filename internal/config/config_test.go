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
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "UTC", cfg.Schedule.Timezone)
	assert.Equal(t, 30*24*time.Hour, cfg.Schedule.Window)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commute.toml")
	content := `
[server]
port = "9090"

[auth]
jwt_secret = "from-file"
issuer = "commute"

[schedule]
timezone = "Asia/Riyadh"
window = "168h"

[kafka]
brokers = ["k1:9092", "k2:9092"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("KAFKA_BROKERS", "k3:9092, k4:9092")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port, "env overrides file")
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "commute", cfg.Auth.Issuer)
	assert.Equal(t, "Asia/Riyadh", cfg.Schedule.Timezone)
	assert.Equal(t, 7*24*time.Hour, cfg.Schedule.Window)
	assert.Equal(t, []string{"k3:9092", "k4:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := Default()
		cfg.Auth.JWTSecret = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.Auth.JWTSecret = "" },
			wantErr: []string{"JWT_SECRET is required"},
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" },
			wantErr: []string{"invalid schedule timezone"},
		},
		{
			name: "errors are joined",
			mutate: func(c *Config) {
				c.Auth.JWTSecret = ""
				c.Schedule.Window = 0
				c.Kafka.Brokers = []string{"k:9092"}
				c.Kafka.Topic = ""
			},
			wantErr: []string{
				"JWT_SECRET is required",
				"schedule window must be positive",
				"kafka topic is required",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, msg := range tt.wantErr {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}
