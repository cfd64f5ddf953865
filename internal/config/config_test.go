package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/loadbank/pkg/adapters/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 6001, cfg.Port)
	assert.Equal(t, 6002, cfg.AdminPort)
	assert.Equal(t, process.DefaultBinary, cfg.Process.Binary)
	assert.Equal(t, 30*time.Second, cfg.Process.Timeout)
	assert.Equal(t, LockNone, cfg.Lock.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "loadbank.yaml", `
port: 8080
process:
  binary: /usr/local/bin/serial_interface
  timeout: 5s
  env:
    SERIAL_DEVICE: /dev/ttyUSB1
log:
  format: json
lock:
  backend: memory
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DefaultAdminPort, cfg.AdminPort, "unset keys keep defaults")
	assert.Equal(t, "/usr/local/bin/serial_interface", cfg.Process.Binary)
	assert.Equal(t, 5*time.Second, cfg.Process.Timeout)
	assert.Equal(t, process.DefaultKillGrace, cfg.Process.KillGrace)
	assert.Equal(t, map[string]string{"SERIAL_DEVICE": "/dev/ttyUSB1"}, cfg.Process.Env)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, LockMemory, cfg.Lock.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "loadbank.json", `{"admin_port": 0, "cors_origin": "http://panel.local", "process": {"kill_grace": "500ms"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.AdminPort)
	assert.Equal(t, "http://panel.local", cfg.CORSOrigin)
	assert.Equal(t, 500*time.Millisecond, cfg.Process.KillGrace)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "loadbank.yaml", "port: 8080\nprocess:\n  timeout: 5s\n")
	t.Setenv("PORT", "9090")
	t.Setenv("LOADBANK_TIMEOUT", "45s")
	t.Setenv("LOADBANK_BINARY", "/opt/serial")
	t.Setenv("LOADBANK_LOCK_BACKEND", "redis")
	t.Setenv("LOADBANK_REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.Process.Timeout)
	assert.Equal(t, "/opt/serial", cfg.Process.Binary)
	assert.Equal(t, LockRedis, cfg.Lock.Backend)
	assert.Equal(t, "localhost:6379", cfg.Lock.RedisAddr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "port: [1, 2"))
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeFile(t, "typo.yaml", "prot: 8080\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prot")
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("LOADBANK_TIMEOUT", "soon")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port zero", func(c *Config) { c.Port = 0 }, "port must be in"},
		{"admin port clash", func(c *Config) { c.AdminPort = c.Port }, "admin_port must differ"},
		{"empty binary", func(c *Config) { c.Process.Binary = "" }, "binary must not be empty"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "unknown log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "unknown format"},
		{"bad backend", func(c *Config) { c.Lock.Backend = "etcd" }, "unknown backend"},
		{"redis without addr", func(c *Config) { c.Lock.Backend = LockRedis }, "redis_addr is required"},
		{"lock ttl", func(c *Config) { c.Lock.Backend = LockMemory; c.Lock.TTL = 0 }, "ttl must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("admin disabled", func(t *testing.T) {
		cfg := Default()
		cfg.AdminPort = 0
		assert.NoError(t, cfg.Validate())
	})
}
