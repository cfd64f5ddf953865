// Package config loads gateway configuration from defaults, an optional file and the
// environment, in that order of precedence (lowest first). CLI flags are applied by
// the caller on top.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/loadbank/internal/logging"
	"github.com/aretw0/loadbank/pkg/adapters/process"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort      = 6001
	DefaultAdminPort = 6002
	DefaultLockKey   = "/dev/ttyUSB0"
	DefaultLockTTL   = time.Minute
)

// Lock backends.
const (
	LockNone   = "none"
	LockMemory = "memory"
	LockRedis  = "redis"
)

// Config is the complete gateway configuration.
type Config struct {
	Port       int            `yaml:"port" json:"port" mapstructure:"port"`
	AdminPort  int            `yaml:"admin_port" json:"admin_port" mapstructure:"admin_port"` // 0 disables the admin listener
	CORSOrigin string         `yaml:"cors_origin" json:"cors_origin" mapstructure:"cors_origin"`
	Process    process.Config `yaml:"process" json:"process" mapstructure:"process"`
	Log        LogConfig      `yaml:"log" json:"log" mapstructure:"log"`
	Lock       LockConfig     `yaml:"lock" json:"lock" mapstructure:"lock"`
}

// LogConfig mirrors logging.Options.
type LogConfig struct {
	Level      string `yaml:"level" json:"level" mapstructure:"level"`
	Format     string `yaml:"format" json:"format" mapstructure:"format"`
	File       string `yaml:"file" json:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days" mapstructure:"max_age_days"`
}

// Options converts the section into logger options.
func (l LogConfig) Options() logging.Options {
	return logging.Options{
		Level:      l.Level,
		Format:     l.Format,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
	}
}

// LockConfig selects the optional device lock taken around every invocation.
type LockConfig struct {
	Backend   string        `yaml:"backend" json:"backend" mapstructure:"backend"`
	RedisAddr string        `yaml:"redis_addr" json:"redis_addr" mapstructure:"redis_addr"`
	Key       string        `yaml:"key" json:"key" mapstructure:"key"`
	TTL       time.Duration `yaml:"ttl" json:"ttl" mapstructure:"ttl"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Port:       DefaultPort,
		AdminPort:  DefaultAdminPort,
		CORSOrigin: "*",
		Process:    process.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Lock: LockConfig{
			Backend: LockNone,
			Key:     DefaultLockKey,
			TTL:     DefaultLockTTL,
		},
	}
}

// envKeys maps environment variables to configuration keys.
var envKeys = map[string]string{
	"PORT":                  "port",
	"LOADBANK_ADMIN_PORT":   "admin_port",
	"LOADBANK_CORS_ORIGIN":  "cors_origin",
	"LOADBANK_BINARY":       "process.binary",
	"LOADBANK_TIMEOUT":      "process.timeout",
	"LOADBANK_KILL_GRACE":   "process.kill_grace",
	"LOADBANK_DIR":          "process.dir",
	"LOADBANK_LOG_LEVEL":    "log.level",
	"LOADBANK_LOG_FORMAT":   "log.format",
	"LOADBANK_LOG_FILE":     "log.file",
	"LOADBANK_LOCK_BACKEND": "lock.backend",
	"LOADBANK_LOCK_KEY":     "lock.key",
	"LOADBANK_LOCK_TTL":     "lock.ttl",
	"LOADBANK_REDIS_ADDR":   "lock.redis_addr",
}

// Load builds the configuration. An empty path skips the file layer; a path that
// does not exist is an error.
func Load(path string) (Config, error) {
	raw := map[string]any{}

	if path != "" {
		fileRaw, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		raw = fileRaw
	}

	for env, key := range envKeys {
		if v, ok := os.LookupEnv(env); ok {
			setPath(raw, key, v)
		}
	}

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}
	return raw, nil
}

func decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// setPath assigns value at a dotted key, creating intermediate maps.
func setPath(raw map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	m := raw
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Validate reports every configuration error at once.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be in 1..65535, got %d", c.Port))
	}
	if c.AdminPort < 0 || c.AdminPort > 65535 {
		errs = append(errs, fmt.Errorf("admin_port must be in 0..65535, got %d", c.AdminPort))
	}
	if c.AdminPort != 0 && c.AdminPort == c.Port {
		errs = append(errs, fmt.Errorf("admin_port must differ from port (%d)", c.Port))
	}
	if err := c.Process.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("process: %w", err))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q (want text or json)", c.Log.Format))
	}

	switch c.Lock.Backend {
	case "", LockNone:
	case LockMemory, LockRedis:
		if c.Lock.Key == "" {
			errs = append(errs, errors.New("lock: key must not be empty"))
		}
		if c.Lock.TTL <= 0 {
			errs = append(errs, fmt.Errorf("lock: ttl must be positive, got %s", c.Lock.TTL))
		}
		if c.Lock.Backend == LockRedis && c.Lock.RedisAddr == "" {
			errs = append(errs, errors.New("lock: redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("lock: unknown backend %q (want none, memory or redis)", c.Lock.Backend))
	}
	return errors.Join(errs...)
}
