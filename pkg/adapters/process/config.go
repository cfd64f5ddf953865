package process

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DefaultBinary is the serial interface executable looked up on PATH when no path is configured.
const DefaultBinary = "serial_interface"

const (
	// DefaultTimeout bounds a single invocation, device lock wait included.
	DefaultTimeout = 30 * time.Second
	// DefaultKillGrace is how long a timed-out process gets between SIGTERM and SIGKILL.
	DefaultKillGrace = 2 * time.Second
)

// Config describes how the serial interface is executed.
type Config struct {
	Binary    string            `yaml:"binary" json:"binary" mapstructure:"binary"`
	Timeout   time.Duration     `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
	KillGrace time.Duration     `yaml:"kill_grace" json:"kill_grace" mapstructure:"kill_grace"`
	Dir       string            `yaml:"dir" json:"dir" mapstructure:"dir"`
	Env       map[string]string `yaml:"env" json:"env" mapstructure:"env"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Binary:    DefaultBinary,
		Timeout:   DefaultTimeout,
		KillGrace: DefaultKillGrace,
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	var errs []error
	if c.Binary == "" {
		errs = append(errs, errors.New("binary must not be empty"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.KillGrace <= 0 {
		errs = append(errs, fmt.Errorf("kill_grace must be positive, got %s", c.KillGrace))
	}
	return errors.Join(errs...)
}

// RunnerOptions translates the configuration into Runner options.
func (c Config) RunnerOptions() []RunnerOption {
	opts := []RunnerOption{
		WithTimeout(c.Timeout),
		WithKillGrace(c.KillGrace),
	}
	if c.Dir != "" {
		opts = append(opts, WithBaseDir(c.Dir))
	}
	if len(c.Env) > 0 {
		keys := make([]string, 0, len(c.Env))
		for k := range c.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		env := make([]string, 0, len(keys))
		for _, k := range keys {
			env = append(env, k+"="+c.Env[k])
		}
		opts = append(opts, WithEnv(env...))
	}
	return opts
}
