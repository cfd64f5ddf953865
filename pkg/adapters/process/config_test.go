package process

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := Config{}
	err := bad.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "binary")
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "kill_grace")
}

func TestConfig_RunnerOptions(t *testing.T) {
	cfg := Config{
		Binary:    "/opt/loadbank/serial_interface",
		Timeout:   5 * time.Second,
		KillGrace: time.Second,
		Dir:       "/tmp",
		Env:       map[string]string{"B": "2", "A": "1"},
	}

	r := NewRunner(cfg.Binary, cfg.RunnerOptions()...)

	assert.Equal(t, "/opt/loadbank/serial_interface", r.Binary())
	assert.Equal(t, 5*time.Second, r.timeout)
	assert.Equal(t, time.Second, r.killGrace)
	assert.Equal(t, "/tmp", r.baseDir)
	assert.Equal(t, []string{"A=1", "B=2"}, r.env)
}
