package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/loadbank"
	"github.com/aretw0/loadbank/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func fakeSerialInterface(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "serial_interface")
	script := "#!/bin/sh\nprintf '{\"status\": \"OK\", \"argv\": \"%s\"}' \"$*\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "loadbankd version "+loadbank.Version+"\n", out)
}

func TestRoutes(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		out, _, err := execute(t, "routes", "--format", "plain")
		require.NoError(t, err)
		assert.Contains(t, out, "/api/v1/zcs/off")
		assert.Contains(t, out, "ZCS OFF")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "routes", "-f", "json")
		require.NoError(t, err)
		var routes []domain.Route
		require.NoError(t, json.Unmarshal([]byte(out), &routes))
		assert.Equal(t, domain.Routes(), routes)
	})

	t.Run("mermaid", func(t *testing.T) {
		out, _, err := execute(t, "routes", "-f", "mermaid", "--highlight", "zcs_on")
		require.NoError(t, err)
		assert.Contains(t, out, "graph LR")
		assert.Contains(t, out, "class route_zcs_on current;")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := execute(t, "routes", "-f", "csv")
		assert.ErrorContains(t, err, "unknown format")
	})
}

func TestInvoke(t *testing.T) {
	bin := fakeSerialInterface(t)

	t.Run("fixed route", func(t *testing.T) {
		out, errOut, err := execute(t, "invoke", "/api/v1/zcs/on/", "--binary", bin)
		require.NoError(t, err)
		assert.Equal(t, `{"status": "OK", "argv": "ZCS ON"}`, out)
		assert.Contains(t, errOut, "200 OK")
	})

	t.Run("values", func(t *testing.T) {
		out, _, err := execute(t, "invoke", "/api/v1/switches", "--binary", bin, "--values", "101")
		require.NoError(t, err)
		assert.Equal(t, `{"status": "OK", "argv": "SW 101"}`, out)
	})

	t.Run("missing values", func(t *testing.T) {
		out, errOut, err := execute(t, "invoke", "/api/v1/phases", "--binary", bin)
		assert.ErrorContains(t, err, "400")
		assert.Contains(t, out, "Bad Request")
		assert.Contains(t, errOut, "400 Bad Request")
	})

	t.Run("unknown path", func(t *testing.T) {
		out, _, err := execute(t, "invoke", "/nope", "--binary", bin)
		assert.ErrorContains(t, err, "404")
		assert.Equal(t, "Not Found", out)
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, _, err := execute(t, "invoke", "/api/v1/zcs/on", "--log-level", "loud")
	assert.ErrorContains(t, err, "invalid configuration")

	_, _, err = execute(t, "invoke", "/api/v1/zcs/on", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
