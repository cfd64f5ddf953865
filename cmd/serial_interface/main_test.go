package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aretw0/loadbank/pkg/serial/serialtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome struct {
	code   int
	stdout string
	stderr string
}

func runWith(t *testing.T, board *serialtest.Board, args ...string) outcome {
	t.Helper()
	dial := func(device string, baud int) (io.ReadWriteCloser, error) {
		assert.Equal(t, "/dev/ttyTEST", device)
		assert.Equal(t, 57600, baud)
		if board == nil {
			return nil, errors.New("no such device")
		}
		return board.Pipe(), nil
	}

	args = append([]string{"--device", "/dev/ttyTEST", "--lock-file", filepath.Join(t.TempDir(), "usbfd.lock")}, args...)
	var stdout, stderr bytes.Buffer
	code := executeWith(args, &stdout, &stderr, dial)
	return outcome{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func decode(t *testing.T, s string) map[string]string {
	t.Helper()
	var m map[string]string
	require.NoError(t, json.Unmarshal([]byte(s), &m), s)
	return m
}

func TestQueries(t *testing.T) {
	board := serialtest.NewBoard()

	out := runWith(t, board, "ZCS?")
	assert.Equal(t, exitOK, out.code)
	assert.Equal(t, "{\"status\": \"OK\", \"zcs\": \"0\"}\n", out.stdout)
	assert.Empty(t, out.stderr)

	out = runWith(t, board, "SW?")
	assert.Equal(t, "{\"status\": \"OK\", \"switches\": \"000000000000000000\"}\n", out.stdout)

	out = runWith(t, board, "PHASE?")
	assert.Equal(t, "{\"status\": \"OK\", \"phases\": \"111111111111111111\"}\n", out.stdout)
}

func TestSets(t *testing.T) {
	board := serialtest.NewBoard()

	out := runWith(t, board, "ZCS", "ON")
	assert.Equal(t, exitOK, out.code)
	assert.Equal(t, "1", decode(t, out.stdout)["zcs"])

	out = runWith(t, board, "SW", "111000000000000000")
	assert.Equal(t, exitOK, out.code)
	assert.Equal(t, "111000000000000000", decode(t, out.stdout)["switches"])

	out = runWith(t, board, "PHASE", "222222222333333333")
	assert.Equal(t, exitOK, out.code)
	assert.Equal(t, "222222222333333333", decode(t, out.stdout)["phases"])

	zcs, switches, _ := board.State()
	assert.True(t, zcs)
	assert.Equal(t, uint32(0b111), switches)
}

func TestBadRequests(t *testing.T) {
	board := serialtest.NewBoard()

	for _, args := range [][]string{
		{},
		{"ZCS", "ON", "extra"},
		{"ZCS", "MAYBE"},
		{"ZCS"},
		{"SW", "10"},
		{"SW", "11100000000000000x"},
		{"PHASE", "123"},
		{"RESET"},
		{"SW?", "1"},
		{"SW", "--help"},
		{"SW", "-h"},
		{"SW", "--baud=9600"},
		{"PHASE", "--lock-file="},
		{"ZCS", "--device=/dev/null"},
	} {
		out := runWith(t, board, args...)
		assert.Equal(t, exitRejected, out.code, args)
		assert.Equal(t, "Bad Request", decode(t, out.stdout)["status"], args)
		assert.Empty(t, out.stderr, args)
	}

	assert.Empty(t, board.Requests(), "rejected requests never touch the device")
}

func TestZCSTimeout(t *testing.T) {
	board := serialtest.NewBoard()
	board.ZCSTimeout = true

	out := runWith(t, board, "SW", "111111111111111111")
	assert.Equal(t, exitRejected, out.code)
	reply := decode(t, out.stdout)
	assert.Equal(t, "Request Timeout", reply["status"])
	assert.Contains(t, reply["msg"], "Zero-Crossing")
}

func TestDeviceErrors(t *testing.T) {
	out := runWith(t, nil, "ZCS?")
	assert.Equal(t, exitInternal, out.code)
	assert.Empty(t, out.stdout, "internal errors go to stderr so the gateway answers 500")
	reply := decode(t, out.stderr)
	assert.Equal(t, "Internal Server Error", reply["status"])
	assert.Contains(t, reply["msg"], "no such device")

	board := serialtest.NewBoard()
	board.Reply = func(req []byte) []byte { return []byte("garbage") }
	out = runWith(t, board, "SW?")
	assert.Equal(t, exitInternal, out.code)
	assert.Contains(t, decode(t, out.stderr)["msg"], "malformed")
}

func TestWriteReplyEscapes(t *testing.T) {
	var buf bytes.Buffer
	writeReply(&buf, statusBadRequest, "msg", `Argument "x" is not "ON"`)
	assert.Equal(t, `Argument "x" is not "ON"`, decode(t, buf.String())["msg"])
}
