package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/loadbank/pkg/serial"
	"github.com/spf13/cobra"
)

const (
	exitOK       = 0
	exitRejected = 1
	exitInternal = 2
)

// lockWait bounds how long we queue behind another process for the device.
const lockWait = 30 * time.Second

// dialFunc opens the device. Replaced in tests.
type dialFunc func(device string, baud int) (io.ReadWriteCloser, error)

func openPort(device string, baud int) (io.ReadWriteCloser, error) {
	return serial.Open(device, baud)
}

type options struct {
	device   string
	baud     int
	lockFile string
	dial     dialFunc
}

func defaultDevice() string {
	if d := os.Getenv("SERIAL_DEVICE"); d != "" {
		return d
	}
	return serial.DefaultDevice
}

func execute(args []string, stdout, stderr io.Writer) int {
	return executeWith(args, stdout, stderr, openPort)
}

func executeWith(args []string, stdout, stderr io.Writer, dial dialFunc) int {
	opts := options{dial: dial}
	code := exitOK

	cmd := &cobra.Command{
		Use:           "serial_interface <command> [value]",
		Short:         "Send one command to the load bank controller",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code = run(cmd.Context(), args, opts, stdout, stderr)
			return nil
		},
	}
	cmd.SetArgs(args)
	// Values come straight from HTTP query strings; anything after the command
	// token is an argument, never a flag.
	cmd.Flags().SetInterspersed(false)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().StringVar(&opts.device, "device", defaultDevice(), "Serial device wired to the controller (env SERIAL_DEVICE)")
	cmd.Flags().IntVar(&opts.baud, "baud", serial.DefaultBaud, "Line rate")
	cmd.Flags().StringVar(&opts.lockFile, "lock-file", filepath.Join(os.TempDir(), "usbfd.lock"), "File locked while the device is in use; empty disables locking")

	if err := cmd.Execute(); err != nil {
		writeReply(stdout, statusBadRequest, "msg", err.Error())
		return exitRejected
	}
	return code
}

// badRequest is a rejection reported verbatim to the caller.
type badRequest string

func (b badRequest) Error() string { return string(b) }

// request is one parsed command line.
type request struct {
	op    string
	value string
}

func parseRequest(args []string) (request, error) {
	if len(args) < 1 || len(args) > 2 {
		return request{}, badRequest("Incorrect number of arguments to server")
	}
	req := request{op: args[0]}
	if len(args) == 2 {
		req.value = args[1]
	}

	switch req.op {
	case "ZCS?", "SW?", "PHASE?":
		if len(args) != 1 {
			return request{}, badRequest(fmt.Sprintf("Invalid request %s %s", args[0], args[1]))
		}
	case "ZCS":
		if req.value != "ON" && req.value != "OFF" {
			return request{}, badRequest(fmt.Sprintf("Argument %q is not \"ON\" or \"OFF\"", req.value))
		}
	case "SW":
		if _, err := serial.ParseSwitches(req.value); err != nil {
			return request{}, badRequest("Argument had incorrect length, or characters other than '0' or '1'")
		}
	case "PHASE":
		if _, err := serial.ParsePhases(req.value); err != nil {
			return request{}, badRequest(fmt.Sprintf("Argument %q had incorrect length, or characters other than '1', '2', and '3'", req.value))
		}
	default:
		if len(args) == 2 {
			return request{}, badRequest(fmt.Sprintf("Invalid request %s %s", args[0], args[1]))
		}
		return request{}, badRequest(fmt.Sprintf("Invalid request %s", args[0]))
	}
	return req, nil
}

func run(ctx context.Context, args []string, opts options, stdout, stderr io.Writer) int {
	req, err := parseRequest(args)
	if err != nil {
		writeReply(stdout, statusBadRequest, "msg", err.Error())
		return exitRejected
	}

	if opts.lockFile != "" {
		lockCtx, cancel := context.WithTimeout(ctx, lockWait)
		unlock, err := serial.LockFile(lockCtx, opts.lockFile)
		cancel()
		if err != nil {
			writeReply(stderr, statusInternal, "msg", "Could not acquire device lock: "+err.Error())
			return exitInternal
		}
		defer unlock()
	}

	port, err := opts.dial(opts.device, opts.baud)
	if err != nil {
		writeReply(stderr, statusInternal, "msg", "Unable to open port: "+err.Error())
		return exitInternal
	}
	defer port.Close()

	key, value, err := perform(serial.NewClient(port, nil), req)
	switch {
	case err == nil:
		writeReply(stdout, statusOK, key, value)
		return exitOK
	case errors.Is(err, serial.ErrZCSTimeout):
		writeReply(stdout, statusTimeout, "msg", "No Zero-Crossing detected for 10 seconds")
		return exitRejected
	case errors.Is(err, serial.ErrRejected):
		writeReply(stdout, statusBadRequest, "msg", err.Error())
		return exitRejected
	default:
		writeReply(stderr, statusInternal, "msg", err.Error())
		return exitInternal
	}
}

func perform(c *serial.Client, req request) (string, string, error) {
	switch req.op {
	case "ZCS?":
		on, err := c.QueryZCS()
		return "zcs", zcsFlag(on), err
	case "ZCS":
		on, err := c.SetZCS(req.value == "ON")
		return "zcs", zcsFlag(on), err
	case "SW?":
		s, err := c.QuerySwitches()
		return "switches", s, err
	case "SW":
		s, err := c.SetSwitches(req.value)
		return "switches", s, err
	case "PHASE?":
		s, err := c.QueryPhases()
		return "phases", s, err
	case "PHASE":
		s, err := c.SetPhases(req.value)
		return "phases", s, err
	}
	return "", "", fmt.Errorf("unhandled request %q", req.op)
}

func zcsFlag(on bool) string {
	if on {
		return "1"
	}
	return "0"
}
