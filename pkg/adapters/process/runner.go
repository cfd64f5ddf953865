package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"github.com/aretw0/loadbank/internal/logging"
	"github.com/aretw0/loadbank/pkg/domain"
	"github.com/aretw0/loadbank/pkg/ports"
)

// MaxOutputSize caps how much of each stream is kept (1MB). The serial interface
// prints one short JSON line, so anything beyond this is a misbehaving binary.
const MaxOutputSize = 1024 * 1024

// Runner implements ports.Invoker by executing the serial interface once per invocation.
// It holds no per-invocation state and is safe for concurrent use.
type Runner struct {
	binary    string
	timeout   time.Duration
	killGrace time.Duration
	baseDir   string
	env       []string

	locker  ports.DeviceLocker
	lockKey string
	lockTTL time.Duration

	hooks  domain.InvokeHooks
	logger *slog.Logger
}

var _ ports.Invoker = (*Runner)(nil)

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithTimeout bounds each invocation. Non-positive values keep the default.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithKillGrace sets the delay between SIGTERM and SIGKILL on timeout.
func WithKillGrace(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.killGrace = d
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) RunnerOption {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// WithLocker serialises invocations through a device lock held for the whole run.
func WithLocker(locker ports.DeviceLocker, key string, ttl time.Duration) RunnerOption {
	return func(r *Runner) {
		r.locker = locker
		r.lockKey = key
		r.lockTTL = ttl
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.InvokeHooks) RunnerOption {
	return func(r *Runner) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner for the serial interface at binary.
func NewRunner(binary string, opts ...RunnerOption) *Runner {
	r := &Runner{
		binary:    binary,
		timeout:   DefaultTimeout,
		killGrace: DefaultKillGrace,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Binary returns the configured executable.
func (r *Runner) Binary() string {
	return r.binary
}

// Invoke runs the serial interface and waits for it to exit.
// Both streams are buffered until exit and a single outcome is decided afterwards:
// anything on stderr is a Failure, otherwise stdout is returned as a Success.
func (r *Runner) Invoke(ctx context.Context, inv domain.Invocation) domain.Result {
	start := time.Now()
	r.fire(ctx, r.hooks.OnStart, domain.EventInvokeStart, inv, nil)

	res := r.run(ctx, inv)
	res.Duration = time.Since(start)

	r.logResult(inv, res)
	r.fire(ctx, r.hooks.OnFinish, domain.EventInvokeFinish, inv, &res)
	return res
}

func (r *Runner) run(parent context.Context, inv domain.Invocation) domain.Result {
	// Client disconnects must not kill a half-finished serial transaction;
	// only the invocation deadline does.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), r.timeout)
	defer cancel()

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, r.lockKey, r.lockTTL)
		if err != nil {
			if !errors.Is(err, domain.ErrLockAcquire) {
				if errors.Is(err, context.DeadlineExceeded) {
					return r.timeoutResult()
				}
				err = fmt.Errorf("%w: %w", domain.ErrLockAcquire, err)
			}
			return domain.Result{Kind: domain.SpawnError, Message: err.Error(), ExitCode: -1}
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				r.logger.Warn("Runner: device unlock failed", "invocation_id", inv.ID, "error", err)
			}
		}()
	}

	cmd := exec.CommandContext(ctx, r.binary, inv.Argv()...)
	cmd.Dir = r.baseDir
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}
	// Ask politely first; WaitDelay escalates to SIGKILL and closes the pipes.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.killGrace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, limit: MaxOutputSize}
	cmd.Stderr = &limitedWriter{w: &stderr, limit: MaxOutputSize}

	if err := cmd.Start(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return r.timeoutResult()
		}
		return domain.Result{Kind: domain.SpawnError, Message: err.Error(), ExitCode: -1}
	}

	waitErr := cmd.Wait()

	if timedOut(ctx, waitErr) {
		return r.timeoutResult()
	}

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		// I/O errors after a successful start (e.g., exec.ErrWaitDelay) are logged, not surfaced.
		r.logger.Warn("Runner: wait failed", "invocation_id", inv.ID, "error", waitErr)
	}

	if stderr.Len() > 0 {
		return domain.Result{Kind: domain.Failure, Output: stderr.Bytes(), ExitCode: exitCode}
	}
	return domain.Result{Kind: domain.Success, Output: stdout.Bytes(), ExitCode: exitCode}
}

// timedOut reports whether the deadline ended the process. A clean exit that
// races the deadline still counts as finished: once Cancel has fired, Wait never
// returns nil.
func timedOut(ctx context.Context, waitErr error) bool {
	return waitErr != nil && errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func (r *Runner) timeoutResult() domain.Result {
	return domain.Result{
		Kind:     domain.Timeout,
		Message:  fmt.Sprintf("%v after %s", domain.ErrTimeout, r.timeout),
		ExitCode: -1,
	}
}

func (r *Runner) fire(ctx context.Context, hook func(context.Context, *domain.InvokeEvent), typ domain.EventType, inv domain.Invocation, res *domain.Result) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.InvokeEvent{
		Timestamp:  time.Now(),
		Type:       typ,
		Invocation: inv,
		Result:     res,
	})
}

func (r *Runner) logResult(inv domain.Invocation, res domain.Result) {
	attrs := []any{
		"invocation_id", inv.ID,
		"route", inv.Route,
		"binary", r.binary,
		"argv", inv.Argv(),
		"outcome", res.Kind,
		"exit_code", res.ExitCode,
		"duration", res.Duration,
	}
	switch res.Kind {
	case domain.Success:
		r.logger.Info("Invocation finished", attrs...)
	case domain.Failure:
		r.logger.Warn("Invocation failed", append(attrs, "stderr", string(res.Output))...)
	default:
		r.logger.Error("Invocation aborted", append(attrs, "error", res.Message)...)
	}
}

// limitedWriter limits the amount written to prevent memory issues
type limitedWriter struct {
	w       *bytes.Buffer
	limit   int
	written int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	total := len(p)
	if lw.written >= lw.limit {
		return total, nil // Discard but pretend we wrote it
	}
	remaining := lw.limit - lw.written
	if len(p) > remaining {
		p = p[:remaining]
	}
	n, err := lw.w.Write(p)
	lw.written += n
	if err != nil {
		return n, err
	}
	return total, nil
}
