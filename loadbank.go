package loadbank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aretw0/loadbank/internal/logging"
	httpAdapter "github.com/aretw0/loadbank/pkg/adapters/http"
	"github.com/aretw0/loadbank/pkg/adapters/mcp"
	"github.com/aretw0/loadbank/pkg/adapters/process"
	"github.com/aretw0/loadbank/pkg/dispatch"
	"github.com/aretw0/loadbank/pkg/domain"
	"github.com/aretw0/loadbank/pkg/observability"
	"github.com/aretw0/loadbank/pkg/ports"
)

// AppName identifies the gateway in /info and the MCP handshake.
const AppName = "loadbankd"

// ShutdownTimeout bounds the graceful shutdown of the listeners.
const ShutdownTimeout = 5 * time.Second

// Gateway wires the serial interface runner, the dispatcher and the adapters together.
type Gateway struct {
	process    process.Config
	invoker    ports.Invoker
	runner     *process.Runner
	dispatcher *dispatch.Dispatcher
	metrics    *observability.Metrics
	streams    *httpAdapter.StreamManager

	locker  ports.DeviceLocker
	lockKey string
	lockTTL time.Duration

	hooks      domain.InvokeHooks
	corsOrigin string
	logger     *slog.Logger
}

// Option defines a functional option for configuring the Gateway.
type Option func(*Gateway)

// WithProcessConfig replaces the whole process configuration.
func WithProcessConfig(cfg process.Config) Option {
	return func(g *Gateway) {
		g.process = cfg
	}
}

// WithBinary sets the serial interface executable.
func WithBinary(binary string) Option {
	return func(g *Gateway) {
		g.process.Binary = binary
	}
}

// WithTimeout bounds each invocation.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.process.Timeout = d
	}
}

// WithKillGrace sets the delay between SIGTERM and SIGKILL on timeout.
func WithKillGrace(d time.Duration) Option {
	return func(g *Gateway) {
		g.process.KillGrace = d
	}
}

// WithDeviceLock serialises every invocation through locker under key.
func WithDeviceLock(locker ports.DeviceLocker, key string, ttl time.Duration) Option {
	return func(g *Gateway) {
		g.locker = locker
		g.lockKey = key
		g.lockTTL = ttl
	}
}

// WithInvoker bypasses the process runner. Intended for tests and embedding.
func WithInvoker(inv ports.Invoker) Option {
	return func(g *Gateway) {
		g.invoker = inv
	}
}

// WithHooks registers additional invocation hooks.
func WithHooks(hooks domain.InvokeHooks) Option {
	return func(g *Gateway) {
		g.hooks = g.hooks.Merge(hooks)
	}
}

// WithCORSOrigin sets the Access-Control-Allow-Origin value. Empty disables it.
func WithCORSOrigin(origin string) Option {
	return func(g *Gateway) {
		g.corsOrigin = origin
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// New builds a Gateway. Without options it runs "serial_interface" from PATH.
func New(opts ...Option) (*Gateway, error) {
	g := &Gateway{
		process:    process.DefaultConfig(),
		corsOrigin: "*",
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.metrics = observability.NewMetrics()
	g.streams = httpAdapter.NewStreamManager(g.logger)
	hooks := g.metrics.Hooks().Merge(g.streams.Hooks()).Merge(g.hooks)

	if g.invoker == nil {
		if err := g.process.Validate(); err != nil {
			return nil, fmt.Errorf("invalid process config: %w", err)
		}
		runnerOpts := append(g.process.RunnerOptions(),
			process.WithHooks(hooks),
			process.WithLogger(g.logger),
		)
		if g.locker != nil {
			runnerOpts = append(runnerOpts, process.WithLocker(g.locker, g.lockKey, g.lockTTL))
		}
		g.runner = process.NewRunner(g.process.Binary, runnerOpts...)
		g.invoker = g.runner
	}

	g.dispatcher = dispatch.New(g.invoker, dispatch.WithLogger(g.logger))
	return g, nil
}

// Binary returns the serial interface executable, or "" when a custom invoker is used.
func (g *Gateway) Binary() string {
	if g.runner == nil {
		return ""
	}
	return g.runner.Binary()
}

// Routes returns the route table.
func (g *Gateway) Routes() []domain.Route {
	return g.dispatcher.Routes()
}

// Dispatcher exposes the request dispatcher.
func (g *Gateway) Dispatcher() *dispatch.Dispatcher {
	return g.dispatcher
}

// Metrics exposes the gateway metrics.
func (g *Gateway) Metrics() *observability.Metrics {
	return g.metrics
}

// Invoke dispatches a single request in-process, bypassing HTTP.
func (g *Gateway) Invoke(ctx context.Context, method, path string, query url.Values) domain.Response {
	return g.dispatcher.Dispatch(ctx, method, path, query)
}

// Handler returns the gateway HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return httpAdapter.NewHandler(g.dispatcher,
		httpAdapter.WithCORSOrigin(g.corsOrigin),
		httpAdapter.WithObserver(g.metrics),
		httpAdapter.WithLogger(g.logger),
	)
}

// AdminHandler returns the operational HTTP handler.
func (g *Gateway) AdminHandler() http.Handler {
	return httpAdapter.NewAdminHandler(httpAdapter.AdminConfig{
		App:     AppName,
		Version: Version,
		Routes:  g.Routes(),
		Metrics: g.metrics.Handler(),
		Streams: g.streams,
		Logger:  g.logger,
	})
}

// MCPServer returns an MCP server exposing one tool per route.
func (g *Gateway) MCPServer() *mcp.Server {
	return mcp.NewServer(g.dispatcher, Version, g.logger)
}

// Serve runs the gateway on ln and, when adminLn is not nil, the admin handler on
// adminLn. It returns when ctx is done (after a graceful shutdown) or a listener fails.
func (g *Gateway) Serve(ctx context.Context, ln, adminLn net.Listener) error {
	servers := []*http.Server{newServer(g.Handler())}
	listeners := []net.Listener{ln}
	if adminLn != nil {
		servers = append(servers, newServer(g.AdminHandler()))
		listeners = append(listeners, adminLn)
	}

	serverErrors := make(chan error, len(servers))
	for i, srv := range servers {
		go func(srv *http.Server, l net.Listener) {
			g.logger.Info("listening", "address", l.Addr().String())
			serverErrors <- srv.Serve(l)
		}(srv, listeners[i])
	}

	var serveErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		g.logger.Info("shutting down", "reason", context.Cause(ctx))
	}

	// Give outstanding requests a deadline for completion.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			g.logger.Warn("graceful shutdown did not complete", "error", err)
			errs = append(errs, srv.Close())
		}
	}
	return errors.Join(append([]error{serveErr}, errs...)...)
}

func newServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
