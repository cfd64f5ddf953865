package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/loadbank/internal/logging"
	"github.com/aretw0/loadbank/pkg/dispatch"
	"github.com/aretw0/loadbank/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// unmatchedRoute labels requests that hit no route in request metrics.
const unmatchedRoute = "unmatched"

// RequestObserver records one finished request. observability.Metrics satisfies it.
type RequestObserver interface {
	ObserveRequest(route string, status int)
}

type gatewayConfig struct {
	corsOrigin string
	observer   RequestObserver
	logger     *slog.Logger
}

// Option configures the gateway handler.
type Option func(*gatewayConfig)

// WithCORSOrigin sets the Access-Control-Allow-Origin value. Empty disables the header.
func WithCORSOrigin(origin string) Option {
	return func(c *gatewayConfig) {
		c.corsOrigin = origin
	}
}

// WithObserver records every request with o.
func WithObserver(o RequestObserver) Option {
	return func(c *gatewayConfig) {
		c.observer = o
	}
}

// WithLogger configures the access logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *gatewayConfig) {
		c.logger = logger
	}
}

// NewHandler creates the gateway handler: the fixed route table and nothing else.
// Any method is accepted on every route and a single trailing slash is ignored.
func NewHandler(d *dispatch.Dispatcher, opts ...Option) http.Handler {
	cfg := &gatewayConfig{
		corsOrigin: "*",
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog(cfg.logger, cfg.observer))
	r.Use(middleware.Recoverer)
	r.Use(enableCORS(cfg.corsOrigin))
	r.Use(anyMethod)
	r.Use(normalizePath)

	for _, route := range d.Routes() {
		r.Handle(route.Path, routeHandler(d, route))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, domain.NotFound())
	})

	return r
}

func routeHandler(d *dispatch.Dispatcher, route domain.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, d.Run(r.Context(), route, r.URL.Query()))
	}
}

// writeResponse writes resp exactly: no trailing newline, no charset.
func writeResponse(w http.ResponseWriter, resp domain.Response) {
	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func enableCORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// anyMethod routes every request as GET. chi answers 405 for methods it does not
// know, but the route table is method-agnostic.
func anyMethod(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			rctx.RouteMethod = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}

// normalizePath strips one trailing slash from the path chi matches on. chi
// routes on RawPath when the request carries one, so the decoded Path is not
// consulted in that case.
func normalizePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			path := r.URL.RawPath
			if path == "" {
				path = r.URL.Path
			}
			rctx.RoutePath = dispatch.NormalizePath(path)
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(logger *slog.Logger, observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := unmatchedRoute
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				if observer != nil {
					observer.ObserveRequest(route, status)
				}
				logger.Info("request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"route", route,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
