package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aretw0/loadbank/internal/logging"
	"github.com/aretw0/loadbank/pkg/domain"
	"github.com/aretw0/loadbank/pkg/ports"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

// Dispatcher resolves paths against the route table and delegates to an Invoker.
// It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	invoker ports.Invoker
	routes  []domain.Route
	byPath  map[string]domain.Route
	logger  *slog.Logger
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a Dispatcher over the fixed route table.
func New(invoker ports.Invoker, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		invoker: invoker,
		routes:  domain.Routes(),
		byPath:  make(map[string]domain.Route),
		logger:  logging.NewNop(),
	}
	for _, r := range d.routes {
		d.byPath[r.Path] = r
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Routes returns the route table served by this dispatcher.
func (d *Dispatcher) Routes() []domain.Route {
	return append([]domain.Route(nil), d.routes...)
}

// NormalizePath strips exactly one trailing slash. "/a/b//" becomes "/a/b/".
func NormalizePath(path string) string {
	if strings.HasSuffix(path, "/") {
		return path[:len(path)-1]
	}
	return path
}

// Lookup finds the route for path after normalisation.
func (d *Dispatcher) Lookup(path string) (domain.Route, bool) {
	r, ok := d.byPath[NormalizePath(path)]
	return r, ok
}

// Value reads the optional values parameter. A nil result means the parameter
// was absent; a present but empty parameter yields a pointer to "". When the
// parameter repeats, the first occurrence wins.
func Value(query url.Values) (*string, error) {
	if vs := query[domain.ValuesParam]; len(vs) > 1 {
		query = url.Values{domain.ValuesParam: vs[:1]}
	}
	var value *string
	if err := runtime.BindQueryParameter("form", true, false, domain.ValuesParam, query, &value); err != nil {
		return nil, fmt.Errorf("invalid query parameter %q: %w", domain.ValuesParam, err)
	}
	return value, nil
}

// Resolve turns a path and query into an invocation without running it.
func (d *Dispatcher) Resolve(path string, query url.Values) (domain.Invocation, error) {
	route, ok := d.Lookup(path)
	if !ok {
		return domain.Invocation{}, fmt.Errorf("%w: %s", domain.ErrRouteNotFound, path)
	}
	return d.resolveRoute(route, query)
}

func (d *Dispatcher) resolveRoute(route domain.Route, query url.Values) (domain.Invocation, error) {
	var value *string
	if route.TakesValue {
		v, err := Value(query)
		if err != nil {
			return domain.Invocation{}, err
		}
		if v == nil {
			return domain.Invocation{}, domain.ErrMissingValue
		}
		value = v
	}
	inv := route.Invocation(value)
	inv.ID = uuid.NewString()
	return inv, nil
}

// Dispatch handles one request. The method is accepted but never inspected.
func (d *Dispatcher) Dispatch(ctx context.Context, method, path string, query url.Values) domain.Response {
	route, ok := d.Lookup(path)
	if !ok {
		d.logger.Debug("Dispatch: no route", "method", method, "path", path)
		return domain.NotFound()
	}
	return d.Run(ctx, route, query)
}

// Run handles a request whose route has already been matched (e.g., by a router).
func (d *Dispatcher) Run(ctx context.Context, route domain.Route, query url.Values) domain.Response {
	inv, err := d.resolveRoute(route, query)
	if err != nil {
		d.logger.Warn("Dispatch: request rejected", "route", route.Name, "error", err)
		return domain.BadRequest(err.Error())
	}

	d.logger.Debug("Dispatch: invoking", "route", route.Name, "invocation_id", inv.ID, "argv", inv.Argv())
	return d.invoker.Invoke(ctx, inv).Response()
}
