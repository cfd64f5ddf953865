package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/loadbank/internal/logging"
	"github.com/aretw0/loadbank/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// AdminConfig configures the admin handler. Nil fields disable their endpoints.
type AdminConfig struct {
	App     string
	Version string
	Routes  []domain.Route
	Metrics http.Handler
	Streams *StreamManager
	Logger  *slog.Logger
}

// NewAdminHandler serves the operational endpoints that must stay off the gateway
// listener: metrics, health, build info, API docs, the route table and the event stream.
func NewAdminHandler(cfg AdminConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	a := &admin{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", a.getHealth)
	r.Get("/info", a.getInfo)
	r.Get("/routes", a.getRoutes)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(RawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	if cfg.Streams != nil {
		r.Get("/events", a.subscribeEvents)
	}
	return r
}

type admin struct {
	cfg AdminConfig
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Load Bank API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

func (a *admin) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.cfg.Logger.Error("admin: response encode failed", "error", err)
	}
}

func (a *admin) getHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, map[string]string{"status": "ok"})
}

func (a *admin) getInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	a.writeJSON(w, map[string]string{
		"app":         a.cfg.App,
		"version":     strings.TrimSpace(a.cfg.Version),
		"api_version": apiVersion,
	})
}

func (a *admin) getRoutes(w http.ResponseWriter, r *http.Request) {
	routes := a.cfg.Routes
	if routes == nil {
		routes = []domain.Route{}
	}
	a.writeJSON(w, routes)
}

// subscribeEvents handles GET /events (SSE). ?type= keeps only one event type.
func (a *admin) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		a.cfg.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	filter := domain.EventType(r.URL.Query().Get("type"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := a.cfg.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	a.cfg.Logger.Debug("SSE: client subscribed", "filter", filter)

	for {
		select {
		case <-r.Context().Done():
			a.cfg.Logger.Debug("SSE: client disconnected")
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if filter != "" && e.Type != filter {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, e.Payload)
			flusher.Flush()
		}
	}
}
