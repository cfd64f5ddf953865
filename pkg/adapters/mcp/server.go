package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aretw0/loadbank/internal/logging"
	"github.com/aretw0/loadbank/pkg/dispatch"
	"github.com/aretw0/loadbank/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RoutesURI is the resource exposing the route table.
const RoutesURI = "loadbank://routes"

// InvokeResponse mirrors the HTTP response of the equivalent gateway request.
type InvokeResponse struct {
	Status int    `json:"status" jsonschema_description:"HTTP status the gateway would answer with"`
	Body   string `json:"body" jsonschema_description:"Raw serial interface output"`
}

// Server exposes every gateway route as an MCP tool.
type Server struct {
	dispatcher *dispatch.Dispatcher
	mcpServer  *server.MCPServer
	tools      []mcp.Tool
	logger     *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(d *dispatch.Dispatcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		dispatcher: d,
		mcpServer:  server.NewMCPServer("loadbank-mcp", version),
		logger:     logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Tools returns the registered tool definitions.
func (s *Server) Tools() []mcp.Tool {
	return append([]mcp.Tool(nil), s.tools...)
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("MCP Server shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	for _, route := range s.dispatcher.Routes() {
		opts := []mcp.ToolOption{
			mcp.WithDescription(route.Description),
			mcp.WithOutputSchema[InvokeResponse](),
		}
		if route.TakesValue {
			opts = append(opts, mcp.WithString(domain.ValuesParam,
				mcp.Required(),
				mcp.Description("State string, one character per unit"),
			))
		}
		tool := mcp.NewTool(route.Name, opts...)
		s.tools = append(s.tools, tool)
		s.mcpServer.AddTool(tool, mcp.NewStructuredToolHandler(s.routeHandler(route)))
	}
}

// routeHandler runs route through the dispatcher. Any status >= 400 becomes a tool error.
func (s *Server) routeHandler(route domain.Route) func(context.Context, mcp.CallToolRequest, map[string]interface{}) (InvokeResponse, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (InvokeResponse, error) {
		query := url.Values{}
		if raw, ok := args[domain.ValuesParam]; ok {
			value, isString := raw.(string)
			if !isString {
				return InvokeResponse{}, fmt.Errorf("%w: %q must be a string", domain.ErrInvalidValue, domain.ValuesParam)
			}
			query.Set(domain.ValuesParam, value)
		}

		resp := s.dispatcher.Run(ctx, route, query)
		if resp.Status >= http.StatusBadRequest {
			s.logger.Warn("MCP: tool failed", "tool", route.Name, "status", resp.Status)
			return InvokeResponse{}, fmt.Errorf("%s: %d %s", route.Name, resp.Status, resp.Body)
		}
		return InvokeResponse{Status: resp.Status, Body: string(resp.Body)}, nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(RoutesURI, "Gateway Route Table",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.dispatcher.Routes())
		if err != nil {
			return nil, fmt.Errorf("failed to encode routes: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      RoutesURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
