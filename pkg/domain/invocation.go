package domain

import (
	"fmt"
	"net/http"
	"time"
)

// ContentTypeText is the content type of every gateway response.
const ContentTypeText = "text/plain"

// Invocation is one request to run the serial interface.
type Invocation struct {
	ID      string   `json:"id,omitempty"`
	Route   string   `json:"route,omitempty"` // Name of the route that produced it, for logs and metrics
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Argv returns the argument vector handed to the serial interface: the command
// token followed by its arguments.
func (i Invocation) Argv() []string {
	argv := make([]string, 0, 1+len(i.Args))
	argv = append(argv, i.Command)
	return append(argv, i.Args...)
}

// ResultKind tags the outcome of an invocation.
type ResultKind string

const (
	// Success: the process exited and wrote nothing to stderr.
	Success ResultKind = "success"
	// Failure: the process wrote to stderr.
	Failure ResultKind = "failure"
	// SpawnError: the process could not be started (or the device lock failed).
	SpawnError ResultKind = "spawn_error"
	// Timeout: the process was terminated after the invocation deadline.
	Timeout ResultKind = "timeout"
)

// Result is the outcome of exactly one invocation.
type Result struct {
	Kind     ResultKind    `json:"kind"`
	Output   []byte        `json:"output,omitempty"`  // stdout for Success, stderr for Failure
	Message  string        `json:"message,omitempty"` // SpawnError and Timeout only
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Response maps the result to the single HTTP response sent to the caller.
func (r Result) Response() Response {
	switch r.Kind {
	case Success:
		return Response{Status: http.StatusOK, ContentType: ContentTypeText, Body: r.Output}
	case Failure:
		return Response{Status: http.StatusInternalServerError, ContentType: ContentTypeText, Body: r.Output}
	case Timeout:
		return Response{Status: http.StatusGatewayTimeout, ContentType: ContentTypeText, Body: []byte(r.Message)}
	case SpawnError:
		return Response{Status: http.StatusInternalServerError, ContentType: ContentTypeText, Body: []byte(r.Message)}
	default:
		return Response{
			Status:      http.StatusInternalServerError,
			ContentType: ContentTypeText,
			Body:        []byte(fmt.Sprintf("unknown result kind %q", r.Kind)),
		}
	}
}

// Response is a transport-neutral HTTP response.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// NotFound is the fixed response for unmatched paths.
func NotFound() Response {
	return Response{Status: http.StatusNotFound, ContentType: ContentTypeText, Body: []byte("Not Found")}
}

// BadRequest builds a 400 response in the JSON shape the serial interface uses for
// rejected requests, so the browser page can decode it like any other reply.
func BadRequest(msg string) Response {
	return Response{
		Status:      http.StatusBadRequest,
		ContentType: ContentTypeText,
		Body:        []byte(fmt.Sprintf(`{"status": "Bad Request", "msg": %q}`, msg)),
	}
}
