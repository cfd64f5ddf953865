package tui

import (
	"fmt"
	"io"
	"net/http"

	"github.com/muesli/termenv"
)

// StatusLine formats an HTTP status for terminal output: green for 2xx, yellow for
// 4xx and red otherwise. Plain text on terminals without colour.
func StatusLine(out *termenv.Output, status int) string {
	text := fmt.Sprintf("%d %s", status, http.StatusText(status))
	color := "#ef4444"
	switch {
	case status >= 200 && status < 300:
		color = "#22c55e"
	case status >= 400 && status < 500:
		color = "#eab308"
	}
	return out.String(text).Foreground(out.Color(color)).Bold().String()
}

// NewOutput wraps w for styled output, detecting its colour profile.
func NewOutput(w io.Writer) *termenv.Output {
	return termenv.NewOutput(w)
}
