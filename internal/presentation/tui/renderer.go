package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/loadbank/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}, nil
}

// RoutesMarkdown renders the route table as a markdown table.
func RoutesMarkdown(routes []domain.Route) string {
	var sb strings.Builder
	sb.WriteString("| Path | Command | Description |\n")
	sb.WriteString("|---|---|---|\n")
	for _, r := range routes {
		fmt.Fprintf(&sb, "| `%s` | `%s` | %s |\n", r.Path, commandTemplate(r), r.Description)
	}
	return sb.String()
}

// RoutesPlain renders the route table as aligned plain text for pipes and files.
func RoutesPlain(routes []domain.Route) string {
	width := 0
	for _, r := range routes {
		width = max(width, len(r.Path))
	}
	var sb strings.Builder
	for _, r := range routes {
		fmt.Fprintf(&sb, "%-*s  %s\n", width, r.Path, commandTemplate(r))
	}
	return sb.String()
}

func commandTemplate(r domain.Route) string {
	parts := append([]string{r.Command}, r.FixedArgs...)
	if r.TakesValue {
		parts = append(parts, "<"+domain.ValuesParam+">")
	}
	return strings.Join(parts, " ")
}
