package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/loadbank/pkg/domain"
)

// RouteOverlay marks routes to emphasise on the diagram.
type RouteOverlay struct {
	Highlight []string // Route names
}

// GenerateMermaid produces a Mermaid flowchart of the route table:
// gateway → route path → serial interface command.
// Shapes:
// - Gateway and device: ((Circle))
// - Route: [/Parallelogram/] (input)
// - Command: [[Subroutine]]
func GenerateMermaid(routes []domain.Route, overlay *RouteOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString("    gateway((\"gateway\"))\n")
	sb.WriteString("    device((\"serial interface\"))\n")

	seen := make(map[string]bool)
	for _, r := range routes {
		routeID := "route_" + sanitizeMermaidID(r.Name)
		cmdID := "cmd_" + sanitizeMermaidID(r.Command)

		sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]\n", routeID, r.Path))
		if !seen[cmdID] {
			seen[cmdID] = true
			sb.WriteString(fmt.Sprintf("    %s[[\"%s\"]]\n", cmdID, r.Command))
			sb.WriteString(fmt.Sprintf("    %s --> device\n", cmdID))
		}

		sb.WriteString(fmt.Sprintf("    gateway --> %s\n", routeID))
		switch {
		case r.TakesValue:
			sb.WriteString(fmt.Sprintf("    %s -- \"?%s=\" --> %s\n", routeID, domain.ValuesParam, cmdID))
		case len(r.FixedArgs) > 0:
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", routeID, strings.Join(r.FixedArgs, " "), cmdID))
		default:
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", routeID, cmdID))
		}
	}

	if overlay != nil && len(overlay.Highlight) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on both themes
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		done := make(map[string]bool)
		for _, name := range overlay.Highlight {
			safeID := sanitizeMermaidID(name)
			if safeID == "" || done[safeID] {
				continue
			}
			done[safeID] = true
			sb.WriteString(fmt.Sprintf("    class route_%s current;\n", safeID))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(
		".", "_",
		"-", "_",
		"/", "_",
		"\\", "_",
		"?", "_query",
		" ", "_",
	)
	return r.Replace(id)
}
