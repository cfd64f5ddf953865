package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/loadbank/internal/presentation/graph"
	"github.com/aretw0/loadbank/internal/presentation/tui"
	"github.com/aretw0/loadbank/pkg/domain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format == "" {
				format = "plain"
				if term.IsTerminal(int(os.Stdout.Fd())) {
					format = "table"
				}
			}
			highlight, _ := cmd.Flags().GetStringSlice("highlight")
			return printRoutes(cmd, domain.Routes(), format, highlight)
		},
	}

	cmd.Flags().StringP("format", "f", "", "Output format: table, plain, json or mermaid (default table on a terminal, plain otherwise)")
	cmd.Flags().StringSlice("highlight", nil, "Route names to emphasise in mermaid output")
	return cmd
}

func printRoutes(cmd *cobra.Command, routes []domain.Route, format string, highlight []string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "table":
		render, err := tui.NewRenderer()
		if err != nil {
			return err
		}
		rendered, err := render(tui.RoutesMarkdown(routes))
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
	case "plain":
		fmt.Fprint(out, tui.RoutesPlain(routes))
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(routes)
	case "mermaid":
		var overlay *graph.RouteOverlay
		if len(highlight) > 0 {
			overlay = &graph.RouteOverlay{Highlight: highlight}
		}
		fmt.Fprint(out, graph.GenerateMermaid(routes, overlay))
	default:
		return fmt.Errorf("unknown format %q (want table, plain, json or mermaid)", format)
	}
	return nil
}
