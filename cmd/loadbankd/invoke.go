package main

import (
	"fmt"
	"net/url"

	"github.com/aretw0/loadbank/internal/presentation/tui"
	"github.com/aretw0/loadbank/pkg/domain"
	"github.com/spf13/cobra"
)

func newInvokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke <path>",
		Short: "Dispatch one request without starting a server",
		Long: `Runs the same dispatch an HTTP request to <path> would, in-process.
The response body is written to stdout verbatim and the status to stderr.`,
		Example: `  loadbankd invoke /api/v1/zcs/status
  loadbankd invoke /api/v1/switches --values 101010101010101010`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			gw, _, closer, err := setup(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			query := url.Values{}
			if cmd.Flags().Changed(domain.ValuesParam) {
				v, _ := cmd.Flags().GetString(domain.ValuesParam)
				query.Set(domain.ValuesParam, v)
			}
			method, _ := cmd.Flags().GetString("method")

			resp := gw.Invoke(cmd.Context(), method, args[0], query)

			fmt.Fprintln(cmd.ErrOrStderr(), tui.StatusLine(tui.NewOutput(cmd.ErrOrStderr()), resp.Status))
			if _, err := cmd.OutOrStdout().Write(resp.Body); err != nil {
				return err
			}
			if resp.Status >= 400 {
				return fmt.Errorf("request failed with status %d", resp.Status)
			}
			return nil
		},
	}

	cmd.Flags().String(domain.ValuesParam, "", "Value of the values query parameter")
	cmd.Flags().String("method", "GET", "HTTP method to report (routes accept any)")
	return cmd
}
