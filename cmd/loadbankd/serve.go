package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/loadbank"
	"github.com/aretw0/loadbank/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		Long: `Starts the gateway listener (default :6001) and the admin listener
(default :6002) serving metrics, health, the OpenAPI document and an event stream.
Set --admin-port 0 to disable the admin listener.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gw, logger, closer, err := setup(ctx, cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
			if err != nil {
				return fmt.Errorf("gateway listener: %w", err)
			}
			var adminLn net.Listener
			if cfg.AdminPort != 0 {
				adminLn, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.AdminPort))
				if err != nil {
					ln.Close()
					return fmt.Errorf("admin listener: %w", err)
				}
			}

			if term.IsTerminal(int(os.Stdout.Fd())) {
				tui.PrintBanner(cmd.OutOrStdout(), loadbank.Version)
			}
			logger.Info("Starting load bank gateway",
				"port", cfg.Port,
				"admin_port", cfg.AdminPort,
				"binary", gw.Binary(),
			)

			if err := gw.Serve(ctx, ln, adminLn); err != nil {
				return err
			}
			logger.Info("Gateway stopped gracefully")
			return nil
		},
	}

	cmd.Flags().IntP("port", "p", 0, "Gateway port (default 6001, env PORT)")
	cmd.Flags().Int("admin-port", 0, "Admin port, 0 disables (default 6002)")
	return cmd
}
