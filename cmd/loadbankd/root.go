package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/loadbank"
	"github.com/aretw0/loadbank/internal/config"
	"github.com/aretw0/loadbank/internal/logging"
	"github.com/aretw0/loadbank/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/loadbank/pkg/adapters/redis"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const redisPingTimeout = 3 * time.Second

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "loadbankd",
		Short: "HTTP gateway for the load bank serial interface",
		Long: `loadbankd exposes the load bank controller over HTTP.
Each request to a known path runs the serial interface executable once and
returns its output verbatim.`,
		SilenceUsage: true,
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().String("binary", "", "Path to the serial interface executable")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Per-invocation timeout")

	rootCmd.AddCommand(
		newServeCmd(),
		newInvokeCmd(),
		newRoutesCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig layers persistent CLI flags over the file and environment configuration.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("binary") {
		cfg.Process.Binary, _ = flags.GetString("binary")
	}
	if flags.Changed("timeout") {
		cfg.Process.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Lookup("admin-port") != nil && flags.Changed("admin-port") {
		cfg.AdminPort, _ = flags.GetInt("admin-port")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// closers releases resources in reverse order of acquisition.
type closers []io.Closer

func (c closers) Close() error {
	for i := len(c) - 1; i >= 0; i-- {
		_ = c[i].Close()
	}
	return nil
}

// setup builds the logger and the gateway from configuration.
func setup(ctx context.Context, cfg config.Config) (*loadbank.Gateway, *slog.Logger, io.Closer, error) {
	var cs closers

	logger, logCloser, err := logging.NewWithOptions(cfg.Log.Options())
	if err != nil {
		return nil, nil, nil, err
	}
	cs = append(cs, logCloser)

	opts := []loadbank.Option{
		loadbank.WithProcessConfig(cfg.Process),
		loadbank.WithCORSOrigin(cfg.CORSOrigin),
		loadbank.WithLogger(logger),
	}

	switch cfg.Lock.Backend {
	case config.LockMemory:
		opts = append(opts, loadbank.WithDeviceLock(memory.NewLocker(), cfg.Lock.Key, cfg.Lock.TTL))
	case config.LockRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Lock.RedisAddr})
		cs = append(cs, client)

		locker := redisAdapter.NewLocker(client, "loadbank:")
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := locker.Ping(pingCtx)
		cancel()
		if err != nil {
			cs.Close()
			return nil, nil, nil, fmt.Errorf("redis lock backend at %s: %w", cfg.Lock.RedisAddr, err)
		}
		opts = append(opts, loadbank.WithDeviceLock(locker, cfg.Lock.Key, cfg.Lock.TTL))
	}

	gw, err := loadbank.New(opts...)
	if err != nil {
		cs.Close()
		return nil, nil, nil, err
	}

	logger.Debug("gateway configured",
		"binary", gw.Binary(),
		"timeout", cfg.Process.Timeout,
		"lock", cfg.Lock.Backend,
	)
	return gw, logger, cs, nil
}
