package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wallscreet/llm-gateway/internal/api"
	"github.com/wallscreet/llm-gateway/internal/config"
	"github.com/wallscreet/llm-gateway/internal/server"
	"github.com/wallscreet/llm-gateway/internal/version"
)

// flagKeys maps serve flags to config keys.
var flagKeys = map[string]string{
	"host":           "server.host",
	"port":           "server.port",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"thinking-table": "thinking.table_path",
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().String("host", "", "Listen host (default 0.0.0.0)")
	cmd.Flags().IntP("port", "p", 0, "Listen port (default 8000)")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().String("log-format", "", "Log format: text, json")
	cmd.Flags().String("thinking-table", "", "Path to a thinking table YAML replacing the embedded one")
	cmd.Flags().Bool("no-lorem", false, "Do not mount the lorem mock backend")
	return cmd
}

// flagOptions binds the flags the user actually set; unset flags leave
// file and environment values alone.
func flagOptions(cmd *cobra.Command) []config.Option {
	var opts []config.Option
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		opts = append(opts, func(v *viper.Viper) { _ = v.BindPFlag(key, flag) })
	}
	if noLorem, _ := cmd.Flags().GetBool("no-lorem"); noLorem {
		opts = append(opts, config.WithOverride("providers.lorem.enabled", false))
	}
	return opts
}

func runServe(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, flagOptions(cmd)...)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	logger.Info("starting llm-gateway", "version", version.Version)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := buildGateway(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := server.NewServer(api.NewRouter(gw, logger), server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}
