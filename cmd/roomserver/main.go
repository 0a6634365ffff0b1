package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mcoot/roomserver/internal/api"
	"github.com/mcoot/roomserver/internal/config"
	"github.com/mcoot/roomserver/internal/factory"
	"github.com/mcoot/roomserver/internal/logging"
	"github.com/mcoot/roomserver/internal/services/notify"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "roomserver",
		Short: "Room-based multiplayer lobby server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath, cmd.Flags())
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Config file (default: ./roomserver.yaml or /etc/roomserver/roomserver.yaml)")
	flags.String("host", "", "Listen host")
	flags.Int("port", 0, "Listen port")
	flags.Int("max-rooms", 0, "Maximum concurrent rooms")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text, json")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	return rootCmd
}

func serve(ctx context.Context, configPath string, flags *pflag.FlagSet) error {
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(factory.FromConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}
	app.Start()

	router := api.NewRouter(api.RouterConfig{
		Logger:   logger,
		Hub:      app.Hub,
		Registry: app.Registry,
	})

	server := api.NewServer(router, api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.Int("max_rooms", cfg.Rooms.MaxRooms),
		slog.Any("notify_sinks", cfg.Notify.Sinks))
	app.Notifier.Notify(ctx, notify.ServerStarted(server.Addr()))

	// Wait for shutdown or error
	var runErr error
	select {
	case runErr = <-errCh:
		if runErr != nil {
			logger.Error("server error", slog.String("error", runErr.Error()))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		app.Notifier.Notify(context.Background(), notify.ServerStopping())
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			runErr = err
		}
	}

	if err := app.Close(); err != nil {
		logger.Warn("closing notification sinks", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	if runErr != nil {
		return fmt.Errorf("roomserver: %w", runErr)
	}
	return nil
}
