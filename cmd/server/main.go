package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
	"github.com/robflop/chatron-server/internal/chat"
	"github.com/robflop/chatron-server/internal/moderation"
	"github.com/robflop/chatron-server/internal/server"
	"github.com/spf13/cobra"
)

type flags struct {
	port     string
	logLevel string
	envFile  string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "chatron-server",
		Short:         "Real-time group chat presence and broadcast hub",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f, cmd.Flags().Changed("env-file"))
		},
	}
	cmd.Flags().StringVar(&f.port, "port", "", "listen address, overrides SERVER_PORT")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level, overrides LOG_LEVEL")
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before the environment")
	return cmd
}

// run wires config, logger, hub and HTTP server, and blocks until a signal
// or a serve error.
func run(parent context.Context, f flags, envFileRequired bool) error {
	cfg, err := server.LoadConfig(f.envFile, envFileRequired)
	if err != nil {
		return err
	}
	if f.port != "" {
		cfg.Port = f.port
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	var opts []chat.Option
	moderator, err := moderation.NewModerator(cfg.CensoredWords, cfg.CensorCharacter, log)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}
	if moderator != nil {
		opts = append(opts, chat.WithCensor(moderator))
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub(log, cfg, opts...)
	server.StartHub(log, hub)

	handlers := server.NewHandlers(log, cfg, hub)
	httpServer := server.CreateServer(cfg.Port, server.SetupRoutes(handlers))

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.StartServer(log, httpServer)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			_ = hub.Shutdown(cfg.ShutdownTimeout)
			return fmt.Errorf("http server error: %w", err)
		}
	}

	if err := server.ShutdownServer(log, httpServer, cfg.ShutdownTimeout); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Warn("Hub shutdown incomplete", "error", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}
