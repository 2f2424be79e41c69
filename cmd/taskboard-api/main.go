package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DaDevFox/task-systems/taskboard/internal/apiserver"
	"github.com/DaDevFox/task-systems/taskboard/internal/logging"
)

const (
	defaultPort     = "8080"
	shutdownTimeout = 5 * time.Second
)

func main() {
	var port, logLevel, logFormat string

	rootCmd := &cobra.Command{
		Use:          "taskboard-api",
		Short:        "Serve an in-memory task collection over HTTP",
		Long:         "Development server for the taskboard remote backend. Tasks live in memory and are lost on exit.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.SetLevel(logLevel)
			logging.SetFormatter(logFormat)

			lis, err := net.Listen("tcp", ":"+port)
			if err != nil {
				return fmt.Errorf("failed to listen on port %s: %w", port, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, lis, apiserver.NewInMemoryTaskRepository(), logging.Logger)
		},
	}

	rootCmd.Flags().StringVarP(&port, "port", "p", envOr("TASKBOARD_API_PORT", defaultPort), "Port to listen on")
	rootCmd.Flags().StringVar(&logLevel, "log-level", envOr("TASKBOARD_LOG_LEVEL", "info"), "Log level: debug, info, warn or error")
	rootCmd.Flags().StringVar(&logFormat, "log-format", envOr("TASKBOARD_LOG_FORMAT", "text"), "Log format: text or json")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// serve runs the task resource on lis until ctx is cancelled, then drains
// in-flight requests.
func serve(ctx context.Context, lis net.Listener, repo apiserver.TaskRepository, logger *logrus.Logger) error {
	server := &http.Server{
		Handler:           apiserver.NewRouter(repo, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(lis)
	}()
	logger.WithField("addr", lis.Addr().String()).Info("starting task API server")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("task API server failed")
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down task API server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
