package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/gophboard/internal/server/board"
	"github.com/iudanet/gophboard/internal/server/gateway"
	"github.com/iudanet/gophboard/internal/server/handlers"
	"github.com/iudanet/gophboard/internal/server/middleware"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Parse flags
	addr := flag.String("addr", ":8080", "Address to listen on")
	staticDir := flag.String("static", "", "Directory with static canvas assets (disabled if empty)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))

	if err := run(logger, *addr, *staticDir); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run собирает зависимости и обслуживает HTTP до сигнала остановки.
func run(logger *slog.Logger, addr, staticDir string) error {
	registry := board.NewRegistry()
	gw := gateway.New(logger, registry)
	health := handlers.NewHealthHandler(logger, Version)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWS)
	mux.HandleFunc("/api/v1/health", health.Health)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	// Liveness-проба опрашивается часто, в лог запросов не попадает
	handler := middleware.RecoveryMiddleware(logger)(
		middleware.LoggingWithSkip(logger, []string{"/api/v1/health"})(mux),
	)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("GophBoard server starting", "addr", addr, "version", Version)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// parseLogLevel переводит строковый уровень в slog.Level;
// неизвестное значение трактуется как info.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printVersion() {
	fmt.Printf("GophBoard Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
