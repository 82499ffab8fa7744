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

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/syncdb/internal/server/relay"
	"github.com/iudanet/syncdb/internal/server/router"
	"github.com/iudanet/syncdb/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", envOr("SYNCDB_ADDR", ":8080"), "Listen address")
	dbPath := flag.String("db", envOr("SYNCDB_RELAY_DB", "syncdb-relay.db"), "Path to relay database")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	maxConns := flag.Int("max-conns-per-ip", router.DefaultLimits().MaxConnsPerIP, "Concurrent connections allowed per client IP")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	limits := router.DefaultLimits()
	limits.MaxConnsPerIP = *maxConns

	if err := run(*addr, *dbPath, limits, logger); err != nil {
		logger.Error("Relay stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(addr, dbPath string, limits router.Limits, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	hub := relay.NewHub(store, relay.DefaultSettings(), logger)

	rt := router.New(logger, hub, store, Version, limits)
	defer rt.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           rt,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Relay listening", "addr", addr, "db", dbPath, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down relay", "connections", hub.Count())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		// Shutdown не ждет hijacked соединения, websocket сессии закрывает hub
		hub.Close()
		if err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func printVersion() {
	fmt.Printf("syncdb relay\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
