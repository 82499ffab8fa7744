package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/syncdb/internal/client/api"
	"github.com/iudanet/syncdb/internal/client/cli"
	"github.com/iudanet/syncdb/internal/client/coordinator"
	"github.com/iudanet/syncdb/internal/client/iocli"
	"github.com/iudanet/syncdb/internal/client/storage"
	"github.com/iudanet/syncdb/internal/client/storage/boltdb"
	"github.com/iudanet/syncdb/internal/crdt"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", envOr("SYNCDB_SERVER", "ws://localhost:8080/ws"), "Relay URL")
	dbPath := flag.String("db", envOr("SYNCDB_DB", "syncdb-client.db"), "Path to local database")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	if err := run(*serverURL, *dbPath, *logLevel, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cli.ErrUnknownCommand) {
			cli.PrintUsage()
		}
		os.Exit(1)
	}
}

func run(serverURL, dbPath, logLevel, command string, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Ctrl+C прерывает watch и зависший sync
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boltStorage, err := boltdb.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	nodeID, err := storage.EnsureNodeID(ctx, boltStorage)
	if err != nil {
		return err
	}

	apiClient, err := api.NewClient(serverURL, api.DefaultSettings())
	if err != nil {
		return err
	}

	replica := coordinator.New(crdt.NewStore(nodeID), boltStorage, boltStorage, logger)
	if err := replica.Load(ctx); err != nil {
		return fmt.Errorf("failed to load local state: %w", err)
	}

	return cli.New(iocli.NewStdio(), replica, apiClient, logger).Run(ctx, command, args)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func printVersion() {
	fmt.Printf("syncdb client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
