// Package main is the entry point for the database access service.
// It wires configuration, logging and the shared pool manager, then runs
// the operational HTTP server, migrations or a one-shot health probe.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"dbaccess/src/app/server"
	"dbaccess/src/core/usecase"
	"dbaccess/src/infra/config"
	"dbaccess/src/infra/db"
	"dbaccess/src/infra/logger"
)

const metricsNamespace = "dbaccess"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("fatal error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dbaccess",
		Short:         "PostgreSQL data-access service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load() // Ignore error if .env doesn't exist
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the health and metrics HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve()
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations over the direct pool",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "health",
			Short: "Probe the database once and print the health status",
			RunE: func(cmd *cobra.Command, args []string) error {
				return health(cmd.Context())
			},
		},
	)

	return root
}

// app holds the process-wide dependencies built by the composition root.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	shared *db.Shared
}

func newApp(metrics *db.Metrics) (*app, error) {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Log)

	// One pool pair per process: every consumer receives this Shared.
	shared := db.NewShared(func() *db.Manager {
		return db.New(config.LoadDatabase, log, db.WithMetrics(metrics))
	})

	return &app{cfg: cfg, log: log, shared: shared}, nil
}

func serve() error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := db.NewMetrics(metricsNamespace)
	if err := metrics.Register(registry); err != nil {
		return err
	}

	a, err := newApp(metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.shared.Close(); err != nil {
			a.log.Error("failed to close database pools", "error", err)
		}
	}()

	a.log.Info("starting application",
		"port", a.cfg.Server.Port,
		"log_level", a.cfg.Log.Level,
	)

	// Fail fast if the database is unreachable at startup.
	if err := a.shared.Instance().Initialize(context.Background(), a.cfg.Database); err != nil {
		return err
	}
	if err := registry.Register(db.NewPoolCollector(metricsNamespace, a.shared)); err != nil {
		return err
	}

	health := usecase.NewHealthService(a.shared, a.log)
	srv := server.New(a.cfg, a.log, health, registry)

	// Run blocks until shutdown signal is received
	return srv.Run()
}

func migrate(ctx context.Context) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.shared.Close()

	return a.shared.Instance().Migrate(ctx)
}

func health(ctx context.Context) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.shared.Close()

	status := usecase.NewHealthService(a.shared, a.log).Check(ctx)
	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !status.IsHealthy() {
		return fmt.Errorf("database is %s", status.Status)
	}
	return nil
}
