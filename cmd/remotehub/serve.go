package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/remotehub/internal/httpapi"
	"github.com/amishk599/remotehub/internal/ingest"
	"github.com/amishk599/remotehub/internal/scheduler"
	"github.com/amishk599/remotehub/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, ingestion scheduler and store janitor",
	Long:  "Start the server; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"database", cfg.DatabasePath,
		"listen_addr", cfg.ListenAddr,
		"ingest_interval", cfg.IngestInterval.String(),
		"source_timeout", cfg.SourceTimeout.String(),
	)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	reg, err := buildRegistry(cfg, httpClient, logger)
	if err != nil {
		logger.Error("invalid source config", "error", err)
		os.Exit(1)
	}
	if reg.Len() == 0 {
		logger.Error("no sources enabled")
		os.Exit(1)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	n := setupNotifier(cfg, httpClient, logger)
	orch := ingest.NewOrchestrator(reg, sqlStore, n, cfg.SourceTimeout, logger)

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Deps{
		Ingester:   orch,
		Finder:     sqlStore,
		Sources:    reg,
		Customizer: setupCustomizer(cfg, logger),
	}, logger, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		sqlStore.RunJanitor(gctx, cfg.JanitorInterval, logger)
		return nil
	})

	if cfg.IngestInterval > 0 {
		sched := scheduler.NewScheduler(orch, cfg.IngestInterval, logger)
		g.Go(func() error { return sched.Run(gctx) })
	} else {
		logger.Info("periodic ingestion disabled")
	}

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
