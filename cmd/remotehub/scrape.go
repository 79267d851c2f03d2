package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/remotehub/internal/ingest"
	"github.com/amishk599/remotehub/internal/model"
	"github.com/amishk599/remotehub/internal/store"
)

var (
	scrapeSources []string
	scrapeDryRun  bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Ingest once, print the report, exit",
	Long:  "One-shot ingestion from every enabled source, or only those named with --source. With --dry-run nothing is written.",
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().StringArrayVarP(&scrapeSources, "source", "s", nil, "source to ingest from (repeatable; default: all enabled)")
	scrapeCmd.Flags().BoolVar(&scrapeDryRun, "dry-run", false, "fetch and normalize without writing to the store")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	reg, err := buildRegistry(cfg, httpClient, logger)
	if err != nil {
		logger.Error("invalid source config", "error", err)
		os.Exit(1)
	}

	var writer model.JobWriter
	var n model.Notifier
	if scrapeDryRun {
		logger.Info("dry-run mode: nothing will be stored")
		writer = store.NewNopStore()
	} else {
		sqlStore, err := store.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		writer = sqlStore
		n = setupNotifier(cfg, httpClient, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := ingest.NewOrchestrator(reg, writer, n, cfg.SourceTimeout, logger)
	report, err := orch.Run(ctx, scrapeSources)
	if err != nil {
		var noSources *model.NoValidSourcesError
		if errors.As(err, &noSources) {
			fmt.Fprintf(os.Stderr, "No valid sources selected. Known sources: %s\n", strings.Join(reg.Names(), ", "))
		} else {
			logger.Error("scrape failed", "error", err)
		}
		os.Exit(1)
	}

	printReport(cmd.OutOrStdout(), report, scrapeDryRun)
	return nil
}

func printReport(w io.Writer, report *model.Report, dryRun bool) {
	fmt.Fprintf(w, "%-20s %s\n", "Source", "Jobs")
	fmt.Fprintln(w, strings.Repeat("─", 26))
	for _, name := range report.SourcesRun {
		fmt.Fprintf(w, "%-20s %d\n", name, report.PerSource[name])
	}

	if dryRun {
		fmt.Fprintf(w, "\nTotal: %d jobs from %s (dry run, nothing stored)\n",
			report.TotalJobs, strings.Join(report.SourcesRun, ", "))
		return
	}
	fmt.Fprintf(w, "\nTotal: %d jobs (%d new) from %s\n",
		report.TotalJobs, report.Created, strings.Join(report.SourcesRun, ", "))
}
