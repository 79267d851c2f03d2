package ingest

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/remotehub/internal/model"
	"github.com/amishk599/remotehub/internal/registry"
)

// DefaultSourceTimeout bounds a single source's fetch when none is configured.
const DefaultSourceTimeout = 45 * time.Second

// Orchestrator owns one ingestion run: resolve → fetch concurrently → upsert
// → report → notify.
type Orchestrator struct {
	registry      *registry.Registry
	writer        model.JobWriter
	notifier      model.Notifier
	sourceTimeout time.Duration
	logger        *slog.Logger
}

// NewOrchestrator creates an orchestrator wired with all its dependencies.
// A nil notifier disables new-posting notifications.
func NewOrchestrator(
	reg *registry.Registry,
	writer model.JobWriter,
	notifier model.Notifier,
	sourceTimeout time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	if sourceTimeout <= 0 {
		sourceTimeout = DefaultSourceTimeout
	}
	return &Orchestrator{
		registry:      reg,
		writer:        writer,
		notifier:      notifier,
		sourceTimeout: sourceTimeout,
		logger:        logger,
	}
}

// Run ingests from the named sources, or from every source when names is
// empty. It fails with *model.NoValidSourcesError before any fetch when the
// selection matches nothing, and with *model.InternalError when the writer
// fails. Upserts made before a writer failure stay committed.
func (o *Orchestrator) Run(ctx context.Context, names []string) (*model.Report, error) {
	sources, err := o.registry.Resolve(names)
	if err != nil {
		return nil, err
	}

	results := o.fetchAll(ctx, sources)

	report := &model.Report{
		PerSource:  make(map[string]int, len(sources)),
		SourcesRun: make([]string, len(sources)),
	}
	var created []model.Job

	for i, s := range sources {
		report.SourcesRun[i] = s.Name()
		report.PerSource[s.Name()] = len(results[i])
		report.TotalJobs += len(results[i])

		for _, job := range results[i] {
			res, err := o.writer.Upsert(ctx, job)
			if err != nil {
				return nil, &model.InternalError{Op: "upsert " + job.URL, Err: err}
			}
			if res.Created {
				report.Created++
				created = append(created, job)
			}
		}
	}

	o.logger.Info("ingestion finished",
		"sources", len(sources),
		"total", report.TotalJobs,
		"created", report.Created,
	)

	if len(created) > 0 && o.notifier != nil {
		if err := o.notifier.Notify(created); err != nil {
			o.logger.Error("notify failed", "jobs", len(created), "error", err)
		}
	}

	return report, nil
}

// fetchAll fetches every source concurrently, each under its own timeout.
// Results land in the slot matching the source's position so aggregation
// order does not depend on completion order.
func (o *Orchestrator) fetchAll(ctx context.Context, sources []*registry.Source) [][]model.Job {
	results := make([][]model.Job, len(sources))

	var g errgroup.Group
	for i, s := range sources {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
			defer cancel()

			start := time.Now()
			results[i] = s.FetchAndNormalize(sctx)
			o.logger.Debug("source fetched",
				"source", s.Name(),
				"jobs", len(results[i]),
				"elapsed", time.Since(start).Round(time.Millisecond),
			)
			return nil
		})
	}
	// Sources never return errors across the boundary.
	_ = g.Wait()

	return results
}
