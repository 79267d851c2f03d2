package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/remotehub/internal/model"
)

// Ingester runs one ingestion over the named sources, or all when names is empty.
type Ingester interface {
	Run(ctx context.Context, names []string) (*model.Report, error)
}

// Scheduler owns the periodic ingestion loop.
type Scheduler struct {
	ingester Ingester
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that ingests from every source at the given interval.
func NewScheduler(ingester Ingester, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ingester: ingester,
		interval: interval,
		logger:   logger,
	}
}

// Run runs one immediate ingestion, then one per interval. It returns nil
// when ctx is cancelled (graceful shutdown). A failed run is logged and the
// loop keeps going.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.ingest(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.ingest(ctx)
		}
	}
}

func (s *Scheduler) ingest(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	report, err := s.ingester.Run(ctx, nil)
	if err != nil {
		s.logger.Error("scheduled ingestion failed", "error", err)
		return
	}
	s.logger.Info("scheduled ingestion complete",
		"total", report.TotalJobs,
		"created", report.Created,
	)
}
