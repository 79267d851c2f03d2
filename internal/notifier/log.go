package notifier

import (
	"log/slog"

	"github.com/amishk599/remotehub/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly stored postings to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per job. It never fails.
func (n *LogNotifier) Notify(jobs []model.Job) error {
	for _, j := range jobs {
		n.logger.Info("new job",
			"source", j.Source,
			"company", j.Company,
			"title", j.Title,
			"location", j.Location,
			"worldwide", j.IsWorldwide,
			"url", j.URL,
			"posted_at", j.DatePosted.Format("2006-01-02"),
		)
	}
	return nil
}
