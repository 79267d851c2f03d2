package adapter

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/amishk599/remotehub/internal/model"
)

const (
	JobspressoName    = "Jobspresso"
	jobspressoFeedURL = "https://jobspresso.co/feed/"
)

// JobspressoAdapter reads the Jobspresso RSS feed. Item titles are usually
// "Role at Company"; the feed carries no location or tags.
type JobspressoAdapter struct {
	client *http.Client
	logger *slog.Logger
}

// NewJobspressoAdapter creates an adapter for the Jobspresso feed.
func NewJobspressoAdapter(client *http.Client, logger *slog.Logger) *JobspressoAdapter {
	return &JobspressoAdapter{client: client, logger: logger}
}

func (a *JobspressoAdapter) Name() string { return JobspressoName }

// FetchJobs retrieves the feed and normalizes each <item>.
func (a *JobspressoAdapter) FetchJobs(ctx context.Context) ([]model.Job, error) {
	feed, err := fetchFeed(ctx, a.client, jobspressoFeedURL, JobspressoName)
	if err != nil {
		return nil, err
	}

	jobs := make([]model.Job, 0, len(feed.Items))
	for _, item := range feed.Items {
		posted, err := itemDate(item)
		if err != nil {
			drop(a.logger, JobspressoName, err.Error())
			continue
		}

		title, company := splitAtTitle(item.Title)

		jobs = collect(jobs, model.Job{
			Title:       title,
			Company:     company,
			Description: item.Description,
			URL:         item.Link,
			Location:    defaultLocation,
			IsWorldwide: isWorldwide(title, extractText(item.Description)),
			DatePosted:  posted,
		}, JobspressoName, a.logger)
	}

	return jobs, nil
}

// splitAtTitle splits "Role at Company". The role is the text before the
// first " at " and the company the text after the last one.
func splitAtTitle(raw string) (title, company string) {
	parts := strings.Split(raw, " at ")
	if len(parts) < 2 {
		return strings.TrimSpace(raw), defaultCompany
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[len(parts)-1])
}
