package adapter

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/amishk599/remotehub/internal/model"
)

const (
	WeWorkRemotelyName    = "We Work Remotely"
	weWorkRemotelyFeedURL = "https://weworkremotely.com/remote-jobs.rss"
)

// WeWorkRemotelyAdapter reads the We Work Remotely RSS feed. Item titles are
// "Position: Company".
type WeWorkRemotelyAdapter struct {
	client *http.Client
	logger *slog.Logger
}

// NewWeWorkRemotelyAdapter creates an adapter for the We Work Remotely feed.
func NewWeWorkRemotelyAdapter(client *http.Client, logger *slog.Logger) *WeWorkRemotelyAdapter {
	return &WeWorkRemotelyAdapter{client: client, logger: logger}
}

func (a *WeWorkRemotelyAdapter) Name() string { return WeWorkRemotelyName }

// FetchJobs retrieves the feed and normalizes each <item>.
func (a *WeWorkRemotelyAdapter) FetchJobs(ctx context.Context) ([]model.Job, error) {
	feed, err := fetchFeed(ctx, a.client, weWorkRemotelyFeedURL, WeWorkRemotelyName)
	if err != nil {
		return nil, err
	}

	jobs := make([]model.Job, 0, len(feed.Items))
	for _, item := range feed.Items {
		posted, err := itemDate(item)
		if err != nil {
			drop(a.logger, WeWorkRemotelyName, err.Error())
			continue
		}

		title, company := splitColonTitle(item.Title)
		worldwide := isWorldwide(title, extractText(item.Description))
		location := defaultLocation
		if worldwide {
			location = "Worldwide"
		}

		jobs = collect(jobs, model.Job{
			Title:       title,
			Company:     company,
			Description: item.Description,
			URL:         item.Link,
			Location:    location,
			IsWorldwide: worldwide,
			DatePosted:  posted,
		}, WeWorkRemotelyName, a.logger)
	}

	return jobs, nil
}

// splitColonTitle splits "Position: Company" on the last colon. Titles
// without a colon keep the whole string as the position.
func splitColonTitle(raw string) (title, company string) {
	i := strings.LastIndex(raw, ":")
	if i < 0 {
		return strings.TrimSpace(raw), defaultCompany
	}
	return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+1:])
}
