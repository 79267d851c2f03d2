package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/amishk599/remotehub/internal/model"
)

const (
	RemoteOKName   = "RemoteOK"
	remoteOKAPIURL = "https://remoteok.com/api"
)

// remoteOKJob is one element of the RemoteOK API array.
type remoteOKJob struct {
	Position    string     `json:"position"`
	Company     string     `json:"company"`
	Location    string     `json:"location"`
	Tags        stringList `json:"tags"`
	Date        string     `json:"date"`
	Epoch       int64      `json:"epoch"`
	URL         string     `json:"url"`
	ApplyURL    string     `json:"apply_url"`
	Description string     `json:"description"`
}

// RemoteOKAdapter fetches jobs from the RemoteOK public JSON API.
type RemoteOKAdapter struct {
	client *http.Client
	logger *slog.Logger
}

// NewRemoteOKAdapter creates an adapter for the RemoteOK API.
func NewRemoteOKAdapter(client *http.Client, logger *slog.Logger) *RemoteOKAdapter {
	return &RemoteOKAdapter{client: client, logger: logger}
}

func (a *RemoteOKAdapter) Name() string { return RemoteOKName }

// FetchJobs retrieves the API array and normalizes every element after the
// first, which is a legal notice rather than a job.
func (a *RemoteOKAdapter) FetchJobs(ctx context.Context) ([]model.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteOKAPIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := do(a.client, req, RemoteOKName)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var elements []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("remoteok decode: %w", err)
	}
	if len(elements) <= 1 {
		return []model.Job{}, nil
	}

	jobs := make([]model.Job, 0, len(elements)-1)
	for i, raw := range elements[1:] {
		var rj remoteOKJob
		if err := json.Unmarshal(raw, &rj); err != nil {
			drop(a.logger, RemoteOKName, fmt.Sprintf("element %d: %v", i+1, err))
			continue
		}

		posted, err := parseDate(rj.Date)
		if err != nil && rj.Epoch > 0 {
			posted, err = time.Unix(rj.Epoch, 0).UTC(), nil
		}
		if err != nil {
			drop(a.logger, RemoteOKName, err.Error())
			continue
		}

		url := rj.URL
		if url == "" {
			url = rj.ApplyURL
		}

		jobs = collect(jobs, model.Job{
			Title:       rj.Position,
			Company:     rj.Company,
			Description: rj.Description,
			URL:         url,
			Skills:      rj.Tags,
			Location:    rj.Location,
			IsWorldwide: isWorldwide(rj.Location, extractText(rj.Description)),
			DatePosted:  posted,
		}, RemoteOKName, a.logger)
	}

	return jobs, nil
}
