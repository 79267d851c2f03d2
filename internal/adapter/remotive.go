package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/amishk599/remotehub/internal/model"
)

const (
	RemotiveName   = "Remotive"
	remotiveAPIURL = "https://remotive.com/api/remote-jobs?limit=50"
)

// remotiveJob represents a single job in the Remotive API response.
type remotiveJob struct {
	URL                       string     `json:"url"`
	Title                     string     `json:"title"`
	CompanyName               string     `json:"company_name"`
	PublicationDate           string     `json:"publication_date"`
	CandidateRequiredLocation string     `json:"candidate_required_location"`
	Salary                    string     `json:"salary"`
	Description               string     `json:"description"`
	JobType                   string     `json:"job_type"`
	Tags                      stringList `json:"tags"`
}

// remotiveResponse is the top-level Remotive API response. Jobs are decoded
// one at a time so a malformed element does not sink the batch.
type remotiveResponse struct {
	Jobs []json.RawMessage `json:"jobs"`
}

// RemotiveAdapter fetches jobs from the Remotive public API.
type RemotiveAdapter struct {
	client *http.Client
	logger *slog.Logger
}

// NewRemotiveAdapter creates an adapter for the Remotive API.
func NewRemotiveAdapter(client *http.Client, logger *slog.Logger) *RemotiveAdapter {
	return &RemotiveAdapter{client: client, logger: logger}
}

func (a *RemotiveAdapter) Name() string { return RemotiveName }

// FetchJobs retrieves the latest Remotive postings and normalizes them.
func (a *RemotiveAdapter) FetchJobs(ctx context.Context) ([]model.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remotiveAPIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := do(a.client, req, RemotiveName)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rr remotiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("remotive decode: %w", err)
	}

	jobs := make([]model.Job, 0, len(rr.Jobs))
	for i, raw := range rr.Jobs {
		var rj remotiveJob
		if err := json.Unmarshal(raw, &rj); err != nil {
			drop(a.logger, RemotiveName, fmt.Sprintf("job %d: %v", i, err))
			continue
		}

		posted, err := parseDate(rj.PublicationDate)
		if err != nil {
			drop(a.logger, RemotiveName, err.Error())
			continue
		}

		jobs = collect(jobs, model.Job{
			Title:       rj.Title,
			Company:     rj.CompanyName,
			Description: rj.Description,
			URL:         rj.URL,
			Skills:      rj.Tags,
			Location:    rj.CandidateRequiredLocation,
			IsWorldwide: isWorldwide(rj.CandidateRequiredLocation, extractText(rj.Description)),
			DatePosted:  posted,
		}, RemotiveName, a.logger)
	}

	return jobs, nil
}
