package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/amishk599/remotehub/internal/model"
)

const (
	WorkingNomadsName      = "Working Nomads"
	workingNomadsSearchURL = "https://www.workingnomads.com/jobsapi/_search"
	workingNomadsJobsURL   = "https://www.workingnomads.com/jobs/"
	workingNomadsPageSize  = 50
	noDescription          = "No description available"
)

// workingNomadsFields is the _source projection sent with every search.
var workingNomadsFields = []string{
	"title",
	"company",
	"pub_date",
	"apply_url",
	"slug",
	"tags",
	"locations",
	"description",
	"category_name",
}

// workingNomadsRequest is the POST body for the search endpoint.
type workingNomadsRequest struct {
	From   int                             `json:"from"`
	Size   int                             `json:"size"`
	Sort   []map[string]workingNomadsOrder `json:"sort"`
	Source []string                        `json:"_source"`
}

type workingNomadsOrder struct {
	Order string `json:"order"`
}

// workingNomadsResponse is the search-engine response envelope. Each hit's
// _source is decoded separately so one bad hit is dropped on its own.
type workingNomadsResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type workingNomadsJob struct {
	Title        string                 `json:"title"`
	Company      string                 `json:"company"`
	PubDate      string                 `json:"pub_date"`
	ApplyURL     string                 `json:"apply_url"`
	Slug         string                 `json:"slug"`
	Tags         stringList             `json:"tags"`
	Locations    workingNomadsLocations `json:"locations"`
	Description  string                 `json:"description"`
	CategoryName string                 `json:"category_name"`
}

// workingNomadsLocations accepts a single string, a list of strings, or a
// list of {"name": ...} objects.
type workingNomadsLocations []string

func (l *workingNomadsLocations) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = compact([]string{single})
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return fmt.Errorf("locations: %w", err)
	}

	names := make([]string, 0, len(elems))
	for _, e := range elems {
		var name string
		if err := json.Unmarshal(e, &name); err == nil {
			names = append(names, name)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(e, &obj); err != nil {
			return fmt.Errorf("location entry: %w", err)
		}
		names = append(names, obj.Name)
	}
	*l = compact(names)
	return nil
}

// WorkingNomadsAdapter queries the Working Nomads search endpoint.
type WorkingNomadsAdapter struct {
	client *http.Client
	logger *slog.Logger
}

// NewWorkingNomadsAdapter creates an adapter for the Working Nomads search API.
func NewWorkingNomadsAdapter(client *http.Client, logger *slog.Logger) *WorkingNomadsAdapter {
	return &WorkingNomadsAdapter{client: client, logger: logger}
}

func (a *WorkingNomadsAdapter) Name() string { return WorkingNomadsName }

// FetchJobs posts one search for the newest postings and normalizes each hit.
func (a *WorkingNomadsAdapter) FetchJobs(ctx context.Context) ([]model.Job, error) {
	body, err := json.Marshal(workingNomadsRequest{
		From:   0,
		Size:   workingNomadsPageSize,
		Sort:   []map[string]workingNomadsOrder{{"pub_date": {Order: "desc"}}},
		Source: workingNomadsFields,
	})
	if err != nil {
		return nil, fmt.Errorf("working nomads marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, workingNomadsSearchURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("working nomads request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := do(a.client, req, WorkingNomadsName)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr workingNomadsResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("working nomads decode: %w", err)
	}

	jobs := make([]model.Job, 0, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		var wj workingNomadsJob
		if err := json.Unmarshal(hit.Source, &wj); err != nil {
			drop(a.logger, WorkingNomadsName, fmt.Sprintf("hit %d: %v", i, err))
			continue
		}

		posted, err := parseDate(wj.PubDate)
		if err != nil {
			drop(a.logger, WorkingNomadsName, err.Error())
			continue
		}

		url := resolveWorkingNomadsURL(wj)
		if url == "" {
			drop(a.logger, WorkingNomadsName, fmt.Sprintf("hit %d: no apply_url or slug", i))
			continue
		}

		description := wj.Description
		if strings.TrimSpace(description) == "" {
			description = noDescription
		}
		location := strings.Join(wj.Locations, ", ")

		jobs = collect(jobs, model.Job{
			Title:       wj.Title,
			Company:     wj.Company,
			Description: description,
			URL:         url,
			Skills:      wj.Tags,
			Location:    location,
			IsWorldwide: isWorldwide(location, extractText(description)),
			DatePosted:  posted,
		}, WorkingNomadsName, a.logger)
	}

	return jobs, nil
}

// resolveWorkingNomadsURL prefers the explicit apply link and falls back to
// the board's own job page built from the slug. Returns "" when neither is
// available, because a shared generic URL would merge unrelated postings.
func resolveWorkingNomadsURL(wj workingNomadsJob) string {
	if u := strings.TrimSpace(wj.ApplyURL); u != "" {
		return u
	}
	if slug := strings.Trim(strings.TrimSpace(wj.Slug), "/"); slug != "" {
		return workingNomadsJobsURL + slug
	}
	return ""
}
