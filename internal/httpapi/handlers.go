package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/remotehub/internal/filter"
	"github.com/amishk599/remotehub/internal/model"
)

// maxResumeBytes caps the uploaded résumé size.
const maxResumeBytes = 1 << 20

// Handler serves the JSON API.
type Handler struct {
	deps   Deps
	logger *slog.Logger
}

type scrapeRequest struct {
	Sources []string `json:"sources"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*model.Report
}

type jobResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Skills      []string  `json:"skills"`
	Location    string    `json:"location"`
	IsWorldwide bool      `json:"isWorldwide"`
	DatePosted  time.Time `json:"datePosted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type listResponse struct {
	Jobs       []jobResponse `json:"jobs"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Scrape runs one ingestion pass. An absent or unreadable body selects every
// source.
func (h *Handler) Scrape(c *gin.Context) {
	var req scrapeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Debug("scrape body ignored", "request_id", c.GetString(requestIDKey), "error", err)
			req = scrapeRequest{}
		}
	}

	report, err := h.deps.Ingester.Run(c.Request.Context(), req.Sources)
	if err != nil {
		var noSources *model.NoValidSourcesError
		if errors.As(err, &noSources) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No valid sources selected"})
			return
		}
		h.logger.Error("scrape failed", "request_id", c.GetString(requestIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to scrape jobs"})
		return
	}

	c.JSON(http.StatusOK, scrapeResponse{
		Success: true,
		Message: fmt.Sprintf("Scraped %d jobs successfully from %s", report.TotalJobs, strings.Join(report.SourcesRun, ", ")),
		Report:  report,
	})
}

// ListJobs returns one page of stored postings matching the query parameters.
func (h *Handler) ListJobs(c *gin.Context) {
	criteria := filter.FromQuery(c.Request.URL.Query())

	page, err := h.deps.Finder.Find(c.Request.Context(), criteria)
	if err != nil {
		h.logger.Error("list jobs failed", "request_id", c.GetString(requestIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	jobs := make([]jobResponse, 0, len(page.Records))
	for _, r := range page.Records {
		jobs = append(jobs, toJobResponse(r))
	}
	c.JSON(http.StatusOK, listResponse{
		Jobs:       jobs,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	})
}

func (h *Handler) ListSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": h.deps.Sources.Names()})
}

// CustomizeResume tailors an uploaded plain-text résumé to a job description.
func (h *Handler) CustomizeResume(c *gin.Context) {
	jobDescription := c.PostForm("jobDescription")
	fh, err := c.FormFile("resume")
	if err != nil || strings.TrimSpace(jobDescription) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file or job description"})
		return
	}
	if fh.Size > maxResumeBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Resume file too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.internalError(c, "open resume upload", err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxResumeBytes))
	if err != nil {
		h.internalError(c, "read resume upload", err)
		return
	}

	customized, err := h.deps.Customizer.Customize(c.Request.Context(), string(content), jobDescription)
	if err != nil {
		h.internalError(c, "customize resume", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customizedContent": customized})
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.logger.Error(op+" failed", "request_id", c.GetString(requestIDKey), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func toJobResponse(r model.Record) jobResponse {
	skills := r.Skills
	if skills == nil {
		skills = []string{}
	}
	return jobResponse{
		ID:          r.ID,
		Title:       r.Title,
		Company:     r.Company,
		Description: r.Description,
		URL:         r.URL,
		Source:      r.Source,
		Skills:      skills,
		Location:    r.Location,
		IsWorldwide: r.IsWorldwide,
		DatePosted:  r.DatePosted,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		ExpiresAt:   r.ExpiresAt,
	}
}
