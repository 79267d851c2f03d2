package httpapi

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/remotehub/internal/filter"
	"github.com/amishk599/remotehub/internal/model"
	"github.com/amishk599/remotehub/internal/resume"
)

// Ingester runs one ingestion pass over the named sources (all when empty).
type Ingester interface {
	Run(ctx context.Context, names []string) (*model.Report, error)
}

// JobFinder returns one filtered page of stored postings.
type JobFinder interface {
	Find(ctx context.Context, c filter.Criteria) (model.Page, error)
}

// SourceLister names the registered sources.
type SourceLister interface {
	Names() []string
}

// Deps are the services the HTTP handlers call into.
type Deps struct {
	Ingester   Ingester
	Finder     JobFinder
	Sources    SourceLister
	Customizer resume.Customizer
}

// NewRouter builds the gin engine with middleware and every route mounted.
func NewRouter(deps Deps, logger *slog.Logger, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AccessLog(logger), Recover(logger), Cors(allowedOrigins))

	h := &Handler{deps: deps, logger: logger}

	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	{
		api.POST("/jobs/scrape", h.Scrape)
		api.GET("/jobs", h.ListJobs)
		api.GET("/sources", h.ListSources)
		api.POST("/resume", h.CustomizeResume)
	}

	return r
}
