package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/remotehub/internal/model"
)

// Source is a named fetcher behind the isolation boundary. Whatever the
// fetcher does, FetchAndNormalize hands back a slice.
type Source struct {
	name    string
	fetcher model.JobFetcher
	logger  *slog.Logger
}

// NewSource wraps fetcher under the given board name.
func NewSource(name string, fetcher model.JobFetcher, logger *slog.Logger) *Source {
	return &Source{name: name, fetcher: fetcher, logger: logger}
}

func (s *Source) Name() string { return s.name }

// FetchAndNormalize runs the fetcher and collapses any failure, including a
// panic, into an empty result. The failure is logged as a
// *model.SourceFetchError and never reaches the caller.
func (s *Source) FetchAndNormalize(ctx context.Context) (jobs []model.Job) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(&model.SourceFetchError{Source: s.name, Err: fmt.Errorf("panic: %v", r)})
			jobs = []model.Job{}
		}
	}()

	fetched, err := s.fetcher.FetchJobs(ctx)
	if err != nil {
		s.fail(&model.SourceFetchError{Source: s.name, Err: err})
		return []model.Job{}
	}
	if fetched == nil {
		return []model.Job{}
	}
	return fetched
}

func (s *Source) fail(err *model.SourceFetchError) {
	s.logger.Warn("source fetch failed", "source", s.name, "error", err)
}

// Registry holds the enabled sources in registration order.
type Registry struct {
	sources []*Source
	byName  map[string]*Source
}

// New builds a registry. A later source with a duplicate name is ignored.
func New(sources ...*Source) *Registry {
	r := &Registry{byName: make(map[string]*Source, len(sources))}
	for _, s := range sources {
		if _, dup := r.byName[s.name]; dup {
			continue
		}
		r.byName[s.name] = s
		r.sources = append(r.sources, s)
	}
	return r
}

// Names lists the registered source names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.name
	}
	return names
}

// Len returns the number of registered sources.
func (r *Registry) Len() int { return len(r.sources) }

// Resolve maps a selection to sources. An empty selection means every
// source. Otherwise names are matched exactly, unknown names are skipped, and
// the result keeps registration order. A non-empty selection matching
// nothing returns *model.NoValidSourcesError.
func (r *Registry) Resolve(names []string) ([]*Source, error) {
	if len(names) == 0 {
		out := make([]*Source, len(r.sources))
		copy(out, r.sources)
		return out, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var out []*Source
	for _, s := range r.sources {
		if wanted[s.name] {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, &model.NoValidSourcesError{Requested: names}
	}
	return out, nil
}
