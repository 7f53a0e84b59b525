package pipeline

import (
	"context"
	"fmt"
	"strings"

	"hiretrack/internal/auth"
	"hiretrack/internal/store"
)

// SearchType narrows what Search looks at.
type SearchType string

const (
	SearchAll          SearchType = "all"
	SearchJobs         SearchType = "jobs"
	SearchApplications SearchType = "applications"
)

// SearchRequest is a staff search over job postings and applications.
type SearchRequest struct {
	Actor  auth.Identity
	Query  string
	Type   SearchType
	Limit  int
	Offset int
}

// SearchResult holds the matches of each searched kind. A kind that was not
// searched is nil.
type SearchResult struct {
	Query        string
	Type         SearchType
	Limit        int
	Offset       int
	Jobs         []store.Job
	Applications []ApplicationView
}

// Search matches jobs by title or description and applications by status or
// reviewer comments. Staff only.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if !e.policy.CanSearch(req.Actor) {
		return nil, forbidden("only hr or admin can search")
	}

	q := strings.TrimSpace(req.Query)
	if q == "" {
		return nil, validation("search query is required")
	}
	typ := req.Type
	if typ == "" {
		typ = SearchAll
	}
	if typ != SearchAll && typ != SearchJobs && typ != SearchApplications {
		return nil, validation(fmt.Sprintf("unknown search type %q", req.Type))
	}
	if req.Offset < 0 {
		return nil, validation("offset must not be negative")
	}

	f := store.SearchFilter{Query: q, Limit: EffectiveLimit(req.Limit), Offset: req.Offset}
	res := &SearchResult{Query: q, Type: typ, Limit: f.Limit, Offset: f.Offset}

	if typ != SearchApplications {
		jobs, err := e.jobs.SearchJobs(ctx, f)
		if err != nil {
			return nil, internal(err)
		}
		res.Jobs = jobs
	}
	if typ != SearchJobs {
		apps, err := e.apps.SearchApplications(ctx, f)
		if err != nil {
			return nil, internal(err)
		}
		views, err := e.withJobs(ctx, apps)
		if err != nil {
			return nil, err
		}
		res.Applications = views
	}
	return res, nil
}
