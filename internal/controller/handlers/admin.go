package handlers

import (
	"net/http"
	"time"

	"hiretrack/internal/pipeline"
	"hiretrack/pkg/api"
)

const (
	dateLayout       = "2006-01-02"
	defaultTrendDays = 30
)

var errAnalyticsForbidden = pipeline.NewError(pipeline.KindForbidden, "only hr or admin can view analytics", nil)

// AdminAnalytics handles GET /admin/analytics?from=YYYY-MM-DD&to=YYYY-MM-DD
// Without a window the last 30 days are reported.
func (h *Handlers) AdminAnalytics(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}
	if !h.policy.CanViewAnalytics(actor) {
		h.fail(w, r, errAnalyticsForbidden)
		return
	}

	q := r.URL.Query()
	var (
		trend []api.DailyCount
		resp  api.AnalyticsResponse
	)
	switch from, to := q.Get("from"), q.Get("to"); {
	case from == "" && to == "":
		days, err := h.analytics.RecentTrend(r.Context(), defaultTrendDays)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		trend = toTrend(days)
	case from == "" || to == "":
		h.badRequest(w, "from and to must be given together")
		return
	default:
		start, err := time.Parse(dateLayout, from)
		if err != nil {
			h.badRequest(w, "from must be YYYY-MM-DD")
			return
		}
		end, err := time.Parse(dateLayout, to)
		if err != nil {
			h.badRequest(w, "to must be YYYY-MM-DD")
			return
		}
		days, err := h.analytics.Trend(r.Context(), start, end)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		trend = toTrend(days)
	}
	if len(trend) > 0 {
		resp.From, resp.To = trend[0].Date, trend[len(trend)-1].Date
	}
	resp.Trend = trend

	dist, err := h.analytics.StatusDistribution(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp.Distribution = toDistribution(dist)

	breakdown, err := h.analytics.JobBreakdown(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp.Breakdown = toBreakdown(breakdown)

	h.respondJson(w, http.StatusOK, resp)
}

// AdminOverview handles GET /admin/overview
func (h *Handlers) AdminOverview(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}
	if !h.policy.CanViewAnalytics(actor) {
		h.fail(w, r, errAnalyticsForbidden)
		return
	}

	o, err := h.analytics.Overview(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	recent := make([]api.Application, 0, len(o.RecentApplications))
	for _, a := range o.RecentApplications {
		recent = append(recent, toApplication(a))
	}
	h.respondJson(w, http.StatusOK, api.OverviewResponse{
		TotalJobs:          o.TotalJobs,
		TotalApplications:  o.TotalApplications,
		Distribution:       toDistribution(o.Distribution),
		RecentApplications: recent,
	})
}

// AdminSearch handles GET /admin/search?q=&type=all|jobs|applications&limit=&offset=
func (h *Handlers) AdminSearch(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		h.badRequest(w, "limit must be an integer")
		return
	}
	offset, err := intParam(q.Get("offset"))
	if err != nil {
		h.badRequest(w, "offset must be an integer")
		return
	}

	res, err := h.engine.Search(r.Context(), pipeline.SearchRequest{
		Actor:  actor,
		Query:  q.Get("q"),
		Type:   pipeline.SearchType(q.Get("type")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, toSearch(res))
}

// UserActivity handles GET /admin/users/{userId}/activity
func (h *Handlers) UserActivity(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userId")
	if !ok {
		return
	}

	act, err := h.engine.Activity(r.Context(), actor, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, api.ActivityResponse{
		UserID:       act.UserID.String(),
		Applications: toApplicationViews(act.Applications),
		Actions:      toLedgerEntries(act.Actions),
	})
}
