package handlers

import (
	"net/http"

	"hiretrack/internal/logger"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/store"
	"hiretrack/pkg/api"
)

// TransitionApplication handles POST /pipeline/{appId}/update
// A retried request carrying the same X-Request-ID returns the recorded result.
func (h *Handlers) TransitionApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "appId")
	if !ok {
		return
	}

	var req api.TransitionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.Status == "" {
		h.badRequest(w, "status is required")
		return
	}

	res, err := h.engine.Transition(r.Context(), pipeline.TransitionRequest{
		ApplicationID: id,
		Actor:         actor,
		Target:        store.Status(req.Status),
		Note:          req.Note,
		RequestID:     logger.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	logger.FromContext(r.Context(), h.log).Info("application moved",
		"application_id", res.Application.ID,
		"status", res.Application.Status,
	)
	h.respondJson(w, http.StatusOK, toTransition(res))
}

// GetHistory handles GET /pipeline/{appId}
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "appId")
	if !ok {
		return
	}

	entries, err := h.engine.History(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, api.HistoryResponse{
		ApplicationID: id.String(),
		Entries:       toLedgerEntries(entries),
	})
}

// PipelineStats handles GET /pipeline/stats
func (h *Handlers) PipelineStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}
	if !h.policy.CanViewAnalytics(actor) {
		h.fail(w, r, pipeline.NewError(pipeline.KindForbidden, "only hr or admin can view pipeline stats", nil))
		return
	}

	dist, err := h.analytics.StatusDistribution(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, toDistribution(dist))
}
