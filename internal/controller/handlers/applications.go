package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"hiretrack/internal/logger"
	"hiretrack/internal/pipeline"
	"hiretrack/pkg/api"
)

// SubmitApplication handles POST /applications
func (h *Handlers) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req api.SubmitApplicationRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		h.badRequest(w, "job_id must be a UUID")
		return
	}
	resumeID, err := uuid.Parse(req.ResumeID)
	if err != nil {
		h.badRequest(w, "resume_id must be a UUID")
		return
	}

	app, err := h.engine.Submit(r.Context(), pipeline.SubmitRequest{
		Actor:    actor,
		JobID:    jobID,
		ResumeID: resumeID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	logger.FromContext(r.Context(), h.log).Info("application submitted", "application_id", app.ID, "job_id", app.JobID)
	h.respondJson(w, http.StatusCreated, toApplication(*app))
}

// ListApplications handles GET /applications
func (h *Handlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := pipeline.ListFilter{Status: q.Get("status")}
	if v := q.Get("job_id"); v != "" {
		jobID, err := uuid.Parse(v)
		if err != nil {
			h.badRequest(w, "job_id must be a UUID")
			return
		}
		filter.JobID = jobID
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		h.badRequest(w, "limit must be an integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		h.badRequest(w, "offset must be an integer")
		return
	}

	views, err := h.engine.List(r.Context(), actor, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respondJson(w, http.StatusOK, api.ListApplicationsResponse{
		Applications: toApplicationViews(views),
		Limit:        pipeline.EffectiveLimit(filter.Limit),
		Offset:       filter.Offset,
	})
}

// ListMyApplications handles GET /applications/my-applications
func (h *Handlers) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	views, err := h.engine.ListMine(r.Context(), actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, api.ListApplicationsResponse{Applications: toApplicationViews(views)})
}

// GetApplication handles GET /applications/{id}
func (h *Handlers) GetApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.engine.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, toApplicationView(*view))
}

// ReviewApplication handles PUT /applications/{id}
func (h *Handlers) ReviewApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req api.ReviewApplicationRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	app, err := h.engine.Review(r.Context(), pipeline.ReviewRequest{
		Actor:         actor,
		ApplicationID: id,
		Rating:        req.Rating,
		Comments:      req.Comments,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, toApplication(*app))
}

// WithdrawApplication handles DELETE /applications/{id}
// The application is kept; withdrawal is recorded as a terminal transition.
func (h *Handlers) WithdrawApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req api.WithdrawRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	res, err := h.engine.Withdraw(r.Context(), actor, id, req.Note, logger.RequestIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, toTransition(res))
}

func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		h.badRequest(w, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
