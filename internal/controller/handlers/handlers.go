// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"hiretrack/internal/analytics"
	"hiretrack/internal/auth"
	"hiretrack/internal/logger"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/resume"
	"hiretrack/internal/store"
	"hiretrack/pkg/api"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Engine    *pipeline.Engine
	Analytics *analytics.Aggregator
	Resumes   store.ResumeStore
	Blobs     resume.BlobStore
	// Checks are consulted by /readyz, keyed by name.
	Checks         map[string]Pinger
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	engine    *pipeline.Engine
	analytics *analytics.Aggregator
	resumes   store.ResumeStore
	blobs     resume.BlobStore
	checks    map[string]Pinger
	maxUpload int64
	policy    auth.Policy
	log       *slog.Logger
}

// New creates a new Handlers instance.
func New(d Deps) *Handlers {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}
	return &Handlers{
		engine:    d.Engine,
		analytics: d.Analytics,
		resumes:   d.Resumes,
		blobs:     d.Blobs,
		checks:    d.Checks,
		maxUpload: maxUpload,
		log:       log,
	}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message, code string, status int) {
	h.respondJson(w, status, api.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

var statusByKind = map[pipeline.Kind]int{
	pipeline.KindNotFound:             http.StatusNotFound,
	pipeline.KindForbidden:            http.StatusForbidden,
	pipeline.KindInvalidTransition:    http.StatusConflict,
	pipeline.KindDuplicateApplication: http.StatusBadRequest,
	pipeline.KindValidation:           http.StatusBadRequest,
	pipeline.KindConflict:             http.StatusConflict,
	pipeline.KindInternal:             http.StatusInternalServerError,
}

// fail maps a pipeline error onto an HTTP response. Internal causes are logged, never returned.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := pipeline.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if kind == pipeline.KindInternal {
		logger.FromContext(r.Context(), h.log).Error("request failed", "path", r.URL.Path, "error", err)
	}
	h.httpError(w, pipeline.MessageOf(err), string(kind), status)
}

func (h *Handlers) badRequest(w http.ResponseWriter, message string) {
	h.httpError(w, message, string(pipeline.KindValidation), http.StatusBadRequest)
}

// identity returns the authenticated caller. Routes are wrapped by
// middleware.Authenticate, so a missing identity is a wiring bug.
func (h *Handlers) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.httpError(w, "unauthorized", "unauthorized", http.StatusUnauthorized)
	}
	return id, ok
}

// decodeJSON decodes an optional body; an empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
