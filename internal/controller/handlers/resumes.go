package handlers

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"hiretrack/internal/auth"
	"hiretrack/internal/logger"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/resume"
	"hiretrack/internal/store"
)

const resumeField = "resume"

// UploadResume handles POST /resumes (multipart form, field "resume").
// The file is stored and queued for parsing; parsing never blocks the upload.
func (h *Handlers) UploadResume(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}
	if actor.Role != auth.RoleApplicant {
		h.fail(w, r, pipeline.NewError(pipeline.KindForbidden, "only applicants can upload resumes", nil))
		return
	}

	// Multipart framing adds a little on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+64<<10)
	file, header, err := r.FormFile(resumeField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.httpError(w, "resume exceeds size limit", string(pipeline.KindValidation), http.StatusRequestEntityTooLarge)
			return
		}
		h.badRequest(w, "multipart field \"resume\" is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}

	path, err := h.blobs.Save(r.Context(), filename, file)
	if err != nil {
		if errors.Is(err, resume.ErrTooLarge) {
			h.httpError(w, "resume exceeds size limit", string(pipeline.KindValidation), http.StatusRequestEntityTooLarge)
			return
		}
		h.fail(w, r, err)
		return
	}

	res := &store.Resume{
		ID:          uuid.New(),
		OwnerID:     actor.UserID,
		Filename:    filename,
		ContentType: contentType,
		Path:        path,
		ParseState:  store.ParseStatePending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.resumes.CreateResume(r.Context(), res); err != nil {
		if rerr := h.blobs.Remove(context.WithoutCancel(r.Context()), path); rerr != nil {
			logger.FromContext(r.Context(), h.log).Warn("failed to remove orphaned resume file", "path", path, "error", rerr)
		}
		h.fail(w, r, err)
		return
	}

	logger.FromContext(r.Context(), h.log).Info("resume uploaded", "resume_id", res.ID, "content_type", contentType)
	h.respondJson(w, http.StatusCreated, toResume(*res))
}

// GetResume handles GET /resumes/{id}
func (h *Handlers) GetResume(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	res, err := h.resumes.GetResumeByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, pipeline.NewError(pipeline.KindNotFound, "resume not found", nil))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !h.policy.CanView(actor, res.OwnerID) {
		h.fail(w, r, pipeline.NewError(pipeline.KindForbidden, "not allowed to view this resume", nil))
		return
	}
	h.respondJson(w, http.StatusOK, toResume(*res))
}
