// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"hiretrack/internal/controller/handlers"
	"hiretrack/internal/controller/middleware"
)

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// Routes holds what NewHandler mounts.
type Routes struct {
	Handlers *handlers.Handlers
	Verifier middleware.Verifier
	Limiter  *middleware.RateLimiter
	// Metrics is served on /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewHandler builds the routing table. Health checks and /metrics are public;
// everything else requires a bearer token and is rate limited per user.
func NewHandler(rt Routes) http.Handler {
	h := rt.Handlers
	limiter := rt.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter()
	}
	authMW := middleware.Authenticate(rt.Verifier)
	rateMW := limiter.Middleware()
	protect := func(fn http.HandlerFunc) http.Handler {
		return authMW(rateMW(fn))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}

	mux.Handle("POST /applications", protect(h.SubmitApplication))
	mux.Handle("GET /applications", protect(h.ListApplications))
	mux.Handle("GET /applications/my-applications", protect(h.ListMyApplications))
	mux.Handle("GET /applications/{id}", protect(h.GetApplication))
	mux.Handle("PUT /applications/{id}", protect(h.ReviewApplication))
	mux.Handle("DELETE /applications/{id}", protect(h.WithdrawApplication))

	mux.Handle("POST /pipeline/{appId}/update", protect(h.TransitionApplication))
	mux.Handle("GET /pipeline/stats", protect(h.PipelineStats))
	mux.Handle("GET /pipeline/{appId}", protect(h.GetHistory))

	mux.Handle("GET /admin/analytics", protect(h.AdminAnalytics))
	mux.Handle("GET /admin/overview", protect(h.AdminOverview))
	mux.Handle("GET /admin/search", protect(h.AdminSearch))
	mux.Handle("GET /admin/users/{userId}/activity", protect(h.UserActivity))

	mux.Handle("POST /resumes", protect(h.UploadResume))
	mux.Handle("GET /resumes/{id}", protect(h.GetResume))

	log := rt.Logger
	if log == nil {
		log = slog.Default()
	}
	return middleware.RequestID(middleware.AccessLog(log)(mux))
}

// New creates a new controller server.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
