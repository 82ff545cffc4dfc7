// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research pipelines over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/internal/report"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

// Runner runs one pipeline to completion for a goal.
type Runner[G any] interface {
	Run(ctx context.Context, goal G) types.Result
}

// Pipelines holds one runner per use case.
type Pipelines struct {
	Courses  Runner[types.CourseGoal]
	Deadline Runner[types.DeadlineGoal]
	Partners Runner[types.PartnerGoal]
	Insights Runner[types.InsightGoal]
	Plan     Runner[types.PlanGoal]
}

// Server routes requests to the pipelines.
type Server struct {
	router    chi.Router
	pipelines Pipelines
	logger    *zap.Logger
	timeout   time.Duration
}

// New creates a Server. A zero timeout leaves runs bounded only by the
// request context.
func New(p Pipelines, timeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:    chi.NewRouter(),
		pipelines: p,
		logger:    logger,
		timeout:   timeout,
	}
	s.routes()
	return s
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/courses", handle(s, s.pipelines.Courses))
	s.router.Post("/deadline", handle(s, s.pipelines.Deadline))
	s.router.Post("/partners", handle(s, s.pipelines.Partners))
	s.router.Post("/application_plan", handle(s, s.pipelines.Plan))
	s.router.Get("/insights/{university}/{subject}", s.handleInsights)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

type validator interface {
	Validate() error
}

// handle decodes a JSON goal from the request body and runs it.
func handle[G validator](s *Server, runner Runner[G]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			s.writeError(w, http.StatusNotImplemented, errors.New("pipeline not configured"))
			return
		}
		var goal G
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&goal); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid goal: %w", err))
			return
		}
		run(s, w, r, runner, goal)
	}
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.pipelines.Insights == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("pipeline not configured"))
		return
	}
	university, err := url.PathUnescape(chi.URLParam(r, "university"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	subject, err := url.PathUnescape(chi.URLParam(r, "subject"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	run(s, w, r, s.pipelines.Insights, types.InsightGoal{University: university, Subject: subject})
}

func run[G validator](s *Server, w http.ResponseWriter, r *http.Request, runner Runner[G], goal G) {
	if err := goal.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	res := runner.Run(ctx, goal)
	if res.Failed() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":  res.Error,
			"run_id": res.RunID,
		})
		return
	}
	writeJSON(w, http.StatusOK, report.FromResult(res))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	} else {
		s.logger.Warn("bad request", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
