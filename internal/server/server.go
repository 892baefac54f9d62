// Package server provides the HTTP REST API for the resume council.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashishsumanth1/Resume-Council/internal/council"
	"github.com/ashishsumanth1/Resume-Council/internal/server/ratelimit"
	"github.com/ashishsumanth1/Resume-Council/internal/store"
)

// Runner executes the pipeline. Satisfied by *council.Council.
type Runner interface {
	Run(ctx context.Context, input council.RunInput) (*council.RunResult, error)
	RunWithProgress(ctx context.Context, input council.RunInput, progress council.ProgressFunc) (*council.RunResult, error)
}

// Storage persists runs and profiles. Satisfied by *store.Store.
type Storage interface {
	SaveRun(ctx context.Context, inputs store.RunInputs, result *council.RunResult) (*store.RunRecord, error)
	GetRun(ctx context.Context, id uuid.UUID) (*store.RunRecord, error)
	ListRuns(ctx context.Context) ([]store.RunSummary, error)
	CreateProfile(ctx context.Context, name, rawText, compactText string) (*store.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*store.Profile, error)
	ListProfiles(ctx context.Context) ([]store.Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) (bool, error)
}

// Config holds server configuration.
type Config struct {
	Addr                string
	ProfilePackMaxChars int
}

// Server is the HTTP server.
type Server struct {
	httpServer  *http.Server
	runner      Runner
	store       Storage
	rateLimiter *ratelimit.Limiter
	validate    *validator.Validate
	cfg         Config
	log         zerolog.Logger
}

// New creates a server over an initialized pipeline and store.
func New(cfg Config, runner Runner, storage Storage, log zerolog.Logger) *Server {
	s := &Server{
		runner:      runner,
		store:       storage,
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		validate:    validator.New(),
		cfg:         cfg,
		log:         log.With().Str("component", "server").Logger(),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second, // pipeline runs take minutes
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler builds the route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/resume/run", s.handleRun)
	mux.HandleFunc("POST /api/resume/run/stream", s.handleRunStream)

	mux.HandleFunc("GET /api/resumes", s.handleListResumes)
	mux.HandleFunc("GET /api/resumes/{id}", s.handleGetResume)
	mux.HandleFunc("GET /api/resumes/{id}/docx", s.handleResumeDocx)

	mux.HandleFunc("GET /api/profiles", s.handleListProfiles)
	mux.HandleFunc("POST /api/profiles", s.handleCreateProfile)
	mux.HandleFunc("GET /api/profiles/{id}", s.handleGetProfile)
	mux.HandleFunc("DELETE /api/profiles/{id}", s.handleDeleteProfile)

	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start listens until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.rateLimiter.Stop()
	s.log.Info().Msg("server stopped")
	return nil
}

// withCORS adds CORS headers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// withRateLimit enforces per-client limits.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)
		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)

		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}
	s.log.Warn().Int("limit", info.Limit).Msg("rate limit exceeded")
	s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "service": "resume-council"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
