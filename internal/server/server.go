// Package server provides the HTTP and WebSocket API for the interview coach.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/grading"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/questions"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/server/ratelimit"
	"github.com/jonathan/interview-coach/internal/types"
	"github.com/jonathan/interview-coach/internal/voice"
)

// Store is the persistence surface the handlers use. *db.DB satisfies it;
// handler tests substitute an in-memory implementation.
type Store interface {
	FindUserAnswer(ctx context.Context, userID, question string) (*types.UserAnswer, error)
	SaveUserAnswer(ctx context.Context, answer types.UserAnswer) (types.UserAnswer, error)
	CreateInterview(ctx context.Context, interview types.Interview) (types.Interview, error)
	GetInterview(ctx context.Context, id uuid.UUID) (*types.Interview, error)
	ListInterviews(ctx context.Context, userID string) ([]types.Interview, error)
}

// Server is the HTTP server and its wired pipeline components.
type Server struct {
	httpServer  *http.Server
	store       Store
	closeStore  func()
	grader      *grading.Grader
	analyzer    *voice.Analyzer
	generator   *questions.Generator
	jwtService  *JWTService
	rateLimiter *ratelimit.Limiter
	validate    *validator.Validate
	log         zerolog.Logger
}

// Config holds server configuration.
type Config struct {
	Port        string
	DatabaseURL string
	APIKey      string
	JWTSecret   string
}

// New creates a server instance. A missing API key is not fatal: grading
// degrades to its sentinel results and voice analysis runs on the heuristic.
func New(ctx context.Context, cfg Config) (*Server, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var client llm.Client
	if cfg.APIKey != "" {
		client, err = llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
	}

	jwtService, err := NewJWTService(cfg.JWTSecret)
	if err != nil {
		database.Close()
		return nil, err
	}

	s := &Server{
		store:       database,
		closeStore:  database.Close,
		grader:      grading.NewGrader(client),
		analyzer:    voice.NewAnalyzer(client),
		generator:   questions.NewGenerator(client),
		jwtService:  jwtService,
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		validate:    validator.New(),
		log:         observability.Component("server"),
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // model calls can be slow
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// routes assembles the mux with its middleware stack.
func (s *Server) routes() http.Handler {
	auth := middleware.Auth(s.jwtService)

	mux := http.NewServeMux()
	mux.Handle("POST /interviews", auth(http.HandlerFunc(s.handleCreateInterview)))
	mux.Handle("GET /interviews", auth(http.HandlerFunc(s.handleListInterviews)))
	mux.Handle("GET /interviews/{id}", auth(http.HandlerFunc(s.handleGetInterview)))
	mux.Handle("GET /answers", auth(http.HandlerFunc(s.handleFindAnswer)))
	mux.Handle("POST /answers", auth(http.HandlerFunc(s.handleSaveAnswer)))
	mux.Handle("GET /attempts/ws", auth(http.HandlerFunc(s.handleAttemptWS)))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start begins listening and blocks until an interrupt triggers a graceful
// shutdown.
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
	s.log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.rateLimiter.Stop()
	if s.closeStore != nil {
		s.closeStore()
	}
	s.log.Info().Msg("server stopped")
	return nil
}

// withCORS adds CORS headers for the browser client.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

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
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// withRateLimit rejects clients that exceed their per-endpoint budget.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
			s.errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID identifies a client by IP for rate limiting.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
