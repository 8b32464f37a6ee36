package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonathan/algomentor/internal/dashboard"
	"github.com/jonathan/algomentor/internal/feedback"
	"github.com/jonathan/algomentor/internal/logging"
	"github.com/jonathan/algomentor/internal/recommend"
	"github.com/jonathan/algomentor/internal/server/middleware"
	"github.com/jonathan/algomentor/internal/server/ratelimit"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/rs/zerolog/log"
)

// Dashboard is the per-user data the API serves.
type Dashboard interface {
	Profiles(ctx context.Context, u dashboard.User) (types.PlatformProfiles, error)
	Tags(ctx context.Context, u dashboard.User) (types.TagDistribution, error)
	RecommendationsFor(ctx context.Context, u dashboard.User, req recommend.Request) (types.RecommendationPage, error)
	DailyFeedback(ctx context.Context, u dashboard.User) (*types.DailyFeedback, error)
	Invalidate(ctx context.Context, u dashboard.User)
}

// ChatMentor answers chat questions against a conversation.
type ChatMentor interface {
	Ask(ctx context.Context, conv *feedback.Conversation, query string) (string, error)
}

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Addr           string
	AllowedOrigins []string
	// WriteTimeout bounds a whole response, including feedback generation.
	WriteTimeout time.Duration
}

// Deps are the services behind the routes. Health may be nil.
type Deps struct {
	Users     *UserService
	JWT       *JWTService
	Dashboard Dashboard
	Mentor    ChatMentor
	Sessions  *Sessions
	Limiter   *ratelimit.Limiter
	Health    Pinger
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	router      chi.Router
	deps        Deps
	authHandler *AuthHandler
}

// New builds the router and HTTP server. A nil Limiter uses
// ratelimit.LoadConfig and a nil Sessions keeps two turns per user.
func New(cfg Config, deps Deps) *Server {
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}
	if deps.Sessions == nil {
		deps.Sessions = NewSessions(feedback.DefaultHistorySize, DefaultSessionIdle)
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 120 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		deps:        deps,
		authHandler: NewAuthHandler(deps.Users, deps.JWT),
	}
	s.router = s.routes(cfg)
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(cfg Config) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.withLogging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(s.withRateLimit)

	r.Get("/health", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.authHandler.Signup)
		r.Post("/login", s.authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(s.deps.JWT))

		r.Get("/me", s.authHandler.Me)
		r.Put("/me/handles", s.handleUpdateHandles)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/tags", s.handleTags)
		r.Get("/recommendations", s.handleRecommendations)
		r.Get("/feedback", s.handleFeedback)
		r.Post("/chat", s.handleChat)
		r.Delete("/chat", s.handleResetChat)
	})

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	prune := time.NewTicker(15 * time.Minute)
	defer prune.Stop()

	for {
		select {
		case err, ok := <-errCh:
			s.deps.Limiter.Stop()
			if ok {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-prune.C:
			if n := s.deps.Sessions.Prune(); n > 0 {
				log.Debug().Int("removed", n).Msg("pruned idle chat sessions")
			}
		case <-ctx.Done():
			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			err := s.httpServer.Shutdown(shutdownCtx)
			s.deps.Limiter.Stop()
			if err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			log.Info().Msg("server stopped")
			return nil
		}
	}
}

// withLogging writes one access log line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logger := logging.WithRequestID(chimw.GetReqID(r.Context()))
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// withRateLimit rejects clients over their endpoint budget.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		allowed, info := s.deps.Limiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID returns the client IP. RealIP has already applied
// X-Forwarded-For / X-Real-IP to RemoteAddr.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 with the limit details.
func rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.UTC().Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds() + 0.999)
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	log.Warn().Int("limit", info.Limit).Time("reset", info.ResetTime).Msg("rate limit exceeded")
	writeJSON(w, http.StatusTooManyRequests, response)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("error encoding JSON response")
	}
}

// writeError writes an error JSON response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
