package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jonathan/algomentor/internal/dashboard"
	"github.com/jonathan/algomentor/internal/feedback"
	"github.com/jonathan/algomentor/internal/logging"
	"github.com/jonathan/algomentor/internal/recommend"
	"github.com/jonathan/algomentor/internal/server/middleware"
	"github.com/jonathan/algomentor/internal/types"
)

// MaxRecommendationLimit caps the per-platform limit a client may request.
const MaxRecommendationLimit = 50

// DashboardResponse is the body of GET /dashboard.
type DashboardResponse struct {
	Username        string                 `json:"username"`
	Platforms       types.PlatformProfiles `json:"platforms"`
	TagDistribution types.TagDistribution  `json:"tag_distribution"`
}

// TagsResponse is the body of GET /tags.
type TagsResponse struct {
	TagDistribution types.TagDistribution `json:"tag_distribution"`
	Total           int                   `json:"total"`
	Top             string                `json:"top,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// currentUser loads the authenticated user, writing the error response
// when that fails.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*types.User, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	user, err := s.deps.Users.Get(r.Context(), userID)
	if err != nil {
		s.authHandler.fail(w, err)
		return nil, false
	}
	return user, true
}

func dashboardUser(u *types.User) dashboard.User {
	return dashboard.User{ID: u.ID, Handles: u.Handles}
}

// dashboardError maps service errors that carry no generation failure.
func dashboardError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, dashboard.ErrNoPlatforms) {
		writeError(w, http.StatusUnprocessableEntity, "Please connect at least one platform to continue.")
		return
	}
	logger := logging.WithRequestID(chimw.GetReqID(r.Context()))
	logger.Error().Err(err).Str("path", r.URL.Path).Msg("dashboard request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) handleUpdateHandles(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req types.UpdateHandlesRequest
	if !decodeAndValidate(w, r, s.authHandler.validator, &req) {
		return
	}

	user, err := s.deps.Users.UpdateHandles(r.Context(), userID, &req)
	if err != nil {
		s.authHandler.fail(w, err)
		return
	}
	s.deps.Dashboard.Invalidate(r.Context(), dashboardUser(user))
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	u := dashboardUser(user)

	profiles, err := s.deps.Dashboard.Profiles(r.Context(), u)
	if err != nil {
		dashboardError(w, r, err)
		return
	}
	dist, err := s.deps.Dashboard.Tags(r.Context(), u)
	if err != nil {
		dashboardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{
		Username:        user.Username,
		Platforms:       profiles,
		TagDistribution: dist,
	})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	dist, err := s.deps.Dashboard.Tags(r.Context(), dashboardUser(user))
	if err != nil {
		dashboardError(w, r, err)
		return
	}
	top, _ := dist.Top()
	writeJSON(w, http.StatusOK, TagsResponse{TagDistribution: dist, Total: dist.Total(), Top: top})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	req, err := parseRecommendationQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := s.deps.Dashboard.RecommendationsFor(r.Context(), dashboardUser(user), req)
	if err != nil {
		dashboardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// parseRecommendationQuery reads optional overrides on top of the
// dashboard defaults: every platform, contests on, 15 per platform.
func parseRecommendationQuery(r *http.Request) (recommend.Request, error) {
	q := r.URL.Query()
	req := recommend.Request{
		LimitPerPlatform: dashboard.RecommendationLimit,
		IncludeContests:  true,
		Platforms:        types.AllPlatforms,
	}

	if raw := q.Get("tags"); raw != "" {
		req.Tags = splitList(raw)
	}
	if raw := q.Get("difficulty"); raw != "" {
		d := types.ParseDifficulty(raw)
		if d == types.DifficultyUnknown {
			return req, invalid("difficulty", "must be easy, medium or hard")
		}
		req.Difficulty = d
	}
	for _, bound := range []struct {
		name string
		dst  **int
	}{{"min_rating", &req.MinRating}, {"max_rating", &req.MaxRating}} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return req, invalid(bound.name, "must be a non-negative integer")
		}
		*bound.dst = &v
	}
	if req.MinRating != nil && req.MaxRating != nil && *req.MinRating > *req.MaxRating {
		return req, invalid("min_rating", "must not exceed max_rating")
	}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxRecommendationLimit {
			return req, invalid("limit", "must be between 1 and "+strconv.Itoa(MaxRecommendationLimit))
		}
		req.LimitPerPlatform = v
	}
	if raw := q.Get("platforms"); raw != "" {
		req.Platforms = nil
		for _, name := range splitList(raw) {
			p, err := types.ParsePlatform(strings.ToLower(name))
			if err != nil {
				return req, invalid("platforms", err.Error())
			}
			req.Platforms = append(req.Platforms, p)
		}
	}
	if raw := q.Get("contests"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return req, invalid("contests", "must be true or false")
		}
		req.IncludeContests = v
	}
	return req, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	fb, err := s.deps.Dashboard.DailyFeedback(r.Context(), dashboardUser(user))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, fb)
	case errors.Is(err, dashboard.ErrNoPlatforms):
		dashboardError(w, r, err)
	case feedback.IsRateLimited(err):
		writeJSON(w, http.StatusTooManyRequests, feedback.AsFailure(err))
	default:
		logger := logging.WithUser(user.ID.String())
		logger.Error().Err(err).Msg("daily feedback failed")
		writeJSON(w, http.StatusBadGateway, feedback.AsFailure(err))
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ChatResponse{Error: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Doubt) == "" {
		writeJSON(w, http.StatusBadRequest, types.ChatResponse{Error: "No doubt provided"})
		return
	}

	conv := s.deps.Sessions.Conversation(userID)
	answer, err := s.deps.Mentor.Ask(r.Context(), conv, req.Doubt)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, types.ChatResponse{Success: true, Response: answer})
	case errors.Is(err, feedback.ErrEmptyQuery):
		writeJSON(w, http.StatusBadRequest, types.ChatResponse{Error: "No doubt provided"})
	case feedback.IsRateLimited(err):
		writeJSON(w, http.StatusTooManyRequests, types.ChatResponse{Error: feedback.RateLimitedMessage})
	default:
		logger := logging.WithUser(userID.String())
		logger.Error().Err(err).Msg("chat failed")
		writeJSON(w, http.StatusBadGateway, types.ChatResponse{Error: "The mentor could not answer right now. Please try again."})
	}
}

func (s *Server) handleResetChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.deps.Sessions.Reset(userID)
	w.WriteHeader(http.StatusNoContent)
}
