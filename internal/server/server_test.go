package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/algomentor/internal/feedback"
	"github.com/jonathan/algomentor/internal/server/ratelimit"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	w := doJSON(t, env.server.Handler(), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	env := newTestEnv(t, nil)
	env.server.deps.Health = stubPinger{err: errors.New("down")}

	w := doJSON(t, env.server.Handler(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.server.Handler()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/me"},
		{http.MethodPut, "/me/handles"},
		{http.MethodGet, "/dashboard"},
		{http.MethodGet, "/tags"},
		{http.MethodGet, "/recommendations"},
		{http.MethodGet, "/feedback"},
		{http.MethodPost, "/chat"},
		{http.MethodDelete, "/chat"},
	} {
		w := doJSON(t, h, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.dashboard.dist = types.TagDistribution{"dp": 8}
	env.dashboard.profiles = types.PlatformProfiles{
		Codeforces: types.PlatformProfile[types.CodeforcesStats]{Connected: true, Available: true, Data: &types.CodeforcesStats{}},
	}
	id, token := env.seedUser(t, types.Handles{Codeforces: "tourist"})

	w := doJSON(t, env.server.Handler(), http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp DashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, types.TagDistribution{"dp": 8}, resp.TagDistribution)
	assert.True(t, resp.Platforms.Codeforces.Connected)
	assert.Equal(t, id, env.dashboard.lastUser.ID)
	assert.Equal(t, "tourist", env.dashboard.lastUser.Handles.Codeforces)
}

func TestDashboardEndpoint_Errors(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.seedUser(t, types.Handles{})

	w := doJSON(t, env.server.Handler(), http.MethodGet, "/dashboard", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "connect at least one platform")

	env.dashboard.err = errors.New("boom")
	_, token = env.seedUser(t, types.Handles{LeetCode: "x"})
	w = doJSON(t, env.server.Handler(), http.MethodGet, "/tags", token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestTagsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.dashboard.dist = types.TagDistribution{"dp": 8, "math": 3}
	_, token := env.seedUser(t, types.Handles{LeetCode: "x"})

	w := doJSON(t, env.server.Handler(), http.MethodGet, "/tags", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp TagsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 11, resp.Total)
	assert.Equal(t, "dp", resp.Top)
}

func TestRecommendationsEndpoint_Defaults(t *testing.T) {
	env := newTestEnv(t, nil)
	env.dashboard.page = types.RecommendationPage{WeakAreas: []string{"dp"}}
	_, token := env.seedUser(t, types.Handles{LeetCode: "x"})

	w := doJSON(t, env.server.Handler(), http.MethodGet, "/recommendations", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"weak_areas"`)

	req := env.dashboard.lastReq
	assert.Equal(t, 15, req.LimitPerPlatform)
	assert.True(t, req.IncludeContests)
	assert.Equal(t, types.AllPlatforms, req.Platforms)
	assert.Empty(t, req.Tags)
}

func TestRecommendationsEndpoint_Overrides(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.seedUser(t, types.Handles{LeetCode: "x"})

	path := "/recommendations?tags=dp,%20graphs&difficulty=Hard&min_rating=1200&max_rating=1800&limit=5&platforms=codeforces&contests=false"
	w := doJSON(t, env.server.Handler(), http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req := env.dashboard.lastReq
	assert.Equal(t, []string{"dp", "graphs"}, req.Tags)
	assert.Equal(t, types.DifficultyHard, req.Difficulty)
	require.NotNil(t, req.MinRating)
	assert.Equal(t, 1200, *req.MinRating)
	assert.Equal(t, 1800, *req.MaxRating)
	assert.Equal(t, 5, req.LimitPerPlatform)
	assert.Equal(t, []types.Platform{types.PlatformCodeforces}, req.Platforms)
	assert.False(t, req.IncludeContests)
}

func TestRecommendationsEndpoint_BadQuery(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.seedUser(t, types.Handles{LeetCode: "x"})

	for _, q := range []string{
		"difficulty=legendary",
		"min_rating=abc",
		"max_rating=-5",
		"min_rating=2000&max_rating=1000",
		"limit=0",
		"limit=500",
		"platforms=atcoder",
		"contests=maybe",
	} {
		w := doJSON(t, env.server.Handler(), http.MethodGet, "/recommendations?"+q, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Contains(t, w.Body.String(), "validation error", q)
	}
}

func TestFeedbackEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.dashboard.fb = &types.DailyFeedback{
		SuggestedPriorities: types.SuggestedPriorities{Today: []string{"solve 3 dp problems"}},
	}
	_, token := env.seedUser(t, types.Handles{LeetCode: "x"})

	w := doJSON(t, env.server.Handler(), http.MethodGet, "/feedback", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "solve 3 dp problems")
}

func TestFeedbackEndpoint_RateLimited(t *testing.T) {
	env := newTestEnv(t, nil)
	env.dashboard.feedbackErr = &feedback.RateLimitedError{Cause: errors.New("429")}
	_, token := env.seedUser(t, types.Handles{LeetCode: "x"})

	w := doJSON(t, env.server.Handler(), http.MethodGet, "/feedback", token, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var failure types.FeedbackFailure
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &failure))
	assert.Equal(t, types.FeedbackRateLimited, failure.Error)
	assert.Equal(t, feedback.RateLimitedMessage, failure.Message)
}

func TestFeedbackEndpoint_GenerationFailed(t *testing.T) {
	env := newTestEnv(t, nil)
	env.dashboard.feedbackErr = &feedback.ValidationError{Fields: []string{"(root): suggested_priorities is required"}}
	_, token := env.seedUser(t, types.Handles{LeetCode: "x"})

	w := doJSON(t, env.server.Handler(), http.MethodGet, "/feedback", token, nil)
	require.Equal(t, http.StatusBadGateway, w.Code)

	var failure types.FeedbackFailure
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &failure))
	assert.Equal(t, types.FeedbackFailed, failure.Error)
	assert.NotContains(t, w.Body.String(), "suggested_priorities")
}

func TestChatEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	id, token := env.seedUser(t, types.Handles{LeetCode: "x"})
	h := env.server.Handler()

	w := doJSON(t, h, http.MethodPost, "/chat", token, map[string]string{"doubt": "what is a segment tree?"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp types.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "answer: what is a segment tree?", resp.Response)
	assert.Len(t, env.sessions.Conversation(id).Turns(), 1)

	w = doJSON(t, h, http.MethodDelete, "/chat", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, env.sessions.Conversation(id).Turns())
}

func TestChatEndpoint_BadRequests(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.seedUser(t, types.Handles{LeetCode: "x"})
	h := env.server.Handler()

	for _, body := range []any{"not json", map[string]string{}, map[string]string{"doubt": "   "}} {
		w := doJSON(t, h, http.MethodPost, "/chat", token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp types.ChatResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Error)
	}
	assert.Empty(t, env.mentor.queries)
}

func TestChatEndpoint_MentorErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.seedUser(t, types.Handles{LeetCode: "x"})
	h := env.server.Handler()

	env.mentor.err = &feedback.RateLimitedError{Cause: errors.New("quota")}
	w := doJSON(t, h, http.MethodPost, "/chat", token, map[string]string{"doubt": "hi"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Slow down")

	env.mentor.err = &feedback.GenerationError{Message: "model call failed", Cause: errors.New("internal")}
	w = doJSON(t, h, http.MethodPost, "/chat", token, map[string]string{"doubt": "hi"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "internal")
}

func TestUpdateHandlesEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	id, token := env.seedUser(t, types.Handles{LeetCode: "old"})
	h := env.server.Handler()

	w := doJSON(t, h, http.MethodPut, "/me/handles", token, map[string]string{"codeforces_username": "new_cf"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user types.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, types.Handles{Codeforces: "new_cf"}, user.Handles)
	assert.Equal(t, []uuid.UUID{id}, env.dashboard.invalidated, "cached data is dropped")

	w = doJSON(t, h, http.MethodPut, "/me/handles", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	env := newTestEnv(t, &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/chat", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
		},
	})
	_, token := env.seedUser(t, types.Handles{LeetCode: "x"})
	h := env.server.Handler()

	w := doJSON(t, h, http.MethodPost, "/chat", token, map[string]string{"doubt": "one"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = doJSON(t, h, http.MethodPost, "/chat", token, map[string]string{"doubt": "two"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	assert.Len(t, env.mentor.queries, 1)

	w = doJSON(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRecoverer(t *testing.T) {
	env := newTestEnv(t, nil)
	env.server.router.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	w := doJSON(t, env.server.Handler(), http.MethodGet, "/panic", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
