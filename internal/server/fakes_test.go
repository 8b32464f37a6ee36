package server

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/algomentor/internal/config"
	"github.com/jonathan/algomentor/internal/dashboard"
	"github.com/jonathan/algomentor/internal/db"
	"github.com/jonathan/algomentor/internal/feedback"
	"github.com/jonathan/algomentor/internal/recommend"
	"github.com/jonathan/algomentor/internal/server/ratelimit"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/stretchr/testify/require"
)

// fakeProfileStore is an in-memory ProfileStore.
type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*db.Profile
	err      error
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[uuid.UUID]*db.Profile)}
}

func (f *fakeProfileStore) CheckEmailExists(_ context.Context, email string) (bool, error) {
	p, err := f.GetProfileByEmail(context.Background(), email)
	return p != nil, err
}

func (f *fakeProfileStore) CreateProfile(_ context.Context, in db.NewProfile) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return uuid.Nil, f.err
	}
	for _, p := range f.profiles {
		if strings.EqualFold(p.Email, in.Email) {
			return uuid.Nil, db.ErrEmailTaken
		}
	}
	now := time.Now().UTC()
	p := &db.Profile{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		PasswordHash: in.PasswordHash,
		Handles:      in.Handles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.profiles[p.ID] = p
	return p.ID, nil
}

func (f *fakeProfileStore) GetProfile(_ context.Context, id uuid.UUID) (*db.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) GetProfileByEmail(_ context.Context, email string) (*db.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeProfileStore) UpdateHandles(_ context.Context, id uuid.UUID, h types.Handles) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Handles = h
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// stubDashboard records calls and returns canned data.
type stubDashboard struct {
	mu          sync.Mutex
	profiles    types.PlatformProfiles
	dist        types.TagDistribution
	page        types.RecommendationPage
	fb          *types.DailyFeedback
	err         error
	feedbackErr error
	lastReq     recommend.Request
	lastUser    dashboard.User
	invalidated []uuid.UUID
}

func (s *stubDashboard) record(u dashboard.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUser = u
	if !u.Handles.Any() {
		return dashboard.ErrNoPlatforms
	}
	return s.err
}

func (s *stubDashboard) Profiles(_ context.Context, u dashboard.User) (types.PlatformProfiles, error) {
	if err := s.record(u); err != nil {
		return types.PlatformProfiles{}, err
	}
	return s.profiles, nil
}

func (s *stubDashboard) Tags(_ context.Context, u dashboard.User) (types.TagDistribution, error) {
	if err := s.record(u); err != nil {
		return nil, err
	}
	return s.dist, nil
}

func (s *stubDashboard) RecommendationsFor(_ context.Context, u dashboard.User, req recommend.Request) (types.RecommendationPage, error) {
	if err := s.record(u); err != nil {
		return types.RecommendationPage{}, err
	}
	s.mu.Lock()
	s.lastReq = req
	s.mu.Unlock()
	return s.page, nil
}

func (s *stubDashboard) DailyFeedback(_ context.Context, u dashboard.User) (*types.DailyFeedback, error) {
	if err := s.record(u); err != nil {
		return nil, err
	}
	if s.feedbackErr != nil {
		return nil, s.feedbackErr
	}
	return s.fb, nil
}

func (s *stubDashboard) Invalidate(_ context.Context, u dashboard.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, u.ID)
}

// stubMentor answers by echoing, or fails with err.
type stubMentor struct {
	err     error
	queries []string
}

func (m *stubMentor) Ask(_ context.Context, conv *feedback.Conversation, query string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.queries = append(m.queries, query)
	answer := "answer: " + query
	conv.Add(types.ChatTurn{Query: query, Response: answer})
	return answer, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	server    *Server
	store     *fakeProfileStore
	dashboard *stubDashboard
	mentor    *stubMentor
	jwt       *JWTService
	sessions  *Sessions
}

func testPasswordConfig() *config.PasswordConfig {
	return &config.PasswordConfig{BcryptCost: 10}
}

func newTestEnv(t *testing.T, limits *ratelimit.Config) *testEnv {
	t.Helper()
	if limits == nil {
		limits = &ratelimit.Config{Enabled: false}
	}
	env := &testEnv{
		store:     newFakeProfileStore(),
		dashboard: &stubDashboard{},
		mentor:    &stubMentor{},
		jwt:       NewJWTService(&config.JWTConfig{Secret: testSecret, ExpirationHours: 24}),
		sessions:  NewSessions(2, time.Hour),
	}
	limiter := ratelimit.NewLimiter(limits)
	t.Cleanup(limiter.Stop)

	env.server = New(Config{Addr: ":0"}, Deps{
		Users:     NewUserService(env.store, testPasswordConfig()),
		JWT:       env.jwt,
		Dashboard: env.dashboard,
		Mentor:    env.mentor,
		Sessions:  env.sessions,
		Limiter:   limiter,
	})
	return env
}

// seedUser stores a profile directly and returns it with a bearer token.
func (e *testEnv) seedUser(t *testing.T, handles types.Handles) (uuid.UUID, string) {
	t.Helper()
	hash, err := testPasswordConfig().HashPassword("password123")
	require.NoError(t, err)
	id, err := e.store.CreateProfile(context.Background(), db.NewProfile{
		Username:     "alice",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: hash,
		Handles:      handles,
	})
	require.NoError(t, err)
	token, err := e.jwt.Issue(id)
	require.NoError(t, err)
	return id, token
}
