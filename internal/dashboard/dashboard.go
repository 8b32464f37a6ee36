// Package dashboard assembles per-user views from the platform clients:
// profiles, unified tags, recommendations and the daily coaching report.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/algomentor/internal/cache"
	"github.com/jonathan/algomentor/internal/db"
	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/recommend"
	"github.com/jonathan/algomentor/internal/taxonomy"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/jonathan/algomentor/internal/unify"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// RecommendationLimit is the per-platform problem count on the dashboard.
const RecommendationLimit = 15

// ErrNoPlatforms is returned for users with no platform handle.
var ErrNoPlatforms = errors.New("no platform connected")

// User identifies whose data to build.
type User struct {
	ID      uuid.UUID
	Handles types.Handles
}

// LeetCodeSource is the LeetCode client surface the dashboard uses.
type LeetCodeSource interface {
	ProfileStats(ctx context.Context, username string) fetch.Outcome[types.LeetCodeStats]
	RecentFailures(ctx context.Context, username string, limit int) fetch.Outcome[[]types.FailedSubmission]
}

// CodeforcesSource is the Codeforces client surface the dashboard uses.
type CodeforcesSource interface {
	ProfileStats(ctx context.Context, handle string) fetch.Outcome[types.CodeforcesStats]
	RecentFailures(ctx context.Context, handle string, limit int) fetch.Outcome[[]types.FailedSubmission]
}

// CodeChefSource is the CodeChef client surface the dashboard uses.
type CodeChefSource interface {
	ProfileStats(ctx context.Context, username string) fetch.Outcome[types.CodeChefStats]
}

// Unifier builds unified tag distributions.
type Unifier interface {
	Unify(ctx context.Context, h types.Handles) (types.TagDistribution, unify.Coverage)
}

// Recommender produces problem and contest recommendations.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) types.RecommendationResult
}

// FeedbackGenerator writes daily reports.
type FeedbackGenerator interface {
	Generate(ctx context.Context, fc types.FeedbackContext) (*types.DailyFeedback, error)
}

// FeedbackStore persists one report per user.
type FeedbackStore interface {
	GetDailyFeedback(ctx context.Context, id uuid.UUID) (*db.StoredFeedback, error)
	SaveDailyFeedback(ctx context.Context, id uuid.UUID, fb *types.DailyFeedback, at time.Time) error
}

// Deps are the collaborators of a Service. Feedback and Store may be nil:
// without a generator DailyFeedback fails, without a store every call
// generates.
type Deps struct {
	LeetCode    LeetCodeSource
	Codeforces  CodeforcesSource
	CodeChef    CodeChefSource
	Unifier     Unifier
	Recommender Recommender
	Feedback    FeedbackGenerator
	Store       FeedbackStore
	Cache       *cache.Loader
	Taxonomy    *taxonomy.Taxonomy
}

// Service builds dashboard data.
type Service struct {
	deps Deps
	now  func() time.Time
}

// New creates a Service. A nil cache uses an in-memory store with
// cache.DefaultTTL, and a nil taxonomy uses taxonomy.Default().
func New(d Deps) *Service {
	if d.Cache == nil {
		d.Cache = cache.NewLoader(cache.NewMemoryStore(), cache.DefaultTTL)
	}
	if d.Taxonomy == nil {
		d.Taxonomy = taxonomy.Default()
	}
	return &Service{deps: d, now: time.Now}
}

// Profiles returns the per-platform stats for u. Results in which a
// connected platform was unavailable are returned but not cached.
func (s *Service) Profiles(ctx context.Context, u User) (types.PlatformProfiles, error) {
	if !u.Handles.Any() {
		return types.PlatformProfiles{}, ErrNoPlatforms
	}
	key := cache.UserKey(u.ID.String(), cache.DatasetProfile)
	return cache.LoadCacheable(ctx, s.deps.Cache, key, func(ctx context.Context) (types.PlatformProfiles, bool, error) {
		p, err := s.buildProfiles(ctx, u.Handles)
		return p, err == nil && !degraded(p), err
	})
}

func (s *Service) buildProfiles(ctx context.Context, h types.Handles) (types.PlatformProfiles, error) {
	var out types.PlatformProfiles
	out.LeetCode.Connected = h.LeetCode != ""
	out.Codeforces.Connected = h.Codeforces != ""
	out.CodeChef.Connected = h.CodeChef != ""

	g, gctx := errgroup.WithContext(ctx)
	if out.LeetCode.Connected && s.deps.LeetCode != nil {
		g.Go(func() error {
			fill(&out.LeetCode, s.deps.LeetCode.ProfileStats(gctx, h.LeetCode))
			return nil
		})
	}
	if out.Codeforces.Connected && s.deps.Codeforces != nil {
		g.Go(func() error {
			fill(&out.Codeforces, s.deps.Codeforces.ProfileStats(gctx, h.Codeforces))
			return nil
		})
	}
	if out.CodeChef.Connected && s.deps.CodeChef != nil {
		g.Go(func() error {
			fill(&out.CodeChef, s.deps.CodeChef.ProfileStats(gctx, h.CodeChef))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, ctx.Err()
}

func fill[T any](p *types.PlatformProfile[T], o fetch.Outcome[T]) {
	if !o.Available() {
		return
	}
	v := o.Value
	p.Available = true
	p.Data = &v
}

func degraded(p types.PlatformProfiles) bool {
	return (p.LeetCode.Connected && !p.LeetCode.Available) ||
		(p.Codeforces.Connected && !p.Codeforces.Available) ||
		(p.CodeChef.Connected && !p.CodeChef.Available)
}

// Tags returns the unified tag distribution for u. Results built while a
// platform was unavailable are not cached.
func (s *Service) Tags(ctx context.Context, u User) (types.TagDistribution, error) {
	if !u.Handles.Any() {
		return nil, ErrNoPlatforms
	}
	key := cache.UserKey(u.ID.String(), cache.DatasetTags)
	return cache.LoadCacheable(ctx, s.deps.Cache, key, func(ctx context.Context) (types.TagDistribution, bool, error) {
		dist, coverage := s.deps.Unifier.Unify(ctx, u.Handles)
		return dist, !coverage.Degraded(), ctx.Err()
	})
}

// Recommendations builds the recommendations page for u: weak tags from the
// unified distribution, then problems and contests from every platform.
func (s *Service) Recommendations(ctx context.Context, u User) (types.RecommendationPage, error) {
	return s.RecommendationsFor(ctx, u, recommend.Request{
		LimitPerPlatform: RecommendationLimit,
		IncludeContests:  true,
		Platforms:        types.AllPlatforms,
	})
}

// RecommendationsFor is Recommendations with caller overrides. An empty
// req.Tags is filled with the user's weak tags.
func (s *Service) RecommendationsFor(ctx context.Context, u User, req recommend.Request) (types.RecommendationPage, error) {
	dist, err := s.Tags(ctx, u)
	if err != nil {
		return types.RecommendationPage{}, err
	}
	weak := recommend.WeakTags(dist, s.deps.Taxonomy)
	if len(req.Tags) == 0 {
		req.Tags = weak
	}
	return types.RecommendationPage{
		Recommendations: s.deps.Recommender.Recommend(ctx, req),
		WeakAreas:       weak,
		TagDistribution: dist,
	}, nil
}

// FeedbackContext gathers what the coach sees for u.
func (s *Service) FeedbackContext(ctx context.Context, u User) (types.FeedbackContext, error) {
	dist, err := s.Tags(ctx, u)
	if err != nil {
		return types.FeedbackContext{}, err
	}
	profiles, err := s.Profiles(ctx, u)
	if err != nil {
		return types.FeedbackContext{}, err
	}

	fc := types.FeedbackContext{TagDistribution: dist, Profiles: profiles}
	if u.Handles.LeetCode != "" && s.deps.LeetCode != nil {
		fc.FailedLeetCode = s.deps.LeetCode.RecentFailures(ctx, u.Handles.LeetCode, 0).OrZero()
	}
	if u.Handles.Codeforces != "" && s.deps.Codeforces != nil {
		fc.FailedCodeforces = s.deps.Codeforces.RecentFailures(ctx, u.Handles.Codeforces, 0).OrZero()
	}
	return fc, nil
}

// DailyFeedback returns today's report for u, generating and storing one if
// none exists for the current UTC date. Generation errors are returned
// unchanged so callers can tell rate limits apart.
func (s *Service) DailyFeedback(ctx context.Context, u User) (*types.DailyFeedback, error) {
	if s.deps.Feedback == nil {
		return nil, errors.New("feedback generation is not configured")
	}
	now := s.now().UTC()
	logger := log.With().Str("user_id", u.ID.String()).Logger()

	if s.deps.Store != nil {
		stored, err := s.deps.Store.GetDailyFeedback(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load stored feedback: %w", err)
		}
		if stored.SameUTCDay(now) {
			return stored.Feedback, nil
		}
	}

	fc, err := s.FeedbackContext(ctx, u)
	if err != nil {
		return nil, err
	}
	fb, err := s.deps.Feedback.Generate(ctx, fc)
	if err != nil {
		logger.Warn().Err(err).Msg("daily feedback generation failed")
		return nil, err
	}

	if s.deps.Store != nil {
		if err := s.deps.Store.SaveDailyFeedback(ctx, u.ID, fb, now); err != nil {
			return nil, fmt.Errorf("failed to store feedback: %w", err)
		}
	}
	logger.Info().Msg("generated daily feedback")
	return fb, nil
}

// Invalidate drops the cached profile and tag data for u.
func (s *Service) Invalidate(ctx context.Context, u User) {
	for _, dataset := range []string{cache.DatasetProfile, cache.DatasetTags} {
		if err := s.deps.Cache.Invalidate(ctx, cache.UserKey(u.ID.String(), dataset)); err != nil {
			log.Debug().Err(err).Str("dataset", dataset).Msg("cache invalidate failed")
		}
	}
}
