// Package recommend turns weak areas into a merged, ranked list of practice
// problems and upcoming contests across platforms.
package recommend

import (
	"context"
	"sort"

	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/platform/codeforces"
	"github.com/jonathan/algomentor/internal/platform/leetcode"
	"github.com/jonathan/algomentor/internal/taxonomy"
	"github.com/jonathan/algomentor/internal/types"
)

// DefaultLimitPerPlatform caps the problems requested from each platform.
const DefaultLimitPerPlatform = 20

// minWeakTags is the smallest number of weak tags selected.
const minWeakTags = 3

// LeetCodeSource is the LeetCode surface the engine queries.
type LeetCodeSource interface {
	ListProblems(ctx context.Context, q leetcode.ProblemQuery) fetch.Outcome[[]types.Problem]
	DailyChallenge(ctx context.Context) fetch.Outcome[types.Problem]
	ListContests(ctx context.Context) fetch.Outcome[[]types.Contest]
}

// CodeforcesSource is the Codeforces surface the engine queries.
type CodeforcesSource interface {
	ListProblems(ctx context.Context, q codeforces.ProblemQuery) fetch.Outcome[[]types.Problem]
	ListContests(ctx context.Context, upcoming bool) fetch.Outcome[[]types.Contest]
}

// CodeChefSource is the CodeChef surface the engine queries.
type CodeChefSource interface {
	ListContests(ctx context.Context) fetch.Outcome[[]types.Contest]
}

// Request describes one recommendation query. Tags are canonical.
type Request struct {
	Tags             []string
	Difficulty       types.Difficulty
	MinRating        *int
	MaxRating        *int
	LimitPerPlatform int
	IncludeContests  bool
	Platforms        []types.Platform
}

// WeakTags returns the weakest third of the distribution (at least three
// tags), weakest first, with ties in canonical order. An empty distribution
// yields the configured defaults.
func WeakTags(dist types.TagDistribution, tax *taxonomy.Taxonomy) []string {
	if len(dist) == 0 {
		return tax.DefaultWeakTags()
	}
	sorted := dist.Ascending(tax.CanonicalOrder())
	n := len(sorted) / 3
	if n < minWeakTags {
		n = minWeakTags
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]string, 0, n)
	for _, tc := range sorted[:n] {
		out = append(out, tc.Tag)
	}
	return out
}

// Engine queries the platform clients and merges their results.
type Engine struct {
	leetcode   LeetCodeSource
	codeforces CodeforcesSource
	codechef   CodeChefSource
	tax        *taxonomy.Taxonomy
}

// NewEngine creates an Engine. A nil taxonomy uses taxonomy.Default().
func NewEngine(lc LeetCodeSource, cf CodeforcesSource, cc CodeChefSource, tax *taxonomy.Taxonomy) *Engine {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Engine{leetcode: lc, codeforces: cf, codechef: cc, tax: tax}
}

// Recommend queries every requested platform in turn and merges the results.
// Unavailable platforms contribute nothing. Problems are de-duplicated by
// (platform, id) and sorted by RankKey; contests are sorted by start time.
func (e *Engine) Recommend(ctx context.Context, req Request) types.RecommendationResult {
	limit := req.LimitPerPlatform
	if limit <= 0 {
		limit = DefaultLimitPerPlatform
	}
	platforms := req.Platforms
	if len(platforms) == 0 {
		platforms = types.AllPlatforms
	}

	var problems []types.Problem
	var contests []types.Contest

	if wants(platforms, types.PlatformLeetCode) {
		lcQuery := leetcode.ProblemQuery{
			Tags:       e.translate(req.Tags, e.tax.ToLeetCode),
			Difficulty: string(req.Difficulty),
			Limit:      limit,
		}
		problems = append(problems, e.leetcode.ListProblems(ctx, lcQuery).OrZero()...)

		// The daily challenge goes first so it wins de-duplication.
		if daily := e.leetcode.DailyChallenge(ctx); daily.Available() {
			problems = append([]types.Problem{daily.Value}, problems...)
		}
		if req.IncludeContests {
			contests = append(contests, e.leetcode.ListContests(ctx).OrZero()...)
		}
	}

	if wants(platforms, types.PlatformCodeforces) {
		cfQuery := codeforces.ProblemQuery{
			MinRating: req.MinRating,
			MaxRating: req.MaxRating,
			Limit:     limit,
		}
		// Only the first tag is sent so the per-tag batching stays a single call.
		if tags := e.translate(req.Tags, e.tax.ToCodeforces); len(tags) > 0 {
			cfQuery.Tags = tags[:1]
		}
		if req.Difficulty != "" && req.MinRating == nil && req.MaxRating == nil {
			if band, ok := e.tax.RatingBand(req.Difficulty); ok {
				lo, hi := band.Min, band.Max
				cfQuery.MinRating, cfQuery.MaxRating = &lo, &hi
			}
		}
		problems = append(problems, e.codeforces.ListProblems(ctx, cfQuery).OrZero()...)
		if req.IncludeContests {
			contests = append(contests, e.codeforces.ListContests(ctx, true).OrZero()...)
		}
	}

	if wants(platforms, types.PlatformCodeChef) && req.IncludeContests {
		contests = append(contests, e.codechef.ListContests(ctx).OrZero()...)
	}

	problems = Dedupe(problems)
	RankProblems(problems, e.tax)
	SortContests(contests)
	if contests == nil {
		contests = []types.Contest{}
	}

	return types.RecommendationResult{
		Problems:      problems,
		Contests:      contests,
		TotalProblems: len(problems),
		TotalContests: len(contests),
	}
}

func (e *Engine) translate(tags []string, fn func(string) string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, fn(t))
	}
	return out
}

// RankKey is the single sort key used to order merged problems: a rated
// Codeforces problem ranks by rating, a LeetCode problem by its tier times
// 1000, anything else last.
func RankKey(p types.Problem, tax *taxonomy.Taxonomy) int {
	switch {
	case p.Platform == types.PlatformCodeforces && p.Rating != nil && *p.Rating > 0:
		return *p.Rating
	case p.Platform == types.PlatformLeetCode:
		return tax.LeetCodeTierRank(p.Difficulty) * 1000
	default:
		return tax.FallbackRank()
	}
}

// RankProblems sorts problems ascending by RankKey, keeping input order on ties.
func RankProblems(problems []types.Problem, tax *taxonomy.Taxonomy) {
	sort.SliceStable(problems, func(i, j int) bool {
		return RankKey(problems[i], tax) < RankKey(problems[j], tax)
	})
}

// SortContests sorts contests ascending by start string; empty starts come first.
func SortContests(contests []types.Contest) {
	sort.SliceStable(contests, func(i, j int) bool {
		return contests[i].Start < contests[j].Start
	})
}

// Dedupe keeps the first problem for each (platform, id) pair.
func Dedupe(problems []types.Problem) []types.Problem {
	seen := make(map[string]bool, len(problems))
	out := make([]types.Problem, 0, len(problems))
	for _, p := range problems {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func wants(platforms []types.Platform, p types.Platform) bool {
	for _, x := range platforms {
		if x == p {
			return true
		}
	}
	return false
}
