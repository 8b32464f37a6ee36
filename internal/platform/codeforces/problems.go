package codeforces

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/taxonomy"
	"github.com/jonathan/algomentor/internal/types"
)

// DefaultProblemLimit caps ListProblems when the query sets no limit.
const DefaultProblemLimit = 50

// maxContests is how many contests ListContests keeps, in upstream order.
const maxContests = 10

// ProblemQuery filters ListProblems. Rating bounds are inclusive; when either
// bound is set, unrated problems are excluded.
type ProblemQuery struct {
	Tags      []string
	MinRating *int
	MaxRating *int
	Limit     int
}

type rawProblem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Points    *float64 `json:"points"`
	Rating    *int     `json:"rating"`
	Tags      []string `json:"tags"`
}

type rawProblemStat struct {
	ContestID   int    `json:"contestId"`
	Index       string `json:"index"`
	SolvedCount int    `json:"solvedCount"`
}

type problemset struct {
	Problems          []rawProblem     `json:"problems"`
	ProblemStatistics []rawProblemStat `json:"problemStatistics"`
}

type rawContest struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Phase            string `json:"phase"`
	DurationSeconds  int64  `json:"durationSeconds"`
	StartTimeSeconds *int64 `json:"startTimeSeconds"`
}

type problemKey struct {
	contestID int
	index     string
}

// ListProblems queries problemset.problems once per tag (or once without a
// tag), merging batches and stopping as soon as the limit is reached. A
// failing batch is skipped; the result is unavailable only if every batch
// failed.
func (c *Client) ListProblems(ctx context.Context, q ProblemQuery) fetch.Outcome[[]types.Problem] {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultProblemLimit
	}
	batches := q.Tags
	if len(batches) == 0 {
		batches = []string{""}
	}

	out := make([]types.Problem, 0, limit)
	seen := make(map[problemKey]bool)
	var lastErr error
	answered := false

	for _, tag := range batches {
		query := url.Values{}
		if tag != "" {
			query.Set("tags", tag)
		}
		set, err := call[problemset](ctx, c, "problemset.problems", query)
		if err != nil {
			c.warn(err, "problemset.problems")
			lastErr = err
			continue
		}
		answered = true

		var done bool
		out, done = mergeProblems(out, seen, set, q, c.tax, limit)
		if done {
			break
		}
	}

	if !answered {
		return fetch.Unavailable[[]types.Problem](lastErr)
	}
	return fetch.OK(out)
}

// mergeProblems appends the problems of one batch that pass the rating
// filter and are not yet seen. It reports true once limit is reached.
func mergeProblems(out []types.Problem, seen map[problemKey]bool, set problemset, q ProblemQuery, tax *taxonomy.Taxonomy, limit int) ([]types.Problem, bool) {
	solved := make(map[problemKey]int, len(set.ProblemStatistics))
	for _, s := range set.ProblemStatistics {
		solved[problemKey{s.ContestID, s.Index}] = s.SolvedCount
	}

	for _, p := range set.Problems {
		key := problemKey{p.ContestID, p.Index}
		if seen[key] {
			continue
		}
		if !inRatingRange(p.Rating, q.MinRating, q.MaxRating) {
			continue
		}

		out = append(out, toProblem(p, solved[key], tax))
		seen[key] = true

		if len(out) >= limit {
			return out, true
		}
	}
	return out, false
}

// inRatingRange applies inclusive bounds. A problem without a rating never
// satisfies a bound.
func inRatingRange(rating, minRating, maxRating *int) bool {
	if minRating != nil && (rating == nil || *rating < *minRating) {
		return false
	}
	if maxRating != nil && (rating == nil || *rating > *maxRating) {
		return false
	}
	return true
}

func toProblem(p rawProblem, solvedCount int, tax *taxonomy.Taxonomy) types.Problem {
	typ := p.Type
	if typ == "" {
		typ = "PROGRAMMING"
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return types.Problem{
		Platform:    types.PlatformCodeforces,
		Title:       p.Name,
		ContestID:   p.ContestID,
		Index:       p.Index,
		Difficulty:  tax.DifficultyForRating(p.Rating),
		Rating:      p.Rating,
		Tags:        tags,
		Link:        fmt.Sprintf(problemLinkFmt, p.ContestID, p.Index),
		Type:        typ,
		Points:      p.Points,
		SolvedCount: solvedCount,
	}
}

// ListContests returns up to ten upcoming (phase BEFORE) or finished contests
// in the order the API lists them.
func (c *Client) ListContests(ctx context.Context, upcoming bool) fetch.Outcome[[]types.Contest] {
	raw, err := call[[]rawContest](ctx, c, "contest.list", nil)
	if err != nil {
		c.warn(err, "contest.list")
		return fetch.Unavailable[[]types.Contest](err)
	}
	return fetch.OK(filterContests(raw, upcoming))
}

func filterContests(raw []rawContest, upcoming bool) []types.Contest {
	phase := "FINISHED"
	if upcoming {
		phase = "BEFORE"
	}

	out := make([]types.Contest, 0, maxContests)
	for _, rc := range raw {
		if rc.Phase != phase {
			continue
		}
		out = append(out, toContest(rc))
		if len(out) == maxContests {
			break
		}
	}
	return out
}

func toContest(rc rawContest) types.Contest {
	typ := rc.Type
	if typ == "" {
		typ = "CF"
	}
	contest := types.Contest{
		Platform:      types.PlatformCodeforces,
		Title:         rc.Name,
		ContestID:     rc.ID,
		Type:          typ,
		Link:          fmt.Sprintf(contestLinkFmt, rc.ID),
		DurationHours: float64(rc.DurationSeconds) / 3600,
	}
	if rc.StartTimeSeconds != nil {
		start := *rc.StartTimeSeconds
		contest.Start = types.FormatUnix(start)
		contest.End = types.FormatUnix(start + rc.DurationSeconds)
	}
	return contest
}
