package codeforces

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/types"
)

// DefaultFailureLimit is how many failed problems RecentFailures keeps.
const DefaultFailureLimit = 3

const verdictOK = "OK"

// User is the subset of user.info the dashboard shows.
type User struct {
	Handle        string `json:"handle"`
	Rating        *int   `json:"rating"`
	MaxRating     *int   `json:"maxRating"`
	Rank          string `json:"rank"`
	MaxRank       string `json:"maxRank"`
	FriendOfCount int    `json:"friendOfCount"`
}

// ProblemRef identifies the problem a submission targets. ContestID is nil
// for problems outside regular contests.
type ProblemRef struct {
	ContestID *int     `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    *int     `json:"rating"`
	Tags      []string `json:"tags"`
}

// ID returns contestId+index, or "" when either part is missing.
func (p ProblemRef) ID() string {
	if p.ContestID == nil || p.Index == "" {
		return ""
	}
	return fmt.Sprintf("%d%s", *p.ContestID, p.Index)
}

// Submission is one entry of user.status. Verdict is empty while judging.
type Submission struct {
	ID                  int64      `json:"id"`
	CreationTimeSeconds int64      `json:"creationTimeSeconds"`
	Problem             ProblemRef `json:"problem"`
	ProgrammingLanguage string     `json:"programmingLanguage"`
	Verdict             string     `json:"verdict"`
}

// BlogEntry is one entry of user.blogEntries.
type BlogEntry struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Rating int    `json:"rating"`
}

// SolvedTags is the native tag tally over uniquely solved problems.
type SolvedTags struct {
	Counts map[string]int
	Solved int
}

type rawRatingChange struct {
	RatingUpdateTimeSeconds int64 `json:"ratingUpdateTimeSeconds"`
	NewRating               int   `json:"newRating"`
}

// UserInfo fetches the account summary for handle.
func (c *Client) UserInfo(ctx context.Context, handle string) fetch.Outcome[User] {
	users, err := call[[]User](ctx, c, "user.info", handleQuery("handles", handle))
	if err == nil && len(users) == 0 {
		err = fetch.Malformed("user.info", "empty result")
	}
	if err != nil {
		c.warn(err, "user.info")
		return fetch.Unavailable[User](err)
	}
	return fetch.OK(users[0])
}

// Submissions fetches the full submission history of handle.
func (c *Client) Submissions(ctx context.Context, handle string) fetch.Outcome[[]Submission] {
	subs, err := call[[]Submission](ctx, c, "user.status", handleQuery("handle", handle))
	if err != nil {
		c.warn(err, "user.status")
		return fetch.Unavailable[[]Submission](err)
	}
	return fetch.OK(subs)
}

// RatingHistory fetches every rated contest result in chronological order.
func (c *Client) RatingHistory(ctx context.Context, handle string) fetch.Outcome[[]types.RatingPoint] {
	changes, err := call[[]rawRatingChange](ctx, c, "user.rating", handleQuery("handle", handle))
	if err != nil {
		c.warn(err, "user.rating")
		return fetch.Unavailable[[]types.RatingPoint](err)
	}
	points := make([]types.RatingPoint, 0, len(changes))
	for _, ch := range changes {
		points = append(points, types.RatingPoint{Time: ch.RatingUpdateTimeSeconds, Rating: ch.NewRating})
	}
	return fetch.OK(points)
}

// Blogs fetches the blog entries written by handle. Titles are returned as plain text.
func (c *Client) Blogs(ctx context.Context, handle string) fetch.Outcome[[]BlogEntry] {
	entries, err := call[[]BlogEntry](ctx, c, "user.blogEntries", handleQuery("handle", handle))
	if err != nil {
		c.warn(err, "user.blogEntries")
		return fetch.Unavailable[[]BlogEntry](err)
	}
	for i := range entries {
		if text, err := fetch.HTMLText(entries[i].Title); err == nil && text != "" {
			entries[i].Title = text
		}
	}
	return fetch.OK(entries)
}

// RecentFailures summarizes the problems handle failed most recently.
func (c *Client) RecentFailures(ctx context.Context, handle string, limit int) fetch.Outcome[[]types.FailedSubmission] {
	subs := c.Submissions(ctx, handle)
	if !subs.Available() {
		return fetch.Unavailable[[]types.FailedSubmission](subs.Err)
	}
	return fetch.OK(SummarizeFailures(subs.Value, limit))
}

// TagCounts tallies native tags over the problems handle has solved.
func (c *Client) TagCounts(ctx context.Context, handle string) fetch.Outcome[SolvedTags] {
	subs := c.Submissions(ctx, handle)
	if !subs.Available() {
		return fetch.Unavailable[SolvedTags](subs.Err)
	}
	return fetch.OK(CountSolvedTags(subs.Value))
}

// SummarizeFailures groups every non-accepted verdict by problem. Submissions
// still being judged and submissions without a contest id or index are
// skipped. The result is ordered by most recent failure and cut to limit; a
// non-positive limit uses DefaultFailureLimit.
func SummarizeFailures(subs []Submission, limit int) []types.FailedSubmission {
	if limit <= 0 {
		limit = DefaultFailureLimit
	}

	byID := make(map[string]*types.FailedSubmission)
	langs := make(map[string]map[string]bool)
	var order []string

	for _, s := range subs {
		if s.Verdict == "" || s.Verdict == verdictOK {
			continue
		}
		id := s.Problem.ID()
		if id == "" {
			continue
		}

		summary, ok := byID[id]
		if !ok {
			tags := s.Problem.Tags
			if tags == nil {
				tags = []string{}
			}
			summary = &types.FailedSubmission{
				ProblemID: id,
				Name:      s.Problem.Name,
				Rating:    s.Problem.Rating,
				Tags:      tags,
				Verdicts:  make(map[string]int),
			}
			byID[id] = summary
			langs[id] = make(map[string]bool)
			order = append(order, id)
		}

		summary.FailedAttempts++
		summary.Verdicts[s.Verdict]++
		if s.CreationTimeSeconds > summary.LastFailedAt {
			summary.LastFailedAt = s.CreationTimeSeconds
		}
		if s.ProgrammingLanguage != "" {
			langs[id][s.ProgrammingLanguage] = true
		}
	}

	out := make([]types.FailedSubmission, 0, len(order))
	for _, id := range order {
		summary := byID[id]
		summary.LanguagesUsed = sortedKeys(langs[id])
		out = append(out, *summary)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastFailedAt > out[j].LastFailedAt
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CountSolvedTags de-duplicates accepted submissions by problem (first seen
// wins) and tallies every tag of every solved problem.
func CountSolvedTags(subs []Submission) SolvedTags {
	solved := make(map[string]bool)
	counts := make(map[string]int)

	for _, s := range subs {
		if s.Verdict != verdictOK {
			continue
		}
		id := s.Problem.ID()
		if id == "" {
			id = "name:" + s.Problem.Name
		}
		if solved[id] {
			continue
		}
		solved[id] = true
		for _, tag := range s.Problem.Tags {
			counts[tag]++
		}
	}
	return SolvedTags{Counts: counts, Solved: len(solved)}
}

// MostUsedLanguage returns the language with the most submissions. Ties
// resolve alphabetically; no submissions yields "".
func MostUsedLanguage(subs []Submission) string {
	counts := make(map[string]int)
	for _, s := range subs {
		if s.ProgrammingLanguage != "" {
			counts[s.ProgrammingLanguage]++
		}
	}
	lang, _ := types.TagDistribution(counts).Top()
	return lang
}

// ProfileStats assembles the dashboard view for handle. user.info is
// required; the other sections degrade to empty when their call fails.
// user.status is fetched once and shared by the tag and language sections.
func (c *Client) ProfileStats(ctx context.Context, handle string) fetch.Outcome[types.CodeforcesStats] {
	info := c.UserInfo(ctx, handle)
	if !info.Available() {
		return fetch.Unavailable[types.CodeforcesStats](info.Err)
	}

	subs := c.Submissions(ctx, handle)
	blogs := c.Blogs(ctx, handle)
	history := c.RatingHistory(ctx, handle)

	return fetch.OK(BuildStats(handle, info.Value, subs.OrZero(), blogs.OrZero(), history.OrZero()))
}

// BuildStats combines the raw sections of a profile.
func BuildStats(handle string, u User, subs []Submission, blogs []BlogEntry, history []types.RatingPoint) types.CodeforcesStats {
	tags := CountSolvedTags(subs)
	mostUsedTag, _ := types.TagDistribution(tags.Counts).Top()

	if history == nil {
		history = []types.RatingPoint{}
	}
	stats := types.CodeforcesStats{
		Handle:           handle,
		MostUsedTag:      mostUsedTag,
		MostUsedLanguage: MostUsedLanguage(subs),
		Rating:           u.Rating,
		MaxRating:        u.MaxRating,
		Rank:             orDefault(u.Rank, "Unranked"),
		MaxRank:          orDefault(u.MaxRank, "Unranked"),
		FriendOfCount:    u.FriendOfCount,
		TotalSolved:      tags.Solved,
		BlogCount:        len(blogs),
		RatingHistory:    history,
	}
	for i, b := range blogs {
		if i == 0 || b.Rating > stats.BestRatedBlogRating {
			stats.BestRatedBlog = b.Title
			stats.BestRatedBlogRating = b.Rating
		}
	}
	return stats
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
