package leetcode

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/taxonomy"
	"github.com/jonathan/algomentor/internal/types"
)

// DefaultFailureLimit is how many failed problems RecentFailures keeps.
const DefaultFailureLimit = 3

const statusAccepted = "Accepted"

// skillTiers are the sections of the skill stats payload, all summed.
var skillTiers = []string{"fundamental", "intermediate", "advanced"}

// Submission is one entry of the submission streams.
type Submission struct {
	Title         string        `json:"title"`
	TitleSlug     string        `json:"titleSlug"`
	StatusDisplay string        `json:"statusDisplay"`
	Timestamp     fetch.FlexInt `json:"timestamp"`
	Lang          string        `json:"lang"`
}

// Profile is the community profile summary.
type Profile struct {
	TotalSolved       int `json:"totalSolved"`
	TotalQuestions    int `json:"totalQuestions"`
	EasySolved        int `json:"easySolved"`
	MediumSolved      int `json:"mediumSolved"`
	HardSolved        int `json:"hardSolved"`
	Ranking           int `json:"ranking"`
	Reputation        int `json:"reputation"`
	ContributionPoint int `json:"contributionPoint"`
}

type skillEntry struct {
	TagName        string `json:"tagName"`
	TagSlug        string `json:"tagSlug"`
	ProblemsSolved int    `json:"problemsSolved"`
}

type skillStatsResponse struct {
	Data map[string][]skillEntry `json:"data"`
}

type submissionsResponse struct {
	Data []Submission `json:"data"`
}

// SkillStats returns native tag slug to solved count, summed over the three
// difficulty tiers. Tags with no solves are left out.
func (c *Client) SkillStats(ctx context.Context, username string) fetch.Outcome[map[string]int] {
	var resp skillStatsResponse
	if err := c.getJSON(ctx, "skillStats", c.endpoints.API, nil, &resp, "leetcode", "skillStats", username); err != nil {
		return fetch.Unavailable[map[string]int](err)
	}

	counts := make(map[string]int)
	for _, tier := range skillTiers {
		for _, e := range resp.Data[tier] {
			if e.ProblemsSolved <= 0 {
				continue
			}
			counts[strings.ToLower(e.TagSlug)] += e.ProblemsSolved
		}
	}
	return fetch.OK(counts)
}

// TagDistribution returns the user's solve counts over canonical tags.
func (c *Client) TagDistribution(ctx context.Context, username string) fetch.Outcome[types.TagDistribution] {
	native := c.SkillStats(ctx, username)
	if !native.Available() {
		return fetch.Unavailable[types.TagDistribution](native.Err)
	}
	return fetch.OK(Canonicalize(native.Value, c.tax))
}

// Canonicalize translates native slugs onto canonical tags. Unmapped slugs
// pass through and are kept only if they already name a canonical tag;
// synonyms accumulate into the same bucket.
func Canonicalize(native map[string]int, tax *taxonomy.Taxonomy) types.TagDistribution {
	out := make(types.TagDistribution)
	for slug, n := range native {
		if n <= 0 {
			continue
		}
		if tag, ok := tax.FromLeetCode(slug); ok {
			out[tag] += n
		}
	}
	return out
}

// Submissions returns the recent submission stream, or only accepted ones.
func (c *Client) Submissions(ctx context.Context, username string, acceptedOnly bool) fetch.Outcome[[]Submission] {
	endpoint := "submission"
	if acceptedOnly {
		endpoint = "acSubmission"
	}
	var resp submissionsResponse
	if err := c.getJSON(ctx, endpoint, c.endpoints.API, nil, &resp, "leetcode", username, endpoint); err != nil {
		return fetch.Unavailable[[]Submission](err)
	}
	return fetch.OK(resp.Data)
}

// MostUsedLanguage reports the language of most accepted submissions. An
// empty history yields language "None"; an unreachable upstream yields
// "Unknown".
func (c *Client) MostUsedLanguage(ctx context.Context, username string) types.LanguageUsage {
	subs := c.Submissions(ctx, username, true)
	if !subs.Available() {
		return types.LanguageUsage{Language: types.LanguageUnknown, AllLanguages: map[string]int{}}
	}
	return LanguageStats(subs.Value)
}

// LanguageStats computes the language mode and its share of all submissions.
// Ties resolve alphabetically.
func LanguageStats(subs []Submission) types.LanguageUsage {
	counts := make(map[string]int)
	for _, s := range subs {
		lang := s.Lang
		if lang == "" {
			lang = types.LanguageUnknown
		}
		counts[lang]++
	}
	if len(counts) == 0 {
		return types.LanguageUsage{Language: types.LanguageNone, AllLanguages: counts}
	}

	lang, _ := types.TagDistribution(counts).Top()
	n := counts[lang]
	return types.LanguageUsage{
		Language:     lang,
		Count:        n,
		Percentage:   math.Round(float64(n)/float64(len(subs))*100*100) / 100,
		AllLanguages: counts,
	}
}

// RecentFailures summarizes the problems the user failed most recently.
func (c *Client) RecentFailures(ctx context.Context, username string, limit int) fetch.Outcome[[]types.FailedSubmission] {
	subs := c.Submissions(ctx, username, false)
	if !subs.Available() {
		return fetch.Unavailable[[]types.FailedSubmission](subs.Err)
	}
	return fetch.OK(SummarizeFailures(subs.Value, limit))
}

// SummarizeFailures groups non-accepted submissions by slug. An accepted
// submission marks the problem as eventually accepted but never removes the
// failures already counted. Problems with no failures are dropped. The
// result is ordered by most recent failure and cut to limit; a non-positive
// limit uses DefaultFailureLimit.
func SummarizeFailures(subs []Submission, limit int) []types.FailedSubmission {
	if limit <= 0 {
		limit = DefaultFailureLimit
	}

	type entry struct {
		summary  types.FailedSubmission
		accepted bool
		langs    map[string]bool
	}
	bySlug := make(map[string]*entry)
	var order []string

	for _, s := range subs {
		if s.TitleSlug == "" || s.StatusDisplay == "" {
			continue
		}
		e, ok := bySlug[s.TitleSlug]
		if !ok {
			e = &entry{
				summary: types.FailedSubmission{
					ProblemID: s.TitleSlug,
					Name:      s.Title,
					Verdicts:  make(map[string]int),
				},
				langs: make(map[string]bool),
			}
			bySlug[s.TitleSlug] = e
			order = append(order, s.TitleSlug)
		}

		if s.StatusDisplay == statusAccepted {
			e.accepted = true
			continue
		}
		e.summary.FailedAttempts++
		e.summary.Verdicts[s.StatusDisplay]++
		if ts := s.Timestamp.Int64(); ts > e.summary.LastFailedAt {
			e.summary.LastFailedAt = ts
		}
		if s.Lang != "" {
			e.langs[s.Lang] = true
		}
	}

	out := make([]types.FailedSubmission, 0, len(order))
	for _, slug := range order {
		e := bySlug[slug]
		if e.summary.FailedAttempts == 0 {
			continue
		}
		accepted := e.accepted
		e.summary.EventuallyAccepted = &accepted
		e.summary.LanguagesUsed = make([]string, 0, len(e.langs))
		for lang := range e.langs {
			e.summary.LanguagesUsed = append(e.summary.LanguagesUsed, lang)
		}
		sort.Strings(e.summary.LanguagesUsed)
		out = append(out, e.summary)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastFailedAt > out[j].LastFailedAt
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Profile fetches the community profile summary.
func (c *Client) Profile(ctx context.Context, username string) fetch.Outcome[Profile] {
	var p Profile
	if err := c.getJSON(ctx, "profile", c.endpoints.Profile, nil, &p, username, "profile"); err != nil {
		return fetch.Unavailable[Profile](err)
	}
	return fetch.OK(p)
}

// ProfileStats assembles the dashboard view. Each section degrades on its
// own: a missing profile summary leaves the counts at zero. The result is
// unavailable only when all three upstream calls fail.
func (c *Client) ProfileStats(ctx context.Context, username string) fetch.Outcome[types.LeetCodeStats] {
	profile := c.Profile(ctx, username)
	accepted := c.Submissions(ctx, username, true)
	tags := c.TagDistribution(ctx, username)
	if !profile.Available() && !accepted.Available() && !tags.Available() {
		return fetch.Unavailable[types.LeetCodeStats](profile.Err)
	}

	lang := types.LanguageUsage{Language: types.LanguageUnknown, AllLanguages: map[string]int{}}
	if accepted.Available() {
		lang = LanguageStats(accepted.Value)
	}
	return fetch.OK(BuildStats(username, profile.OrZero(), lang, tags.OrZero()))
}

// BuildStats combines the raw sections of a profile.
func BuildStats(username string, p Profile, lang types.LanguageUsage, tags types.TagDistribution) types.LeetCodeStats {
	top, _ := tags.Top()
	return types.LeetCodeStats{
		Username:          username,
		TotalSolved:       p.TotalSolved,
		TotalQuestions:    p.TotalQuestions,
		EasySolved:        p.EasySolved,
		MediumSolved:      p.MediumSolved,
		HardSolved:        p.HardSolved,
		Ranking:           p.Ranking,
		Reputation:        p.Reputation,
		ContributionPoint: p.ContributionPoint,
		MostUsedLanguage:  lang,
		MostUsedTag:       top,
	}
}
