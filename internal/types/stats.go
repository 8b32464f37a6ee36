package types

import (
	"sort"
	"strings"
)

// TagDistribution maps canonical tag names to a strictly positive solve count.
type TagDistribution map[string]int

// TagCount is one entry of a TagDistribution.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Total returns the sum of all counts.
func (d TagDistribution) Total() int {
	total := 0
	for _, c := range d {
		total += c
	}
	return total
}

// Top returns the tag with the highest count. Ties resolve alphabetically.
func (d TagDistribution) Top() (string, bool) {
	best, bestCount := "", 0
	for tag, c := range d {
		if c > bestCount || (c == bestCount && tag < best) {
			best, bestCount = tag, c
		}
	}
	return best, bestCount > 0
}

// Ascending returns entries sorted by count, weakest first. order gives the
// tie-break rank of each tag; tags missing from order fall back to name order.
func (d TagDistribution) Ascending(order map[string]int) []TagCount {
	out := make([]TagCount, 0, len(d))
	for tag, c := range d {
		out = append(out, TagCount{Tag: tag, Count: c})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count < out[j].Count
		}
		ri, okI := order[out[i].Tag]
		rj, okJ := order[out[j].Tag]
		switch {
		case okI && okJ && ri != rj:
			return ri < rj
		case okI != okJ:
			return okI
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// FailedSubmission summarizes the failed attempts on one problem.
type FailedSubmission struct {
	ProblemID          string         `json:"problem_id"`
	Name               string         `json:"name"`
	Rating             *int           `json:"rating,omitempty"`
	Tags               []string       `json:"tags,omitempty"`
	FailedAttempts     int            `json:"failed_attempts"`
	Verdicts           map[string]int `json:"verdicts"`
	LastFailedAt       int64          `json:"last_failed_at"`
	LanguagesUsed      []string       `json:"languages_used"`
	EventuallyAccepted *bool          `json:"eventually_accepted,omitempty"`
}

// LanguageUsage describes the most used submission language.
type LanguageUsage struct {
	Language     string         `json:"language"`
	Count        int            `json:"count"`
	Percentage   float64        `json:"percentage"`
	AllLanguages map[string]int `json:"all_languages"`
}

// Sentinel language labels.
const (
	LanguageNone    = "None"
	LanguageUnknown = "Unknown"
)

// RatingPoint is one rating change.
type RatingPoint struct {
	Time   int64 `json:"date"`
	Rating int   `json:"rating"`
}

// CodeforcesStats is the dashboard view of a Codeforces account.
type CodeforcesStats struct {
	Handle              string        `json:"handle"`
	MostUsedTag         string        `json:"most_used_tag,omitempty"`
	MostUsedLanguage    string        `json:"most_used_lang,omitempty"`
	Rating              *int          `json:"rating,omitempty"`
	MaxRating           *int          `json:"max_rating,omitempty"`
	Rank                string        `json:"rank"`
	MaxRank             string        `json:"max_rank"`
	FriendOfCount       int           `json:"friend_of_count"`
	TotalSolved         int           `json:"total_solved"`
	BlogCount           int           `json:"blog_count"`
	BestRatedBlog       string        `json:"best_rated_blog,omitempty"`
	BestRatedBlogRating int           `json:"best_rated_blog_rating,omitempty"`
	RatingHistory       []RatingPoint `json:"rating_history"`
}

// LeetCodeStats is the dashboard view of a LeetCode account.
type LeetCodeStats struct {
	Username          string        `json:"username"`
	TotalSolved       int           `json:"total_solved"`
	TotalQuestions    int           `json:"total_questions"`
	EasySolved        int           `json:"easy_solved"`
	MediumSolved      int           `json:"medium_solved"`
	HardSolved        int           `json:"hard_solved"`
	Ranking           int           `json:"ranking"`
	Reputation        int           `json:"reputation"`
	ContributionPoint int           `json:"contribution_point"`
	MostUsedLanguage  LanguageUsage `json:"most_used_lang"`
	MostUsedTag       string        `json:"most_used_tag,omitempty"`
}

// CodeChefStats is the dashboard view of a CodeChef account.
type CodeChefStats struct {
	Username    string `json:"username"`
	Name        string `json:"name,omitempty"`
	Rating      int    `json:"rating"`
	MaxRating   int    `json:"max_rating"`
	Stars       string `json:"stars,omitempty"`
	GlobalRank  int    `json:"global_rank"`
	CountryRank int    `json:"country_rank"`
}

// PlatformProfile wraps one platform's stats with its connection state.
// Available is false when the platform was connected but its upstream failed.
type PlatformProfile[T any] struct {
	Connected bool `json:"connected"`
	Available bool `json:"available"`
	Data      *T   `json:"data"`
}

// PlatformProfiles is the per-user dashboard payload.
type PlatformProfiles struct {
	LeetCode   PlatformProfile[LeetCodeStats]   `json:"leetcode"`
	Codeforces PlatformProfile[CodeforcesStats] `json:"codeforces"`
	CodeChef   PlatformProfile[CodeChefStats]   `json:"codechef"`
}

// AnyConnected reports whether at least one platform handle is set.
func (p PlatformProfiles) AnyConnected() bool {
	return p.LeetCode.Connected || p.Codeforces.Connected || p.CodeChef.Connected
}

// Handles holds a user's platform usernames. Empty means not connected.
type Handles struct {
	LeetCode   string `json:"leetcode_username,omitempty"`
	Codeforces string `json:"codeforces_username,omitempty"`
	CodeChef   string `json:"codechef_username,omitempty"`
}

// Any reports whether any handle is set.
func (h Handles) Any() bool {
	return h.LeetCode != "" || h.Codeforces != "" || h.CodeChef != ""
}

// Trimmed returns h with surrounding whitespace removed from every handle.
func (h Handles) Trimmed() Handles {
	return Handles{
		LeetCode:   strings.TrimSpace(h.LeetCode),
		Codeforces: strings.TrimSpace(h.Codeforces),
		CodeChef:   strings.TrimSpace(h.CodeChef),
	}
}
