// Package types provides the shared data model for platform data, recommendations and coaching feedback.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies an upstream judge.
type Platform string

// Supported platforms.
const (
	PlatformCodeforces Platform = "codeforces"
	PlatformLeetCode   Platform = "leetcode"
	PlatformCodeChef   Platform = "codechef"
)

// AllPlatforms lists the platforms in the order they are queried.
var AllPlatforms = []Platform{PlatformLeetCode, PlatformCodeforces, PlatformCodeChef}

// ParsePlatform converts a user-supplied name into a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformCodeforces, PlatformLeetCode, PlatformCodeChef:
		return Platform(s), nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// Difficulty is the coarse difficulty bucket shared across platforms.
type Difficulty string

// Difficulty buckets. Unknown is used whenever a platform gives no usable signal.
const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyUnknown Difficulty = "unknown"
)

// ParseDifficulty normalizes a difficulty label. Empty and unrecognized labels map to unknown.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyMedium:
		return DifficultyMedium
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyUnknown
	}
}

// Problem is a single practice problem in the platform-neutral shape.
type Problem struct {
	Platform   Platform   `json:"platform"`
	Title      string     `json:"title"`
	ContestID  int        `json:"contest_id,omitempty"`
	Index      string     `json:"index,omitempty"`
	Slug       string     `json:"title_slug,omitempty"`
	Difficulty Difficulty `json:"difficulty"`
	Rating     *int       `json:"rating"`
	Tags       []string   `json:"tags"`
	Link       string     `json:"link"`

	// Codeforces extras
	Type        string   `json:"type,omitempty"`
	Points      *float64 `json:"points,omitempty"`
	SolvedCount int      `json:"solved_count,omitempty"`

	// LeetCode extras
	IsPremium bool    `json:"is_premium,omitempty"`
	AcRate    float64 `json:"ac_rate,omitempty"`
	IsDaily   bool    `json:"is_daily,omitempty"`
	Summary   string  `json:"summary,omitempty"`

	IsContest    bool    `json:"is_contest"`
	ContestStart *string `json:"contest_start"`
	ContestEnd   *string `json:"contest_end"`
}

// ID returns the platform-native identifier: contestId+index on Codeforces, the slug elsewhere.
func (p Problem) ID() string {
	if p.Platform == PlatformCodeforces {
		return fmt.Sprintf("%d%s", p.ContestID, p.Index)
	}
	return p.Slug
}

// Key identifies a problem across platforms.
func (p Problem) Key() string {
	return string(p.Platform) + ":" + p.ID()
}

// isoLayout renders contest times as ISO-8601 in UTC without an offset.
const isoLayout = "2006-01-02T15:04:05"

// FormatUnix renders epoch seconds as a UTC ISO-8601 timestamp.
func FormatUnix(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(isoLayout)
}

// Contest is an upcoming or finished contest on any platform.
type Contest struct {
	Platform      Platform `json:"platform"`
	Title         string   `json:"title"`
	ContestID     int      `json:"contest_id,omitempty"`
	Code          string   `json:"code,omitempty"`
	Type          string   `json:"type,omitempty"`
	Link          string   `json:"link"`
	Start         string   `json:"contest_start"`
	End           string   `json:"contest_end"`
	DurationHours float64  `json:"duration_hours"`
}

// RecommendationResult is the merged output of a recommendation query.
type RecommendationResult struct {
	Problems      []Problem `json:"problems"`
	Contests      []Contest `json:"contests"`
	TotalProblems int       `json:"total_problems"`
	TotalContests int       `json:"total_contests"`
}

// RecommendationPage bundles recommendations with the analysis that produced them.
type RecommendationPage struct {
	Recommendations RecommendationResult `json:"recommendations"`
	WeakAreas       []string             `json:"weak_areas"`
	TagDistribution TagDistribution      `json:"tag_distribution"`
}
