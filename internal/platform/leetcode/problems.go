package leetcode

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/types"
)

// summaryRunes bounds the plain-text statement attached to the daily challenge.
const summaryRunes = 300

// ProblemQuery filters ListProblems. Tags use the LeetCode vocabulary.
type ProblemQuery struct {
	Tags       []string
	Difficulty string
	Limit      int
	Skip       int
}

type topicTag struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type rawQuestion struct {
	Title      string     `json:"title"`
	TitleSlug  string     `json:"titleSlug"`
	Difficulty string     `json:"difficulty"`
	TopicTags  []topicTag `json:"topicTags"`
	IsPaidOnly bool       `json:"isPaidOnly"`
	AcRate     float64    `json:"acRate"`
	Content    string     `json:"content"`
}

type problemsResponse struct {
	Data struct {
		Questions []rawQuestion `json:"questions"`
	} `json:"data"`
}

type dailyResponse struct {
	Question *rawQuestion `json:"question"`
}

type rawContest struct {
	Title     string        `json:"title"`
	StartTime fetch.FlexInt `json:"startTime"`
	Duration  fetch.FlexInt `json:"duration"`
}

type contestsResponse struct {
	Data struct {
		TopTwoContests []rawContest `json:"topTwoContests"`
	} `json:"data"`
}

// ListProblems searches the problem set. Tags are sent as one "+"-joined list
// and the difficulty is upper-cased.
func (c *Client) ListProblems(ctx context.Context, q ProblemQuery) fetch.Outcome[[]types.Problem] {
	query := url.Values{}
	if len(q.Tags) > 0 {
		// Spaces encode as "+", which is the separator the proxy expects.
		query.Set("tags", strings.Join(q.Tags, " "))
	}
	if q.Difficulty != "" {
		query.Set("difficulty", strings.ToUpper(q.Difficulty))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip > 0 {
		query.Set("skip", strconv.Itoa(q.Skip))
	}

	var resp problemsResponse
	if err := c.getJSON(ctx, "problems", c.endpoints.API, query, &resp, "leetcode", "problems"); err != nil {
		return fetch.Unavailable[[]types.Problem](err)
	}

	out := make([]types.Problem, 0, len(resp.Data.Questions))
	for _, raw := range resp.Data.Questions {
		out = append(out, toProblem(raw))
	}
	return fetch.OK(out)
}

// DailyChallenge returns today's question marked as the daily, with a short
// plain-text summary of its statement.
func (c *Client) DailyChallenge(ctx context.Context) fetch.Outcome[types.Problem] {
	var resp dailyResponse
	if err := c.getJSON(ctx, "daily", c.endpoints.API, nil, &resp, "leetcode", "daily"); err != nil {
		return fetch.Unavailable[types.Problem](err)
	}
	if resp.Question == nil || resp.Question.TitleSlug == "" {
		err := fetch.Malformed("leetcode/daily", "missing question")
		c.log.Warn().Err(err).Str("op", "daily").Msg("leetcode request failed")
		return fetch.Unavailable[types.Problem](err)
	}

	p := toProblem(*resp.Question)
	p.IsDaily = true
	p.IsPremium = false
	if text, err := fetch.HTMLText(resp.Question.Content); err == nil {
		p.Summary = fetch.Truncate(text, summaryRunes)
	}
	return fetch.OK(p)
}

func toProblem(raw rawQuestion) types.Problem {
	tags := make([]string, 0, len(raw.TopicTags))
	for _, t := range raw.TopicTags {
		tags = append(tags, t.Name)
	}
	return types.Problem{
		Platform:   types.PlatformLeetCode,
		Title:      raw.Title,
		Slug:       raw.TitleSlug,
		Difficulty: types.ParseDifficulty(raw.Difficulty),
		Tags:       tags,
		Link:       fmt.Sprintf(problemLinkFmt, raw.TitleSlug),
		IsPremium:  raw.IsPaidOnly,
		AcRate:     raw.AcRate,
	}
}

// ListContests returns the upcoming weekly and biweekly contests.
func (c *Client) ListContests(ctx context.Context) fetch.Outcome[[]types.Contest] {
	var resp contestsResponse
	if err := c.getJSON(ctx, "contests", c.endpoints.Compete, nil, &resp, "contests", "leetcode", ""); err != nil {
		return fetch.Unavailable[[]types.Contest](err)
	}

	out := make([]types.Contest, 0, len(resp.Data.TopTwoContests))
	for _, rc := range resp.Data.TopTwoContests {
		start := rc.StartTime.Int64()
		out = append(out, types.Contest{
			Platform:      types.PlatformLeetCode,
			Title:         rc.Title,
			Link:          fmt.Sprintf(contestLinkFmt, ContestSlug(rc.Title)),
			Start:         types.FormatUnix(start),
			End:           types.FormatUnix(start + rc.Duration.Int64()),
			DurationHours: float64(rc.Duration.Int64()) / 3600,
		})
	}
	return fetch.OK(out)
}

// ContestSlug derives the contest URL slug from its title.
func ContestSlug(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}
