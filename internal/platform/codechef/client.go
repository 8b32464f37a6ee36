// Package codechef reads CodeChef profiles and contests from the contest
// aggregator. CodeChef contributes no tag or problem data.
package codechef

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/logging"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/rs/zerolog"
)

// DefaultCompeteURL is the contest aggregator root.
const DefaultCompeteURL = "https://competeapi.vercel.app"

const contestLinkFmt = "https://www.codechef.com/%s"

// Client reads CodeChef data through the aggregator.
type Client struct {
	get  fetch.Getter
	base string
	log  zerolog.Logger
}

// New creates a Client. An empty baseURL uses DefaultCompeteURL.
func New(get fetch.Getter, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultCompeteURL
	}
	return &Client{
		get:  get,
		base: baseURL,
		log:  logging.WithPlatform(string(types.PlatformCodeChef)),
	}
}

type rawProfile struct {
	Username     string           `json:"username"`
	Name         string           `json:"name"`
	RatingNumber fetch.FlexInt    `json:"rating_number"`
	MaxRating    fetch.FlexInt    `json:"max_rank"`
	Stars        fetch.FlexString `json:"rating"`
	GlobalRank   fetch.FlexInt    `json:"global_rank"`
	CountryRank  fetch.FlexInt    `json:"country_rank"`
}

type rawContest struct {
	Code     string        `json:"contest_code"`
	Name     string        `json:"contest_name"`
	StartISO string        `json:"contest_start_date_iso"`
	EndISO   string        `json:"contest_end_date_iso"`
	Duration fetch.FlexInt `json:"contest_duration"`
}

type contestsResponse struct {
	FutureContests []rawContest `json:"future_contests"`
}

// ProfileStats fetches the profile summary for username.
func (c *Client) ProfileStats(ctx context.Context, username string) fetch.Outcome[types.CodeChefStats] {
	var raw rawProfile
	rawURL := fetch.JoinURL(c.base, nil, "user", "codechef", username, "")
	if err := fetch.GetJSON(ctx, c.get, rawURL, &raw); err != nil {
		c.log.Warn().Err(err).Str("op", "profile").Msg("codechef request failed")
		return fetch.Unavailable[types.CodeChefStats](err)
	}

	name := raw.Username
	if name == "" {
		name = username
	}
	return fetch.OK(types.CodeChefStats{
		Username:    name,
		Name:        raw.Name,
		Rating:      int(raw.RatingNumber.Int64()),
		MaxRating:   int(raw.MaxRating.Int64()),
		Stars:       strings.TrimSpace(string(raw.Stars)),
		GlobalRank:  int(raw.GlobalRank.Int64()),
		CountryRank: int(raw.CountryRank.Int64()),
	})
}

// ListContests returns the future contests. Start and end times are passed
// through as the aggregator formats them.
func (c *Client) ListContests(ctx context.Context) fetch.Outcome[[]types.Contest] {
	var resp contestsResponse
	rawURL := fetch.JoinURL(c.base, nil, "contests", "codechef", "")
	if err := fetch.GetJSON(ctx, c.get, rawURL, &resp); err != nil {
		c.log.Warn().Err(err).Str("op", "contests").Msg("codechef request failed")
		return fetch.Unavailable[[]types.Contest](err)
	}

	out := make([]types.Contest, 0, len(resp.FutureContests))
	for _, rc := range resp.FutureContests {
		out = append(out, types.Contest{
			Platform:      types.PlatformCodeChef,
			Title:         rc.Name,
			Code:          rc.Code,
			Link:          fmt.Sprintf(contestLinkFmt, rc.Code),
			Start:         rc.StartISO,
			End:           rc.EndISO,
			DurationHours: float64(rc.Duration.Int64()) / 60,
		})
	}
	return fetch.OK(out)
}
