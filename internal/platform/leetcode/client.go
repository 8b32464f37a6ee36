// Package leetcode reads LeetCode activity through a LeetCode proxy API, the
// community profile endpoint and the contest aggregator.
package leetcode

import (
	"context"
	"net/url"

	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/logging"
	"github.com/jonathan/algomentor/internal/taxonomy"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/rs/zerolog"
)

// Default upstream roots.
const (
	DefaultAPIURL     = "http://localhost:3000"
	DefaultProfileURL = "https://alfa-leetcode-api.onrender.com"
	DefaultCompeteURL = "https://competeapi.vercel.app"
)

const (
	problemLinkFmt = "https://leetcode.com/problems/%s"
	contestLinkFmt = "https://leetcode.com/contest/%s"
)

// Endpoints holds the upstream roots. Empty fields use the defaults.
type Endpoints struct {
	API     string
	Profile string
	Compete string
}

func (e Endpoints) withDefaults() Endpoints {
	if e.API == "" {
		e.API = DefaultAPIURL
	}
	if e.Profile == "" {
		e.Profile = DefaultProfileURL
	}
	if e.Compete == "" {
		e.Compete = DefaultCompeteURL
	}
	return e
}

// Client reads LeetCode data. Every method makes single-attempt requests and
// reports failures through fetch.Outcome.
type Client struct {
	get       fetch.Getter
	endpoints Endpoints
	tax       *taxonomy.Taxonomy
	log       zerolog.Logger
}

// New creates a Client. A nil taxonomy uses taxonomy.Default().
func New(get fetch.Getter, endpoints Endpoints, tax *taxonomy.Taxonomy) *Client {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Client{
		get:       get,
		endpoints: endpoints.withDefaults(),
		tax:       tax,
		log:       logging.WithPlatform(string(types.PlatformLeetCode)),
	}
}

// getJSON fetches base/segments?query into out, logging failures.
func (c *Client) getJSON(ctx context.Context, op, base string, query url.Values, out any, segments ...string) error {
	rawURL := fetch.JoinURL(base, query, segments...)
	if err := fetch.GetJSON(ctx, c.get, rawURL, out); err != nil {
		c.log.Warn().Err(err).Str("op", op).Msg("leetcode request failed")
		return err
	}
	return nil
}
