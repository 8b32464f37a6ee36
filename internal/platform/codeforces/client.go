// Package codeforces reads problems, contests and user activity from the
// Codeforces REST API and converts them into the shared types.
package codeforces

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/logging"
	"github.com/jonathan/algomentor/internal/taxonomy"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public Codeforces API root.
const DefaultBaseURL = "https://codeforces.com/api/"

const (
	problemLinkFmt = "https://codeforces.com/problemset/problem/%d/%s"
	contestLinkFmt = "https://codeforces.com/contest/%d"
)

// Client talks to the Codeforces API. Every method makes single-attempt
// requests and reports failures through fetch.Outcome.
type Client struct {
	get  fetch.Getter
	base string
	tax  *taxonomy.Taxonomy
	log  zerolog.Logger
}

// New creates a Client. An empty baseURL uses DefaultBaseURL and a nil
// taxonomy uses taxonomy.Default().
func New(get fetch.Getter, baseURL string, tax *taxonomy.Taxonomy) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Client{
		get:  get,
		base: baseURL,
		tax:  tax,
		log:  logging.WithPlatform(string(types.PlatformCodeforces)),
	}
}

// envelope is the wrapper around every API response.
type envelope[T any] struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Result  T      `json:"result"`
}

// call invokes one API method and unwraps the envelope. A status other than
// OK is reported as a malformed response.
func call[T any](ctx context.Context, c *Client, method string, query url.Values) (T, error) {
	var env envelope[T]
	rawURL := fetch.JoinURL(c.base, query, method)
	if err := fetch.GetJSON(ctx, c.get, rawURL, &env); err != nil {
		var zero T
		return zero, err
	}
	if env.Status != "OK" {
		var zero T
		return zero, fetch.Malformed(rawURL, fmt.Sprintf("status %q: %s", env.Status, env.Comment))
	}
	return env.Result, nil
}

func (c *Client) warn(err error, method string) {
	c.log.Warn().Err(err).Str("method", method).Msg("codeforces request failed")
}

func handleQuery(key, handle string) url.Values {
	return url.Values{key: []string{handle}}
}
