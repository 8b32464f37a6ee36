package codechef

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, bodies map[string]string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return New(fetch.NewClient(nil), server.URL)
}

func TestProfileStats(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/user/codechef/chef/": `{"username":"chef","name":"Chef","rating_number":"1834","max_rank":1901,"rating":"4★","global_rank":"1200","country_rank":300}`,
	})

	out := c.ProfileStats(context.Background(), "chef")
	require.True(t, out.Available())
	assert.Equal(t, types.CodeChefStats{
		Username:    "chef",
		Name:        "Chef",
		Rating:      1834,
		MaxRating:   1901,
		Stars:       "4★",
		GlobalRank:  1200,
		CountryRank: 300,
	}, out.Value)
}

func TestProfileStats_NumericStarsAndMissingFields(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/user/codechef/chef/": `{"rating":3,"global_rank":null}`,
	})
	out := c.ProfileStats(context.Background(), "chef")
	require.True(t, out.Available())
	assert.Equal(t, "chef", out.Value.Username)
	assert.Equal(t, "3", out.Value.Stars)
	assert.Zero(t, out.Value.GlobalRank)
}

func TestProfileStats_Unavailable(t *testing.T) {
	c := newTestClient(t, map[string]string{})
	out := c.ProfileStats(context.Background(), "ghost")
	assert.False(t, out.Available())
}

func TestListContests(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/contests/codechef/": `{"future_contests":[
		  {"contest_code":"START150","contest_name":"Starters 150","contest_start_date_iso":"2024-09-04T20:00:00+05:30","contest_end_date_iso":"2024-09-04T22:00:00+05:30","contest_duration":"120"},
		  {"contest_code":"LTIME1","contest_name":"Lunchtime","contest_start_date_iso":"","contest_end_date_iso":"","contest_duration":90}
		]}`,
	})

	out := c.ListContests(context.Background())
	require.True(t, out.Available())
	require.Len(t, out.Value, 2)

	first := out.Value[0]
	assert.Equal(t, types.PlatformCodeChef, first.Platform)
	assert.Equal(t, "https://www.codechef.com/START150", first.Link)
	assert.Equal(t, "2024-09-04T20:00:00+05:30", first.Start)
	assert.Equal(t, 2.0, first.DurationHours)
	assert.Equal(t, 1.5, out.Value[1].DurationHours)
}

func TestListContests_Malformed(t *testing.T) {
	c := newTestClient(t, map[string]string{"/contests/codechef/": `not json`})
	out := c.ListContests(context.Background())
	require.False(t, out.Available())
	var fetchErr *fetch.Error
	require.ErrorAs(t, out.Err, &fetchErr)
	assert.Equal(t, fetch.KindMalformed, fetchErr.Kind)
}
