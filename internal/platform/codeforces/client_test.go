package codeforces

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jonathan/algomentor/internal/fetch"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

// fakeAPI serves canned bodies per API method and records the tag queries.
type fakeAPI struct {
	mu     sync.Mutex
	bodies map[string]string
	byTag  map[string]string
	tags   []string
	status map[string]int
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[1:]
		f.mu.Lock()
		defer f.mu.Unlock()
		if code, ok := f.status[method]; ok {
			w.WriteHeader(code)
			return
		}
		if method == "problemset.problems" && f.byTag != nil {
			tag := r.URL.Query().Get("tags")
			f.tags = append(f.tags, tag)
			if body, ok := f.byTag[tag]; ok {
				_, _ = w.Write([]byte(body))
				return
			}
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		body, ok := f.bodies[method]
		if !ok {
			t.Errorf("unexpected method %s", method)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	})
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)
	return New(fetch.NewClient(nil), server.URL+"/", nil)
}

const problemsetDP = `{"status":"OK","result":{
 "problems":[
  {"contestId":1,"index":"A","name":"Alpha","type":"PROGRAMMING","rating":1200,"tags":["dp"]},
  {"contestId":1,"index":"B","name":"Beta","type":"PROGRAMMING","rating":1201,"tags":["dp","math"]},
  {"contestId":2,"index":"C","name":"Gamma","type":"PROGRAMMING","tags":["dp"]},
  {"contestId":3,"index":"D","name":"Delta","type":"PROGRAMMING","rating":2400,"points":1500,"tags":["dp","graphs"]}
 ],
 "problemStatistics":[
  {"contestId":1,"index":"A","solvedCount":900},
  {"contestId":1,"index":"B","solvedCount":500}
 ]}}`

const problemsetGreedy = `{"status":"OK","result":{
 "problems":[
  {"contestId":1,"index":"B","name":"Beta","rating":1201,"tags":["dp","math"]},
  {"contestId":4,"index":"A","name":"Epsilon","rating":800,"tags":["greedy"]}
 ],
 "problemStatistics":[]}}`

func TestListProblems_BucketsAndLinks(t *testing.T) {
	api := &fakeAPI{byTag: map[string]string{"": problemsetDP}}
	c := newTestClient(t, api)

	out := c.ListProblems(context.Background(), ProblemQuery{})
	require.True(t, out.Available())
	problems := out.Value
	require.Len(t, problems, 4)

	assert.Equal(t, types.DifficultyEasy, problems[0].Difficulty)
	assert.Equal(t, types.DifficultyMedium, problems[1].Difficulty)
	assert.Equal(t, types.DifficultyUnknown, problems[2].Difficulty)
	assert.Equal(t, types.DifficultyHard, problems[3].Difficulty)

	assert.Equal(t, "https://codeforces.com/problemset/problem/1/A", problems[0].Link)
	assert.Equal(t, 900, problems[0].SolvedCount)
	assert.Equal(t, 0, problems[2].SolvedCount)
	require.NotNil(t, problems[3].Points)
	assert.Equal(t, 1500.0, *problems[3].Points)
	assert.Equal(t, "PROGRAMMING", problems[2].Type)
	assert.False(t, problems[0].IsContest)
	assert.Equal(t, []string{""}, api.tags)
}

func TestListProblems_RatingFilterExcludesUnrated(t *testing.T) {
	api := &fakeAPI{byTag: map[string]string{"dp": problemsetDP}}
	c := newTestClient(t, api)

	out := c.ListProblems(context.Background(), ProblemQuery{Tags: []string{"dp"}, MaxRating: intPtr(5000)})
	require.True(t, out.Available())
	for _, p := range out.Value {
		require.NotNil(t, p.Rating, "unrated problem %s must be excluded", p.Title)
	}
	assert.Len(t, out.Value, 3)

	out = c.ListProblems(context.Background(), ProblemQuery{Tags: []string{"dp"}, MinRating: intPtr(1200), MaxRating: intPtr(1201)})
	require.True(t, out.Available())
	require.Len(t, out.Value, 2)
	assert.Equal(t, "Alpha", out.Value[0].Title)
	assert.Equal(t, "Beta", out.Value[1].Title)
}

func TestListProblems_MergesAndDedupesAcrossTags(t *testing.T) {
	api := &fakeAPI{byTag: map[string]string{"dp": problemsetDP, "greedy": problemsetGreedy}}
	c := newTestClient(t, api)

	out := c.ListProblems(context.Background(), ProblemQuery{Tags: []string{"dp", "greedy"}})
	require.True(t, out.Available())
	require.Len(t, out.Value, 5)

	seen := map[string]bool{}
	for _, p := range out.Value {
		assert.False(t, seen[p.Key()], "duplicate %s", p.Key())
		seen[p.Key()] = true
	}
	assert.Equal(t, "4A", out.Value[4].ID())
}

func TestListProblems_ShortCircuitsAtLimit(t *testing.T) {
	api := &fakeAPI{byTag: map[string]string{"dp": problemsetDP, "greedy": problemsetGreedy}}
	c := newTestClient(t, api)

	out := c.ListProblems(context.Background(), ProblemQuery{Tags: []string{"dp", "greedy"}, Limit: 2})
	require.True(t, out.Available())
	assert.Len(t, out.Value, 2)
	assert.Equal(t, []string{"dp"}, api.tags, "second batch must not be requested")
}

func TestListProblems_FailingBatchIsSkipped(t *testing.T) {
	api := &fakeAPI{byTag: map[string]string{"greedy": problemsetGreedy}}
	c := newTestClient(t, api)

	out := c.ListProblems(context.Background(), ProblemQuery{Tags: []string{"dp", "greedy"}})
	require.True(t, out.Available())
	assert.Len(t, out.Value, 2)

	out = c.ListProblems(context.Background(), ProblemQuery{Tags: []string{"dp"}})
	assert.False(t, out.Available())
	assert.Empty(t, out.OrZero())
}

func TestListProblems_StatusNotOK(t *testing.T) {
	api := &fakeAPI{byTag: map[string]string{"": `{"status":"FAILED","comment":"tags: bad"}`}}
	c := newTestClient(t, api)

	out := c.ListProblems(context.Background(), ProblemQuery{})
	require.False(t, out.Available())
	var fetchErr *fetch.Error
	require.ErrorAs(t, out.Err, &fetchErr)
	assert.Equal(t, fetch.KindMalformed, fetchErr.Kind)
}

func TestListContests(t *testing.T) {
	body := `{"status":"OK","result":[
	 {"id":10,"name":"Round 10","type":"CF","phase":"BEFORE","durationSeconds":7200,"startTimeSeconds":1700000000},
	 {"id":9,"name":"Round 9","type":"ICPC","phase":"FINISHED","durationSeconds":9000,"startTimeSeconds":1690000000},
	 {"id":11,"name":"Round 11","phase":"BEFORE","durationSeconds":5400}
	]}`
	c := newTestClient(t, &fakeAPI{bodies: map[string]string{"contest.list": body}})

	out := c.ListContests(context.Background(), true)
	require.True(t, out.Available())
	require.Len(t, out.Value, 2)

	first := out.Value[0]
	assert.Equal(t, "Round 10", first.Title)
	assert.Equal(t, "https://codeforces.com/contest/10", first.Link)
	assert.Equal(t, "2023-11-14T22:13:20", first.Start)
	assert.Equal(t, "2023-11-15T00:13:20", first.End)
	assert.Equal(t, 2.0, first.DurationHours)

	second := out.Value[1]
	assert.Empty(t, second.Start)
	assert.Equal(t, "CF", second.Type)
	assert.Equal(t, 1.5, second.DurationHours)

	finished := c.ListContests(context.Background(), false)
	require.True(t, finished.Available())
	require.Len(t, finished.Value, 1)
	assert.Equal(t, "ICPC", finished.Value[0].Type)
}

func TestFilterContests_KeepsTenInUpstreamOrder(t *testing.T) {
	var raw []rawContest
	for i := 0; i < 15; i++ {
		start := int64(2000000000 - i*1000)
		raw = append(raw, rawContest{ID: i, Phase: "BEFORE", StartTimeSeconds: &start})
	}
	out := filterContests(raw, true)
	require.Len(t, out, 10)
	for i, c := range out {
		assert.Equal(t, i, c.ContestID)
	}
}

func TestListContests_Unavailable(t *testing.T) {
	c := newTestClient(t, &fakeAPI{status: map[string]int{"contest.list": http.StatusServiceUnavailable}})
	out := c.ListContests(context.Background(), true)
	assert.False(t, out.Available())
	assert.Empty(t, out.OrZero())
}

func TestInRatingRange(t *testing.T) {
	assert.True(t, inRatingRange(nil, nil, nil))
	assert.False(t, inRatingRange(nil, intPtr(800), nil))
	assert.False(t, inRatingRange(nil, nil, intPtr(3500)))
	assert.True(t, inRatingRange(intPtr(800), intPtr(800), intPtr(800)))
	assert.False(t, inRatingRange(intPtr(799), intPtr(800), nil))
	assert.False(t, inRatingRange(intPtr(3501), nil, intPtr(3500)))
}
