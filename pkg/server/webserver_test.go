package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matst80/slask-tyres/pkg/common/jsoncompat"
	"github.com/matst80/slask-tyres/pkg/engine"
	"github.com/matst80/slask-tyres/pkg/ratings"
	"github.com/matst80/slask-tyres/pkg/tracking"
	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchBody struct {
	Records    []types.Record          `json:"records"`
	TotalCount int                     `json:"totalCount"`
	Ratings    map[string]types.Rating `json:"ratings"`
}

func testRecords() []types.Record {
	return []types.Record{
		{Id: "t1", Brand: "Acme", Model: "Trail", Category: "Summer", Price: 120},
		{Id: "t2", Brand: "Acme", Model: "City", Category: "Summer", Price: 90},
		{Id: "t3", Brand: "Zeta", Model: "Volt", Category: "Winter", Price: 150, WinterRated: true},
	}
}

func newTestServer(t *testing.T, source types.RatingSource, opts ...func(*WebServer)) (*WebServer, *httptest.Server) {
	t.Helper()
	e := engine.NewWithRecords(testRecords(), engine.DefaultOptions())
	ws := NewWebServer(e, NewMemoryFavorites(), source)
	for _, opt := range opts {
		opt(ws)
	}
	srv := httptest.NewServer(ws.ClientHandler(false))
	t.Cleanup(srv.Close)
	return ws, srv
}

func get(t *testing.T, client *http.Client, url string, out any) *http.Response {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, jsoncompat.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func ids(records []types.Record) []string {
	ret := make([]string, len(records))
	for i, r := range records {
		ret[i] = r.Id
	}
	return ret
}

var _ types.RecordHandler = (*WebServer)(nil)

func TestSearchEndpoint(t *testing.T) {
	_, srv := newTestServer(t, nil)

	var body searchBody
	resp := get(t, srv.Client(), srv.URL+"/api/search?brand=Acme&sort=price-asc", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, body.TotalCount)
	assert.Equal(t, []string{"t2", "t1"}, ids(body.Records))
	assert.NotEmpty(t, resp.Cookies(), "a session cookie is issued")
}

func TestSearchIgnoresUnknownValues(t *testing.T) {
	_, srv := newTestServer(t, nil)

	var body searchBody
	get(t, srv.Client(), srv.URL+"/api/search?brand=Nope&price=abc", &body)
	assert.Equal(t, 3, body.TotalCount)
}

func TestSearchRatingSortFetchesRatings(t *testing.T) {
	store := ratings.NewMemoryStore(map[string]types.Rating{
		"t1": {Average: 3.5, Count: 4},
		"t3": {Average: 4.8, Count: 20},
	})
	_, srv := newTestServer(t, store)

	var body searchBody
	get(t, srv.Client(), srv.URL+"/api/search?sort=rating-desc", &body)
	assert.Equal(t, []string{"t3", "t1", "t2"}, ids(body.Records))
	assert.Equal(t, 4.8, body.Ratings["t3"].Average)

	get(t, srv.Client(), srv.URL+"/api/search?sort=rating-desc", &body)
	assert.Equal(t, 1, store.Calls(), "ratings are cached between requests")
}

type failingRatings struct{}

func (failingRatings) FetchRatings(context.Context, []string) (map[string]types.Rating, error) {
	return nil, errors.New("ratings service down")
}

func TestSearchSurvivesRatingFailure(t *testing.T) {
	_, srv := newTestServer(t, failingRatings{})

	var body searchBody
	resp := get(t, srv.Client(), srv.URL+"/api/search?sort=rating-desc", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids(body.Records))
	assert.Empty(t, body.Ratings)
}

func TestPageEndpoint(t *testing.T) {
	_, srv := newTestServer(t, nil)

	var page types.Page
	get(t, srv.Client(), srv.URL+"/api/page?3pms=1", &page)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "t3", page.Records[0].Id)
}

func TestSuggestEndpoint(t *testing.T) {
	_, srv := newTestServer(t, nil)

	var body SuggestResponse
	resp := get(t, srv.Client(), srv.URL+"/api/suggest?q=acm&limit=3", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body.Suggestions)
	assert.Equal(t, "Acme", body.Suggestions[0].Text)
	assert.LessOrEqual(t, len(body.Suggestions), 3)

	resp = get(t, srv.Client(), srv.URL+"/api/suggest?q=acm&limit=lots", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecordEndpoint(t *testing.T) {
	_, srv := newTestServer(t, nil)

	var record types.Record
	resp := get(t, srv.Client(), srv.URL+"/api/record/t2", &record)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "City", record.Model)

	resp = get(t, srv.Client(), srv.URL+"/api/record/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = get(t, srv.Client(), srv.URL+"/api/record/bad%20id", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStateEndpointCanonicalizes(t *testing.T) {
	_, srv := newTestServer(t, nil)

	var body struct {
		Params map[string]string `json:"params"`
		Page   int               `json:"page"`
	}
	get(t, srv.Client(), srv.URL+"/api/state?brand=acme&pg=9&ev=yes", &body)
	assert.Equal(t, "Acme", body.Params["brand"])
	assert.Equal(t, "1", body.Params["ev"])
}

func TestFavoritesFlow(t *testing.T) {
	_, srv := newTestServer(t, nil)
	client := srv.Client()

	resp := get(t, client, srv.URL+"/api/favorites", nil)
	require.NotEmpty(t, resp.Cookies())
	cookie := resp.Cookies()[0]

	do := func(method, path string) *http.Response {
		req, err := http.NewRequest(method, srv.URL+path, nil)
		require.NoError(t, err)
		req.AddCookie(cookie)
		resp, err := client.Do(req)
		require.NoError(t, err)
		return resp
	}

	resp = do(http.MethodPut, "/api/favorites/t1")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(http.MethodPut, "/api/favorites/nope")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(http.MethodGet, "/api/search?favorites=1")
	var body searchBody
	require.NoError(t, jsoncompat.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, []string{"t1"}, ids(body.Records))

	resp = do(http.MethodDelete, "/api/favorites/t1")
	var favs FavoritesResponse
	require.NoError(t, jsoncompat.NewDecoder(resp.Body).Decode(&favs))
	resp.Body.Close()
	assert.Empty(t, favs.Ids)
}

func TestHealthAndReload(t *testing.T) {
	ws, srv := newTestServer(t, nil)

	resp := get(t, srv.Client(), srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ws.HandleRecords(nil)
	resp = get(t, srv.Client(), srv.URL+"/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ws.HandleRecords(testRecords()[:1])
	var facets struct {
		Total int `json:"total"`
	}
	get(t, srv.Client(), srv.URL+"/api/facets", &facets)
	assert.Equal(t, 1, facets.Total)
}

func TestRatingsCacheMerge(t *testing.T) {
	c := ratingsCache{}
	before, v0 := c.snapshot()
	c.merge([]string{"a", "c"}, map[string]types.Rating{"a": {Average: 4}})
	after, v1 := c.snapshot()
	assert.Empty(t, before, "published snapshots are not written to")
	assert.Equal(t, 4.0, after["a"].Average)
	assert.Greater(t, v1, v0)
	assert.Equal(t, []string{"b"}, c.missing([]string{"a", "b", "c"}), "unrated ids are not asked for again")

	c.merge([]string{"b"}, nil)
	_, v2 := c.snapshot()
	assert.Equal(t, v1, v2)
	assert.Empty(t, c.missing([]string{"a", "b", "c"}))

	c.clear()
	assert.Equal(t, []string{"a", "b"}, c.missing([]string{"a", "b"}))
}

func TestRepeatedSearchesFetchUnratedIdsOnce(t *testing.T) {
	store := ratings.NewMemoryStore(map[string]types.Rating{"t3": {Average: 4.8, Count: 20}})
	_, srv := newTestServer(t, store)

	var body searchBody
	for range 3 {
		get(t, srv.Client(), srv.URL+"/api/search", &body)
		get(t, srv.Client(), srv.URL+"/api/search?sort=rating-desc", &body)
	}
	assert.Equal(t, []string{"t3", "t1", "t2"}, ids(body.Records))
	assert.Equal(t, 1, store.Calls(), "t1 and t2 have no rating and are not fetched again")
}

func TestSearchIsTracked(t *testing.T) {
	trk := &tracking.MemoryTracking{}
	_, srv := newTestServer(t, nil, func(ws *WebServer) { ws.Tracking = trk })

	var body searchBody
	get(t, srv.Client(), srv.URL+"/api/search?brand=Zeta", &body)
	get(t, srv.Client(), srv.URL+"/api/suggest?q=zet", nil)

	events := trk.Events()
	require.Len(t, events, 2)
	search := events[0].(*tracking.SearchEventData)
	assert.Equal(t, "Zeta", search.Params["brand"])
	assert.Equal(t, 1, search.NumberOfResults)
	assert.Equal(t, "zet", events[1].(*tracking.SuggestEventData).Query)
}
