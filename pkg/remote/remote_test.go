package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/matst80/slask-tyres/pkg/state"
	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	criteria types.FilterCriteria
	release  chan struct{}
	page     *types.Page
	err      error
}

// gatedFetcher blocks each call until the test releases it.
type gatedFetcher struct {
	mu    sync.Mutex
	calls []*call
	seen  chan *call
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{seen: make(chan *call, 10)}
}

func (g *gatedFetcher) FetchPage(ctx context.Context, criteria types.FilterCriteria, page int) (*types.Page, error) {
	c := &call{criteria: criteria, release: make(chan struct{})}
	g.mu.Lock()
	g.calls = append(g.calls, c)
	g.mu.Unlock()
	g.seen <- c
	<-c.release
	return c.page, c.err
}

func TestSupersededResponseIsDiscarded(t *testing.T) {
	fetcher := newGatedFetcher()
	a := NewAdapter(fetcher)
	applied := make(chan PageResult, 4)

	a.Request(context.Background(), types.FilterCriteria{Brand: "old"}, 1, func(r PageResult) { applied <- r })
	first := <-fetcher.seen
	a.Request(context.Background(), types.FilterCriteria{Brand: "new"}, 1, func(r PageResult) { applied <- r })
	second := <-fetcher.seen

	second.page = &types.Page{Records: []types.Record{{Id: "new1"}}, TotalCount: 1}
	close(second.release)
	res := <-applied
	assert.Equal(t, "new1", res.Page.Records[0].Id)
	assert.Equal(t, "new", res.Criteria.Brand)

	first.page = &types.Page{Records: []types.Record{{Id: "old1"}}, TotalCount: 1}
	close(first.release)
	select {
	case r := <-applied:
		t.Fatalf("stale response applied: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, "new1", a.Last().Records[0].Id)
}

func TestFailureKeepsPreviousPage(t *testing.T) {
	fetcher := newGatedFetcher()
	a := NewAdapter(fetcher)

	go func() {
		c := <-fetcher.seen
		c.page = &types.Page{Records: []types.Record{{Id: "a"}}, TotalCount: 1}
		close(c.release)
		c = <-fetcher.seen
		c.err = errors.New("boom")
		close(c.release)
	}()

	res, err := a.Fetch(context.Background(), types.FilterCriteria{}, 1)
	require.NoError(t, err)
	assert.False(t, res.Stale)

	res, err = a.Fetch(context.Background(), types.FilterCriteria{}, 2)
	assert.Error(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, "a", res.Page.Records[0].Id)
	assert.Equal(t, 2, res.PageNo)
}

func TestFetchSupersededReturnsSentinel(t *testing.T) {
	fetcher := newGatedFetcher()
	a := NewAdapter(fetcher)
	errs := make(chan error, 1)
	go func() {
		_, err := a.Fetch(context.Background(), types.FilterCriteria{}, 1)
		errs <- err
	}()
	first := <-fetcher.seen
	a.Request(context.Background(), types.FilterCriteria{}, 2, nil)
	second := <-fetcher.seen
	close(first.release)
	assert.ErrorIs(t, <-errs, types.ErrSuperseded)
	close(second.release)
}

func TestFutureAwait(t *testing.T) {
	f := Go(context.Background(), func(ctx context.Context) (int, error) { return 42, nil })
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	blocked := Go(context.Background(), func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	blocked.Cancel()
	_, err = blocked.Await(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHttpFetcher(t *testing.T) {
	gotQuery := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery <- r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"records":[{"id":"t2","brand":"Acme","price":90}],"totalCount":2}`))
	}))
	defer srv.Close()

	codec := state.NewCodec(types.DefaultBounds())
	f := NewHttpFetcher(srv.URL, codec, 0, 1)
	criteria := types.DefaultCriteria(codec.Bounds())
	criteria.Brand = "Acme"
	criteria.Sort = types.SortPriceAsc

	page, err := f.FetchPage(context.Background(), criteria, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, "t2", page.Records[0].Id)
	assert.Equal(t, "brand=Acme&pg=2&sort=price-asc", <-gotQuery)
}

func TestHttpFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	f := NewHttpFetcher(srv.URL, state.NewCodec(nil), 10, 1)
	_, err := f.FetchPage(context.Background(), types.FilterCriteria{}, 1)
	assert.Error(t, err)
}
