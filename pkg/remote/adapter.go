package remote

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var remoteFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "slasktyres_remote_fetches_total",
	Help: "Remote page fetches by outcome",
}, []string{"outcome"})

// Token identifies one request. Results carrying an old token are
// discarded.
type Token uint64

// PageResult is what a caller receives for a request that was still
// current when it finished. On failure Page is the last good page and
// Stale is set.
type PageResult struct {
	Token    Token
	Page     *types.Page
	Criteria types.FilterCriteria
	PageNo   int
	Stale    bool
	Err      error
}

// Adapter serves result pages from a remote provider. A new request
// cancels the one in flight and the superseded response is never applied.
type Adapter struct {
	fetcher types.PageFetcher

	mu       sync.Mutex
	current  Token
	inflight *Future[*types.Page]
	last     *types.Page
}

func NewAdapter(fetcher types.PageFetcher) *Adapter {
	return &Adapter{fetcher: fetcher}
}

// Current is the token of the newest request.
func (a *Adapter) Current() Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Last returns the most recent successfully applied page.
func (a *Adapter) Last() *types.Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Request fetches a page and calls apply when it resolves, unless a newer
// request was made in the meantime.
func (a *Adapter) Request(ctx context.Context, criteria types.FilterCriteria, page int, apply func(PageResult)) *Future[*types.Page] {
	return a.request(ctx, criteria, page, func(res PageResult, current bool) {
		if current && apply != nil {
			apply(res)
		}
	})
}

func (a *Adapter) request(ctx context.Context, criteria types.FilterCriteria, page int, done func(PageResult, bool)) *Future[*types.Page] {
	a.mu.Lock()
	if a.inflight != nil {
		a.inflight.Cancel()
	}
	a.current++
	token := a.current
	future := Go(ctx, func(ctx context.Context) (*types.Page, error) {
		return a.fetcher.FetchPage(ctx, criteria, page)
	})
	a.inflight = future
	a.mu.Unlock()

	go func() {
		<-future.Done()
		res, current := a.resolve(token, future)
		res.Token = token
		res.Criteria = criteria
		res.PageNo = page
		done(res, current)
	}()
	return future
}

func (a *Adapter) resolve(token Token, future *Future[*types.Page]) (PageResult, bool) {
	page, err := future.value, future.err

	a.mu.Lock()
	defer a.mu.Unlock()
	if token != a.current {
		remoteFetches.WithLabelValues("superseded").Inc()
		return PageResult{}, false
	}
	a.inflight = nil
	if err != nil {
		if errors.Is(err, context.Canceled) {
			remoteFetches.WithLabelValues("cancelled").Inc()
			return PageResult{}, false
		}
		remoteFetches.WithLabelValues("error").Inc()
		log.Printf("Failed to fetch remote page: %v", err)
		return PageResult{Token: token, Page: a.last, Stale: true, Err: err}, true
	}
	if page == nil {
		page = &types.Page{}
	}
	remoteFetches.WithLabelValues("ok").Inc()
	a.last = page
	return PageResult{Token: token, Page: page}, true
}

// Fetch is the blocking form of Request. A request superseded before it
// finished returns an error wrapping types.ErrSuperseded.
func (a *Adapter) Fetch(ctx context.Context, criteria types.FilterCriteria, page int) (PageResult, error) {
	type outcome struct {
		res     PageResult
		current bool
	}
	results := make(chan outcome, 1)
	future := a.request(ctx, criteria, page, func(res PageResult, current bool) {
		results <- outcome{res: res, current: current}
	})
	select {
	case out := <-results:
		if !out.current {
			return out.res, fmt.Errorf("request %d: %w", out.res.Token, types.ErrSuperseded)
		}
		return out.res, out.res.Err
	case <-ctx.Done():
		future.Cancel()
		return PageResult{}, ctx.Err()
	}
}
