package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matst80/slask-tyres/pkg/common/jsoncompat"
	"github.com/matst80/slask-tyres/pkg/state"
	"github.com/matst80/slask-tyres/pkg/types"
	"golang.org/x/time/rate"
)

// HttpFetcher requests pages from another instance's page endpoint. The
// criteria travel as the canonical state parameters.
type HttpFetcher struct {
	url         string
	codec       *state.Codec
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewHttpFetcher(url string, codec *state.Codec, requestsPerSecond float64, burst int) *HttpFetcher {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &HttpFetcher{
		url:         url,
		codec:       codec,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		rateLimiter: rate.NewLimiter(limit, burst),
	}
}

func (f *HttpFetcher) FetchPage(ctx context.Context, criteria types.FilterCriteria, page int) (*types.Page, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	params := f.codec.Encode(state.State{Criteria: criteria, Page: page})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote page request failed with status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var result types.Page
	if err := jsoncompat.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode remote page: %w", err)
	}
	return &result, nil
}
