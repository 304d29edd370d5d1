package query

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/matst80/slask-tyres/pkg/facet"
	"github.com/matst80/slask-tyres/pkg/search"
	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	executions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slasktyres_query_executions_total",
		Help: "Number of index queries executed",
	})
	executionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slasktyres_query_duration_seconds",
		Help:    "Duration of index queries including the residual pass",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
)

// Favorites is the host supplied set of favorite record ids.
type Favorites map[string]struct{}

func NewFavorites(ids ...string) Favorites {
	f := make(Favorites, len(ids))
	for _, id := range ids {
		f[id] = struct{}{}
	}
	return f
}

func (f Favorites) Has(id string) bool {
	_, ok := f[id]
	return ok
}

// Executor turns filter criteria into the matching record positions.
type Executor struct {
	calls atomic.Int64
}

func NewExecutor() *Executor {
	return &Executor{}
}

// Calls reports how many times Execute ran an index query.
func (e *Executor) Calls() int64 {
	return e.calls.Load()
}

// Execute intersects the facet buckets and range results for every active
// filter, then applies flags and free text to the survivors. Positions are
// returned in ascending store order.
func (e *Executor) Execute(ctx context.Context, set *facet.IndexSet, criteria types.FilterCriteria, favorites Favorites) []uint32 {
	start := time.Now()
	e.calls.Add(1)
	executions.Inc()
	defer func() {
		executionDuration.Observe(time.Since(start).Seconds())
	}()

	result := e.candidates(ctx, set, criteria)
	ret := make([]uint32, 0, result.Len())
	for pos := range result.Values() {
		record, ok := set.Store.Get(pos)
		if !ok {
			continue
		}
		if matchesResidual(record, criteria, favorites) {
			ret = append(ret, pos)
		}
	}
	return ret
}

func (e *Executor) candidates(ctx context.Context, set *facet.IndexSet, criteria types.FilterCriteria) *types.ItemList {
	result := types.NewItemList()
	qm := types.NewQueryMerger(ctx, result)
	for _, f := range types.Facets {
		value := criteria.FacetValue(f)
		if value == "" {
			continue
		}
		field := set.Key(f)
		qm.Add(func(ctx context.Context) *types.ItemList {
			return field.Match(value)
		})
	}
	for _, limit := range criteria.ActiveLimits(set.Bounds) {
		rng, ok := set.Range(limit.Attribute)
		if !ok {
			continue
		}
		qm.Add(func(ctx context.Context) *types.ItemList {
			return rng.MaxAtMost(limit.Max)
		})
	}
	if !qm.Wait() {
		return set.Store.All()
	}
	return result
}

func matchesResidual(record *types.Record, criteria types.FilterCriteria, favorites Favorites) bool {
	if criteria.WinterRated && !record.WinterRated {
		return false
	}
	if criteria.EV && !record.IsEVReady() {
		return false
	}
	if criteria.Studded && !record.IsStudded() {
		return false
	}
	if criteria.Reviewed && !record.HasOfficialReview() {
		return false
	}
	if criteria.Favorites && !favorites.Has(record.Id) {
		return false
	}
	if criteria.Search != "" && !search.MatchesRecordText(record.Brand, record.Model, criteria.Search) {
		return false
	}
	return true
}
