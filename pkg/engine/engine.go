package engine

import (
	"context"
	"log"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/matst80/slask-tyres/pkg/facet"
	"github.com/matst80/slask-tyres/pkg/index"
	"github.com/matst80/slask-tyres/pkg/paging"
	"github.com/matst80/slask-tyres/pkg/query"
	"github.com/matst80/slask-tyres/pkg/sorting"
	"github.com/matst80/slask-tyres/pkg/state"
	"github.com/matst80/slask-tyres/pkg/suggest"
	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	memoHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slasktyres_result_memo_hits_total",
		Help: "Searches answered from the fingerprint memo",
	})
	snapshotSwaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slasktyres_snapshot_swaps_total",
		Help: "Number of record store snapshots swapped in",
	})
)

type Options struct {
	PageSize         int
	Bounds           types.AttributeBounds
	SuggestLimit     int
	SuggestCacheSize int
	MemoSize         int
}

func DefaultOptions() Options {
	return Options{
		PageSize:         paging.DefaultPageSize,
		Bounds:           types.DefaultBounds(),
		SuggestLimit:     suggest.DefaultLimit,
		SuggestCacheSize: suggest.DefaultCacheSize,
		MemoSize:         32,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PageSize <= 0 {
		o.PageSize = d.PageSize
	}
	if o.Bounds == nil {
		o.Bounds = d.Bounds
	}
	if o.SuggestLimit <= 0 {
		o.SuggestLimit = d.SuggestLimit
	}
	if o.SuggestCacheSize <= 0 {
		o.SuggestCacheSize = d.SuggestCacheSize
	}
	if o.MemoSize <= 0 {
		o.MemoSize = d.MemoSize
	}
	return o
}

// Snapshot is every index derived from one record store. It is never
// modified after it is published.
type Snapshot struct {
	Generation uint64
	Indices    *facet.IndexSet
	Suggest    *suggest.Index
}

func (s *Snapshot) Store() *index.RecordStore {
	return s.Indices.Store
}

// Canonical and HasRecord let a snapshot validate decoded state.
func (s *Snapshot) Canonical(f types.Facet, value string) (string, bool) {
	return s.Indices.Canonical(f, value)
}

func (s *Snapshot) HasRecord(id string) bool {
	return s.Indices.HasRecord(id)
}

// Query is one search request against the engine.
type Query struct {
	State          state.State
	Favorites      query.Favorites
	Ratings        sorting.Ratings
	RatingsVersion uint64
}

type Result struct {
	Records    []types.Record          `json:"records"`
	TotalCount int                     `json:"totalCount"`
	Page       paging.Info             `json:"page"`
	Ratings    map[string]types.Rating `json:"ratings,omitempty"`
	Compare    []types.Record          `json:"compare,omitempty"`
	Detail     *types.Record           `json:"detail,omitempty"`
	Positions  []uint32                `json:"-"`
}

// Engine answers searches over an atomically swapped snapshot. It is safe
// for concurrent use.
type Engine struct {
	opts       Options
	codec      *state.Codec
	executor   *query.Executor
	sorting    *sorting.Sorting
	snapshot   atomic.Pointer[Snapshot]
	generation atomic.Uint64
	memo       *suggest.LRU[string, []uint32]
}

func New(opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		opts:     opts,
		codec:    state.NewCodec(opts.Bounds),
		executor: query.NewExecutor(),
		sorting:  sorting.NewSorting(),
		memo:     suggest.NewLRU[string, []uint32](opts.MemoSize),
	}
	e.Load(nil)
	return e
}

func NewWithRecords(records []types.Record, opts Options) *Engine {
	e := New(opts)
	e.Load(records)
	return e
}

func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) Codec() *state.Codec {
	return e.codec
}

func (e *Engine) Executor() *query.Executor {
	return e.executor
}

func (e *Engine) Sorting() *sorting.Sorting {
	return e.sorting
}

// Load validates records and builds a fresh snapshot, then swaps it in.
// Readers keep the snapshot they started with.
func (e *Engine) Load(records []types.Record) *Snapshot {
	start := time.Now()
	store := index.NewRecordStore(records)
	snap := &Snapshot{
		Generation: e.generation.Add(1),
		Indices:    facet.Build(store, e.opts.Bounds),
		Suggest:    suggest.Build(store, e.opts.SuggestCacheSize),
	}
	e.snapshot.Store(snap)
	e.memo.Clear()
	snapshotSwaps.Inc()
	if len(records) > 0 {
		log.Printf("Loaded %d records (%d dropped) in %v", store.Len(), store.Dropped(), time.Since(start))
	}
	return snap
}

func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// Validator returns the current snapshot, or nil when no records are
// loaded so decoded values are kept as given.
func (e *Engine) Validator() state.Validator {
	snap := e.Snapshot()
	if snap.Store().Len() == 0 {
		return nil
	}
	return snap
}

func (e *Engine) DecodeState(values map[string]string) state.State {
	return e.codec.DecodeMap(values, e.Validator())
}

func favoritesKey(f query.Favorites) string {
	ids := make([]string, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return strings.Join(ids, ",")
}

func (e *Engine) resultKey(snap *Snapshot, q Query) string {
	crit := q.State.Criteria.Sanitize(e.opts.Bounds)
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(snap.Generation, 10))
	sb.WriteByte('|')
	sb.WriteString(e.codec.Fingerprint(state.State{Criteria: crit}))
	if crit.Favorites {
		sb.WriteString("|fav:")
		sb.WriteString(favoritesKey(q.Favorites))
	}
	if crit.Sort.UsesRatings() {
		sb.WriteString("|r:")
		sb.WriteString(strconv.FormatUint(q.RatingsVersion, 10))
	}
	return sb.String()
}

// Positions returns the filtered and sorted positions for q. Identical
// queries against the same snapshot reuse the memoized order without
// touching the indices.
func (e *Engine) Positions(ctx context.Context, q Query) (*Snapshot, []uint32) {
	snap := e.Snapshot()
	key := e.resultKey(snap, q)
	if cached, ok := e.memo.Get(key); ok {
		memoHits.Inc()
		return snap, cached
	}
	crit := q.State.Criteria.Sanitize(e.opts.Bounds)
	positions := e.executor.Execute(ctx, snap.Indices, crit, q.Favorites)
	positions = e.sorting.SortPositions(positions, snap.Store().Get, crit.Sort, q.Ratings)
	e.memo.Set(key, positions)
	return snap, positions
}

// Search runs q and returns the requested page. The page is clamped to the
// result size.
func (e *Engine) Search(ctx context.Context, q Query) Result {
	snap, positions := e.Positions(ctx, q)
	info := paging.NewInfo(q.State.Page, e.opts.PageSize, len(positions))
	pagePositions := paging.Paginate(positions, info.Page, info.PageSize)
	res := Result{
		Records:    snap.Store().Resolve(pagePositions),
		TotalCount: len(positions),
		Page:       info,
		Positions:  positions,
	}
	if len(q.Ratings) > 0 {
		res.Ratings = make(map[string]types.Rating, len(res.Records))
		for _, r := range res.Records {
			if rating, ok := q.Ratings[r.Id]; ok {
				res.Ratings[r.Id] = rating
			}
		}
	}
	res.selectFrom(q.State, snap.Store().GetById)
	return res
}

// selectFrom fills the compare set and the detail record of st using lookup.
func (res *Result) selectFrom(st state.State, lookup func(id string) (*types.Record, bool)) {
	res.Compare = nil
	res.Detail = nil
	for _, id := range st.Compare {
		if r, ok := lookup(id); ok {
			res.Compare = append(res.Compare, *r)
		}
	}
	if st.Detail != "" {
		if r, ok := lookup(st.Detail); ok {
			detail := *r
			res.Detail = &detail
		}
	}
}

// PageOf returns page of the result for q together with the total count,
// in the shape a remote provider serves.
func (e *Engine) PageOf(ctx context.Context, q Query) *types.Page {
	res := e.Search(ctx, q)
	return &types.Page{Records: res.Records, TotalCount: res.TotalCount}
}

func (e *Engine) Suggest(query string, limit int) []types.SuggestionEntry {
	if limit <= 0 {
		limit = e.opts.SuggestLimit
	}
	return e.Snapshot().Suggest.Suggest(query, limit)
}

func (e *Engine) Facets() facet.FacetResult {
	return e.Snapshot().Indices.Summary()
}

func (e *Engine) Record(id string) (*types.Record, error) {
	if r, ok := e.Snapshot().Store().GetById(id); ok {
		return r, nil
	}
	return nil, types.ErrNotFound
}
