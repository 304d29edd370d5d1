package engine

import (
	"context"
	"log"
	"maps"
	"sync"
	"time"

	"github.com/matst80/slask-tyres/pkg/query"
	"github.com/matst80/slask-tyres/pkg/remote"
	"github.com/matst80/slask-tyres/pkg/schedule"
	"github.com/matst80/slask-tyres/pkg/sorting"
	"github.com/matst80/slask-tyres/pkg/state"
	"github.com/matst80/slask-tyres/pkg/types"
)

const (
	DefaultDebounce = 450 * time.Millisecond
)

// Controls whose changes are debounced before a recompute.
var textControls = []string{state.ParamSearch, state.ParamPrice, state.ParamWarranty, state.ParamWeight}

// Controls that recompute on the next frame.
var immediateControls = []string{
	state.ParamBrand, state.ParamCategory, state.ParamSize,
	state.ParamWinterRated, state.ParamEV, state.ParamStudded, state.ParamReviewed, state.ParamFavorites,
	state.ParamSort, state.ParamPage, state.ParamCompare, state.ParamDetail,
}

type SessionOption func(*Session)

func WithPresenter(p types.Presenter) SessionOption {
	return func(s *Session) { s.presenter = p }
}

func WithLocation(l types.LocationState) SessionOption {
	return func(s *Session) { s.location = l }
}

func WithRatingSource(r types.RatingSource) SessionOption {
	return func(s *Session) { s.ratingSource = r }
}

func WithScheduler(sched schedule.Scheduler) SessionOption {
	return func(s *Session) { s.sched = sched }
}

// WithRemote switches the session to remote page mode: result pages come
// from fetcher instead of the local indices.
func WithRemote(fetcher types.PageFetcher) SessionOption {
	return func(s *Session) { s.remote = remote.NewAdapter(fetcher) }
}

func WithTiming(debounce, frameSpacing time.Duration) SessionOption {
	return func(s *Session) {
		s.debounce = debounce
		s.frameSpacing = frameSpacing
	}
}

// Session is one browsing context: it owns the current state, the rating
// cache and the host collaborators, and drives the render cycle.
type Session struct {
	engine       *Engine
	presenter    types.Presenter
	location     types.LocationState
	ratingSource types.RatingSource
	remote       *remote.Adapter
	sched        schedule.Scheduler
	debounce     time.Duration
	frameSpacing time.Duration

	sync      *state.Synchronizer
	coalescer *schedule.Coalescer
	debouncer *schedule.Debouncer
	binding   types.InputBinding

	mu              sync.Mutex
	ctx             context.Context
	current         state.State
	userDriven      bool
	lastRender      string
	lastCriteria    string
	renderedOnce    bool
	favorites       query.Favorites
	ratings         sorting.Ratings
	ratingsVersion  uint64
	requestedRating map[string]struct{}
	last            Result
}

func NewSession(engine *Engine, opts ...SessionOption) *Session {
	s := &Session{
		engine:          engine,
		debounce:        DefaultDebounce,
		frameSpacing:    schedule.DefaultFrameSpacing,
		ctx:             context.Background(),
		current:         state.DefaultState(engine.Options().Bounds),
		favorites:       query.Favorites{},
		ratings:         sorting.Ratings{},
		requestedRating: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sched == nil {
		s.sched = schedule.NewRealClock()
	}
	s.sync = state.NewSynchronizer(engine.Codec(), s.location)
	s.coalescer = schedule.NewCoalescer(s.sched, s.frameSpacing, s.refreshFromBinding)
	s.debouncer = schedule.NewDebouncer(s.sched, s.debounce, s.coalescer.Request)
	return s
}

func (s *Session) Engine() *Engine {
	return s.engine
}

func (s *Session) State() state.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Last returns the most recently rendered result.
func (s *Session) Last() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Start restores the host location state and renders the first page.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	restored := s.sync.Restore(s.engine.Validator())
	s.apply(restored, false)
}

// Bind subscribes to the host controls. Text controls are debounced, the
// rest are coalesced into the next frame.
func (s *Session) Bind(binding types.InputBinding) {
	s.mu.Lock()
	s.binding = binding
	s.mu.Unlock()
	for _, id := range textControls {
		binding.OnChange(id, s.debouncer.Call)
	}
	for _, id := range immediateControls {
		binding.OnChange(id, s.coalescer.Request)
	}
}

func (s *Session) refreshFromBinding() {
	s.mu.Lock()
	binding := s.binding
	s.mu.Unlock()
	if binding == nil {
		return
	}
	values := make(map[string]string, len(textControls)+len(immediateControls))
	for _, ids := range [][]string{textControls, immediateControls} {
		for _, id := range ids {
			if v := binding.GetValue(id); v != "" {
				values[id] = v
			}
		}
	}
	s.apply(s.engine.DecodeState(values), true)
}

// Apply renders st as a user driven change.
func (s *Session) Apply(st state.State) bool {
	return s.apply(st, true)
}

// Refresh re-renders the current state as a programmatic change.
func (s *Session) Refresh() bool {
	return s.apply(s.State(), false)
}

// SetPage moves to a page of the current result.
func (s *Session) SetPage(page int) bool {
	st := s.State()
	st.Page = page
	return s.apply(st, true)
}

// SetFavorites replaces the favorite set and re-renders if the favorites
// filter is active.
func (s *Session) SetFavorites(ids ...string) {
	s.mu.Lock()
	s.favorites = query.NewFavorites(ids...)
	active := s.current.Criteria.Favorites
	if active {
		s.lastRender = ""
	}
	s.mu.Unlock()
	if active {
		s.Refresh()
	}
}

// Suggest ranks completions for text and hands them to the presenter.
func (s *Session) Suggest(text string) []types.SuggestionEntry {
	res := s.engine.Suggest(text, 0)
	if s.presenter != nil {
		s.presenter.RenderSuggestions(res)
	}
	return res
}

// renderKey covers every canonical parameter, so compare and detail changes
// render even when the result page is unchanged.
func (s *Session) renderKey(st state.State) string {
	return s.engine.Codec().Encode(st).Encode()
}

func (s *Session) criteriaKey(st state.State) string {
	return s.engine.Codec().Fingerprint(state.State{Criteria: st.Criteria})
}

// apply recomputes and renders st unless its fingerprint matches the last
// render. It reports whether anything was rendered.
func (s *Session) apply(st state.State, userDriven bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st.Criteria = st.Criteria.Sanitize(s.engine.Options().Bounds)
	criteriaKey := s.criteriaKey(st)
	criteriaChanged := s.renderedOnce && criteriaKey != s.lastCriteria

	if s.remote != nil {
		return s.applyRemote(st, userDriven, criteriaKey, criteriaChanged)
	}

	q := Query{State: st, Favorites: s.favorites, Ratings: s.ratings, RatingsVersion: s.ratingsVersion}
	_, positions := s.engine.Positions(s.ctx, q)
	st.Page = s.sync.ResolvePage(st.Page, criteriaChanged, len(positions), s.engine.Options().PageSize)

	key := s.renderKey(st)
	if s.renderedOnce && key == s.lastRender {
		s.current = st
		return false
	}
	q.State = st
	res := s.engine.Search(s.ctx, q)
	s.commit(st, res, key, criteriaKey, userDriven)
	s.requestRatings(res, st.Criteria.Sort)
	return true
}

func (s *Session) commit(st state.State, res Result, renderKey, criteriaKey string, userDriven bool) {
	s.current = st
	s.last = res
	s.lastRender = renderKey
	s.lastCriteria = criteriaKey
	if s.presenter != nil {
		s.presenter.RenderResults(res.Records)
		s.presenter.RenderCount(res.TotalCount)
	}
	s.sync.Write(st, userDriven)
	s.sync.MarkRendered()
	s.renderedOnce = true
}

func (s *Session) applyRemote(st state.State, userDriven bool, criteriaKey string, criteriaChanged bool) bool {
	if criteriaChanged {
		st.Page = 1
	}
	if st.Page < 1 {
		st.Page = 1
	}
	key := s.renderKey(st)
	if s.renderedOnce && key == s.lastRender {
		return false
	}
	s.lastRender = key
	s.current = st
	s.remote.Request(s.ctx, st.Criteria, st.Page, func(res remote.PageResult) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if res.Token != s.remote.Current() {
			// a newer request was issued while waiting for the lock
			return
		}
		if res.Stale {
			// previous page stays on screen
			if s.lastRender == key {
				s.lastRender = ""
			}
			return
		}
		result := Result{
			Records:    res.Page.Records,
			TotalCount: res.Page.TotalCount,
		}
		result.Page.Page = st.Page
		result.Page.PageSize = s.engine.Options().PageSize
		result.Page.TotalCount = res.Page.TotalCount
		result.selectFrom(st, s.remoteLookup(res.Page.Records))
		s.commit(st, result, key, criteriaKey, userDriven)
	})
	return true
}

// remoteLookup finds compare and detail records in the local snapshot, then
// in the page the provider returned.
func (s *Session) remoteLookup(page []types.Record) func(id string) (*types.Record, bool) {
	store := s.engine.Snapshot().Store()
	return func(id string) (*types.Record, bool) {
		if r, ok := store.GetById(id); ok {
			return r, true
		}
		for i := range page {
			if page[i].Id == id {
				return &page[i], true
			}
		}
		return nil, false
	}
}

// requestRatings fetches ratings the session has not asked for yet. Rating
// sorts need the whole result, otherwise only the visible page.
func (s *Session) requestRatings(res Result, sort types.SortKey) {
	if s.ratingSource == nil {
		return
	}
	var ids []string
	if sort.UsesRatings() {
		store := s.engine.Snapshot().Store()
		for _, p := range res.Positions {
			if r, ok := store.Get(p); ok {
				ids = append(ids, r.Id)
			}
		}
	} else {
		ids = sorting.RatingIds(res.Records)
	}
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, asked := s.requestedRating[id]; asked {
			continue
		}
		s.requestedRating[id] = struct{}{}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return
	}
	source := s.ratingSource
	ctx := s.ctx
	go func() {
		fetched, err := source.FetchRatings(ctx, missing)
		if err != nil {
			log.Printf("Failed to fetch ratings for %d records: %v", len(missing), err)
			s.mu.Lock()
			for _, id := range missing {
				delete(s.requestedRating, id)
			}
			s.mu.Unlock()
			return
		}
		s.mergeRatings(fetched)
	}()
}

func (s *Session) mergeRatings(fetched map[string]types.Rating) {
	if len(fetched) == 0 {
		return
	}
	s.mu.Lock()
	next := maps.Clone(s.ratings)
	maps.Copy(next, fetched)
	s.ratings = next
	s.ratingsVersion++
	s.lastRender = ""
	s.mu.Unlock()
	s.sched.Schedule(0, func() { s.Refresh() })
}

// Ratings returns the ratings fetched so far.
func (s *Session) Ratings() sorting.Ratings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratings
}
