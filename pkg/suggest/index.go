package suggest

import (
	"log"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/matst80/slask-tyres/pkg/index"
	"github.com/matst80/slask-tyres/pkg/search"
	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DefaultLimit     = 8
	DefaultCacheSize = 100

	modelScale    = 0.95
	categoryScale = 0.9
	sizeScale     = 0.85
	tagScale      = 0.8

	fuzzyMinResults   = 3
	fuzzyMinLength    = 4
	fuzzyMinScore     = 0.8
	fuzzyBrandScale   = 0.6
	fuzzyCategory     = 0.5
	scoreTieTolerance = 0.05
	minTermLength     = 2
)

var (
	suggestCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slasktyres_suggest_cache_hits_total",
		Help: "Suggestion lookups answered from the cache",
	})
	suggestCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slasktyres_suggest_cache_misses_total",
		Help: "Suggestion lookups that had to be scored",
	})
)

type entry struct {
	text      string
	brand     string
	model     string
	positions []uint32
}

func (e *entry) add(pos uint32) {
	if n := len(e.positions); n > 0 && e.positions[n-1] == pos {
		return
	}
	e.positions = append(e.positions, pos)
}

type subIndex struct {
	kind    types.SuggestionType
	entries map[string]*entry
}

func newSubIndex(kind types.SuggestionType) *subIndex {
	return &subIndex{kind: kind, entries: make(map[string]*entry)}
}

func (s *subIndex) link(display string, pos uint32) *entry {
	display = strings.TrimSpace(display)
	key := types.NormalizeValue(display)
	if key == "" {
		return nil
	}
	e, ok := s.entries[key]
	if !ok {
		e = &entry{text: display}
		s.entries[key] = e
	}
	e.add(pos)
	return e
}

type termEntry struct {
	positions  []uint32
	brands     map[string]struct{}
	categories map[string]struct{}
}

type cacheKey struct {
	query string
	limit int
}

// Index holds the type-ahead sub-indices for one record store snapshot.
// It is read-only after Build; a new snapshot gets a new Index.
type Index struct {
	brands     *subIndex
	models     *subIndex
	categories *subIndex
	sizes      *subIndex
	tags       *subIndex
	terms      map[string]*termEntry
	cache      *LRU[cacheKey, []types.SuggestionEntry]
}

func Build(store *index.RecordStore, cacheSize int) *Index {
	start := time.Now()
	idx := &Index{
		brands:     newSubIndex(types.BrandSuggestion),
		models:     newSubIndex(types.ModelSuggestion),
		categories: newSubIndex(types.CategorySuggestion),
		sizes:      newSubIndex(types.SizeSuggestion),
		tags:       newSubIndex(types.TagSuggestion),
		terms:      make(map[string]*termEntry),
		cache:      NewLRU[cacheKey, []types.SuggestionEntry](cacheSize),
	}
	tokenizer := search.Tokenizer{}
	for i, r := range store.Records() {
		pos := uint32(i)
		idx.brands.link(r.Brand, pos)
		if strings.TrimSpace(r.Model) != "" {
			if e := idx.models.link(strings.TrimSpace(r.Brand+" "+r.Model), pos); e != nil {
				e.brand = strings.TrimSpace(r.Brand)
				e.model = strings.TrimSpace(r.Model)
			}
		}
		idx.categories.link(r.Category, pos)
		idx.sizes.link(r.Size, pos)
		for _, tag := range r.TagList() {
			idx.tags.link(tag, pos)
		}

		brandKey := types.NormalizeValue(r.Brand)
		categoryKey := types.NormalizeValue(r.Category)
		idx.addTerms(tokenizer, r.Brand, pos, brandKey, "")
		idx.addTerms(tokenizer, r.Category, pos, "", categoryKey)
		idx.addTerms(tokenizer, strings.Join(append([]string{r.Model, r.Size}, r.TagList()...), " "), pos, "", "")
	}
	log.Printf("Built suggestion index: %d brands, %d models, %d terms in %v",
		len(idx.brands.entries), len(idx.models.entries), len(idx.terms), time.Since(start))
	return idx
}

func (idx *Index) addTerms(tokenizer search.Tokenizer, text string, pos uint32, brandKey, categoryKey string) {
	for _, token := range tokenizer.Tokens(text) {
		term := string(token)
		if utf8.RuneCountInString(term) < minTermLength {
			continue
		}
		te, ok := idx.terms[term]
		if !ok {
			te = &termEntry{
				brands:     make(map[string]struct{}),
				categories: make(map[string]struct{}),
			}
			idx.terms[term] = te
		}
		if n := len(te.positions); n == 0 || te.positions[n-1] != pos {
			te.positions = append(te.positions, pos)
		}
		if brandKey != "" {
			te.brands[brandKey] = struct{}{}
		}
		if categoryKey != "" {
			te.categories[categoryKey] = struct{}{}
		}
	}
}

// TermPositions returns the positions of records containing the
// normalized term.
func (idx *Index) TermPositions(term string) []uint32 {
	if te, ok := idx.terms[string(search.NormalizeWord(term))]; ok {
		return te.positions
	}
	return nil
}

// Suggest returns at most limit ranked completions for query.
func (idx *Index) Suggest(query string, limit int) []types.SuggestionEntry {
	if limit <= 0 {
		limit = DefaultLimit
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.SuggestionEntry{}
	}
	key := cacheKey{query: strings.ToLower(query), limit: limit}
	if cached, ok := idx.cache.Get(key); ok {
		suggestCacheHits.Inc()
		return slices.Clone(cached)
	}
	suggestCacheMisses.Inc()

	results := make([]types.SuggestionEntry, 0, limit*2)
	results = idx.brands.score(results, query, 1)
	results = idx.scoreModels(results, query)
	results = idx.categories.score(results, query, categoryScale)
	results = idx.sizes.score(results, query, sizeScale)
	results = idx.tags.score(results, query, tagScale)

	if len(results) < fuzzyMinResults && utf8.RuneCountInString(query) >= fuzzyMinLength {
		results = idx.fuzzy(results, query, limit-len(results))
	}

	results = rank(results)
	if len(results) > limit {
		results = results[:limit]
	}
	idx.cache.Set(key, slices.Clone(results))
	return results
}

func suggestion(kind types.SuggestionType, e *entry, score float64) types.SuggestionEntry {
	return types.SuggestionEntry{
		Type:      kind,
		Text:      e.text,
		Brand:     e.brand,
		Model:     e.model,
		Count:     len(e.positions),
		Positions: e.positions,
		Score:     score,
	}
}

func (s *subIndex) score(results []types.SuggestionEntry, query string, scale float64) []types.SuggestionEntry {
	for _, e := range s.entries {
		if score := IsGoodMatch(e.text, query) * scale; score > 0 {
			results = append(results, suggestion(s.kind, e, score))
		}
	}
	return results
}

func (idx *Index) scoreModels(results []types.SuggestionEntry, query string) []types.SuggestionEntry {
	for _, e := range idx.models.entries {
		score := max(IsGoodMatch(e.brand, query), IsGoodMatch(e.model, query), IsGoodMatch(e.text, query)) * modelScale
		if score > 0 {
			results = append(results, suggestion(types.ModelSuggestion, e, score))
		}
	}
	return results
}

// fuzzy fills up to slots suggestions from edit-distance matches against
// the combined terms.
func (idx *Index) fuzzy(results []types.SuggestionEntry, query string, slots int) []types.SuggestionEntry {
	if slots <= 0 {
		return results
	}
	q := string(search.NormalizeWord(query))
	qLen := utf8.RuneCountInString(q)
	if qLen == 0 {
		return results
	}
	candidates := make([]types.SuggestionEntry, 0)
	for term, te := range idx.terms {
		if utf8.RuneCountInString(term) < qLen {
			continue
		}
		similarity := search.Similarity(term, q)
		if similarity < fuzzyMinScore {
			continue
		}
		switch {
		case len(te.brands) > 0:
			for brandKey := range te.brands {
				if e, ok := idx.brands.entries[brandKey]; ok {
					candidates = append(candidates, suggestion(types.BrandSuggestion, e, similarity*fuzzyBrandScale))
				}
			}
		case len(te.categories) > 0:
			for categoryKey := range te.categories {
				if e, ok := idx.categories.entries[categoryKey]; ok {
					candidates = append(candidates, suggestion(types.CategorySuggestion, e, similarity*fuzzyCategory))
				}
			}
		default:
			candidates = append(candidates, types.SuggestionEntry{
				Type:      types.TermSuggestion,
				Text:      term,
				Count:     len(te.positions),
				Positions: te.positions,
				Score:     similarity * fuzzyCategory,
			})
		}
	}
	candidates = rank(candidates)
	if len(candidates) > slots {
		candidates = candidates[:slots]
	}
	return append(results, candidates...)
}

type dedupKey struct {
	kind types.SuggestionType
	text string
}

// rank keeps the best scored entry per (type, normalized text) and sorts
// by score. Scores closer than the tie tolerance order by count.
func rank(results []types.SuggestionEntry) []types.SuggestionEntry {
	best := make(map[dedupKey]int, len(results))
	ret := make([]types.SuggestionEntry, 0, len(results))
	for _, r := range results {
		k := dedupKey{kind: r.Type, text: types.NormalizeValue(r.Text)}
		if i, ok := best[k]; ok {
			if r.Score > ret[i].Score {
				ret[i] = r
			}
			continue
		}
		best[k] = len(ret)
		ret = append(ret, r)
	}
	slices.SortStableFunc(ret, compareSuggestions)
	return ret
}

func compareSuggestions(a, b types.SuggestionEntry) int {
	if math.Abs(a.Score-b.Score) < scoreTieTolerance {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
	}
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	if c := strings.Compare(string(a.Type), string(b.Type)); c != 0 {
		return c
	}
	return strings.Compare(a.Text, b.Text)
}
