package facet

import (
	"log"
	"time"

	"github.com/matst80/slask-tyres/pkg/index"
	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slasktyres_facet_rebuilds_total",
		Help: "Number of full facet index rebuilds",
	})
	rebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slasktyres_facet_rebuild_seconds",
		Help:    "Duration of facet index rebuilds",
		Buckets: prometheus.DefBuckets,
	})
)

// IndexSet is every lookup structure derived from one store snapshot. It is
// read-only once built.
type IndexSet struct {
	Store  *index.RecordStore
	Keys   map[types.Facet]*KeyField
	Ranges map[types.Attribute]*RangeIndex
	Bounds types.AttributeBounds
}

// Build derives the facet and range indices in a single pass over the store.
func Build(store *index.RecordStore, bounds types.AttributeBounds) *IndexSet {
	start := time.Now()
	set := &IndexSet{
		Store:  store,
		Keys:   make(map[types.Facet]*KeyField, len(types.Facets)),
		Ranges: make(map[types.Attribute]*RangeIndex, len(types.NumericAttributes)),
		Bounds: bounds,
	}
	for _, f := range types.Facets {
		set.Keys[f] = EmptyKeyValueField(f)
	}
	for _, attr := range types.NumericAttributes {
		set.Ranges[attr] = EmptyRangeIndex(attr, bounds.Get(attr), store.Len())
	}

	for i, r := range store.Records() {
		pos := uint32(i)
		for f, field := range set.Keys {
			field.AddValueLink(r.FacetValue(f), pos)
		}
		for attr, rng := range set.Ranges {
			rng.AddValueLink(r.NumberValue(attr), pos)
		}
	}

	for attr, rng := range set.Ranges {
		rng.seal()
		if rng.Clamped() > 0 {
			log.Printf("Clamped %d %s values to %v", rng.Clamped(), attr, rng.Bounds)
		}
	}
	rebuilds.Inc()
	rebuildDuration.Observe(time.Since(start).Seconds())
	return set
}

func (s *IndexSet) Key(f types.Facet) *KeyField {
	if field, ok := s.Keys[f]; ok {
		return field
	}
	return EmptyKeyValueField(f)
}

func (s *IndexSet) Range(attr types.Attribute) (*RangeIndex, bool) {
	r, ok := s.Ranges[attr]
	return r, ok
}

func (s *IndexSet) ValidValues(f types.Facet) []types.FacetValue {
	return s.Key(f).Values()
}

// Canonical maps a categorical value to its display form when it exists in
// the snapshot.
func (s *IndexSet) Canonical(f types.Facet, value string) (string, bool) {
	return s.Key(f).Canonical(value)
}

func (s *IndexSet) HasRecord(id string) bool {
	_, ok := s.Store.Position(id)
	return ok
}

// FacetResult summarizes the indices for presentation.
type FacetResult struct {
	Values  map[types.Facet][]types.FacetValue `json:"values"`
	Extents map[types.Attribute]types.Bounds   `json:"extents"`
	Bounds  types.AttributeBounds              `json:"bounds"`
	Total   int                                `json:"total"`
}

func (s *IndexSet) Summary() FacetResult {
	res := FacetResult{
		Values:  make(map[types.Facet][]types.FacetValue, len(s.Keys)),
		Extents: make(map[types.Attribute]types.Bounds, len(s.Ranges)),
		Bounds:  s.Bounds,
		Total:   s.Store.Len(),
	}
	for f, field := range s.Keys {
		res.Values[f] = field.Values()
	}
	for attr, rng := range s.Ranges {
		res.Extents[attr] = rng.Extent()
	}
	return res
}
