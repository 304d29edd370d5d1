package facet

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"github.com/matst80/slask-tyres/pkg/types"
)

type RangeEntry struct {
	Position uint32
	Value    float64
}

// RangeIndex is the value-sorted list of {position, value} for one numeric
// attribute. Entries are non-decreasing by value once sealed.
type RangeIndex struct {
	Attribute types.Attribute
	Bounds    types.Bounds
	entries   []RangeEntry
	clamped   int
}

func EmptyRangeIndex(attr types.Attribute, bounds types.Bounds, capacity int) *RangeIndex {
	return &RangeIndex{
		Attribute: attr,
		Bounds:    bounds,
		entries:   make([]RangeEntry, 0, capacity),
	}
}

// AddValueLink clamps out-of-bound values instead of rejecting them.
func (r *RangeIndex) AddValueLink(value float64, position uint32) {
	v := r.Bounds.Clamp(types.SafeNumber(value))
	if v != value {
		r.clamped++
	}
	r.entries = append(r.entries, RangeEntry{Position: position, Value: v})
}

func (r *RangeIndex) seal() {
	slices.SortStableFunc(r.entries, func(a, b RangeEntry) int {
		return cmp.Compare(a.Value, b.Value)
	})
}

func (r *RangeIndex) Len() int {
	return len(r.entries)
}

func (r *RangeIndex) Clamped() int {
	return r.clamped
}

func (r *RangeIndex) Entries() []RangeEntry {
	return r.entries
}

// upperIndex is the number of entries with value <= threshold.
func (r *RangeIndex) upperIndex(threshold float64) int {
	return sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].Value > threshold
	})
}

// MaxAtMost returns every position whose value is <= threshold.
func (r *RangeIndex) MaxAtMost(threshold float64) *types.ItemList {
	ret := types.NewItemList()
	if math.IsNaN(threshold) {
		return ret
	}
	end := r.upperIndex(threshold)
	for _, e := range r.entries[:end] {
		ret.AddId(e.Position)
	}
	return ret
}

// Extent returns the smallest and largest indexed values.
func (r *RangeIndex) Extent() types.Bounds {
	if len(r.entries) == 0 {
		return types.Bounds{Min: r.Bounds.Min, Max: r.Bounds.Min}
	}
	return types.Bounds{Min: r.entries[0].Value, Max: r.entries[len(r.entries)-1].Value}
}
