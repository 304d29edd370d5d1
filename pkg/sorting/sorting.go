package sorting

import (
	"slices"

	"github.com/matst80/slask-tyres/pkg/types"
)

// Sorting holds the named strategies.
type Sorting struct {
	sorters map[types.SortKey]Sorter
}

func NewSorting() *Sorting {
	s := &Sorting{sorters: make(map[types.SortKey]Sorter)}
	s.AddSorter(
		NewBaseSorter(types.SortEfficiency, func(item *types.Record) float64 { return item.Score() }, false),
		NewBaseSorter(types.SortPriceAsc, func(item *types.Record) float64 { return item.Price }, true),
		NewBaseSorter(types.SortPriceDesc, func(item *types.Record) float64 { return item.Price }, false),
		NewBaseSorter(types.SortWarrantyDesc, func(item *types.Record) float64 { return item.WarrantyMiles }, false),
		NewBaseSorter(types.SortWeightAsc, func(item *types.Record) float64 { return item.Weight }, true),
		NewFuncSorter(types.SortRatingDesc, true, byRating),
		NewFuncSorter(types.SortMostReviewed, true, byReviewCount),
		NewFuncSorter(types.SortReviewed, false, byOfficialReview),
		NewFuncSorter(types.SortNewest, false, byCreatedDesc),
	)
	return s
}

func (s *Sorting) AddSorter(sorters ...Sorter) {
	for _, sorter := range sorters {
		s.sorters[sorter.Name()] = sorter
	}
}

// Get returns the sorter for key, falling back to the default strategy.
func (s *Sorting) Get(key types.SortKey) Sorter {
	if sorter, ok := s.sorters[types.ParseSortKey(string(key))]; ok {
		return sorter
	}
	return s.sorters[types.DefaultSort]
}

// SortRecords sorts records in place. The sort is stable.
func (s *Sorting) SortRecords(records []types.Record, key types.SortKey, ratings Ratings) {
	sorter := s.Get(key)
	slices.SortStableFunc(records, func(a, b types.Record) int {
		return sorter.Compare(&a, &b, ratings)
	})
}

// SortPositions returns the positions ordered by key. Positions missing
// from the store sort last.
func (s *Sorting) SortPositions(positions []uint32, get func(uint32) (*types.Record, bool), key types.SortKey, ratings Ratings) []uint32 {
	sorter := s.Get(key)
	type entry struct {
		pos    uint32
		record *types.Record
	}
	entries := make([]entry, 0, len(positions))
	for _, p := range positions {
		r, _ := get(p)
		entries = append(entries, entry{pos: p, record: r})
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.record == nil && b.record == nil:
			return 0
		case a.record == nil:
			return 1
		case b.record == nil:
			return -1
		}
		return sorter.Compare(a.record, b.record, ratings)
	})
	ret := make([]uint32, len(entries))
	for i, e := range entries {
		ret[i] = e.pos
	}
	return ret
}
