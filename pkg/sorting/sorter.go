package sorting

import (
	"cmp"
	"math"
	"strings"

	"github.com/matst80/slask-tyres/pkg/types"
)

// Ratings maps record id to its aggregate. Missing ids rate as zero.
type Ratings map[string]types.Rating

func (r Ratings) Get(id string) types.Rating {
	if r == nil {
		return types.Rating{}
	}
	rating := r[id]
	rating.Average = types.SafeNumber(rating.Average)
	return rating
}

type Sorter interface {
	Name() types.SortKey
	Compare(a, b *types.Record, ratings Ratings) int
	UsesRatings() bool
}

// BaseSorter orders by a single numeric score. Equal scores keep their
// incoming order.
type BaseSorter struct {
	name       types.SortKey
	isReversed bool
	fn         func(item *types.Record) float64
}

func NewBaseSorter(name types.SortKey, fn func(item *types.Record) float64, isReversed bool) Sorter {
	return &BaseSorter{
		name:       name,
		isReversed: isReversed,
		fn:         fn,
	}
}

func (s *BaseSorter) Name() types.SortKey {
	return s.name
}

func (s *BaseSorter) UsesRatings() bool {
	return false
}

func (s *BaseSorter) Compare(a, b *types.Record, _ Ratings) int {
	av := types.SafeNumber(s.fn(a))
	bv := types.SafeNumber(s.fn(b))
	if s.isReversed {
		return cmp.Compare(av, bv)
	}
	return cmp.Compare(bv, av)
}

// FuncSorter wraps a full comparator.
type FuncSorter struct {
	name        types.SortKey
	usesRatings bool
	fn          func(a, b *types.Record, ratings Ratings) int
}

func NewFuncSorter(name types.SortKey, usesRatings bool, fn func(a, b *types.Record, ratings Ratings) int) Sorter {
	return &FuncSorter{name: name, usesRatings: usesRatings, fn: fn}
}

func (s *FuncSorter) Name() types.SortKey {
	return s.name
}

func (s *FuncSorter) UsesRatings() bool {
	return s.usesRatings
}

func (s *FuncSorter) Compare(a, b *types.Record, ratings Ratings) int {
	return s.fn(a, b, ratings)
}

const ratingTolerance = 0.01

// compareAverageDesc treats averages closer than the tolerance as equal.
func compareAverageDesc(a, b float64) int {
	if math.Abs(a-b) < ratingTolerance {
		return 0
	}
	return cmp.Compare(b, a)
}

func byRating(a, b *types.Record, ratings Ratings) int {
	ra, rb := ratings.Get(a.Id), ratings.Get(b.Id)
	if c := compareAverageDesc(ra.Average, rb.Average); c != 0 {
		return c
	}
	if c := cmp.Compare(rb.Count, ra.Count); c != 0 {
		return c
	}
	return strings.Compare(a.Id, b.Id)
}

func byReviewCount(a, b *types.Record, ratings Ratings) int {
	ra, rb := ratings.Get(a.Id), ratings.Get(b.Id)
	if c := cmp.Compare(rb.Count, ra.Count); c != 0 {
		return c
	}
	if c := compareAverageDesc(ra.Average, rb.Average); c != 0 {
		return c
	}
	return strings.Compare(a.Id, b.Id)
}

func byOfficialReview(a, b *types.Record, _ Ratings) int {
	ar, br := a.HasOfficialReview(), b.HasOfficialReview()
	switch {
	case ar == br:
		return 0
	case ar:
		return -1
	}
	return 1
}

func byCreatedDesc(a, b *types.Record, _ Ratings) int {
	return strings.Compare(b.Created, a.Created)
}
