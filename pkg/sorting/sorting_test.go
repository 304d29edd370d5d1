package sorting

import (
	"fmt"
	"math"
	"testing"

	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/stretchr/testify/assert"
)

func ids(records []types.Record) []string {
	ret := make([]string, len(records))
	for i, r := range records {
		ret[i] = r.Id
	}
	return ret
}

func TestPriceSorts(t *testing.T) {
	s := NewSorting()
	records := []types.Record{
		{Id: "t1", Brand: "Acme", Price: 120},
		{Id: "t2", Brand: "Acme", Price: 90},
		{Id: "t3", Brand: "Zeta", Price: 150},
	}
	s.SortRecords(records, types.SortPriceDesc, nil)
	assert.Equal(t, []string{"t3", "t1", "t2"}, ids(records))

	s.SortRecords(records, types.SortPriceAsc, nil)
	assert.Equal(t, []string{"t2", "t1", "t3"}, ids(records))
	for i := 1; i < len(records); i++ {
		if records[i-1].Price > records[i].Price {
			t.Errorf("price-asc out of order at %d", i)
		}
	}
}

func TestInvalidNumbersSortAsZero(t *testing.T) {
	s := NewSorting()
	records := []types.Record{
		{Id: "a", EfficiencyScore: math.NaN()},
		{Id: "b", EfficiencyScore: 10},
		{Id: "c", EfficiencyScore: -5},
	}
	s.SortRecords(records, types.SortEfficiency, nil)
	assert.Equal(t, []string{"b", "a", "c"}, ids(records))
}

func TestUnknownKeyUsesDefault(t *testing.T) {
	s := NewSorting()
	assert.Equal(t, types.SortEfficiency, s.Get("bogus").Name())
	assert.Equal(t, types.SortWeightAsc, s.Get("weight-asc").Name())
}

func TestRatingDescTieBreaks(t *testing.T) {
	s := NewSorting()
	ratings := Ratings{
		"a": {Average: 4.501, Count: 3},
		"b": {Average: 4.5, Count: 10},
		"c": {Average: 4.5, Count: 10},
		"d": {Average: 4.9, Count: 1},
	}
	records := []types.Record{{Id: "c"}, {Id: "a"}, {Id: "e"}, {Id: "b"}, {Id: "d"}}
	s.SortRecords(records, types.SortRatingDesc, ratings)
	assert.Equal(t, []string{"d", "b", "c", "a", "e"}, ids(records))

	again := []types.Record{{Id: "b"}, {Id: "e"}, {Id: "a"}, {Id: "d"}, {Id: "c"}}
	s.SortRecords(again, types.SortRatingDesc, ratings)
	assert.Equal(t, ids(records), ids(again), "repeated sorts must agree")
}

func TestMostReviewed(t *testing.T) {
	s := NewSorting()
	ratings := Ratings{
		"a": {Average: 3, Count: 7},
		"b": {Average: 4, Count: 7},
		"c": {Average: 5, Count: 2},
	}
	records := []types.Record{{Id: "c"}, {Id: "a"}, {Id: "b"}}
	s.SortRecords(records, types.SortMostReviewed, ratings)
	assert.Equal(t, []string{"b", "a", "c"}, ids(records))
}

func TestReviewedIsStable(t *testing.T) {
	s := NewSorting()
	records := []types.Record{
		{Id: "a"},
		{Id: "b", Tags: []string{"Official Review"}},
		{Id: "c"},
		{Id: "d", Tags: []string{"winter|review-2024"}},
	}
	s.SortRecords(records, types.SortReviewed, nil)
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(records))
}

func TestNewest(t *testing.T) {
	s := NewSorting()
	records := []types.Record{
		{Id: "a", Created: "2024-01-02T00:00:00Z"},
		{Id: "b", Created: "2024-03-01T00:00:00Z"},
		{Id: "c", Created: ""},
	}
	s.SortRecords(records, types.SortNewest, nil)
	assert.Equal(t, []string{"b", "a", "c"}, ids(records))
}

func TestSortPositions(t *testing.T) {
	s := NewSorting()
	records := []types.Record{
		{Id: "t1", Price: 120},
		{Id: "t2", Price: 90},
		{Id: "t3", Price: 150},
	}
	get := func(p uint32) (*types.Record, bool) {
		if int(p) >= len(records) {
			return nil, false
		}
		return &records[p], true
	}
	got := s.SortPositions([]uint32{0, 9, 1, 2}, get, types.SortPriceAsc, nil)
	assert.Equal(t, []uint32{1, 0, 2, 9}, got)
	assert.True(t, s.IsSorted(records[1:2], types.SortPriceAsc, nil))
}

func BenchmarkSortPriceAsc(b *testing.B) {
	s := NewSorting()
	base := make([]types.Record, 10000)
	for i := range base {
		base[i] = types.Record{Id: fmt.Sprintf("r%d", i), Price: float64((i * 7919) % 1000)}
	}
	records := make([]types.Record, len(base))
	b.ReportAllocs()
	for b.Loop() {
		copy(records, base)
		s.SortRecords(records, types.SortPriceAsc, nil)
	}
}
