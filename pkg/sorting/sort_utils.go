package sorting

import (
	"github.com/matst80/slask-tyres/pkg/types"
)

// IsSorted reports whether records already follow key.
func (s *Sorting) IsSorted(records []types.Record, key types.SortKey, ratings Ratings) bool {
	sorter := s.Get(key)
	for i := 1; i < len(records); i++ {
		if sorter.Compare(&records[i-1], &records[i], ratings) > 0 {
			return false
		}
	}
	return true
}

// RatingIds returns the ids a rating-dependent sort needs.
func RatingIds(records []types.Record) []string {
	ids := make([]string, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].Id)
	}
	return ids
}
