package types

import "strings"

type SortKey string

const (
	SortEfficiency   SortKey = "efficiency"
	SortPriceAsc     SortKey = "price-asc"
	SortPriceDesc    SortKey = "price-desc"
	SortWarrantyDesc SortKey = "warranty-desc"
	SortWeightAsc    SortKey = "weight-asc"
	SortRatingDesc   SortKey = "rating-desc"
	SortMostReviewed SortKey = "most-reviewed"
	SortReviewed     SortKey = "reviewed"
	SortNewest       SortKey = "newest"

	DefaultSort = SortEfficiency
)

var SortKeys = []SortKey{
	SortEfficiency,
	SortPriceAsc,
	SortPriceDesc,
	SortWarrantyDesc,
	SortWeightAsc,
	SortRatingDesc,
	SortMostReviewed,
	SortReviewed,
	SortNewest,
}

// ParseSortKey maps unknown and empty keys to the default.
func ParseSortKey(value string) SortKey {
	key := SortKey(strings.ToLower(strings.TrimSpace(value)))
	if key == "default" {
		return DefaultSort
	}
	for _, k := range SortKeys {
		if k == key {
			return k
		}
	}
	return DefaultSort
}

// UsesRatings reports whether the ordering depends on rating lookups.
func (s SortKey) UsesRatings() bool {
	return s == SortRatingDesc || s == SortMostReviewed
}
