package types

import (
	"math"
	"strings"
)

type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (b Bounds) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return b.Max
	}
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// AttributeBounds holds the declared {min, max} per numeric attribute. The
// max doubles as the "unset" sentinel for upper-bound filters.
type AttributeBounds map[Attribute]Bounds

func DefaultBounds() AttributeBounds {
	return AttributeBounds{
		PriceAttribute:    {Min: 0, Max: 1000},
		WarrantyAttribute: {Min: 0, Max: 100000},
		WeightAttribute:   {Min: 0, Max: 100},
		MaxLoadAttribute:  {Min: 0, Max: 5000},
	}
}

func (a AttributeBounds) Get(attr Attribute) Bounds {
	if b, ok := a[attr]; ok {
		return b
	}
	return DefaultBounds()[attr]
}

// FilterCriteria is the active query. It is rebuilt on every filter event
// and never mutated once handed to the executor.
type FilterCriteria struct {
	Search      string  `json:"search,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	Category    string  `json:"category,omitempty"`
	Size        string  `json:"size,omitempty"`
	MaxPrice    float64 `json:"price"`
	MaxWarranty float64 `json:"warranty"`
	MaxWeight   float64 `json:"weight"`
	WinterRated bool    `json:"threePeak,omitempty"`
	EV          bool    `json:"ev,omitempty"`
	Studded     bool    `json:"studded,omitempty"`
	Reviewed    bool    `json:"reviewed,omitempty"`
	Favorites   bool    `json:"favorites,omitempty"`
	Sort        SortKey `json:"sort"`
}

// NumericLimit is an active upper bound on one attribute.
type NumericLimit struct {
	Attribute Attribute
	Max       float64
}

func DefaultCriteria(bounds AttributeBounds) FilterCriteria {
	return FilterCriteria{
		MaxPrice:    bounds.Get(PriceAttribute).Max,
		MaxWarranty: bounds.Get(WarrantyAttribute).Max,
		MaxWeight:   bounds.Get(WeightAttribute).Max,
		Sort:        DefaultSort,
	}
}

func (c FilterCriteria) FacetValue(f Facet) string {
	switch f {
	case BrandFacet:
		return c.Brand
	case CategoryFacet:
		return c.Category
	case SizeFacet:
		return c.Size
	}
	return ""
}

func (c FilterCriteria) Limit(attr Attribute) float64 {
	switch attr {
	case PriceAttribute:
		return c.MaxPrice
	case WarrantyAttribute:
		return c.MaxWarranty
	case WeightAttribute:
		return c.MaxWeight
	}
	return 0
}

// WithFacet returns a copy with the facet value replaced.
func (c FilterCriteria) WithFacet(f Facet, value string) FilterCriteria {
	switch f {
	case BrandFacet:
		c.Brand = value
	case CategoryFacet:
		c.Category = value
	case SizeFacet:
		c.Size = value
	}
	return c
}

// WithLimit returns a copy with the numeric bound replaced.
func (c FilterCriteria) WithLimit(attr Attribute, value float64) FilterCriteria {
	switch attr {
	case PriceAttribute:
		c.MaxPrice = value
	case WarrantyAttribute:
		c.MaxWarranty = value
	case WeightAttribute:
		c.MaxWeight = value
	}
	return c
}

var FilterAttributes = []Attribute{PriceAttribute, WarrantyAttribute, WeightAttribute}

// ActiveLimits returns the numeric filters that constrain the result. A limit
// at or above the declared max is unset.
func (c FilterCriteria) ActiveLimits(bounds AttributeBounds) []NumericLimit {
	ret := make([]NumericLimit, 0, len(FilterAttributes))
	for _, attr := range FilterAttributes {
		v := c.Limit(attr)
		if v >= bounds.Get(attr).Max {
			continue
		}
		ret = append(ret, NumericLimit{Attribute: attr, Max: v})
	}
	return ret
}

// Sanitize clamps numeric bounds and normalizes the sort key.
func (c FilterCriteria) Sanitize(bounds AttributeBounds) FilterCriteria {
	for _, attr := range FilterAttributes {
		c = c.WithLimit(attr, bounds.Get(attr).Clamp(c.Limit(attr)))
	}
	c.Search = strings.TrimSpace(c.Search)
	c.Sort = ParseSortKey(string(c.Sort))
	return c
}

func (c FilterCriteria) HasFlags() bool {
	return c.WinterRated || c.EV || c.Studded || c.Reviewed || c.Favorites
}

// NormalizeValue lower-cases and trims a categorical value.
func NormalizeValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
