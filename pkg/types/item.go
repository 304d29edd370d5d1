package types

import (
	"math"
	"regexp"
	"strings"
)

// Attribute names a numeric attribute of a Record.
type Attribute string

const (
	PriceAttribute    Attribute = "price"
	WarrantyAttribute Attribute = "warranty"
	WeightAttribute   Attribute = "weight"
	MaxLoadAttribute  Attribute = "load"
)

var NumericAttributes = []Attribute{PriceAttribute, WarrantyAttribute, WeightAttribute, MaxLoadAttribute}

// Facet names a categorical attribute usable as an exact-match filter.
type Facet string

const (
	BrandFacet    Facet = "brand"
	CategoryFacet Facet = "category"
	SizeFacet     Facet = "size"
)

var Facets = []Facet{BrandFacet, CategoryFacet, SizeFacet}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// Record is one catalog entry. Records are immutable for the lifetime of a
// store snapshot.
type Record struct {
	Id              string   `json:"id"`
	Brand           string   `json:"brand"`
	Model           string   `json:"model"`
	Size            string   `json:"size"`
	Category        string   `json:"category"`
	Price           float64  `json:"price"`
	WarrantyMiles   float64  `json:"warranty"`
	Weight          float64  `json:"weight"`
	MaxLoad         float64  `json:"maxLoad"`
	WinterRated     bool     `json:"threePeak,omitempty"`
	SpeedRating     string   `json:"speedRating,omitempty"`
	LoadRange       string   `json:"loadRange,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	EfficiencyScore float64  `json:"efficiencyScore"`
	EfficiencyGrade string   `json:"efficiencyGrade,omitempty"`
	Created         string   `json:"created,omitempty"`
}

func ValidId(id string) bool {
	return idPattern.MatchString(id)
}

func (r *Record) Validate() error {
	if r == nil || !ValidId(r.Id) {
		return ErrInvalidId
	}
	return nil
}

func (r *Record) GetId() string {
	return r.Id
}

func (r *Record) GetTitle() string {
	return strings.TrimSpace(r.Brand + " " + r.Model)
}

func (r *Record) FacetValue(f Facet) string {
	switch f {
	case BrandFacet:
		return r.Brand
	case CategoryFacet:
		return r.Category
	case SizeFacet:
		return r.Size
	}
	return ""
}

// NumberValue returns the raw value of a numeric attribute.
func (r *Record) NumberValue(attr Attribute) float64 {
	switch attr {
	case PriceAttribute:
		return r.Price
	case WarrantyAttribute:
		return r.WarrantyMiles
	case WeightAttribute:
		return r.Weight
	case MaxLoadAttribute:
		return r.MaxLoad
	}
	return 0
}

// TagList splits the raw tags on comma and pipe separators.
func (r *Record) TagList() []string {
	ret := make([]string, 0, len(r.Tags))
	for _, raw := range r.Tags {
		for part := range strings.FieldsFuncSeq(raw, func(c rune) bool { return c == ',' || c == '|' }) {
			part = strings.TrimSpace(part)
			if part != "" {
				ret = append(ret, part)
			}
		}
	}
	return ret
}

func (r *Record) hasTag(fn func(tag string) bool) bool {
	for _, tag := range r.TagList() {
		if fn(strings.ToLower(tag)) {
			return true
		}
	}
	return false
}

func (r *Record) IsEVReady() bool {
	return r.hasTag(func(tag string) bool {
		return tag == "ev" || strings.HasPrefix(tag, "ev-") || strings.HasPrefix(tag, "ev ")
	})
}

func (r *Record) IsStudded() bool {
	return r.hasTag(func(tag string) bool {
		return strings.Contains(tag, "studded")
	})
}

func (r *Record) HasOfficialReview() bool {
	return r.hasTag(func(tag string) bool {
		return strings.Contains(tag, "review")
	})
}

// Score returns the efficiency score, with invalid values coerced to 0.
func (r *Record) Score() float64 {
	return SafeNumber(r.EfficiencyScore)
}

// Grade returns the letter grade, deriving it from the score when missing.
func (r *Record) Grade() string {
	if r.EfficiencyGrade != "" {
		return r.EfficiencyGrade
	}
	score := r.Score()
	switch {
	case score >= 85:
		return "A"
	case score >= 70:
		return "B"
	case score >= 55:
		return "C"
	case score >= 40:
		return "D"
	}
	return "F"
}

func SafeNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
