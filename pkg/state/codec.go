package state

import (
	"log"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
	"github.com/matst80/slask-tyres/pkg/types"
)

// Canonical parameter names of the textual state.
const (
	ParamPage        = "pg"
	ParamSearch      = "search"
	ParamSize        = "size"
	ParamBrand       = "brand"
	ParamCategory    = "category"
	ParamWinterRated = "3pms"
	ParamEV          = "ev"
	ParamStudded     = "studded"
	ParamReviewed    = "reviewed"
	ParamFavorites   = "favorites"
	ParamSort        = "sort"
	ParamPrice       = "price"
	ParamWarranty    = "warranty"
	ParamWeight      = "weight"
	ParamCompare     = "compare"
	ParamDetail      = "tire"
)

const MaxCompare = 4

// State is everything the bookmarkable state carries.
type State struct {
	Criteria types.FilterCriteria
	Page     int
	Compare  []string
	Detail   string
}

func DefaultState(bounds types.AttributeBounds) State {
	return State{
		Criteria: types.DefaultCriteria(bounds),
		Page:     1,
	}
}

// Validator tells the decoder which values exist in the current snapshot.
type Validator interface {
	Canonical(f types.Facet, value string) (string, bool)
	HasRecord(id string) bool
}

type flag bool

type params struct {
	Page        string `schema:"pg,omitempty"`
	Search      string `schema:"search,omitempty"`
	Size        string `schema:"size,omitempty"`
	Brand       string `schema:"brand,omitempty"`
	Category    string `schema:"category,omitempty"`
	WinterRated flag   `schema:"3pms,omitempty"`
	EV          flag   `schema:"ev,omitempty"`
	Studded     flag   `schema:"studded,omitempty"`
	Reviewed    flag   `schema:"reviewed,omitempty"`
	Favorites   flag   `schema:"favorites,omitempty"`
	Sort        string `schema:"sort,omitempty"`
	Price       string `schema:"price,omitempty"`
	Warranty    string `schema:"warranty,omitempty"`
	Weight      string `schema:"weight,omitempty"`
	Compare     string `schema:"compare,omitempty"`
	Detail      string `schema:"tire,omitempty"`
}

// Codec converts State to and from the canonical parameter set. Fields
// equal to their default are omitted, so the default state encodes empty.
type Codec struct {
	bounds  types.AttributeBounds
	encoder *schema.Encoder
	decoder *schema.Decoder
}

func NewCodec(bounds types.AttributeBounds) *Codec {
	if bounds == nil {
		bounds = types.DefaultBounds()
	}
	encoder := schema.NewEncoder()
	encoder.RegisterEncoder(flag(false), func(v reflect.Value) string {
		if v.Bool() {
			return "1"
		}
		return ""
	})
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	decoder.RegisterConverter(flag(false), func(s string) reflect.Value {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "true", "on", "yes":
			return reflect.ValueOf(flag(true))
		}
		return reflect.ValueOf(flag(false))
	})
	return &Codec{bounds: bounds, encoder: encoder, decoder: decoder}
}

func (c *Codec) Bounds() types.AttributeBounds {
	return c.bounds
}

func (c *Codec) formatLimit(attr types.Attribute, v float64) string {
	b := c.bounds.Get(attr)
	v = b.Clamp(v)
	if v >= b.Max {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c *Codec) toParams(s State) params {
	crit := s.Criteria
	p := params{
		Search:      strings.TrimSpace(crit.Search),
		Size:        strings.TrimSpace(crit.Size),
		Brand:       strings.TrimSpace(crit.Brand),
		Category:    strings.TrimSpace(crit.Category),
		WinterRated: flag(crit.WinterRated),
		EV:          flag(crit.EV),
		Studded:     flag(crit.Studded),
		Reviewed:    flag(crit.Reviewed),
		Favorites:   flag(crit.Favorites),
		Price:       c.formatLimit(types.PriceAttribute, crit.MaxPrice),
		Warranty:    c.formatLimit(types.WarrantyAttribute, crit.MaxWarranty),
		Weight:      c.formatLimit(types.WeightAttribute, crit.MaxWeight),
		Detail:      s.Detail,
	}
	if s.Page > 1 {
		p.Page = strconv.Itoa(s.Page)
	}
	if sort := types.ParseSortKey(string(crit.Sort)); sort != types.DefaultSort {
		p.Sort = string(sort)
	}
	if len(s.Compare) > 0 {
		p.Compare = strings.Join(capCompare(s.Compare), ",")
	}
	return p
}

// Encode returns the canonical parameter set for s.
func (c *Codec) Encode(s State) url.Values {
	values := url.Values{}
	if err := c.encoder.Encode(c.toParams(s), values); err != nil {
		log.Printf("Failed to encode state: %v", err)
	}
	return values
}

func (c *Codec) EncodeMap(s State) map[string]string {
	return Flatten(c.Encode(s))
}

// Fingerprint identifies the parts of s that change a result page.
func (c *Codec) Fingerprint(s State) string {
	values := c.Encode(State{Criteria: s.Criteria, Page: s.Page})
	return values.Encode()
}

// Decode reads a parameter set. Unknown categorical values and ids are
// dropped and numeric values are clamped; decoding never fails.
func (c *Codec) Decode(values url.Values, v Validator) State {
	var p params
	if err := c.decoder.Decode(&p, values); err != nil {
		log.Printf("Ignoring malformed state parameters: %v", err)
	}
	s := DefaultState(c.bounds)
	crit := &s.Criteria
	crit.Search = strings.TrimSpace(p.Search)
	crit.Brand = validFacet(v, types.BrandFacet, p.Brand)
	crit.Category = validFacet(v, types.CategoryFacet, p.Category)
	crit.Size = validFacet(v, types.SizeFacet, p.Size)
	crit.WinterRated = bool(p.WinterRated)
	crit.EV = bool(p.EV)
	crit.Studded = bool(p.Studded)
	crit.Reviewed = bool(p.Reviewed)
	crit.Favorites = bool(p.Favorites)
	crit.Sort = types.ParseSortKey(p.Sort)
	crit.MaxPrice = c.parseLimit(types.PriceAttribute, p.Price)
	crit.MaxWarranty = c.parseLimit(types.WarrantyAttribute, p.Warranty)
	crit.MaxWeight = c.parseLimit(types.WeightAttribute, p.Weight)

	if page, err := strconv.Atoi(strings.TrimSpace(p.Page)); err == nil && page > 1 {
		s.Page = page
	}
	s.Compare = validIds(v, strings.Split(p.Compare, ","))
	if detail := strings.TrimSpace(p.Detail); hasRecord(v, detail) {
		s.Detail = detail
	}
	return s
}

func (c *Codec) DecodeMap(m map[string]string, v Validator) State {
	values := make(url.Values, len(m))
	for k, val := range m {
		values.Set(k, val)
	}
	return c.Decode(values, v)
}

func (c *Codec) parseLimit(attr types.Attribute, raw string) float64 {
	b := c.bounds.Get(attr)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return b.Max
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return b.Max
	}
	return b.Clamp(v)
}

func validFacet(v Validator, f types.Facet, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if v == nil {
		return value
	}
	if canonical, ok := v.Canonical(f, value); ok {
		return canonical
	}
	return ""
}

func hasRecord(v Validator, id string) bool {
	if !types.ValidId(id) {
		return false
	}
	return v == nil || v.HasRecord(id)
}

func validIds(v Validator, raw []string) []string {
	ret := make([]string, 0, MaxCompare)
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if !hasRecord(v, id) {
			continue
		}
		if slices.Contains(ret, id) {
			continue
		}
		ret = append(ret, id)
		if len(ret) == MaxCompare {
			break
		}
	}
	if len(ret) == 0 {
		return nil
	}
	return ret
}

func capCompare(ids []string) []string {
	if len(ids) > MaxCompare {
		return ids[:MaxCompare]
	}
	return ids
}

// Flatten keeps the first value of every parameter.
func Flatten(values url.Values) map[string]string {
	ret := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 && v[0] != "" {
			ret[k] = v[0]
		}
	}
	return ret
}
