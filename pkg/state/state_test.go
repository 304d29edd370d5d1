package state

import (
	"net/url"
	"testing"

	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	values map[types.Facet]map[string]string
	ids    map[string]bool
}

func (f fakeValidator) Canonical(facet types.Facet, value string) (string, bool) {
	v, ok := f.values[facet][types.NormalizeValue(value)]
	return v, ok
}

func (f fakeValidator) HasRecord(id string) bool {
	return f.ids[id]
}

var validator = fakeValidator{
	values: map[types.Facet]map[string]string{
		types.BrandFacet:    {"acme": "Acme", "zeta": "Zeta"},
		types.CategoryFacet: {"winter": "Winter"},
		types.SizeFacet:     {"225/45r17": "225/45R17"},
	},
	ids: map[string]bool{"t1": true, "t2": true, "t3": true, "t4": true, "t5": true},
}

func TestDefaultStateEncodesEmpty(t *testing.T) {
	c := NewCodec(types.DefaultBounds())
	assert.Empty(t, c.EncodeMap(DefaultState(c.Bounds())))
}

func TestEncodeCanonicalNames(t *testing.T) {
	c := NewCodec(types.DefaultBounds())
	s := DefaultState(c.Bounds())
	s.Criteria.Search = " defender "
	s.Criteria.Brand = "Acme"
	s.Criteria.Category = "Winter"
	s.Criteria.Size = "225/45R17"
	s.Criteria.WinterRated = true
	s.Criteria.EV = true
	s.Criteria.Studded = true
	s.Criteria.Reviewed = true
	s.Criteria.Favorites = true
	s.Criteria.Sort = types.SortPriceAsc
	s.Criteria.MaxPrice = 250.5
	s.Criteria.MaxWarranty = 60000
	s.Criteria.MaxWeight = 12
	s.Page = 3
	s.Compare = []string{"t1", "t2"}
	s.Detail = "t3"

	assert.Equal(t, map[string]string{
		"pg":        "3",
		"search":    "defender",
		"size":      "225/45R17",
		"brand":     "Acme",
		"category":  "Winter",
		"3pms":      "1",
		"ev":        "1",
		"studded":   "1",
		"reviewed":  "1",
		"favorites": "1",
		"sort":      "price-asc",
		"price":     "250.5",
		"warranty":  "60000",
		"weight":    "12",
		"compare":   "t1,t2",
		"tire":      "t3",
	}, c.EncodeMap(s))
}

func TestRoundTrip(t *testing.T) {
	c := NewCodec(types.DefaultBounds())
	s := DefaultState(c.Bounds())
	s.Criteria.Brand = "Acme"
	s.Criteria.EV = true
	s.Criteria.MaxPrice = 99
	s.Criteria.Sort = types.SortRatingDesc
	s.Page = 2
	s.Compare = []string{"t1", "t4"}

	got := c.Decode(c.Encode(s), validator)
	assert.Equal(t, "Acme", got.Criteria.Brand)
	assert.True(t, got.Criteria.EV)
	assert.False(t, got.Criteria.Studded)
	assert.Equal(t, 99.0, got.Criteria.MaxPrice)
	assert.Equal(t, c.Bounds().Get(types.WeightAttribute).Max, got.Criteria.MaxWeight)
	assert.Equal(t, types.SortRatingDesc, got.Criteria.Sort)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, []string{"t1", "t4"}, got.Compare)
	assert.Equal(t, c.Fingerprint(s), c.Fingerprint(got))
}

func TestDecodeDropsInvalidValues(t *testing.T) {
	c := NewCodec(types.DefaultBounds())
	values := url.Values{
		"brand":    {"Unknown"},
		"category": {"WINTER"},
		"price":    {"5000"},
		"weight":   {"heavy"},
		"warranty": {"-20"},
		"sort":     {"cheapest"},
		"pg":       {"zero"},
		"ev":       {"0"},
		"studded":  {"1"},
		"compare":  {"t1,bad id,t9,t1,t2,t3,t4,t5"},
		"tire":     {"nope"},
		"other":    {"x"},
	}
	got := c.Decode(values, validator)
	assert.Equal(t, "", got.Criteria.Brand)
	assert.Equal(t, "Winter", got.Criteria.Category)
	assert.Equal(t, 1000.0, got.Criteria.MaxPrice)
	assert.Equal(t, 100.0, got.Criteria.MaxWeight)
	assert.Equal(t, 0.0, got.Criteria.MaxWarranty)
	assert.Equal(t, types.DefaultSort, got.Criteria.Sort)
	assert.Equal(t, 1, got.Page)
	assert.False(t, got.Criteria.EV)
	assert.True(t, got.Criteria.Studded)
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, got.Compare)
	assert.Equal(t, "", got.Detail)
}

func TestFingerprintIgnoresCompare(t *testing.T) {
	c := NewCodec(types.DefaultBounds())
	a := DefaultState(c.Bounds())
	b := a
	b.Compare = []string{"t1"}
	assert.Equal(t, c.Fingerprint(a), c.Fingerprint(b))
	b.Page = 2
	assert.NotEqual(t, c.Fingerprint(a), c.Fingerprint(b))
}

func TestSynchronizerHistoryModes(t *testing.T) {
	loc := NewMemoryLocation(map[string]string{"brand": "acme", "pg": "4"})
	sync := NewSynchronizer(NewCodec(types.DefaultBounds()), loc)

	restored := sync.Restore(validator)
	assert.Equal(t, "Acme", restored.Criteria.Brand)
	assert.Equal(t, 4, restored.Page)

	page := sync.ResolvePage(restored.Page, true, 30, 12)
	assert.Equal(t, 3, page, "restored page is clamped, not reset")
	restored.Page = page

	mode, written := sync.Write(restored, false)
	assert.True(t, written)
	assert.Equal(t, types.HistoryReplace, mode)
	sync.MarkRendered()

	_, written = sync.Write(restored, true)
	assert.False(t, written, "unchanged state is not written again")

	next := restored
	next.Criteria.Brand = "Zeta"
	next.Page = sync.ResolvePage(3, true, 30, 12)
	assert.Equal(t, 1, next.Page)
	mode, written = sync.Write(next, true)
	assert.True(t, written)
	assert.Equal(t, types.HistoryPush, mode)

	history := loc.History()
	require.Len(t, history, 2)
	assert.Equal(t, map[string]string{"brand": "Acme", "pg": "3"}, history[0])
	assert.Equal(t, map[string]string{"brand": "Zeta"}, history[1])
	assert.Equal(t, []types.HistoryMode{types.HistoryReplace, types.HistoryPush}, loc.Modes())
}

func TestProgrammaticWriteReplaces(t *testing.T) {
	loc := NewMemoryLocation(nil)
	sync := NewSynchronizer(NewCodec(nil), loc)
	sync.MarkRendered()
	s := DefaultState(types.DefaultBounds())
	s.Criteria.Search = "ice"
	mode, _ := sync.Write(s, false)
	assert.Equal(t, types.HistoryReplace, mode)
	assert.Len(t, loc.History(), 1)
}
