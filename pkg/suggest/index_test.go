package suggest

import (
	"testing"

	"github.com/matst80/slask-tyres/pkg/index"
	"github.com/matst80/slask-tyres/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGoodMatch(t *testing.T) {
	cases := []struct {
		text  string
		query string
		want  float64
	}{
		{"Michelin", "michelin", 1.0},
		{"Michelin Defender", "mich", 0.9},
		{"Michelin Defender", "def", 0.8},
		{"Pilot Sport A/S 4", "sport pil", 0.7},
		{"Defender", "fen", 0},
		{"Defender", "fend", 0.5},
		{"Defender", "xyz", 0},
		{"Defender", "", 0},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, IsGoodMatch(tc.text, tc.query), 1e-9, "%q vs %q", tc.text, tc.query)
	}
}

func michelinStore() *index.RecordStore {
	records := make([]types.Record, 0, 45)
	for i := range 35 {
		records = append(records, types.Record{
			Id:       "p" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Brand:    "Michelin",
			Model:    "Pilot",
			Category: "Summer",
			Size:     "225/45R17",
		})
	}
	for i := range 5 {
		records = append(records, types.Record{
			Id:       "d" + string(rune('a'+i)),
			Brand:    "Michelin",
			Model:    "Defender",
			Category: "All-Season",
			Size:     "215/60R16",
			Tags:     []string{"ev-ready|review"},
		})
	}
	records = append(records, types.Record{
		Id: "b1", Brand: "Bridgestone", Model: "Blizzak", Category: "Winter", Size: "205/55R16",
	})
	return index.NewRecordStore(records)
}

func TestSuggestRanksExactBrandFirst(t *testing.T) {
	idx := Build(michelinStore(), DefaultCacheSize)
	res := idx.Suggest("Michelin", DefaultLimit)
	require.NotEmpty(t, res)

	assert.Equal(t, types.BrandSuggestion, res[0].Type)
	assert.Equal(t, "Michelin", res[0].Text)
	assert.Equal(t, 40, res[0].Count)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)

	for _, r := range res[1:] {
		assert.LessOrEqual(t, r.Score, 0.95+1e-9)
	}
}

func TestSuggestModelEntries(t *testing.T) {
	idx := Build(michelinStore(), DefaultCacheSize)
	res := idx.Suggest("defender", DefaultLimit)
	require.NotEmpty(t, res)
	assert.Equal(t, types.ModelSuggestion, res[0].Type)
	assert.Equal(t, "Michelin Defender", res[0].Text)
	assert.Equal(t, "Michelin", res[0].Brand)
	assert.Equal(t, "Defender", res[0].Model)
	assert.Equal(t, 5, res[0].Count)
}

func TestSuggestShortQueryDoesNotMatchInsideWords(t *testing.T) {
	idx := Build(michelinStore(), DefaultCacheSize)
	assert.Empty(t, idx.Suggest("hel", DefaultLimit))
}

func TestSuggestLimitAndDedup(t *testing.T) {
	idx := Build(michelinStore(), DefaultCacheSize)
	res := idx.Suggest("m", 2)
	assert.Len(t, res, 2)

	seen := map[string]bool{}
	for _, r := range idx.Suggest("m", DefaultLimit) {
		key := string(r.Type) + ":" + r.Text
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
	}
}

func TestSuggestFuzzyFallback(t *testing.T) {
	idx := Build(michelinStore(), DefaultCacheSize)
	res := idx.Suggest("michelan", DefaultLimit)
	require.NotEmpty(t, res)
	assert.Equal(t, types.BrandSuggestion, res[0].Type)
	assert.Equal(t, "Michelin", res[0].Text)
	assert.InDelta(t, 0.875*0.6, res[0].Score, 1e-9)
}

func TestSuggestFuzzySkipsShortQueries(t *testing.T) {
	idx := Build(michelinStore(), DefaultCacheSize)
	assert.Empty(t, idx.Suggest("miq", DefaultLimit))
}

func TestSuggestIsCached(t *testing.T) {
	idx := Build(michelinStore(), DefaultCacheSize)
	first := idx.Suggest("Bridge", DefaultLimit)
	assert.Equal(t, 1, idx.cache.Len())
	second := idx.Suggest("bridge", DefaultLimit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, idx.cache.Len())
}

func TestTermPositions(t *testing.T) {
	idx := Build(michelinStore(), DefaultCacheSize)
	assert.Equal(t, []uint32{40}, idx.TermPositions("Blizzak"))
	assert.Len(t, idx.TermPositions("defender"), 5)
	assert.Nil(t, idx.TermPositions("x"))
}
