package facet

import (
	"cmp"
	"slices"
	"strings"

	"github.com/matst80/slask-tyres/pkg/types"
)

// KeyField maps normalized categorical values to the positions carrying them.
type KeyField struct {
	Facet   types.Facet
	Keys    map[string]*types.ItemList
	display map[string]string
}

func (f *KeyField) Len() int {
	return len(f.Keys)
}

// Match returns the bucket for a value. Unknown values yield an empty list.
func (f *KeyField) Match(value string) *types.ItemList {
	ids, ok := f.Keys[types.NormalizeValue(value)]
	if !ok {
		return types.NewItemList()
	}
	return ids
}

func (f *KeyField) Has(value string) bool {
	_, ok := f.Keys[types.NormalizeValue(value)]
	return ok
}

// Canonical returns the display form of a value as first seen in the store.
func (f *KeyField) Canonical(value string) (string, bool) {
	v, ok := f.display[types.NormalizeValue(value)]
	return v, ok
}

func (f *KeyField) AddValueLink(value string, position uint32) bool {
	key := types.NormalizeValue(value)
	if key == "" {
		return false
	}
	if ids, ok := f.Keys[key]; ok {
		ids.AddId(position)
	} else {
		f.Keys[key] = types.FromPositions(position)
		f.display[key] = strings.TrimSpace(value)
	}
	return true
}

// Values lists every value with its record count, ordered by display text.
func (f *KeyField) Values() []types.FacetValue {
	ret := make([]types.FacetValue, 0, len(f.Keys))
	for key, ids := range f.Keys {
		ret = append(ret, types.FacetValue{Value: f.display[key], Count: ids.Len()})
	}
	slices.SortFunc(ret, func(a, b types.FacetValue) int {
		return cmp.Compare(strings.ToLower(a.Value), strings.ToLower(b.Value))
	})
	return ret
}

func EmptyKeyValueField(facet types.Facet) *KeyField {
	return &KeyField{
		Facet:   facet,
		Keys:    map[string]*types.ItemList{},
		display: map[string]string{},
	}
}
