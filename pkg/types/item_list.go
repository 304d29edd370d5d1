package types

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// ItemList is a set of record positions. The zero value is an empty list.
type ItemList struct {
	bm *roaring.Bitmap
}

func NewItemList() *ItemList {
	return &ItemList{bm: roaring.New()}
}

func FromBitmap(bm *roaring.Bitmap) *ItemList {
	if bm == nil {
		return NewItemList()
	}
	return &ItemList{bm: bm}
}

func FromPositions(ids ...uint32) *ItemList {
	return &ItemList{bm: roaring.BitmapOf(ids...)}
}

// FullItemList returns positions [0, n).
func FullItemList(n int) *ItemList {
	bm := roaring.New()
	if n > 0 {
		bm.AddRange(0, uint64(n))
	}
	return &ItemList{bm: bm}
}

func (i *ItemList) Bitmap() *roaring.Bitmap {
	if i.bm == nil {
		i.bm = roaring.New()
	}
	return i.bm
}

func (i *ItemList) AddId(id uint32) {
	i.Bitmap().Add(id)
}

func (i *ItemList) Contains(id uint32) bool {
	if i == nil || i.bm == nil {
		return false
	}
	return i.bm.Contains(id)
}

func (i *ItemList) Len() int {
	if i == nil || i.bm == nil {
		return 0
	}
	return int(i.bm.GetCardinality())
}

func (i *ItemList) Clone() *ItemList {
	if i == nil || i.bm == nil {
		return NewItemList()
	}
	return &ItemList{bm: i.bm.Clone()}
}

func (i *ItemList) Intersect(other *ItemList) {
	if other == nil || other.bm == nil {
		i.Bitmap().Clear()
		return
	}
	i.Bitmap().And(other.bm)
}

func (i *ItemList) Merge(other *ItemList) {
	if other == nil || other.bm == nil {
		return
	}
	i.Bitmap().Or(other.bm)
}

func (i *ItemList) Exclude(other *ItemList) {
	if other == nil || other.bm == nil {
		return
	}
	i.Bitmap().AndNot(other.bm)
}

// Values iterates positions in ascending order, which is record insertion order.
func (i *ItemList) Values() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		if i == nil || i.bm == nil {
			return
		}
		it := i.bm.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

func (i *ItemList) ToSlice() []uint32 {
	if i == nil || i.bm == nil {
		return []uint32{}
	}
	return i.bm.ToArray()
}
