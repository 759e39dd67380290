package block

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/squareup/blockexec/errors"
)

// Nulls records which positions of a block hold null. A nil *Nulls means no position is null.
type Nulls struct {
	bm *roaring.Bitmap
}

func NewNulls() *Nulls {
	return &Nulls{bm: roaring.New()}
}

func (n *Nulls) Add(pos int) {
	n.bm.Add(uint32(pos))
}

func (n *Nulls) Contains(pos int) bool {
	if n == nil {
		return false
	}
	return n.bm.Contains(uint32(pos))
}

// CountRange returns the number of nulls in [start, end)
func (n *Nulls) CountRange(start int, end int) int {
	if n == nil || start >= end {
		return 0
	}
	// Rank counts values <= x
	below := uint64(0)
	if start > 0 {
		below = n.bm.Rank(uint32(start - 1))
	}
	return int(n.bm.Rank(uint32(end-1)) - below)
}

func (n *Nulls) ToBytes() ([]byte, error) {
	b, err := n.bm.ToBytes()
	return b, errors.WithStack(err)
}

func NullsFromBytes(buff []byte) (*Nulls, error) {
	bm := roaring.New()
	if err := bm.UnmarshalBinary(buff); err != nil {
		return nil, errors.WithStack(err)
	}
	if bm.IsEmpty() {
		return nil, nil
	}
	return &Nulls{bm: bm}, nil
}
