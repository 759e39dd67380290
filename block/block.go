package block

import (
	"fmt"

	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// Block is an immutable sequence of values of a single type, addressed by position 0..PositionCount()-1.
//
// Fixed width values are stored back to back in little endian order, so a value is located with a single
// multiplication. Variable width values are stored in a shared data buffer delimited by an offsets array.
// A Block may be a region of a larger backing block, in which case it shares the backing storage.
type Block struct {
	typ       common.Type
	offset    int
	positions int
	fixed     []byte
	offsets   []uint32
	data      []byte
	nulls     *Nulls
}

func (b *Block) Type() common.Type {
	return b.typ
}

func (b *Block) PositionCount() int {
	return b.positions
}

// DataSize returns the number of value bytes covered by this block
func (b *Block) DataSize() int {
	if b.typ.IsFixedWidth() {
		return b.positions * b.typ.FixedSize()
	}
	return int(b.offsets[b.offset+b.positions] - b.offsets[b.offset])
}

func (b *Block) Cursor() *Cursor {
	return &Cursor{block: b, position: -1}
}

// Region returns a view of length positions starting at offset. No data is copied.
func (b *Block) Region(offset int, length int) (*Block, error) {
	if offset < 0 || length < 0 || offset+length > b.positions {
		return nil, errors.Errorf("invalid region offset %d length %d for block with %d positions", offset, length, b.positions)
	}
	if offset == 0 && length == b.positions {
		return b, nil
	}
	region := *b
	region.offset = b.offset + offset
	region.positions = length
	return &region, nil
}

func (b *Block) IsNull(pos int) bool {
	return b.nulls.Contains(b.index(pos))
}

// NullCount returns the number of null positions in the block
func (b *Block) NullCount() int {
	return b.nulls.CountRange(b.offset, b.offset+b.positions)
}

func (b *Block) GetInt64(pos int) int64 {
	b.checkType(common.TypeBigInt)
	val, _ := common.ReadInt64FromBufferLE(b.fixed, b.index(pos)*common.SizeOfInt64)
	return val
}

func (b *Block) GetDouble(pos int) float64 {
	b.checkType(common.TypeDouble)
	val, _ := common.ReadFloat64FromBufferLE(b.fixed, b.index(pos)*common.SizeOfFloat64)
	return val
}

func (b *Block) GetBoolean(pos int) bool {
	b.checkType(common.TypeBoolean)
	return b.fixed[b.index(pos)] != 0
}

// GetBytes returns the value of a VARBINARY or VARCHAR position. The returned slice must not be modified.
func (b *Block) GetBytes(pos int) []byte {
	if b.typ.IsFixedWidth() {
		panic(errors.NewIllegalStateError(fmt.Sprintf("cannot read bytes from %s block", b.typ)))
	}
	idx := b.index(pos)
	return b.data[b.offsets[idx]:b.offsets[idx+1]]
}

func (b *Block) GetString(pos int) string {
	return string(b.GetBytes(pos))
}

// GetRawBytes returns the stored bytes of a position regardless of type. For fixed width types this is the
// little endian encoding of the value.
func (b *Block) GetRawBytes(pos int) []byte {
	idx := b.index(pos)
	if size := b.typ.FixedSize(); size > 0 {
		return b.fixed[idx*size : (idx+1)*size]
	}
	return b.data[b.offsets[idx]:b.offsets[idx+1]]
}

// GetObject returns the value of a position as a Go value, or nil for null. Intended for tests and reporting,
// operators use the typed accessors.
func (b *Block) GetObject(pos int) interface{} {
	if b.IsNull(pos) {
		return nil
	}
	switch b.typ {
	case common.TypeBoolean:
		return b.GetBoolean(pos)
	case common.TypeBigInt:
		return b.GetInt64(pos)
	case common.TypeDouble:
		return b.GetDouble(pos)
	case common.TypeVarchar:
		return b.GetString(pos)
	default:
		return common.CopyByteSlice(b.GetBytes(pos))
	}
}

func (b *Block) String() string {
	return fmt.Sprintf("block[type=%s,positions=%d]", b.typ, b.positions)
}

func (b *Block) index(pos int) int {
	if pos < 0 || pos >= b.positions {
		panic(errors.NewIllegalStateError(fmt.Sprintf("position %d out of range for block with %d positions", pos, b.positions)))
	}
	return b.offset + pos
}

func (b *Block) checkType(typ common.Type) {
	if b.typ != typ {
		panic(errors.NewIllegalStateError(fmt.Sprintf("cannot read %s from %s block", typ, b.typ)))
	}
}
