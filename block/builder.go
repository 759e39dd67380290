package block

import (
	"fmt"

	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// Builder appends values to a new Block. A Builder is not safe for concurrent use.
type Builder struct {
	typ       common.Type
	positions int
	fixed     []byte
	offsets   []uint32
	data      []byte
	nulls     *Nulls
}

func NewBuilder(typ common.Type, expectedPositions int) *Builder {
	b := &Builder{typ: typ}
	b.reset(expectedPositions)
	return b
}

func (b *Builder) reset(expectedPositions int) {
	b.positions = 0
	b.nulls = nil
	if size := b.typ.FixedSize(); size > 0 {
		b.fixed = make([]byte, 0, expectedPositions*size)
		b.offsets = nil
		b.data = nil
	} else {
		b.fixed = nil
		b.offsets = make([]uint32, 1, expectedPositions+1)
		b.data = make([]byte, 0, expectedPositions*16)
	}
}

func (b *Builder) Type() common.Type {
	return b.typ
}

func (b *Builder) PositionCount() int {
	return b.positions
}

func (b *Builder) AppendNull() {
	if b.nulls == nil {
		b.nulls = NewNulls()
	}
	b.nulls.Add(b.positions)
	if size := b.typ.FixedSize(); size > 0 {
		for i := 0; i < size; i++ {
			b.fixed = append(b.fixed, 0)
		}
	} else {
		b.offsets = append(b.offsets, uint32(len(b.data)))
	}
	b.positions++
}

func (b *Builder) AppendInt64(val int64) {
	b.checkType(common.TypeBigInt)
	b.fixed = common.AppendInt64ToBufferLE(b.fixed, val)
	b.positions++
}

func (b *Builder) AppendDouble(val float64) {
	b.checkType(common.TypeDouble)
	b.fixed = common.AppendFloat64ToBufferLE(b.fixed, val)
	b.positions++
}

func (b *Builder) AppendBoolean(val bool) {
	b.checkType(common.TypeBoolean)
	var v byte
	if val {
		v = 1
	}
	b.fixed = append(b.fixed, v)
	b.positions++
}

func (b *Builder) AppendBytes(val []byte) {
	if b.typ.IsFixedWidth() {
		panic(errors.NewIllegalStateError(fmt.Sprintf("cannot append bytes to %s builder", b.typ)))
	}
	b.data = append(b.data, val...)
	b.offsets = append(b.offsets, uint32(len(b.data)))
	b.positions++
}

func (b *Builder) AppendString(val string) {
	b.AppendBytes(common.StringToByteSliceZeroCopy(val))
}

// AppendRaw appends the stored representation of a value as returned by Block.GetRawBytes
func (b *Builder) AppendRaw(raw []byte) {
	if size := b.typ.FixedSize(); size > 0 {
		if len(raw) != size {
			panic(errors.NewIllegalStateError(fmt.Sprintf("raw %s value must be %d bytes, got %d", b.typ, size, len(raw))))
		}
		b.fixed = append(b.fixed, raw...)
		b.positions++
		return
	}
	b.AppendBytes(raw)
}

// AppendFromCursor copies the value at the current position of the cursor
func (b *Builder) AppendFromCursor(cursor *Cursor) {
	if cursor.IsNull() {
		b.AppendNull()
		return
	}
	b.AppendRaw(cursor.GetRawBytes())
}

// AppendFrom copies the value at position pos of blk
func (b *Builder) AppendFrom(blk *Block, pos int) {
	if blk.IsNull(pos) {
		b.AppendNull()
		return
	}
	b.AppendRaw(blk.GetRawBytes(pos))
}

// AppendObject appends a Go value, nil appends a null. Numeric Go types are converted to the builder type.
func (b *Builder) AppendObject(val interface{}) error { //nolint:gocyclo
	if val == nil {
		b.AppendNull()
		return nil
	}
	switch b.typ {
	case common.TypeBoolean:
		v, ok := val.(bool)
		if !ok {
			return errors.Errorf("expected bool for %s but got %T", b.typ, val)
		}
		b.AppendBoolean(v)
	case common.TypeBigInt:
		switch v := val.(type) {
		case int:
			b.AppendInt64(int64(v))
		case int32:
			b.AppendInt64(int64(v))
		case int64:
			b.AppendInt64(v)
		default:
			return errors.Errorf("expected integer for %s but got %T", b.typ, val)
		}
	case common.TypeDouble:
		switch v := val.(type) {
		case float64:
			b.AppendDouble(v)
		case float32:
			b.AppendDouble(float64(v))
		case int:
			b.AppendDouble(float64(v))
		default:
			return errors.Errorf("expected float for %s but got %T", b.typ, val)
		}
	case common.TypeVarbinary, common.TypeVarchar:
		switch v := val.(type) {
		case string:
			b.AppendString(v)
		case []byte:
			b.AppendBytes(v)
		default:
			return errors.Errorf("expected string or []byte for %s but got %T", b.typ, val)
		}
	default:
		return errors.Errorf("unexpected type %s", b.typ)
	}
	return nil
}

// Build returns the Block and resets the builder so it can be reused
func (b *Builder) Build() *Block {
	blk := &Block{
		typ:       b.typ,
		positions: b.positions,
		fixed:     b.fixed,
		offsets:   b.offsets,
		data:      b.data,
		nulls:     b.nulls,
	}
	b.reset(b.positions)
	return blk
}

func (b *Builder) checkType(typ common.Type) {
	if b.typ != typ {
		panic(errors.NewIllegalStateError(fmt.Sprintf("cannot append %s to %s builder", typ, b.typ)))
	}
}
