package block

import (
	"testing"

	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
	"github.com/stretchr/testify/require"
)

func createBlock(t *testing.T, typ common.Type, values ...interface{}) *Block {
	t.Helper()
	builder := NewBuilder(typ, len(values))
	for _, val := range values {
		require.NoError(t, builder.AppendObject(val))
	}
	return builder.Build()
}

func blockValues(blk *Block) []interface{} {
	var values []interface{}
	cursor := blk.Cursor()
	for cursor.AdvanceNextPosition() {
		values = append(values, cursor.GetObject())
	}
	return values
}

func TestBigIntBlock(t *testing.T) {
	blk := createBlock(t, common.TypeBigInt, 1, nil, -3, int64(1<<40))
	require.Equal(t, common.TypeBigInt, blk.Type())
	require.Equal(t, 4, blk.PositionCount())
	require.Equal(t, 32, blk.DataSize())
	require.Equal(t, int64(1), blk.GetInt64(0))
	require.True(t, blk.IsNull(1))
	require.Equal(t, int64(-3), blk.GetInt64(2))
	require.Equal(t, int64(1<<40), blk.GetInt64(3))
	require.Equal(t, 1, blk.NullCount())
	require.Equal(t, []interface{}{int64(1), nil, int64(-3), int64(1 << 40)}, blockValues(blk))
}

func TestDoubleBlock(t *testing.T) {
	blk := createBlock(t, common.TypeDouble, 1.5, 2.25, nil)
	require.Equal(t, 1.5, blk.GetDouble(0))
	require.Equal(t, 2.25, blk.GetDouble(1))
	require.True(t, blk.IsNull(2))
	require.Equal(t, 8, len(blk.GetRawBytes(0)))
}

func TestVarbinaryBlock(t *testing.T) {
	blk := createBlock(t, common.TypeVarbinary, "abc", nil, "", []byte("defg"))
	require.Equal(t, 4, blk.PositionCount())
	require.Equal(t, 7, blk.DataSize())
	require.Equal(t, "abc", string(blk.GetBytes(0)))
	require.True(t, blk.IsNull(1))
	require.False(t, blk.IsNull(2))
	require.Equal(t, 0, len(blk.GetBytes(2)))
	require.Equal(t, "defg", string(blk.GetRawBytes(3)))
}

func TestBooleanBlock(t *testing.T) {
	blk := createBlock(t, common.TypeBoolean, true, false, nil)
	require.True(t, blk.GetBoolean(0))
	require.False(t, blk.GetBoolean(1))
	require.True(t, blk.IsNull(2))
}

func TestAppendWrongType(t *testing.T) {
	builder := NewBuilder(common.TypeBigInt, 1)
	require.Panics(t, func() {
		builder.AppendDouble(1.0)
	})
	require.Error(t, builder.AppendObject("foo"))
	vbuilder := NewBuilder(common.TypeVarchar, 1)
	require.Panics(t, func() {
		vbuilder.AppendInt64(1)
	})
}

func TestReadWrongType(t *testing.T) {
	blk := createBlock(t, common.TypeBigInt, 1)
	require.Panics(t, func() {
		blk.GetDouble(0)
	})
	require.Panics(t, func() {
		blk.GetBytes(0)
	})
	require.Panics(t, func() {
		blk.GetInt64(1)
	})
}

func TestBuilderReuse(t *testing.T) {
	builder := NewBuilder(common.TypeVarchar, 2)
	builder.AppendString("a")
	blk1 := builder.Build()
	require.Equal(t, 0, builder.PositionCount())
	builder.AppendString("b")
	builder.AppendString("c")
	blk2 := builder.Build()
	require.Equal(t, []interface{}{"a"}, blockValues(blk1))
	require.Equal(t, []interface{}{"b", "c"}, blockValues(blk2))
}

func TestRegion(t *testing.T) {
	blk := createBlock(t, common.TypeVarchar, "a", "bb", nil, "dddd", "e")
	region, err := blk.Region(1, 3)
	require.NoError(t, err)
	require.Equal(t, 3, region.PositionCount())
	require.Equal(t, 6, region.DataSize())
	require.Equal(t, 1, region.NullCount())
	require.Equal(t, []interface{}{"bb", nil, "dddd"}, blockValues(region))

	sub, err := region.Region(2, 1)
	require.NoError(t, err)
	require.Equal(t, []interface{}{"dddd"}, blockValues(sub))
	require.Equal(t, 0, sub.NullCount())

	same, err := blk.Region(0, 5)
	require.NoError(t, err)
	require.Same(t, blk, same)

	_, err = blk.Region(3, 3)
	require.Error(t, err)
	_, err = blk.Region(-1, 1)
	require.Error(t, err)
	require.Panics(t, func() {
		region.GetBytes(3)
	})
}

func TestFixedRegion(t *testing.T) {
	blk := createBlock(t, common.TypeBigInt, 10, 20, 30, nil, 50)
	region, err := blk.Region(2, 3)
	require.NoError(t, err)
	require.Equal(t, 24, region.DataSize())
	require.Equal(t, []interface{}{int64(30), nil, int64(50)}, blockValues(region))
}

func TestCursorBeforeAdvance(t *testing.T) {
	blk := createBlock(t, common.TypeBigInt, 1)
	cursor := blk.Cursor()
	require.Equal(t, -1, cursor.Position())
	require.False(t, cursor.IsValid())
	err := cursor.CheckReadable()
	require.True(t, errors.HasCode(err, errors.IllegalState))
	require.Panics(t, func() {
		cursor.GetInt64()
	})
}

func TestCursorAfterFinish(t *testing.T) {
	blk := createBlock(t, common.TypeBigInt, 1, 2)
	cursor := blk.Cursor()
	require.True(t, cursor.AdvanceNextPosition())
	require.Equal(t, int64(1), cursor.GetInt64())
	require.True(t, cursor.AdvanceNextPosition())
	require.Equal(t, int64(2), cursor.GetInt64())
	require.Equal(t, 1, cursor.Position())
	require.False(t, cursor.AdvanceNextPosition())
	require.True(t, cursor.IsFinished())
	require.False(t, cursor.AdvanceNextPosition())
	require.True(t, errors.HasCode(cursor.CheckReadable(), errors.IllegalState))
	require.Panics(t, func() {
		cursor.IsNull()
	})
}

func TestCursorEmptyBlock(t *testing.T) {
	blk := NewBuilder(common.TypeDouble, 0).Build()
	cursor := blk.Cursor()
	require.False(t, cursor.AdvanceNextPosition())
	require.True(t, cursor.IsFinished())
}

func TestFreshCursorRestarts(t *testing.T) {
	blk := createBlock(t, common.TypeBigInt, 1, 2, 3)
	require.Equal(t, blockValues(blk), blockValues(blk))
}

func TestAppendFromCursor(t *testing.T) {
	blk := createBlock(t, common.TypeVarbinary, "x", nil, "z")
	builder := NewBuilder(common.TypeVarbinary, 3)
	cursor := blk.Cursor()
	for cursor.AdvanceNextPosition() {
		builder.AppendFromCursor(cursor)
	}
	require.Equal(t, []interface{}{[]byte("x"), nil, []byte("z")}, blockValues(builder.Build()))
}

func TestIterableIsRestartable(t *testing.T) {
	blocks, err := Chunk(common.TypeBigInt, 2, 1, 2, 3, 4, 5)
	require.NoError(t, err)
	require.Equal(t, 3, len(blocks))
	iterable := NewIterable(common.TypeBigInt, blocks...)
	for i := 0; i < 2; i++ {
		iter, err := iterable.Iterator()
		require.NoError(t, err)
		var values []interface{}
		for {
			blk, err := iter.Next()
			require.NoError(t, err)
			if blk == nil {
				break
			}
			values = append(values, blockValues(blk)...)
		}
		require.Equal(t, []interface{}{int64(1), int64(2), int64(3), int64(4), int64(5)}, values)
	}
}
