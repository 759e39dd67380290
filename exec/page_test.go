package exec

import (
	"testing"

	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
	"github.com/stretchr/testify/require"
)

func TestNewPageRequiresEqualLengths(t *testing.T) {
	b1, err := block.Chunk(common.TypeBigInt, 10, int64s(1, 2, 3)...)
	require.NoError(t, err)
	b2, err := block.Chunk(common.TypeVarchar, 10, "a", "b")
	require.NoError(t, err)
	_, err = NewPage(b1[0], b2[0])
	require.True(t, errors.HasCode(err, errors.AlignmentError))
}

func TestPageRegion(t *testing.T) {
	types := []common.Type{common.TypeBigInt, common.TypeVarchar}
	pages, err := RowsToPages(types, 10, [][]interface{}{
		{int64(1), "a"},
		{int64(2), nil},
		{int64(3), "c"},
		{nil, "d"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, len(pages))
	page := pages[0]
	require.Equal(t, 2, page.ChannelCount())
	require.Equal(t, 4, page.PositionCount())
	require.Equal(t, types, page.Types())

	region, err := page.Region(1, 3)
	require.NoError(t, err)
	require.Equal(t, 3, region.PositionCount())
	require.Equal(t, [][]interface{}{
		{int64(2), nil},
		{int64(3), "c"},
		{nil, "d"},
	}, PagesToRows([]*Page{region}))

	_, err = page.Region(2, 3)
	require.Error(t, err)
}

func TestRowsToPagesSplitsPages(t *testing.T) {
	types := []common.Type{common.TypeBigInt}
	var rows [][]interface{}
	for i := 0; i < 7; i++ {
		rows = append(rows, int64s(i))
	}
	pages, err := RowsToPages(types, 3, rows)
	require.NoError(t, err)
	require.Equal(t, 3, len(pages))
	require.Equal(t, 3, pages[0].PositionCount())
	require.Equal(t, 1, pages[2].PositionCount())
	require.Equal(t, rows, PagesToRows(pages))

	_, err = RowsToPages(types, 3, [][]interface{}{{int64(1), int64(2)}})
	require.Error(t, err)
}

func TestStaticOperatorIsReiterable(t *testing.T) {
	types := []common.Type{common.TypeBigInt, common.TypeDouble}
	rows := [][]interface{}{{int64(1), 1.5}, {int64(2), nil}, {nil, 2.5}}
	op := staticOperator(t, types, 2, rows)
	require.Equal(t, 2, op.ChannelCount())
	for i := 0; i < 2; i++ {
		stats := NewInMemoryOperatorStats()
		actual, err := CollectRows(op, stats)
		require.NoError(t, err)
		require.Equal(t, rows, actual)
		require.Equal(t, int64(3), stats.OutputPositions())
		require.Equal(t, int64(2), stats.OutputPages())
		require.True(t, stats.IsFinished())
	}
}

func TestStaticOperatorChecksTypes(t *testing.T) {
	pages, err := RowsToPages([]common.Type{common.TypeBigInt}, 2, [][]interface{}{int64s(1)})
	require.NoError(t, err)
	_, err = NewStaticOperator([]common.Type{common.TypeDouble}, pages...)
	require.True(t, errors.HasCode(err, errors.TypeMismatch))
}

func TestNextPastEnd(t *testing.T) {
	op := staticOperator(t, []common.Type{common.TypeBigInt}, 2, nil)
	iter, err := op.Iterator(NewInMemoryOperatorStats())
	require.NoError(t, err)
	hasNext, err := iter.HasNext()
	require.NoError(t, err)
	require.False(t, hasNext)
	_, err = iter.Next()
	require.True(t, errors.HasCode(err, errors.IllegalState))
}
