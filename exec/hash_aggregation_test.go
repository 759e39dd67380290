package exec

import (
	"math"
	"math/rand"
	"testing"

	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
	"github.com/stretchr/testify/require"
)

var keyValTypes = []common.Type{common.TypeBigInt, common.TypeBigInt}

func sumCountOperator(t *testing.T, source Operator, pageSize int) *HashAggregationOperator {
	t.Helper()
	op, err := NewHashAggregationOperator(source, []int{0}, []Aggregation{
		SingleNodeAggregation(resolve(t, "sum", common.TypeBigInt), 1),
		SingleNodeAggregation(resolve(t, "count")),
	}, nil, 4, pageSize)
	require.NoError(t, err)
	return op
}

func TestHashAggregationSumAndCount(t *testing.T) {
	source := staticOperator(t, keyValTypes, 2, [][]interface{}{
		int64s(1, 10),
		int64s(1, 20),
		int64s(2, 5),
	})
	op := sumCountOperator(t, source, 16)
	require.Equal(t, []common.Type{common.TypeBigInt, common.TypeBigInt, common.TypeBigInt}, op.TupleTypes())
	pages := collectPages(t, op)
	require.Equal(t, [][]interface{}{
		int64s(1, 30, 2),
		int64s(2, 5, 1),
	}, SortRows(pages, 0))
}

func TestHashAggregationEmptySource(t *testing.T) {
	source := staticOperator(t, keyValTypes, 2, nil)
	op := sumCountOperator(t, source, 16)
	stats := NewInMemoryOperatorStats()
	pages, err := CollectPages(op, stats)
	require.NoError(t, err)
	require.Equal(t, 0, len(pages))
	require.True(t, stats.IsFinished())
	require.Equal(t, stateExhausted, op.state)
}

func TestHashAggregationNullKey(t *testing.T) {
	source := staticOperator(t, keyValTypes, 3, [][]interface{}{
		{nil, int64(1)},
		int64s(1, 2),
		{nil, int64(3)},
		int64s(2, 4),
		{nil, nil},
	})
	op := sumCountOperator(t, source, 16)
	rows := SortRows(collectPages(t, op), 0)
	require.Equal(t, [][]interface{}{
		{nil, int64(4), int64(3)},
		int64s(1, 2, 1),
		int64s(2, 4, 1),
	}, rows)
}

func TestHashAggregationNullAggregateInput(t *testing.T) {
	source := staticOperator(t, keyValTypes, 3, [][]interface{}{
		{int64(1), nil},
		{int64(1), nil},
	})
	op := sumCountOperator(t, source, 16)
	rows := PagesToRows(collectPages(t, op))
	require.Equal(t, [][]interface{}{{int64(1), nil, int64(2)}}, rows)
}

func TestHashAggregationConservationAndPartition(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	var rows [][]interface{}
	expectedSums := map[interface{}]int64{}
	for i := 0; i < 1000; i++ {
		var key interface{}
		if k := rnd.Intn(60); k < 50 {
			key = int64(k)
		}
		val := int64(rnd.Intn(100))
		rows = append(rows, []interface{}{key, val})
		expectedSums[key] += val
	}
	op := sumCountOperator(t, staticOperator(t, keyValTypes, 64, rows), 16)
	pages := collectPages(t, op)
	totalCount := int64(0)
	seen := map[interface{}]bool{}
	for _, row := range PagesToRows(pages) {
		key := row[0]
		require.False(t, seen[key], "key %v in more than one group", key)
		seen[key] = true
		require.Equal(t, expectedSums[key], row[1])
		totalCount += row[2].(int64)
	}
	require.Equal(t, int64(len(rows)), totalCount)
	require.Equal(t, len(expectedSums), len(seen))
	for _, page := range pages {
		require.LessOrEqual(t, page.PositionCount(), 16)
	}
}

func TestHashAggregationOrderIndependence(t *testing.T) {
	var rows [][]interface{}
	for i := 0; i < 200; i++ {
		rows = append(rows, int64s(i%17, i))
	}
	expected := SortRows(collectPages(t, sumCountOperator(t, staticOperator(t, keyValTypes, 10, rows), 5)), 0)
	rnd := rand.New(rand.NewSource(7))
	for _, pageSize := range []int{1, 3, 64, 500} {
		shuffled := make([][]interface{}, len(rows))
		copy(shuffled, rows)
		rnd.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		op := sumCountOperator(t, staticOperator(t, keyValTypes, pageSize, shuffled), 5)
		require.Equal(t, expected, SortRows(collectPages(t, op), 0))
	}
}

func TestHashAggregationOutputPageSize(t *testing.T) {
	var rows [][]interface{}
	for i := 0; i < 40; i++ {
		rows = append(rows, int64s(i, 1))
	}
	op := sumCountOperator(t, staticOperator(t, keyValTypes, 7, rows), 16)
	stats := NewInMemoryOperatorStats()
	pages, err := CollectPages(op, stats)
	require.NoError(t, err)
	var lengths []int
	for _, page := range pages {
		lengths = append(lengths, page.PositionCount())
	}
	require.Equal(t, []int{16, 16, 8}, lengths)
	require.Equal(t, int64(40), stats.InputPositions())
	require.Equal(t, int64(40), stats.OutputPositions())
	require.Equal(t, int64(3), stats.OutputPages())
	// groups are emitted in order of first appearance
	for i, row := range PagesToRows(pages) {
		require.Equal(t, int64(i), row[0])
	}
}

func TestHashAggregationDoubleKeys(t *testing.T) {
	types := []common.Type{common.TypeDouble, common.TypeDouble}
	source := staticOperator(t, types, 4, [][]interface{}{
		{1.5, 1.0},
		{0.0, 2.0},
		{math.Copysign(0, -1), 3.0},
		{1.5, 4.0},
		{math.NaN(), 5.0},
		{math.NaN(), 6.0},
	})
	op, err := NewHashAggregationOperator(source, []int{0}, []Aggregation{
		SingleNodeAggregation(resolve(t, "max", common.TypeDouble), 1),
		SingleNodeAggregation(resolve(t, "avg", common.TypeDouble), 1),
	}, nil, 0, 16)
	require.NoError(t, err)
	rows := PagesToRows(collectPages(t, op))
	require.Equal(t, 4, len(rows))
	require.Equal(t, []interface{}{1.5, 4.0, 2.5}, rows[0])
	require.Equal(t, []interface{}{0.0, 2.0, 2.0}, rows[1])
	require.True(t, math.Signbit(rows[2][0].(float64)))
	require.Equal(t, 3.0, rows[2][1])
	require.True(t, math.IsNaN(rows[3][0].(float64)))
	require.Equal(t, 6.0, rows[3][1])
}

func TestHashAggregationMultipleGroupChannels(t *testing.T) {
	types := []common.Type{common.TypeVarchar, common.TypeBigInt, common.TypeVarbinary}
	source := staticOperator(t, types, 2, [][]interface{}{
		{"a", int64(1), "x"},
		{"a", int64(2), "y"},
		{"a", int64(1), "z"},
		{"b", int64(1), "w"},
		{"a", nil, "v"},
		{"a", nil, "u"},
	})
	op, err := NewHashAggregationOperator(source, []int{0, 1}, []Aggregation{
		SingleNodeAggregation(resolve(t, "min", common.TypeVarbinary), 2),
	}, nil, 0, 16)
	require.NoError(t, err)
	require.Equal(t, []common.Type{common.TypeVarchar, common.TypeBigInt, common.TypeVarbinary}, op.TupleTypes())
	require.Equal(t, [][]interface{}{
		{"a", nil, []byte("u")},
		{"a", int64(1), []byte("x")},
		{"a", int64(2), []byte("y")},
		{"b", int64(1), []byte("w")},
	}, SortRows(collectPages(t, op), 0, 1))
}

func TestHashAggregationVariableWidthKeysDoNotCollide(t *testing.T) {
	types := []common.Type{common.TypeVarchar, common.TypeVarchar, common.TypeBigInt}
	source := staticOperator(t, types, 4, [][]interface{}{
		{"ab", "c", int64(1)},
		{"a", "bc", int64(1)},
	})
	op, err := NewHashAggregationOperator(source, []int{0, 1}, []Aggregation{
		SingleNodeAggregation(resolve(t, "count")),
	}, nil, 0, 16)
	require.NoError(t, err)
	require.Equal(t, 2, len(PagesToRows(collectPages(t, op))))
}

func TestHashAggregationNoGroupChannels(t *testing.T) {
	source := staticOperator(t, keyValTypes, 2, [][]interface{}{int64s(1, 10), int64s(2, 20), int64s(3, 30)})
	op, err := NewHashAggregationOperator(source, nil, []Aggregation{
		SingleNodeAggregation(resolve(t, "sum", common.TypeBigInt), 1),
		SingleNodeAggregation(resolve(t, "avg", common.TypeBigInt), 0),
	}, nil, 1, 16)
	require.NoError(t, err)
	require.Equal(t, [][]interface{}{{int64(60), 2.0}}, PagesToRows(collectPages(t, op)))
}

func TestHashAggregationPartialThenFinal(t *testing.T) {
	types := []common.Type{common.TypeBigInt, common.TypeDouble}
	var rows [][]interface{}
	for i := 0; i < 50; i++ {
		rows = append(rows, []interface{}{int64(i % 5), float64(i)})
	}
	avg := resolve(t, "avg", common.TypeDouble)
	sum := resolve(t, "sum", common.TypeDouble)

	single, err := NewHashAggregationOperator(staticOperator(t, types, 8, rows), []int{0}, []Aggregation{
		SingleNodeAggregation(avg, 1), SingleNodeAggregation(sum, 1),
	}, nil, 0, 4)
	require.NoError(t, err)
	expected := SortRows(collectPages(t, single), 0)

	var partialPages []*Page
	for _, part := range [][][]interface{}{rows[:20], rows[20:]} {
		partial, err := NewHashAggregationOperator(staticOperator(t, types, 8, part), []int{0}, []Aggregation{
			PartialAggregation(avg, 1), PartialAggregation(sum, 1),
		}, nil, 0, 4)
		require.NoError(t, err)
		require.Equal(t, []common.Type{common.TypeBigInt, common.TypeVarbinary, common.TypeDouble}, partial.TupleTypes())
		partialPages = append(partialPages, collectPages(t, partial)...)
	}
	intermediate, err := NewStaticOperator(partialPages[0].Types(), partialPages...)
	require.NoError(t, err)
	final, err := NewHashAggregationOperator(intermediate, []int{0}, []Aggregation{
		FinalAggregation(avg, 1), FinalAggregation(sum, 2),
	}, nil, 0, 4)
	require.NoError(t, err)
	require.Equal(t, expected, SortRows(collectPages(t, final), 0))
}

func TestHashAggregationProjection(t *testing.T) {
	source := staticOperator(t, keyValTypes, 2, [][]interface{}{int64s(1, 10), int64s(1, 20), int64s(2, 5)})
	op, err := NewHashAggregationOperator(source, []int{0}, []Aggregation{
		SingleNodeAggregation(resolve(t, "sum", common.TypeBigInt), 1),
		SingleNodeAggregation(resolve(t, "count")),
	}, Concat(SingleColumn(common.TypeBigInt, 2), SingleColumn(common.TypeBigInt, 0)), 0, 16)
	require.NoError(t, err)
	require.Equal(t, 2, op.ChannelCount())
	require.Equal(t, [][]interface{}{int64s(2, 1), int64s(1, 2)}, PagesToRows(collectPages(t, op)))
}

func TestHashAggregationInvalidProjection(t *testing.T) {
	source := staticOperator(t, keyValTypes, 2, nil)
	aggs := []Aggregation{SingleNodeAggregation(resolve(t, "count"))}
	_, err := NewHashAggregationOperator(source, []int{0}, aggs, SingleColumn(common.TypeBigInt, 2), 0, 16)
	require.True(t, errors.HasCode(err, errors.InvalidProjection))
	_, err = NewHashAggregationOperator(source, []int{0}, aggs, SingleColumn(common.TypeDouble, 1), 0, 16)
	require.True(t, errors.HasCode(err, errors.InvalidProjection))
	_, err = NewHashAggregationOperator(source, []int{0}, aggs, Concat(), 0, 16)
	require.True(t, errors.HasCode(err, errors.InvalidProjection))
}

func TestHashAggregationTypeMismatchAtConstruction(t *testing.T) {
	types := []common.Type{common.TypeBigInt, common.TypeDouble}
	source := staticOperator(t, types, 2, nil)
	_, err := NewHashAggregationOperator(source, []int{0}, []Aggregation{
		SingleNodeAggregation(resolve(t, "sum", common.TypeBigInt), 1),
	}, nil, 0, 16)
	require.True(t, errors.HasCode(err, errors.TypeMismatch))

	_, err = NewHashAggregationOperator(source, []int{0}, []Aggregation{
		FinalAggregation(resolve(t, "avg", common.TypeDouble), 1),
	}, nil, 0, 16)
	require.True(t, errors.HasCode(err, errors.TypeMismatch))
}

func TestHashAggregationInvalidConfiguration(t *testing.T) {
	source := staticOperator(t, keyValTypes, 2, nil)
	sum := resolve(t, "sum", common.TypeBigInt)
	testCases := []struct {
		name          string
		groupChannels []int
		aggs          []Aggregation
		pageSize      int
	}{
		{"group channel out of range", []int{2}, nil, 16},
		{"input channel out of range", []int{0}, []Aggregation{SingleNodeAggregation(sum, 5)}, 16},
		{"missing input channel", []int{0}, []Aggregation{SingleNodeAggregation(sum)}, 16},
		{"no function", []int{0}, []Aggregation{{InputChannels: []int{1}}}, 16},
		{"page size", []int{0}, nil, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewHashAggregationOperator(source, tc.groupChannels, tc.aggs, nil, 0, tc.pageSize)
			require.True(t, errors.HasCode(err, errors.InvalidConfiguration), err)
		})
	}
}

func TestHashAggregationIteratesOnce(t *testing.T) {
	source := staticOperator(t, keyValTypes, 2, [][]interface{}{int64s(1, 10)})
	op := sumCountOperator(t, source, 16)
	require.Equal(t, stateNotStarted, op.state)
	iter, err := op.Iterator(NewInMemoryOperatorStats())
	require.NoError(t, err)
	_, err = op.Iterator(NewInMemoryOperatorStats())
	require.True(t, errors.HasCode(err, errors.IllegalState))

	hasNext, err := iter.HasNext()
	require.NoError(t, err)
	require.True(t, hasNext)
	require.Equal(t, stateEmitting, op.state)
	_, err = iter.Next()
	require.NoError(t, err)
	require.Equal(t, stateExhausted, op.state)
	hasNext, err = iter.HasNext()
	require.NoError(t, err)
	require.False(t, hasNext)
	_, err = iter.Next()
	require.True(t, errors.HasCode(err, errors.IllegalState))

	_, err = op.Iterator(NewInMemoryOperatorStats())
	require.True(t, errors.HasCode(err, errors.IllegalState))
}

func TestHashAggregationOverAlignedSources(t *testing.T) {
	keys := int64s(1, 2, 1, 3, 2, 1, 1, 3)
	vals := int64s(1, 2, 3, 4, 5, 6, 7, 8)
	aligned, err := NewAlignmentOperator(0,
		chunkedSource(t, common.TypeBigInt, 3, keys...),
		chunkedSource(t, common.TypeBigInt, 5, vals...))
	require.NoError(t, err)
	op := sumCountOperator(t, aligned, 2)
	require.Equal(t, [][]interface{}{
		int64s(1, 17, 4),
		int64s(2, 7, 2),
		int64s(3, 12, 2),
	}, SortRows(collectPages(t, op), 0))
}
