package exec

import (
	"bytes"

	"github.com/google/btree"
)

type sortedRow struct {
	row      []interface{}
	seq      int
	channels []int
}

func (s *sortedRow) Less(than btree.Item) bool {
	other := than.(*sortedRow)
	for _, channel := range s.channels {
		if c := compareValues(s.row[channel], other.row[channel]); c != 0 {
			return c < 0
		}
	}
	return s.seq < other.seq
}

// SortRows returns the rows of pages ordered by the values of channels, nulls first. Rows with equal sort
// values keep their relative order. Hash aggregation emits groups in an unspecified order, this gives reports
// and comparisons a deterministic one.
func SortRows(pages []*Page, channels ...int) [][]interface{} {
	tree := btree.New(8)
	seq := 0
	for _, page := range pages {
		for pos := 0; pos < page.PositionCount(); pos++ {
			tree.ReplaceOrInsert(&sortedRow{row: page.GetRow(pos), seq: seq, channels: channels})
			seq++
		}
	}
	rows := make([][]interface{}, 0, tree.Len())
	tree.Ascend(func(item btree.Item) bool {
		rows = append(rows, item.(*sortedRow).row)
		return true
	})
	return rows
}

// compareValues orders values produced by block.Block.GetObject. Values of different Go types are ordered by
// type, which does not happen within one channel.
func compareValues(v1 interface{}, v2 interface{}) int { //nolint:gocyclo
	if v1 == nil || v2 == nil {
		switch {
		case v1 == nil && v2 == nil:
			return 0
		case v1 == nil:
			return -1
		default:
			return 1
		}
	}
	switch val1 := v1.(type) {
	case bool:
		val2, ok := v2.(bool)
		if !ok {
			return typeOrder(v1) - typeOrder(v2)
		}
		switch {
		case val1 == val2:
			return 0
		case !val1:
			return -1
		default:
			return 1
		}
	case int64:
		val2, ok := v2.(int64)
		if !ok {
			return typeOrder(v1) - typeOrder(v2)
		}
		return compareOrdered(val1 < val2, val1 > val2)
	case float64:
		val2, ok := v2.(float64)
		if !ok {
			return typeOrder(v1) - typeOrder(v2)
		}
		return compareOrdered(val1 < val2, val1 > val2)
	case string:
		val2, ok := v2.(string)
		if !ok {
			return typeOrder(v1) - typeOrder(v2)
		}
		return compareOrdered(val1 < val2, val1 > val2)
	case []byte:
		val2, ok := v2.([]byte)
		if !ok {
			return typeOrder(v1) - typeOrder(v2)
		}
		return bytes.Compare(val1, val2)
	default:
		return typeOrder(v1) - typeOrder(v2)
	}
}

func compareOrdered(less bool, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}

func typeOrder(v interface{}) int {
	switch v.(type) {
	case bool:
		return 1
	case int64:
		return 2
	case float64:
		return 3
	case string:
		return 4
	case []byte:
		return 5
	default:
		return 6
	}
}
