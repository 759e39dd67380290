package exec

import (
	"testing"

	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/functions"
	"github.com/stretchr/testify/require"
)

// Test utils for this package

var registry = functions.NewDefaultRegistry()

func resolve(t *testing.T, name string, argTypes ...common.Type) *functions.FunctionInfo {
	t.Helper()
	info, err := registry.Resolve(name, argTypes)
	require.NoError(t, err)
	return info
}

func staticOperator(t *testing.T, types []common.Type, pageSize int, rows [][]interface{}) *StaticOperator {
	t.Helper()
	op, err := NewStaticOperatorFromRows(types, pageSize, rows)
	require.NoError(t, err)
	return op
}

func collectPages(t *testing.T, op Operator) []*Page {
	t.Helper()
	stats := NewInMemoryOperatorStats()
	pages, err := CollectPages(op, stats)
	require.NoError(t, err)
	require.True(t, stats.IsFinished())
	return pages
}

func int64s(vals ...int) []interface{} {
	res := make([]interface{}, len(vals))
	for i, v := range vals {
		res[i] = int64(v)
	}
	return res
}
