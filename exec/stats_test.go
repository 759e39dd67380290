package exec

import (
	"testing"

	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/conf"
	"github.com/squareup/blockexec/metrics/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMetricsOperatorStats(t *testing.T) {
	factory := prometheus.NewFactory(*conf.NewTestConfig())
	require.NoError(t, factory.Start())
	defer func() {
		require.NoError(t, factory.Stop())
	}()
	stats, err := NewMetricsOperatorStats(factory, "hash_agg")
	require.NoError(t, err)

	source := staticOperator(t, keyValTypes, 2, [][]interface{}{int64s(1, 10), int64s(2, 20), int64s(1, 30)})
	op := sumCountOperator(t, source, 1)
	pages, err := CollectPages(op, stats)
	require.NoError(t, err)
	require.Equal(t, 2, len(pages))
	require.Equal(t, int64(3), stats.InputPositions())
	require.Equal(t, int64(48), stats.InputDataSize())
	require.Equal(t, int64(2), stats.OutputPositions())
	require.True(t, stats.IsFinished())

	vals, err := factory.Gather()
	require.NoError(t, err)
	require.Equal(t, 3.0, vals["blockexec_hash_agg_input_positions_total"])
	require.Equal(t, 2.0, vals["blockexec_hash_agg_output_pages_total"])
	require.Equal(t, 1.0, vals["blockexec_hash_agg_completed_total"])
}

func TestMetricsOperatorStatsNotStarted(t *testing.T) {
	factory := prometheus.NewFactory(*conf.NewTestConfig())
	_, err := NewMetricsOperatorStats(factory, "agg")
	require.Error(t, err)
}

func TestInMemoryOperatorStatsString(t *testing.T) {
	stats := NewInMemoryOperatorStats()
	page, err := RowsToPages([]common.Type{common.TypeBigInt}, 4, [][]interface{}{int64s(1), int64s(2)})
	require.NoError(t, err)
	stats.AddInput(2, 16)
	stats.AddOutput(page[0])
	require.Equal(t, "input_positions=2 input_bytes=16 output_positions=2 output_pages=1 finished=false", stats.String())
}
