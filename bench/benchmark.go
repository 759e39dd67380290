package bench

import (
	"time"

	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/conf"
	"github.com/squareup/blockexec/exec"
	"github.com/squareup/blockexec/functions"
	"github.com/squareup/blockexec/tpch"
)

// Benchmark is one iteration of a workload. A new Benchmark is created for every iteration so operators that
// can only be iterated once are rebuilt each time.
type Benchmark interface {
	Run() (*IterationResult, error)
}

// BenchmarkFactory creates Benchmark instances for an Environment.
// Each benchmark type has its own BenchmarkFactory instance
type BenchmarkFactory interface {

	// Name returns the name of the benchmark
	Name() string

	// CreateBenchmark creates a Benchmark instance
	CreateBenchmark(env *Environment) (Benchmark, error)
}

// Environment is what benchmarks read from
type Environment struct {
	Config   *conf.Config
	Provider tpch.BlocksProvider
	Registry *functions.Registry
	// NewStats returns the stats for an operator of a benchmark, e.g. in memory or backed by prometheus
	NewStats func(operatorName string) (exec.OperatorStats, error)
	Encoding block.Encoding
}

// IterationResult is what a single run of a benchmark reports
type IterationResult struct {
	InputRows   int64
	OutputRows  int64
	OutputPages int64
	Elapsed     time.Duration
}

// drain pulls every page from the operator and counts the output
func drain(op exec.Operator, stats exec.OperatorStats) (*IterationResult, error) {
	iter, err := op.Iterator(stats)
	if err != nil {
		return nil, err
	}
	res := &IterationResult{}
	for {
		hasNext, err := iter.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			return res, nil
		}
		page, err := iter.Next()
		if err != nil {
			return nil, err
		}
		res.OutputRows += int64(page.PositionCount())
		res.OutputPages++
	}
}

func alignedColumns(env *Environment, tableName string, columnNames ...string) (*exec.AlignmentOperator, error) {
	sources := make([]block.BlockIterable, len(columnNames))
	for i, name := range columnNames {
		iterable, err := env.Provider.GetBlocks(tableName, name, env.Encoding)
		if err != nil {
			return nil, err
		}
		sources[i] = iterable
	}
	return exec.NewAlignmentOperator(env.Config.MaxAlignedPageSize, sources...)
}
