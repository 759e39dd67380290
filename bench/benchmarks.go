package bench

import (
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/exec"
	"github.com/squareup/blockexec/tpch"
)

// HashAggBenchmarkFactory creates benchmarks that group lineitem by orderkey and sum extendedprice
type HashAggBenchmarkFactory struct {
}

func (h *HashAggBenchmarkFactory) Name() string {
	return "hash_agg"
}

func (h *HashAggBenchmarkFactory) CreateBenchmark(env *Environment) (Benchmark, error) {
	sum, err := env.Registry.Resolve("sum", []common.Type{common.TypeDouble})
	if err != nil {
		return nil, err
	}
	source, err := alignedColumns(env, tpch.LineItemTableName, "orderkey", "extendedprice")
	if err != nil {
		return nil, err
	}
	op, err := exec.NewHashAggregationOperator(source, []int{0}, []exec.Aggregation{
		exec.SingleNodeAggregation(sum, 1),
	}, nil, env.Config.ExpectedGroups, env.Config.PageSize)
	if err != nil {
		return nil, err
	}
	return &operatorBenchmark{env: env, name: h.Name(), op: op, columns: []string{"orderkey", "sum_extendedprice"},
		sortChannels: []int{0}}, nil
}

// PricingSummaryBenchmarkFactory creates benchmarks that group lineitem by returnflag and linestatus and
// compute the pricing summary aggregates over each group
type PricingSummaryBenchmarkFactory struct {
}

func (p *PricingSummaryBenchmarkFactory) Name() string {
	return "pricing_summary"
}

func (p *PricingSummaryBenchmarkFactory) CreateBenchmark(env *Environment) (Benchmark, error) {
	aggregates := []struct {
		signature string
		channels  []int
	}{
		{"sum(BIGINT)", []int{2}},
		{"sum(DOUBLE)", []int{3}},
		{"avg(BIGINT)", []int{2}},
		{"avg(DOUBLE)", []int{4}},
		{"max(VARBINARY)", []int{5}},
		{"count()", nil},
	}
	aggs := make([]exec.Aggregation, len(aggregates))
	for i, agg := range aggregates {
		fn, err := env.Registry.ResolveSignature(agg.signature)
		if err != nil {
			return nil, err
		}
		aggs[i] = exec.SingleNodeAggregation(fn, agg.channels...)
	}
	source, err := alignedColumns(env, tpch.LineItemTableName, "returnflag", "linestatus", "quantity",
		"extendedprice", "discount", "shipmode")
	if err != nil {
		return nil, err
	}
	op, err := exec.NewHashAggregationOperator(source, []int{0, 1}, aggs, nil, env.Config.ExpectedGroups, env.Config.PageSize)
	if err != nil {
		return nil, err
	}
	return &operatorBenchmark{env: env, name: p.Name(), op: op, columns: []string{"returnflag", "linestatus",
		"sum_quantity", "sum_extendedprice", "avg_quantity", "avg_discount", "max_shipmode", "count_order"},
		sortChannels: []int{0, 1}}, nil
}

// AlignmentBenchmarkFactory creates benchmarks that only align lineitem columns into pages
type AlignmentBenchmarkFactory struct {
}

func (a *AlignmentBenchmarkFactory) Name() string {
	return "alignment"
}

func (a *AlignmentBenchmarkFactory) CreateBenchmark(env *Environment) (Benchmark, error) {
	op, err := alignedColumns(env, tpch.LineItemTableName, "orderkey", "partkey", "extendedprice", "returnflag")
	if err != nil {
		return nil, err
	}
	return &operatorBenchmark{env: env, name: a.Name(), op: op, columns: []string{"orderkey", "partkey",
		"extendedprice", "returnflag"}, sortChannels: []int{0}}, nil
}

type operatorBenchmark struct {
	env          *Environment
	name         string
	op           exec.Operator
	columns      []string
	sortChannels []int
}

func (o *operatorBenchmark) Run() (*IterationResult, error) {
	stats, err := o.env.NewStats(o.name)
	if err != nil {
		return nil, err
	}
	res, err := drain(o.op, stats)
	if err != nil {
		return nil, err
	}
	if inMem, ok := stats.(interface{ InputPositions() int64 }); ok {
		res.InputRows = inMem.InputPositions()
	}
	return res, nil
}
