package aggfuncs

import (
	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// AggregateFunction is the physical implementation of an aggregate. It holds no per group state itself, all
// state lives in the AggState passed in, indexed by group id.
//
// AddInput is called once for every input row of a group with cursors positioned on that row, one cursor
// per argument. AddIntermediate merges a value produced by EvalIntermediate of a partial aggregation.
// A null argument is skipped by every function except count().
type AggregateFunction interface {
	ArgTypes() []common.Type
	IntermediateType() common.Type
	FinalType() common.Type

	AddInput(cursors []*block.Cursor, aggState *AggState, index int) error
	AddIntermediate(cursor *block.Cursor, aggState *AggState, index int) error
	EvalIntermediate(aggState *AggState, index int, builder *block.Builder) error
	EvalFinal(aggState *AggState, index int, builder *block.Builder) error
}

type AggFunctionType int

const (
	CountAggregateFunctionType AggFunctionType = iota
	LongSumAggregateFunctionType
	DoubleSumAggregateFunctionType
	LongAverageAggregateFunctionType
	DoubleAverageAggregateFunctionType
	LongMaxAggregateFunctionType
	DoubleMaxAggregateFunctionType
	VarbinaryMaxAggregateFunctionType
	LongMinAggregateFunctionType
	DoubleMinAggregateFunctionType
	VarbinaryMinAggregateFunctionType
)

type aggregateFunctionBase struct {
	argTypes         []common.Type
	intermediateType common.Type
	finalType        common.Type
}

func (b *aggregateFunctionBase) ArgTypes() []common.Type {
	return b.argTypes
}

func (b *aggregateFunctionBase) IntermediateType() common.Type {
	return b.intermediateType
}

func (b *aggregateFunctionBase) FinalType() common.Type {
	return b.finalType
}

func base(intermediateType common.Type, finalType common.Type, argTypes ...common.Type) aggregateFunctionBase {
	return aggregateFunctionBase{argTypes: argTypes, intermediateType: intermediateType, finalType: finalType}
}

func NewAggregateFunction(funcType AggFunctionType) (AggregateFunction, error) { //nolint:gocyclo
	switch funcType {
	case CountAggregateFunctionType:
		return &CountAggregateFunction{aggregateFunctionBase: base(common.TypeBigInt, common.TypeBigInt)}, nil
	case LongSumAggregateFunctionType:
		return &LongSumAggregateFunction{aggregateFunctionBase: base(common.TypeBigInt, common.TypeBigInt, common.TypeBigInt)}, nil
	case DoubleSumAggregateFunctionType:
		return &DoubleSumAggregateFunction{aggregateFunctionBase: base(common.TypeDouble, common.TypeDouble, common.TypeDouble)}, nil
	case LongAverageAggregateFunctionType:
		return &AverageAggregateFunction{aggregateFunctionBase: base(common.TypeVarbinary, common.TypeDouble, common.TypeBigInt)}, nil
	case DoubleAverageAggregateFunctionType:
		return &AverageAggregateFunction{aggregateFunctionBase: base(common.TypeVarbinary, common.TypeDouble, common.TypeDouble)}, nil
	case LongMaxAggregateFunctionType:
		return &LongMinMaxAggregateFunction{aggregateFunctionBase: base(common.TypeBigInt, common.TypeBigInt, common.TypeBigInt), max: true}, nil
	case DoubleMaxAggregateFunctionType:
		return &DoubleMinMaxAggregateFunction{aggregateFunctionBase: base(common.TypeDouble, common.TypeDouble, common.TypeDouble), max: true}, nil
	case VarbinaryMaxAggregateFunctionType:
		return &VarbinaryMinMaxAggregateFunction{aggregateFunctionBase: base(common.TypeVarbinary, common.TypeVarbinary, common.TypeVarbinary), max: true}, nil
	case LongMinAggregateFunctionType:
		return &LongMinMaxAggregateFunction{aggregateFunctionBase: base(common.TypeBigInt, common.TypeBigInt, common.TypeBigInt)}, nil
	case DoubleMinAggregateFunctionType:
		return &DoubleMinMaxAggregateFunction{aggregateFunctionBase: base(common.TypeDouble, common.TypeDouble, common.TypeDouble)}, nil
	case VarbinaryMinAggregateFunctionType:
		return &VarbinaryMinMaxAggregateFunction{aggregateFunctionBase: base(common.TypeVarbinary, common.TypeVarbinary, common.TypeVarbinary)}, nil
	default:
		return nil, errors.Errorf("unexpected aggregate function type %d", funcType)
	}
}

// MustNewAggregateFunction is for statically known function types
func MustNewAggregateFunction(funcType AggFunctionType) AggregateFunction {
	fn, err := NewAggregateFunction(funcType)
	if err != nil {
		panic(err)
	}
	return fn
}
