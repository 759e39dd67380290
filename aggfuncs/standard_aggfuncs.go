package aggfuncs

import (
	"bytes"

	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// COUNT
// =====

// CountAggregateFunction counts rows, nulls included since it takes no argument
type CountAggregateFunction struct {
	aggregateFunctionBase
}

func (c *CountAggregateFunction) AddInput(cursors []*block.Cursor, aggState *AggState, index int) error {
	aggState.AddCount(index, 1)
	return nil
}

func (c *CountAggregateFunction) AddIntermediate(cursor *block.Cursor, aggState *AggState, index int) error {
	if cursor.IsNull() {
		return nil
	}
	aggState.AddCount(index, cursor.GetInt64())
	return nil
}

func (c *CountAggregateFunction) EvalIntermediate(aggState *AggState, index int, builder *block.Builder) error {
	return c.EvalFinal(aggState, index, builder)
}

func (c *CountAggregateFunction) EvalFinal(aggState *AggState, index int, builder *block.Builder) error {
	// count of an empty group is zero, not null
	builder.AppendInt64(aggState.GetCount(index))
	return nil
}

// SUM
// ===

type LongSumAggregateFunction struct {
	aggregateFunctionBase
}

func (s *LongSumAggregateFunction) AddInput(cursors []*block.Cursor, aggState *AggState, index int) error {
	return s.AddIntermediate(cursors[0], aggState, index)
}

func (s *LongSumAggregateFunction) AddIntermediate(cursor *block.Cursor, aggState *AggState, index int) error {
	if cursor.IsNull() {
		return nil
	}
	aggState.SetInt64(index, aggState.GetInt64(index)+cursor.GetInt64())
	return nil
}

func (s *LongSumAggregateFunction) EvalIntermediate(aggState *AggState, index int, builder *block.Builder) error {
	return s.EvalFinal(aggState, index, builder)
}

func (s *LongSumAggregateFunction) EvalFinal(aggState *AggState, index int, builder *block.Builder) error {
	if !aggState.IsSet(index) {
		builder.AppendNull()
		return nil
	}
	builder.AppendInt64(aggState.GetInt64(index))
	return nil
}

type DoubleSumAggregateFunction struct {
	aggregateFunctionBase
}

func (s *DoubleSumAggregateFunction) AddInput(cursors []*block.Cursor, aggState *AggState, index int) error {
	return s.AddIntermediate(cursors[0], aggState, index)
}

func (s *DoubleSumAggregateFunction) AddIntermediate(cursor *block.Cursor, aggState *AggState, index int) error {
	if cursor.IsNull() {
		return nil
	}
	aggState.SetFloat64(index, aggState.GetFloat64(index)+cursor.GetDouble())
	return nil
}

func (s *DoubleSumAggregateFunction) EvalIntermediate(aggState *AggState, index int, builder *block.Builder) error {
	return s.EvalFinal(aggState, index, builder)
}

func (s *DoubleSumAggregateFunction) EvalFinal(aggState *AggState, index int, builder *block.Builder) error {
	if !aggState.IsSet(index) {
		builder.AppendNull()
		return nil
	}
	builder.AppendDouble(aggState.GetFloat64(index))
	return nil
}

// AVG
// ===

// AverageAggregateFunction keeps a running sum in the value slot and the number of non null values in the
// count slot. The intermediate form is a 16 byte VARBINARY: count followed by sum.
type AverageAggregateFunction struct {
	aggregateFunctionBase
}

const averageIntermediateSize = 16

func (a *AverageAggregateFunction) AddInput(cursors []*block.Cursor, aggState *AggState, index int) error {
	cursor := cursors[0]
	if cursor.IsNull() {
		return nil
	}
	var val float64
	if cursor.Type() == common.TypeBigInt {
		val = float64(cursor.GetInt64())
	} else {
		val = cursor.GetDouble()
	}
	aggState.SetFloat64(index, aggState.GetFloat64(index)+val)
	aggState.AddCount(index, 1)
	return nil
}

func (a *AverageAggregateFunction) AddIntermediate(cursor *block.Cursor, aggState *AggState, index int) error {
	if cursor.IsNull() {
		return nil
	}
	buff := cursor.GetBytes()
	if len(buff) != averageIntermediateSize {
		return errors.Errorf("invalid average intermediate value of %d bytes", len(buff))
	}
	count, offset := common.ReadInt64FromBufferLE(buff, 0)
	sum, _ := common.ReadFloat64FromBufferLE(buff, offset)
	aggState.SetFloat64(index, aggState.GetFloat64(index)+sum)
	aggState.AddCount(index, count)
	return nil
}

func (a *AverageAggregateFunction) EvalIntermediate(aggState *AggState, index int, builder *block.Builder) error {
	if !aggState.IsSet(index) {
		builder.AppendNull()
		return nil
	}
	buff := make([]byte, 0, averageIntermediateSize)
	buff = common.AppendInt64ToBufferLE(buff, aggState.GetCount(index))
	buff = common.AppendFloat64ToBufferLE(buff, aggState.GetFloat64(index))
	builder.AppendBytes(buff)
	return nil
}

func (a *AverageAggregateFunction) EvalFinal(aggState *AggState, index int, builder *block.Builder) error {
	count := aggState.GetCount(index)
	if count == 0 {
		builder.AppendNull()
		return nil
	}
	builder.AppendDouble(aggState.GetFloat64(index) / float64(count))
	return nil
}

// MIN / MAX
// =========

type LongMinMaxAggregateFunction struct {
	aggregateFunctionBase
	max bool
}

func (m *LongMinMaxAggregateFunction) AddInput(cursors []*block.Cursor, aggState *AggState, index int) error {
	return m.AddIntermediate(cursors[0], aggState, index)
}

func (m *LongMinMaxAggregateFunction) AddIntermediate(cursor *block.Cursor, aggState *AggState, index int) error {
	if cursor.IsNull() {
		return nil
	}
	val := cursor.GetInt64()
	if !aggState.IsSet(index) {
		aggState.SetInt64(index, val)
		return nil
	}
	curr := aggState.GetInt64(index)
	if (m.max && val > curr) || (!m.max && val < curr) {
		aggState.SetInt64(index, val)
	}
	return nil
}

func (m *LongMinMaxAggregateFunction) EvalIntermediate(aggState *AggState, index int, builder *block.Builder) error {
	return m.EvalFinal(aggState, index, builder)
}

func (m *LongMinMaxAggregateFunction) EvalFinal(aggState *AggState, index int, builder *block.Builder) error {
	if !aggState.IsSet(index) {
		builder.AppendNull()
		return nil
	}
	builder.AppendInt64(aggState.GetInt64(index))
	return nil
}

type DoubleMinMaxAggregateFunction struct {
	aggregateFunctionBase
	max bool
}

func (m *DoubleMinMaxAggregateFunction) AddInput(cursors []*block.Cursor, aggState *AggState, index int) error {
	return m.AddIntermediate(cursors[0], aggState, index)
}

func (m *DoubleMinMaxAggregateFunction) AddIntermediate(cursor *block.Cursor, aggState *AggState, index int) error {
	if cursor.IsNull() {
		return nil
	}
	val := cursor.GetDouble()
	if !aggState.IsSet(index) {
		aggState.SetFloat64(index, val)
		return nil
	}
	curr := aggState.GetFloat64(index)
	if (m.max && val > curr) || (!m.max && val < curr) {
		aggState.SetFloat64(index, val)
	}
	return nil
}

func (m *DoubleMinMaxAggregateFunction) EvalIntermediate(aggState *AggState, index int, builder *block.Builder) error {
	return m.EvalFinal(aggState, index, builder)
}

func (m *DoubleMinMaxAggregateFunction) EvalFinal(aggState *AggState, index int, builder *block.Builder) error {
	if !aggState.IsSet(index) {
		builder.AppendNull()
		return nil
	}
	builder.AppendDouble(aggState.GetFloat64(index))
	return nil
}

// VarbinaryMinMaxAggregateFunction compares values as unsigned byte strings
type VarbinaryMinMaxAggregateFunction struct {
	aggregateFunctionBase
	max bool
}

func (m *VarbinaryMinMaxAggregateFunction) AddInput(cursors []*block.Cursor, aggState *AggState, index int) error {
	return m.AddIntermediate(cursors[0], aggState, index)
}

func (m *VarbinaryMinMaxAggregateFunction) AddIntermediate(cursor *block.Cursor, aggState *AggState, index int) error {
	if cursor.IsNull() {
		return nil
	}
	val := cursor.GetBytes()
	if !aggState.IsSet(index) {
		aggState.SetBytes(index, val)
		return nil
	}
	cmp := bytes.Compare(val, aggState.GetBytes(index))
	if (m.max && cmp > 0) || (!m.max && cmp < 0) {
		aggState.SetBytes(index, val)
	}
	return nil
}

func (m *VarbinaryMinMaxAggregateFunction) EvalIntermediate(aggState *AggState, index int, builder *block.Builder) error {
	return m.EvalFinal(aggState, index, builder)
}

func (m *VarbinaryMinMaxAggregateFunction) EvalFinal(aggState *AggState, index int, builder *block.Builder) error {
	if !aggState.IsSet(index) {
		builder.AppendNull()
		return nil
	}
	builder.AppendBytes(aggState.GetBytes(index))
	return nil
}
