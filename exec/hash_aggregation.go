package exec

import (
	"fmt"

	"github.com/cznic/mathutil"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/blockexec/aggfuncs"
	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

type hashAggregationState int

const (
	stateNotStarted hashAggregationState = iota
	stateConsuming
	stateEmitting
	stateExhausted
)

func (s hashAggregationState) String() string {
	switch s {
	case stateNotStarted:
		return "not_started"
	case stateConsuming:
		return "consuming"
	case stateEmitting:
		return "emitting"
	case stateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// HashAggregationOperator groups the rows of its source by the group channels and aggregates every group.
//
// The operator is single pass. The first iterator drains the whole source into an in memory hash table, then
// emits one row per group in pages of at most pageSize positions. The order of the groups is the order in which
// they were first seen. Only one iterator may be created, a second call to Iterator returns an IllegalState
// error. Memory is not bounded, expectedGroups only pre-sizes the hash table.
//
// Before projection the grouped rows have the group channels first, in the order given, followed by one channel
// per aggregation.
type HashAggregationOperator struct {
	source         Operator
	groupChannels  []int
	groupTypes     []common.Type
	aggregations   []Aggregation
	projection     ProjectionFunction
	expectedGroups int
	pageSize       int
	state          hashAggregationState
}

var _ Operator = &HashAggregationOperator{}

// NewHashAggregationOperator validates the channels and types of every aggregation against the source and the
// projection against the grouped rows. A nil projection outputs the grouped rows unchanged.
func NewHashAggregationOperator(source Operator, groupChannels []int, aggregations []Aggregation,
	projection ProjectionFunction, expectedGroups int, pageSize int) (*HashAggregationOperator, error) {
	if pageSize < 1 {
		return nil, errors.NewInvalidConfigurationError("PageSize must be >= 1")
	}
	if expectedGroups < 0 {
		return nil, errors.NewInvalidConfigurationError("ExpectedGroups must be >= 0")
	}
	sourceTypes := source.TupleTypes()
	groupTypes := make([]common.Type, len(groupChannels))
	for i, channel := range groupChannels {
		if !checkChannel(channel, sourceTypes) {
			return nil, errors.NewInvalidConfigurationError(fmt.Sprintf("group channel %d does not exist, source has %d channels",
				channel, len(sourceTypes)))
		}
		groupTypes[i] = sourceTypes[channel]
	}
	groupedTypes := append([]common.Type{}, groupTypes...)
	for _, agg := range aggregations {
		if err := checkAggregation(agg, sourceTypes); err != nil {
			return nil, err
		}
		groupedTypes = append(groupedTypes, agg.OutputType())
	}
	if projection == nil {
		projection = IdentityProjection(groupedTypes)
	}
	if err := projection.Validate(groupedTypes); err != nil {
		return nil, err
	}
	return &HashAggregationOperator{
		source:         source,
		groupChannels:  groupChannels,
		groupTypes:     groupTypes,
		aggregations:   aggregations,
		projection:     projection,
		expectedGroups: expectedGroups,
		pageSize:       pageSize,
	}, nil
}

func checkAggregation(agg Aggregation, sourceTypes []common.Type) error {
	if agg.Function == nil {
		return errors.NewInvalidConfigurationError("aggregation has no function")
	}
	expected := agg.InputTypes()
	if len(agg.InputChannels) != len(expected) {
		return errors.NewInvalidConfigurationError(fmt.Sprintf("%s takes %d input channels but %d were given",
			agg, len(expected), len(agg.InputChannels)))
	}
	for i, channel := range agg.InputChannels {
		if !checkChannel(channel, sourceTypes) {
			return errors.NewInvalidConfigurationError(fmt.Sprintf("%s input channel %d does not exist, source has %d channels",
				agg, channel, len(sourceTypes)))
		}
		if sourceTypes[channel] != expected[i] {
			return errors.NewTypeMismatchError(fmt.Sprintf("%s input channel %d", agg, channel), expected[i], sourceTypes[channel])
		}
	}
	return nil
}

func (h *HashAggregationOperator) TupleTypes() []common.Type {
	return h.projection.TupleTypes()
}

func (h *HashAggregationOperator) ChannelCount() int {
	return len(h.projection.TupleTypes())
}

func (h *HashAggregationOperator) Iterator(stats OperatorStats) (PageIterator, error) {
	if h.state != stateNotStarted {
		return nil, errors.NewIllegalStateError(fmt.Sprintf("hash aggregation can only be iterated once, state is %s", h.state))
	}
	h.state = stateConsuming
	return &hashAggregationIterator{operator: h, stats: stats}, nil
}

type hashAggregationIterator struct {
	operator   *HashAggregationOperator
	stats      OperatorStats
	groupCount int
	keyBlocks  []*block.Block
	aggStates  []*aggfuncs.AggState
	emitted    int
	drained    bool
	err        error
}

func (h *hashAggregationIterator) HasNext() (bool, error) {
	if h.err != nil {
		return false, h.err
	}
	op := h.operator
	switch op.state {
	case stateConsuming:
		if !h.drained {
			if err := h.consume(); err != nil {
				h.err = err
				return false, err
			}
		}
		return h.HasNext()
	case stateEmitting:
		return true, nil
	default:
		return false, nil
	}
}

func (h *hashAggregationIterator) Next() (*Page, error) {
	hasNext, err := h.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, errNoMorePages
	}
	page, err := h.emit()
	if err != nil {
		h.err = err
		return nil, err
	}
	return page, nil
}

func (h *hashAggregationIterator) consume() error { //nolint:gocyclo
	op := h.operator
	log.Debugf("hash aggregation consuming source grouped on channels %v", op.groupChannels)
	sourceStats := NewInMemoryOperatorStats()
	iter, err := op.source.Iterator(sourceStats)
	if err != nil {
		return err
	}
	groupByHash := NewGroupByHash(op.groupTypes, op.groupChannels, op.expectedGroups)
	aggStates := make([]*aggfuncs.AggState, len(op.aggregations))
	for i := range op.aggregations {
		aggStates[i] = aggfuncs.NewAggState(op.expectedGroups)
	}
	var groupIds []int
	for {
		hasNext, err := iter.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			break
		}
		page, err := iter.Next()
		if err != nil {
			return err
		}
		h.stats.AddInput(page.PositionCount(), page.DataSize())
		groupIds = groupByHash.GetGroupIds(page, groupIds)
		for i, agg := range op.aggregations {
			aggStates[i].EnsureCapacity(groupByHash.GroupCount())
			if err := addPage(agg, page, groupIds, aggStates[i]); err != nil {
				return err
			}
		}
	}
	h.groupCount = groupByHash.GroupCount()
	h.keyBlocks = groupByHash.BuildKeyBlocks()
	h.aggStates = aggStates
	h.drained = true
	log.Debugf("hash aggregation consumed %d positions into %d groups", sourceStats.InputPositions(), h.groupCount)
	if h.groupCount == 0 {
		h.finish()
	} else {
		op.state = stateEmitting
	}
	return nil
}

// addPage feeds every position of page to the accumulator of the position's group
func addPage(agg Aggregation, page *Page, groupIds []int, aggState *aggfuncs.AggState) error {
	fn := agg.Function.Implementation()
	cursors := make([]*block.Cursor, len(agg.InputChannels))
	for i, channel := range agg.InputChannels {
		cursors[i] = page.GetBlock(channel).Cursor()
	}
	for pos := 0; pos < page.PositionCount(); pos++ {
		for _, cursor := range cursors {
			cursor.AdvanceNextPosition()
		}
		var err error
		if agg.Step == StepFinal {
			err = fn.AddIntermediate(cursors[0], aggState, groupIds[pos])
		} else {
			err = fn.AddInput(cursors, aggState, groupIds[pos])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *hashAggregationIterator) emit() (*Page, error) {
	op := h.operator
	start := h.emitted
	count := mathutil.Min(op.pageSize, h.groupCount-start)
	grouped := make([]*block.Block, 0, len(h.keyBlocks)+len(op.aggregations))
	for _, keyBlock := range h.keyBlocks {
		region, err := keyBlock.Region(start, count)
		if err != nil {
			return nil, err
		}
		grouped = append(grouped, region)
	}
	for i, agg := range op.aggregations {
		fn := agg.Function.Implementation()
		builder := block.NewBuilder(agg.OutputType(), count)
		for groupID := start; groupID < start+count; groupID++ {
			var err error
			if agg.Step == StepPartial {
				err = fn.EvalIntermediate(h.aggStates[i], groupID, builder)
			} else {
				err = fn.EvalFinal(h.aggStates[i], groupID, builder)
			}
			if err != nil {
				return nil, err
			}
		}
		grouped = append(grouped, builder.Build())
	}
	page, err := NewPage(op.projection.Project(grouped)...)
	if err != nil {
		return nil, err
	}
	h.emitted += count
	h.stats.AddOutput(page)
	if h.emitted == h.groupCount {
		h.finish()
	}
	return page, nil
}

func (h *hashAggregationIterator) finish() {
	log.Debugf("hash aggregation emitted %d groups", h.emitted)
	h.operator.state = stateExhausted
	h.keyBlocks = nil
	h.aggStates = nil
	h.stats.Finish()
}
