package exec

import (
	"fmt"

	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/functions"
)

// Step says which part of an aggregation an operator performs. A partial aggregation consumes raw input and
// produces intermediate values, a final aggregation merges intermediate values, a single aggregation does both.
type Step int

const (
	StepSingle Step = iota
	StepPartial
	StepFinal
)

func (s Step) String() string {
	switch s {
	case StepSingle:
		return "single"
	case StepPartial:
		return "partial"
	case StepFinal:
		return "final"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Aggregation binds a resolved function to the input channels its arguments are read from
type Aggregation struct {
	Function      *functions.FunctionInfo
	InputChannels []int
	Step          Step
}

func SingleNodeAggregation(function *functions.FunctionInfo, inputChannels ...int) Aggregation {
	return Aggregation{Function: function, InputChannels: inputChannels, Step: StepSingle}
}

func PartialAggregation(function *functions.FunctionInfo, inputChannels ...int) Aggregation {
	return Aggregation{Function: function, InputChannels: inputChannels, Step: StepPartial}
}

// FinalAggregation merges the intermediate values found in intermediateChannel
func FinalAggregation(function *functions.FunctionInfo, intermediateChannel int) Aggregation {
	return Aggregation{Function: function, InputChannels: []int{intermediateChannel}, Step: StepFinal}
}

// InputTypes returns the types the input channels must have
func (a Aggregation) InputTypes() []common.Type {
	if a.Step == StepFinal {
		return []common.Type{a.Function.IntermediateType()}
	}
	return a.Function.ArgTypes()
}

func (a Aggregation) OutputType() common.Type {
	if a.Step == StepPartial {
		return a.Function.IntermediateType()
	}
	return a.Function.ReturnType()
}

func (a Aggregation) String() string {
	return fmt.Sprintf("%s%v[%s]", a.Function.Signature(), a.InputChannels, a.Step)
}
