package exec

import (
	"fmt"

	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// ProjectionFunction lays out output columns from a set of input blocks of equal length
type ProjectionFunction interface {
	TupleTypes() []common.Type

	// Validate checks the projection can be applied to blocks of inputTypes
	Validate(inputTypes []common.Type) error

	Project(input []*block.Block) []*block.Block
}

type singleColumn struct {
	typ     common.Type
	channel int
}

// SingleColumn projects input channel as is
func SingleColumn(typ common.Type, channel int) ProjectionFunction {
	return &singleColumn{typ: typ, channel: channel}
}

func (s *singleColumn) TupleTypes() []common.Type {
	return []common.Type{s.typ}
}

func (s *singleColumn) Validate(inputTypes []common.Type) error {
	if !checkChannel(s.channel, inputTypes) {
		return errors.NewInvalidProjectionError(fmt.Sprintf("channel %d does not exist, there are %d channels",
			s.channel, len(inputTypes)))
	}
	if inputTypes[s.channel] != s.typ {
		return errors.NewInvalidProjectionError(fmt.Sprintf("channel %d is %s but the projection is %s",
			s.channel, inputTypes[s.channel], s.typ))
	}
	return nil
}

func (s *singleColumn) Project(input []*block.Block) []*block.Block {
	return []*block.Block{input[s.channel]}
}

type concat struct {
	projections []ProjectionFunction
	types       []common.Type
}

// Concat places the columns of several projections side by side
func Concat(projections ...ProjectionFunction) ProjectionFunction {
	var types []common.Type
	for _, p := range projections {
		types = append(types, p.TupleTypes()...)
	}
	return &concat{projections: projections, types: types}
}

func (c *concat) TupleTypes() []common.Type {
	return c.types
}

func (c *concat) Validate(inputTypes []common.Type) error {
	if len(c.projections) == 0 {
		return errors.NewInvalidProjectionError("no columns")
	}
	for _, p := range c.projections {
		if err := p.Validate(inputTypes); err != nil {
			return err
		}
	}
	return nil
}

func (c *concat) Project(input []*block.Block) []*block.Block {
	output := make([]*block.Block, 0, len(c.types))
	for _, p := range c.projections {
		output = append(output, p.Project(input)...)
	}
	return output
}

// IdentityProjection projects every channel of types in order
func IdentityProjection(types []common.Type) ProjectionFunction {
	projections := make([]ProjectionFunction, len(types))
	for i, typ := range types {
		projections[i] = SingleColumn(typ, i)
	}
	return Concat(projections...)
}
