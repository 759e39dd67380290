package functions

import (
	"fmt"
	"strings"

	"github.com/squareup/blockexec/aggfuncs"
	"github.com/squareup/blockexec/common"
)

// Handle identifies a registered function for the lifetime of the Registry that assigned it. Planners persist
// the handle and look the function up again at execution time.
type Handle int

// FunctionInfo is the bound identity of one aggregate function overload. It is immutable.
type FunctionInfo struct {
	handle           Handle
	name             string
	returnType       common.Type
	argTypes         []common.Type
	intermediateType common.Type
	impl             aggfuncs.AggregateFunction
}

func NewFunctionInfo(handle Handle, name string, returnType common.Type, intermediateType common.Type,
	impl aggfuncs.AggregateFunction, argTypes ...common.Type) *FunctionInfo {
	args := make([]common.Type, len(argTypes))
	copy(args, argTypes)
	return &FunctionInfo{
		handle:           handle,
		name:             strings.ToLower(name),
		returnType:       returnType,
		argTypes:         args,
		intermediateType: intermediateType,
		impl:             impl,
	}
}

func (f *FunctionInfo) Handle() Handle {
	return f.handle
}

func (f *FunctionInfo) Name() string {
	return f.name
}

func (f *FunctionInfo) ReturnType() common.Type {
	return f.returnType
}

// ArgTypes returns the declared argument types. The returned slice must not be modified.
func (f *FunctionInfo) ArgTypes() []common.Type {
	return f.argTypes
}

func (f *FunctionInfo) IntermediateType() common.Type {
	return f.intermediateType
}

func (f *FunctionInfo) Implementation() aggfuncs.AggregateFunction {
	return f.impl
}

// Signature renders the name and argument types, e.g. "max(DOUBLE)"
func (f *FunctionInfo) Signature() string {
	return fmt.Sprintf("%s(%s)", f.name, common.TypesString(f.argTypes))
}

func (f *FunctionInfo) String() string {
	return fmt.Sprintf("%s -> %s [handle=%d]", f.Signature(), f.returnType, f.handle)
}
