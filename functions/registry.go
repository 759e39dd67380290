package functions

import (
	"fmt"
	"strings"

	"github.com/squareup/blockexec/aggfuncs"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// Registry resolves aggregate functions by name and exact argument types, or by handle. It owns the canonical
// list of FunctionInfo, the two indexes only refer into it. A Registry is never mutated after construction so
// it is safe for concurrent use.
type Registry struct {
	functions []*FunctionInfo
	byName    map[string][]*FunctionInfo
	byHandle  map[Handle]*FunctionInfo
}

// NewRegistry builds a registry from functions. Duplicate handles, duplicate signatures, or a FunctionInfo
// whose declared types disagree with its implementation are rejected.
func NewRegistry(functions ...*FunctionInfo) (*Registry, error) {
	r := &Registry{
		functions: make([]*FunctionInfo, 0, len(functions)),
		byName:    make(map[string][]*FunctionInfo),
		byHandle:  make(map[Handle]*FunctionInfo, len(functions)),
	}
	for _, info := range functions {
		if err := checkImplementation(info); err != nil {
			return nil, err
		}
		if prev, ok := r.byHandle[info.handle]; ok {
			return nil, errors.NewDuplicateFunctionError(fmt.Sprintf("handle %d is used by %s and %s", info.handle,
				prev.Signature(), info.Signature()))
		}
		for _, overload := range r.byName[info.name] {
			if common.TypesEqual(overload.argTypes, info.argTypes) {
				return nil, errors.NewDuplicateFunctionError(info.Signature())
			}
		}
		r.functions = append(r.functions, info)
		r.byName[info.name] = append(r.byName[info.name], info)
		r.byHandle[info.handle] = info
	}
	return r, nil
}

func checkImplementation(info *FunctionInfo) error {
	impl := info.impl
	if impl == nil {
		return errors.NewInvalidConfigurationError(fmt.Sprintf("function %s has no implementation", info.Signature()))
	}
	if !common.TypesEqual(impl.ArgTypes(), info.argTypes) {
		return errors.NewInvalidConfigurationError(fmt.Sprintf("function %s is implemented for arguments (%s)",
			info.Signature(), common.TypesString(impl.ArgTypes())))
	}
	if impl.FinalType() != info.returnType {
		return errors.NewTypeMismatchError(info.Signature()+" return type", info.returnType, impl.FinalType())
	}
	if impl.IntermediateType() != info.intermediateType {
		return errors.NewTypeMismatchError(info.Signature()+" intermediate type", info.intermediateType, impl.IntermediateType())
	}
	return nil
}

// NewDefaultRegistry returns the built in aggregate functions
func NewDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultFunctions()...)
	if err != nil {
		// The built in function table is static
		panic(err)
	}
	return r
}

// DefaultFunctions returns the built in aggregate functions with their handles
func DefaultFunctions() []*FunctionInfo {
	fn := aggfuncs.MustNewAggregateFunction
	return []*FunctionInfo{
		NewFunctionInfo(1, "count", common.TypeBigInt, common.TypeBigInt, fn(aggfuncs.CountAggregateFunctionType)),
		NewFunctionInfo(2, "sum", common.TypeBigInt, common.TypeBigInt, fn(aggfuncs.LongSumAggregateFunctionType), common.TypeBigInt),
		NewFunctionInfo(3, "sum", common.TypeDouble, common.TypeDouble, fn(aggfuncs.DoubleSumAggregateFunctionType), common.TypeDouble),
		NewFunctionInfo(4, "avg", common.TypeDouble, common.TypeVarbinary, fn(aggfuncs.DoubleAverageAggregateFunctionType), common.TypeDouble),
		NewFunctionInfo(5, "avg", common.TypeDouble, common.TypeVarbinary, fn(aggfuncs.LongAverageAggregateFunctionType), common.TypeBigInt),
		NewFunctionInfo(6, "max", common.TypeBigInt, common.TypeBigInt, fn(aggfuncs.LongMaxAggregateFunctionType), common.TypeBigInt),
		NewFunctionInfo(7, "max", common.TypeDouble, common.TypeDouble, fn(aggfuncs.DoubleMaxAggregateFunctionType), common.TypeDouble),
		NewFunctionInfo(8, "max", common.TypeVarbinary, common.TypeVarbinary, fn(aggfuncs.VarbinaryMaxAggregateFunctionType), common.TypeVarbinary),
		NewFunctionInfo(9, "min", common.TypeBigInt, common.TypeBigInt, fn(aggfuncs.LongMinAggregateFunctionType), common.TypeBigInt),
		NewFunctionInfo(10, "min", common.TypeDouble, common.TypeDouble, fn(aggfuncs.DoubleMinAggregateFunctionType), common.TypeDouble),
		NewFunctionInfo(11, "min", common.TypeVarbinary, common.TypeVarbinary, fn(aggfuncs.VarbinaryMinAggregateFunctionType), common.TypeVarbinary),
	}
}

// Resolve returns the overload of name whose argument types equal argTypes element by element. There is no
// coercion, callers insert casts before resolving.
func (r *Registry) Resolve(name string, argTypes []common.Type) (*FunctionInfo, error) {
	lower := strings.ToLower(name)
	for _, info := range r.byName[lower] {
		if common.TypesEqual(info.argTypes, argTypes) {
			return info, nil
		}
	}
	return nil, errors.NewFunctionNotFoundError(lower, common.TypesString(argTypes))
}

func (r *Registry) ResolveHandle(handle Handle) (*FunctionInfo, error) {
	info, ok := r.byHandle[handle]
	if !ok {
		return nil, errors.NewUnknownHandleError(int(handle))
	}
	return info, nil
}

// ResolveSignature parses a signature such as "max(DOUBLE)" and resolves it
func (r *Registry) ResolveSignature(signature string) (*FunctionInfo, error) {
	sig, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	return r.Resolve(sig.Name, sig.ArgTypes)
}

// Overloads returns the functions registered under name in registration order
func (r *Registry) Overloads(name string) []*FunctionInfo {
	overloads := r.byName[strings.ToLower(name)]
	res := make([]*FunctionInfo, len(overloads))
	copy(res, overloads)
	return res
}

// Functions returns every registered function in registration order
func (r *Registry) Functions() []*FunctionInfo {
	res := make([]*FunctionInfo, len(r.functions))
	copy(res, r.functions)
	return res
}
