package functions

import (
	"testing"

	"github.com/squareup/blockexec/aggfuncs"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryHandles(t *testing.T) {
	r := NewDefaultRegistry()
	fns := r.Functions()
	require.Equal(t, 11, len(fns))
	for i, info := range fns {
		require.Equal(t, Handle(i+1), info.Handle())
	}
	require.Equal(t, 3, len(r.Overloads("MAX")))
}

func TestResolveIsIdempotent(t *testing.T) {
	r := NewDefaultRegistry()
	for _, expected := range r.Functions() {
		info1, err := r.Resolve(expected.Name(), expected.ArgTypes())
		require.NoError(t, err)
		info2, err := r.Resolve(expected.Name(), expected.ArgTypes())
		require.NoError(t, err)
		require.Equal(t, info1.Handle(), info2.Handle())
		require.Same(t, expected, info1)
	}
}

func TestResolveHandleRoundTrip(t *testing.T) {
	r := NewDefaultRegistry()
	for _, info := range r.Functions() {
		resolved, err := r.Resolve(info.Name(), info.ArgTypes())
		require.NoError(t, err)
		byHandle, err := r.ResolveHandle(resolved.Handle())
		require.NoError(t, err)
		require.Same(t, resolved, byHandle)
	}
}

func TestResolveMaxOverloads(t *testing.T) {
	r := NewDefaultRegistry()
	info, err := r.Resolve("max", []common.Type{common.TypeDouble})
	require.NoError(t, err)
	require.Equal(t, "max", info.Name())
	require.Equal(t, []common.Type{common.TypeDouble}, info.ArgTypes())
	require.Equal(t, common.TypeDouble, info.ReturnType())
	require.Equal(t, Handle(7), info.Handle())

	_, err = r.Resolve("max", []common.Type{common.TypeVarchar})
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.FunctionNotFound))
	require.Equal(t, "EXE0002 - Function max(VARCHAR) not registered", err.Error())
}

func TestResolveExactArity(t *testing.T) {
	r := NewDefaultRegistry()
	info, err := r.Resolve("count", nil)
	require.NoError(t, err)
	require.Equal(t, "count()", info.Signature())

	_, err = r.Resolve("count", []common.Type{common.TypeBigInt})
	require.True(t, errors.HasCode(err, errors.FunctionNotFound))
	_, err = r.Resolve("sum", []common.Type{common.TypeBigInt, common.TypeBigInt})
	require.True(t, errors.HasCode(err, errors.FunctionNotFound))
	_, err = r.Resolve("median", []common.Type{common.TypeBigInt})
	require.True(t, errors.HasCode(err, errors.FunctionNotFound))
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	r := NewDefaultRegistry()
	info, err := r.Resolve("SUM", []common.Type{common.TypeBigInt})
	require.NoError(t, err)
	require.Equal(t, "sum", info.Name())
}

func TestUnknownHandle(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.ResolveHandle(Handle(100))
	require.True(t, errors.HasCode(err, errors.UnknownHandle))
	require.Equal(t, "EXE0003 - Unknown function handle 100", err.Error())
}

func TestAverageIntermediateType(t *testing.T) {
	r := NewDefaultRegistry()
	info, err := r.Resolve("avg", []common.Type{common.TypeBigInt})
	require.NoError(t, err)
	require.Equal(t, common.TypeVarbinary, info.IntermediateType())
	require.Equal(t, common.TypeDouble, info.ReturnType())
}

func TestDuplicateHandle(t *testing.T) {
	fn := aggfuncs.MustNewAggregateFunction
	_, err := NewRegistry(
		NewFunctionInfo(1, "sum", common.TypeBigInt, common.TypeBigInt, fn(aggfuncs.LongSumAggregateFunctionType), common.TypeBigInt),
		NewFunctionInfo(1, "count", common.TypeBigInt, common.TypeBigInt, fn(aggfuncs.CountAggregateFunctionType)),
	)
	require.True(t, errors.HasCode(err, errors.DuplicateFunction))
}

func TestDuplicateSignature(t *testing.T) {
	fn := aggfuncs.MustNewAggregateFunction
	_, err := NewRegistry(
		NewFunctionInfo(1, "sum", common.TypeBigInt, common.TypeBigInt, fn(aggfuncs.LongSumAggregateFunctionType), common.TypeBigInt),
		NewFunctionInfo(2, "SUM", common.TypeBigInt, common.TypeBigInt, fn(aggfuncs.LongSumAggregateFunctionType), common.TypeBigInt),
	)
	require.True(t, errors.HasCode(err, errors.DuplicateFunction))
}

func TestImplementationMismatch(t *testing.T) {
	fn := aggfuncs.MustNewAggregateFunction
	_, err := NewRegistry(
		NewFunctionInfo(1, "sum", common.TypeDouble, common.TypeBigInt, fn(aggfuncs.LongSumAggregateFunctionType), common.TypeBigInt),
	)
	require.True(t, errors.HasCode(err, errors.TypeMismatch))

	_, err = NewRegistry(
		NewFunctionInfo(1, "sum", common.TypeBigInt, common.TypeBigInt, fn(aggfuncs.LongSumAggregateFunctionType), common.TypeDouble),
	)
	require.True(t, errors.HasCode(err, errors.InvalidConfiguration))

	_, err = NewRegistry(NewFunctionInfo(1, "sum", common.TypeBigInt, common.TypeBigInt, nil))
	require.True(t, errors.HasCode(err, errors.InvalidConfiguration))
}

func TestParseSignature(t *testing.T) {
	testCases := []struct {
		sig      string
		name     string
		argTypes []common.Type
	}{
		{"count()", "count", []common.Type{}},
		{"max(DOUBLE)", "max", []common.Type{common.TypeDouble}},
		{"sum( bigint )", "sum", []common.Type{common.TypeBigInt}},
		{"f(BIGINT, varbinary)", "f", []common.Type{common.TypeBigInt, common.TypeVarbinary}},
	}
	for _, tc := range testCases {
		t.Run(tc.sig, func(t *testing.T) {
			sig, err := ParseSignature(tc.sig)
			require.NoError(t, err)
			require.Equal(t, tc.name, sig.Name)
			require.Equal(t, tc.argTypes, sig.ArgTypes)
		})
	}
}

func TestParseSignatureErrors(t *testing.T) {
	for _, s := range []string{"max", "max(", "max(FOO)", "max(BIGINT,)"} {
		_, err := ParseSignature(s)
		require.Error(t, err, s)
		require.True(t, errors.HasCode(err, errors.InvalidConfiguration), s)
	}
}

func TestResolveSignature(t *testing.T) {
	r := NewDefaultRegistry()
	info, err := r.ResolveSignature("min(VARBINARY)")
	require.NoError(t, err)
	require.Equal(t, Handle(11), info.Handle())
	_, err = r.ResolveSignature("min(VARCHAR)")
	require.True(t, errors.HasCode(err, errors.FunctionNotFound))
}
