package errors

import (
	"fmt"
)

type ErrorCode int

const (
	InternalError = iota
	InvalidConfiguration
	FunctionNotFound
	UnknownHandle
	DuplicateFunction
	AlignmentError
	IllegalState
	TypeMismatch
	InvalidProjection
	UnknownBenchmark
	UnknownBlockEncoding
	CorruptBlock
	UnknownColumn
)

func NewInternalError(ref string) ExecError {
	return NewExecErrorf(InternalError, "Internal error - reference: %s see the logs for details", ref)
}

func NewInvalidConfigurationError(msg string) ExecError {
	return NewExecErrorf(InvalidConfiguration, "Invalid configuration: %s", msg)
}

// NewFunctionNotFoundError is returned when no overload matches a name and argument type list exactly.
func NewFunctionNotFoundError(name string, argTypes string) ExecError {
	return NewExecErrorf(FunctionNotFound, "Function %s(%s) not registered", name, argTypes)
}

func NewUnknownHandleError(handle int) ExecError {
	return NewExecErrorf(UnknownHandle, "Unknown function handle %d", handle)
}

func NewDuplicateFunctionError(msg string) ExecError {
	return NewExecErrorf(DuplicateFunction, "Duplicate function: %s", msg)
}

func NewAlignmentError(msg string) ExecError {
	return NewExecErrorf(AlignmentError, "Sources are not aligned: %s", msg)
}

func NewIllegalStateError(msg string) ExecError {
	return NewExecErrorf(IllegalState, "Illegal state: %s", msg)
}

func NewTypeMismatchError(what string, expected fmt.Stringer, actual fmt.Stringer) ExecError {
	return NewExecErrorf(TypeMismatch, "Type mismatch for %s: expected %s but was %s", what, expected, actual)
}

func NewInvalidProjectionError(msg string) ExecError {
	return NewExecErrorf(InvalidProjection, "Invalid projection: %s", msg)
}

func NewUnknownBenchmarkError(name string) ExecError {
	return NewExecErrorf(UnknownBenchmark, "Unknown benchmark %s", name)
}

func NewUnknownBlockEncodingError(encoding byte) ExecError {
	return NewExecErrorf(UnknownBlockEncoding, "Unknown block encoding %d", encoding)
}

func NewCorruptBlockError(msg string) ExecError {
	return NewExecErrorf(CorruptBlock, "Corrupt block: %s", msg)
}

func NewUnknownColumnError(tableName string, columnName string) ExecError {
	return NewExecErrorf(UnknownColumn, "Unknown column: %s.%s", tableName, columnName)
}

func NewExecErrorf(errorCode ErrorCode, msgFormat string, args ...interface{}) ExecError {
	msg := fmt.Sprintf(fmt.Sprintf("EXE%04d - %s", errorCode, msgFormat), args...)
	return ExecError{Code: errorCode, Msg: msg}
}

// ExecError is an error which is reported to whoever drives the engine, e.g. the planner or the benchmark CLI
type ExecError struct {
	Code ErrorCode
	Msg  string
}

func (u ExecError) Error() string {
	return u.Msg
}

// HasCode returns true if there is an ExecError with the given code anywhere in the chain
func HasCode(err error, code ErrorCode) bool {
	var execErr ExecError
	if !As(err, &execErr) {
		return false
	}
	return execErr.Code == code
}
