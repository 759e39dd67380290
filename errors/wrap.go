// Package errors mirrors the github.com/pkg/errors API and adds coded ExecError values.
//
// Every wrap records a stack trace, which gets noisy when errors are wrapped at each level of an operator
// pipeline. StackTrace drops a trace when it is a suffix of the trace of the wrapped cause, so a logged
// error normally carries only its root trace.
package errors

import (
	stderrors "errors" //nolint: depguard
	"fmt"
	"io"
	"runtime"

	"github.com/pkg/errors" //nolint: depguard
)

// New returns an error with the supplied message and records the stack trace at the point it was called.
func New(message string) error {
	return newStackErr(nil, message)
}

// Errorf formats according to a format specifier and records the stack trace at the point it was called.
func Errorf(format string, args ...interface{}) error {
	return newStackErr(nil, fmt.Sprintf(format, args...))
}

// Wrapf annotates err with a stack trace and the format specifier. If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return newStackErr(err, fmt.Sprintf(format, args...))
}

// Wrap annotates err with a stack trace and the supplied message. If err is nil, Wrap returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return newStackErr(err, message)
}

// WithStack annotates err with a stack trace. If err is nil, WithStack returns nil.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return newStackErr(err, "")
}

// Cause returns the innermost error that does not itself have a cause.
func Cause(err error) error {
	for err != nil {
		cause, ok := err.(causer)
		if !ok {
			break
		}
		if cause.Cause() == nil {
			break
		}
		err = cause.Cause()
	}
	return err
}

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }

type stackErr struct {
	cause error
	stack errors.StackTrace
	msg   string
}

func newStackErr(cause error, msg string) error {
	// drop this frame and the exported function that called us
	stack := errors.New("").(stackTracer).StackTrace()[2:]
	return &stackErr{
		cause: cause,
		stack: stack,
		msg:   msg,
	}
}

func (e *stackErr) Error() string {
	if e.cause != nil {
		if e.msg != "" {
			return e.msg + ": " + e.cause.Error()
		}
		return e.cause.Error()
	}
	return e.msg
}

func (e *stackErr) Cause() error {
	return e.cause
}

func (e *stackErr) Unwrap() error { return e.cause }

// StackTrace returns nil when the stack of this error is already contained in the stack of its cause.
func (e *stackErr) StackTrace() errors.StackTrace {
	var cStack errors.StackTrace
	if pCause, ok := e.cause.(*stackErr); ok {
		cStack = pCause.stack
	} else if sCause, ok := e.cause.(stackTracer); ok {
		cStack = sCause.StackTrace()
	}
	if cStack == nil || len(cStack) < len(e.stack) {
		return e.stack
	}
	for i := 1; i < len(e.stack); i++ {
		if cStack[len(cStack)-i] != e.stack[len(e.stack)-i] {
			return e.stack
		}
	}
	// the top frame's pc differs by line so only the function is compared
	if sameFunc(cStack[len(cStack)-len(e.stack)], e.stack[0]) {
		return nil
	}
	return e.stack
}

func sameFunc(f1 errors.Frame, f2 errors.Frame) bool {
	file1, name1 := frameInfo(f1)
	file2, name2 := frameInfo(f2)
	return file1 == file2 && name1 == name2
}

func frameInfo(f errors.Frame) (string, string) {
	pc := uintptr(f) - 1
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown", "unknown"
	}
	file, _ := fn.FileLine(pc)
	return file, fn.Name()
}

// nolint:errcheck
func (e *stackErr) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if !s.Flag('+') {
			io.WriteString(s, e.Error())
			return
		}
		if e.cause != nil {
			fmt.Fprintf(s, "%+v", e.cause)
		}
		if e.msg != "" {
			if e.cause != nil {
				io.WriteString(s, "\n")
			}
			io.WriteString(s, e.msg)
		}
		if stack := e.StackTrace(); stack != nil {
			fmt.Fprintf(s, "%+v", stack)
		}
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

type causer interface {
	Cause() error
}
