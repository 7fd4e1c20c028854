package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Exception instances
// ---------------------------------------------------------------------------

// TracebackEntry locates one frame in an exception's propagation path.
type TracebackEntry struct {
	Filename string
	CodeName string
	Line     int
}

// ExceptionInstance is a raised guest exception: its type, its message,
// an optional cause, and the traceback chain collected as frames unwind.
// Traceback entries are appended innermost-first.
type ExceptionInstance struct {
	ExcType   *Type
	Message   string
	Cause     *ExceptionInstance
	Traceback []TracebackEntry

	attrs map[string]Value
}

func (e *ExceptionInstance) Type() *Type { return e.ExcType }
func (e *ExceptionInstance) Str() string { return e.Message }
func (e *ExceptionInstance) Repr() string {
	if e.Message == "" {
		return e.ExcType.Name + "()"
	}
	return e.ExcType.Name + "(" + quoteStr(e.Message) + ")"
}

// NewException constructs an exception instance of the given type.
func NewException(t *Type, message string) *ExceptionInstance {
	e := &ExceptionInstance{
		ExcType: t,
		Message: message,
		attrs:   make(map[string]Value),
	}
	if message == "" {
		e.attrs["args"] = EmptyTuple
	} else {
		e.attrs["args"] = NewTuple([]Value{StrValue(message)})
	}
	return e
}

// Raise builds an exception instance with a formatted message. It is the
// construction path for every engine-raised guest error.
func Raise(t *Type, format string, a ...any) *ExceptionInstance {
	return NewException(t, fmt.Sprintf(format, a...))
}

// ---------------------------------------------------------------------------
// Exception type tree
// ---------------------------------------------------------------------------

var (
	BaseExceptionType       = newExceptionType("BaseException", ObjectType)
	ExceptionType           = newExceptionType("Exception", BaseExceptionType)
	NameErrorType           = newExceptionType("NameError", ExceptionType)
	TypeErrorType           = newExceptionType("TypeError", ExceptionType)
	ValueErrorType          = newExceptionType("ValueError", ExceptionType)
	RuntimeErrorType        = newExceptionType("RuntimeError", ExceptionType)
	NotImplementedErrorType = newExceptionType("NotImplementedError", ExceptionType)
	AttributeErrorType      = newExceptionType("AttributeError", ExceptionType)
	UnboundLocalErrorType   = newExceptionType("UnboundLocalError", ExceptionType)
	ZeroDivisionErrorType   = newExceptionType("ZeroDivisionError", ExceptionType)
	StopIterationType       = newExceptionType("StopIteration", ExceptionType)
)

func newExceptionType(name string, base *Type) *Type {
	return newType(name, base)
}

func init() {
	for _, t := range exceptionTypes() {
		t.New = exceptionNew
	}
}

// exceptionNew is the construction policy shared by every exception type:
// zero arguments for an empty message, one argument stringified, several
// arguments rendered as a tuple.
func exceptionNew(m *Machine, t *Type, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if len(kwargs) != 0 {
		return nil, Raise(TypeErrorType, "%s() takes no keyword arguments", t.Name)
	}
	switch len(args) {
	case 0:
		return NewException(t, ""), nil
	case 1:
		return NewException(t, args[0].Str()), nil
	default:
		e := NewException(t, NewTuple(args).Repr())
		e.attrs["args"] = NewTuple(args)
		return e, nil
	}
}

// exceptionTypes lists the tree for registration into module globals.
func exceptionTypes() []*Type {
	return []*Type{
		BaseExceptionType, ExceptionType, NameErrorType, TypeErrorType,
		ValueErrorType, RuntimeErrorType, NotImplementedErrorType,
		AttributeErrorType, UnboundLocalErrorType, ZeroDivisionErrorType,
		StopIterationType,
	}
}

// ---------------------------------------------------------------------------
// Traceback rendering
// ---------------------------------------------------------------------------

// FormatTraceback renders an unhandled exception the way the launcher
// prints it: most recent call last, then the exception's textual form.
func FormatTraceback(e *ExceptionInstance) string {
	var sb strings.Builder
	if len(e.Traceback) > 0 {
		sb.WriteString("Traceback (most recent call last):\n")
		for i := len(e.Traceback) - 1; i >= 0; i-- {
			entry := e.Traceback[i]
			fmt.Fprintf(&sb, "  File %q, line %d, in %s\n", entry.Filename, entry.Line, entry.CodeName)
		}
	}
	sb.WriteString(e.ExcType.Name)
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	sb.WriteByte('\n')
	if e.Cause != nil {
		sb.WriteString("caused by: ")
		sb.WriteString(FormatTraceback(e.Cause))
	}
	return sb.String()
}
