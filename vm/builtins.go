package vm

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Built-in registry
// ---------------------------------------------------------------------------

// registerBuiltins seeds a module globals mapping with the built-in
// functions, the built-in type objects, and the exception tree.
func registerBuiltins(globals map[string]Value) {
	for _, bf := range builtinFunctions {
		globals[bf.Name] = bf
	}
	for _, t := range []*Type{
		ObjectType, TypeType, IntType, BoolType, FloatType, StrType,
		BytesType, TupleType, ListType, DictType,
	} {
		globals[t.Name] = t
	}
	for _, t := range exceptionTypes() {
		globals[t.Name] = t
	}
}

var builtinFunctions = []*BuiltinFunction{
	NewBuiltin("print", builtinPrint),
	NewBuiltin("len", builtinLen),
	NewBuiltin("repr", builtinRepr),
	NewBuiltin("hash", builtinHash),
	NewBuiltin("isinstance", builtinIsinstance),
}

// ---------------------------------------------------------------------------
// Built-in functions
// ---------------------------------------------------------------------------

func builtinPrint(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	sep := " "
	end := "\n"
	for name, v := range kwargs {
		s, ok := v.(StrValue)
		if !ok {
			return nil, Raise(TypeErrorType, "print() %s must be a str, not '%s'", name, v.Type().Name)
		}
		switch name {
		case "sep":
			sep = string(s)
		case "end":
			end = string(s)
		default:
			return nil, Raise(TypeErrorType, "print() got an unexpected keyword argument '%s'", name)
		}
	}
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = v.Str()
	}
	if _, err := m.Stdout.Write([]byte(strings.Join(parts, sep) + end)); err != nil {
		return nil, Raise(RuntimeErrorType, "write to stdout failed: %s", err)
	}
	return None, nil
}

func builtinLen(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if exc := exactArgs("len", args, kwargs, 1); exc != nil {
		return nil, exc
	}
	switch t := args[0].(type) {
	case StrValue:
		return IntValue(len([]rune(string(t)))), nil
	case *BytesValue:
		return IntValue(len(t.Data)), nil
	case *TupleValue:
		return IntValue(len(t.Items)), nil
	case *ListValue:
		return IntValue(len(t.Items)), nil
	case *DictValue:
		return IntValue(t.Len()), nil
	}
	return nil, Raise(TypeErrorType, "object of type '%s' has no len()", args[0].Type().Name)
}

func builtinRepr(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if exc := exactArgs("repr", args, kwargs, 1); exc != nil {
		return nil, exc
	}
	return StrValue(args[0].Repr()), nil
}

func builtinHash(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if exc := exactArgs("hash", args, kwargs, 1); exc != nil {
		return nil, exc
	}
	h, exc := HashValue(args[0])
	if exc != nil {
		return nil, exc
	}
	return IntValue(h), nil
}

func builtinIsinstance(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if exc := exactArgs("isinstance", args, kwargs, 2); exc != nil {
		return nil, exc
	}
	check := func(t *Type) bool { return args[0].Type().IsSubtypeOf(t) }
	switch t := args[1].(type) {
	case *Type:
		return FromBool(check(t)), nil
	case *TupleValue:
		for _, item := range t.Items {
			it, ok := item.(*Type)
			if !ok {
				return nil, Raise(TypeErrorType, "isinstance() arg 2 must be a type or tuple of types")
			}
			if check(it) {
				return True, nil
			}
		}
		return False, nil
	}
	return nil, Raise(TypeErrorType, "isinstance() arg 2 must be a type or tuple of types")
}

func exactArgs(name string, args []Value, kwargs map[string]Value, n int) *ExceptionInstance {
	if len(kwargs) != 0 {
		return Raise(TypeErrorType, "%s() takes no keyword arguments", name)
	}
	if len(args) != n {
		return Raise(TypeErrorType, "%s() takes exactly %d argument(s) (%d given)", name, n, len(args))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Constructor policies for the built-in types
// ---------------------------------------------------------------------------

func init() {
	IntType.New = intNew
	BoolType.New = boolNew
	FloatType.New = floatNew
	StrType.New = strNew
	BytesType.New = bytesNew
	ListType.New = listNew
	TupleType.New = tupleNew
	DictType.New = dictNew
	TypeType.New = typeNew
}

func intNew(m *Machine, t *Type, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if exc := atMostArgs("int", args, kwargs, 1); exc != nil {
		return nil, exc
	}
	if len(args) == 0 {
		return IntValue(0), nil
	}
	switch v := args[0].(type) {
	case IntValue:
		return v, nil
	case BoolValue:
		return boolInt(v), nil
	case FloatValue:
		return IntValue(int64(v)), nil
	case StrValue:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return nil, Raise(ValueErrorType, "invalid literal for int() with base 10: %s", v.Repr())
		}
		return IntValue(n), nil
	}
	return nil, Raise(TypeErrorType, "int() argument must be a string or a number, not '%s'", args[0].Type().Name)
}

func boolNew(m *Machine, t *Type, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if exc := atMostArgs("bool", args, kwargs, 1); exc != nil {
		return nil, exc
	}
	if len(args) == 0 {
		return False, nil
	}
	return FromBool(Truthy(args[0])), nil
}

func floatNew(m *Machine, t *Type, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if exc := atMostArgs("float", args, kwargs, 1); exc != nil {
		return nil, exc
	}
	if len(args) == 0 {
		return FloatValue(0), nil
	}
	switch v := args[0].(type) {
	case FloatValue:
		return v, nil
	case IntValue:
		return FloatValue(v), nil
	case BoolValue:
		return FloatValue(boolInt(v)), nil
	case StrValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil, Raise(ValueErrorType, "could not convert string to float: %s", v.Repr())
		}
		return FloatValue(f), nil
	}
	return nil, Raise(TypeErrorType, "float() argument must be a string or a number, not '%s'", args[0].Type().Name)
}

func strNew(m *Machine, t *Type, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if exc := atMostArgs("str", args, kwargs, 1); exc != nil {
		return nil, exc
	}
	if len(args) == 0 {
		return StrValue(""), nil
	}
	return StrValue(args[0].Str()), nil
}

func bytesNew(m *Machine, t *Type, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if exc := atMostArgs("bytes", args, kwargs, 1); exc != nil {
		return nil, exc
	}
	if len(args) == 0 {
		return &BytesValue{}, nil
	}
	switch v := args[0].(type) {
	case *BytesValue:
		return v, nil
	case StrValue:
		return &BytesValue{Data: []byte(string(v))}, nil
	case IntValue:
		if v < 0 {
			return nil, Raise(ValueErrorType, "negative count")
		}
		return &BytesValue{Data: make([]byte, v)}, nil
	}
	return nil, Raise(TypeErrorType, "cannot convert '%s' object to bytes", args[0].Type().Name)
}

func listNew(m *Machine, t *Type, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if exc := atMostArgs("list", args, kwargs, 1); exc != nil {
		return nil, exc
	}
	if len(args) == 0 {
		return NewList(nil), nil
	}
	items, exc := iterableItems(args[0])
	if exc != nil {
		return nil, exc
	}
	return NewList(items), nil
}

func tupleNew(m *Machine, t *Type, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if exc := atMostArgs("tuple", args, kwargs, 1); exc != nil {
		return nil, exc
	}
	if len(args) == 0 {
		return EmptyTuple, nil
	}
	items, exc := iterableItems(args[0])
	if exc != nil {
		return nil, exc
	}
	return NewTuple(items), nil
}

func dictNew(m *Machine, t *Type, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if len(args) > 1 {
		return nil, Raise(TypeErrorType, "dict() takes at most 1 positional argument (%d given)", len(args))
	}
	d := NewDict()
	if len(args) == 1 {
		src, ok := args[0].(*DictValue)
		if !ok {
			return nil, Raise(TypeErrorType, "dict() argument must be a dict, not '%s'", args[0].Type().Name)
		}
		for _, e := range src.entries {
			if exc := d.Set(e.key, e.value); exc != nil {
				return nil, exc
			}
		}
	}
	for _, name := range sortedKeys(kwargs) {
		if exc := d.Set(StrValue(name), kwargs[name]); exc != nil {
			return nil, exc
		}
	}
	return d, nil
}

func typeNew(m *Machine, t *Type, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if exc := exactArgs("type", args, kwargs, 1); exc != nil {
		return nil, exc
	}
	return args[0].Type(), nil
}

func atMostArgs(name string, args []Value, kwargs map[string]Value, n int) *ExceptionInstance {
	if len(kwargs) != 0 {
		return Raise(TypeErrorType, "%s() takes no keyword arguments", name)
	}
	if len(args) > n {
		return Raise(TypeErrorType, "%s() takes at most %d argument(s) (%d given)", name, n, len(args))
	}
	return nil
}

// iterableItems materializes the element sequence of a container value.
func iterableItems(v Value) ([]Value, *ExceptionInstance) {
	switch t := v.(type) {
	case *ListValue:
		out := make([]Value, len(t.Items))
		copy(out, t.Items)
		return out, nil
	case *TupleValue:
		out := make([]Value, len(t.Items))
		copy(out, t.Items)
		return out, nil
	case StrValue:
		runes := []rune(string(t))
		out := make([]Value, len(runes))
		for i, r := range runes {
			out[i] = StrValue(r)
		}
		return out, nil
	case *BytesValue:
		out := make([]Value, len(t.Data))
		for i, b := range t.Data {
			out[i] = IntValue(b)
		}
		return out, nil
	case *DictValue:
		return t.Keys(), nil
	}
	return nil, Raise(TypeErrorType, "'%s' object is not iterable", v.Type().Name)
}
