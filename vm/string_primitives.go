package vm

import "strings"

// ---------------------------------------------------------------------------
// str methods
// ---------------------------------------------------------------------------

// String methods are host-implemented callables registered in StrType's
// attribute dictionary. Resolved through an instance they descriptor-bind,
// so the receiver arrives as the first positional argument.
func init() {
	registerStrMethod("upper", 0, func(s string, args []Value) (Value, *ExceptionInstance) {
		return StrValue(strings.ToUpper(s)), nil
	})
	registerStrMethod("lower", 0, func(s string, args []Value) (Value, *ExceptionInstance) {
		return StrValue(strings.ToLower(s)), nil
	})
	registerStrMethod("strip", 0, func(s string, args []Value) (Value, *ExceptionInstance) {
		return StrValue(strings.TrimSpace(s)), nil
	})
	registerStrMethod("startswith", 1, func(s string, args []Value) (Value, *ExceptionInstance) {
		prefix, exc := strArg("startswith", args[0])
		if exc != nil {
			return nil, exc
		}
		return FromBool(strings.HasPrefix(s, prefix)), nil
	})
	registerStrMethod("endswith", 1, func(s string, args []Value) (Value, *ExceptionInstance) {
		suffix, exc := strArg("endswith", args[0])
		if exc != nil {
			return nil, exc
		}
		return FromBool(strings.HasSuffix(s, suffix)), nil
	})
	registerStrMethod("find", 1, func(s string, args []Value) (Value, *ExceptionInstance) {
		needle, exc := strArg("find", args[0])
		if exc != nil {
			return nil, exc
		}
		return IntValue(strings.Index(s, needle)), nil
	})
	registerStrMethod("replace", 2, func(s string, args []Value) (Value, *ExceptionInstance) {
		old, exc := strArg("replace", args[0])
		if exc != nil {
			return nil, exc
		}
		repl, exc := strArg("replace", args[1])
		if exc != nil {
			return nil, exc
		}
		return StrValue(strings.ReplaceAll(s, old, repl)), nil
	})
	registerStrMethod("join", 1, func(s string, args []Value) (Value, *ExceptionInstance) {
		items, exc := iterableItems(args[0])
		if exc != nil {
			return nil, exc
		}
		parts := make([]string, len(items))
		for i, item := range items {
			sv, ok := item.(StrValue)
			if !ok {
				return nil, Raise(TypeErrorType,
					"sequence item %d: expected str instance, '%s' found", i, item.Type().Name)
			}
			parts[i] = string(sv)
		}
		return StrValue(strings.Join(parts, s)), nil
	})

	// split takes an optional separator, so it registers raw.
	StrType.Dict["split"] = NewBuiltin("split", strSplit)
}

func strSplit(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if len(kwargs) != 0 {
		return nil, Raise(TypeErrorType, "split() takes no keyword arguments")
	}
	if len(args) < 1 || len(args) > 2 {
		return nil, Raise(TypeErrorType, "split() takes at most 1 argument (%d given)", len(args)-1)
	}
	recv, ok := args[0].(StrValue)
	if !ok {
		return nil, Raise(TypeErrorType, "split() requires a str receiver, not '%s'", args[0].Type().Name)
	}
	var parts []string
	if len(args) == 1 {
		parts = strings.Fields(string(recv))
	} else {
		sep, exc := strArg("split", args[1])
		if exc != nil {
			return nil, exc
		}
		if sep == "" {
			return nil, Raise(ValueErrorType, "empty separator")
		}
		parts = strings.Split(string(recv), sep)
	}
	items := make([]Value, len(parts))
	for i, p := range parts {
		items[i] = StrValue(p)
	}
	return NewList(items), nil
}

// registerStrMethod wraps a host procedure taking the receiver string and
// exactly extra positional arguments.
func registerStrMethod(name string, extra int, fn func(s string, args []Value) (Value, *ExceptionInstance)) {
	StrType.Dict[name] = NewBuiltin(name, func(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
		if len(kwargs) != 0 {
			return nil, Raise(TypeErrorType, "%s() takes no keyword arguments", name)
		}
		if len(args) != extra+1 {
			return nil, Raise(TypeErrorType, "%s() takes exactly %d argument(s) (%d given)", name, extra, len(args)-1)
		}
		recv, ok := args[0].(StrValue)
		if !ok {
			return nil, Raise(TypeErrorType, "%s() requires a str receiver, not '%s'", name, args[0].Type().Name)
		}
		return fn(string(recv), args[1:])
	})
}

func strArg(method string, v Value) (string, *ExceptionInstance) {
	s, ok := v.(StrValue)
	if !ok {
		return "", Raise(TypeErrorType, "%s() argument must be a str, not '%s'", method, v.Type().Name)
	}
	return string(s), nil
}
