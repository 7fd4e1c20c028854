package vm

// ---------------------------------------------------------------------------
// list methods
// ---------------------------------------------------------------------------

func init() {
	registerListMethod("append", 1, func(l *ListValue, args []Value) (Value, *ExceptionInstance) {
		l.Items = append(l.Items, args[0])
		return None, nil
	})
	registerListMethod("extend", 1, func(l *ListValue, args []Value) (Value, *ExceptionInstance) {
		items, exc := iterableItems(args[0])
		if exc != nil {
			return nil, exc
		}
		l.Items = append(l.Items, items...)
		return None, nil
	})
	registerListMethod("index", 1, func(l *ListValue, args []Value) (Value, *ExceptionInstance) {
		for i, item := range l.Items {
			if Equals(item, args[0]) {
				return IntValue(i), nil
			}
		}
		return nil, Raise(ValueErrorType, "%s is not in list", args[0].Repr())
	})

	ListType.Dict["pop"] = NewBuiltin("pop", listPop)
}

func listPop(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if len(kwargs) != 0 {
		return nil, Raise(TypeErrorType, "pop() takes no keyword arguments")
	}
	if len(args) < 1 || len(args) > 2 {
		return nil, Raise(TypeErrorType, "pop() takes at most 1 argument (%d given)", len(args)-1)
	}
	l, ok := args[0].(*ListValue)
	if !ok {
		return nil, Raise(TypeErrorType, "pop() requires a list receiver, not '%s'", args[0].Type().Name)
	}
	if len(l.Items) == 0 {
		return nil, Raise(ValueErrorType, "pop from empty list")
	}
	idx := len(l.Items) - 1
	if len(args) == 2 {
		i, exc := sequenceIndex(args[1], len(l.Items), "list")
		if exc != nil {
			return nil, exc
		}
		idx = i
	}
	v := l.Items[idx]
	l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
	return v, nil
}

func registerListMethod(name string, extra int, fn func(l *ListValue, args []Value) (Value, *ExceptionInstance)) {
	ListType.Dict[name] = NewBuiltin(name, func(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
		if len(kwargs) != 0 {
			return nil, Raise(TypeErrorType, "%s() takes no keyword arguments", name)
		}
		if len(args) != extra+1 {
			return nil, Raise(TypeErrorType, "%s() takes exactly %d argument(s) (%d given)", name, extra, len(args)-1)
		}
		l, ok := args[0].(*ListValue)
		if !ok {
			return nil, Raise(TypeErrorType, "%s() requires a list receiver, not '%s'", name, args[0].Type().Name)
		}
		return fn(l, args[1:])
	})
}

// ---------------------------------------------------------------------------
// dict methods
// ---------------------------------------------------------------------------

func init() {
	registerDictMethod("keys", 0, func(d *DictValue, args []Value) (Value, *ExceptionInstance) {
		return NewList(d.Keys()), nil
	})
	registerDictMethod("values", 0, func(d *DictValue, args []Value) (Value, *ExceptionInstance) {
		return NewList(d.Values()), nil
	})
	registerDictMethod("items", 0, func(d *DictValue, args []Value) (Value, *ExceptionInstance) {
		return NewList(d.Items()), nil
	})

	DictType.Dict["get"] = NewBuiltin("get", dictGet)
	DictType.Dict["pop"] = NewBuiltin("pop", dictPop)
}

func dictGet(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if len(kwargs) != 0 {
		return nil, Raise(TypeErrorType, "get() takes no keyword arguments")
	}
	if len(args) < 2 || len(args) > 3 {
		return nil, Raise(TypeErrorType, "get() takes 1 or 2 arguments (%d given)", len(args)-1)
	}
	d, ok := args[0].(*DictValue)
	if !ok {
		return nil, Raise(TypeErrorType, "get() requires a dict receiver, not '%s'", args[0].Type().Name)
	}
	v, found, exc := d.Get(args[1])
	if exc != nil {
		return nil, exc
	}
	if found {
		return v, nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return None, nil
}

func dictPop(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
	if len(kwargs) != 0 {
		return nil, Raise(TypeErrorType, "pop() takes no keyword arguments")
	}
	if len(args) < 2 || len(args) > 3 {
		return nil, Raise(TypeErrorType, "pop() takes 1 or 2 arguments (%d given)", len(args)-1)
	}
	d, ok := args[0].(*DictValue)
	if !ok {
		return nil, Raise(TypeErrorType, "pop() requires a dict receiver, not '%s'", args[0].Type().Name)
	}
	v, found, exc := d.Get(args[1])
	if exc != nil {
		return nil, exc
	}
	if found {
		if _, exc := d.Delete(args[1]); exc != nil {
			return nil, exc
		}
		return v, nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return nil, Raise(ValueErrorType, "key not found: %s", args[1].Repr())
}

func registerDictMethod(name string, extra int, fn func(d *DictValue, args []Value) (Value, *ExceptionInstance)) {
	DictType.Dict[name] = NewBuiltin(name, func(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance) {
		if len(kwargs) != 0 {
			return nil, Raise(TypeErrorType, "%s() takes no keyword arguments", name)
		}
		if len(args) != extra+1 {
			return nil, Raise(TypeErrorType, "%s() takes exactly %d argument(s) (%d given)", name, extra, len(args)-1)
		}
		d, ok := args[0].(*DictValue)
		if !ok {
			return nil, Raise(TypeErrorType, "%s() requires a dict receiver, not '%s'", name, args[0].Type().Name)
		}
		return fn(d, args[1:])
	})
}
