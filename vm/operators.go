package vm

import "strings"

// ---------------------------------------------------------------------------
// Binary operators
// ---------------------------------------------------------------------------

// binaryAdd implements +: numeric addition with int/float promotion, and
// concatenation for str, bytes, tuple and list.
func binaryAdd(a, b Value) (Value, *ExceptionInstance) {
	switch at := a.(type) {
	case IntValue:
		switch bt := b.(type) {
		case IntValue:
			return IntValue(at + bt), nil
		case FloatValue:
			return FloatValue(FloatValue(at) + bt), nil
		case BoolValue:
			return IntValue(at + boolInt(bt)), nil
		}
	case FloatValue:
		if bn, ok := numericValue(b); ok {
			return FloatValue(float64(at) + bn), nil
		}
	case BoolValue:
		switch bt := b.(type) {
		case IntValue:
			return IntValue(boolInt(at) + bt), nil
		case BoolValue:
			return IntValue(boolInt(at) + boolInt(bt)), nil
		case FloatValue:
			return FloatValue(FloatValue(boolInt(at)) + bt), nil
		}
	case StrValue:
		if bt, ok := b.(StrValue); ok {
			return at + bt, nil
		}
	case *BytesValue:
		if bt, ok := b.(*BytesValue); ok {
			joined := make([]byte, 0, len(at.Data)+len(bt.Data))
			joined = append(joined, at.Data...)
			joined = append(joined, bt.Data...)
			return &BytesValue{Data: joined}, nil
		}
	case *TupleValue:
		if bt, ok := b.(*TupleValue); ok {
			joined := make([]Value, 0, len(at.Items)+len(bt.Items))
			joined = append(joined, at.Items...)
			joined = append(joined, bt.Items...)
			return NewTuple(joined), nil
		}
	case *ListValue:
		if bt, ok := b.(*ListValue); ok {
			joined := make([]Value, 0, len(at.Items)+len(bt.Items))
			joined = append(joined, at.Items...)
			joined = append(joined, bt.Items...)
			return NewList(joined), nil
		}
	}
	return nil, operandTypeError("+", a, b)
}

// binarySubtract implements - for numbers.
func binarySubtract(a, b Value) (Value, *ExceptionInstance) {
	ai, aIsInt := intOperand(a)
	bi, bIsInt := intOperand(b)
	if aIsInt && bIsInt {
		return IntValue(ai - bi), nil
	}
	an, aok := numericValue(a)
	bn, bok := numericValue(b)
	if aok && bok {
		return FloatValue(an - bn), nil
	}
	return nil, operandTypeError("-", a, b)
}

// binaryMultiply implements *: numeric product, plus sequence repetition
// for str, bytes, tuple and list against an int.
func binaryMultiply(a, b Value) (Value, *ExceptionInstance) {
	if n, ok := intOperand(b); ok {
		if repeated, handled := repeatSequence(a, n); handled {
			return repeated, nil
		}
	}
	if n, ok := intOperand(a); ok {
		if repeated, handled := repeatSequence(b, n); handled {
			return repeated, nil
		}
	}
	ai, aIsInt := intOperand(a)
	bi, bIsInt := intOperand(b)
	if aIsInt && bIsInt {
		return IntValue(ai * bi), nil
	}
	an, aok := numericValue(a)
	bn, bok := numericValue(b)
	if aok && bok {
		return FloatValue(an * bn), nil
	}
	return nil, operandTypeError("*", a, b)
}

// binaryTrueDivide implements /: always a float result, raising
// ZeroDivisionError on a zero divisor.
func binaryTrueDivide(a, b Value) (Value, *ExceptionInstance) {
	an, aok := numericValue(a)
	bn, bok := numericValue(b)
	if !aok || !bok {
		return nil, operandTypeError("/", a, b)
	}
	if bn == 0 {
		return nil, Raise(ZeroDivisionErrorType, "division by zero")
	}
	return FloatValue(an / bn), nil
}

// binarySubscript implements indexing: sequences by int (negative indices
// count from the end), dicts by hashable key.
func binarySubscript(obj, key Value) (Value, *ExceptionInstance) {
	switch t := obj.(type) {
	case StrValue:
		runes := []rune(string(t))
		i, exc := sequenceIndex(key, len(runes), "string")
		if exc != nil {
			return nil, exc
		}
		return StrValue(runes[i]), nil
	case *BytesValue:
		i, exc := sequenceIndex(key, len(t.Data), "bytes")
		if exc != nil {
			return nil, exc
		}
		return IntValue(t.Data[i]), nil
	case *TupleValue:
		i, exc := sequenceIndex(key, len(t.Items), "tuple")
		if exc != nil {
			return nil, exc
		}
		return t.Items[i], nil
	case *ListValue:
		i, exc := sequenceIndex(key, len(t.Items), "list")
		if exc != nil {
			return nil, exc
		}
		return t.Items[i], nil
	case *DictValue:
		v, ok, exc := t.Get(key)
		if exc != nil {
			return nil, exc
		}
		if !ok {
			return nil, Raise(ValueErrorType, "key not found: %s", key.Repr())
		}
		return v, nil
	}
	return nil, Raise(TypeErrorType, "'%s' object is not subscriptable", obj.Type().Name)
}

// compareValues applies an OpCompareOp code. Equality works across all
// variants; ordering is defined for numbers and strings only.
func compareValues(code byte, a, b Value) (Value, *ExceptionInstance) {
	switch code {
	case CmpEq:
		return FromBool(Equals(a, b)), nil
	case CmpNe:
		return FromBool(!Equals(a, b)), nil
	}

	var cmp int
	an, aok := numericValue(a)
	bn, bok := numericValue(b)
	switch {
	case aok && bok:
		switch {
		case an < bn:
			cmp = -1
		case an > bn:
			cmp = 1
		}
	default:
		as, aIsStr := a.(StrValue)
		bs, bIsStr := b.(StrValue)
		if !aIsStr || !bIsStr {
			if int(code) < len(compareNames) {
				return nil, Raise(TypeErrorType, "'%s' not supported between instances of '%s' and '%s'",
					compareNames[code], a.Type().Name, b.Type().Name)
			}
			return nil, nil // unreachable; dispatcher validates the code
		}
		cmp = strings.Compare(string(as), string(bs))
	}

	switch code {
	case CmpLt:
		return FromBool(cmp < 0), nil
	case CmpLe:
		return FromBool(cmp <= 0), nil
	case CmpGt:
		return FromBool(cmp > 0), nil
	case CmpGe:
		return FromBool(cmp >= 0), nil
	}
	return nil, nil // unreachable; dispatcher validates the code
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func boolInt(b BoolValue) IntValue {
	if b {
		return 1
	}
	return 0
}

// intOperand narrows Int and Bool to an int64 operand.
func intOperand(v Value) (int64, bool) {
	switch t := v.(type) {
	case IntValue:
		return int64(t), true
	case BoolValue:
		return int64(boolInt(t)), true
	}
	return 0, false
}

func repeatSequence(v Value, n int64) (Value, bool) {
	if n < 0 {
		n = 0
	}
	switch t := v.(type) {
	case StrValue:
		return StrValue(strings.Repeat(string(t), int(n))), true
	case *BytesValue:
		out := make([]byte, 0, int(n)*len(t.Data))
		for i := int64(0); i < n; i++ {
			out = append(out, t.Data...)
		}
		return &BytesValue{Data: out}, true
	case *TupleValue:
		return NewTuple(repeatItems(t.Items, n)), true
	case *ListValue:
		return NewList(repeatItems(t.Items, n)), true
	}
	return nil, false
}

func repeatItems(items []Value, n int64) []Value {
	out := make([]Value, 0, int(n)*len(items))
	for i := int64(0); i < n; i++ {
		out = append(out, items...)
	}
	return out
}

// sequenceIndex normalizes an index value against a sequence length,
// handling negative indices and bounds.
func sequenceIndex(key Value, length int, what string) (int, *ExceptionInstance) {
	n, ok := intOperand(key)
	if !ok {
		return 0, Raise(TypeErrorType, "%s indices must be integers, not '%s'", what, key.Type().Name)
	}
	if n < 0 {
		n += int64(length)
	}
	if n < 0 || n >= int64(length) {
		return 0, Raise(ValueErrorType, "%s index out of range", what)
	}
	return int(n), nil
}

func operandTypeError(op string, a, b Value) *ExceptionInstance {
	return Raise(TypeErrorType, "unsupported operand type(s) for %s: '%s' and '%s'",
		op, a.Type().Name, b.Type().Name)
}
