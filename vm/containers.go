package vm

import (
	"math"
	"strings"
)

// ---------------------------------------------------------------------------
// Tuple
// ---------------------------------------------------------------------------

// TupleValue is an immutable ordered sequence. The Items slice is never
// mutated after construction.
type TupleValue struct {
	Items []Value
}

// EmptyTuple is the canonical zero-length tuple.
var EmptyTuple = &TupleValue{}

// NewTuple wraps items in a tuple, reusing the EmptyTuple singleton for a
// zero-length result.
func NewTuple(items []Value) *TupleValue {
	if len(items) == 0 {
		return EmptyTuple
	}
	return &TupleValue{Items: items}
}

func (t *TupleValue) Type() *Type { return TupleType }
func (t *TupleValue) Str() string { return t.Repr() }
func (t *TupleValue) Repr() string {
	if len(t.Items) == 1 {
		return "(" + t.Items[0].Repr() + ",)"
	}
	return "(" + joinReprs(t.Items) + ")"
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

// ListValue is a mutable ordered sequence. Lists are shared by reference;
// mutations are observable through every alias.
type ListValue struct {
	Items []Value
}

func NewList(items []Value) *ListValue { return &ListValue{Items: items} }

func (l *ListValue) Type() *Type { return ListType }
func (l *ListValue) Str() string { return l.Repr() }
func (l *ListValue) Repr() string { return "[" + joinReprs(l.Items) + "]" }

func joinReprs(items []Value) string {
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = v.Repr()
	}
	return strings.Join(parts, ", ")
}

// ---------------------------------------------------------------------------
// Dict
// ---------------------------------------------------------------------------

// DictValue is an insertion-ordered mapping from hashable values to values.
// Lookup goes through a canonical key encoding so that values which compare
// equal (1, 1.0, True) address the same entry.
type DictValue struct {
	entries []dictEntry
	index   map[string]int
}

type dictEntry struct {
	key   Value
	value Value
}

// NewDict creates an empty dict.
func NewDict() *DictValue {
	return &DictValue{index: make(map[string]int)}
}

func (d *DictValue) Type() *Type { return DictType }
func (d *DictValue) Str() string { return d.Repr() }
func (d *DictValue) Repr() string {
	parts := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		parts = append(parts, e.key.Repr()+": "+e.value.Repr())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Len returns the number of entries.
func (d *DictValue) Len() int { return len(d.entries) }

// Set inserts or updates key. Returns a TypeError for unhashable keys.
// A replaced key keeps its original insertion position.
func (d *DictValue) Set(key, value Value) *ExceptionInstance {
	ck, exc := canonicalKey(key)
	if exc != nil {
		return exc
	}
	if i, ok := d.index[ck]; ok {
		d.entries[i].value = value
		return nil
	}
	d.index[ck] = len(d.entries)
	d.entries = append(d.entries, dictEntry{key: key, value: value})
	return nil
}

// Get looks up key. The bool reports presence; unhashable keys raise.
func (d *DictValue) Get(key Value) (Value, bool, *ExceptionInstance) {
	ck, exc := canonicalKey(key)
	if exc != nil {
		return nil, false, exc
	}
	i, ok := d.index[ck]
	if !ok {
		return nil, false, nil
	}
	return d.entries[i].value, true, nil
}

// Delete removes key if present, preserving the order of the survivors.
func (d *DictValue) Delete(key Value) (bool, *ExceptionInstance) {
	ck, exc := canonicalKey(key)
	if exc != nil {
		return false, exc
	}
	i, ok := d.index[ck]
	if !ok {
		return false, nil
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, ck)
	for k, j := range d.index {
		if j > i {
			d.index[k] = j - 1
		}
	}
	return true, nil
}

// Keys returns the keys in insertion order.
func (d *DictValue) Keys() []Value {
	keys := make([]Value, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.key
	}
	return keys
}

// Items returns (key, value) pairs in insertion order.
func (d *DictValue) Items() []Value {
	items := make([]Value, len(d.entries))
	for i, e := range d.entries {
		items[i] = NewTuple([]Value{e.key, e.value})
	}
	return items
}

// Values returns the values in insertion order.
func (d *DictValue) Values() []Value {
	values := make([]Value, len(d.entries))
	for i, e := range d.entries {
		values[i] = e.value
	}
	return values
}

func dictEquals(a, b *DictValue) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, e := range a.entries {
		bv, ok, exc := b.Get(e.key)
		if exc != nil || !ok || !Equals(e.value, bv) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Canonical key encoding
// ---------------------------------------------------------------------------

// canonicalKey flattens a hashable value to a byte string such that equal
// values map to equal encodings. Integral floats and bools collapse to the
// int form, mirroring Equals.
func canonicalKey(v Value) (string, *ExceptionInstance) {
	var sb strings.Builder
	if exc := appendCanonicalKey(&sb, v); exc != nil {
		return "", exc
	}
	return sb.String(), nil
}

func appendCanonicalKey(sb *strings.Builder, v Value) *ExceptionInstance {
	switch t := v.(type) {
	case NoneValue:
		sb.WriteByte('N')
	case BoolValue:
		writeIntKey(sb, int64(boolInt(t)))
	case IntValue:
		writeIntKey(sb, int64(t))
	case FloatValue:
		f := float64(t)
		if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
			writeIntKey(sb, int64(f))
		} else {
			sb.WriteByte('f')
			writeUint64Key(sb, math.Float64bits(f))
		}
	case StrValue:
		sb.WriteByte('s')
		writeUint64Key(sb, uint64(len(t)))
		sb.WriteString(string(t))
	case *BytesValue:
		sb.WriteByte('b')
		writeUint64Key(sb, uint64(len(t.Data)))
		sb.Write(t.Data)
	case *TupleValue:
		sb.WriteByte('(')
		writeUint64Key(sb, uint64(len(t.Items)))
		for _, item := range t.Items {
			if exc := appendCanonicalKey(sb, item); exc != nil {
				return exc
			}
		}
	default:
		return Raise(TypeErrorType, "unhashable type: '%s'", v.Type().Name)
	}
	return nil
}

func writeIntKey(sb *strings.Builder, n int64) {
	sb.WriteByte('i')
	writeUint64Key(sb, uint64(n))
}

func writeUint64Key(sb *strings.Builder, n uint64) {
	var buf [8]byte
	putUint64(buf[:], n)
	sb.Write(buf[:])
}
