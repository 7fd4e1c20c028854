package vm

import "fmt"

// ---------------------------------------------------------------------------
// Type: the class metaobject
// ---------------------------------------------------------------------------

// TypeNewFunc is a type's instance-construction policy, invoked when the
// type itself is called.
type TypeNewFunc func(m *Machine, t *Type, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance)

// Type describes a guest class: its name, its attribute dictionary
// (methods and class-level values), its parent types, and how instances
// are constructed. Types without a New policy are not callable.
type Type struct {
	Name  string
	Bases []*Type
	Dict  map[string]Value
	New   TypeNewFunc
}

func newType(name string, bases ...*Type) *Type {
	return &Type{Name: name, Bases: bases, Dict: make(map[string]Value)}
}

func (t *Type) Type() *Type { return TypeType }
func (t *Type) Str() string { return t.Repr() }
func (t *Type) Repr() string { return fmt.Sprintf("<class '%s'>", t.Name) }

// Lookup resolves name on the type: its own dictionary first, then parents
// left-to-right, depth-first.
func (t *Type) Lookup(name string) (Value, bool) {
	if v, ok := t.Dict[name]; ok {
		return v, true
	}
	for _, base := range t.Bases {
		if v, ok := base.Lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

// IsSubtypeOf reports whether t is other or descends from it.
func (t *Type) IsSubtypeOf(other *Type) bool {
	if t == other {
		return true
	}
	for _, base := range t.Bases {
		if base.IsSubtypeOf(other) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Built-in type metaobjects
// ---------------------------------------------------------------------------

var (
	TypeType   = newType("type")
	ObjectType = newType("object")

	NoneType  = newType("NoneType", ObjectType)
	IntType   = newType("int", ObjectType)
	BoolType  = newType("bool", IntType)
	FloatType = newType("float", ObjectType)
	StrType   = newType("str", ObjectType)
	BytesType = newType("bytes", ObjectType)
	TupleType = newType("tuple", ObjectType)
	ListType  = newType("list", ObjectType)
	DictType  = newType("dict", ObjectType)

	FunctionType        = newType("function", ObjectType)
	MethodType          = newType("method", ObjectType)
	BuiltinFunctionType = newType("builtin_function_or_method", ObjectType)
	CodeType            = newType("code", ObjectType)
)

// ---------------------------------------------------------------------------
// Attribute protocol
// ---------------------------------------------------------------------------

// GetAttribute resolves an attribute on a value: the instance dictionary
// first (for variants that carry one), then the type dictionary and its
// parents. A function resolved through an instance descriptor-binds into a
// method carrying the receiver.
func GetAttribute(v Value, name string) (Value, *ExceptionInstance) {
	switch t := v.(type) {
	case *Type:
		if attr, ok := t.Lookup(name); ok {
			return attr, nil
		}
		return nil, Raise(AttributeErrorType, "type object '%s' has no attribute '%s'", t.Name, name)
	case *ExceptionInstance:
		if attr, ok := t.attrs[name]; ok {
			return attr, nil
		}
	}
	if attr, ok := v.Type().Lookup(name); ok {
		return descriptorGet(attr, v), nil
	}
	return nil, Raise(AttributeErrorType, "'%s' object has no attribute '%s'", v.Type().Name, name)
}

// SetAttribute performs attribute assignment. Only types and exception
// instances carry writable attribute storage in the minimal object model.
func SetAttribute(v Value, name string, val Value) *ExceptionInstance {
	switch t := v.(type) {
	case *Type:
		t.Dict[name] = val
		return nil
	case *ExceptionInstance:
		t.attrs[name] = val
		return nil
	}
	return Raise(AttributeErrorType, "'%s' object does not support attribute assignment", v.Type().Name)
}

// descriptorGet applies the descriptor protocol for attributes found on a
// type through an instance. Functions and built-ins bind to the receiver;
// anything else is returned as-is.
func descriptorGet(attr Value, instance Value) Value {
	switch attr.(type) {
	case *Function, *BuiltinFunction:
		return &BoundMethod{Receiver: instance, Fn: attr}
	}
	return attr
}
