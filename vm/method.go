package vm

import "fmt"

// ---------------------------------------------------------------------------
// Callables
// ---------------------------------------------------------------------------

// Runnable is a frame ready to execute one call. Bytecode frames loop over
// instructions; built-in and constructor frames invoke a host procedure and
// return directly. Either way the result is a Return value or an Error.
type Runnable interface {
	RunFrame(args []Value, kwargs map[string]Value) FrameResult
}

// Callable is the capability that distinguishes invocable values: produce a
// fresh frame for one call. This keeps dispatch uniform across user
// functions, built-ins and types without an inheritance tower.
type Callable interface {
	Value
	NewCallFrame(m *Machine, parent *Frame) Runnable
}

// ---------------------------------------------------------------------------
// Function: user-defined callable
// ---------------------------------------------------------------------------

// Function is a user-defined callable: a code object, its derived
// signature, its default values, and the globals mapping of its defining
// module (shared with sibling functions of that module).
type Function struct {
	Name     string
	Code     *CodeObject
	Globals  map[string]Value
	Defaults map[string]Value
	Sig      *Signature
}

// NewFunction builds a function over code with the given globals. Defaults
// map trailing positional parameters; kwDefaults map keyword-only ones.
func NewFunction(name string, code *CodeObject, globals map[string]Value, defaults []Value, kwDefaults map[string]Value) *Function {
	fn := &Function{
		Name:     name,
		Code:     code,
		Globals:  globals,
		Defaults: make(map[string]Value, len(defaults)+len(kwDefaults)),
		Sig:      SignatureForCode(code),
	}
	// A defaults tuple of length k covers the last k positional parameters.
	start := code.ArgCount - len(defaults)
	for i, v := range defaults {
		fn.Defaults[code.Varnames[start+i]] = v
	}
	for name, v := range kwDefaults {
		fn.Defaults[name] = v
	}
	return fn
}

func (f *Function) Type() *Type { return FunctionType }
func (f *Function) Str() string { return f.Repr() }
func (f *Function) Repr() string { return fmt.Sprintf("<function %s>", f.Name) }

// NewCallFrame creates a bytecode frame for one invocation of f.
func (f *Function) NewCallFrame(m *Machine, parent *Frame) Runnable {
	return newFrame(m, f, parent)
}

// ---------------------------------------------------------------------------
// BoundMethod: a callable bound to a receiver
// ---------------------------------------------------------------------------

// BoundMethod pairs a receiver with the callable resolved through its type.
// Invocation prepends the receiver to the positional arguments and
// delegates to the wrapped callable.
type BoundMethod struct {
	Receiver Value
	Fn       Value
}

func (bm *BoundMethod) Type() *Type { return MethodType }
func (bm *BoundMethod) Str() string { return bm.Repr() }
func (bm *BoundMethod) Repr() string {
	return fmt.Sprintf("<bound method %s of %s>", callableName(bm.Fn), bm.Receiver.Repr())
}

// ---------------------------------------------------------------------------
// BuiltinFunction: host-implemented callable
// ---------------------------------------------------------------------------

// BuiltinImpl is the host procedure behind a built-in function.
type BuiltinImpl func(m *Machine, args []Value, kwargs map[string]Value) (Value, *ExceptionInstance)

// BuiltinFunction is a callable implemented by the host. It needs no
// bytecode frame; its call frame is a trivial one that invokes Fn and
// returns its result directly.
type BuiltinFunction struct {
	Name string
	Fn   BuiltinImpl
}

// NewBuiltin wraps a host procedure as a callable value.
func NewBuiltin(name string, fn BuiltinImpl) *BuiltinFunction {
	return &BuiltinFunction{Name: name, Fn: fn}
}

func (bf *BuiltinFunction) Type() *Type { return BuiltinFunctionType }
func (bf *BuiltinFunction) Str() string { return bf.Repr() }
func (bf *BuiltinFunction) Repr() string {
	return fmt.Sprintf("<built-in function %s>", bf.Name)
}

// NewCallFrame returns the trivial host frame for one invocation.
func (bf *BuiltinFunction) NewCallFrame(m *Machine, parent *Frame) Runnable {
	return &builtinFrame{machine: m, fn: bf}
}

// builtinFrame runs a host procedure in place of a bytecode loop.
type builtinFrame struct {
	machine *Machine
	fn      *BuiltinFunction
}

func (f *builtinFrame) RunFrame(args []Value, kwargs map[string]Value) FrameResult {
	v, exc := f.fn.Fn(f.machine, args, kwargs)
	if exc != nil {
		return FrameResult{Raised: exc}
	}
	if v == nil {
		v = None
	}
	return FrameResult{Returned: v}
}

// constructorFrame runs a type's instance-construction policy.
type constructorFrame struct {
	machine *Machine
	typ     *Type
}

func (f *constructorFrame) RunFrame(args []Value, kwargs map[string]Value) FrameResult {
	if f.typ.New == nil {
		return FrameResult{Raised: Raise(TypeErrorType, "cannot create '%s' instances", f.typ.Name)}
	}
	v, exc := f.typ.New(f.machine, f.typ, args, kwargs)
	if exc != nil {
		return FrameResult{Raised: exc}
	}
	return FrameResult{Returned: v}
}

// NewCallFrame makes types callable through their construction policy.
func (t *Type) NewCallFrame(m *Machine, parent *Frame) Runnable {
	return &constructorFrame{machine: m, typ: t}
}

func callableName(v Value) string {
	switch t := v.(type) {
	case *Function:
		return t.Name
	case *BuiltinFunction:
		return t.Name
	case *Type:
		return t.Name
	default:
		return v.Type().Name
	}
}
