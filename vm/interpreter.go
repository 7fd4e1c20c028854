package vm

import "fmt"

// ---------------------------------------------------------------------------
// Frame results and engine errors
// ---------------------------------------------------------------------------

// FrameResult is the outcome of running one frame to completion: either a
// returned value or a raised exception, never both.
type FrameResult struct {
	Returned Value
	Raised   *ExceptionInstance
}

// EngineError reports an unrecoverable engine fault: corrupted bytecode or
// a violated internal invariant. Engine errors abort the run and are never
// surfaced to guest code.
type EngineError struct {
	Msg string
}

func (e *EngineError) Error() string { return e.Msg }

func enginef(format string, a ...any) {
	panic(&EngineError{Msg: fmt.Sprintf(format, a...)})
}

// ---------------------------------------------------------------------------
// Frame: one activation record
// ---------------------------------------------------------------------------

// Frame is the runtime activation record for one call of a user function
// or module body. It owns its operand stack (bounded by the code object's
// stack size), its local slots, and its lazy name-cache slots. The parent
// link is a back-reference only; the parent outlives the child and the
// child link is cleared as soon as the call returns.
type Frame struct {
	machine *Machine
	fn      *Function
	code    *CodeObject
	globals map[string]Value

	stack []Value
	sp    int

	locals    []Value // nil slot = unbound
	nameCache []Value // nil slot = unresolved

	ip     int // index into code.Instructions
	lastIP int // instruction currently executing, for tracebacks

	parent *Frame
	child  Runnable

	moduleScope bool
}

func newFrame(m *Machine, fn *Function, parent *Frame) *Frame {
	code := fn.Code
	nlocals := code.NLocals
	if n := len(code.Varnames); n > nlocals {
		nlocals = n
	}
	return &Frame{
		machine:   m,
		fn:        fn,
		code:      code,
		globals:   fn.Globals,
		stack:     make([]Value, code.StackSize),
		locals:    make([]Value, nlocals),
		nameCache: make([]Value, len(code.Names)),
		parent:    parent,
	}
}

// Parent returns the caller's frame, or nil for the root.
func (f *Frame) Parent() *Frame { return f.parent }

// Code returns the code object this frame executes.
func (f *Frame) Code() *CodeObject { return f.code }

// ---------------------------------------------------------------------------
// Operand stack
// ---------------------------------------------------------------------------

func (f *Frame) push(v Value) {
	if f.sp >= len(f.stack) {
		enginef("operand stack overflow in %s (stacksize %d)", f.code.Name, f.code.StackSize)
	}
	f.stack[f.sp] = v
	f.sp++
}

func (f *Frame) pop() Value {
	if f.sp <= 0 {
		enginef("operand stack underflow in %s", f.code.Name)
	}
	f.sp--
	v := f.stack[f.sp]
	f.stack[f.sp] = nil
	return v
}

func (f *Frame) top() Value {
	if f.sp <= 0 {
		enginef("operand stack underflow in %s", f.code.Name)
	}
	return f.stack[f.sp-1]
}

// popN pops n values and returns them in push order (deepest first).
func (f *Frame) popN(n int) []Value {
	if f.sp < n {
		enginef("operand stack underflow in %s (need %d, have %d)", f.code.Name, n, f.sp)
	}
	out := make([]Value, n)
	copy(out, f.stack[f.sp-n:f.sp])
	for i := f.sp - n; i < f.sp; i++ {
		f.stack[i] = nil
	}
	f.sp -= n
	return out
}

// Depth returns the current operand-stack depth.
func (f *Frame) Depth() int { return f.sp }

// ---------------------------------------------------------------------------
// Argument binding
// ---------------------------------------------------------------------------

func (f *Frame) bindArguments(args []Value, kwargs map[string]Value) *ExceptionInstance {
	bound, exc := f.fn.Sig.Bind(f.fn.Name, f.fn.Defaults, args, kwargs)
	if exc != nil {
		return exc
	}
	for i, name := range f.code.Varnames {
		if v, ok := bound[name]; ok {
			f.locals[i] = v
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

// fail stamps the frame's current location onto the exception's traceback
// and produces the Error result that unwinds to the caller.
func (f *Frame) fail(exc *ExceptionInstance) FrameResult {
	exc.Traceback = append(exc.Traceback, TracebackEntry{
		Filename: f.code.Filename,
		CodeName: f.code.Name,
		Line:     f.code.LineAt(f.lastIP),
	})
	return FrameResult{Raised: exc}
}

// RunFrame binds the call arguments into local slots and executes
// instructions until one produces a return or an error.
func (f *Frame) RunFrame(args []Value, kwargs map[string]Value) FrameResult {
	if exc := f.bindArguments(args, kwargs); exc != nil {
		return FrameResult{Raised: exc}
	}

	prev := f.machine.current
	f.machine.current = f
	defer func() { f.machine.current = prev }()

	code := f.code
	for {
		if f.ip < 0 || f.ip >= len(code.Instructions) {
			enginef("instruction pointer %d out of range in %s", f.ip, code.Name)
		}
		ins := code.Instructions[f.ip]
		f.lastIP = f.ip
		f.ip++

		switch ins.Op {
		case OpPopTop:
			if ins.Arg != 0 {
				enginef("POP_TOP with non-zero argument %d", ins.Arg)
			}
			f.pop()

		case OpDupTop:
			f.push(f.top())

		case OpRotTwo:
			a := f.pop()
			b := f.pop()
			f.push(a)
			f.push(b)

		case OpRotThree:
			a := f.pop()
			b := f.pop()
			c := f.pop()
			f.push(a)
			f.push(c)
			f.push(b)

		case OpLoadConst:
			f.push(f.constAt(ins.Arg))

		case OpLoadFast:
			idx := f.localIndex(ins.Arg)
			v := f.locals[idx]
			if v == nil {
				return f.fail(Raise(UnboundLocalErrorType,
					"local variable '%s' referenced before assignment", code.Varnames[idx]))
			}
			f.push(v)

		case OpStoreFast:
			idx := f.localIndex(ins.Arg)
			f.locals[idx] = f.pop()

		case OpLoadName, OpLoadGlobal:
			idx := f.nameIndex(ins.Arg)
			if v := f.nameCache[idx]; v != nil {
				f.push(v)
				break
			}
			name := code.Names[idx]
			v, ok := f.globals[name]
			if !ok {
				return f.fail(Raise(NameErrorType, "name '%s' is not defined", name))
			}
			f.nameCache[idx] = v
			f.push(v)

		case OpStoreName:
			idx := f.nameIndex(ins.Arg)
			v := f.pop()
			f.nameCache[idx] = v
			if f.moduleScope {
				f.globals[code.Names[idx]] = v
			}

		case OpLoadAttr:
			idx := f.nameIndex(ins.Arg)
			obj := f.pop()
			attr, exc := GetAttribute(obj, code.Names[idx])
			if exc != nil {
				return f.fail(exc)
			}
			f.push(attr)

		case OpStoreAttr:
			idx := f.nameIndex(ins.Arg)
			obj := f.pop()
			v := f.pop()
			if exc := SetAttribute(obj, code.Names[idx], v); exc != nil {
				return f.fail(exc)
			}

		case OpBinaryAdd, OpBinarySubtract, OpBinaryMultiply, OpBinaryTrueDivide, OpBinarySubscr:
			right := f.pop()
			left := f.pop()
			v, exc := applyBinary(ins.Op, left, right)
			if exc != nil {
				return f.fail(exc)
			}
			f.push(v)

		case OpCompareOp:
			if int(ins.Arg) >= len(compareNames) {
				enginef("COMPARE_OP with unknown operator code %d", ins.Arg)
			}
			right := f.pop()
			left := f.pop()
			v, exc := compareValues(ins.Arg, left, right)
			if exc != nil {
				return f.fail(exc)
			}
			f.push(v)

		case OpJumpAbsolute:
			f.ip = f.jumpTarget(ins.Arg)

		case OpPopJumpIfFalse:
			if !Truthy(f.pop()) {
				f.ip = f.jumpTarget(ins.Arg)
			}

		case OpPopJumpIfTrue:
			if Truthy(f.pop()) {
				f.ip = f.jumpTarget(ins.Arg)
			}

		case OpBuildTuple:
			f.push(NewTuple(f.popN(int(ins.Arg))))

		case OpBuildList:
			f.push(NewList(f.popN(int(ins.Arg))))

		case OpBuildMap:
			pairs := f.popN(2 * int(ins.Arg))
			d := NewDict()
			for i := 0; i+1 < len(pairs); i += 2 {
				if exc := d.Set(pairs[i], pairs[i+1]); exc != nil {
					return f.fail(exc)
				}
			}
			f.push(d)

		case OpCallFunction:
			callArgs := f.popN(int(ins.Arg))
			callee := f.pop()
			res := f.callValue(callee, callArgs, nil)
			if res.Raised != nil {
				return f.fail(res.Raised)
			}
			f.push(res.Returned)

		case OpCallFunctionKW:
			namesVal := f.pop()
			names, ok := namesVal.(*TupleValue)
			if !ok {
				enginef("CALL_FUNCTION_KW without a keyword-name tuple on top of stack")
			}
			kwVals := f.popN(len(names.Items))
			kwargs := make(map[string]Value, len(names.Items))
			for i, nameVal := range names.Items {
				name, ok := nameVal.(StrValue)
				if !ok {
					enginef("CALL_FUNCTION_KW keyword name is not a string")
				}
				kwargs[string(name)] = kwVals[i]
			}
			nPos := int(ins.Arg) - len(names.Items)
			if nPos < 0 {
				enginef("CALL_FUNCTION_KW argc %d smaller than keyword count %d", ins.Arg, len(names.Items))
			}
			callArgs := f.popN(nPos)
			callee := f.pop()
			res := f.callValue(callee, callArgs, kwargs)
			if res.Raised != nil {
				return f.fail(res.Raised)
			}
			f.push(res.Returned)

		case OpMakeFunction:
			fn, exc := f.makeFunction(ins.Arg)
			if exc != nil {
				return f.fail(exc)
			}
			f.push(fn)

		case OpReturnValue:
			v := f.pop()
			if f.sp != 0 {
				enginef("operand stack not empty on return from %s (depth %d)", code.Name, f.sp)
			}
			return FrameResult{Returned: v}

		case OpRaiseVarargs:
			exc := f.doRaise(ins.Arg)
			return f.fail(exc)

		default:
			enginef("unknown opcode 0x%02X at instruction %d in %s", byte(ins.Op), f.lastIP, code.Name)
		}
	}
}

// ---------------------------------------------------------------------------
// Call dispatch
// ---------------------------------------------------------------------------

// callValue invokes a callable with bound-method unwrapping: each method
// layer prepends its receiver to the positional arguments. The callable's
// frame factory produces the child frame; the child link lives only for
// the duration of the call.
func (f *Frame) callValue(callee Value, args []Value, kwargs map[string]Value) FrameResult {
	for {
		bm, ok := callee.(*BoundMethod)
		if !ok {
			break
		}
		args = append([]Value{bm.Receiver}, args...)
		callee = bm.Fn
	}

	c, ok := callee.(Callable)
	if !ok {
		return FrameResult{Raised: Raise(TypeErrorType, "'%s' object is not callable", callee.Type().Name)}
	}

	if f.machine.depth >= f.machine.MaxDepth {
		return FrameResult{Raised: Raise(RuntimeErrorType, "maximum recursion depth exceeded")}
	}
	f.machine.depth++
	child := c.NewCallFrame(f.machine, f)
	f.child = child
	res := child.RunFrame(args, kwargs)
	f.child = nil
	f.machine.depth--
	return res
}

// makeFunction materializes a function object from the stack. Flag bit 0
// pulls a defaults tuple, bit 1 a keyword-only defaults dict; both sit
// below the code object and qualname.
func (f *Frame) makeFunction(flags byte) (Value, *ExceptionInstance) {
	if flags&^byte(0x03) != 0 {
		enginef("MAKE_FUNCTION with unsupported flags 0x%02X", flags)
	}
	nameVal := f.pop()
	name, ok := nameVal.(StrValue)
	if !ok {
		enginef("MAKE_FUNCTION qualname is not a string")
	}
	codeVal := f.pop()
	code, ok := codeVal.(*CodeObject)
	if !ok {
		enginef("MAKE_FUNCTION without a code object")
	}
	if len(code.Freevars) != 0 {
		enginef("MAKE_FUNCTION over code with free variables (closures not supported)")
	}

	var defaults []Value
	if flags&0x01 != 0 {
		tup, ok := f.pop().(*TupleValue)
		if !ok {
			enginef("MAKE_FUNCTION defaults operand is not a tuple")
		}
		defaults = tup.Items
		if len(defaults) > code.ArgCount {
			enginef("MAKE_FUNCTION defaults tuple longer than positional parameter list")
		}
	}
	kwDefaults := map[string]Value{}
	if flags&0x02 != 0 {
		d, ok := f.pop().(*DictValue)
		if !ok {
			enginef("MAKE_FUNCTION keyword defaults operand is not a dict")
		}
		for _, e := range d.entries {
			key, ok := e.key.(StrValue)
			if !ok {
				enginef("MAKE_FUNCTION keyword default key is not a string")
			}
			kwDefaults[string(key)] = e.value
		}
	}

	return NewFunction(string(name), code, f.globals, defaults, kwDefaults), nil
}

// doRaise implements RAISE_VARARGS: arg 0 re-raises (an error in the
// minimal core, which tracks no active exception), arg 1 raises an
// instance or an exception type, arg 2 additionally pops a cause.
func (f *Frame) doRaise(n byte) *ExceptionInstance {
	switch n {
	case 0:
		return Raise(RuntimeErrorType, "no active exception to re-raise")
	case 1:
		exc, bad := asException(f.pop())
		if bad != nil {
			return bad
		}
		return exc
	case 2:
		causeVal := f.pop()
		exc, bad := asException(f.pop())
		if bad != nil {
			return bad
		}
		cause, bad := asException(causeVal)
		if bad != nil {
			return bad
		}
		exc.Cause = cause
		return exc
	default:
		enginef("RAISE_VARARGS with argument %d", n)
		return nil
	}
}

// asException coerces a raised operand: an instance passes through, an
// exception type is instantiated with no message.
func asException(v Value) (*ExceptionInstance, *ExceptionInstance) {
	switch t := v.(type) {
	case *ExceptionInstance:
		return t, nil
	case *Type:
		if t.IsSubtypeOf(BaseExceptionType) {
			return NewException(t, ""), nil
		}
	}
	return nil, Raise(TypeErrorType, "exceptions must derive from BaseException, not '%s'", v.Type().Name)
}

// ---------------------------------------------------------------------------
// Operand validation
// ---------------------------------------------------------------------------

func (f *Frame) constAt(arg byte) Value {
	if int(arg) >= len(f.code.Consts) {
		enginef("constant index %d out of range in %s", arg, f.code.Name)
	}
	return f.code.Consts[arg]
}

func (f *Frame) localIndex(arg byte) int {
	if int(arg) >= len(f.locals) || int(arg) >= len(f.code.Varnames) {
		enginef("local slot %d out of range in %s", arg, f.code.Name)
	}
	return int(arg)
}

func (f *Frame) nameIndex(arg byte) int {
	if int(arg) >= len(f.code.Names) {
		enginef("name index %d out of range in %s", arg, f.code.Name)
	}
	return int(arg)
}

func (f *Frame) jumpTarget(arg byte) int {
	if int(arg) >= len(f.code.Instructions) {
		enginef("jump target %d out of range in %s", arg, f.code.Name)
	}
	return int(arg)
}

func applyBinary(op Opcode, left, right Value) (Value, *ExceptionInstance) {
	switch op {
	case OpBinaryAdd:
		return binaryAdd(left, right)
	case OpBinarySubtract:
		return binarySubtract(left, right)
	case OpBinaryMultiply:
		return binaryMultiply(left, right)
	case OpBinaryTrueDivide:
		return binaryTrueDivide(left, right)
	case OpBinarySubscr:
		return binarySubscript(left, right)
	}
	enginef("applyBinary called with non-binary opcode %s", op)
	return nil, nil
}
