package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode identifies a single bytecode instruction. Every instruction in the
// module format is exactly two bytes: the opcode and one argument byte.
type Opcode byte

// Stack manipulation
const (
	OpPopTop   Opcode = 0x01 // discard top of stack; argument must be zero
	OpRotTwo   Opcode = 0x02 // swap the two top entries
	OpRotThree Opcode = 0x03 // rotate the three top entries
	OpDupTop   Opcode = 0x04 // duplicate top of stack
)

// Binary operators
const (
	OpBinaryAdd        Opcode = 0x10
	OpBinarySubtract   Opcode = 0x11
	OpBinaryMultiply   Opcode = 0x12
	OpBinaryTrueDivide Opcode = 0x13
	OpBinarySubscr     Opcode = 0x14
)

// Loads and stores
const (
	OpLoadConst  Opcode = 0x20 // push consts[arg]
	OpLoadFast   Opcode = 0x21 // push local slot arg
	OpStoreFast  Opcode = 0x22 // pop into local slot arg
	OpLoadName   Opcode = 0x23 // resolve names[arg] via cache then globals
	OpStoreName  Opcode = 0x24 // pop into name cache (and globals at module scope)
	OpLoadGlobal Opcode = 0x25 // resolve names[arg] in globals
	OpLoadAttr   Opcode = 0x26 // pop object, push attribute names[arg]
	OpStoreAttr  Opcode = 0x27 // pop object, pop value, set attribute
)

// Container construction
const (
	OpBuildTuple Opcode = 0x30 // pop arg items, push tuple
	OpBuildList  Opcode = 0x31 // pop arg items, push list
	OpBuildMap   Opcode = 0x32 // pop arg key/value pairs, push dict
)

// Comparison and control flow
const (
	OpCompareOp      Opcode = 0x40 // integer-coded relational operator
	OpJumpAbsolute   Opcode = 0x50 // jump to instruction index arg
	OpPopJumpIfFalse Opcode = 0x51 // pop, jump if falsy
	OpPopJumpIfTrue  Opcode = 0x52 // pop, jump if truthy
)

// Calls, functions and returns
const (
	OpCallFunction   Opcode = 0x60 // pop arg positionals and a callable, invoke
	OpCallFunctionKW Opcode = 0x61 // as CALL_FUNCTION with a keyword-name tuple on top
	OpMakeFunction   Opcode = 0x62 // pop qualname and code, build a function
	OpReturnValue    Opcode = 0x70 // pop and return to the parent frame
	OpRaiseVarargs   Opcode = 0x71 // raise an exception
)

// Comparison operator codes for OpCompareOp.
const (
	CmpLt byte = iota
	CmpLe
	CmpEq
	CmpNe
	CmpGt
	CmpGe
)

var compareNames = [...]string{"<", "<=", "==", "!=", ">", ">="}

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds the display name of an opcode and whether its argument
// indexes the names tuple. Stack effects are not stored here; they are
// computed by StackEffect.
type OpcodeInfo struct {
	Name    string
	HasName bool // argument indexes the names tuple
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpPopTop:   {Name: "POP_TOP"},
	OpRotTwo:   {Name: "ROT_TWO"},
	OpRotThree: {Name: "ROT_THREE"},
	OpDupTop:   {Name: "DUP_TOP"},

	OpBinaryAdd:        {Name: "BINARY_ADD"},
	OpBinarySubtract:   {Name: "BINARY_SUBTRACT"},
	OpBinaryMultiply:   {Name: "BINARY_MULTIPLY"},
	OpBinaryTrueDivide: {Name: "BINARY_TRUE_DIVIDE"},
	OpBinarySubscr:     {Name: "BINARY_SUBSCR"},

	OpLoadConst:  {Name: "LOAD_CONST"},
	OpLoadFast:   {Name: "LOAD_FAST"},
	OpStoreFast:  {Name: "STORE_FAST"},
	OpLoadName:   {Name: "LOAD_NAME", HasName: true},
	OpStoreName:  {Name: "STORE_NAME", HasName: true},
	OpLoadGlobal: {Name: "LOAD_GLOBAL", HasName: true},
	OpLoadAttr:   {Name: "LOAD_ATTR", HasName: true},
	OpStoreAttr:  {Name: "STORE_ATTR", HasName: true},

	OpBuildTuple: {Name: "BUILD_TUPLE"},
	OpBuildList:  {Name: "BUILD_LIST"},
	OpBuildMap:   {Name: "BUILD_MAP"},

	OpCompareOp:      {Name: "COMPARE_OP"},
	OpJumpAbsolute:   {Name: "JUMP_ABSOLUTE"},
	OpPopJumpIfFalse: {Name: "POP_JUMP_IF_FALSE"},
	OpPopJumpIfTrue:  {Name: "POP_JUMP_IF_TRUE"},

	OpCallFunction:   {Name: "CALL_FUNCTION"},
	OpCallFunctionKW: {Name: "CALL_FUNCTION_KW"},
	OpMakeFunction:   {Name: "MAKE_FUNCTION"},
	OpReturnValue:    {Name: "RETURN_VALUE"},
	OpRaiseVarargs:   {Name: "RAISE_VARARGS"},
}

// Valid reports whether op is part of the supported instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Name returns the human-readable opcode name.
func (op Opcode) Name() string {
	if info, ok := opcodeTable[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("UNKNOWN_%02X", byte(op))
}

func (op Opcode) String() string { return op.Name() }

// StackEffect returns the declared net change in operand-stack depth for an
// instruction. ok is false for calls, returns and raises, which transfer
// control, and for MAKE_FUNCTION, whose operand count depends on its flags.
func (op Opcode) StackEffect(arg byte) (effect int, ok bool) {
	switch op {
	case OpPopTop:
		return -1, true
	case OpRotTwo, OpRotThree, OpJumpAbsolute:
		return 0, true
	case OpDupTop:
		return 1, true
	case OpBinaryAdd, OpBinarySubtract, OpBinaryMultiply, OpBinaryTrueDivide,
		OpBinarySubscr, OpCompareOp:
		return -1, true
	case OpLoadConst, OpLoadFast, OpLoadName, OpLoadGlobal:
		return 1, true
	case OpLoadAttr:
		return 0, true
	case OpStoreFast, OpStoreName, OpPopJumpIfFalse, OpPopJumpIfTrue:
		return -1, true
	case OpStoreAttr:
		return -2, true
	case OpBuildTuple, OpBuildList:
		return 1 - int(arg), true
	case OpBuildMap:
		return 1 - 2*int(arg), true
	default:
		return 0, false
	}
}

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

// Instruction is a decoded (opcode, argument) pair. The interpreter's
// bytecode pointer addresses instruction indices into a []Instruction,
// never raw byte offsets.
type Instruction struct {
	Op  Opcode
	Arg byte
}

// DecodeInstructions splits a raw code blob into instructions. Odd-length
// blobs and unknown opcodes are rejected; this is the only validation the
// dispatcher relies on at run time.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	if len(code)%2 != 0 {
		return nil, fmt.Errorf("code blob length %d is not a multiple of 2", len(code))
	}
	ins := make([]Instruction, 0, len(code)/2)
	for i := 0; i < len(code); i += 2 {
		op := Opcode(code[i])
		if !op.Valid() {
			return nil, fmt.Errorf("unknown opcode 0x%02X at instruction %d", byte(op), i/2)
		}
		ins = append(ins, Instruction{Op: op, Arg: code[i+1]})
	}
	return ins, nil
}

// EncodeInstructions is the inverse of DecodeInstructions.
func EncodeInstructions(ins []Instruction) []byte {
	out := make([]byte, 0, len(ins)*2)
	for _, in := range ins {
		out = append(out, byte(in.Op), in.Arg)
	}
	return out
}

// ---------------------------------------------------------------------------
// BytecodeBuilder: helper for constructing instruction streams
// ---------------------------------------------------------------------------

// BytecodeBuilder accumulates instructions for tests and tooling.
type BytecodeBuilder struct {
	ins []Instruction
}

// NewBytecodeBuilder creates an empty builder.
func NewBytecodeBuilder() *BytecodeBuilder {
	return &BytecodeBuilder{ins: make([]Instruction, 0, 16)}
}

// Emit appends an instruction and returns its index.
func (b *BytecodeBuilder) Emit(op Opcode, arg byte) int {
	b.ins = append(b.ins, Instruction{Op: op, Arg: arg})
	return len(b.ins) - 1
}

// Len returns the number of instructions emitted so far, which is also the
// index of the next instruction (jump targets point here).
func (b *BytecodeBuilder) Len() int { return len(b.ins) }

// Patch rewrites the argument of a previously emitted instruction, used to
// resolve forward jumps.
func (b *BytecodeBuilder) Patch(index int, arg byte) {
	b.ins[index].Arg = arg
}

// Instructions returns the accumulated instruction slice.
func (b *BytecodeBuilder) Instructions() []Instruction { return b.ins }

// Bytes returns the raw two-byte encoding.
func (b *BytecodeBuilder) Bytes() []byte { return EncodeInstructions(b.ins) }

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// DisassembleCode renders a code object's instructions with constant and
// name annotations, one instruction per line.
func DisassembleCode(c *CodeObject) string {
	var sb strings.Builder
	for i, in := range c.Instructions {
		fmt.Fprintf(&sb, "%4d  %-20s %3d", i, in.Op.Name(), in.Arg)
		switch {
		case in.Op == OpLoadConst && int(in.Arg) < len(c.Consts):
			fmt.Fprintf(&sb, "  (%s)", c.Consts[in.Arg].Repr())
		case opcodeTable[in.Op].HasName && int(in.Arg) < len(c.Names):
			fmt.Fprintf(&sb, "  (%s)", c.Names[in.Arg])
		case (in.Op == OpLoadFast || in.Op == OpStoreFast) && int(in.Arg) < len(c.Varnames):
			fmt.Fprintf(&sb, "  (%s)", c.Varnames[in.Arg])
		case in.Op == OpCompareOp && int(in.Arg) < len(compareNames):
			fmt.Fprintf(&sb, "  (%s)", compareNames[in.Arg])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
