package vm

import (
	"bytes"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers: building code objects and running them
// ---------------------------------------------------------------------------

// testCodeBuilder assembles code objects for interpreter tests without
// going through the external compiler.
type testCodeBuilder struct {
	b        *BytecodeBuilder
	consts   []Value
	names    []string
	varnames []string

	argCount     int
	posOnlyCount int
	kwOnlyCount  int
	flags        uint32
	stackSize    int
	name         string
	filename     string
	firstLineno  int
	lnotab       []byte
}

func newTestCode(name string) *testCodeBuilder {
	return &testCodeBuilder{
		b:           NewBytecodeBuilder(),
		stackSize:   16,
		name:        name,
		filename:    "test.kyo",
		firstLineno: 1,
	}
}

// konst interns a constant and returns its index.
func (tc *testCodeBuilder) konst(v Value) byte {
	for i, c := range tc.consts {
		if c == v {
			return byte(i)
		}
	}
	tc.consts = append(tc.consts, v)
	return byte(len(tc.consts) - 1)
}

// name interns a global/attribute name and returns its index.
func (tc *testCodeBuilder) nameIdx(name string) byte {
	for i, n := range tc.names {
		if n == name {
			return byte(i)
		}
	}
	tc.names = append(tc.names, name)
	return byte(len(tc.names) - 1)
}

// local interns a local variable name and returns its slot.
func (tc *testCodeBuilder) local(name string) byte {
	for i, n := range tc.varnames {
		if n == name {
			return byte(i)
		}
	}
	tc.varnames = append(tc.varnames, name)
	return byte(len(tc.varnames) - 1)
}

func (tc *testCodeBuilder) emit(op Opcode, arg byte) int {
	return tc.b.Emit(op, arg)
}

// loadConst emits LOAD_CONST for v.
func (tc *testCodeBuilder) loadConst(v Value) {
	tc.emit(OpLoadConst, tc.konst(v))
}

// returnConst emits the LOAD_CONST/RETURN_VALUE tail.
func (tc *testCodeBuilder) returnConst(v Value) {
	tc.loadConst(v)
	tc.emit(OpReturnValue, 0)
}

// args declares n leading positional parameters by name.
func (tc *testCodeBuilder) args(names ...string) {
	for _, n := range names {
		tc.local(n)
	}
	tc.argCount = len(names)
}

func (tc *testCodeBuilder) build() *CodeObject {
	return &CodeObject{
		ArgCount:        tc.argCount,
		PosOnlyArgCount: tc.posOnlyCount,
		KwOnlyArgCount:  tc.kwOnlyCount,
		NLocals:         len(tc.varnames),
		StackSize:       tc.stackSize,
		Flags:           tc.flags,
		Instructions:    tc.b.Instructions(),
		Consts:          tc.consts,
		Names:           tc.names,
		Varnames:        tc.varnames,
		Filename:        tc.filename,
		Name:            tc.name,
		FirstLineno:     tc.firstLineno,
		Lnotab:          tc.lnotab,
	}
}

// ---------------------------------------------------------------------------
// Running helpers
// ---------------------------------------------------------------------------

// testMachine returns a machine whose guest output is captured.
func testMachine() (*Machine, *bytes.Buffer) {
	m := NewMachine()
	out := &bytes.Buffer{}
	m.Stdout = out
	m.Stderr = &bytes.Buffer{}
	return m, out
}

// runModuleCode executes code as a module body and fails the test on an
// engine fault.
func runModuleCode(t *testing.T, code *CodeObject) (Value, *ExceptionInstance, string) {
	t.Helper()
	m, out := testMachine()
	v, exc, err := m.RunCode(code, m.NewModuleGlobals())
	if err != nil {
		t.Fatalf("engine fault: %v", err)
	}
	return v, exc, out.String()
}

// mustReturn executes code and fails on any guest exception.
func mustReturn(t *testing.T, code *CodeObject) (Value, string) {
	t.Helper()
	v, exc, out := runModuleCode(t, code)
	if exc != nil {
		t.Fatalf("unexpected exception: %s", FormatTraceback(exc))
	}
	return v, out
}

// mustRaise executes code and fails unless it raises the given type.
func mustRaise(t *testing.T, code *CodeObject, want *Type) *ExceptionInstance {
	t.Helper()
	_, exc, _ := runModuleCode(t, code)
	if exc == nil {
		t.Fatalf("expected %s, got normal return", want.Name)
	}
	if !exc.ExcType.IsSubtypeOf(want) {
		t.Fatalf("expected %s, got %s: %s", want.Name, exc.ExcType.Name, exc.Message)
	}
	return exc
}

// engineFault executes code and fails unless the engine aborts.
func engineFault(t *testing.T, code *CodeObject) error {
	t.Helper()
	m, _ := testMachine()
	_, exc, err := m.RunCode(code, m.NewModuleGlobals())
	if err == nil {
		t.Fatalf("expected engine fault, got exc=%v", exc)
	}
	return err
}
