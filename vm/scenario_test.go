package vm

import (
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// End-to-end scenarios: encode a module file, load it, run it
// ---------------------------------------------------------------------------

// runArtifact drives the full pipeline: serialize the code object into a
// module file, decode it back, and execute it on a fresh machine.
func runArtifact(t *testing.T, code *CodeObject) (*ExceptionInstance, string) {
	t.Helper()
	data, err := NewModuleWriter().EncodeModule(&Module{Comment: "test artifact", Code: code})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	mod, err := LoadModule(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m, out := testMachine()
	exc, err := m.RunModule(mod)
	if err != nil {
		t.Fatalf("engine fault: %v", err)
	}
	return exc, out.String()
}

// print("HELLO".upper()) — string method dispatch through an attribute load.
func TestScenarioStringMethodCall(t *testing.T) {
	tc := newTestCode("<module>")
	tc.emit(OpLoadName, tc.nameIdx("print"))
	tc.loadConst(StrValue("hello"))
	tc.emit(OpLoadAttr, tc.nameIdx("upper"))
	tc.emit(OpCallFunction, 0)
	tc.emit(OpCallFunction, 1)
	tc.emit(OpPopTop, 0)
	tc.returnConst(None)

	exc, out := runArtifact(t, tc.build())
	if exc != nil {
		t.Fatalf("exception: %s", FormatTraceback(exc))
	}
	if out != "HELLO\n" {
		t.Fatalf("output %q", out)
	}
}

// x = 1; y = 2; print(x + y)
func TestScenarioIntArithmetic(t *testing.T) {
	tc := newTestCode("<module>")
	x := tc.nameIdx("x")
	y := tc.nameIdx("y")
	tc.loadConst(IntValue(1))
	tc.emit(OpStoreName, x)
	tc.loadConst(IntValue(2))
	tc.emit(OpStoreName, y)
	tc.emit(OpLoadName, tc.nameIdx("print"))
	tc.emit(OpLoadName, x)
	tc.emit(OpLoadName, y)
	tc.emit(OpBinaryAdd, 0)
	tc.emit(OpCallFunction, 1)
	tc.emit(OpPopTop, 0)
	tc.returnConst(None)

	exc, out := runArtifact(t, tc.build())
	if exc != nil {
		t.Fatalf("exception: %s", FormatTraceback(exc))
	}
	if out != "3\n" {
		t.Fatalf("output %q", out)
	}
}

// def f(a, b=10): return a + b; print(f(5)); print(f(5, 7))
func TestScenarioDefaults(t *testing.T) {
	fc := newTestCode("f")
	fc.args("a", "b")
	fc.emit(OpLoadFast, 0)
	fc.emit(OpLoadFast, 1)
	fc.emit(OpBinaryAdd, 0)
	fc.emit(OpReturnValue, 0)

	tc := newTestCode("<module>")
	fslot := tc.nameIdx("f")
	printIdx := tc.nameIdx("print")
	tc.loadConst(IntValue(10))
	tc.emit(OpBuildTuple, 1)
	tc.loadConst(fc.build())
	tc.loadConst(StrValue("f"))
	tc.emit(OpMakeFunction, 0x01)
	tc.emit(OpStoreName, fslot)

	tc.emit(OpLoadName, printIdx)
	tc.emit(OpLoadName, fslot)
	tc.loadConst(IntValue(5))
	tc.emit(OpCallFunction, 1)
	tc.emit(OpCallFunction, 1)
	tc.emit(OpPopTop, 0)

	tc.emit(OpLoadName, printIdx)
	tc.emit(OpLoadName, fslot)
	tc.loadConst(IntValue(5))
	tc.loadConst(IntValue(7))
	tc.emit(OpCallFunction, 2)
	tc.emit(OpCallFunction, 1)
	tc.emit(OpPopTop, 0)
	tc.returnConst(None)

	exc, out := runArtifact(t, tc.build())
	if exc != nil {
		t.Fatalf("exception: %s", FormatTraceback(exc))
	}
	if out != "15\n12\n" {
		t.Fatalf("output %q", out)
	}
}

// print(int("abc")) — constructor failure surfaces as ValueError naming the
// literal, and nothing is printed.
func TestScenarioIntConversionFailure(t *testing.T) {
	tc := newTestCode("<module>")
	tc.emit(OpLoadName, tc.nameIdx("print"))
	tc.emit(OpLoadName, tc.nameIdx("int"))
	tc.loadConst(StrValue("abc"))
	tc.emit(OpCallFunction, 1)
	tc.emit(OpCallFunction, 1)
	tc.emit(OpPopTop, 0)
	tc.returnConst(None)

	exc, out := runArtifact(t, tc.build())
	if exc == nil {
		t.Fatal("expected ValueError")
	}
	if exc.ExcType != ValueErrorType {
		t.Fatalf("got %s", exc.ExcType.Name)
	}
	report := FormatTraceback(exc)
	if !strings.Contains(report, "ValueError") || !strings.Contains(report, "'abc'") {
		t.Fatalf("report:\n%s", report)
	}
	if out != "" {
		t.Fatalf("print ran anyway: %q", out)
	}
}

// print(nonexistent)
func TestScenarioNameError(t *testing.T) {
	tc := newTestCode("<module>")
	tc.emit(OpLoadName, tc.nameIdx("print"))
	tc.emit(OpLoadName, tc.nameIdx("nonexistent"))
	tc.emit(OpCallFunction, 1)
	tc.emit(OpPopTop, 0)
	tc.returnConst(None)

	exc, _ := runArtifact(t, tc.build())
	if exc == nil || exc.ExcType != NameErrorType {
		t.Fatalf("expected NameError, got %v", exc)
	}
	report := FormatTraceback(exc)
	if !strings.Contains(report, "NameError") || !strings.Contains(report, "nonexistent") {
		t.Fatalf("report:\n%s", report)
	}
}

// A file whose magic reads XYC never reaches the interpreter.
func TestScenarioBadMagicFile(t *testing.T) {
	tc := newTestCode("<module>")
	tc.returnConst(None)
	data, err := NewModuleWriter().EncodeModule(&Module{Code: tc.build()})
	if err != nil {
		t.Fatal(err)
	}
	data[0] = 'X'
	_, err = LoadModule(data)
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
	if !strings.Contains(err.Error(), "offset 0") {
		t.Fatalf("diagnostic lacks position: %v", err)
	}
}
