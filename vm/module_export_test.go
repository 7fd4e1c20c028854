package vm

import (
	"bytes"
	"testing"
)

func exportTestModule() *Module {
	inner := newTestCode("helper")
	inner.args("a")
	inner.emit(OpLoadFast, 0)
	inner.emit(OpReturnValue, 0)

	tc := newTestCode("<module>")
	tc.loadConst(inner.build())
	tc.loadConst(StrValue("helper"))
	tc.emit(OpMakeFunction, 0)
	tc.emit(OpPopTop, 0)
	tc.returnConst(None)

	return &Module{LangVersion: 3, Hash: 42, Comment: "dump me", Code: tc.build()}
}

func TestDumpModuleTree(t *testing.T) {
	d := DumpModule(exportTestModule())
	if d.Hash != 42 || d.Comment != "dump me" || d.FormatVersion != "A" {
		t.Fatalf("envelope: %+v", d)
	}
	if d.Code.Name != "<module>" {
		t.Fatalf("root code name: %s", d.Code.Name)
	}
	if len(d.Code.Instructions) == 0 || d.Code.Instructions[0].Op != "LOAD_CONST" {
		t.Fatalf("instructions: %+v", d.Code.Instructions)
	}
	if len(d.Code.NestedCode) != 1 || d.Code.NestedCode[0].Name != "helper" {
		t.Fatalf("nested code missing: %+v", d.Code.NestedCode)
	}
	if d.Code.NestedCode[0].ArgCount != 1 {
		t.Fatalf("nested argcount: %d", d.Code.NestedCode[0].ArgCount)
	}
}

func TestDumpRoundTrip(t *testing.T) {
	d := DumpModule(exportTestModule())
	data, err := MarshalModuleDump(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := UnmarshalModuleDump(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Hash != d.Hash || got.Comment != d.Comment || got.Code.Name != d.Code.Name {
		t.Fatalf("round trip changed the dump: %+v", got)
	}
	if len(got.Code.Instructions) != len(d.Code.Instructions) {
		t.Fatal("instruction list changed")
	}
}

// Canonical encoding: dumping the same module twice is byte-identical.
func TestDumpDeterminism(t *testing.T) {
	mod := exportTestModule()
	a, err := MarshalModuleDump(DumpModule(mod))
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalModuleDump(DumpModule(mod))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("canonical CBOR dumps differ")
	}
}
