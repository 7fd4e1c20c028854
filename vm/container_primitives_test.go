package vm

import "testing"

func TestListAppendExtendPop(t *testing.T) {
	l := NewList(nil)
	if _, exc := callMethod(t, l, "append", IntValue(1)); exc != nil {
		t.Fatal(exc.Message)
	}
	if _, exc := callMethod(t, l, "extend", NewTuple([]Value{IntValue(2), IntValue(3)})); exc != nil {
		t.Fatal(exc.Message)
	}
	if !Equals(l, NewList([]Value{IntValue(1), IntValue(2), IntValue(3)})) {
		t.Fatalf("list = %s", l.Repr())
	}

	v, exc := callMethod(t, l, "pop")
	if exc != nil || v != IntValue(3) {
		t.Fatalf("pop = %v, %v", v, exc)
	}
	v, exc = callMethod(t, l, "pop", IntValue(0))
	if exc != nil || v != IntValue(1) {
		t.Fatalf("pop(0) = %v, %v", v, exc)
	}
	if !Equals(l, NewList([]Value{IntValue(2)})) {
		t.Fatalf("list after pops = %s", l.Repr())
	}

	_, exc = callMethod(t, NewList(nil), "pop")
	if exc == nil || exc.ExcType != ValueErrorType {
		t.Fatal("pop from empty list must raise")
	}
}

// Mutations through one alias must be observable through every alias.
func TestListAliasing(t *testing.T) {
	l := NewList([]Value{IntValue(1)})
	alias := Value(l)
	if _, exc := callMethod(t, l, "append", IntValue(2)); exc != nil {
		t.Fatal(exc.Message)
	}
	if !Equals(alias, NewList([]Value{IntValue(1), IntValue(2)})) {
		t.Fatalf("alias missed the mutation: %s", alias.Repr())
	}
}

func TestListIndex(t *testing.T) {
	l := NewList([]Value{StrValue("a"), StrValue("b")})
	v, exc := callMethod(t, l, "index", StrValue("b"))
	if exc != nil || v != IntValue(1) {
		t.Fatalf("index = %v, %v", v, exc)
	}
	_, exc = callMethod(t, l, "index", StrValue("z"))
	if exc == nil || exc.ExcType != ValueErrorType {
		t.Fatal("missing element must raise ValueError")
	}
}

func TestDictMethods(t *testing.T) {
	d := NewDict()
	d.Set(StrValue("a"), IntValue(1))
	d.Set(StrValue("b"), IntValue(2))

	v, exc := callMethod(t, d, "get", StrValue("a"))
	if exc != nil || v != IntValue(1) {
		t.Fatalf("get = %v, %v", v, exc)
	}
	v, _ = callMethod(t, d, "get", StrValue("zz"))
	if v != None {
		t.Fatalf("get miss = %v", v)
	}
	v, _ = callMethod(t, d, "get", StrValue("zz"), IntValue(9))
	if v != IntValue(9) {
		t.Fatalf("get default = %v", v)
	}

	v, exc = callMethod(t, d, "keys")
	if exc != nil || !Equals(v, NewList([]Value{StrValue("a"), StrValue("b")})) {
		t.Fatalf("keys = %v, %v", v, exc)
	}
	v, _ = callMethod(t, d, "values")
	if !Equals(v, NewList([]Value{IntValue(1), IntValue(2)})) {
		t.Fatalf("values = %v", v)
	}
	v, _ = callMethod(t, d, "items")
	want := NewList([]Value{
		NewTuple([]Value{StrValue("a"), IntValue(1)}),
		NewTuple([]Value{StrValue("b"), IntValue(2)}),
	})
	if !Equals(v, want) {
		t.Fatalf("items = %v", v)
	}

	v, exc = callMethod(t, d, "pop", StrValue("a"))
	if exc != nil || v != IntValue(1) {
		t.Fatalf("pop = %v, %v", v, exc)
	}
	if d.Len() != 1 {
		t.Fatalf("pop did not remove: %s", d.Repr())
	}
	_, exc = callMethod(t, d, "pop", StrValue("a"))
	if exc == nil || exc.ExcType != ValueErrorType {
		t.Fatal("pop of missing key without default must raise")
	}
}
