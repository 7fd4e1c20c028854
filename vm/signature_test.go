package vm

import (
	"strings"
	"testing"
)

func sigOf(params ...Param) *Signature {
	return &Signature{Params: params}
}

func pos(name string) Param     { return Param{Name: name, Kind: ParamPositional} }
func posStar(name string) Param { return Param{Name: name, Kind: ParamPositionalStar} }
func kw(name string) Param      { return Param{Name: name, Kind: ParamKeyword} }
func kwStar(name string) Param  { return Param{Name: name, Kind: ParamKeywordStar} }

func TestBindPositional(t *testing.T) {
	sig := sigOf(pos("a"), pos("b"))
	bound, exc := sig.Bind("f", nil, []Value{IntValue(1), IntValue(2)}, nil)
	if exc != nil {
		t.Fatalf("bind: %s", exc.Message)
	}
	if bound["a"] != IntValue(1) || bound["b"] != IntValue(2) {
		t.Fatalf("bound = %v", bound)
	}
}

func TestBindDefaultsFillGaps(t *testing.T) {
	sig := sigOf(pos("a"), pos("b"))
	defaults := map[string]Value{"b": IntValue(10)}
	bound, exc := sig.Bind("f", defaults, []Value{IntValue(5)}, nil)
	if exc != nil {
		t.Fatalf("bind: %s", exc.Message)
	}
	if bound["b"] != IntValue(10) {
		t.Fatalf("default not applied: %v", bound["b"])
	}
	bound, exc = sig.Bind("f", defaults, []Value{IntValue(5), IntValue(7)}, nil)
	if exc != nil {
		t.Fatalf("bind: %s", exc.Message)
	}
	if bound["b"] != IntValue(7) {
		t.Fatalf("supplied argument lost to default: %v", bound["b"])
	}
}

func TestBindMissingNamesParameter(t *testing.T) {
	sig := sigOf(pos("a"), pos("b"))
	_, exc := sig.Bind("f", nil, []Value{IntValue(1)}, nil)
	if exc == nil || exc.ExcType != TypeErrorType {
		t.Fatal("expected TypeError")
	}
	if !strings.Contains(exc.Message, "'b'") {
		t.Fatalf("message does not name the parameter: %s", exc.Message)
	}
}

func TestBindTooManyArguments(t *testing.T) {
	sig := sigOf(pos("a"))
	_, exc := sig.Bind("f", nil, []Value{IntValue(1), IntValue(2)}, nil)
	if exc == nil || exc.ExcType != TypeErrorType {
		t.Fatal("expected TypeError")
	}
	if !strings.Contains(exc.Message, "too many arguments") {
		t.Fatalf("message: %s", exc.Message)
	}
}

func TestBindPositionalStar(t *testing.T) {
	sig := sigOf(pos("a"), posStar("rest"))
	bound, exc := sig.Bind("f", nil, []Value{IntValue(1), IntValue(2), IntValue(3)}, nil)
	if exc != nil {
		t.Fatalf("bind: %s", exc.Message)
	}
	if !Equals(bound["rest"], NewTuple([]Value{IntValue(2), IntValue(3)})) {
		t.Fatalf("rest = %s", bound["rest"].Repr())
	}

	// With nothing left over, the star binds the empty tuple.
	bound, exc = sig.Bind("f", nil, []Value{IntValue(1)}, nil)
	if exc != nil {
		t.Fatalf("bind: %s", exc.Message)
	}
	if bound["rest"] != Value(EmptyTuple) {
		t.Fatalf("empty rest = %v", bound["rest"])
	}
}

func TestBindKeywordOnly(t *testing.T) {
	sig := sigOf(pos("a"), kw("mode"))
	bound, exc := sig.Bind("f", nil, []Value{IntValue(1)}, map[string]Value{"mode": StrValue("fast")})
	if exc != nil {
		t.Fatalf("bind: %s", exc.Message)
	}
	if bound["mode"] != StrValue("fast") {
		t.Fatalf("mode = %v", bound["mode"])
	}

	_, exc = sig.Bind("f", nil, []Value{IntValue(1)}, nil)
	if exc == nil || !strings.Contains(exc.Message, "'mode'") {
		t.Fatalf("missing keyword-only: %v", exc)
	}

	defaults := map[string]Value{"mode": StrValue("slow")}
	bound, exc = sig.Bind("f", defaults, []Value{IntValue(1)}, nil)
	if exc != nil || bound["mode"] != StrValue("slow") {
		t.Fatalf("keyword default: %v %v", bound, exc)
	}
}

func TestBindKeywordStar(t *testing.T) {
	sig := sigOf(pos("a"), kwStar("extra"))
	bound, exc := sig.Bind("f", nil, []Value{IntValue(1)},
		map[string]Value{"x": IntValue(1), "y": IntValue(2)})
	if exc != nil {
		t.Fatalf("bind: %s", exc.Message)
	}
	extra, ok := bound["extra"].(*DictValue)
	if !ok || extra.Len() != 2 {
		t.Fatalf("extra = %v", bound["extra"])
	}
}

func TestBindUnexpectedKeyword(t *testing.T) {
	sig := sigOf(pos("a"))
	_, exc := sig.Bind("f", nil, []Value{IntValue(1)}, map[string]Value{"bogus": None})
	if exc == nil || !strings.Contains(exc.Message, "'bogus'") {
		t.Fatalf("unexpected keyword: %v", exc)
	}
}

func TestBindDuplicateBinding(t *testing.T) {
	sig := sigOf(pos("a"))
	_, exc := sig.Bind("f", nil, []Value{IntValue(1)}, map[string]Value{"a": IntValue(2)})
	if exc == nil || !strings.Contains(exc.Message, "multiple values") {
		t.Fatalf("duplicate binding: %v", exc)
	}
}

func TestBindPositionalByKeyword(t *testing.T) {
	sig := sigOf(pos("a"), pos("b"))
	bound, exc := sig.Bind("f", nil, []Value{IntValue(1)}, map[string]Value{"b": IntValue(2)})
	if exc != nil {
		t.Fatalf("bind: %s", exc.Message)
	}
	if bound["b"] != IntValue(2) {
		t.Fatalf("b = %v", bound["b"])
	}
}

func TestBindPositionalOnlyRejectsKeyword(t *testing.T) {
	sig := &Signature{Params: []Param{pos("a")}, PosOnly: 1}
	_, exc := sig.Bind("f", map[string]Value{"a": IntValue(0)}, nil, map[string]Value{"a": IntValue(2)})
	if exc == nil || !strings.Contains(exc.Message, "'a'") {
		t.Fatalf("positional-only by keyword: %v", exc)
	}
}

func TestBindZeroParams(t *testing.T) {
	sig := sigOf()
	if _, exc := sig.Bind("f", nil, nil, nil); exc != nil {
		t.Fatalf("empty bind: %s", exc.Message)
	}
	if _, exc := sig.Bind("f", nil, []Value{IntValue(1)}, nil); exc == nil {
		t.Fatal("surplus positional accepted")
	}
	if _, exc := sig.Bind("f", nil, nil, map[string]Value{"x": None}); exc == nil {
		t.Fatal("surplus keyword accepted")
	}
}

func TestSignatureForCode(t *testing.T) {
	code := &CodeObject{
		ArgCount:       2,
		KwOnlyArgCount: 1,
		Flags:          FlagVarArgs | FlagVarKeywords,
		Varnames:       []string{"a", "b", "mode", "rest", "extra"},
	}
	sig := SignatureForCode(code)
	wantKinds := []ParamKind{ParamPositional, ParamPositional, ParamKeyword, ParamPositionalStar, ParamKeywordStar}
	wantNames := []string{"a", "b", "mode", "rest", "extra"}
	if len(sig.Params) != len(wantKinds) {
		t.Fatalf("param count = %d", len(sig.Params))
	}
	for i := range wantKinds {
		if sig.Params[i].Kind != wantKinds[i] || sig.Params[i].Name != wantNames[i] {
			t.Fatalf("param %d = %+v", i, sig.Params[i])
		}
	}
}
