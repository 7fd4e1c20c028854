package vm

// ---------------------------------------------------------------------------
// Signature: declared parameters of a callable
// ---------------------------------------------------------------------------

// ParamKind classifies a declared parameter.
type ParamKind int

const (
	ParamPositional ParamKind = iota
	ParamPositionalStar
	ParamKeyword
	ParamKeywordStar
)

// Param is one declared parameter.
type Param struct {
	Name string
	Kind ParamKind
}

// Signature is the ordered parameter list of a callable plus the count of
// leading positional-only parameters. Defaults live on the function, not
// here, because sibling functions sharing a code object may differ in them.
type Signature struct {
	Params  []Param
	PosOnly int
}

// SignatureForCode derives the declared signature from a code object's
// counts, flags and varnames. Varname order is: positionals, keyword-onlys,
// then *args and **kwargs when flagged.
func SignatureForCode(c *CodeObject) *Signature {
	sig := &Signature{PosOnly: c.PosOnlyArgCount}
	idx := 0
	for i := 0; i < c.ArgCount; i++ {
		sig.Params = append(sig.Params, Param{Name: c.Varnames[idx], Kind: ParamPositional})
		idx++
	}
	for i := 0; i < c.KwOnlyArgCount; i++ {
		sig.Params = append(sig.Params, Param{Name: c.Varnames[idx], Kind: ParamKeyword})
		idx++
	}
	if c.HasVarArgs() {
		// The star parameter is declared between the positionals and the
		// keyword-onlys; binding order is what matters here, so it follows.
		sig.Params = append(sig.Params, Param{Name: c.Varnames[idx], Kind: ParamPositionalStar})
		idx++
	}
	if c.HasVarKeywords() {
		sig.Params = append(sig.Params, Param{Name: c.Varnames[idx], Kind: ParamKeywordStar})
	}
	return sig
}

// Bind matches call arguments against the signature and produces the final
// name→value mapping:
//
//  1. declared defaults seed the result;
//  2. positional parameters consume positional arguments left to right;
//  3. a star parameter swallows the remaining positionals into a tuple;
//  4. keyword parameters consume keyword arguments, the keyword-star
//     swallowing whatever is left;
//  5. leftover positionals without a star, unknown keywords without a
//     keyword-star, missing required parameters, and a keyword for an
//     already-bound positional all raise TypeError.
func (s *Signature) Bind(fnName string, defaults map[string]Value, args []Value, kwargs map[string]Value) (map[string]Value, *ExceptionInstance) {
	bound := make(map[string]Value, len(s.Params))
	for name, v := range defaults {
		bound[name] = v
	}

	remainingKw := make(map[string]Value, len(kwargs))
	for name, v := range kwargs {
		remainingKw[name] = v
	}

	pos := 0
	hasStar := false
	for i, p := range s.Params {
		switch p.Kind {
		case ParamPositional:
			if pos < len(args) {
				bound[p.Name] = args[pos]
				pos++
				if _, dup := remainingKw[p.Name]; dup && i >= s.PosOnly {
					return nil, Raise(TypeErrorType, "%s() got multiple values for argument '%s'", fnName, p.Name)
				}
				break
			}
			if kv, ok := remainingKw[p.Name]; ok && i >= s.PosOnly {
				bound[p.Name] = kv
				delete(remainingKw, p.Name)
				break
			}
			if _, ok := bound[p.Name]; !ok {
				return nil, Raise(TypeErrorType, "%s() missing required argument '%s'", fnName, p.Name)
			}
		case ParamPositionalStar:
			hasStar = true
			bound[p.Name] = NewTuple(args[pos:])
			pos = len(args)
		case ParamKeyword:
			if kv, ok := remainingKw[p.Name]; ok {
				bound[p.Name] = kv
				delete(remainingKw, p.Name)
				break
			}
			if _, ok := bound[p.Name]; !ok {
				return nil, Raise(TypeErrorType, "%s() missing required keyword argument '%s'", fnName, p.Name)
			}
		case ParamKeywordStar:
			rest := NewDict()
			for _, name := range sortedKeys(remainingKw) {
				if exc := rest.Set(StrValue(name), remainingKw[name]); exc != nil {
					return nil, exc
				}
			}
			remainingKw = map[string]Value{}
			bound[p.Name] = rest
		}
	}

	if pos < len(args) && !hasStar {
		return nil, Raise(TypeErrorType, "%s(): too many arguments (%d given, %d expected)", fnName, len(args), pos)
	}
	for name := range remainingKw {
		return nil, Raise(TypeErrorType, "%s() got an unexpected keyword argument '%s'", fnName, name)
	}
	return bound, nil
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
