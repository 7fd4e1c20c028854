package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Canonical CBOR encoding keeps module dumps deterministic, so two dumps of
// the same module are byte-identical.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ---------------------------------------------------------------------------
// Module dumps
// ---------------------------------------------------------------------------

// ModuleDump is a tooling-friendly rendition of a decoded module: header
// fields plus the full code-object tree, with constants in repr form.
type ModuleDump struct {
	FormatVersion string    `cbor:"format_version"`
	LangVersion   byte      `cbor:"lang_version"`
	Hash          int64     `cbor:"hash"`
	Comment       string    `cbor:"comment"`
	Code          *CodeDump `cbor:"code"`
}

// CodeDump mirrors one code object, recursing into nested code constants.
type CodeDump struct {
	Name            string            `cbor:"name"`
	Filename        string            `cbor:"filename"`
	FirstLineno     int               `cbor:"firstlineno"`
	ArgCount        int               `cbor:"argcount"`
	PosOnlyArgCount int               `cbor:"posonlyargcount"`
	KwOnlyArgCount  int               `cbor:"kwonlyargcount"`
	NLocals         int               `cbor:"nlocals"`
	StackSize       int               `cbor:"stacksize"`
	Flags           uint32            `cbor:"flags"`
	Instructions    []InstructionDump `cbor:"instructions"`
	Consts          []string          `cbor:"consts"`
	Names           []string          `cbor:"names"`
	Varnames        []string          `cbor:"varnames"`
	NestedCode      []*CodeDump       `cbor:"nested_code,omitempty"`
}

// InstructionDump is one decoded instruction by name.
type InstructionDump struct {
	Op  string `cbor:"op"`
	Arg byte   `cbor:"arg"`
}

// DumpModule builds the dump tree for a decoded module.
func DumpModule(mod *Module) *ModuleDump {
	return &ModuleDump{
		FormatVersion: string(ModuleVersion),
		LangVersion:   mod.LangVersion,
		Hash:          mod.Hash,
		Comment:       mod.Comment,
		Code:          dumpCode(mod.Code),
	}
}

func dumpCode(c *CodeObject) *CodeDump {
	d := &CodeDump{
		Name:            c.Name,
		Filename:        c.Filename,
		FirstLineno:     c.FirstLineno,
		ArgCount:        c.ArgCount,
		PosOnlyArgCount: c.PosOnlyArgCount,
		KwOnlyArgCount:  c.KwOnlyArgCount,
		NLocals:         c.NLocals,
		StackSize:       c.StackSize,
		Flags:           c.Flags,
		Names:           c.Names,
		Varnames:        c.Varnames,
	}
	for _, in := range c.Instructions {
		d.Instructions = append(d.Instructions, InstructionDump{Op: in.Op.Name(), Arg: in.Arg})
	}
	for _, konst := range c.Consts {
		d.Consts = append(d.Consts, konst.Repr())
		if nested, ok := konst.(*CodeObject); ok {
			d.NestedCode = append(d.NestedCode, dumpCode(nested))
		}
	}
	return d
}

// MarshalModuleDump serializes a dump to canonical CBOR bytes.
func MarshalModuleDump(d *ModuleDump) ([]byte, error) {
	return cborEncMode.Marshal(d)
}

// UnmarshalModuleDump deserializes a dump from CBOR bytes.
func UnmarshalModuleDump(data []byte) (*ModuleDump, error) {
	var d ModuleDump
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("vm: unmarshal module dump: %w", err)
	}
	return &d, nil
}
