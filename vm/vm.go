package vm

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("kyo.vm")

// ---------------------------------------------------------------------------
// Machine: the execution engine
// ---------------------------------------------------------------------------

// Machine runs decoded modules. It is single-threaded: there is exactly one
// current-frame pointer, no opcode suspends, and the guest observes no
// concurrency. A Machine may run any number of modules in sequence; module
// globals are per-run, shared by every function the run defines.
type Machine struct {
	// Stdout receives guest output (print). Stderr is held for the
	// embedder; the machine does not write to it, and RunModule returns
	// unhandled exceptions instead of reporting them.
	Stdout io.Writer
	Stderr io.Writer

	// MaxDepth bounds the call depth before RuntimeError.
	MaxDepth int

	runID   string
	current *Frame
	depth   int
}

// NewMachine creates a machine writing to the process streams.
func NewMachine() *Machine {
	return &Machine{
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		MaxDepth: 1000,
		runID:    uuid.NewString(),
	}
}

// RunID identifies this machine in engine diagnostics.
func (m *Machine) RunID() string { return m.runID }

// CurrentFrame returns the frame executing right now, or nil when idle.
func (m *Machine) CurrentFrame() *Frame { return m.current }

// NewModuleGlobals returns a fresh module-level globals mapping, seeded
// with the built-in functions and type objects so that name resolution
// reaches them without a separate builtins scope.
func (m *Machine) NewModuleGlobals() map[string]Value {
	globals := make(map[string]Value, 64)
	registerBuiltins(globals)
	return globals
}

// RunModule executes a decoded module envelope to completion. A returned
// *ExceptionInstance is the guest's unhandled exception; a returned error
// is an engine fault (corrupted bytecode, violated invariant) and is never
// visible to guest code.
func (m *Machine) RunModule(mod *Module) (*ExceptionInstance, error) {
	_, exc, err := m.RunCode(mod.Code, m.NewModuleGlobals())
	return exc, err
}

// RunCode wraps a code object in a module-level function, constructs the
// root frame, and runs it.
func (m *Machine) RunCode(code *CodeObject, globals map[string]Value) (v Value, exc *ExceptionInstance, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ee, ok := r.(*EngineError); ok {
				log.Errorf("run %s aborted: %s", m.runID, ee.Msg)
				err = ee
				return
			}
			panic(r)
		}
	}()

	log.Infof("run %s: entering %s (%s, %d instructions)",
		m.runID, code.Name, code.Filename, len(code.Instructions))

	fn := &Function{
		Name:     code.Name,
		Code:     code,
		Globals:  globals,
		Defaults: map[string]Value{},
		Sig:      SignatureForCode(code),
	}
	frame := newFrame(m, fn, nil)
	frame.moduleScope = true

	res := frame.RunFrame(nil, nil)
	if res.Raised != nil {
		log.Infof("run %s: unhandled %s", m.runID, res.Raised.ExcType.Name)
		return nil, res.Raised, nil
	}
	log.Infof("run %s: returned normally", m.runID)
	return res.Returned, nil, nil
}
