package vm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// ModuleWriter: the encoder half of the KYC format
// ---------------------------------------------------------------------------

// ModuleWriter serializes modules and constant values to the byte-exact
// format the reader consumes. It exists for the test suite and tooling;
// the production artifact normally comes from the external compiler.
type ModuleWriter struct {
	buf bytes.Buffer
}

// NewModuleWriter creates an empty writer.
func NewModuleWriter() *ModuleWriter {
	return &ModuleWriter{}
}

// EncodeModule serializes a complete module file: header, then the
// envelope object.
func (w *ModuleWriter) EncodeModule(mod *Module) ([]byte, error) {
	w.buf.Reset()
	w.buf.Write(ModuleMagic[:])
	w.buf.WriteByte(ModuleVersion)
	w.buf.WriteByte(mod.LangVersion)

	w.buf.WriteByte(tagModule)
	w.buf.WriteByte(tagLong)
	w.writeUint64(uint64(mod.Hash))
	w.buf.WriteByte(tagUnicode)
	w.writeLengthPrefixed([]byte(mod.Comment))
	if err := w.writeCode(mod.Code); err != nil {
		return nil, err
	}

	out := make([]byte, w.buf.Len())
	copy(out, w.buf.Bytes())
	return out, nil
}

// EncodeObject serializes a single self-describing object.
func (w *ModuleWriter) EncodeObject(v Value) ([]byte, error) {
	w.buf.Reset()
	if err := w.writeObject(v); err != nil {
		return nil, err
	}
	out := make([]byte, w.buf.Len())
	copy(out, w.buf.Bytes())
	return out, nil
}

func (w *ModuleWriter) writeObject(v Value) error {
	switch t := v.(type) {
	case NoneValue:
		w.buf.WriteByte(tagNone)
	case BoolValue:
		if t {
			w.buf.WriteByte(tagTrue)
		} else {
			w.buf.WriteByte(tagFalse)
		}
	case IntValue:
		if t >= math.MinInt32 && t <= math.MaxInt32 {
			w.buf.WriteByte(tagInt)
			w.writeUint32(uint32(int32(t)))
		} else {
			w.buf.WriteByte(tagLong)
			w.writeUint64(uint64(t))
		}
	case FloatValue:
		w.buf.WriteByte(tagFloat)
		w.writeUint64(math.Float64bits(float64(t)))
	case StrValue:
		w.buf.WriteByte(tagUnicode)
		w.writeLengthPrefixed([]byte(t))
	case *BytesValue:
		w.buf.WriteByte(tagBytes)
		w.writeLengthPrefixed(t.Data)
	case *TupleValue:
		w.buf.WriteByte(tagTuple)
		return w.writeSequence(t.Items)
	case *ListValue:
		w.buf.WriteByte(tagList)
		return w.writeSequence(t.Items)
	case *DictValue:
		w.buf.WriteByte(tagDict)
		w.writeUint32(uint32(t.Len()))
		for _, e := range t.entries {
			if err := w.writeObject(e.key); err != nil {
				return err
			}
			if err := w.writeObject(e.value); err != nil {
				return err
			}
		}
	case *CodeObject:
		return w.writeCode(t)
	default:
		return fmt.Errorf("value of type %s is not serializable", v.Type().Name)
	}
	return nil
}

func (w *ModuleWriter) writeSequence(items []Value) error {
	w.writeUint32(uint32(len(items)))
	for _, item := range items {
		if err := w.writeObject(item); err != nil {
			return err
		}
	}
	return nil
}

func (w *ModuleWriter) writeCode(c *CodeObject) error {
	w.buf.WriteByte(tagCode)
	w.writeIntObject(int64(c.ArgCount))
	w.writeIntObject(int64(c.PosOnlyArgCount))
	w.writeIntObject(int64(c.KwOnlyArgCount))
	w.writeIntObject(int64(c.NLocals))
	w.writeIntObject(int64(c.StackSize))
	w.writeIntObject(int64(c.Flags))

	w.buf.WriteByte(tagBytes)
	w.writeLengthPrefixed(EncodeInstructions(c.Instructions))

	w.buf.WriteByte(tagTuple)
	if err := w.writeSequence(c.Consts); err != nil {
		return err
	}

	w.writeNameTuple(c.Names)
	w.writeNameTuple(c.Varnames)
	w.writeNameTuple(c.Freevars)
	w.writeNameTuple(c.Cellvars)

	w.buf.WriteByte(tagUnicode)
	w.writeLengthPrefixed([]byte(c.Filename))
	w.buf.WriteByte(tagUnicode)
	w.writeLengthPrefixed([]byte(c.Name))
	w.writeIntObject(int64(c.FirstLineno))
	w.buf.WriteByte(tagBytes)
	w.writeLengthPrefixed(c.Lnotab)
	return nil
}

func (w *ModuleWriter) writeNameTuple(names []string) {
	w.buf.WriteByte(tagTuple)
	w.writeUint32(uint32(len(names)))
	for _, name := range names {
		w.buf.WriteByte(tagUnicode)
		w.writeLengthPrefixed([]byte(name))
	}
}

func (w *ModuleWriter) writeIntObject(n int64) {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		w.buf.WriteByte(tagInt)
		w.writeUint32(uint32(int32(n)))
	} else {
		w.buf.WriteByte(tagLong)
		w.writeUint64(uint64(n))
	}
}

func (w *ModuleWriter) writeUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *ModuleWriter) writeUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *ModuleWriter) writeLengthPrefixed(data []byte) {
	w.writeUint32(uint32(len(data)))
	w.buf.Write(data)
}
