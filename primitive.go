package archive

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Archived primitives are fixed-layout, endian-explicit mirrors of the Go
// scalar types. Every one of them is backed by a byte array, which pins its
// Go representation to its on-wire representation: the compiler inserts no
// padding into structs composed of them, and any bit pattern is a valid Go
// value, so casting unvalidated buffer bytes to an archived type is
// memory-safe. The semantic invariants (bool in {0,1}, char a Unicode scalar
// value) are enforced by the validator, not by the representation.
//
// The archive-level alignment of a primitive is bookkeeping carried by its
// Layout: it governs where the serializer may emplace the value and what the
// validator demands of pointer targets, independent of Go's view of the type.

type (
	U8 [1]byte
	I8 [1]byte

	U16LE [2]byte
	U32LE [4]byte
	U64LE [8]byte
	I16LE [2]byte
	I32LE [4]byte
	I64LE [8]byte
	F32LE [4]byte
	F64LE [8]byte

	U16BE [2]byte
	U32BE [4]byte
	U64BE [8]byte
	I16BE [2]byte
	I32BE [4]byte
	I64BE [8]byte
	F32BE [4]byte
	F64BE [8]byte

	// Bool is a single byte restricted to {0, 1}.
	Bool [1]byte

	// Char is a 4-byte integer restricted to Unicode scalar values. Its
	// endianness follows the archive default.
	Char [4]byte
)

// Default aliases select the little-endian forms. An archive's endianness is
// one of its format-control knobs and is fixed for the lifetime of a buffer;
// mixing buffers produced under different knobs is undefined.
type (
	U16 = U16LE
	U32 = U32LE
	U64 = U64LE
	I16 = I16LE
	I32 = I32LE
	I64 = I64LE
	F32 = F32LE
	F64 = F64LE
)

func NewU8(v uint8) U8 { return U8{v} }
func NewI8(v int8) I8 { return I8{byte(v)} }
func NewBool(v bool) Bool {
	if v {
		return Bool{1}
	}
	return Bool{0}
}
func NewChar(r rune) Char {
	var c Char
	binary.LittleEndian.PutUint32(c[:], uint32(r))
	return c
}

func NewU16(v uint16) U16 { var p U16; binary.LittleEndian.PutUint16(p[:], v); return p }
func NewU32(v uint32) U32 { var p U32; binary.LittleEndian.PutUint32(p[:], v); return p }
func NewU64(v uint64) U64 { var p U64; binary.LittleEndian.PutUint64(p[:], v); return p }
func NewI16(v int16) I16 { var p I16; binary.LittleEndian.PutUint16(p[:], uint16(v)); return p }
func NewI32(v int32) I32 { var p I32; binary.LittleEndian.PutUint32(p[:], uint32(v)); return p }
func NewI64(v int64) I64 { var p I64; binary.LittleEndian.PutUint64(p[:], uint64(v)); return p }
func NewF32(v float32) F32 {
	var p F32
	binary.LittleEndian.PutUint32(p[:], math.Float32bits(v))
	return p
}
func NewF64(v float64) F64 {
	var p F64
	binary.LittleEndian.PutUint64(p[:], math.Float64bits(v))
	return p
}

func (v U8) Get() uint8 { return v[0] }
func (v I8) Get() int8 { return int8(v[0]) }
func (v Bool) Get() bool { return v[0] != 0 }
func (v Char) Get() rune { return rune(binary.LittleEndian.Uint32(v[:])) }

func (v U16LE) Get() uint16 { return binary.LittleEndian.Uint16(v[:]) }
func (v U32LE) Get() uint32 { return binary.LittleEndian.Uint32(v[:]) }
func (v U64LE) Get() uint64 { return binary.LittleEndian.Uint64(v[:]) }
func (v I16LE) Get() int16 { return int16(binary.LittleEndian.Uint16(v[:])) }
func (v I32LE) Get() int32 { return int32(binary.LittleEndian.Uint32(v[:])) }
func (v I64LE) Get() int64 { return int64(binary.LittleEndian.Uint64(v[:])) }
func (v F32LE) Get() float32 { return math.Float32frombits(binary.LittleEndian.Uint32(v[:])) }
func (v F64LE) Get() float64 { return math.Float64frombits(binary.LittleEndian.Uint64(v[:])) }

func (v U16BE) Get() uint16 { return binary.BigEndian.Uint16(v[:]) }
func (v U32BE) Get() uint32 { return binary.BigEndian.Uint32(v[:]) }
func (v U64BE) Get() uint64 { return binary.BigEndian.Uint64(v[:]) }
func (v I16BE) Get() int16 { return int16(binary.BigEndian.Uint16(v[:])) }
func (v I32BE) Get() int32 { return int32(binary.BigEndian.Uint32(v[:])) }
func (v I64BE) Get() int64 { return int64(binary.BigEndian.Uint64(v[:])) }
func (v F32BE) Get() float32 { return math.Float32frombits(binary.BigEndian.Uint32(v[:])) }
func (v F64BE) Get() float64 { return math.Float64frombits(binary.BigEndian.Uint64(v[:])) }

// Layouts carry the archive-level size and alignment of each primitive.

func (U8) Layout() Layout { return Layout{Size: 1, Align: 1} }
func (I8) Layout() Layout { return Layout{Size: 1, Align: 1} }
func (Bool) Layout() Layout { return Layout{Size: 1, Align: 1} }
func (Char) Layout() Layout { return Layout{Size: 4, Align: 4} }

func (U16LE) Layout() Layout { return Layout{Size: 2, Align: 2} }
func (U32LE) Layout() Layout { return Layout{Size: 4, Align: 4} }
func (U64LE) Layout() Layout { return Layout{Size: 8, Align: 8} }
func (I16LE) Layout() Layout { return Layout{Size: 2, Align: 2} }
func (I32LE) Layout() Layout { return Layout{Size: 4, Align: 4} }
func (I64LE) Layout() Layout { return Layout{Size: 8, Align: 8} }
func (F32LE) Layout() Layout { return Layout{Size: 4, Align: 4} }
func (F64LE) Layout() Layout { return Layout{Size: 8, Align: 8} }

func (U16BE) Layout() Layout { return Layout{Size: 2, Align: 2} }
func (U32BE) Layout() Layout { return Layout{Size: 4, Align: 4} }
func (U64BE) Layout() Layout { return Layout{Size: 8, Align: 8} }
func (I16BE) Layout() Layout { return Layout{Size: 2, Align: 2} }
func (I32BE) Layout() Layout { return Layout{Size: 4, Align: 4} }
func (I64BE) Layout() Layout { return Layout{Size: 8, Align: 8} }
func (F32BE) Layout() Layout { return Layout{Size: 4, Align: 4} }
func (F64BE) Layout() Layout { return Layout{Size: 8, Align: 8} }

// Integer and float bit patterns are unconstrained.

func (*U8) CheckBytes(*Validator) error { return nil }
func (*I8) CheckBytes(*Validator) error { return nil }
func (*U16LE) CheckBytes(*Validator) error { return nil }
func (*U32LE) CheckBytes(*Validator) error { return nil }
func (*U64LE) CheckBytes(*Validator) error { return nil }
func (*I16LE) CheckBytes(*Validator) error { return nil }
func (*I32LE) CheckBytes(*Validator) error { return nil }
func (*I64LE) CheckBytes(*Validator) error { return nil }
func (*F32LE) CheckBytes(*Validator) error { return nil }
func (*F64LE) CheckBytes(*Validator) error { return nil }
func (*U16BE) CheckBytes(*Validator) error { return nil }
func (*U32BE) CheckBytes(*Validator) error { return nil }
func (*U64BE) CheckBytes(*Validator) error { return nil }
func (*I16BE) CheckBytes(*Validator) error { return nil }
func (*I32BE) CheckBytes(*Validator) error { return nil }
func (*I64BE) CheckBytes(*Validator) error { return nil }
func (*F32BE) CheckBytes(*Validator) error { return nil }
func (*F64BE) CheckBytes(*Validator) error { return nil }

// CheckBytes rejects any byte outside {0, 1}.
func (v *Bool) CheckBytes(*Validator) error {
	if v[0] > 1 {
		return fmt.Errorf("%w: bool byte 0x%02x", ErrInvalidEncoding, v[0])
	}
	return nil
}

// CheckBytes rejects values that are not Unicode scalar values.
func (v *Char) CheckBytes(*Validator) error {
	r := v.Get()
	if r > utf8.MaxRune || (r >= 0xD800 && r <= 0xDFFF) {
		return fmt.Errorf("%w: char 0x%x is not a Unicode scalar value", ErrInvalidEncoding, uint32(r))
	}
	return nil
}
