package archive

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

// Position is a byte offset from the origin of a buffer. During construction
// positions are sink cursor values; at access time they are interpreted
// relative to the storage of each pointer field.
type Position = int

// A relative pointer stores the signed distance from its own storage location
// to its target. Unlike an absolute pointer it stays valid under arbitrary
// relocation of the buffer, including read-only memory maps, so no fixup pass
// is needed on load. Targets always lie strictly earlier in the buffer than
// the pointer's storage: archives are DAGs laid out leaves-first, which is
// what lets the validator bound every subtree without following a pointer
// first.
//
// Offsets come in three widths. The default width used by the container
// catalog is 32 bits; buffers whose distances exceed the chosen width fail
// serialization with ErrOffsetOverflow.

type (
	Offset16 [2]byte
	Offset32 [4]byte
	Offset64 [8]byte
)

// MakeOffset16 encodes the distance from `from` to `to` in 16 bits.
func MakeOffset16(from, to Position) (Offset16, error) {
	delta := to - from
	if delta < math.MinInt16 || delta > math.MaxInt16 {
		return Offset16{}, fmt.Errorf("%w: delta %d does not fit in 16 bits", ErrOffsetOverflow, delta)
	}
	var o Offset16
	binary.LittleEndian.PutUint16(o[:], uint16(int16(delta)))
	return o, nil
}

// MakeOffset32 encodes the distance from `from` to `to` in 32 bits.
func MakeOffset32(from, to Position) (Offset32, error) {
	delta := to - from
	if delta < math.MinInt32 || delta > math.MaxInt32 {
		return Offset32{}, fmt.Errorf("%w: delta %d does not fit in 32 bits", ErrOffsetOverflow, delta)
	}
	var o Offset32
	binary.LittleEndian.PutUint32(o[:], uint32(int32(delta)))
	return o, nil
}

// MakeOffset64 encodes the distance from `from` to `to` in 64 bits.
func MakeOffset64(from, to Position) (Offset64, error) {
	var o Offset64
	binary.LittleEndian.PutUint64(o[:], uint64(int64(to-from)))
	return o, nil
}

func (o Offset16) Int() int { return int(int16(binary.LittleEndian.Uint16(o[:]))) }
func (o Offset32) Int() int { return int(int32(binary.LittleEndian.Uint32(o[:]))) }
func (o Offset64) Int() int { return int(int64(binary.LittleEndian.Uint64(o[:]))) }

func (Offset16) Layout() Layout { return Layout{Size: 2, Align: 2} }
func (Offset32) Layout() Layout { return Layout{Size: 4, Align: 4} }
func (Offset64) Layout() Layout { return Layout{Size: 8, Align: 8} }

// putOffset32 emplaces the distance from `at` to `target` into the first four
// bytes of out. Resolvers use this to fill pointer fields once the final
// position of their header is known.
func putOffset32(out []byte, at, target Position) error {
	o, err := MakeOffset32(at, target)
	if err != nil {
		return err
	}
	copy(out, o[:])
	return nil
}

// RelPtr is a narrow relative pointer in the default 32-bit width. A stored
// delta of zero encodes null for optional pointers; non-optional pointers
// with a zero-sized referent may also store zero, but such a pointer is never
// dereferenced.
type RelPtr struct {
	off Offset32
}

func (RelPtr) Layout() Layout { return Layout{Size: 4, Align: 4} }

// IsNull reports whether the stored delta is zero.
func (p *RelPtr) IsNull() bool { return p.off == Offset32{} }

// Offset returns the stored signed delta.
func (p *RelPtr) Offset() int { return p.off.Int() }

// Resolve computes the target address from the pointer's own storage
// location. The pointer must reside inside a buffer and must have been
// produced by the serializer or accepted by the validator.
func (p *RelPtr) Resolve() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(p), p.off.Int())
}

func (p *RelPtr) CheckBytes(*Validator) error { return nil }

// WideRelPtr is a relative pointer for unsized referents: the narrow form
// immediately followed by its metadata word. For sequences the metadata is
// the element count; trait objects instead carry a 64-bit type selector (see
// ArchivedDyn). Keeping the metadata adjacent to the offset rather than at
// the referent lets the referent remain a bare value region.
type WideRelPtr struct {
	RelPtr
	meta U32
}

func (WideRelPtr) Layout() Layout { return Layout{Size: 8, Align: 4} }

// Metadata returns the stored metadata word.
func (p *WideRelPtr) Metadata() uint32 { return p.meta.Get() }

func (p *WideRelPtr) CheckBytes(*Validator) error { return nil }

// putWide emplaces an offset/metadata pair into the first eight bytes of out.
func putWide(out []byte, at, target Position, meta uint32) error {
	if err := putOffset32(out, at, target); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(out[4:], meta)
	return nil
}
