package archive

import (
	"fmt"
	"unsafe"
)

// Box is the source wrapper for owned, out-of-line values: the child is
// archived in full before the parent, and the parent stores a narrow
// relative pointer to it.
type Box[T Archivable] struct {
	Value T
}

func Boxed[T Archivable](v T) Box[T] { return Box[T]{Value: v} }

func (b Box[T]) ArchivedLayout() Layout { return RelPtr{}.Layout() }

func (b Box[T]) Serialize(s *Serializer) (Resolver, error) {
	target, err := s.SerializeValue(b.Value)
	if err != nil {
		return nil, err
	}
	return ptrResolver{target: target}, nil
}

// ptrResolver emplaces a narrow relative pointer to an already-archived
// child. null emplaces a zero delta.
type ptrResolver struct {
	target Position
	null   bool
}

func (r ptrResolver) Emplace(pos Position, out []byte) error {
	if r.null {
		clear(out[:4])
		return nil
	}
	return putOffset32(out, pos, r.target)
}

// ArchivedBox is the archived mirror of an owned box. T is the archived type
// of the referent.
type ArchivedBox[T any] struct {
	ptr RelPtr
}

func (ArchivedBox[T]) Layout() Layout { return Layout{Size: 4, Align: 4} }

// Get returns a reference to the boxed value.
func (b *ArchivedBox[T]) Get() *T { return (*T)(b.ptr.Resolve()) }

func (b *ArchivedBox[T]) CheckBytes(c *Validator) error {
	lay := elemLayout[T]()
	target := c.PosOf(unsafe.Pointer(b)) + b.ptr.Offset()
	return c.CheckSubtree(target, lay.Size, lay.Align, func() error {
		if check := checkOf((*T)(unsafe.Pointer(&c.buf[target]))); check != nil {
			return check(c)
		}
		return nil
	})
}

// Bytes is the source wrapper for raw byte sequences: the unsized box. It
// archives as a wide relative pointer to an opaque byte region with no
// encoding constraint.
type Bytes []byte

func (v Bytes) ArchivedLayout() Layout { return ArchivedBytes{}.Layout() }

func (v Bytes) Serialize(s *Serializer) (Resolver, error) {
	if len(v) == 0 {
		return bytesResolver{}, nil
	}
	pos := s.Pos()
	if _, err := s.Write(v); err != nil {
		return nil, err
	}
	return bytesResolver{target: pos, n: len(v)}, nil
}

type bytesResolver struct {
	target Position
	n      int
}

func (r bytesResolver) Emplace(pos Position, out []byte) error {
	if r.n == 0 {
		clear(out)
		return nil
	}
	return putWide(out, pos, r.target, uint32(r.n))
}

// ArchivedBytes is the archived mirror of a raw byte sequence.
type ArchivedBytes struct {
	ptr WideRelPtr
}

func (ArchivedBytes) Layout() Layout { return Layout{Size: 8, Align: 4} }

// Len returns the byte length.
func (b *ArchivedBytes) Len() int { return int(b.ptr.Metadata()) }

// Bytes returns a view of the data inside the buffer, without copying.
func (b *ArchivedBytes) Bytes() []byte {
	n := b.Len()
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.ptr.Resolve()), n)
}

func (b *ArchivedBytes) CheckBytes(c *Validator) error {
	n := b.Len()
	if n == 0 {
		if !b.ptr.IsNull() {
			return fmt.Errorf("%w: empty byte region with non-null pointer", ErrInvalidEncoding)
		}
		return nil
	}
	target := c.PosOf(unsafe.Pointer(b)) + b.ptr.Offset()
	return c.CheckSubtree(target, n, 1, func() error { return nil })
}
