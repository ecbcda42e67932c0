package archive

import (
	"fmt"
	"unsafe"
)

// Vec is the source wrapper for slices of archivable values. It archives as
// a wide relative pointer — offset plus element count — to a contiguous
// array of archived elements emplaced before the header.
type Vec[T Archivable] []T

func (v Vec[T]) ArchivedLayout() Layout { return Layout{Size: 8, Align: 4} }

// Serialize first runs every element's serialize step, staging the resolvers
// in scratch, and only then emplaces the element records back to back. The
// two passes keep the element array contiguous even when elements own
// variable-sized children.
func (v Vec[T]) Serialize(s *Serializer) (Resolver, error) {
	n := len(v)
	if n == 0 {
		return vecResolver{}, nil
	}
	lay := v[0].ArchivedLayout()

	mark := s.Scratch().AllocResolvers(n)
	for i, item := range v {
		res, err := item.Serialize(s)
		if err != nil {
			return nil, err
		}
		s.Scratch().SetResolver(mark+i, res)
	}

	var start Position
	for i := 0; i < n; i++ {
		pos, err := s.Align(lay.Align)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			start = pos
		}
		if err := s.emplace(pos, lay.Size, s.Scratch().Resolver(mark+i)); err != nil {
			return nil, err
		}
	}
	if err := s.Scratch().FreeResolvers(mark); err != nil {
		return nil, err
	}
	return vecResolver{target: start, n: n}, nil
}

type vecResolver struct {
	target Position
	n      int
}

func (r vecResolver) Emplace(pos Position, out []byte) error {
	if r.n == 0 {
		clear(out)
		return nil
	}
	return putWide(out, pos, r.target, uint32(r.n))
}

// ArchivedVec is the archived mirror of a sequence: a wide relative pointer
// whose metadata is the element count. T is the archived element type;
// elements are addressed with the element layout's stride.
type ArchivedVec[T any] struct {
	ptr WideRelPtr
}

func (ArchivedVec[T]) Layout() Layout { return Layout{Size: 8, Align: 4} }

// Len returns the element count.
func (v *ArchivedVec[T]) Len() int { return int(v.ptr.Metadata()) }

// Get returns a reference to element i.
func (v *ArchivedVec[T]) Get(i int) *T {
	if i < 0 || i >= v.Len() {
		panic(fmt.Sprintf("archive: vec index %d out of range [0, %d)", i, v.Len()))
	}
	stride := elemLayout[T]().Stride()
	return (*T)(unsafe.Add(v.ptr.Resolve(), i*stride))
}

// Slice returns the elements as a Go slice view without copying. It is only
// available when the element stride equals Go's size of T, i.e. when the
// archived element needs no trailing padding.
func (v *ArchivedVec[T]) Slice() []T {
	n := v.Len()
	if n == 0 {
		return nil
	}
	lay := elemLayout[T]()
	if lay.Stride() != int(unsafe.Sizeof(*new(T))) {
		panic(fmt.Sprintf("archive: %T has padded stride; use Get", *new(T)))
	}
	return unsafe.Slice((*T)(v.ptr.Resolve()), n)
}

// slabSize returns the byte size of an n-element array of lay: full strides
// for all but the last element.
func slabSize(lay Layout, n int) int {
	return (n-1)*lay.Stride() + lay.Size
}

// CheckBytes validates the element array: the slab is bounds- and
// alignment-checked as one owned subtree, then each element is checked in
// reverse emission order.
func (v *ArchivedVec[T]) CheckBytes(c *Validator) error {
	n := v.Len()
	if n == 0 {
		if !v.ptr.IsNull() {
			return fmt.Errorf("%w: empty vec with non-null pointer", ErrInvalidEncoding)
		}
		return nil
	}
	// Reject absurd counts before computing the slab size, so the product
	// below cannot overflow.
	if n > len(c.buf) {
		return boundsError(0, n, len(c.buf))
	}
	lay := elemLayout[T]()
	target := c.PosOf(unsafe.Pointer(v)) + v.ptr.Offset()
	size := slabSize(lay, n)
	return c.CheckSubtree(target, size, lay.Align, func() error {
		return checkElems[T](c, target, n, lay)
	})
}
