package archive

import (
	"unsafe"
)

// Option is the source wrapper for optional values. It archives with the
// null-pointer encoding: a single relative pointer whose zero delta means
// None, with the payload out-of-line. (The contract's alternative — an
// inline tag byte plus payload — is the encoding tagged unions use; both are
// admissible per container.)
type Option[T Archivable] struct {
	Value *T
}

// Some wraps a present value.
func Some[T Archivable](v T) Option[T] { return Option[T]{Value: &v} }

// None is the absent value.
func None[T Archivable]() Option[T] { return Option[T]{} }

func (o Option[T]) ArchivedLayout() Layout { return RelPtr{}.Layout() }

func (o Option[T]) Serialize(s *Serializer) (Resolver, error) {
	if o.Value == nil {
		return ptrResolver{null: true}, nil
	}
	target, err := s.SerializeValue(*o.Value)
	if err != nil {
		return nil, err
	}
	return ptrResolver{target: target}, nil
}

// ArchivedOption is the archived mirror of an optional value. T is the
// archived type of the payload.
type ArchivedOption[T any] struct {
	ptr RelPtr
}

func (ArchivedOption[T]) Layout() Layout { return Layout{Size: 4, Align: 4} }

// IsSome reports whether a payload is present.
func (o *ArchivedOption[T]) IsSome() bool { return !o.ptr.IsNull() }

// Get returns a reference to the payload, or nil for None.
func (o *ArchivedOption[T]) Get() *T {
	if o.ptr.IsNull() {
		return nil
	}
	return (*T)(o.ptr.Resolve())
}

func (o *ArchivedOption[T]) CheckBytes(c *Validator) error {
	if o.ptr.IsNull() {
		return nil
	}
	lay := elemLayout[T]()
	target := c.PosOf(unsafe.Pointer(o)) + o.ptr.Offset()
	return c.CheckSubtree(target, lay.Size, lay.Align, func() error {
		if check := checkOf((*T)(unsafe.Pointer(&c.buf[target]))); check != nil {
			return check(c)
		}
		return nil
	})
}
