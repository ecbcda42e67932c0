package archive

import (
	"errors"
	"reflect"
	"unsafe"
	"weak"
)

// ErrNilShared indicates serialization of a shared pointer with no referent.
var ErrNilShared = errors.New("archive: shared pointer with nil referent")

// Rc is the source wrapper for shared ownership: multiple Rc values holding
// the same *T archive a single referent, deduplicated by source identity.
// Each Rc archives as a narrow relative pointer; all pointers to the same
// source object encode the same target position.
type Rc[T Archivable] struct {
	Value *T
}

func NewRc[T Archivable](v *T) Rc[T] { return Rc[T]{Value: v} }

func (r Rc[T]) ArchivedLayout() Layout { return RelPtr{}.Layout() }

func (r Rc[T]) Serialize(s *Serializer) (Resolver, error) {
	if r.Value == nil {
		return nil, ErrNilShared
	}
	target, err := serializeShared(s, r.Value)
	if err != nil {
		return nil, err
	}
	return ptrResolver{target: target}, nil
}

// Weak is the source wrapper for non-owning references. Serialization
// attempts an upgrade: a live referent archives exactly like a shared
// pointer (registering the target if it is not yet registered); an expired
// one archives as null. This is the natural encoding of broken cycles.
type Weak[T Archivable] struct {
	Ptr weak.Pointer[T]
}

func NewWeak[T Archivable](v *T) Weak[T] {
	if v == nil {
		return Weak[T]{}
	}
	return Weak[T]{Ptr: weak.Make(v)}
}

func (w Weak[T]) ArchivedLayout() Layout { return RelPtr{}.Layout() }

func (w Weak[T]) Serialize(s *Serializer) (Resolver, error) {
	strong := w.Ptr.Value()
	if strong == nil {
		return ptrResolver{null: true}, nil
	}
	target, err := serializeShared(s, strong)
	if err != nil {
		return nil, err
	}
	return ptrResolver{target: target}, nil
}

// serializeShared archives *value once per (source address, source type) and
// returns the recorded position on every later call.
func serializeShared[T Archivable](s *Serializer, value *T) (Position, error) {
	return s.shared.GetOrSerialize(unsafe.Pointer(value), reflect.TypeOf(value), func() (Position, error) {
		return s.SerializeValue(*value)
	})
}

// typeTag is the archived type identity the validator records per shared
// target.
func typeTag[T any]() string {
	var zero T
	return reflect.TypeOf(&zero).Elem().String()
}

// ArchivedRc is the archived mirror of a shared pointer. T is the archived
// type of the referent. Distinct ArchivedRc values may resolve to the same
// target; the validator checks the target once and requires every later
// encounter to agree on the archived type.
type ArchivedRc[T any] struct {
	ptr RelPtr
}

func (ArchivedRc[T]) Layout() Layout { return Layout{Size: 4, Align: 4} }

// Get returns a reference to the shared referent.
func (r *ArchivedRc[T]) Get() *T { return (*T)(r.ptr.Resolve()) }

func (r *ArchivedRc[T]) CheckBytes(c *Validator) error {
	lay := elemLayout[T]()
	target := c.PosOf(unsafe.Pointer(r)) + r.ptr.Offset()
	return c.CheckSharedSubtree(target, lay.Size, lay.Align, typeTag[T](), func() error {
		if check := checkOf((*T)(unsafe.Pointer(&c.buf[target]))); check != nil {
			return check(c)
		}
		return nil
	})
}

// ArchivedWeak is the archived mirror of a weak pointer: identical to
// ArchivedRc, with null meaning the referent was expired at serialize time.
type ArchivedWeak[T any] struct {
	ptr RelPtr
}

func (ArchivedWeak[T]) Layout() Layout { return Layout{Size: 4, Align: 4} }

// IsExpired reports whether the referent was gone when the archive was
// produced.
func (w *ArchivedWeak[T]) IsExpired() bool { return w.ptr.IsNull() }

// Get returns a reference to the referent, or nil if expired.
func (w *ArchivedWeak[T]) Get() *T {
	if w.ptr.IsNull() {
		return nil
	}
	return (*T)(w.ptr.Resolve())
}

func (w *ArchivedWeak[T]) CheckBytes(c *Validator) error {
	if w.ptr.IsNull() {
		return nil
	}
	lay := elemLayout[T]()
	target := c.PosOf(unsafe.Pointer(w)) + w.ptr.Offset()
	return c.CheckSharedSubtree(target, lay.Size, lay.Align, typeTag[T](), func() error {
		if check := checkOf((*T)(unsafe.Pointer(&c.buf[target]))); check != nil {
			return check(c)
		}
		return nil
	})
}
