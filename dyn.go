package archive

import (
	"fmt"
	"unsafe"

	"github.com/puzpuzpuz/xsync/v4"
)

// Trait-object archiving: a value serialized behind an interface archives as
// a wide pointer whose metadata is a stable 64-bit type selector. The
// selector resolves through a process-wide registry populated at program
// initialization; registration is one-shot per concrete type and the read
// path is concurrency-safe lookup. The validator requires every observed
// selector to be registered and checks the target as the registered concrete
// archived type.

// DynImpl describes one registered concrete archived type.
type DynImpl struct {
	// Name is the stable name the selector is derived from.
	Name string
	// Layout is the archived layout of the concrete type.
	Layout Layout
	// Check validates the concrete archived value at pos.
	Check func(c *Validator, pos Position) error
}

// dynSeed seeds selector derivation. Distinct from the map seed so renaming
// one namespace cannot alias the other.
const dynSeed = 0xd6e8feb86659fd93

var dynRegistry = xsync.NewMap[uint64, *DynImpl]()

// DynSelector returns the selector a registered name resolves through.
func DynSelector(name string) uint64 { return hashKey(dynSeed, name) }

// RegisterDyn registers the concrete archived type T under a stable name and
// returns its selector. Registering the same name twice panics; call it from
// package init.
func RegisterDyn[T any, PT CheckablePtr[T]](name string) uint64 {
	var zero T
	lay := PT(&zero).Layout()
	impl := &DynImpl{
		Name:   name,
		Layout: lay,
		Check: func(c *Validator, pos Position) error {
			return PT((*T)(unsafe.Pointer(&c.buf[pos]))).CheckBytes(c)
		},
	}
	selector := DynSelector(name)
	if _, loaded := dynRegistry.LoadOrStore(selector, impl); loaded {
		panic(fmt.Sprintf("archive: dyn type %q already registered", name))
	}
	return selector
}

// LookupDyn resolves a selector to its registered implementation.
func LookupDyn(selector uint64) (*DynImpl, bool) {
	return dynRegistry.Load(selector)
}

// Dyn is the source wrapper for trait-object serialization: an archivable
// value paired with its registered name.
type Dyn struct {
	Name  string
	Value Archivable
}

func (d Dyn) ArchivedLayout() Layout { return ArchivedDyn{}.Layout() }

func (d Dyn) Serialize(s *Serializer) (Resolver, error) {
	selector := DynSelector(d.Name)
	if _, ok := dynRegistry.Load(selector); !ok {
		return nil, fmt.Errorf("%w: %q is not registered", ErrUnknownVtable, d.Name)
	}
	target, err := s.SerializeValue(d.Value)
	if err != nil {
		return nil, err
	}
	return dynResolver{target: target, selector: selector}, nil
}

type dynResolver struct {
	target   Position
	selector uint64
}

func (r dynResolver) Emplace(pos Position, out []byte) error {
	if err := putOffset32(out, pos, r.target); err != nil {
		return err
	}
	clear(out[4:8])
	p := NewU64(r.selector)
	copy(out[8:16], p[:])
	return nil
}

// ArchivedDyn is the archived mirror of a trait object: a relative pointer
// with an adjacent 64-bit selector (padded so the selector keeps its natural
// alignment).
type ArchivedDyn struct {
	ptr RelPtr
	_   [4]byte
	id  U64
}

func (ArchivedDyn) Layout() Layout { return Layout{Size: 16, Align: 8} }

// Selector returns the stored type selector.
func (d *ArchivedDyn) Selector() uint64 { return d.id.Get() }

// Impl resolves the stored selector against the registry.
func (d *ArchivedDyn) Impl() (*DynImpl, bool) { return dynRegistry.Load(d.id.Get()) }

// Value returns an untyped reference to the concrete archived value; cast it
// with DynAs once the selector identifies the type.
func (d *ArchivedDyn) Value() unsafe.Pointer { return d.ptr.Resolve() }

// DynAs casts a trait object's value to its concrete archived type.
func DynAs[T any](d *ArchivedDyn) *T { return (*T)(d.Value()) }

func (d *ArchivedDyn) CheckBytes(c *Validator) error {
	impl, ok := d.Impl()
	if !ok {
		return fmt.Errorf("%w: selector %#x", ErrUnknownVtable, d.Selector())
	}
	target := c.PosOf(unsafe.Pointer(d)) + d.ptr.Offset()
	return c.CheckSubtree(target, impl.Layout.Size, impl.Layout.Align, func() error {
		return impl.Check(c, target)
	})
}
