package archive

import (
	"strings"
	"unsafe"
)

// Pooling selects how the deserializer treats shared targets.
type Pooling int

const (
	// Pool preserves sharing: the first encounter of a target allocates, and
	// every later encounter returns the same owned value.
	Pool Pooling = iota
	// Unpool allocates independently on every encounter.
	Unpool
)

// Deserializer reconstructs owned values from an archived graph. Most
// consumers read archived bytes directly; deserialization is for handing a
// subgraph to code that wants ordinary Go values. A session is bound to one
// buffer so shared targets can be keyed by position.
type Deserializer struct {
	buf     []byte
	pooling Pooling
	pool    map[Position]any
}

// NewDeserializer creates a session over buf with the Pool policy.
func NewDeserializer(buf []byte) *Deserializer {
	return &Deserializer{buf: buf, pooling: Pool}
}

// WithPooling sets the sharing policy. Returns the deserializer for
// chaining.
func (d *Deserializer) WithPooling(p Pooling) *Deserializer {
	d.pooling = p
	return d
}

// PosOf maps an address inside the session buffer back to its position.
func (d *Deserializer) PosOf(p unsafe.Pointer) Position {
	return Position(uintptr(p) - uintptr(unsafe.Pointer(unsafe.SliceData(d.buf))))
}

// DeserializeRc reconstructs the referent of a shared pointer through f,
// pooling by target position under the Pool policy so that sharing in the
// source graph is preserved in the rebuilt one.
func DeserializeRc[T any, U any](d *Deserializer, rc *ArchivedRc[T], f func(*T) (*U, error)) (*U, error) {
	target := d.PosOf(unsafe.Pointer(rc.Get()))
	if d.pooling == Pool {
		if owned, ok := d.pool[target]; ok {
			return owned.(*U), nil
		}
	}
	owned, err := f(rc.Get())
	if err != nil {
		return nil, err
	}
	if d.pooling == Pool {
		if d.pool == nil {
			d.pool = make(map[Position]any)
		}
		d.pool[target] = owned
	}
	return owned, nil
}

// DeserializeWeak reconstructs the referent of a weak pointer, or returns
// ErrExpiredWeak if it archived as expired.
func DeserializeWeak[T any, U any](d *Deserializer, w *ArchivedWeak[T], f func(*T) (*U, error)) (*U, error) {
	if w.IsExpired() {
		return nil, ErrExpiredWeak
	}
	target := d.PosOf(unsafe.Pointer(w.Get()))
	if d.pooling == Pool {
		if owned, ok := d.pool[target]; ok {
			return owned.(*U), nil
		}
	}
	owned, err := f(w.Get())
	if err != nil {
		return nil, err
	}
	if d.pooling == Pool {
		if d.pool == nil {
			d.pool = make(map[Position]any)
		}
		d.pool[target] = owned
	}
	return owned, nil
}

// DeserializeVec reconstructs a slice by applying f to each archived
// element.
func DeserializeVec[T any, U any](v *ArchivedVec[T], f func(*T) (U, error)) ([]U, error) {
	n := v.Len()
	if n == 0 {
		return nil, nil
	}
	out := make([]U, n)
	for i := 0; i < n; i++ {
		u, err := f(v.Get(i))
		if err != nil {
			return nil, err
		}
		out[i] = u
	}
	return out, nil
}

// DeserializeMap reconstructs a Go map by applying f to each archived value.
func DeserializeMap[V any, U any](m *ArchivedMap[V], f func(*V) (U, error)) (map[string]U, error) {
	out := make(map[string]U, m.Len())
	var err error
	m.Range(func(key string, value *V) bool {
		var u U
		u, err = f(value)
		if err != nil {
			return false
		}
		out[strings.Clone(key)] = u
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeserializeSet reconstructs a Go set.
func DeserializeSet(v *ArchivedSet) StringSet {
	out := make(StringSet, v.Len())
	v.Range(func(member string) bool {
		out[strings.Clone(member)] = struct{}{}
		return true
	})
	return out
}
