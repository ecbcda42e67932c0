package archive

import (
	"reflect"
	"unsafe"
)

// sharedKey identifies a shared referent by source identity: the raw address
// of the source object paired with its source type, which fixes the archived
// type it serializes as. Two
// pointers to the same object with different archived types are distinct
// keys; they archive independently, and the validator rejects any aliasing
// between them.
type sharedKey struct {
	ptr unsafe.Pointer
	typ reflect.Type
}

// sharedRegistry deduplicates shared referents within one serializer
// session. Session-local, no locking: concurrent use of one session is
// disallowed.
type sharedRegistry struct {
	positions map[sharedKey]Position
}

func newSharedRegistry() *sharedRegistry {
	return &sharedRegistry{positions: make(map[sharedKey]Position)}
}

// GetOrSerialize returns the position previously assigned to (ptr, typ), or
// invokes once to serialize the referent, records the resulting position and
// returns it. Every shared pointer to the same source object therefore
// encodes the same target.
func (r *sharedRegistry) GetOrSerialize(ptr unsafe.Pointer, typ reflect.Type, once func() (Position, error)) (Position, error) {
	key := sharedKey{ptr: ptr, typ: typ}
	if pos, ok := r.positions[key]; ok {
		return pos, nil
	}
	pos, err := once()
	if err != nil {
		return 0, err
	}
	r.positions[key] = pos
	return pos, nil
}

func (r *sharedRegistry) reset() {
	clear(r.positions)
}
