package archive

import (
	"fmt"
	"unsafe"
)

// layoutFor returns the archive layout of T: its declared Layout when *T is
// Checkable, or size-with-alignment-1 for opaque fixed-size types. The
// declared size must equal Go's size of the mirror struct; archived structs
// carry explicit padding fields, so a mismatch is a bug in the mirror
// declaration and panics.
func layoutFor[T any]() Layout {
	var zero T
	size := int(unsafe.Sizeof(zero))
	lay := Layout{Size: size, Align: 1}
	if ck, ok := any(&zero).(Checkable); ok {
		lay = ck.Layout()
	}
	if lay.Size != size {
		panic(fmt.Sprintf("archive: %T declares archived size %d but occupies %d bytes", zero, lay.Size, size))
	}
	return lay
}

// checkOf returns T's CheckBytes hook bound to a buffer address, or nil for
// opaque types with no invariants.
func checkOf[T any](ptr *T) func(*Validator) error {
	if ck, ok := any(ptr).(Checkable); ok {
		return ck.CheckBytes
	}
	return nil
}

// Access returns a typed reference to the archived T at pos. It is the
// unchecked accessor: the caller must independently know the buffer is
// well-formed (e.g. a trusted in-process producer). Cheap structural guards
// — bounds, position alignment and the buffer alignment floor — are always
// asserted and panic on violation; semantic invariants are not checked. For
// untrusted bytes use Validate.
func Access[T any](buf []byte, pos Position) *T {
	lay := layoutFor[T]()
	if pos < 0 || pos+lay.Size > len(buf) {
		panic(fmt.Sprintf("archive: access of [%d, %d) outside buffer of %d bytes", pos, pos+lay.Size, len(buf)))
	}
	origin := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	if !isAligned(origin, BUFFER_ALIGNMENT) {
		panic(fmt.Sprintf("archive: buffer origin %#x below the %d-byte alignment floor", origin, BUFFER_ALIGNMENT))
	}
	if !isAligned(pos, lay.Align) {
		panic(fmt.Sprintf("archive: position %d is not %d-byte aligned", pos, lay.Align))
	}
	return (*T)(unsafe.Pointer(&buf[pos]))
}

// AccessRoot returns a typed reference to the archived root. The root's
// bytes are the buffer's last sizeof(ArchivedT) bytes — no out-of-band
// metadata is needed to locate it.
func AccessRoot[T any](buf []byte) *T {
	return Access[T](buf, len(buf)-layoutFor[T]().Size)
}
