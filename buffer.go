package archive

import "unsafe"

// BUFFER_ALIGNMENT is the alignment floor of archive buffers: every buffer
// produced by the serializer begins at an address that is a multiple of this
// value, and the validator requires the same of buffers it is handed. 16 is
// at least the alignment of every archived type here (the largest primitive
// alignment is 8).
const BUFFER_ALIGNMENT = 16

// AlignedBuffer is a growable byte buffer whose origin satisfies the archive
// alignment floor. Go's allocator gives no alignment guarantee for byte
// slices, so the buffer over-allocates and re-slices to an aligned origin,
// keeping the aligned view stable across grows by copying.
type AlignedBuffer struct {
	buf []byte
}

// NewAlignedBuffer creates an aligned buffer with the given capacity hint.
func NewAlignedBuffer(capacity int) *AlignedBuffer {
	b := &AlignedBuffer{}
	b.grow(capacity)
	b.buf = b.buf[:0]
	return b
}

func (b *AlignedBuffer) grow(n int) {
	if n < BUFFER_SIZE {
		n = BUFFER_SIZE
	}
	raw := make([]byte, n+BUFFER_ALIGNMENT-1)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	shift := int(Roundup(addr, BUFFER_ALIGNMENT) - addr)
	aligned := raw[shift : shift+len(b.buf)]
	copy(aligned, b.buf)
	b.buf = aligned
}

// Len returns the number of bytes written.
func (b *AlignedBuffer) Len() int { return len(b.buf) }

// Bytes returns the aligned view of the written data.
func (b *AlignedBuffer) Bytes() []byte { return b.buf }

// Write appends p, growing as needed. It never fails.
func (b *AlignedBuffer) Write(p []byte) (int, error) {
	if len(b.buf)+len(p) > cap(b.buf) {
		b.grow(2*cap(b.buf) + len(p))
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Reset empties the buffer, retaining its storage.
func (b *AlignedBuffer) Reset() { b.buf = b.buf[:0] }
