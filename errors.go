package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrNilSink indicates that a Serializer was configured with a nil sink.
	ErrNilSink = errors.New("archive: serializer configured with a nil sink")

	// ErrNilWriter indicates that NewStreamSink was called with a nil io.Writer.
	ErrNilWriter = errors.New("archive: NewStreamSink called with a nil io.Writer")

	// ErrOffsetOverflow indicates that the distance between a relative pointer
	// and its target cannot be represented in the configured offset width.
	ErrOffsetOverflow = errors.New("archive: offset exceeds the storage range of the offset type")

	// ErrSinkFull indicates that the underlying output rejected a write. The
	// original I/O error is wrapped at the call site.
	ErrSinkFull = errors.New("archive: sink rejected write")

	// ErrScratchExhausted indicates that a bounded scratch arena ran out of
	// byte capacity for a scratch region (Scratch.Alloc).
	ErrScratchExhausted = errors.New("archive: scratch arena exhausted")

	// ErrScratchMisuse indicates that scratch allocations were released out of
	// LIFO order. This is always a programming error in a Serialize implementation.
	ErrScratchMisuse = errors.New("archive: scratch allocations must be freed in LIFO order")

	// ErrOutOfBounds indicates that a pointer or primitive extends past its
	// containing range.
	ErrOutOfBounds = errors.New("archive: out of bounds")

	// ErrMisaligned indicates that a target address is not aligned for its
	// referent type.
	ErrMisaligned = errors.New("archive: misaligned")

	// ErrSubtreeOverlap indicates that an owned subtree intrudes on a sibling's
	// byte range, or that a pointer violates the leaves-first layout.
	ErrSubtreeOverlap = errors.New("archive: owned subtree overlaps a sibling range")

	// ErrInvalidTag indicates that a tagged-union discriminant is not a
	// declared variant.
	ErrInvalidTag = errors.New("archive: invalid discriminant")

	// ErrInvalidEncoding indicates that a primitive value violates a type
	// invariant: non-UTF-8 string bytes, a bool outside {0, 1}, a char that is
	// not a Unicode scalar value, or a malformed bucket index.
	ErrInvalidEncoding = errors.New("archive: invalid encoding")

	// ErrSharedTypeConflict indicates that two shared pointers target the same
	// position with different archived types.
	ErrSharedTypeConflict = errors.New("archive: shared pointer type conflict")

	// ErrUnknownVtable indicates that a trait-object selector is not present
	// in the vtable registry.
	ErrUnknownVtable = errors.New("archive: unknown vtable selector")

	// ErrExpiredWeak is returned by deserialization helpers when upgrading an
	// archived weak pointer that was expired at serialize time.
	ErrExpiredWeak = errors.New("archive: weak pointer was expired when archived")
)

// boundsError attaches positional context to ErrOutOfBounds.
func boundsError(pos Position, size int, limit Position) error {
	return fmt.Errorf("%w: [%d, %d) exceeds limit %d", ErrOutOfBounds, pos, pos+size, limit)
}

// alignError attaches positional context to ErrMisaligned.
func alignError(pos Position, align int) error {
	return fmt.Errorf("%w: position %d is not %d-byte aligned", ErrMisaligned, pos, align)
}

// overlapError attaches positional context to ErrSubtreeOverlap.
func overlapError(pos Position, size int, watermark Position) error {
	return fmt.Errorf("%w: [%d, %d) extends past watermark %d", ErrSubtreeOverlap, pos, pos+size, watermark)
}
