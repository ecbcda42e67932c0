package archive

import (
	"fmt"
	"unicode/utf8"
	"unsafe"
)

// String is the source wrapper for Go strings. It archives as a wide
// relative pointer to out-of-line UTF-8 bytes: the offset followed by the
// byte length. Character data is aligned to the offset width. The contract
// permits a short-string optimization; this implementation does not take it
// and always uses the uniform out-of-line form.
type String string

func (v String) ArchivedLayout() Layout { return ArchivedString{}.Layout() }

// Serialize emits the character data; the header resolves later.
func (v String) Serialize(s *Serializer) (Resolver, error) {
	if len(v) == 0 {
		return strResolver{}, nil
	}
	pos, err := s.Align(4)
	if err != nil {
		return nil, err
	}
	if _, err := s.Write([]byte(v)); err != nil {
		return nil, err
	}
	return strResolver{target: pos, n: len(v)}, nil
}

type strResolver struct {
	target Position
	n      int
}

func (r strResolver) Emplace(pos Position, out []byte) error {
	if r.n == 0 {
		// Zero-length referent: a degenerate null pointer that is never
		// dereferenced.
		clear(out)
		return nil
	}
	return putWide(out, pos, r.target, uint32(r.n))
}

// ArchivedString is the archived mirror of a string: a wide relative pointer
// whose metadata is the byte length.
type ArchivedString struct {
	ptr WideRelPtr
}

func (ArchivedString) Layout() Layout { return Layout{Size: 8, Align: 4} }

// Len returns the byte length.
func (s *ArchivedString) Len() int { return int(s.ptr.Metadata()) }

// IsEmpty reports whether the string has no bytes.
func (s *ArchivedString) IsEmpty() bool { return s.Len() == 0 }

// Bytes returns a view of the character data inside the buffer, without
// copying.
func (s *ArchivedString) Bytes() []byte {
	n := s.Len()
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(s.ptr.Resolve()), n)
}

// String returns a view of the character data as a Go string, without
// copying. The result aliases the buffer and is valid for as long as the
// buffer is alive.
func (s *ArchivedString) String() string {
	n := s.Len()
	if n == 0 {
		return ""
	}
	return unsafe.String((*byte)(s.ptr.Resolve()), n)
}

// Equal compares against a Go string without materializing a copy.
func (s *ArchivedString) Equal(other string) bool { return s.String() == other }

// CheckBytes validates the character region: in bounds, below the sibling
// watermark, and valid UTF-8. Empty strings must store a null pointer.
func (s *ArchivedString) CheckBytes(c *Validator) error {
	n := s.Len()
	if n == 0 {
		if !s.ptr.IsNull() {
			return fmt.Errorf("%w: empty string with non-null pointer", ErrInvalidEncoding)
		}
		return nil
	}
	target := c.PosOf(unsafe.Pointer(s)) + s.ptr.Offset()
	return c.CheckSubtree(target, n, 1, func() error {
		if !utf8.Valid(c.Bytes(target, n)) {
			return fmt.Errorf("%w: string bytes at %d are not valid UTF-8", ErrInvalidEncoding, target)
		}
		return nil
	})
}

// Deserialize returns an owned copy of the string.
func (s *ArchivedString) Deserialize() string {
	return string(s.Bytes())
}
