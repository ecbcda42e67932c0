package archive

import (
	"golang.org/x/exp/constraints"
)

const BUFFER_SIZE = 4096

// zeros backs alignment padding so that pads of any common size can be
// written with a single copy.
var zeros [BUFFER_SIZE]byte

// Roundup rounds n up to the nearest multiple of align. align must be a
// power of two.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }

// isAligned reports whether pos is a multiple of align. align must be a
// power of two.
func isAligned[T constraints.Integer](pos, align T) bool { return pos&(align-1) == 0 }

// nextPow2 returns the smallest power of two >= n. n must be positive.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Ptr is a helper to create a pointer to a value, making test setup cleaner.
func Ptr[T any](v T) *T { return &v }
