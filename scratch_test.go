package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratchLIFO(t *testing.T) {
	s := NewScratch(64, 0)

	a, err := s.Alloc(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)

	b, err := s.Alloc(8)
	require.NoError(t, err)
	assert.Len(t, b, 8)

	require.NoError(t, s.Free(8))
	require.NoError(t, s.Free(16))
}

func TestScratchMisuse(t *testing.T) {
	s := NewScratch(64, 0)

	_, err := s.Alloc(16)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Free(8), ErrScratchMisuse, "size mismatch")
	require.NoError(t, s.Free(16))
	assert.ErrorIs(t, s.Free(16), ErrScratchMisuse, "double free")
}

func TestScratchExhaustion(t *testing.T) {
	s := NewScratch(8, 32)

	_, err := s.Alloc(32)
	require.NoError(t, err)
	_, err = s.Alloc(1)
	assert.ErrorIs(t, err, ErrScratchExhausted)
}

func TestScratchRegionsAreZeroed(t *testing.T) {
	s := NewScratch(16, 0)

	a, err := s.Alloc(8)
	require.NoError(t, err)
	for i := range a {
		a[i] = 0xFF
	}
	require.NoError(t, s.Free(8))

	b, err := s.Alloc(8)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), b)
}

func TestScratchResolverStack(t *testing.T) {
	s := NewScratch(16, 0)

	outer := s.AllocResolvers(2)
	s.SetResolver(outer, rawResolver{})
	inner := s.AllocResolvers(1)
	s.SetResolver(inner, rawResolver{})

	assert.ErrorIs(t, s.FreeResolvers(outer), ErrScratchMisuse, "inner region must be freed first")
	require.NoError(t, s.FreeResolvers(inner))
	require.NoError(t, s.FreeResolvers(outer))
}

func TestAlignedBufferFloor(t *testing.T) {
	b := NewAlignedBuffer(10)
	b.Write(make([]byte, 5000))
	assert.Equal(t, 5000, b.Len())

	view := b.Bytes()
	assert.NotPanics(t, func() { _ = Access[U8](view, 0) }, "grown buffer keeps the alignment floor")
}

func TestBufferSinkAlign(t *testing.T) {
	s := NewBufferSink()
	s.Write([]byte{1, 2, 3})

	pos, err := s.Align(8)
	require.NoError(t, err)
	assert.Equal(t, 8, pos)
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0}, s.Bytes())

	pos, err = s.Align(8)
	require.NoError(t, err)
	assert.Equal(t, 8, pos, "aligning an aligned cursor writes nothing")
}
