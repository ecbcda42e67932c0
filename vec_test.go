package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVecOfPrimitives(t *testing.T) {
	buf, err := ToBytes(Vec[Uint32]{10, 20, 30})
	require.NoError(t, err)

	// Elements at 0, 4, 8; header (delta -12, count 3) at 12.
	require.Len(t, buf, 20)
	v := AccessRoot[ArchivedVec[U32]](buf)
	assert.Equal(t, -12, v.ptr.Offset())
	require.Equal(t, 3, v.Len())
	assert.Equal(t, uint32(10), v.Get(0).Get())
	assert.Equal(t, uint32(30), v.Get(2).Get())

	elems := v.Slice()
	require.Len(t, elems, 3)
	assert.Equal(t, uint32(20), elems[1].Get())
}

func TestVecOfStrings(t *testing.T) {
	buf, err := ToBytes(Vec[String]{"alpha", "b", ""})
	require.NoError(t, err)

	v, err := ValidateRoot[ArchivedVec[ArchivedString]](buf)
	require.NoError(t, err)
	require.Equal(t, 3, v.Len())
	assert.Equal(t, "alpha", v.Get(0).String())
	assert.Equal(t, "b", v.Get(1).String())
	assert.True(t, v.Get(2).IsEmpty())
}

func TestNestedVec(t *testing.T) {
	buf, err := ToBytes(Vec[Vec[Uint32]]{{1}, {2, 3}, {}})
	require.NoError(t, err)

	outer, err := ValidateRoot[ArchivedVec[ArchivedVec[U32]]](buf)
	require.NoError(t, err)
	require.Equal(t, 3, outer.Len())
	assert.Equal(t, 1, outer.Get(0).Len())
	assert.Equal(t, uint32(3), outer.Get(1).Get(1).Get())
	assert.Equal(t, 0, outer.Get(2).Len())
}

func TestEmptyVec(t *testing.T) {
	buf, err := ToBytes(Vec[Uint32]{})
	require.NoError(t, err)

	v, err := ValidateRoot[ArchivedVec[U32]](buf)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Len())
}

func TestVecIndexOutOfRange(t *testing.T) {
	buf, err := ToBytes(Vec[Uint32]{1})
	require.NoError(t, err)

	v := AccessRoot[ArchivedVec[U32]](buf)
	assert.Panics(t, func() { v.Get(1) })
}

func TestBytesRegion(t *testing.T) {
	payload := []byte{0x00, 0xFF, 0x7F, 0x80}
	buf, err := ToBytes(Bytes(payload))
	require.NoError(t, err)

	b, err := ValidateRoot[ArchivedBytes](buf)
	require.NoError(t, err)
	assert.Equal(t, payload, b.Bytes())
}

func TestBoxAndOption(t *testing.T) {
	t.Run("Box", func(t *testing.T) {
		buf, err := ToBytes(Boxed(String("boxed")))
		require.NoError(t, err)
		b, err := ValidateRoot[ArchivedBox[ArchivedString]](buf)
		require.NoError(t, err)
		assert.Equal(t, "boxed", b.Get().String())
	})

	t.Run("Some", func(t *testing.T) {
		buf, err := ToBytes(Some(Uint32(99)))
		require.NoError(t, err)
		o, err := ValidateRoot[ArchivedOption[U32]](buf)
		require.NoError(t, err)
		require.True(t, o.IsSome())
		assert.Equal(t, uint32(99), o.Get().Get())
	})

	t.Run("None", func(t *testing.T) {
		buf, err := ToBytes(None[Uint32]())
		require.NoError(t, err)
		o, err := ValidateRoot[ArchivedOption[U32]](buf)
		require.NoError(t, err)
		assert.False(t, o.IsSome())
		assert.Nil(t, o.Get())
	})
}
