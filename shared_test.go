package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rcPair archives two shared pointers; with the same referent they
// deduplicate to one target.
type rcPair struct {
	a, b Rc[Int32]
}

func (rcPair) ArchivedLayout() Layout { return Layout{Size: 8, Align: 4} }

func (p rcPair) Serialize(s *Serializer) (Resolver, error) {
	return SerializeFields(s,
		Field{Offset: 0, Value: p.a},
		Field{Offset: 4, Value: p.b},
	)
}

type archivedRcPair struct {
	a, b ArchivedRc[I32]
}

func (archivedRcPair) Layout() Layout { return Layout{Size: 8, Align: 4} }

func (p *archivedRcPair) CheckBytes(c *Validator) error {
	if err := p.b.CheckBytes(c); err != nil {
		return err
	}
	return p.a.CheckBytes(c)
}

// conflictingRcPair views the same two pointer records with disagreeing
// referent types.
type conflictingRcPair struct {
	a ArchivedRc[I32]
	b ArchivedRc[U32]
}

func (conflictingRcPair) Layout() Layout { return Layout{Size: 8, Align: 4} }

func (p *conflictingRcPair) CheckBytes(c *Validator) error {
	if err := p.b.CheckBytes(c); err != nil {
		return err
	}
	return p.a.CheckBytes(c)
}

func TestSharedDeduplication(t *testing.T) {
	shared := Ptr(Int32(7))
	buf, err := ToBytes(rcPair{a: NewRc(shared), b: NewRc(shared)})
	require.NoError(t, err)

	// The i32 once at position 0, then two pointer records both targeting it.
	require.Len(t, buf, 12)
	pair := AccessRoot[archivedRcPair](buf)
	assert.Equal(t, -4, pair.a.ptr.Offset())
	assert.Equal(t, -8, pair.b.ptr.Offset())
	assert.Equal(t, int32(7), pair.a.Get().Get())
	assert.Same(t, pair.a.Get(), pair.b.Get())
}

func TestSharedValidation(t *testing.T) {
	shared := Ptr(Int32(7))
	buf, err := ToBytes(rcPair{a: NewRc(shared), b: NewRc(shared)})
	require.NoError(t, err)

	pair, err := ValidateRoot[archivedRcPair](buf)
	require.NoError(t, err)
	assert.Equal(t, int32(7), pair.a.Get().Get())
}

func TestSharedTypeConflict(t *testing.T) {
	shared := Ptr(Int32(7))
	buf, err := ToBytes(rcPair{a: NewRc(shared), b: NewRc(shared)})
	require.NoError(t, err)

	// The same target position claimed as two different archived types.
	_, err = ValidateRoot[conflictingRcPair](buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSharedTypeConflict)
}

func TestDistinctSourcesArchiveDistinctTargets(t *testing.T) {
	x, y := Ptr(Int32(7)), Ptr(Int32(7))
	buf, err := ToBytes(rcPair{a: NewRc(x), b: NewRc(y)})
	require.NoError(t, err)

	pair := AccessRoot[archivedRcPair](buf)
	assert.NotSame(t, pair.a.Get(), pair.b.Get(), "equal values at distinct addresses stay distinct")
	assert.Equal(t, int32(7), pair.a.Get().Get())
	assert.Equal(t, int32(7), pair.b.Get().Get())
}

func TestNilSharedPointer(t *testing.T) {
	_, err := ToBytes(Rc[Int32]{})
	assert.ErrorIs(t, err, ErrNilShared)
}

// weakPair holds one strong and one weak reference to the same referent.
type weakPair struct {
	strong Rc[Int32]
	weak   Weak[Int32]
}

func (weakPair) ArchivedLayout() Layout { return Layout{Size: 8, Align: 4} }

func (p weakPair) Serialize(s *Serializer) (Resolver, error) {
	return SerializeFields(s,
		Field{Offset: 0, Value: p.strong},
		Field{Offset: 4, Value: p.weak},
	)
}

type archivedWeakPair struct {
	strong ArchivedRc[I32]
	weak   ArchivedWeak[I32]
}

func (archivedWeakPair) Layout() Layout { return Layout{Size: 8, Align: 4} }

func (p *archivedWeakPair) CheckBytes(c *Validator) error {
	if err := p.weak.CheckBytes(c); err != nil {
		return err
	}
	return p.strong.CheckBytes(c)
}

func TestWeakUpgradesToSharedTarget(t *testing.T) {
	referent := Ptr(Int32(42))
	buf, err := ToBytes(weakPair{strong: NewRc(referent), weak: NewWeak(referent)})
	require.NoError(t, err)

	pair, err := ValidateRoot[archivedWeakPair](buf)
	require.NoError(t, err)
	require.False(t, pair.weak.IsExpired())
	assert.Same(t, pair.strong.Get(), pair.weak.Get())
}

func TestExpiredWeakArchivesAsNull(t *testing.T) {
	buf, err := ToBytes(Weak[Int32]{})
	require.NoError(t, err)

	w, err := ValidateRoot[ArchivedWeak[I32]](buf)
	require.NoError(t, err)
	assert.True(t, w.IsExpired())
	assert.Nil(t, w.Get())
}
