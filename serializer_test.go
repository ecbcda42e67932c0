package archive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Fixtures ---

// stringPair is a two-field source struct; its archived mirror is two
// adjacent string headers.
type stringPair struct {
	a, b String
}

func (p stringPair) ArchivedLayout() Layout { return Layout{Size: 16, Align: 4} }

func (p stringPair) Serialize(s *Serializer) (Resolver, error) {
	return SerializeFields(s,
		Field{Offset: 0, Value: p.a},
		Field{Offset: 8, Value: p.b},
	)
}

type archivedStringPair struct {
	a, b ArchivedString
}

func (archivedStringPair) Layout() Layout { return Layout{Size: 16, Align: 4} }

func (p *archivedStringPair) CheckBytes(c *Validator) error {
	// Later-emitted field first.
	if err := p.b.CheckBytes(c); err != nil {
		return err
	}
	return p.a.CheckBytes(c)
}

// profile exercises nested containers: a string, a primitive and a sequence
// of strings.
type profile struct {
	name  String
	score Uint32
	tags  Vec[String]
}

func (p profile) ArchivedLayout() Layout { return Layout{Size: 20, Align: 4} }

func (p profile) Serialize(s *Serializer) (Resolver, error) {
	return SerializeFields(s,
		Field{Offset: 0, Value: p.name},
		Field{Offset: 8, Value: p.score},
		Field{Offset: 12, Value: p.tags},
	)
}

type archivedProfile struct {
	Name  ArchivedString
	Score U32
	Tags  ArchivedVec[ArchivedString]
}

func (archivedProfile) Layout() Layout { return Layout{Size: 20, Align: 4} }

func (p *archivedProfile) CheckBytes(c *Validator) error {
	if err := p.Tags.CheckBytes(c); err != nil {
		return err
	}
	return p.Name.CheckBytes(c)
}

// --- Serializer Test Suite ---

type SerializerTestSuite struct {
	suite.Suite
}

func (s *SerializerTestSuite) TestPrimitive() {
	buf, err := ToBytes(Uint32(0x01020304))
	s.Require().NoError(err)

	s.Assert().Equal([]byte{0x04, 0x03, 0x02, 0x01}, buf)
	s.Assert().Equal(uint32(0x01020304), AccessRoot[U32](buf).Get())
}

func (s *SerializerTestSuite) TestString() {
	buf, err := ToBytes(String("hello"))
	s.Require().NoError(err)

	// Characters at 0, zero padding to the header alignment, then the wide
	// header (delta -8, length 5) in the final 8 bytes.
	s.Require().Len(buf, 16)
	s.Assert().Equal([]byte("hello"), buf[:5])
	s.Assert().Equal([]byte{0, 0, 0}, buf[5:8])

	str := AccessRoot[ArchivedString](buf)
	s.Assert().Equal(-8, str.ptr.Offset())
	s.Assert().Equal(5, str.Len())
	s.Assert().Equal("hello", str.String())
}

func (s *SerializerTestSuite) TestPairOfStrings() {
	buf, err := ToBytes(stringPair{a: "hi", b: "bye"})
	s.Require().NoError(err)

	// "hi" at 0, "bye" at 4 (character data is 4-aligned), headers adjacent
	// at 8 and 16. Both serialize steps ran before either header resolved;
	// nothing intervenes between the two records.
	s.Require().Len(buf, 24)
	s.Assert().Equal([]byte("hi"), buf[0:2])
	s.Assert().Equal([]byte("bye"), buf[4:7])

	pair := AccessRoot[archivedStringPair](buf)
	s.Assert().Equal(-8, pair.a.ptr.Offset())
	s.Assert().Equal("hi", pair.a.String())
	s.Assert().Equal(-12, pair.b.ptr.Offset())
	s.Assert().Equal("bye", pair.b.String())
}

func (s *SerializerTestSuite) TestRootBytesEndAtBufferEnd() {
	buf, err := ToBytes(profile{
		name:  "alice",
		score: 7,
		tags:  Vec[String]{"a", "bb"},
	})
	s.Require().NoError(err)

	root := AccessRoot[archivedProfile](buf)
	s.Assert().Equal("alice", root.Name.String())
	s.Assert().Equal(uint32(7), root.Score.Get())
	s.Require().Equal(2, root.Tags.Len())
	s.Assert().Equal("a", root.Tags.Get(0).String())
	s.Assert().Equal("bb", root.Tags.Get(1).String())

	// The root occupies exactly the final sizeof bytes.
	s.Assert().Same(root, Access[archivedProfile](buf, len(buf)-archivedProfile{}.Layout().Size))
}

func (s *SerializerTestSuite) TestDeterministicOutput() {
	value := StringMap[Uint32]{"north": 1, "south": 2, "east": 3, "west": 4}

	first, err := ToBytes(value)
	s.Require().NoError(err)
	second, err := ToBytes(value)
	s.Require().NoError(err)
	s.Assert().True(bytes.Equal(first, second), "equal sources must archive byte-identically")
}

func (s *SerializerTestSuite) TestEmptyString() {
	buf, err := ToBytes(String(""))
	s.Require().NoError(err)
	str := AccessRoot[ArchivedString](buf)
	s.Assert().True(str.IsEmpty())
	s.Assert().Equal("", str.String())
}

func (s *SerializerTestSuite) TestFailedSerializationYieldsNoBuffer() {
	buf, err := ToBytes(overflowing{})
	s.Require().ErrorIs(err, ErrOffsetOverflow)
	s.Assert().Nil(buf)
}

// overflowing emulates a 16-bit offset configuration whose target is too far
// for the narrow width.
type overflowing struct{}

func (overflowing) ArchivedLayout() Layout { return Layout{Size: 2, Align: 2} }

func (overflowing) Serialize(s *Serializer) (Resolver, error) {
	pos := s.Pos()
	if _, err := s.Write(make([]byte, 1<<16)); err != nil {
		return nil, err
	}
	return offset16Resolver{target: pos}, nil
}

type offset16Resolver struct {
	target Position
}

func (r offset16Resolver) Emplace(pos Position, out []byte) error {
	o, err := MakeOffset16(pos, r.target)
	if err != nil {
		return err
	}
	copy(out, o[:])
	return nil
}

func TestSerializer(t *testing.T) {
	suite.Run(t, new(SerializerTestSuite))
}

// --- Stream sink ---

func TestStreamSinkMatchesBufferSink(t *testing.T) {
	value := profile{name: "bob", score: 9, tags: Vec[String]{"x", "yz"}}

	expected, err := ToBytes(value)
	require.NoError(t, err)

	var out bytes.Buffer
	sink, err := NewStreamSink(&out)
	require.NoError(t, err)
	ser, err := NewSerializer(sink)
	require.NoError(t, err)
	defer ser.Release()

	_, err = ser.SerializeValue(value)
	require.NoError(t, err)
	require.NoError(t, sink.Flush())

	assert.Equal(t, expected, out.Bytes())
	assert.EqualValues(t, len(expected), sink.Count())
}

// failingWriter rejects every write.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, assert.AnError }

func TestStreamSinkLatchesError(t *testing.T) {
	sink, err := NewStreamSink(failingWriter{})
	require.NoError(t, err)

	// The failure surfaces at flush time and is latched as ErrSinkFull;
	// later writes are no-ops reporting the same error.
	sink.Write([]byte{1, 2, 3})
	sink.Flush()
	first := sink.Err()
	require.Error(t, first)
	assert.ErrorIs(t, first, ErrSinkFull)

	_, err = sink.Write([]byte{4})
	assert.Equal(t, first, err)
}

func TestStreamSinkNilWriter(t *testing.T) {
	_, err := NewStreamSink(nil)
	assert.ErrorIs(t, err, ErrNilWriter)
}
