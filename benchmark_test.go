package archive

import (
	"bytes"
	"encoding/binary"
	"testing"
)

var benchProfile = profile{
	name:  "benchmark",
	score: 1234,
	tags:  Vec[String]{"alpha", "beta", "gamma"},
}

func BenchmarkSerializeProfile(b *testing.B) {
	sink := NewBufferSink()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink.Reset()
		ser, _ := NewSerializer(sink)
		_, _ = ser.SerializeValue(benchProfile)
		ser.Release()
	}
}

func BenchmarkAccessRoot(b *testing.B) {
	buf, err := ToBytes(benchProfile)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := AccessRoot[archivedProfile](buf)
		if p.Score.Get() != 1234 {
			b.Fatal("bad score")
		}
	}
}

func BenchmarkValidateRoot(b *testing.B) {
	buf, err := ToBytes(benchProfile)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ValidateRoot[archivedProfile](buf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMapLookup(b *testing.B) {
	buf, err := ToBytes(StringMap[Uint32]{
		"one": 1, "two": 2, "three": 3, "four": 4,
		"five": 5, "six": 6, "seven": 7, "eight": 8,
	})
	if err != nil {
		b.Fatal(err)
	}
	m := AccessRoot[ArchivedMap[U32]](buf)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := m.Get("seven"); !ok {
			b.Fatal("missing key")
		}
	}
}

// Baseline comparison using encoding/binary directly, to put the zero-copy
// access numbers in context.
type benchWirePayload struct {
	ID    uint32
	Score uint32
	Flags uint64
}

func BenchmarkStandardBinaryDecode(b *testing.B) {
	var buf bytes.Buffer
	payload := benchWirePayload{ID: 1, Score: 1234, Flags: 99}
	if err := binary.Write(&buf, binary.LittleEndian, &payload); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var out benchWirePayload
		if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &out); err != nil {
			b.Fatal(err)
		}
	}
}
