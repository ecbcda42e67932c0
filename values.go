package archive

// Source-value wrappers for the Go scalar types. Each wrapper is Archivable
// with no children: its serialize step emits nothing and its resolver writes
// the endian-explicit bytes of the matching archived primitive.

type (
	Uint8   uint8
	Uint16  uint16
	Uint32  uint32
	Uint64  uint64
	Int8    int8
	Int16   int16
	Int32   int32
	Int64   int64
	Float32 float32
	Float64 float64
	Boolean bool
	// Character archives as a 4-byte Unicode scalar value.
	Character rune
)

// rawResolver carries pre-rendered archived bytes for leaf values.
type rawResolver struct {
	buf [8]byte
	n   int
}

func raw(b []byte) rawResolver {
	var r rawResolver
	r.n = copy(r.buf[:], b)
	return r
}

func (r rawResolver) Emplace(_ Position, out []byte) error {
	copy(out, r.buf[:r.n])
	return nil
}

func (v Uint8) ArchivedLayout() Layout { return U8{}.Layout() }
func (v Uint16) ArchivedLayout() Layout { return U16{}.Layout() }
func (v Uint32) ArchivedLayout() Layout { return U32{}.Layout() }
func (v Uint64) ArchivedLayout() Layout { return U64{}.Layout() }
func (v Int8) ArchivedLayout() Layout { return I8{}.Layout() }
func (v Int16) ArchivedLayout() Layout { return I16{}.Layout() }
func (v Int32) ArchivedLayout() Layout { return I32{}.Layout() }
func (v Int64) ArchivedLayout() Layout { return I64{}.Layout() }
func (v Float32) ArchivedLayout() Layout { return F32{}.Layout() }
func (v Float64) ArchivedLayout() Layout { return F64{}.Layout() }
func (v Boolean) ArchivedLayout() Layout { return Bool{}.Layout() }
func (v Character) ArchivedLayout() Layout { return Char{}.Layout() }

func (v Uint8) Serialize(*Serializer) (Resolver, error) {
	p := NewU8(uint8(v))
	return raw(p[:]), nil
}

func (v Uint16) Serialize(*Serializer) (Resolver, error) {
	p := NewU16(uint16(v))
	return raw(p[:]), nil
}

func (v Uint32) Serialize(*Serializer) (Resolver, error) {
	p := NewU32(uint32(v))
	return raw(p[:]), nil
}

func (v Uint64) Serialize(*Serializer) (Resolver, error) {
	p := NewU64(uint64(v))
	return raw(p[:]), nil
}

func (v Int8) Serialize(*Serializer) (Resolver, error) {
	p := NewI8(int8(v))
	return raw(p[:]), nil
}

func (v Int16) Serialize(*Serializer) (Resolver, error) {
	p := NewI16(int16(v))
	return raw(p[:]), nil
}

func (v Int32) Serialize(*Serializer) (Resolver, error) {
	p := NewI32(int32(v))
	return raw(p[:]), nil
}

func (v Int64) Serialize(*Serializer) (Resolver, error) {
	p := NewI64(int64(v))
	return raw(p[:]), nil
}

func (v Float32) Serialize(*Serializer) (Resolver, error) {
	p := NewF32(float32(v))
	return raw(p[:]), nil
}

func (v Float64) Serialize(*Serializer) (Resolver, error) {
	p := NewF64(float64(v))
	return raw(p[:]), nil
}

func (v Boolean) Serialize(*Serializer) (Resolver, error) {
	p := NewBool(bool(v))
	return raw(p[:]), nil
}

func (v Character) Serialize(*Serializer) (Resolver, error) {
	p := NewChar(rune(v))
	return raw(p[:]), nil
}
