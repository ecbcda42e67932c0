package archive

// DEFAULT_MAP_SEED seeds archived map and set hashing when no seed is
// configured. A fixed default keeps serialization deterministic: equal source
// values under identical format knobs produce byte-identical archives.
const DEFAULT_MAP_SEED = 0x9e3779b97f4a7c15

// Serializer drives the serialize/resolve protocol for one session. It
// bundles the write-forward sink, the scratch arena and the shared-pointer
// registry. Sessions are single-goroutine; independent sessions may run in
// parallel on different buffers without coordination.
type Serializer struct {
	sink    Sink
	scratch *Scratch
	shared  *sharedRegistry
	seed    uint64
	pooled  bool
}

// NewSerializer creates a session writing to sink. The scratch arena comes
// from a process-level pool; call Release when the session is finished to
// return it.
func NewSerializer(sink Sink) (*Serializer, error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	return &Serializer{
		sink:    sink,
		scratch: scratchPool.Get().(*Scratch),
		shared:  newSharedRegistry(),
		seed:    DEFAULT_MAP_SEED,
		pooled:  true,
	}, nil
}

// WithScratch replaces the pooled arena, e.g. with a bounded one. Returns
// the serializer for chaining.
func (s *Serializer) WithScratch(scratch *Scratch) *Serializer {
	if s.pooled {
		s.scratch.reset()
		scratchPool.Put(s.scratch)
		s.pooled = false
	}
	s.scratch = scratch
	return s
}

// WithSeed sets the hash seed stored in archived maps and sets. Returns the
// serializer for chaining.
func (s *Serializer) WithSeed(seed uint64) *Serializer {
	s.seed = seed
	return s
}

// Release returns pooled resources. The serializer must not be used after.
func (s *Serializer) Release() {
	if s.pooled {
		s.scratch.reset()
		scratchPool.Put(s.scratch)
		s.pooled = false
	}
	s.scratch = nil
	s.shared = nil
}

// Pos returns the sink cursor.
func (s *Serializer) Pos() Position { return s.sink.Pos() }

// Align pads the sink to a multiple of align and returns the cursor.
func (s *Serializer) Align(align int) (Position, error) { return s.sink.Align(align) }

// Write appends raw child bytes to the sink.
func (s *Serializer) Write(p []byte) (int, error) { return s.sink.Write(p) }

// Scratch exposes the session arena to container serializers.
func (s *Serializer) Scratch() *Scratch { return s.scratch }

// Seed returns the configured map hash seed.
func (s *Serializer) Seed() uint64 { return s.seed }

// SerializeValue archives v and returns the position of its archived bytes:
// it runs v's serialize step (emitting all children), pads the sink to the
// archived alignment, and emplaces the resolved bytes at the resulting
// cursor. On error nothing further is written; the session's buffer is not
// observable.
func (s *Serializer) SerializeValue(v Archivable) (Position, error) {
	res, err := v.Serialize(s)
	if err != nil {
		return 0, err
	}
	lay := v.ArchivedLayout()
	pos, err := s.sink.Align(lay.Align)
	if err != nil {
		return 0, err
	}
	return pos, s.emplace(pos, lay.Size, res)
}

// emplace resolves res into a scratch window of size bytes at pos and writes
// the window to the sink.
func (s *Serializer) emplace(pos Position, size int, res Resolver) error {
	out, err := s.scratch.Alloc(size)
	if err != nil {
		return err
	}
	if err := res.Emplace(pos, out); err != nil {
		s.scratch.Free(size)
		return err
	}
	_, werr := s.sink.Write(out)
	if ferr := s.scratch.Free(size); werr == nil {
		werr = ferr
	}
	return werr
}

// ToBytes archives v into a fresh aligned buffer and returns it. The
// archived root occupies the buffer's final ArchivedLayout().Size bytes. A
// failed serialization returns no buffer.
func ToBytes(v Archivable) ([]byte, error) {
	sink := NewBufferSink()
	s, err := NewSerializer(sink)
	if err != nil {
		return nil, err
	}
	defer s.Release()
	if _, err := s.SerializeValue(v); err != nil {
		return nil, err
	}
	return sink.Bytes(), nil
}

// Field pairs a source value with the byte offset of its archived mirror
// inside the parent's archived struct.
type Field struct {
	Offset int
	Value  Archivable
}

// StructResolver emplaces a parent's fields into its reserved window. All
// headers land contiguously because the parent occupies one window; all
// children were emitted during SerializeFields.
type StructResolver struct {
	slots []fieldSlot
}

type fieldSlot struct {
	offset int
	size   int
	res    Resolver
}

func (r *StructResolver) Emplace(pos Position, out []byte) error {
	for _, slot := range r.slots {
		if err := slot.res.Emplace(pos+slot.offset, out[slot.offset:slot.offset+slot.size]); err != nil {
			return err
		}
	}
	return nil
}

// SerializeFields runs the serialize step of every field, in order, before
// any of them resolves. This is the ordering contract that keeps a parent's
// field records adjacent: for fields f1..fn, serialize(fi) runs for all i
// before resolve(fi) runs for any i.
func SerializeFields(s *Serializer, fields ...Field) (*StructResolver, error) {
	slots := make([]fieldSlot, 0, len(fields))
	for _, f := range fields {
		res, err := f.Value.Serialize(s)
		if err != nil {
			return nil, err
		}
		slots = append(slots, fieldSlot{
			offset: f.Offset,
			size:   f.Value.ArchivedLayout().Size,
			res:    res,
		})
	}
	return &StructResolver{slots: slots}, nil
}
