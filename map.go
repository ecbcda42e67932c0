package archive

import (
	"encoding/binary"
	"fmt"
	"sort"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Archived maps and sets are string-keyed hash containers with O(1) expected
// archived lookup. The header stores a wide pointer to a bucket-sorted entry
// array, a wide pointer to a bucket index of cumulative offsets, the bucket
// count (a power of two) and the hash seed. Entry order is reproducibly
// determined — bucket first, then key — so equal sources archive to
// byte-identical buffers under the same seed.

// hashKey hashes a key under a seed. The seed is folded in as a prefix of
// the hash input so that lookups against an archive reproduce the exact
// bucket assignment recorded at serialize time.
func hashKey(seed uint64, key string) uint64 {
	d := digestPool.Get().(*xxhash.Digest)
	d.Reset()
	var sb [8]byte
	binary.LittleEndian.PutUint64(sb[:], seed)
	d.Write(sb[:])
	d.WriteString(key)
	h := d.Sum64()
	digestPool.Put(d)
	return h
}

func bucketOf(seed uint64, key string, buckets int) int {
	return int(hashKey(seed, key) & uint64(buckets-1))
}

// sortedKeys sorts keys in place into archived entry order and returns the
// cumulative bucket index.
func sortedKeys(seed uint64, keys []string, buckets int) []uint32 {
	sort.Slice(keys, func(i, j int) bool {
		bi, bj := bucketOf(seed, keys[i], buckets), bucketOf(seed, keys[j], buckets)
		if bi != bj {
			return bi < bj
		}
		return keys[i] < keys[j]
	})
	index := make([]uint32, buckets+1)
	for _, k := range keys {
		index[bucketOf(seed, k, buckets)+1]++
	}
	for b := 1; b <= buckets; b++ {
		index[b] += index[b-1]
	}
	return index
}

// StringMap is the source wrapper for string-keyed maps of archivable
// values.
type StringMap[V Archivable] map[string]V

func (m StringMap[V]) ArchivedLayout() Layout { return Layout{Size: 24, Align: 8} }

func (m StringMap[V]) Serialize(s *Serializer) (Resolver, error) {
	n := len(m)
	if n == 0 {
		return mapResolver{seed: s.Seed()}, nil
	}
	seed := s.Seed()
	buckets := nextPow2(n)
	keys := make([]string, 0, n)
	var vlay Layout
	for k, v := range m {
		keys = append(keys, k)
		vlay = v.ArchivedLayout()
	}
	index := sortedKeys(seed, keys, buckets)

	// Children first: every key's character data and every value's children,
	// in entry order, with the resolvers staged in scratch.
	type keyLoc struct {
		target Position
		n      int
	}
	locs := make([]keyLoc, n)
	mark := s.Scratch().AllocResolvers(n)
	for i, k := range keys {
		if len(k) > 0 {
			pos, err := s.Align(4)
			if err != nil {
				return nil, err
			}
			if _, err := s.Write([]byte(k)); err != nil {
				return nil, err
			}
			locs[i] = keyLoc{target: pos, n: len(k)}
		}
		res, err := m[k].Serialize(s)
		if err != nil {
			return nil, err
		}
		s.Scratch().SetResolver(mark+i, res)
	}

	// Entry array: key header and value record back to back per entry.
	elay := Layout{Size: 8 + vlay.Size, Align: max(4, vlay.Align)}
	var entries Position
	for i := range keys {
		pos, err := s.Align(elay.Align)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			entries = pos
		}
		out, err := s.Scratch().Alloc(elay.Size)
		if err != nil {
			return nil, err
		}
		kres := strResolver{target: locs[i].target, n: locs[i].n}
		err = kres.Emplace(pos, out[:8])
		if err == nil {
			err = s.Scratch().Resolver(mark + i).Emplace(pos+8, out[8:])
		}
		if err == nil {
			_, err = s.Write(out)
		}
		if ferr := s.Scratch().Free(elay.Size); err == nil {
			err = ferr
		}
		if err != nil {
			return nil, err
		}
	}
	if err := s.Scratch().FreeResolvers(mark); err != nil {
		return nil, err
	}

	// Bucket index.
	idxPos, err := s.Align(4)
	if err != nil {
		return nil, err
	}
	for _, cum := range index {
		var ib [4]byte
		binary.LittleEndian.PutUint32(ib[:], cum)
		if _, err := s.Write(ib[:]); err != nil {
			return nil, err
		}
	}

	return mapResolver{
		entries: entries,
		n:       n,
		index:   idxPos,
		buckets: buckets,
		seed:    seed,
	}, nil
}

type mapResolver struct {
	entries Position
	n       int
	index   Position
	buckets int
	seed    uint64
}

func (r mapResolver) Emplace(pos Position, out []byte) error {
	clear(out)
	if r.n > 0 {
		if err := putOffset32(out[0:], pos, r.entries); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(out[4:], uint32(r.n))
		if err := putOffset32(out[8:], pos+8, r.index); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(out[12:], uint32(r.buckets))
	}
	binary.LittleEndian.PutUint64(out[16:], r.seed)
	return nil
}

// MapEntry is one archived map entry: the key header followed by the value
// record.
type MapEntry[V any] struct {
	Key   ArchivedString
	Value V
}

func entryLayout[V any]() Layout {
	vlay := elemLayout[V]()
	return Layout{Size: 8 + vlay.Size, Align: max(4, vlay.Align)}
}

// ArchivedMap is the archived mirror of a string-keyed map. V is the
// archived value type.
type ArchivedMap[V any] struct {
	entries RelPtr
	len     U32
	index   RelPtr
	buckets U32
	seed    U64
}

func (ArchivedMap[V]) Layout() Layout { return Layout{Size: 24, Align: 8} }

// Len returns the number of entries.
func (m *ArchivedMap[V]) Len() int { return int(m.len.Get()) }

// Seed returns the stored hash seed.
func (m *ArchivedMap[V]) Seed() uint64 { return m.seed.Get() }

func (m *ArchivedMap[V]) entryAt(i int) *MapEntry[V] {
	stride := entryLayout[V]().Stride()
	return (*MapEntry[V])(unsafe.Add(m.entries.Resolve(), i*stride))
}

func (m *ArchivedMap[V]) indexAt(b int) int {
	p := (*U32)(unsafe.Add(m.index.Resolve(), 4*b))
	return int(p.Get())
}

// Get returns a reference to the value for key, if present. Lookup hashes
// the key under the stored seed and scans one bucket.
func (m *ArchivedMap[V]) Get(key string) (*V, bool) {
	if m.Len() == 0 {
		return nil, false
	}
	b := bucketOf(m.seed.Get(), key, int(m.buckets.Get()))
	for i := m.indexAt(b); i < m.indexAt(b+1); i++ {
		if e := m.entryAt(i); e.Key.Equal(key) {
			return &e.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (m *ArchivedMap[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Range calls f for each entry in archived order until f returns false.
func (m *ArchivedMap[V]) Range(f func(key string, value *V) bool) {
	for i := 0; i < m.Len(); i++ {
		e := m.entryAt(i)
		if !f(e.Key.String(), &e.Value) {
			return
		}
	}
}

func (m *ArchivedMap[V]) CheckBytes(c *Validator) error {
	n := m.Len()
	if n == 0 {
		if !m.entries.IsNull() || !m.index.IsNull() || m.buckets.Get() != 0 {
			return fmt.Errorf("%w: empty map with non-null table", ErrInvalidEncoding)
		}
		return nil
	}
	if n > len(c.buf) {
		return boundsError(0, n, len(c.buf))
	}
	b := int(m.buckets.Get())
	if b <= 0 || b&(b-1) != 0 || b > len(c.buf) {
		return fmt.Errorf("%w: bucket count %d", ErrInvalidEncoding, b)
	}
	pos := c.PosOf(unsafe.Pointer(m))

	// The bucket index is emitted after the entry array, so it is checked
	// first under the descending watermark discipline.
	idxTarget := pos + 8 + m.index.Offset()
	err := c.CheckSubtree(idxTarget, 4*(b+1), 4, func() error {
		prev := 0
		for i := 0; i <= b; i++ {
			cum := m.indexAt(i)
			if cum < prev {
				return fmt.Errorf("%w: bucket index decreases at %d", ErrInvalidEncoding, i)
			}
			prev = cum
		}
		if m.indexAt(0) != 0 || m.indexAt(b) != n {
			return fmt.Errorf("%w: bucket index does not cover %d entries", ErrInvalidEncoding, n)
		}
		return nil
	})
	if err != nil {
		return err
	}

	elay := entryLayout[V]()
	entTarget := pos + m.entries.Offset()
	return c.CheckSubtree(entTarget, slabSize(elay, n), elay.Align, func() error {
		for i := n - 1; i >= 0; i-- {
			e := (*MapEntry[V])(unsafe.Pointer(&c.buf[entTarget+i*elay.Stride()]))
			// Per entry the value's children were emitted after the key's
			// characters: value first.
			if check := checkOf(&e.Value); check != nil {
				if err := check(c); err != nil {
					return err
				}
			}
			if err := e.Key.CheckBytes(c); err != nil {
				return err
			}
		}
		return nil
	})
}

// StringSet is the source wrapper for sets of strings.
type StringSet map[string]struct{}

// NewStringSet builds a set from its members.
func NewStringSet(members ...string) StringSet {
	set := make(StringSet, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set
}

func (v StringSet) ArchivedLayout() Layout { return Layout{Size: 24, Align: 8} }

func (v StringSet) Serialize(s *Serializer) (Resolver, error) {
	n := len(v)
	if n == 0 {
		return mapResolver{seed: s.Seed()}, nil
	}
	seed := s.Seed()
	buckets := nextPow2(n)
	keys := make([]string, 0, n)
	for k := range v {
		keys = append(keys, k)
	}
	index := sortedKeys(seed, keys, buckets)

	type keyLoc struct {
		target Position
		n      int
	}
	locs := make([]keyLoc, n)
	for i, k := range keys {
		if len(k) == 0 {
			continue
		}
		pos, err := s.Align(4)
		if err != nil {
			return nil, err
		}
		if _, err := s.Write([]byte(k)); err != nil {
			return nil, err
		}
		locs[i] = keyLoc{target: pos, n: len(k)}
	}

	var entries Position
	for i := range keys {
		pos, err := s.Align(4)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			entries = pos
		}
		out, err := s.Scratch().Alloc(8)
		if err != nil {
			return nil, err
		}
		err = strResolver{target: locs[i].target, n: locs[i].n}.Emplace(pos, out)
		if err == nil {
			_, err = s.Write(out)
		}
		if ferr := s.Scratch().Free(8); err == nil {
			err = ferr
		}
		if err != nil {
			return nil, err
		}
	}

	idxPos, err := s.Align(4)
	if err != nil {
		return nil, err
	}
	for _, cum := range index {
		var ib [4]byte
		binary.LittleEndian.PutUint32(ib[:], cum)
		if _, err := s.Write(ib[:]); err != nil {
			return nil, err
		}
	}

	return mapResolver{
		entries: entries,
		n:       n,
		index:   idxPos,
		buckets: buckets,
		seed:    seed,
	}, nil
}

// ArchivedSet is the archived mirror of a string set: the map layout with
// bare string entries.
type ArchivedSet struct {
	entries RelPtr
	len     U32
	index   RelPtr
	buckets U32
	seed    U64
}

func (ArchivedSet) Layout() Layout { return Layout{Size: 24, Align: 8} }

// Len returns the number of members.
func (v *ArchivedSet) Len() int { return int(v.len.Get()) }

func (v *ArchivedSet) entryAt(i int) *ArchivedString {
	return (*ArchivedString)(unsafe.Add(v.entries.Resolve(), 8*i))
}

func (v *ArchivedSet) indexAt(b int) int {
	p := (*U32)(unsafe.Add(v.index.Resolve(), 4*b))
	return int(p.Get())
}

// Has reports whether member is in the set.
func (v *ArchivedSet) Has(member string) bool {
	if v.Len() == 0 {
		return false
	}
	b := bucketOf(v.seed.Get(), member, int(v.buckets.Get()))
	for i := v.indexAt(b); i < v.indexAt(b+1); i++ {
		if v.entryAt(i).Equal(member) {
			return true
		}
	}
	return false
}

// Range calls f for each member in archived order until f returns false.
func (v *ArchivedSet) Range(f func(member string) bool) {
	for i := 0; i < v.Len(); i++ {
		if !f(v.entryAt(i).String()) {
			return
		}
	}
}

func (v *ArchivedSet) CheckBytes(c *Validator) error {
	n := v.Len()
	if n == 0 {
		if !v.entries.IsNull() || !v.index.IsNull() || v.buckets.Get() != 0 {
			return fmt.Errorf("%w: empty set with non-null table", ErrInvalidEncoding)
		}
		return nil
	}
	if n > len(c.buf) {
		return boundsError(0, n, len(c.buf))
	}
	b := int(v.buckets.Get())
	if b <= 0 || b&(b-1) != 0 || b > len(c.buf) {
		return fmt.Errorf("%w: bucket count %d", ErrInvalidEncoding, b)
	}
	pos := c.PosOf(unsafe.Pointer(v))

	idxTarget := pos + 8 + v.index.Offset()
	err := c.CheckSubtree(idxTarget, 4*(b+1), 4, func() error {
		prev := 0
		for i := 0; i <= b; i++ {
			cum := v.indexAt(i)
			if cum < prev {
				return fmt.Errorf("%w: bucket index decreases at %d", ErrInvalidEncoding, i)
			}
			prev = cum
		}
		if v.indexAt(0) != 0 || v.indexAt(b) != n {
			return fmt.Errorf("%w: bucket index does not cover %d entries", ErrInvalidEncoding, n)
		}
		return nil
	})
	if err != nil {
		return err
	}

	entTarget := pos + v.entries.Offset()
	return c.CheckSubtree(entTarget, slabSize(Layout{Size: 8, Align: 4}, n), 4, func() error {
		for i := n - 1; i >= 0; i-- {
			e := (*ArchivedString)(unsafe.Pointer(&c.buf[entTarget+8*i]))
			if err := e.CheckBytes(c); err != nil {
				return err
			}
		}
		return nil
	})
}
