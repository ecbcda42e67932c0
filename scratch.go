package archive

// Scratch is a stack-disciplined temporary arena used during serialization.
// Container serializers use it to stage child resolvers and emplacement
// windows before resolving their headers; its contents never reach the
// output buffer.
//
// Alloc and Free must pair in LIFO order. A bounded arena (NewScratch with
// limit > 0) grows up to limit bytes and fails with ErrScratchExhausted when
// an Alloc would take it past that.
type Scratch struct {
	buf   []byte
	marks []int
	limit int

	resolvers []Resolver
	resMarks  []int
}

// NewScratch creates an arena with the given initial capacity. limit bounds
// total byte capacity; zero means unbounded.
func NewScratch(capacity, limit int) *Scratch {
	s := newScratch(capacity)
	s.limit = limit
	return s
}

func newScratch(capacity int) *Scratch {
	return &Scratch{buf: make([]byte, 0, capacity)}
}

// Alloc returns a zeroed scratch region of n bytes. A later Alloc may grow
// the arena and invalidate earlier regions; callers hold at most the most
// recent allocation, which the serialize/resolve protocol guarantees (all
// children finish before a parent reserves its window).
func (s *Scratch) Alloc(n int) ([]byte, error) {
	top := len(s.buf)
	if s.limit > 0 && top+n > s.limit {
		return nil, ErrScratchExhausted
	}
	if top+n > cap(s.buf) {
		grown := make([]byte, top, 2*cap(s.buf)+n)
		copy(grown, s.buf)
		s.buf = grown
	}
	s.buf = s.buf[:top+n]
	region := s.buf[top : top+n]
	clear(region)
	s.marks = append(s.marks, top)
	return region, nil
}

// Free releases the most recent allocation. n must be the size passed to the
// matching Alloc.
func (s *Scratch) Free(n int) error {
	if len(s.marks) == 0 {
		return ErrScratchMisuse
	}
	top := s.marks[len(s.marks)-1]
	if len(s.buf)-top != n {
		return ErrScratchMisuse
	}
	s.marks = s.marks[:len(s.marks)-1]
	s.buf = s.buf[:top]
	return nil
}

// AllocResolvers reserves a stack region for staging n child resolvers and
// returns its mark. Sequence serializers fill it during their children's
// serialize steps and consume it while emplacing the element array. The
// region is addressed through the mark rather than a slice because nested
// reservations may grow the backing store.
func (s *Scratch) AllocResolvers(n int) int {
	top := len(s.resolvers)
	for i := 0; i < n; i++ {
		s.resolvers = append(s.resolvers, nil)
	}
	s.resMarks = append(s.resMarks, top)
	return top
}

// SetResolver stores a staged resolver at index i; callers pass mark+k for
// the k-th slot of a region.
func (s *Scratch) SetResolver(i int, r Resolver) { s.resolvers[i] = r }

// Resolver returns the staged resolver at index i (mark+k, as above).
func (s *Scratch) Resolver(i int) Resolver { return s.resolvers[i] }

// FreeResolvers releases the most recent AllocResolvers region, which must
// be the one at mark.
func (s *Scratch) FreeResolvers(mark int) error {
	if len(s.resMarks) == 0 || s.resMarks[len(s.resMarks)-1] != mark {
		return ErrScratchMisuse
	}
	s.resMarks = s.resMarks[:len(s.resMarks)-1]
	for i := mark; i < len(s.resolvers); i++ {
		s.resolvers[i] = nil
	}
	s.resolvers = s.resolvers[:mark]
	return nil
}

// reset clears all allocations, retaining storage, before the arena returns
// to the pool.
func (s *Scratch) reset() {
	s.buf = s.buf[:0]
	s.marks = s.marks[:0]
	for i := range s.resolvers {
		s.resolvers[i] = nil
	}
	s.resolvers = s.resolvers[:0]
	s.resMarks = s.resMarks[:0]
}
