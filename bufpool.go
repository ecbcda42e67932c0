package archive

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// scratchPool recycles scratch arenas across serialization sessions. An
// arena is never held across a suspension of its session; it returns to the
// pool when the session finishes.
var scratchPool = sync.Pool{
	New: func() any {
		return newScratch(BUFFER_SIZE)
	},
}

// digestPool recycles seeded hash states for archived map and set lookups,
// avoiding an allocation per probe.
var digestPool = sync.Pool{
	New: func() any {
		return xxhash.New()
	},
}
