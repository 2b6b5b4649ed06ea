package segment

import (
	"os"
	"sync"

	"github.com/tysonmote/gommap"
)

// indexEntry is one sparse index entry: the first key of a block mapped to
// the block's starting byte offset, per spec.md §4.3's index algorithm.
type indexEntry struct {
	key    string
	offset int64
}

// Segment is an immutable, on-disk, sorted sequence of (key, value) records
// plus an in-memory sparse index, per spec.md §3/§4.3. Once renamed into
// place by the flush or compaction pipeline, a segment's bytes never change
// again, which is what makes a read-only mmap of the whole file safe to hold
// for the segment's lifetime.
type Segment struct {
	mu sync.RWMutex

	id   uint64
	path string

	file    *os.File
	mapped  gommap.MMap
	size    int64
	indexed bool
	index   []indexEntry
}

// ID returns the segment's identifier.
func (s *Segment) ID() uint64 {
	return s.id
}

// Path returns the segment's current on-disk path.
func (s *Segment) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}
