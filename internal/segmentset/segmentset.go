// Package segmentset implements spec.md §4.4: an ordered mapping from
// monotonic segment id to *segment.Segment, with a mutex-guarded id counter
// and a reader-writer lock around map swaps, grounded on dreamsxin-wal's
// immutable.SortedMap[uint64, segmentState] usage — same "swap a whole new
// persistent map under a short exclusive section" pattern, retargeted from
// WAL segment metadata to our Segment handles.
package segmentset

import (
	"sync"

	"github.com/benbjohnson/immutable"

	"github.com/iamNilotpal/lsmkv/internal/segment"
)

// Set is the Segment Set described by spec.md §3/§4.4.
type Set struct {
	idMu   sync.Mutex
	nextID uint64

	mu sync.RWMutex
	m  *immutable.SortedMap[uint64, *segment.Segment]
}

// New returns an empty set whose id counter starts just above startID (the
// highest segment id already found on disk at Open, or 0).
func New(startID uint64) *Set {
	return &Set{
		nextID: startID,
		m:      &immutable.SortedMap[uint64, *segment.Segment]{},
	}
}

// AllocateID returns a new strictly-increasing segment id, per spec.md §4.4.
func (s *Set) AllocateID() uint64 {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.nextID++
	return s.nextID
}

// Install inserts seg into the set under an exclusive section.
func (s *Set) Install(seg *segment.Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = s.m.Set(seg.ID(), seg)
}

// Remove removes and returns the segment with the given id, if present.
func (s *Set) Remove(id uint64) (*segment.Segment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seg, ok := s.m.Get(id)
	if !ok {
		return nil, false
	}
	s.m = s.m.Delete(id)
	return seg, true
}

// Get returns the segment with the given id, if present.
func (s *Set) Get(id uint64) (*segment.Segment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Get(id)
}

// Len returns the number of installed segments.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Len()
}

// Snapshot returns the currently installed segments in descending-id order —
// newest (and therefore highest-priority for reads) first — per spec.md
// §4.5's "iterate the segment set in descending id order" lookup contract.
// The read lock is held only long enough to collect the slice; the lock is
// released before the caller does any long scan over the segments
// themselves, per spec.md §4.4's concurrency policy.
func (s *Set) Snapshot() []*segment.Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	segs := make([]*segment.Segment, 0, s.m.Len())
	itr := s.m.Iterator()
	for !itr.Done() {
		_, seg, _ := itr.Next()
		segs = append(segs, seg)
	}

	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return segs
}
