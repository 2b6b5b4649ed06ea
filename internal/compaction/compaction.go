// Package compaction implements spec.md §4.5's merge protocol: a k-way merge
// of segment readers into one ascending, duplicate-free stream, with
// last-writer-wins reconciliation on ties. container/heap is stdlib because
// no k-way-merge-of-sorted-iterators library appears anywhere in the example
// pack — it is the standard idiomatic Go primitive for exactly this shape,
// the same role a BinaryHeap plays in the Rust original this spec was
// distilled from.
package compaction

import (
	"bytes"
	"container/heap"

	"github.com/iamNilotpal/lsmkv/internal/segment"
	lsmerrors "github.com/iamNilotpal/lsmkv/pkg/errors"
)

type item struct {
	key, value []byte
	segID      uint64
	reader     *segment.Reader
}

type itemHeap []*item

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return bytes.Compare(h[i].key, h[j].key) < 0 }
func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x any)         { *h = append(*h, x.(*item)) }
func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Merge reads every segment in segs to completion, selecting at each step the
// smallest current key across all readers. When multiple readers expose the
// same key, the record from the segment with the largest id wins; every
// other reader tied on that key still advances past it without emitting.
// Exactly one (key, value) pair is written per distinct key, in ascending
// order, to path.
//
// segs need not be in any particular order; each segment's own id is what
// decides tie-breaking, not its position in segs.
func Merge(path string, segs []*segment.Segment) error {
	h := &itemHeap{}
	heap.Init(h)

	sourceIDs := make([]uint64, len(segs))
	for i, seg := range segs {
		sourceIDs[i] = seg.ID()
		r := seg.Reader()
		k, v, ok, err := r.Next()
		if err != nil {
			return lsmerrors.NewCompactionError(err, lsmerrors.ErrorCodeMergeAborted, "failed to read first record from source segment").
				WithSourceIDs(sourceIDs)
		}
		if ok {
			heap.Push(h, &item{key: k, value: v, segID: seg.ID(), reader: r})
		}
	}

	err := segment.WriteSorted(path, func() ([]byte, []byte, bool, error) {
		if h.Len() == 0 {
			return nil, nil, false, nil
		}

		minKey := (*h)[0].key
		var tied []*item
		for h.Len() > 0 && bytes.Equal((*h)[0].key, minKey) {
			tied = append(tied, heap.Pop(h).(*item))
		}

		winner := tied[0]
		for _, it := range tied[1:] {
			if it.segID > winner.segID {
				winner = it
			}
		}

		for _, it := range tied {
			k, v, ok, rerr := it.reader.Next()
			if rerr != nil {
				err := lsmerrors.NewCompactionError(rerr, lsmerrors.ErrorCodeMergeAborted, "failed to read next record from source segment").
					WithSourceIDs(sourceIDs)
				return nil, nil, false, err
			}
			if ok {
				heap.Push(h, &item{key: k, value: v, segID: it.segID, reader: it.reader})
			}
		}

		return winner.key, winner.value, true, nil
	})
	if err != nil {
		return err
	}
	return nil
}
