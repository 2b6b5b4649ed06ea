// Package segment implements spec.md §4.3: an immutable on-disk sorted
// sequence of (key, value) records, its sparse in-memory block index, and
// point lookup against a read-only mmap of the file.
package segment

import (
	"bufio"
	"bytes"
	"os"
	"sort"

	"github.com/tysonmote/gommap"

	"github.com/iamNilotpal/lsmkv/internal/codec"
	lsmerrors "github.com/iamNilotpal/lsmkv/pkg/errors"
)

// Open creates a handle over an existing segment file without reading its
// contents, per spec.md §4.3's "open(path) creates the handle without
// reading" contract. Call BuildIndex to populate the sparse index before
// relying on Get's sparse-index fast path (Get works even without an index —
// it degrades to a scan from offset 0, still stopping on key overshoot).
func Open(path string, id uint64) (*Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, lsmerrors.ClassifyFileOpenError(err, path, id)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeIO, "failed to stat segment file").
			WithPath(path).WithID(id)
	}

	size := stat.Size()
	var mapped gommap.MMap
	if size > 0 {
		mapped, err = gommap.Map(f.Fd(), gommap.PROT_READ, gommap.MAP_SHARED)
		if err != nil {
			f.Close()
			return nil, lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeIO, "failed to mmap segment file").
				WithPath(path).WithID(id)
		}
	}

	return &Segment{id: id, path: path, file: f, mapped: mapped, size: size}, nil
}

// BuildIndex scans the segment once, populating its sparse index: for each
// block of at least blockSize bytes, the first key after the block boundary
// maps to its starting byte offset. The implicit "offset 0" entry is never
// stored explicitly — a lookup with no preceding index entry simply starts
// its scan at offset 0.
func (s *Segment) BuildIndex(blockSize int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastBlockOffset int64
	var offset int64
	var idx []indexEntry

	for offset < s.size {
		line, next, err := s.lineAtLocked(offset)
		if err != nil {
			return err
		}
		key, _, ok := codec.DecodeSegmentLine(line)
		if !ok {
			return lsmerrors.NewStorageError(nil, lsmerrors.ErrorCodeSegmentCorrupted, "segment record failed to decode while building index").
				WithPath(s.path).WithID(s.id).WithOffset(offset)
		}

		if offset-lastBlockOffset >= blockSize {
			idx = append(idx, indexEntry{key: string(key), offset: offset})
			lastBlockOffset = offset
		}

		offset = next
	}

	s.index = idx
	s.indexed = true
	return nil
}

// Get returns the value for key, if present. It uses the sparse index (if
// built) to pick the greatest indexed key ≤ key as the scan's starting
// offset, then scans forward, stopping early as soon as it decodes a key
// strictly greater than the lookup key — spec.md §9's SHOULD-have early
// termination on overshoot.
func (s *Segment) Get(key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offset := s.floorOffsetLocked(key)
	for offset < s.size {
		line, next, err := s.lineAtLocked(offset)
		if err != nil {
			return nil, false, err
		}
		k, v, ok := codec.DecodeSegmentLine(line)
		if !ok {
			return nil, false, lsmerrors.NewStorageError(nil, lsmerrors.ErrorCodeSegmentCorrupted, "segment record failed to decode during lookup").
				WithPath(s.path).WithID(s.id).WithOffset(offset)
		}

		switch bytes.Compare(k, key) {
		case 0:
			return append([]byte(nil), v...), true, nil
		case 1:
			return nil, false, nil
		}

		offset = next
	}
	return nil, false, nil
}

func (s *Segment) floorOffsetLocked(key []byte) int64 {
	if len(s.index) == 0 {
		return 0
	}
	i := sort.Search(len(s.index), func(i int) bool {
		return s.index[i].key > string(key)
	})
	if i == 0 {
		return 0
	}
	return s.index[i-1].offset
}

// lineAtLocked returns the line starting at offset (without its trailing
// newline) and the offset of the next line. Callers must hold s.mu.
func (s *Segment) lineAtLocked(offset int64) (line []byte, next int64, err error) {
	nl := bytes.IndexByte(s.mapped[offset:], '\n')
	if nl == -1 {
		return nil, 0, lsmerrors.NewStorageError(nil, lsmerrors.ErrorCodeSegmentCorrupted, "segment ends mid-record").
			WithPath(s.path).WithID(s.id).WithOffset(offset)
	}
	return s.mapped[offset : offset+int64(nl)], offset + int64(nl) + 1, nil
}

// MoveTo atomically renames the underlying file and updates the segment's
// recorded path.
func (s *Segment) MoveTo(newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Rename(s.path, newPath); err != nil {
		return lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeIO, "failed to rename segment into place").
			WithPath(s.path).WithID(s.id)
	}
	s.path = newPath
	return nil
}

// Remove unmaps and closes the segment's file, then unlinks it.
func (s *Segment) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mapped != nil {
		if err := s.mapped.UnsafeUnmap(); err != nil {
			return lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeIO, "failed to unmap segment file").
				WithPath(s.path).WithID(s.id)
		}
		s.mapped = nil
	}
	if err := s.file.Close(); err != nil {
		return lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeIO, "failed to close segment file").
			WithPath(s.path).WithID(s.id)
	}
	return os.Remove(s.path)
}

// Reader returns a sequential iterator over the segment's records in
// ascending key order, starting at the beginning of the file. Used by
// compaction's k-way merge.
func (s *Segment) Reader() *Reader {
	return &Reader{seg: s}
}

// Reader sequentially decodes a segment's records.
type Reader struct {
	seg    *Segment
	offset int64
}

// Next returns the next (key, value) pair, or ok=false once the segment is
// exhausted.
func (r *Reader) Next() (key, value []byte, ok bool, err error) {
	r.seg.mu.RLock()
	defer r.seg.mu.RUnlock()

	if r.offset >= r.seg.size {
		return nil, nil, false, nil
	}

	line, next, err := r.seg.lineAtLocked(r.offset)
	if err != nil {
		return nil, nil, false, err
	}
	k, v, decOk := codec.DecodeSegmentLine(line)
	if !decOk {
		return nil, nil, false, lsmerrors.NewStorageError(nil, lsmerrors.ErrorCodeSegmentCorrupted, "segment record failed to decode during scan").
			WithPath(r.seg.path).WithID(r.seg.id).WithOffset(r.offset)
	}
	r.offset = next
	return k, v, true, nil
}

// WriteSorted writes a new segment file at path from an ascending, duplicate-
// free (key, value) stream, per spec.md §4.5's "write the frozen tree / merge
// output to a temp file in ascending key order" step. next must return
// ok=false to signal the end of the stream, or a non-nil err to abort (used
// by compaction when a source segment turns out to be corrupted mid-merge).
// The file is fsynced before return, since the caller renames it into place
// immediately afterward.
func WriteSorted(path string, next func() (key, value []byte, ok bool, err error)) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return lsmerrors.ClassifyFileOpenError(err, path, 0)
	}

	w := bufio.NewWriter(f)
	for {
		key, value, ok, err := next()
		if err != nil {
			f.Close()
			return err
		}
		if !ok {
			break
		}
		if _, err := w.Write(codec.EncodeSegmentLine(key, value)); err != nil {
			f.Close()
			return lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeIO, "failed to write segment record").WithPath(path)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeIO, "failed to flush segment writer").WithPath(path)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return lsmerrors.ClassifySyncError(err, path, 0, 0)
	}
	return f.Close()
}
