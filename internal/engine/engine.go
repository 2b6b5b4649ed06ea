// Package engine implements spec.md §4.5: the Store's coordinator, wiring the
// Memtable and Segment Set together with the background flush and compaction
// workers and the open/close lifecycle.
package engine

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/benbjohnson/immutable"

	"github.com/iamNilotpal/lsmkv/internal/memtable"
	"github.com/iamNilotpal/lsmkv/internal/segment"
	"github.com/iamNilotpal/lsmkv/internal/segmentset"
	lsmerrors "github.com/iamNilotpal/lsmkv/pkg/errors"
	"github.com/iamNilotpal/lsmkv/pkg/filesys"
	"github.com/iamNilotpal/lsmkv/pkg/idfile"
)

// ErrEngineClosed is returned by Close/ForceClose when the engine has already
// been closed once.
var ErrEngineClosed = errors.New("operation failed: cannot access closed engine")

// New opens the data directory (creating it if necessary), claims its LOCK
// file to enforce spec.md §5's single-writer rule, recovers the memtable
// from its write-ahead logs, loads every existing segment file into the
// segment set, and starts the flush and compaction workers. ctx is only
// consulted during this one-time startup scan; once New returns, the workers
// run independently of ctx until Close or ForceClose.
func New(ctx context.Context, config *Config) (*Engine, error) {
	opts := config.Options
	log := config.Logger

	if err := filesys.CreateDir(opts.DataDir, 0755, true); err != nil {
		return nil, lsmerrors.ClassifyDirectoryCreationError(err, opts.DataDir)
	}

	lockPath, err := acquireLock(opts.DataDir)
	if err != nil {
		return nil, err
	}

	mt, recoveredFrozen, err := memtable.Open(memtable.Config{
		Dir:             opts.DataDir,
		LogSuffix:       opts.LogSuffix,
		SwitchThreshold: opts.SwitchMemSize,
		Logger:          log,
	})
	if err != nil {
		filesys.DeleteFile(lockPath)
		return nil, err
	}

	segIDs, segPaths, err := idfile.List(opts.DataDir, opts.DataSuffix, lsmerrors.ErrorCodeParseSegmentID)
	if err != nil {
		mt.Close()
		filesys.DeleteFile(lockPath)
		return nil, err
	}

	// segIDs is already ascending (idfile.List sorts it), so the last entry
	// is the highest id on disk.
	var maxID uint64
	if n := len(segIDs); n > 0 {
		maxID = segIDs[n-1]
	}

	set := segmentset.New(maxID)
	for i, id := range segIDs {
		if err := ctx.Err(); err != nil {
			mt.Close()
			filesys.DeleteFile(lockPath)
			return nil, err
		}

		seg, err := segment.Open(segPaths[i], id)
		if err != nil {
			mt.Close()
			filesys.DeleteFile(lockPath)
			return nil, err
		}
		if err := seg.BuildIndex(int64(opts.BlockSize)); err != nil {
			mt.Close()
			filesys.DeleteFile(lockPath)
			return nil, err
		}
		set.Install(seg)
	}

	e := &Engine{
		options:  opts,
		log:      log,
		memtable: mt,
		segments: set,
		lockPath: lockPath,
		exitCh:   make(chan struct{}),
		flushCh:  make(chan *memtable.FrozenTree, 1),
	}

	e.wg.Add(2)
	go e.flushLoop()
	go e.compactionLoop()

	if recoveredFrozen != nil {
		e.signalFlush(recoveredFrozen)
	}

	log.Infow("engine opened", "dataDir", opts.DataDir, "recoveredSegments", set.Len())
	return e, nil
}

// Get looks up key, checking the memtable (active, then frozen) before
// falling back to the segment set in descending-id (newest-first) order, per
// spec.md §4.5's overall read path.
func (e *Engine) Get(key []byte) ([]byte, bool, error) {
	if v, ok := e.memtable.Get(key); ok {
		return v, true, nil
	}

	for _, seg := range e.segments.Snapshot() {
		v, ok, err := seg.Get(key)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return nil, false, nil
}

// Set appends key/value to the memtable's write-ahead log and inserts it in
// memory. If the insert crosses the switch threshold, the resulting frozen
// tree is handed to the flush worker.
func (e *Engine) Set(key, value []byte) error {
	frozen, err := e.memtable.Set(key, value)
	if err != nil {
		return err
	}
	if frozen != nil {
		e.signalFlush(frozen)
	}
	return nil
}

// Close stops the background workers, waits for them to finish, drains
// whatever remains in the active memtable, and flushes it synchronously
// before returning, per spec.md §4.5's shutdown protocol.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	close(e.exitCh)
	e.wg.Wait()

	frozen, drainErr := e.memtable.DrainActiveAsFrozen()
	switch {
	case drainErr != nil:
		// A frozen tree was still pending flush when the workers stopped.
		// Its log file is untouched on disk, so it will be recovered and
		// re-queued the next time this data directory is opened.
		e.log.Warnw("shutdown: a frozen tree was still pending flush; it will be recovered on next open", "error", drainErr)
	case frozen != nil:
		seg, err := e.writeSegmentFromTree(frozen.Tree)
		if err != nil {
			e.log.Errorw("shutdown: failed to flush final active tree; it will be recovered on next open", "error", err)
			break
		}
		e.segments.Install(seg)
		logPath := filepath.Join(e.options.DataDir, idfile.GenerateName(frozen.LogID, e.options.LogSuffix))
		if err := filesys.DeleteFile(logPath); err != nil {
			e.log.Warnw("shutdown: failed to remove drained active log", "path", logPath, "error", err)
		}
	default:
		if err := e.memtable.RemoveActiveLogIfEmpty(); err != nil {
			e.log.Warnw("shutdown: failed to remove empty active log", "error", err)
		}
	}

	e.releaseLock()
	return e.memtable.Close()
}

// ForceClose signals the background workers to stop and returns immediately,
// without waiting for them or flushing any pending tree. Everything not yet
// flushed remains safely recorded in its write-ahead log and is recovered on
// the next New. Use this when Close's synchronous final flush is not
// acceptable (e.g. a caller that must not block).
func (e *Engine) ForceClose() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}
	close(e.exitCh)
	e.releaseLock()
	return nil
}

// signalFlush hands frozen to the flush worker. The channel is buffered to
// one slot; the memtable never produces a second frozen tree while one is
// already pending, so this send does not block in practice. The non-blocking
// form guards against the pathological case of a flush being retried slower
// than new switches could in principle arrive.
func (e *Engine) signalFlush(frozen *memtable.FrozenTree) {
	select {
	case e.flushCh <- frozen:
	default:
		e.log.Warnw("flush worker already has a pending signal, dropping duplicate", "frozenLogId", frozen.LogID)
	}
}

// writeSegmentFromTree writes tree's entries to a new segment file in
// ascending key order, builds its sparse index, and renames it into place.
// It allocates the segment's id but does not install it into the segment set
// or touch the memtable — callers differ in what bookkeeping follows.
func (e *Engine) writeSegmentFromTree(tree *immutable.SortedMap[string, []byte]) (*segment.Segment, error) {
	sid := e.segments.AllocateID()
	tmpPath := filepath.Join(e.options.DataDir, idfile.GenerateName(sid, tmpSuffix))
	finalPath := filepath.Join(e.options.DataDir, idfile.GenerateName(sid, e.options.DataSuffix))

	itr := tree.Iterator()
	writeErr := segment.WriteSorted(tmpPath, func() ([]byte, []byte, bool, error) {
		if itr.Done() {
			return nil, nil, false, nil
		}
		k, v, _ := itr.Next()
		return []byte(k), v, true, nil
	})
	if writeErr != nil {
		filesys.DeleteFile(tmpPath)
		return nil, writeErr
	}

	seg, err := segment.Open(tmpPath, sid)
	if err != nil {
		filesys.DeleteFile(tmpPath)
		return nil, err
	}
	if err := seg.BuildIndex(int64(e.options.BlockSize)); err != nil {
		seg.Remove()
		return nil, err
	}
	if err := seg.MoveTo(finalPath); err != nil {
		seg.Remove()
		return nil, err
	}
	return seg, nil
}
