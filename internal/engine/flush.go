package engine

import (
	"time"

	"github.com/iamNilotpal/lsmkv/internal/memtable"
)

// flushLoop is the flush worker described by spec.md §4.5: it blocks until a
// frozen tree is signaled, then drives it to completion, retrying on a
// poll_period cadence if a step before the segment rename fails.
func (e *Engine) flushLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.exitCh:
			return
		case frozen := <-e.flushCh:
			e.flushWithRetry(frozen)
		}
	}
}

// flushWithRetry keeps attempting to flush the same frozen tree until it
// succeeds or the engine is shutting down. Only failures that occur before
// the new segment is renamed into place are retried here — spec.md §4.5
// treats a failure after rename but before FinalizeSwitch as an acceptable,
// recoverable state, not a reason to redo the write.
func (e *Engine) flushWithRetry(frozen *memtable.FrozenTree) {
	for {
		if err := e.flushOnce(frozen); err != nil {
			e.log.Errorw("flush cycle failed, will retry", "frozenLogId", frozen.LogID, "error", err)
			select {
			case <-e.exitCh:
				return
			case <-time.After(e.options.PollPeriod):
				continue
			}
		}
		return
	}
}

// flushOnce performs one flush attempt: write the frozen tree to a new
// segment, index it, rename it into place, install it into the segment set,
// then finalize the switch so the memtable deletes the corresponding log
// file. The segment is installed before the frozen tree is cleared so a
// concurrent Get always has somewhere to find the key — per spec.md §5, the
// handoff must never leave a key visible in neither tier.
func (e *Engine) flushOnce(frozen *memtable.FrozenTree) error {
	seg, err := e.writeSegmentFromTree(frozen.Tree)
	if err != nil {
		return err
	}

	e.segments.Install(seg)

	if err := e.memtable.FinalizeSwitch(); err != nil {
		// The segment is already durably renamed into place and installed;
		// the stale log file just won't be cleaned up until the next open
		// recovers it.
		e.log.Warnw("flush: segment installed but finalize failed; stale log will be reconciled on next open", "error", err)
	}

	e.log.Infow("flush completed", "segmentId", seg.ID(), "frozenLogId", frozen.LogID)
	return nil
}
