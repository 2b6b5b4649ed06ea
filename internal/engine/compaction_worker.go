package engine

import (
	"path/filepath"
	"time"

	"github.com/iamNilotpal/lsmkv/internal/compaction"
	"github.com/iamNilotpal/lsmkv/internal/segment"
	"github.com/iamNilotpal/lsmkv/pkg/filesys"
	"github.com/iamNilotpal/lsmkv/pkg/idfile"
)

// compactionLoop is the compaction worker described by spec.md §4.5: every
// poll_period tick, if at least merge_period has elapsed since the last
// cycle and at least two segments exist, it runs one merge cycle.
func (e *Engine) compactionLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.options.PollPeriod)
	defer ticker.Stop()

	lastMerge := time.Now()
	for {
		select {
		case <-e.exitCh:
			return
		case <-ticker.C:
			if time.Since(lastMerge) < e.options.MergePeriod {
				continue
			}
			if e.segments.Len() < 2 {
				continue
			}
			if err := e.runCompactionCycle(); err != nil {
				e.log.Errorw("compaction cycle failed, segment set left unchanged, will retry next cycle", "error", err)
			}
			lastMerge = time.Now()
		}
	}
}

// runCompactionCycle merges every segment present at the start of the cycle
// into one new segment, installs it, and unlinks the segments it superseded.
// Any segment installed concurrently by the flush worker during the merge is
// left untouched, since only the ids captured by the initial snapshot are
// ever removed.
func (e *Engine) runCompactionCycle() error {
	segs := e.segments.Snapshot()
	if len(segs) < 2 {
		return nil
	}

	newID := e.segments.AllocateID()
	tmpPath := filepath.Join(e.options.DataDir, idfile.GenerateName(newID, tmpSuffix))
	finalPath := filepath.Join(e.options.DataDir, idfile.GenerateName(newID, e.options.DataSuffix))

	if err := compaction.Merge(tmpPath, segs); err != nil {
		filesys.DeleteFile(tmpPath)
		return err
	}

	seg, err := segment.Open(tmpPath, newID)
	if err != nil {
		filesys.DeleteFile(tmpPath)
		return err
	}
	if err := seg.BuildIndex(int64(e.options.BlockSize)); err != nil {
		seg.Remove()
		return err
	}
	if err := seg.MoveTo(finalPath); err != nil {
		seg.Remove()
		return err
	}

	e.segments.Install(seg)
	for _, old := range segs {
		removed, ok := e.segments.Remove(old.ID())
		if !ok {
			continue
		}
		if err := removed.Remove(); err != nil {
			e.log.Warnw("compaction: failed to unlink superseded segment file", "segmentId", old.ID(), "error", err)
		}
	}

	e.log.Infow("compaction completed", "newSegmentId", newID, "mergedSegments", len(segs))
	return nil
}
