// Package memtable implements spec.md §4.2: the two-tier active/frozen write
// buffer, its crash-recovery log replay, and the switch protocol that hands a
// frozen tree off to the flush worker.
package memtable

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/benbjohnson/immutable"

	"github.com/iamNilotpal/lsmkv/internal/codec"
	lsmerrors "github.com/iamNilotpal/lsmkv/pkg/errors"
	"github.com/iamNilotpal/lsmkv/pkg/filesys"
	"github.com/iamNilotpal/lsmkv/pkg/idfile"
)

// Open recovers a Memtable from the log files found in dir, following
// spec.md §4.2's construction protocol: the newest log becomes active (replay
// truncates at the first bad record and the file is reopened at that exact
// offset); the second-newest, if any, is wholly replayed into frozen and
// returned so the caller can schedule an immediate flush; anything older is
// deleted unconditionally.
func Open(cfg Config) (*Memtable, *FrozenTree, error) {
	ids, paths, err := idfile.List(cfg.Dir, cfg.LogSuffix, lsmerrors.ErrorCodeParseLogID)
	if err != nil {
		return nil, nil, err
	}

	mt := &Memtable{
		dir:             cfg.Dir,
		logSuffix:       cfg.LogSuffix,
		switchThreshold: cfg.SwitchThreshold,
		log:             cfg.Logger,
		active:          &immutable.SortedMap[string, []byte]{},
	}

	if len(ids) == 0 {
		mt.activeLogID = 1
		path := filepath.Join(cfg.Dir, idfile.GenerateName(1, cfg.LogSuffix))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, lsmerrors.ClassifyFileOpenError(err, path, 1)
		}
		mt.activeFile = f
		mt.log.Infow("memtable opened with no existing logs", "activeLogId", 1)
		return mt, nil, nil
	}

	newest := len(ids) - 1
	newestID, newestPath := ids[newest], paths[newest]

	tree, bytesUsed, nextPos, err := replayLog(newestPath)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(newestPath, os.O_RDWR, 0644)
	if err != nil {
		return nil, nil, lsmerrors.ClassifyFileOpenError(err, newestPath, newestID)
	}
	if err := f.Truncate(nextPos); err != nil {
		f.Close()
		return nil, nil, lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeRecoveryFailed, "failed to truncate active log to last good record").
			WithPath(newestPath).WithID(newestID).WithOffset(nextPos)
	}
	if _, err := f.Seek(nextPos, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeRecoveryFailed, "failed to seek active log to last good record").
			WithPath(newestPath).WithID(newestID).WithOffset(nextPos)
	}

	mt.active = tree
	mt.activeBytes = bytesUsed
	mt.activeLogID = newestID
	mt.activeFile = f
	mt.log.Infow("recovered active log", "activeLogId", newestID, "recoveredBytes", bytesUsed, "truncatedTo", nextPos)

	var result *FrozenTree
	if newest >= 1 {
		second := newest - 1
		secondID, secondPath := ids[second], paths[second]

		frozenTree, _, _, err := replayLog(secondPath)
		if err != nil {
			f.Close()
			return nil, nil, err
		}

		mt.frozen = frozenTree
		mt.hasFrozen = true
		mt.frozenLogID = secondID
		result = &FrozenTree{Tree: frozenTree, LogID: secondID}
		mt.log.Infow("recovered frozen log, flush will be scheduled", "frozenLogId", secondID)

		for i := 0; i < second; i++ {
			if err := filesys.DeleteFile(paths[i]); err != nil {
				mt.log.Warnw("failed to remove stale log during recovery", "path", paths[i], "error", err)
			}
		}
	}

	return mt, result, nil
}

// Get looks up key first in active, then frozen, matching spec.md §4.2's
// "active first, frozen on miss" lookup order. It holds only a shared lock.
// The returned slice is a copy, not the one held by the tree, so a caller is
// free to mutate it without racing a concurrent reader or corrupting the
// stored value — the same contract segment.Get gives its callers.
func (m *Memtable) Get(key []byte) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k := string(key)
	if v, ok := m.active.Get(k); ok {
		return append([]byte(nil), v...), true
	}
	if m.hasFrozen {
		if v, ok := m.frozen.Get(k); ok {
			return append([]byte(nil), v...), true
		}
	}
	return nil, false
}

// Set appends the record to the active log, fsyncs it, then inserts into the
// active tree and attempts a switch to frozen if the threshold is crossed.
// Per spec.md §4.2, the in-memory mutation never happens unless the log
// append+sync succeeded first.
func (m *Memtable) Set(key, value []byte) (*FrozenTree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.appendLogLocked(key, value); err != nil {
		return nil, err
	}
	m.insertLocked(key, value)
	return m.trySwitchLocked()
}

// ForceSwitch performs the switch to frozen even below the byte threshold.
// If a frozen tree already exists, it does nothing and returns nil, nil.
// Exposed for callers (and tests) that need to force a flush cycle without
// waiting for the threshold to be crossed.
func (m *Memtable) ForceSwitch() (*FrozenTree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasFrozen {
		return nil, nil
	}
	return m.forceSwitchLocked()
}

// FinalizeSwitch is invoked by the Store after a successful flush: it drops
// the in-memory frozen tree and deletes its corresponding log file.
func (m *Memtable) FinalizeSwitch() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasFrozen {
		return nil
	}

	logID := m.frozenLogID
	path := filepath.Join(m.dir, idfile.GenerateName(logID, m.logSuffix))

	m.frozen = nil
	m.hasFrozen = false
	m.frozenLogID = 0

	if err := filesys.DeleteFile(path); err != nil {
		return lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeIO, "failed to delete finalized frozen log").
			WithPath(path).WithID(logID)
	}
	return nil
}

// DrainActiveAsFrozen moves the active tree out as if it had been frozen,
// without installing a new active tree. It is used only during shutdown,
// when frozen is already empty, per spec.md §4.5's shutdown step 2. A nil
// result (with no error) means active was empty and there is nothing to
// drain.
func (m *Memtable) DrainActiveAsFrozen() (*FrozenTree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasFrozen {
		return nil, lsmerrors.NewBaseError(nil, lsmerrors.ErrorCodeInternal, "cannot drain active while a frozen tree already exists")
	}
	if m.active.Len() == 0 {
		return nil, nil
	}
	return &FrozenTree{Tree: m.active, LogID: m.activeLogID}, nil
}

// RemoveActiveLogIfEmpty unlinks the active log file if the active tree holds
// no entries, per spec.md §4.5's shutdown step 3.
func (m *Memtable) RemoveActiveLogIfEmpty() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active.Len() != 0 {
		return nil
	}
	return m.removeActiveLogLocked()
}

// Close releases the active log file handle without deleting anything.
func (m *Memtable) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeFile == nil {
		return nil
	}
	err := m.activeFile.Close()
	m.activeFile = nil
	return err
}

func (m *Memtable) removeActiveLogLocked() error {
	logID := m.activeLogID
	path := filepath.Join(m.dir, idfile.GenerateName(logID, m.logSuffix))
	if m.activeFile != nil {
		_ = m.activeFile.Close()
		m.activeFile = nil
	}
	if err := filesys.DeleteFile(path); err != nil {
		return lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeIO, "failed to delete empty active log").
			WithPath(path).WithID(logID)
	}
	return nil
}

func (m *Memtable) trySwitchLocked() (*FrozenTree, error) {
	if m.activeBytes > m.switchThreshold && !m.hasFrozen {
		return m.forceSwitchLocked()
	}
	return nil, nil
}

func (m *Memtable) forceSwitchLocked() (*FrozenTree, error) {
	newLogID := m.activeLogID + 1
	newPath := filepath.Join(m.dir, idfile.GenerateName(newLogID, m.logSuffix))

	f, err := os.OpenFile(newPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, lsmerrors.ClassifyFileOpenError(err, newPath, newLogID)
	}

	frozenTree := m.active
	frozenLogID := m.activeLogID
	oldFile := m.activeFile

	m.frozen = frozenTree
	m.hasFrozen = true
	m.frozenLogID = frozenLogID

	m.active = &immutable.SortedMap[string, []byte]{}
	m.activeBytes = 0
	m.activeLogID = newLogID
	m.activeFile = f

	if oldFile != nil {
		_ = oldFile.Close()
	}

	m.log.Infow("switched active to frozen", "frozenLogId", frozenLogID, "newActiveLogId", newLogID)
	return &FrozenTree{Tree: frozenTree, LogID: frozenLogID}, nil
}

func (m *Memtable) appendLogLocked(key, value []byte) error {
	line := codec.EncodeLogLine(key, value)
	if _, err := m.activeFile.Write(line); err != nil {
		return lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeWriteLog, "failed to append log record").
			WithID(m.activeLogID)
	}
	if err := m.activeFile.Sync(); err != nil {
		path := filepath.Join(m.dir, idfile.GenerateName(m.activeLogID, m.logSuffix))
		return lsmerrors.ClassifySyncError(err, path, m.activeLogID, int64(m.activeBytes))
	}
	return nil
}

func (m *Memtable) insertLocked(key, value []byte) {
	k := string(key)
	old, existed := m.active.Get(k)
	m.active = m.active.Set(k, value)
	m.activeBytes += uint64(len(key) + len(value))
	if existed {
		m.activeBytes -= uint64(len(old))
	}
}

// replayLog decodes every valid record in path in order, building a sorted
// tree and tracking the byte offset just past the last good record. It stops
// — without error — at the first record that fails to decode, per spec.md
// §4.1/§4.2's lenient recovery contract.
func replayLog(path string) (*immutable.SortedMap[string, []byte], uint64, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, lsmerrors.ClassifyFileOpenError(err, path, 0)
	}
	defer f.Close()

	tree := &immutable.SortedMap[string, []byte]{}
	var bytesUsed uint64
	var pos int64

	r := bufio.NewReader(f)
	for {
		line, complete, err := codec.ReadLine(r)
		if err != nil {
			return nil, 0, 0, lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeIO, "failed to read log during recovery").
				WithPath(path).WithOffset(pos)
		}
		if !complete {
			break
		}

		key, value, ok := codec.DecodeLogLine(bytes.TrimSuffix(line, []byte("\n")))
		if !ok {
			break
		}

		k := string(key)
		old, existed := tree.Get(k)
		tree = tree.Set(k, value)
		bytesUsed += uint64(len(key) + len(value))
		if existed {
			bytesUsed -= uint64(len(old))
		}
		pos += int64(len(line))
	}

	return tree, bytesUsed, pos, nil
}
