package memtable

import (
	"os"
	"sync"

	"github.com/benbjohnson/immutable"
	"go.uber.org/zap"
)

// Config carries the construction-time dependencies for a Memtable, mirroring
// the teacher's Config-struct-per-subsystem convention.
type Config struct {
	// Dir is the data directory holding the write-ahead log files.
	Dir string

	// LogSuffix is the filename suffix for log files: "<id>.<LogSuffix>".
	LogSuffix string

	// SwitchThreshold is the active_bytes threshold (spec.md §4.2's
	// switch_threshold) above which Set triggers a switch to frozen.
	SwitchThreshold uint64

	Logger *zap.SugaredLogger
}

// FrozenTree is a snapshot of a memtable's frozen tier, handed to the flush
// worker. LogID identifies the on-disk log file that mirrors Tree and must be
// deleted once the corresponding segment is durably in place.
type FrozenTree struct {
	Tree  *immutable.SortedMap[string, []byte]
	LogID uint64
}

// Memtable is the in-memory write buffer described by spec.md §3/§4.2: two
// sorted trees (active, optionally frozen) plus the append-only log file that
// mirrors active.
type Memtable struct {
	mu sync.RWMutex

	dir             string
	logSuffix       string
	switchThreshold uint64
	log             *zap.SugaredLogger

	active      *immutable.SortedMap[string, []byte]
	activeBytes uint64
	activeLogID uint64
	activeFile  *os.File

	hasFrozen   bool
	frozen      *immutable.SortedMap[string, []byte]
	frozenLogID uint64
}
