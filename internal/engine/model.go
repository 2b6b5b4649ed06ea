package engine

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/iamNilotpal/lsmkv/internal/memtable"
	"github.com/iamNilotpal/lsmkv/internal/segmentset"
	"github.com/iamNilotpal/lsmkv/pkg/options"
)

// tmpSuffix is the filename suffix for in-progress flush/compaction output,
// per spec.md §6: "<id>.tmp".
const tmpSuffix = "tmp"

// lockFileName is the marker file New uses to enforce spec.md §5's single-
// writer rule: "No concurrent writers (a single writer is required by the
// write path)."
const lockFileName = "LOCK"

// Engine is the Store's coordinator (spec.md §4.5): it owns the Memtable and
// Segment Set, schedules the flush and compaction background workers, and
// answers Get/Set/Close. It is the direct descendant of the teacher's
// Engine — same two-phase New/Close, same atomic.Bool-guarded close, same
// subsystem-wiring shape — generalized from {index, storage,
// compaction-stub} to {memtable, segmentset} plus two concrete workers.
type Engine struct {
	options *options.Options
	log     *zap.SugaredLogger
	closed  atomic.Bool

	memtable *memtable.Memtable
	segments *segmentset.Set
	lockPath string

	exitCh  chan struct{}
	flushCh chan *memtable.FrozenTree
	wg      sync.WaitGroup
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}
