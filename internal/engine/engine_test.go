package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lsmkv/pkg/logger"
	"github.com/iamNilotpal/lsmkv/pkg/options"
)

func testOptions(t *testing.T) *options.Options {
	t.Helper()
	o := options.NewDefaultOptions()
	o.DataDir = t.TempDir()
	o.PollPeriod = 10 * time.Millisecond
	o.MergePeriod = time.Hour
	return &o
}

func openEngine(t *testing.T, o *options.Options) *Engine {
	t.Helper()
	e, err := New(context.Background(), &Config{Options: o, Logger: logger.Noop()})
	require.NoError(t, err)
	return e
}

// Scenario 1: basic put/get.
func TestBasicPutGet(t *testing.T) {
	o := testOptions(t)
	e := openEngine(t, o)
	defer e.Close()

	require.NoError(t, e.Set([]byte("hello"), []byte("world")))

	v, ok, err := e.Get([]byte("hello"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("world"), v)

	_, ok, err = e.Get([]byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

// Scenario 2: overwrite / last-writer-wins (P2).
func TestOverwrite(t *testing.T) {
	o := testOptions(t)
	e := openEngine(t, o)
	defer e.Close()

	require.NoError(t, e.Set([]byte("k"), []byte("v1")))
	require.NoError(t, e.Set([]byte("k"), []byte("v2")))

	v, ok, err := e.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v2"), v)
}

// Scenario 3: crash-recover. The five writes total about 510 bytes, below
// switch_mem_size, so no switch happens and every key is still only in the
// active log; ForceClose simulates a crash (no synchronous flush, no waiting
// for workers), and reopening must recover every key.
func TestCrashRecover(t *testing.T) {
	o := testOptions(t)
	o.SwitchMemSize = 1024

	e := openEngine(t, o)
	for i := range 5 {
		key := []byte(fmt.Sprintf("a%d", i))
		value := make([]byte, 100)
		for j := range value {
			value[j] = 'x'
		}
		require.NoError(t, e.Set(key, value))
	}
	require.NoError(t, e.ForceClose())

	e2 := openEngine(t, o)
	defer e2.Close()

	for i := range 5 {
		key := []byte(fmt.Sprintf("a%d", i))
		v, ok, err := e2.Get(key)
		require.NoError(t, err)
		require.True(t, ok, "key %s should survive recovery", key)
		require.Len(t, v, 100)
	}
}

// Scenario 4: flush and lookup from segment. A tiny switch_mem_size makes
// roughly every seventh insert trigger a switch+flush (whenever no frozen
// tree is still pending); once the
// flush worker catches up, at least one segment file exists on disk and
// point lookups still resolve correctly regardless of which tier serves them.
func TestFlushAndLookupFromSegment(t *testing.T) {
	o := testOptions(t)
	o.SwitchMemSize = 64

	e := openEngine(t, o)
	defer e.Close()

	for i := range 100 {
		key := []byte(fmt.Sprintf("key%04d", i))
		value := []byte(fmt.Sprintf("v%d", i))
		require.NoError(t, e.Set(key, value))
	}

	require.Eventually(t, func() bool {
		entries, err := os.ReadDir(o.DataDir)
		require.NoError(t, err)
		for _, entry := range entries {
			if filepath.Ext(entry.Name()) == "."+o.DataSuffix {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "expected at least one segment file after flush")

	v, ok, err := e.Get([]byte("key0050"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v50"), v)
}

// Scenario 5: compaction coalesces duplicates (P5). Two flushes produce two
// segments disagreeing on "k"; a manually-triggered merge cycle leaves a
// single segment and the newer value wins.
func TestCompactionCoalescesDuplicates(t *testing.T) {
	o := testOptions(t)
	o.SwitchMemSize = 1 // every set crosses the threshold and switches if no frozen tree is pending

	e := openEngine(t, o)
	defer e.Close()

	require.NoError(t, e.Set([]byte("k"), []byte("old")))
	require.Eventually(t, func() bool { return e.segments.Len() >= 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, e.Set([]byte("k"), []byte("new")))
	require.Eventually(t, func() bool { return e.segments.Len() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, e.runCompactionCycle())
	require.Equal(t, 1, e.segments.Len())

	v, ok, err := e.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("new"), v)
}

func TestCloseIsIdempotentGuarded(t *testing.T) {
	o := testOptions(t)
	e := openEngine(t, o)
	require.NoError(t, e.Close())
	require.ErrorIs(t, e.Close(), ErrEngineClosed)
}

// TestOpenRejectsSecondWriterOnSameDir exercises the LOCK file enforcing
// spec.md §5's "no concurrent writers" rule: a second New on an already-open
// data directory must fail, and closing the first makes the directory
// available again.
func TestOpenRejectsSecondWriterOnSameDir(t *testing.T) {
	o := testOptions(t)
	e := openEngine(t, o)

	_, err := New(context.Background(), &Config{Options: o, Logger: logger.Noop()})
	require.Error(t, err)

	require.NoError(t, e.Close())

	e2 := openEngine(t, o)
	defer e2.Close()
}

func TestRecoveredSegmentsAreVisibleAfterReopen(t *testing.T) {
	o := testOptions(t)
	o.SwitchMemSize = 1

	e := openEngine(t, o)
	require.NoError(t, e.Set([]byte("a"), []byte("1")))
	require.NoError(t, e.Set([]byte("b"), []byte("2")))
	require.NoError(t, e.Close())

	e2 := openEngine(t, o)
	defer e2.Close()

	for _, pair := range [][2]string{{"a", "1"}, {"b", "2"}} {
		v, ok, err := e2.Get([]byte(pair[0]))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []byte(pair[1]), v)
	}
}
