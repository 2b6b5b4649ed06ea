package memtable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lsmkv/pkg/logger"
)

func newTestConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		Dir:             dir,
		LogSuffix:       "log",
		SwitchThreshold: 1024,
		Logger:          logger.Noop(),
	}
}

func TestOpenWithNoLogsCreatesActiveLog(t *testing.T) {
	cfg := newTestConfig(t)

	mt, frozen, err := Open(cfg)
	require.NoError(t, err)
	require.Nil(t, frozen)

	path := filepath.Join(cfg.Dir, "1.log")
	_, err = os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, mt.Close())
}

func TestSetThenGetReadsYourWrites(t *testing.T) {
	cfg := newTestConfig(t)
	mt, _, err := Open(cfg)
	require.NoError(t, err)
	defer mt.Close()

	_, err = mt.Set([]byte("hello"), []byte("world"))
	require.NoError(t, err)

	v, ok := mt.Get([]byte("hello"))
	require.True(t, ok)
	require.Equal(t, []byte("world"), v)

	_, ok = mt.Get([]byte("missing"))
	require.False(t, ok)
}

func TestOverwriteIsLastWriterWins(t *testing.T) {
	cfg := newTestConfig(t)
	mt, _, err := Open(cfg)
	require.NoError(t, err)
	defer mt.Close()

	_, err = mt.Set([]byte("k"), []byte("v1"))
	require.NoError(t, err)
	_, err = mt.Set([]byte("k"), []byte("v2"))
	require.NoError(t, err)

	v, ok := mt.Get([]byte("k"))
	require.True(t, ok)
	require.Equal(t, []byte("v2"), v)
}

func TestSetSwitchesWhenThresholdCrossed(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.SwitchThreshold = 8

	mt, _, err := Open(cfg)
	require.NoError(t, err)
	defer mt.Close()

	frozen, err := mt.Set([]byte("a"), []byte("0123456789"))
	require.NoError(t, err)
	require.NotNil(t, frozen)
	require.Equal(t, uint64(1), frozen.LogID)

	// A second insertion no longer triggers another switch: a frozen tree
	// already exists.
	frozen2, err := mt.Set([]byte("b"), []byte("0123456789"))
	require.NoError(t, err)
	require.Nil(t, frozen2)

	v, ok := mt.Get([]byte("a"))
	require.True(t, ok, "value must still be reachable via frozen after the switch")
	require.Equal(t, []byte("0123456789"), v)
}

func TestFinalizeSwitchDeletesFrozenLog(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.SwitchThreshold = 1

	mt, _, err := Open(cfg)
	require.NoError(t, err)
	defer mt.Close()

	frozen, err := mt.Set([]byte("a"), []byte("0123456789"))
	require.NoError(t, err)
	require.NotNil(t, frozen)

	frozenPath := filepath.Join(cfg.Dir, "1.log")
	_, err = os.Stat(frozenPath)
	require.NoError(t, err)

	require.NoError(t, mt.FinalizeSwitch())
	_, err = os.Stat(frozenPath)
	require.True(t, os.IsNotExist(err))
}

func TestOpenRecoversActiveLogAndTruncatesBadTail(t *testing.T) {
	cfg := newTestConfig(t)

	mt, _, err := Open(cfg)
	require.NoError(t, err)
	_, err = mt.Set([]byte("x"), []byte("1"))
	require.NoError(t, err)
	_, err = mt.Set([]byte("y"), []byte("2"))
	require.NoError(t, err)
	require.NoError(t, mt.Close())

	// Simulate a crash mid-write: append garbage bytes with no trailing
	// newline to the active log file.
	path := filepath.Join(cfg.Dir, "1.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte("garbage-no-newline"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	mt2, frozen, err := Open(cfg)
	require.NoError(t, err)
	require.Nil(t, frozen)
	defer mt2.Close()

	v, ok := mt2.Get([]byte("x"))
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)

	v, ok = mt2.Get([]byte("y"))
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)

	// A subsequent write must succeed, proving the file was truncated and
	// reopened at a writable offset rather than left with trailing garbage.
	_, err = mt2.Set([]byte("z"), []byte("3"))
	require.NoError(t, err)
}

func TestOpenRecoversFrozenFromSecondNewestLog(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.SwitchThreshold = 1

	mt, _, err := Open(cfg)
	require.NoError(t, err)
	frozen, err := mt.Set([]byte("a"), []byte("0123456789"))
	require.NoError(t, err)
	require.NotNil(t, frozen)
	// Do not finalize: simulate a crash after the switch but before flush.
	require.NoError(t, mt.Close())

	mt2, recoveredFrozen, err := Open(cfg)
	require.NoError(t, err)
	defer mt2.Close()

	require.NotNil(t, recoveredFrozen)
	require.Equal(t, uint64(1), recoveredFrozen.LogID)
	v, ok := recoveredFrozen.Tree.Get("a")
	require.True(t, ok)
	require.Equal(t, []byte("0123456789"), v)
}
