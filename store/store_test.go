package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	lsmerrors "github.com/iamNilotpal/lsmkv/pkg/errors"
	"github.com/iamNilotpal/lsmkv/pkg/options"
)

func openStore(t *testing.T, opts ...options.OptionFunc) *Store {
	t.Helper()
	dir := t.TempDir()
	all := append([]options.OptionFunc{options.WithDataDir(dir), options.WithPollPeriod(10 * time.Millisecond)}, opts...)
	s, err := Open(context.Background(), "lsmkv-test", all...)
	require.NoError(t, err)
	return s
}

func TestStoreGetMissingReturnsSentinel(t *testing.T) {
	s := openStore(t)
	defer s.Close()

	_, err := s.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStoreReadYourWrites(t *testing.T) {
	s := openStore(t)
	defer s.Close()

	require.NoError(t, s.Set([]byte("hello"), []byte("world")))

	v, err := s.Get([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, []byte("world"), v)
}

// TestOpenRejectsInvalidOptions exercises pkg/options.Options.Validate(),
// wired into Open per spec.md §6's expectation that a malformed configuration
// is rejected up front rather than accepted and left to fail obscurely later.
func TestOpenRejectsInvalidOptions(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(
		context.Background(), "lsmkv-test",
		options.WithDataDir(dir), options.WithLogSuffix("data"),
	)
	require.Error(t, err)
	require.True(t, lsmerrors.IsValidationError(err))

	ve, ok := lsmerrors.AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, "logSuffix", ve.Field())
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	s := openStore(t)
	defer s.Close()

	err := s.Set(nil, []byte("v"))
	require.Error(t, err)
}

// TestForceCloseRecoversUnflushedActiveFromLog exercises the force_close
// semantics spec.md §4.5 documents: ForceClose skips Close's synchronous
// final flush, so a write still only in the active memtable is not turned
// into a segment, but it already reached the write-ahead log and is
// recovered from that log on reopen.
func TestForceCloseRecoversUnflushedActiveFromLog(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), "lsmkv-test", options.WithDataDir(dir), options.WithPollPeriod(10*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, s.Set([]byte("k"), []byte("v")))
	require.NoError(t, s.ForceClose())

	s2, err := Open(context.Background(), "lsmkv-test", options.WithDataDir(dir), options.WithPollPeriod(10*time.Millisecond))
	require.NoError(t, err)
	defer s2.Close()

	v, err := s2.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
}
