package segmentset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lsmkv/internal/segment"
)

func newTestSegment(t *testing.T, id uint64, key, value string) *segment.Segment {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seg")
	wrote := false
	err := segment.WriteSorted(path, func() ([]byte, []byte, bool, error) {
		if wrote {
			return nil, nil, false, nil
		}
		wrote = true
		return []byte(key), []byte(value), true, nil
	})
	require.NoError(t, err)

	seg, err := segment.Open(path, id)
	require.NoError(t, err)
	return seg
}

func TestAllocateIDIsStrictlyIncreasing(t *testing.T) {
	set := New(0)
	a := set.AllocateID()
	b := set.AllocateID()
	require.Equal(t, uint64(1), a)
	require.Equal(t, uint64(2), b)
	require.Greater(t, b, a)
}

func TestInstallRemoveAndSnapshot(t *testing.T) {
	set := New(0)
	s1 := newTestSegment(t, 1, "a", "1")
	s2 := newTestSegment(t, 2, "b", "2")
	s3 := newTestSegment(t, 3, "c", "3")

	set.Install(s1)
	set.Install(s2)
	set.Install(s3)
	require.Equal(t, 3, set.Len())

	snap := set.Snapshot()
	require.Len(t, snap, 3)
	require.Equal(t, uint64(3), snap[0].ID(), "snapshot must be newest-first")
	require.Equal(t, uint64(2), snap[1].ID())
	require.Equal(t, uint64(1), snap[2].ID())

	removed, ok := set.Remove(2)
	require.True(t, ok)
	require.Equal(t, uint64(2), removed.ID())
	require.Equal(t, 2, set.Len())

	_, ok = set.Get(2)
	require.False(t, ok)
}
