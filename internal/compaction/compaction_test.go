package compaction

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lsmkv/internal/segment"
)

func buildSegment(t *testing.T, id uint64, keys, values []string) *segment.Segment {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seg")
	i := 0
	err := segment.WriteSorted(path, func() ([]byte, []byte, bool, error) {
		if i >= len(keys) {
			return nil, nil, false, nil
		}
		k, v := []byte(keys[i]), []byte(values[i])
		i++
		return k, v, true, nil
	})
	require.NoError(t, err)

	seg, err := segment.Open(path, id)
	require.NoError(t, err)
	return seg
}

func readAll(t *testing.T, path string) map[string]string {
	t.Helper()
	seg, err := segment.Open(path, 0)
	require.NoError(t, err)

	out := make(map[string]string)
	r := seg.Reader()
	for {
		k, v, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		out[string(k)] = string(v)
	}
	return out
}

func TestMergeCoalescesDuplicatesWithLastWriterWins(t *testing.T) {
	older := buildSegment(t, 1, []string{"k"}, []string{"old"})
	newer := buildSegment(t, 2, []string{"k"}, []string{"new"})

	out := filepath.Join(t.TempDir(), "merged.tmp")
	require.NoError(t, Merge(out, []*segment.Segment{older, newer}))

	result := readAll(t, out)
	require.Equal(t, map[string]string{"k": "new"}, result)
}

func TestMergeIsAnIdentityOnObservableState(t *testing.T) {
	s1 := buildSegment(t, 1, []string{"a", "b"}, []string{"1", "2"})
	s2 := buildSegment(t, 2, []string{"b", "c"}, []string{"20", "3"})
	s3 := buildSegment(t, 3, []string{"d"}, []string{"4"})

	out := filepath.Join(t.TempDir(), "merged.tmp")
	require.NoError(t, Merge(out, []*segment.Segment{s1, s2, s3}))

	result := readAll(t, out)
	require.Equal(t, map[string]string{
		"a": "1",
		"b": "20",
		"c": "3",
		"d": "4",
	}, result)
}

func TestMergeOutputIsAscendingAndDeduplicated(t *testing.T) {
	s1 := buildSegment(t, 1, []string{"a", "c"}, []string{"1", "3"})
	s2 := buildSegment(t, 2, []string{"b"}, []string{"2"})

	out := filepath.Join(t.TempDir(), "merged.tmp")
	require.NoError(t, Merge(out, []*segment.Segment{s1, s2}))

	seg, err := segment.Open(out, 0)
	require.NoError(t, err)
	r := seg.Reader()

	var keys []string
	for {
		k, _, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		keys = append(keys, string(k))
	}
	require.Equal(t, []string{"a", "b", "c"}, keys)
}
