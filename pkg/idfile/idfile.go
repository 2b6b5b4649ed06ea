// Package idfile names and discovers the store's on-disk files. Every log and
// segment file is named "<id>.<suffix>", where id is a monotonically
// increasing uint64 and suffix distinguishes logs from segments
// (options.LogSuffix / options.DataSuffix). This is a deliberately simpler
// scheme than a Bitcask-style "prefix_NNNNN_timestamp" name: the id alone
// totally orders files within one suffix, and the suffix alone disambiguates
// logs from segments, so no other component of the name carries information.
package idfile

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	lsmerrors "github.com/iamNilotpal/lsmkv/pkg/errors"
)

// GenerateName returns the filename for the given id and suffix:
// "<id>.<suffix>".
func GenerateName(id uint64, suffix string) string {
	return strconv.FormatUint(id, 10) + "." + suffix
}

// ParseID extracts the id from a filename carrying the given suffix. It
// returns an error wrapping lsmerrors.ErrorCodeParseLogID or
// ErrorCodeParseSegmentID (selected by the caller via errCode) when the
// leading component isn't a valid uint64.
func ParseID(name, suffix string, errCode lsmerrors.ErrorCode) (uint64, error) {
	trimmed := strings.TrimSuffix(name, "."+suffix)
	if trimmed == name {
		return 0, lsmerrors.NewStorageError(
			nil, lsmerrors.ErrorCodeInvalidFileName, "file name does not carry the expected suffix",
		).WithPath(name)
	}

	id, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, lsmerrors.NewStorageError(
			err, errCode, "file name does not have a valid integer id",
		).WithPath(name)
	}
	return id, nil
}

// List scans dir for files carrying the given suffix and returns their ids in
// ascending order, along with their full paths (index-aligned with the id
// slice). It returns errCode-tagged errors for any matching name whose id
// can't be parsed, and ErrorCodeInvalidFileName for any non-UTF8 entry name
// regardless of suffix, per spec.md §7.
func List(dir, suffix string, errCode lsmerrors.ErrorCode) ([]uint64, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	type pair struct {
		id   uint64
		path string
	}
	var pairs []pair

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.ToValidUTF8(name, "�") != name {
			return nil, nil, lsmerrors.NewStorageError(
				nil, lsmerrors.ErrorCodeInvalidFileName, "directory entry name is not valid utf-8",
			).WithPath(filepath.Join(dir, name))
		}
		if !strings.HasSuffix(name, "."+suffix) {
			continue
		}

		id, err := ParseID(name, suffix, errCode)
		if err != nil {
			return nil, nil, err
		}
		pairs = append(pairs, pair{id: id, path: filepath.Join(dir, name)})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	ids := make([]uint64, len(pairs))
	paths := make([]string, len(pairs))
	for i, p := range pairs {
		ids[i] = p.id
		paths[i] = p.path
	}
	return ids, paths, nil
}
