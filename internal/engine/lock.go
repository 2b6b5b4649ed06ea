package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	lsmerrors "github.com/iamNilotpal/lsmkv/pkg/errors"
	"github.com/iamNilotpal/lsmkv/pkg/filesys"
)

// acquireLock claims dataDir for this process by writing a LOCK file holding
// its pid. It is a best-effort guard against the "no concurrent writers"
// requirement of spec.md §5, not an OS-level flock: a process that is killed
// without calling Close or ForceClose leaves the lock file behind, and the
// next New on that directory will fail until it is removed by hand.
func acquireLock(dataDir string) (string, error) {
	lockPath := filepath.Join(dataDir, lockFileName)

	exists, err := filesys.Exists(lockPath)
	if err != nil {
		return "", lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeIO, "failed to check for existing lock file").
			WithPath(lockPath)
	}
	if exists {
		holder, readErr := filesys.ReadFile(lockPath)
		if readErr != nil {
			return "", lsmerrors.NewStorageError(readErr, lsmerrors.ErrorCodeIO, "failed to read existing lock file").
				WithPath(lockPath)
		}
		return "", lsmerrors.NewStorageError(
			nil, lsmerrors.ErrorCodeInternal,
			fmt.Sprintf("data directory is already open by pid %s", holder),
		).WithPath(lockPath)
	}

	pid := []byte(strconv.Itoa(os.Getpid()))
	if err := filesys.WriteFile(lockPath, 0644, pid); err != nil {
		return "", lsmerrors.NewStorageError(err, lsmerrors.ErrorCodeIO, "failed to write lock file").
			WithPath(lockPath)
	}
	return lockPath, nil
}

// releaseLock removes the LOCK file claimed by acquireLock. Errors are
// logged, not returned: a lingering lock file after a failed removal is a
// nuisance for the next open, not data loss.
func (e *Engine) releaseLock() {
	if e.lockPath == "" {
		return
	}
	if err := filesys.DeleteFile(e.lockPath); err != nil {
		e.log.Warnw("failed to remove lock file", "path", e.lockPath, "error", err)
	}
}
