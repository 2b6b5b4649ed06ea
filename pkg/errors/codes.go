package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary: log appends, segment reads, renames, directory scans.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories: bugs, assertion failures, programming errors
	// that shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base taxonomy to the memtable's
// write-ahead log and the segment set's on-disk files. See spec.md §7.
const (
	// ErrorCodeSegmentCorrupted indicates a segment file's data could not be
	// interpreted as a sequence of valid records while building its index,
	// during a point lookup, or during a sequential scan.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"

	// ErrorCodeHeaderReadFailure occurs when a record's framing fields (the
	// CRC/key/value triple) cannot be decoded from a log line.
	ErrorCodeHeaderReadFailure ErrorCode = "HEADER_READ_FAILURE"

	// ErrorCodePayloadReadFailure indicates the record's framing decoded but
	// its CRC did not match the payload.
	ErrorCodePayloadReadFailure ErrorCode = "PAYLOAD_READ_FAILURE"

	// ErrorCodeRecoveryFailed indicates write-ahead log replay could not
	// establish a consistent state on open.
	ErrorCodeRecoveryFailed ErrorCode = "STORAGE_RECOVERY_FAILED"

	// ErrorCodeWriteLog indicates a log append failed; per spec.md §4.2, no
	// in-memory mutation is applied when this happens. A failed sync after
	// the append carries the code chosen by ClassifySyncError instead.
	ErrorCodeWriteLog ErrorCode = "WRITE_LOG"

	// ErrorCodeParseLogID indicates a directory entry carrying the
	// configured log suffix did not have an integer id prefix.
	ErrorCodeParseLogID ErrorCode = "PARSE_LOG_ID"

	// ErrorCodeParseSegmentID indicates a directory entry carrying the
	// configured data suffix did not have an integer id prefix.
	ErrorCodeParseSegmentID ErrorCode = "PARSE_SEGMENT_ID"

	// ErrorCodeInvalidFileName indicates a directory entry's name was not
	// valid UTF-8, so it could not be classified as log, segment, or
	// ignorable. idfile.ParseID also uses it for a name that lacks the
	// expected suffix.
	ErrorCodeInvalidFileName ErrorCode = "INVALID_FILE_NAME"

	// ErrorCodeKeyNotAllowed indicates a key failed a store-level
	// constraint, currently: zero length.
	ErrorCodeKeyNotAllowed ErrorCode = "KEY_NOT_ALLOWED"

	// ErrorCodeLockPoisoned indicates a shared lock could not be acquired
	// because a prior holder panicked while holding it.
	ErrorCodeLockPoisoned ErrorCode = "LOCK_POISONED"

	// ErrorCodePermissionDenied indicates insufficient permissions to access
	// a resource. Distinct from a generic IO error because it has a specific
	// resolution path: adjust file/directory permissions.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates the storage device has run out of space.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates the filesystem is mounted
	// read-only.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"
)

// Compaction-specific error codes.
const (
	// ErrorCodeMergeAborted indicates a compaction cycle failed partway
	// through a merge. Per spec.md §4.5, the segment set is left unchanged
	// and the next scheduled cycle retries from scratch.
	ErrorCodeMergeAborted ErrorCode = "MERGE_ABORTED"
)
