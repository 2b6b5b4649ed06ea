package errors

// StorageError is a specialized error type for write-ahead log and segment
// file operations. It embeds baseError to inherit chaining/code/detail
// support, then adds fields that pinpoint exactly where on disk the problem
// occurred.
type StorageError struct {
	*baseError
	id     uint64 // Log or segment id being accessed when the error occurred.
	offset int64  // Byte offset within the file where the problem happened.
	path   string // Path of the file that caused the issue.
}

// NewStorageError creates a new storage-specific error.
func NewStorageError(err error, code ErrorCode, msg string) *StorageError {
	return &StorageError{baseError: NewBaseError(err, code, msg)}
}

// WithID sets which log or segment id was involved in the error.
func (se *StorageError) WithID(id uint64) *StorageError {
	se.id = id
	return se
}

// WithOffset records the byte position where the error occurred.
func (se *StorageError) WithOffset(offset int64) *StorageError {
	se.offset = offset
	return se
}

// WithPath captures which file was being processed when the error occurred.
func (se *StorageError) WithPath(path string) *StorageError {
	se.path = path
	return se
}

// ID returns the log or segment identifier where the error occurred.
func (se *StorageError) ID() uint64 {
	return se.id
}

// Offset returns the byte offset within the file where the error happened.
func (se *StorageError) Offset() int64 {
	return se.offset
}

// Path returns the path of the file that was being processed.
func (se *StorageError) Path() string {
	return se.path
}

// CompactionError is a specialized error type for merge-cycle failures. It
// rides the same baseError embedding pattern as StorageError, but carries the
// set of segment ids a failed merge was reading from instead of a single
// file's location.
type CompactionError struct {
	*baseError
	sourceIDs []uint64
}

// NewCompactionError creates a new compaction-specific error.
func NewCompactionError(err error, code ErrorCode, msg string) *CompactionError {
	return &CompactionError{baseError: NewBaseError(err, code, msg)}
}

// WithSourceIDs records which segments the aborted merge was reading from.
func (ce *CompactionError) WithSourceIDs(ids []uint64) *CompactionError {
	ce.sourceIDs = ids
	return ce
}

// SourceIDs returns the segment ids the aborted merge was reading from.
func (ce *CompactionError) SourceIDs() []uint64 {
	return ce.sourceIDs
}
