package options

import "time"

const (
	// DefaultDataDir is the default base directory for logs and segments.
	DefaultDataDir = "/var/lib/lsmkv"

	// DefaultLogSuffix is the default write-ahead log filename suffix.
	DefaultLogSuffix = "log"

	// DefaultDataSuffix is the default segment filename suffix.
	DefaultDataSuffix = "data"

	// DefaultSwitchMemSize is the default active-memtable byte threshold (1 MiB).
	DefaultSwitchMemSize uint64 = 1 * 1024 * 1024

	// DefaultMergePeriod is the default minimum interval between compactions.
	DefaultMergePeriod = time.Hour

	// DefaultPollPeriod is the default worker tick interval.
	DefaultPollPeriod = 100 * time.Millisecond

	// DefaultBlockSize is the default minimum span between sparse index entries (4 KiB).
	DefaultBlockSize uint64 = 4 * 1024
)

var defaultOptions = Options{
	DataDir:       DefaultDataDir,
	LogSuffix:     DefaultLogSuffix,
	DataSuffix:    DefaultDataSuffix,
	SwitchMemSize: DefaultSwitchMemSize,
	MergePeriod:   DefaultMergePeriod,
	PollPeriod:    DefaultPollPeriod,
	BlockSize:     DefaultBlockSize,
}

// NewDefaultOptions returns the documented default configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
