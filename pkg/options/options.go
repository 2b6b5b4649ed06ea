// Package options provides data structures and functions for configuring
// the store. It defines the parameters that control the memtable's switch
// threshold, the on-disk filename suffixes, and the background workers'
// timing, following spec.md §6's configuration table.
package options

import (
	"strings"
	"time"
)

// Options defines the configuration parameters for a Store.
type Options struct {
	// DataDir is the base path where logs and segments are stored.
	//
	// Default: "/var/lib/lsmkv"
	DataDir string `json:"dataDir"`

	// LogSuffix is the filename suffix for write-ahead log files:
	// "<log_id>.<LogSuffix>".
	//
	// Default: "log"
	LogSuffix string `json:"logSuffix"`

	// DataSuffix is the filename suffix for segment files:
	// "<segment_id>.<DataSuffix>".
	//
	// Default: "data"
	DataSuffix string `json:"dataSuffix"`

	// SwitchMemSize is the threshold on the active memtable's accumulated
	// key+value bytes that triggers the active/frozen switch.
	//
	// Default: 1 MiB
	SwitchMemSize uint64 `json:"switchMemSize"`

	// MergePeriod is the minimum interval between compaction cycles.
	//
	// Default: 1h
	MergePeriod time.Duration `json:"mergePeriod"`

	// PollPeriod is the tick interval for the flush and compaction workers.
	//
	// Default: 100ms
	PollPeriod time.Duration `json:"pollPeriod"`

	// BlockSize is the minimum number of bytes between sparse segment index
	// entries.
	//
	// Default: 4 KiB
	BlockSize uint64 `json:"blockSize"`
}

// OptionFunc is a function that modifies a Store's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions resets every field back to its documented default.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the base directory where logs and segments are stored.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithLogSuffix sets the filename suffix used for write-ahead log files.
func WithLogSuffix(suffix string) OptionFunc {
	return func(o *Options) {
		suffix = strings.TrimSpace(suffix)
		if suffix != "" {
			o.LogSuffix = suffix
		}
	}
}

// WithDataSuffix sets the filename suffix used for segment files.
func WithDataSuffix(suffix string) OptionFunc {
	return func(o *Options) {
		suffix = strings.TrimSpace(suffix)
		if suffix != "" {
			o.DataSuffix = suffix
		}
	}
}

// WithSwitchMemSize sets the active-memtable byte threshold that triggers a
// switch to frozen.
func WithSwitchMemSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.SwitchMemSize = size
		}
	}
}

// WithMergePeriod sets the minimum interval between compaction cycles.
func WithMergePeriod(period time.Duration) OptionFunc {
	return func(o *Options) {
		if period > 0 {
			o.MergePeriod = period
		}
	}
}

// WithPollPeriod sets the flush/compaction worker tick interval.
func WithPollPeriod(period time.Duration) OptionFunc {
	return func(o *Options) {
		if period > 0 {
			o.PollPeriod = period
		}
	}
}

// WithBlockSize sets the minimum byte span between sparse segment index
// entries.
func WithBlockSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.BlockSize = size
		}
	}
}
