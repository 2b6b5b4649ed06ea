package options

import "github.com/iamNilotpal/lsmkv/pkg/errors"

// Validate checks that o is a configuration Store.Open can safely run with. It
// is the guard spec.md §6 expects every Open to pass its options through
// before the engine touches disk.
func (o *Options) Validate() error {
	if o == nil {
		return errors.NewRequiredFieldError("options").WithRule("non_nil")
	}

	if o.DataDir == "" {
		return errors.NewRequiredFieldError("dataDir")
	}
	if o.LogSuffix == "" {
		return errors.NewRequiredFieldError("logSuffix")
	}
	if o.DataSuffix == "" {
		return errors.NewRequiredFieldError("dataSuffix")
	}

	if o.LogSuffix == o.DataSuffix {
		return errors.NewConfigurationValidationError(
			"logSuffix", "logSuffix and dataSuffix must differ, or log and segment files collide",
		).WithProvided(o.LogSuffix).WithExpected(o.DataSuffix)
	}

	if o.SwitchMemSize == 0 {
		return errors.NewFieldRangeError("switchMemSize", o.SwitchMemSize, 1, nil)
	}
	if o.MergePeriod <= 0 {
		return errors.NewFieldRangeError("mergePeriod", o.MergePeriod, 1, nil)
	}
	if o.PollPeriod <= 0 {
		return errors.NewFieldRangeError("pollPeriod", o.PollPeriod, 1, nil)
	}
	if o.BlockSize == 0 {
		return errors.NewFieldRangeError("blockSize", o.BlockSize, 1, nil)
	}

	return nil
}
