package tensor

import "errors"

// Result kinds shared by every operation in this module. Success is a nil
// error; everything else is one of the sentinels below, possibly wrapped
// with the name of the failing operation. Callers test the kind with
// errors.Is; wrapping never changes it.
var (
	// ErrOutOfMemory reports an allocation failure, such as a tensor or
	// all-ones cache entry whose byte size overflows.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrInvalidArgument reports a shape, device, or dtype mismatch
	// between cooperating tensors, or degenerate geometry.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBackendFailure reports that an underlying linear-algebra or
	// device primitive failed.
	ErrBackendFailure = errors.New("backend failure")

	// ErrUnsupported reports a device/dtype combination that has no
	// registered implementation.
	ErrUnsupported = errors.New("unsupported configuration")
)
