package compress

import "errors"

// Sentinel errors for engine operations.
var (
	// ErrInvalidConfig indicates malformed engine configuration, such
	// as a non-positive concurrency.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrInvalidBand indicates a band outside [0,100], an inverted
	// interval, or an unknown level.
	ErrInvalidBand = errors.New("invalid compression band")

	// ErrTaskMismatch indicates a task that cannot be located on the
	// conversation it was built from. This is a defect in the caller,
	// not a runtime condition: reconciliation fails loudly rather than
	// silently dropping content.
	ErrTaskMismatch = errors.New("task does not match conversation")
)
