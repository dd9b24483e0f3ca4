package flex

import "errors"

var (
	// ErrBrokenChain is returned when a sweep cannot walk a chain from one
	// end to the other through its links.
	ErrBrokenChain = errors.New("flex: broken chain")
	// ErrInvalidConfig reports inconsistent battery parameters.
	ErrInvalidConfig = errors.New("flex: invalid config")
)
