package opt

import "errors"

var (
	// ErrInvalidParameter marks option validation failures. The wrapping message
	// names the condition that was not met.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInternal marks inconsistent input discovered after validation, such as a
	// pinned endpoint missing from the coordinate set.
	ErrInternal = errors.New("internal error")
)
