package remap

import "errors"

// Sentinel error kinds for this package.
var (
	ErrShape         = errors.New("remap: input shape mismatch")
	ErrInvalidOption = errors.New("remap: invalid option")
	ErrUnknownJoint  = errors.New("remap: unknown target joint")
)
