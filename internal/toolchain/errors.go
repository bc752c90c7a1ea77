package toolchain

import "errors"

var (
	// ErrInstall marks any toolchain installation failure.
	ErrInstall = errors.New("toolchain install")
	// ErrDeclined is returned when the user rejects the install prompt.
	// It wraps no further: a decline is final for this invocation.
	ErrDeclined = errors.New("toolchain install declined")
)
