package builder

import (
	"errors"
	"fmt"
)

// ErrCompile marks a failed shader compile: nonzero compiler exit, missing
// output, or denied warnings. Captured diagnostics are passed through
// verbatim in the wrapped message.
var ErrCompile = errors.New("compile failed")

// ErrDenyWarnings is a compile failure caused solely by reported warnings
// under deny-warnings, even when the compiler itself exited zero.
var ErrDenyWarnings = fmt.Errorf("%w: warnings reported with deny-warnings set", ErrCompile)
