package config

import (
	"errors"
	"fmt"
)

// ErrInvalidOption marks configuration errors. The wrapped message names the
// first offending option.
var ErrInvalidOption = errors.New("invalid option")

func invalidf(option, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidOption, option, fmt.Sprintf(format, args...))
}
