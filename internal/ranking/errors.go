package ranking

import (
	"errors"
	"fmt"
)

// ErrConfiguration is returned when weights or tunables are unusable. It is fatal at construction time.
var ErrConfiguration = errors.New("ranking configuration error")

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
