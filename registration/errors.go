package registration

import (
	"errors"
	"fmt"
)

// ErrConfiguration matches every ConfigurationError.
var ErrConfiguration = errors.New("registration: invalid configuration")

// ConfigurationError reports an option whose requirement is not met by the
// container.
type ConfigurationError struct {
	Option      string
	Requirement string
	Message     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("registration: %s requires %s: %s", e.Option, e.Requirement, e.Message)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
