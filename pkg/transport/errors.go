package transport

import (
	"fmt"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// TransportError reports an I/O failure on the underlying link. The channel
// is already Disconnected when it is returned.
type TransportError struct {
	Op      string
	Address string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Address, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfigurationError lists every invalid field of a channel configuration.
type ConfigurationError struct {
	Errs field.ErrorList
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInvalidConfiguration, e.Errs.ToAggregate())
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

func (e *ConfigurationError) Unwrap() error {
	return e.Errs.ToAggregate()
}

func newConfigurationError(errs field.ErrorList) error {
	if len(errs) == 0 {
		return nil
	}
	return &ConfigurationError{Errs: errs}
}
