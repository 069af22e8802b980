package repository

import (
	"errors"
	"fmt"
)

// UnsupportedOperationError is returned by repository shapes that
// deliberately do not implement an operation, such as writes on a cached
// repository.
type UnsupportedOperationError struct {
	Op         string
	Repository string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("repository: %s is not supported by %s", e.Op, e.Repository)
}

// Is makes the error match errors.ErrUnsupported.
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == errors.ErrUnsupported
}

// NewUnsupportedOperationError creates an UnsupportedOperationError.
func NewUnsupportedOperationError(repository, op string) error {
	return &UnsupportedOperationError{Op: op, Repository: repository}
}
