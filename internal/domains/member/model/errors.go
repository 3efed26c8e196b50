package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMemberNotFound is returned when no member has the requested code
	ErrMemberNotFound = errors.New("member not found")
)

// NewMemberNotFoundError adds the code to ErrMemberNotFound.
func NewMemberNotFoundError(code string) error {
	return fmt.Errorf("%w: code=%s", ErrMemberNotFound, code)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrMemberNotFound)
}
