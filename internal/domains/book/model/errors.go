package model

import (
	"errors"
	"fmt"
)

var (
	// ErrBookNotFound is returned when no book has the requested code
	ErrBookNotFound = errors.New("book not found")

	// ErrNegativeStock guards the stock >= 0 invariant
	ErrNegativeStock = errors.New("book stock cannot be negative")
)

// NewBookNotFoundError adds the code to ErrBookNotFound.
func NewBookNotFoundError(code string) error {
	return fmt.Errorf("%w: code=%s", ErrBookNotFound, code)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookNotFound)
}
