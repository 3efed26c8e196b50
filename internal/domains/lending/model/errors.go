package model

import (
	"errors"
	"fmt"
	"net/http"

	bookModel "library-backend/internal/domains/book/model"
	memberModel "library-backend/internal/domains/member/model"
)

// ===================================
// DOMAIN ERRORS
// ===================================

var (
	// ErrValidation is returned when required request fields are missing
	ErrValidation = errors.New("validation failed")

	// ErrUninitializedStore is returned when books or members were never seeded
	ErrUninitializedStore = errors.New("books or members are not loaded")

	// ErrOutOfStock is returned when the book has no copy left
	ErrOutOfStock = errors.New("book out of stock")

	// ErrBorrowLimitReached is returned when the member already holds the maximum number of books
	ErrBorrowLimitReached = errors.New("borrow limit reached")

	// ErrStillPenalized is returned when a penalized member tries to borrow before the penalty expires
	ErrStillPenalized = errors.New("member is still penalized")

	// ErrNothingBorrowed is returned when a member with no borrowed book returns one
	ErrNothingBorrowed = errors.New("member has not borrowed any book")

	// ErrNotBorrowedByMember is returned when the returned book is not in the member's list
	ErrNotBorrowedByMember = errors.New("book is not borrowed by member")

	// ErrConcurrentUpdate is returned when a version check fails (concurrent update)
	ErrConcurrentUpdate = errors.New("concurrent update detected")
)

// LendingError carries the message shown to the client next to the error kind.
type LendingError struct {
	Kind    error
	Message string
}

func (e *LendingError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *LendingError) Unwrap() error {
	return e.Kind
}

// ===================================
// ERROR FACTORY FUNCTIONS
// ===================================

func NewUninitializedStoreError() error {
	return &LendingError{Kind: ErrUninitializedStore, Message: "Error, The systems failed to load books or members"}
}

func NewBookNotFoundError(code string) error {
	return &LendingError{Kind: bookModel.ErrBookNotFound, Message: fmt.Sprintf("Sorry, book %s not found", code)}
}

func NewMemberNotFoundError(code string) error {
	return &LendingError{Kind: memberModel.ErrMemberNotFound, Message: fmt.Sprintf("Sorry, member %s not found", code)}
}

func NewOutOfStockError(title string) error {
	return &LendingError{Kind: ErrOutOfStock, Message: fmt.Sprintf("Sorry %s is already borrowed", title)}
}

func NewBorrowLimitReachedError(limit int) error {
	return &LendingError{
		Kind:    ErrBorrowLimitReached,
		Message: fmt.Sprintf("Sorry, you've already borrowed %d books, return it first", limit),
	}
}

func NewStillPenalizedError() error {
	return &LendingError{Kind: ErrStillPenalized, Message: "Error, can't checkout book because you're still penalized"}
}

func NewNothingBorrowedError() error {
	return &LendingError{Kind: ErrNothingBorrowed, Message: "Error, You're not borrowed any books!"}
}

func NewNotBorrowedByMemberError() error {
	return &LendingError{
		Kind:    ErrNotBorrowedByMember,
		Message: "Error, the returned book is not matched with any of your borrowed book",
	}
}

// ===================================
// HTTP MAPPING
// ===================================

type errorMapping struct {
	kind     error
	status   int
	fallback string
}

var errorMappings = []errorMapping{
	{ErrValidation, http.StatusBadRequest, "Error, invalid request"},
	{ErrUninitializedStore, http.StatusNotFound, "Error, The systems failed to load books or members"},
	{bookModel.ErrBookNotFound, http.StatusNotFound, "Sorry, book not found"},
	{memberModel.ErrMemberNotFound, http.StatusNotFound, "Sorry, member not found"},
	{ErrOutOfStock, http.StatusNotFound, "Sorry, the book is already borrowed"},
	{ErrBorrowLimitReached, http.StatusBadRequest, "Sorry, you've reached the borrowing limit, return a book first"},
	{ErrStillPenalized, http.StatusBadRequest, "Error, can't checkout book because you're still penalized"},
	{ErrNothingBorrowed, http.StatusBadRequest, "Error, You're not borrowed any books!"},
	{ErrNotBorrowedByMember, http.StatusBadRequest, "Error, the returned book is not matched with any of your borrowed book"},
	{ErrConcurrentUpdate, http.StatusConflict, "Error, the request conflicted with a concurrent update, please retry"},
}

// MapErrorToHTTP returns the status code and client message for err.
// Errors that are not lending errors map to 500.
func MapErrorToHTTP(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.kind) {
			continue
		}
		var le *LendingError
		if errors.As(err, &le) && le.Message != "" {
			return m.status, le.Message
		}
		return m.status, m.fallback
	}

	return http.StatusInternalServerError, "Internal server error"
}

// IsDomainError reports whether err is an expected lending outcome rather than a failure.
func IsDomainError(err error) bool {
	status, _ := MapErrorToHTTP(err)
	return status != http.StatusInternalServerError
}

func IsConcurrentUpdateError(err error) bool {
	return errors.Is(err, ErrConcurrentUpdate)
}
