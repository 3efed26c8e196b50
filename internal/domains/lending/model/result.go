package model

import (
	"fmt"
	"time"

	bookModel "library-backend/internal/domains/book/model"
	memberModel "library-backend/internal/domains/member/model"
)

// CheckoutResult is the state after a successful checkout.
type CheckoutResult struct {
	Book   *bookModel.Book
	Member *memberModel.Member
}

func (r *CheckoutResult) Message() string {
	return fmt.Sprintf("Successfully checkout %s", r.Book.Title)
}

// ReturnResult is the state after a successful return.
type ReturnResult struct {
	Book       *bookModel.Book
	Member     *memberModel.Member
	BorrowedAt time.Time
	Penalized  bool
}

func (r *ReturnResult) Message() string {
	if r.Penalized {
		return fmt.Sprintf("Successfully returned %s, But you've got Penalized", r.Book.Title)
	}
	return fmt.Sprintf("Successfully returned %s", r.Book.Title)
}
