package model

import (
	"errors"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// LendingRequest is the body of POST /checkout and POST /return.
// It binds from JSON and from urlencoded forms.
type LendingRequest struct {
	MemberCode string `json:"member_code" form:"member_code"`
	BookCode   string `json:"book_code" form:"book_code"`
}

type CheckoutRequest = LendingRequest

type ReturnRequest = LendingRequest

// Normalize trims surrounding whitespace from the codes.
func (r *LendingRequest) Normalize() {
	r.MemberCode = strings.TrimSpace(r.MemberCode)
	r.BookCode = strings.TrimSpace(r.BookCode)
}

func (r LendingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MemberCode,
			validation.Required.Error("member_code is required."),
			validation.Length(1, 64),
		),
		validation.Field(&r.BookCode,
			validation.Required.Error("book_code is required."),
			validation.Length(1, 64),
		),
	)
}

// FieldError is one entry of the validation error list.
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param"`
	Location string `json:"location"`
}

// ToFieldErrors flattens an ozzo validation error into a stable, sorted list.
// Errors that are not validation.Errors produce a single entry without a param.
func ToFieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return []FieldError{{Msg: err.Error(), Location: "body"}}
	}

	fields := make([]string, 0, len(verrs))
	for field := range verrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]FieldError, 0, len(fields))
	for _, field := range fields {
		out = append(out, FieldError{
			Msg:      verrs[field].Error(),
			Param:    field,
			Location: "body",
		})
	}
	return out
}

// ValidationErrorResponse is the 400 body for invalid requests.
type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

// PenaltyAppliedPayload is the task payload enqueued when a late return penalizes a member.
type PenaltyAppliedPayload struct {
	MemberCode  string    `json:"member_code"`
	BookCode    string    `json:"book_code"`
	BorrowedAt  time.Time `json:"borrowed_at"`
	PenalizedAt time.Time `json:"penalized_at"`
}

// SweepExpiredPenaltiesPayload is the payload of the scheduled penalty sweep.
type SweepExpiredPenaltiesPayload struct {
	ScheduledBy string `json:"scheduled_by,omitempty"`
}
