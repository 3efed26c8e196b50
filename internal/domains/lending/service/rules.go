package service

import (
	"time"

	"library-backend/internal/config"
	bookModel "library-backend/internal/domains/book/model"
	"library-backend/internal/domains/lending/model"
	memberModel "library-backend/internal/domains/member/model"
)

const day = 24 * time.Hour

// Rules holds the borrowing thresholds. Its methods are pure: time is passed in.
type Rules struct {
	MaxBorrowed   int
	LateAfterDays int
	PenaltyDays   int
}

func NewRules(cfg config.LendingConfig) Rules {
	return Rules{
		MaxBorrowed:   cfg.MaxBorrowed,
		LateAfterDays: cfg.LateAfterDays,
		PenaltyDays:   cfg.PenaltyDays,
	}
}

// DefaultRules are 2 books, late after 7 days, penalized for 3 days.
func DefaultRules() Rules {
	return Rules{MaxBorrowed: 2, LateAfterDays: 7, PenaltyDays: 3}
}

// DaysBetween returns |now - from| in whole days, rounded up.
func DaysBetween(from, now time.Time) int {
	d := now.Sub(from)
	if d < 0 {
		d = -d
	}
	days := d / day
	if d%day != 0 {
		days++
	}
	return int(days)
}

// IsLate reports whether a book borrowed at borrowedAt is overdue at now.
func (r Rules) IsLate(borrowedAt, now time.Time) bool {
	return DaysBetween(borrowedAt, now) > r.LateAfterDays
}

// IsPenaltyExpired reports whether a penalty set at penalizedAt has run out at now.
func (r Rules) IsPenaltyExpired(penalizedAt, now time.Time) bool {
	return DaysBetween(penalizedAt, now) > r.PenaltyDays
}

// PenaltyCutoff is the latest penalizedAt that is still in force at now.
// Penalties set strictly before it have expired.
func (r Rules) PenaltyCutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(r.PenaltyDays) * day)
}

// Checkout lends book to member at now, mutating both on success.
// Nothing is changed when an error is returned.
func (r Rules) Checkout(memberCode, bookCode string, member *memberModel.Member, book *bookModel.Book, now time.Time) error {
	if book == nil {
		return model.NewBookNotFoundError(bookCode)
	}
	if member == nil {
		return model.NewMemberNotFoundError(memberCode)
	}

	if book.Stock <= 0 {
		return model.NewOutOfStockError(book.Title)
	}
	if member.BorrowedCount() >= r.MaxBorrowed {
		return model.NewBorrowLimitReachedError(r.MaxBorrowed)
	}

	if member.IsPenalized {
		if member.PenalizedAt != nil && !r.IsPenaltyExpired(*member.PenalizedAt, now) {
			return model.NewStillPenalizedError()
		}
		member.ClearPenalty()
	}

	member.BookDetail = append(member.BookDetail, memberModel.BorrowedBook{
		Code:       book.Code,
		BorrowedAt: now,
	})
	book.Stock--

	return nil
}

// ReturnOutcome describes a completed return.
type ReturnOutcome struct {
	BorrowedAt time.Time
	Penalized  bool
}

// Return takes book back from member at now. Only the first matching
// entry is removed. A late return penalizes the member at now.
func (r Rules) Return(memberCode, bookCode string, member *memberModel.Member, book *bookModel.Book, now time.Time) (ReturnOutcome, error) {
	if book == nil {
		return ReturnOutcome{}, model.NewBookNotFoundError(bookCode)
	}
	if member == nil {
		return ReturnOutcome{}, model.NewMemberNotFoundError(memberCode)
	}

	if member.BorrowedCount() == 0 {
		return ReturnOutcome{}, model.NewNothingBorrowedError()
	}

	idx := member.FindBorrowed(book.Code)
	if idx < 0 {
		return ReturnOutcome{}, model.NewNotBorrowedByMemberError()
	}

	entry := member.BookDetail[idx]
	penalized := r.IsLate(entry.BorrowedAt, now)

	member.BookDetail = append(member.BookDetail[:idx:idx], member.BookDetail[idx+1:]...)
	book.Stock++

	if penalized {
		member.Penalize(now)
	}

	return ReturnOutcome{BorrowedAt: entry.BorrowedAt, Penalized: penalized}, nil
}
