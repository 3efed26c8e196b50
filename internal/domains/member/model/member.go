package model

import "time"

// BorrowedBook is one entry of a member's borrowed list.
type BorrowedBook struct {
	Code       string    `json:"code" db:"book_code" bson:"code"`
	BorrowedAt time.Time `json:"borrowedAt" db:"borrowed_at" bson:"borrowedAt"`
}

// Member is a library patron.
// IsPenalized implies PenalizedAt is set.
type Member struct {
	Code        string         `json:"code" db:"code" bson:"code"`
	Name        string         `json:"name" db:"name" bson:"name"`
	BookDetail  []BorrowedBook `json:"bookDetail" db:"-" bson:"bookDetail"`
	IsPenalized bool           `json:"isPenalized" db:"is_penalized" bson:"isPenalized"`
	PenalizedAt *time.Time     `json:"penalizedAt" db:"penalized_at" bson:"penalizedAt"`
	Version     int64          `json:"-" db:"version" bson:"version"`
}

// Normalize replaces a nil borrowed list with an empty one so it encodes as [].
func (m *Member) Normalize() {
	if m.BookDetail == nil {
		m.BookDetail = []BorrowedBook{}
	}
}

// BorrowedCount returns how many books the member currently holds.
func (m *Member) BorrowedCount() int {
	return len(m.BookDetail)
}

// FindBorrowed returns the index of the first entry for bookCode, or -1.
func (m *Member) FindBorrowed(bookCode string) int {
	for i, entry := range m.BookDetail {
		if entry.Code == bookCode {
			return i
		}
	}
	return -1
}

// Penalize marks the member penalized at the given time.
func (m *Member) Penalize(at time.Time) {
	t := at
	m.IsPenalized = true
	m.PenalizedAt = &t
}

// ClearPenalty lifts the penalty.
func (m *Member) ClearPenalty() {
	m.IsPenalized = false
	m.PenalizedAt = nil
}

// Clone returns a deep copy of m.
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}
	c := *m
	if m.BookDetail != nil {
		c.BookDetail = make([]BorrowedBook, len(m.BookDetail))
		copy(c.BookDetail, m.BookDetail)
	}
	if m.PenalizedAt != nil {
		t := *m.PenalizedAt
		c.PenalizedAt = &t
	}
	return &c
}
