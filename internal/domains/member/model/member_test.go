package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMember_PenaltyFlags(t *testing.T) {
	m := &Member{Code: "M001"}
	at := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	m.Penalize(at)
	assert.True(t, m.IsPenalized)
	if assert.NotNil(t, m.PenalizedAt) {
		assert.Equal(t, at, *m.PenalizedAt)
	}

	m.ClearPenalty()
	assert.False(t, m.IsPenalized)
	assert.Nil(t, m.PenalizedAt)
}

func TestMember_CloneIsDeep(t *testing.T) {
	at := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	m := &Member{Code: "M001", BookDetail: []BorrowedBook{{Code: "JK-45", BorrowedAt: at}}}
	m.Penalize(at)

	c := m.Clone()
	c.BookDetail[0].Code = "TW-11"
	*c.PenalizedAt = at.Add(time.Hour)

	assert.Equal(t, "JK-45", m.BookDetail[0].Code)
	assert.Equal(t, at, *m.PenalizedAt)
}

func TestMember_FindBorrowed(t *testing.T) {
	m := &Member{BookDetail: []BorrowedBook{{Code: "JK-45"}, {Code: "TW-11"}}}

	assert.Equal(t, 1, m.FindBorrowed("TW-11"))
	assert.Equal(t, -1, m.FindBorrowed("NRN-7"))
	assert.Equal(t, 2, m.BorrowedCount())
}

func TestDefaultMembers(t *testing.T) {
	members := DefaultMembers()

	assert.Len(t, members, 3)
	for _, m := range members {
		assert.Empty(t, m.BookDetail)
		assert.False(t, m.IsPenalized)
	}
}
