package memstore

import (
	"testing"

	bookModel "library-backend/internal/domains/book/model"
	memberModel "library-backend/internal/domains/member/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutKeepsFirstInsert(t *testing.T) {
	s := New()

	assert.True(t, s.PutBook(&bookModel.Book{Code: "JK-45", Title: "Harry Potter", Stock: 1}))
	assert.False(t, s.PutBook(&bookModel.Book{Code: "JK-45", Title: "Other", Stock: 9}))
	assert.True(t, s.PutBook(&bookModel.Book{Code: "TW-11", Title: "Twilight", Stock: 1}))

	require.Equal(t, []string{"JK-45", "TW-11"}, s.BookOrder)
	assert.Equal(t, "Harry Potter", s.Books["JK-45"].Title)
}

func TestStore_PutStoresCopies(t *testing.T) {
	s := New()
	m := &memberModel.Member{Code: "M001", Name: "Angga", BookDetail: []memberModel.BorrowedBook{{Code: "JK-45"}}}

	require.True(t, s.PutMember(m))
	m.BookDetail[0].Code = "changed"

	assert.Equal(t, "JK-45", s.Members["M001"].BookDetail[0].Code)
	assert.Equal(t, []string{"M001"}, s.MemberOrder)
}

func TestStore_Reset(t *testing.T) {
	s := New()
	s.PutBook(&bookModel.Book{Code: "JK-45"})
	s.PutMember(&memberModel.Member{Code: "M001"})

	s.Reset()

	assert.Empty(t, s.Books)
	assert.Empty(t, s.BookOrder)
	assert.Empty(t, s.Members)
	assert.Empty(t, s.MemberOrder)
}
