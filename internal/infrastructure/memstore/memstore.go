// Package memstore is the process-local backing store used by the memory repositories.
package memstore

import (
	"sync"

	bookModel "library-backend/internal/domains/book/model"
	memberModel "library-backend/internal/domains/member/model"
)

// Store keeps books and members in insertion order.
// Repositories built on the same Store share its lock so a lending
// mutation touching a book and a member is atomic.
type Store struct {
	Mu sync.RWMutex

	Books     map[string]*bookModel.Book
	BookOrder []string

	Members     map[string]*memberModel.Member
	MemberOrder []string
}

func New() *Store {
	return &Store{
		Books:   make(map[string]*bookModel.Book),
		Members: make(map[string]*memberModel.Member),
	}
}

// PutBook inserts b unless its code exists. Callers hold Mu.
func (s *Store) PutBook(b *bookModel.Book) bool {
	if _, ok := s.Books[b.Code]; ok {
		return false
	}
	s.Books[b.Code] = b.Clone()
	s.BookOrder = append(s.BookOrder, b.Code)
	return true
}

// PutMember inserts m unless its code exists. Callers hold Mu.
func (s *Store) PutMember(m *memberModel.Member) bool {
	if _, ok := s.Members[m.Code]; ok {
		return false
	}
	s.Members[m.Code] = m.Clone()
	s.MemberOrder = append(s.MemberOrder, m.Code)
	return true
}

// Reset drops all data.
func (s *Store) Reset() {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	s.Books = make(map[string]*bookModel.Book)
	s.BookOrder = nil
	s.Members = make(map[string]*memberModel.Member)
	s.MemberOrder = nil
}
