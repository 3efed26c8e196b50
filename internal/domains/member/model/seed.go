package model

// DefaultMembers is the member list inserted into an empty store.
func DefaultMembers() []Member {
	return []Member{
		{Code: "M001", Name: "Angga", BookDetail: []BorrowedBook{}, Version: 1},
		{Code: "M002", Name: "Ferry", BookDetail: []BorrowedBook{}, Version: 1},
		{Code: "M003", Name: "Putri", BookDetail: []BorrowedBook{}, Version: 1},
	}
}
