package model

// Book is one catalog title and the number of copies on the shelf.
type Book struct {
	Code    string `json:"code" db:"code" bson:"code"`
	Title   string `json:"title" db:"title" bson:"title"`
	Author  string `json:"author" db:"author" bson:"author"`
	Stock   int    `json:"stock" db:"stock" bson:"stock"`
	Version int64  `json:"-" db:"version" bson:"version"`
}

// IsAvailable reports whether at least one copy can be borrowed.
func (b *Book) IsAvailable() bool {
	return b.Stock > 0
}

// Clone returns a copy that shares no memory with b.
func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}
