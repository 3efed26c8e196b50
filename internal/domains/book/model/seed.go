package model

// DefaultBooks is the catalog inserted into an empty store.
func DefaultBooks() []Book {
	return []Book{
		{Code: "JK-45", Title: "Harry Potter", Author: "J.K Rowling", Stock: 1, Version: 1},
		{Code: "SHR-1", Title: "A Study in Scarlet", Author: "Arthur Conan Doyle", Stock: 1, Version: 1},
		{Code: "TW-11", Title: "Twilight", Author: "Stephenie Meyer", Stock: 1, Version: 1},
		{Code: "HOB-83", Title: "The Hobbit, or There and Back Again", Author: "J.R.R. Tolkien", Stock: 1, Version: 1},
		{Code: "NRN-7", Title: "The Lion, the Witch and the Wardrobe", Author: "C.S. Lewis", Stock: 1, Version: 1},
	}
}
