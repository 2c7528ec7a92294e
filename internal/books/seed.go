package books

// SeedData returns the books the list starts with. Each call assigns new ids.
func SeedData() []Book {
	return []Book{
		NewBook("Swift", "Altin Kelmendi"),
		NewBook("Java", "Author 1"),
		NewBook("Kotlin", "Author 2"),
		NewBook("Python", "Author 3"),
	}
}
