package books

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const (
	placeholderTitle  = "New Book"
	placeholderAuthor = "New Author"
)

// Book represents a single book in the collection.
type Book struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Author string    `json:"author"`
}

// NewBook returns a book with a freshly assigned identifier.
func NewBook(title, author string) Book {
	return Book{
		ID:     uuid.New(),
		Title:  title,
		Author: author,
	}
}

// NewPlaceholderBook returns the record appended when the user adds a book
// without entering any details.
func NewPlaceholderBook() Book {
	return NewBook(placeholderTitle, placeholderAuthor)
}

// Field names an editable attribute of a Book.
type Field int

const (
	FieldTitle Field = iota
	FieldAuthor
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldAuthor:
		return "author"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// ParseField maps a field name to its Field.
func ParseField(name string) (Field, error) {
	switch name {
	case "title":
		return FieldTitle, nil
	case "author":
		return FieldAuthor, nil
	default:
		return 0, fmt.Errorf("%w: unknown field %q", ErrInvalidArgument, name)
	}
}

// Repository describes the behaviour required for serving the collection to
// concurrent callers.
type Repository interface {
	List(ctx context.Context) ([]Book, uint64, error)
	Get(ctx context.Context, id uuid.UUID) (Book, bool, error)
	Create(ctx context.Context, book Book) (Book, error)
	Update(ctx context.Context, id uuid.UUID, field Field, value string) (Book, bool, error)
	Delete(ctx context.Context, positions []int) ([]Book, uint64, error)
	Move(ctx context.Context, from []int, to int) ([]Book, uint64, error)
}
