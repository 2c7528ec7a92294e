package books

import (
	"fmt"

	"github.com/google/uuid"
)

// Collection is the ordered list of books shown on screen. Insertion order is
// display order and every id appears at most once.
//
// A Collection is not safe for concurrent use. It expects a single writer,
// such as a UI event loop or MemoryRepository, and notifies observers
// synchronously after each mutation commits.
type Collection struct {
	items     []Book
	revision  uint64
	observers []*Subscription
	nextSubID uint64
}

// Subscription is a registered change observer.
type Subscription struct {
	id         uint64
	fn         func()
	collection *Collection
}

// Unsubscribe stops further notifications. It is safe to call more than once
// and from within the observer itself.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.collection == nil {
		return
	}
	s.collection.unsubscribe(s.id)
	s.collection = nil
}

// NewCollection returns a collection holding seed in order. Seeding does not
// notify observers. Seed books with a zero id are given a fresh one.
func NewCollection(seed ...Book) *Collection {
	c := &Collection{items: make([]Book, 0, len(seed))}
	for _, book := range seed {
		if book.ID == uuid.Nil {
			book.ID = uuid.New()
		}
		if _, ok := c.Index(book.ID); ok {
			continue
		}
		c.items = append(c.items, book)
	}
	return c
}

// List returns a snapshot of the books in display order.
func (c *Collection) List() []Book {
	out := make([]Book, len(c.items))
	copy(out, c.items)
	return out
}

// Len reports the number of books.
func (c *Collection) Len() int {
	return len(c.items)
}

// Revision counts the mutations committed so far.
func (c *Collection) Revision() uint64 {
	return c.revision
}

// OnChange registers fn to be called after every successful mutation.
func (c *Collection) OnChange(fn func()) *Subscription {
	c.nextSubID++
	sub := &Subscription{id: c.nextSubID, fn: fn, collection: c}
	c.observers = append(c.observers, sub)
	return sub
}

func (c *Collection) unsubscribe(id uint64) {
	for i, sub := range c.observers {
		if sub.id == id {
			c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
			return
		}
	}
}

// Append adds book to the end of the list. A zero id is replaced with a
// fresh one.
func (c *Collection) Append(book Book) (Book, error) {
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	if _, ok := c.Index(book.ID); ok {
		return Book{}, fmt.Errorf("%w: %s", ErrDuplicateID, book.ID)
	}

	c.items = append(c.items, book)
	c.commit()
	return book, nil
}

// DeleteAt removes every book whose current position is in positions, in a
// single step. Duplicate positions are ignored. Any out-of-range position
// rejects the whole call.
func (c *Collection) DeleteAt(positions []int) error {
	selected, err := c.selection(positions)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return nil
	}

	kept := make([]Book, 0, len(c.items)-len(selected))
	for i, book := range c.items {
		if _, drop := selected[i]; !drop {
			kept = append(kept, book)
		}
	}

	c.items = kept
	c.commit()
	return nil
}

// Move relocates the books at from, keeping their relative order, so that
// they sit in front of the book that was at position to. A to equal to Len
// moves them to the end.
func (c *Collection) Move(from []int, to int) error {
	if to < 0 || to > len(c.items) {
		return fmt.Errorf("%w: destination %d outside [0, %d]", ErrInvalidArgument, to, len(c.items))
	}
	selected, err := c.selection(from)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return nil
	}

	moved := make([]Book, 0, len(selected))
	rest := make([]Book, 0, len(c.items)-len(selected))
	before := 0
	for i, book := range c.items {
		if _, ok := selected[i]; ok {
			moved = append(moved, book)
			if i < to {
				before++
			}
			continue
		}
		rest = append(rest, book)
	}

	at := to - before
	items := make([]Book, 0, len(c.items))
	items = append(items, rest[:at]...)
	items = append(items, moved...)
	items = append(items, rest[at:]...)

	c.items = items
	c.commit()
	return nil
}

// Index returns the current position of the book with id.
func (c *Collection) Index(id uuid.UUID) (int, bool) {
	for i := range c.items {
		if c.items[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// FindIndex returns the current position of the book with id. Callers must
// only pass ids taken from the current snapshot; an unknown id is a
// programming error and panics with an error wrapping ErrNotFound.
func (c *Collection) FindIndex(id uuid.UUID) int {
	i, ok := c.Index(id)
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	return i
}

// EditField replaces one field of the book with id. It panics like
// FindIndex when id is unknown.
func (c *Collection) EditField(id uuid.UUID, field Field, value string) error {
	if field != FieldTitle && field != FieldAuthor {
		return fmt.Errorf("%w: unknown field %s", ErrInvalidArgument, field)
	}

	i := c.FindIndex(id)
	switch field {
	case FieldTitle:
		c.items[i].Title = value
	case FieldAuthor:
		c.items[i].Author = value
	}

	c.commit()
	return nil
}

func (c *Collection) selection(positions []int) (map[int]struct{}, error) {
	selected := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(c.items) {
			return nil, fmt.Errorf("%w: position %d outside [0, %d)", ErrInvalidArgument, p, len(c.items))
		}
		selected[p] = struct{}{}
	}
	return selected, nil
}

func (c *Collection) commit() {
	c.revision++

	observers := make([]*Subscription, len(c.observers))
	copy(observers, c.observers)
	for _, sub := range observers {
		if sub.collection == nil {
			continue
		}
		sub.fn()
	}
}
