package books

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository serialises access to a Collection so that concurrent
// callers see a single writer.
type MemoryRepository struct {
	mu         sync.RWMutex
	collection *Collection
}

// NewMemoryRepository constructs a MemoryRepository seeded with the provided books.
func NewMemoryRepository(seed []Book) *MemoryRepository {
	return &MemoryRepository{
		collection: NewCollection(seed...),
	}
}

// OnChange registers fn to receive the snapshot committed by each mutation.
// fn runs while the repository is locked and must not call back into it.
func (r *MemoryRepository) OnChange(fn func(snapshot []Book, revision uint64)) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.collection
	return c.OnChange(func() {
		fn(c.List(), c.Revision())
	})
}

// Unsubscribe removes a subscription returned by OnChange.
func (r *MemoryRepository) Unsubscribe(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub.Unsubscribe()
}

// List returns all books in display order along with the current revision.
func (r *MemoryRepository) List(_ context.Context) ([]Book, uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collection.List(), r.collection.Revision(), nil
}

// Get retrieves a book by its ID.
func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (Book, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.collection.Index(id)
	if !ok {
		return Book{}, false, nil
	}
	return r.collection.items[i], true, nil
}

// Create appends a book to the end of the list, assigning an ID when the
// book has none.
func (r *MemoryRepository) Create(_ context.Context, book Book) (Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.collection.Append(book)
}

// Update replaces one field of the book with the given ID if it exists.
func (r *MemoryRepository) Update(_ context.Context, id uuid.UUID, field Field, value string) (Book, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.collection.Index(id)
	if !ok {
		return Book{}, false, nil
	}
	if err := r.collection.EditField(id, field, value); err != nil {
		return Book{}, true, err
	}
	return r.collection.items[i], true, nil
}

// Delete removes the books at the given positions and returns the remaining
// list with its revision.
func (r *MemoryRepository) Delete(_ context.Context, positions []int) ([]Book, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.collection.DeleteAt(positions); err != nil {
		return nil, 0, err
	}
	return r.collection.List(), r.collection.Revision(), nil
}

// Move relocates the books at from to the destination and returns the new
// list with its revision.
func (r *MemoryRepository) Move(_ context.Context, from []int, to int) ([]Book, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.collection.Move(from, to); err != nil {
		return nil, 0, err
	}
	return r.collection.List(), r.collection.Revision(), nil
}
