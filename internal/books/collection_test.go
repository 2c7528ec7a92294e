package books

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lettered(names ...string) []Book {
	out := make([]Book, 0, len(names))
	for _, n := range names {
		out = append(out, NewBook(n, "author "+n))
	}
	return out
}

func titles(books []Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func assertUniqueIDs(t *testing.T, books []Book) {
	t.Helper()
	seen := make(map[uuid.UUID]struct{}, len(books))
	for _, b := range books {
		_, dup := seen[b.ID]
		require.False(t, dup, "duplicate id %s", b.ID)
		seen[b.ID] = struct{}{}
	}
}

func TestNewCollection_SeedsWithoutNotifying(t *testing.T) {
	seed := SeedData()
	c := NewCollection(seed...)

	assert.Equal(t, seed, c.List())
	assert.Equal(t, uint64(0), c.Revision())
	assert.Equal(t, []string{"Swift", "Java", "Kotlin", "Python"}, titles(c.List()))
}

func TestNewCollection_DropsDuplicateSeedIDs(t *testing.T) {
	b := NewBook("A", "a")
	c := NewCollection(b, b, Book{Title: "B"})

	require.Equal(t, 2, c.Len())
	assert.NotEqual(t, uuid.Nil, c.List()[1].ID)
}

func TestList_ReturnsCopy(t *testing.T) {
	c := NewCollection(lettered("A", "B")...)

	snapshot := c.List()
	snapshot[0].Title = "changed"

	assert.Equal(t, "A", c.List()[0].Title)
}

func TestAppend(t *testing.T) {
	c := NewCollection(lettered("A", "B")...)
	b := NewBook("C", "c")

	got, err := c.Append(b)
	require.NoError(t, err)

	list := c.List()
	assert.Equal(t, b, got)
	assert.Len(t, list, 3)
	assert.Equal(t, b, list[len(list)-1])
	assert.Equal(t, uint64(1), c.Revision())
}

func TestAppend_AssignsIDWhenZero(t *testing.T) {
	c := NewCollection()

	got, err := c.Append(Book{Title: "untitled"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, 0, c.FindIndex(got.ID))
}

func TestAppend_RejectsDuplicateID(t *testing.T) {
	seed := lettered("A")
	c := NewCollection(seed...)

	_, err := c.Append(seed[0])
	require.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, uint64(0), c.Revision())
}

func TestDeleteAt(t *testing.T) {
	tests := []struct {
		name      string
		positions []int
		want      []string
		wantErr   bool
	}{
		{name: "non adjacent", positions: []int{1, 3}, want: []string{"A", "C"}},
		{name: "order independent", positions: []int{3, 1}, want: []string{"A", "C"}},
		{name: "duplicates", positions: []int{0, 0, 2}, want: []string{"B", "D"}},
		{name: "all", positions: []int{0, 1, 2, 3}, want: []string{}},
		{name: "empty set", positions: nil, want: []string{"A", "B", "C", "D"}},
		{name: "past end", positions: []int{1, 4}, wantErr: true},
		{name: "negative", positions: []int{-1}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCollection(lettered("A", "B", "C", "D")...)
			before := c.List()

			err := c.DeleteAt(tc.positions)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidArgument)
				assert.Equal(t, before, c.List(), "rejected call must not mutate")
				assert.Equal(t, uint64(0), c.Revision())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(c.List()))
		})
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name    string
		from    []int
		to      int
		want    []string
		wantErr bool
	}{
		{name: "subset forward", from: []int{0, 2}, to: 4, want: []string{"B", "D", "A", "C", "E"}},
		{name: "single down one", from: []int{0}, to: 2, want: []string{"B", "A", "C", "D", "E"}},
		{name: "single up one", from: []int{2}, to: 1, want: []string{"A", "C", "B", "D", "E"}},
		{name: "to end", from: []int{1}, to: 5, want: []string{"A", "C", "D", "E", "B"}},
		{name: "to start", from: []int{3, 4}, to: 0, want: []string{"D", "E", "A", "B", "C"}},
		{name: "in place", from: []int{2}, to: 2, want: []string{"A", "B", "C", "D", "E"}},
		{name: "unordered from", from: []int{4, 0}, to: 2, want: []string{"B", "A", "E", "C", "D"}},
		{name: "destination past end", from: []int{0}, to: 6, wantErr: true},
		{name: "negative destination", from: []int{0}, to: -1, wantErr: true},
		{name: "source out of range", from: []int{5}, to: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCollection(lettered("A", "B", "C", "D", "E")...)
			before := c.List()

			err := c.Move(tc.from, tc.to)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidArgument)
				assert.Equal(t, before, c.List())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(c.List()))
			assert.ElementsMatch(t, before, c.List())
		})
	}
}

func TestEditField(t *testing.T) {
	seed := lettered("A", "B", "C")
	c := NewCollection(seed...)
	b := seed[1]

	require.NoError(t, c.EditField(b.ID, FieldTitle, "X"))

	list := c.List()
	assert.Equal(t, 1, c.FindIndex(b.ID))
	assert.Equal(t, Book{ID: b.ID, Title: "X", Author: b.Author}, list[1])
	assert.Equal(t, seed[0], list[0])
	assert.Equal(t, seed[2], list[2])

	require.NoError(t, c.EditField(b.ID, FieldAuthor, ""))
	assert.Equal(t, "", c.List()[1].Author)
}

func TestEditField_UnknownField(t *testing.T) {
	seed := lettered("A")
	c := NewCollection(seed...)

	err := c.EditField(seed[0].ID, Field(7), "x")
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, uint64(0), c.Revision())
}

func TestFindIndex_MissingIDPanics(t *testing.T) {
	c := NewCollection(lettered("A")...)
	missing := uuid.New()

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value should be an error, got %T", r)
		assert.True(t, errors.Is(err, ErrNotFound))
	}()

	c.FindIndex(missing)
}

func TestEditField_DeletedIDPanics(t *testing.T) {
	seed := lettered("A", "B")
	c := NewCollection(seed...)
	require.NoError(t, c.DeleteAt([]int{0}))

	assert.Panics(t, func() {
		_ = c.EditField(seed[0].ID, FieldTitle, "stale")
	})
}

func TestAppendThenDeleteLastRestores(t *testing.T) {
	c := NewCollection(SeedData()...)
	before := c.List()

	_, err := c.Append(NewPlaceholderBook())
	require.NoError(t, err)
	require.NoError(t, c.DeleteAt([]int{c.Len() - 1}))

	assert.Equal(t, before, c.List())
}

func TestUniqueIDsUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := NewCollection(SeedData()...)

	for i := 0; i < 500; i++ {
		n := c.Len()
		switch op := rng.Intn(3); {
		case op == 0 || n == 0:
			_, err := c.Append(NewPlaceholderBook())
			require.NoError(t, err)
		case op == 1:
			require.NoError(t, c.DeleteAt([]int{rng.Intn(n)}))
		default:
			before := c.List()
			from := []int{rng.Intn(n), rng.Intn(n)}
			require.NoError(t, c.Move(from, rng.Intn(n+1)))
			assert.ElementsMatch(t, before, c.List())
		}
		assertUniqueIDs(t, c.List())
	}
}

func TestOnChange(t *testing.T) {
	seed := lettered("A", "B", "C")
	c := NewCollection(seed...)

	var calls []string
	var seen [][]string
	c.OnChange(func() {
		calls = append(calls, "first")
		seen = append(seen, titles(c.List()))
	})
	c.OnChange(func() { calls = append(calls, "second") })

	_, err := c.Append(NewBook("D", "d"))
	require.NoError(t, err)
	require.NoError(t, c.Move([]int{3}, 0))
	require.NoError(t, c.EditField(seed[0].ID, FieldTitle, "A2"))
	require.NoError(t, c.DeleteAt([]int{0}))

	assert.Equal(t, []string{
		"first", "second",
		"first", "second",
		"first", "second",
		"first", "second",
	}, calls)
	assert.Equal(t, [][]string{
		{"A", "B", "C", "D"},
		{"D", "A", "B", "C"},
		{"D", "A2", "B", "C"},
		{"A2", "B", "C"},
	}, seen)
	assert.Equal(t, uint64(4), c.Revision())
}

func TestOnChange_NotCalledOnRejectedOrEmptyCalls(t *testing.T) {
	c := NewCollection(lettered("A")...)
	calls := 0
	c.OnChange(func() { calls++ })

	assert.Error(t, c.DeleteAt([]int{3}))
	assert.Error(t, c.Move([]int{0}, 9))
	assert.NoError(t, c.DeleteAt(nil))
	assert.NoError(t, c.Move(nil, 0))

	assert.Zero(t, calls)
}

func TestSubscription_Unsubscribe(t *testing.T) {
	c := NewCollection()
	var first, second int

	var sub *Subscription
	sub = c.OnChange(func() {
		first++
		sub.Unsubscribe()
	})
	c.OnChange(func() { second++ })

	for i := 0; i < 3; i++ {
		_, err := c.Append(NewPlaceholderBook())
		require.NoError(t, err)
	}
	sub.Unsubscribe()

	assert.Equal(t, 1, first)
	assert.Equal(t, 3, second)
}

func TestParseField(t *testing.T) {
	tests := []struct {
		name    string
		want    Field
		wantErr bool
	}{
		{name: "title", want: FieldTitle},
		{name: "author", want: FieldAuthor},
		{name: "isbn", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseField(tc.name)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.name, got.String())
		})
	}
}
