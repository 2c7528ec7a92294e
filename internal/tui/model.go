// Package tui provides the terminal book list screen.
//
// # Description
//
// The screen renders a books.Collection and turns key presses into
// collection operations: append, delete, move and field edits. It re-reads
// the full list on every render.
//
// # Thread Safety
//
// The model owns the collection for the lifetime of the program. All
// mutations happen inside the bubbletea event loop, which makes it the
// single writer the collection expects. Do not touch the collection from
// other goroutines while the program runs.
package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/ugur10/go-bookshelf/internal/books"
)

// =============================================================================
// Styles
// =============================================================================

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bookStyle     = lipgloss.NewStyle().Bold(true)
	authorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	buttonStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const formHelp = "tab switch field • enter save • esc cancel"

// =============================================================================
// Model
// =============================================================================

// status is shared between the model copies bubbletea passes around and the
// change observer registered on the collection.
type status struct {
	revision uint64
	err      error
}

// editForm edits the title and author of one book. An inline form is drawn
// in place of the selected row; otherwise it takes the whole screen.
type editForm struct {
	id     uuid.UUID
	inputs [2]textinput.Model
	focus  int
	inline bool
}

// Model is the bubbletea model for the book list screen.
type Model struct {
	books  *books.Collection
	sub    *books.Subscription
	logger *slog.Logger

	cursor  int
	editing bool
	form    *editForm
	status  *status

	quitting bool
}

// New returns a model bound to c. Call Close when the program exits to drop
// the change subscription.
func New(c *books.Collection, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	st := &status{revision: c.Revision()}
	sub := c.OnChange(func() {
		st.revision = c.Revision()
		logger.Debug("book list changed", "revision", st.revision, "books", c.Len())
	})

	return Model{
		books:  c,
		sub:    sub,
		logger: logger,
		status: st,
	}
}

// Close stops observing the collection.
func (m Model) Close() {
	m.sub.Unsubscribe()
}

// Editing reports whether edit mode is on.
func (m Model) Editing() bool {
	return m.editing
}

// Cursor returns the selected row.
func (m Model) Cursor() int {
	return m.cursor
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.books.Len()

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}

	case "+", "a":
		book, err := m.books.Append(books.NewPlaceholderBook())
		if m.record("append", err) {
			m.cursor = m.books.FindIndex(book.ID)
		}

	case "e":
		m.editing = !m.editing

	case "enter":
		if n > 0 {
			return m.openForm()
		}

	case "d", "delete":
		if m.editing && n > 0 {
			if m.record("delete", m.books.DeleteAt([]int{m.cursor})) && m.cursor >= m.books.Len() && m.cursor > 0 {
				m.cursor--
			}
		}

	case "K", "shift+up":
		if m.editing && m.cursor > 0 {
			if m.record("move", m.books.Move([]int{m.cursor}, m.cursor-1)) {
				m.cursor--
			}
		}

	case "J", "shift+down":
		if m.editing && m.cursor < n-1 {
			if m.record("move", m.books.Move([]int{m.cursor}, m.cursor+2)) {
				m.cursor++
			}
		}
	}
	return m, nil
}

// record logs the outcome of op and reports whether it succeeded.
func (m Model) record(op string, err error) bool {
	m.status.err = err
	if err != nil {
		m.logger.Error("book list operation failed", "op", op, "error", err)
		return false
	}
	return true
}

func (m Model) openForm() (tea.Model, tea.Cmd) {
	book := m.books.List()[m.cursor]

	f := &editForm{id: book.ID, inline: m.editing}
	for i, field := range []struct {
		label string
		value string
	}{
		{"Title", book.Title},
		{"Author", book.Author},
	} {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("%-8s", field.label+":")
		ti.Placeholder = field.label
		ti.CharLimit = 256
		ti.SetValue(field.value)
		f.inputs[i] = ti
	}
	cmd := f.inputs[0].Focus()

	m.form = f
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form

	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		m.form = nil
		return m, nil

	case "tab", "shift+tab", "up", "down":
		f.inputs[f.focus].Blur()
		f.focus = (f.focus + 1) % len(f.inputs)
		return m, f.inputs[f.focus].Focus()

	case "enter":
		m.saveForm()
		m.form = nil
		return m, nil
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

// saveForm writes back the fields that changed. The form's book cannot have
// been removed while the form was open, so the lookup by id always succeeds.
func (m Model) saveForm() {
	f := m.form
	current := m.books.List()[m.books.FindIndex(f.id)]

	fields := []struct {
		field books.Field
		old   string
		value string
	}{
		{books.FieldTitle, current.Title, f.inputs[0].Value()},
		{books.FieldAuthor, current.Author, f.inputs[1].Value()},
	}
	for _, fv := range fields {
		if fv.old == fv.value {
			continue
		}
		if !m.record("edit", m.books.EditField(f.id, fv.field, fv.value)) {
			return
		}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.form != nil && !m.form.inline {
		return m.viewForm()
	}

	var b strings.Builder

	button := "Edit"
	if m.editing {
		button = "Done"
	}
	b.WriteString(titleStyle.Render("Book Store") + "  " + buttonStyle.Render("["+button+"]") + "  " + buttonStyle.Render("[+]"))
	b.WriteString("\n\n")

	list := m.books.List()
	if len(list) == 0 {
		b.WriteString(authorStyle.Render("No books. Press + to add one."))
		b.WriteString("\n")
	}
	for i, book := range list {
		marker := "  "
		if i == m.cursor {
			marker = selectedStyle.Render("> ")
		}
		if m.form != nil && m.form.inline && i == m.cursor {
			b.WriteString(marker + m.form.inputs[0].View() + "\n")
			b.WriteString("  " + m.form.inputs[1].View() + "\n")
			continue
		}
		handle := ""
		if m.editing {
			handle = authorStyle.Render(" ≡")
		}
		b.WriteString(marker + bookStyle.Render(book.Title) + handle + "\n")
		b.WriteString("  " + authorStyle.Render(book.Author) + "\n")
	}

	if m.status.err != nil {
		b.WriteString(errorStyle.Render(m.status.err.Error()) + "\n")
	}
	b.WriteString(helpStyle.Render(m.help()))
	return b.String()
}

func (m Model) help() string {
	if m.form != nil {
		return formHelp
	}
	keys := "↑/↓ select • enter edit • + add • e edit mode • q quit"
	if m.editing {
		keys = "↑/↓ select • K/J move • d delete • enter edit • e done • q quit"
	}
	return fmt.Sprintf("%s • rev %d", keys, m.status.revision)
}

func (m Model) viewForm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Edit Book") + "\n\n")
	for _, in := range m.form.inputs {
		b.WriteString(in.View() + "\n")
	}
	b.WriteString(helpStyle.Render(formHelp))
	return b.String()
}

// Run starts the screen on the terminal and blocks until the user quits.
func Run(c *books.Collection, logger *slog.Logger, opts ...tea.ProgramOption) error {
	m := New(c, logger)
	defer m.Close()

	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("run book list screen: %w", err)
	}
	return nil
}
