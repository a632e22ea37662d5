// Package input provides the criteria query input for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/styles"
)

// Placeholder hints at the criteria syntax the search view accepts.
const Placeholder = "ford focus price<8000 mileage<60000 colour=blue"

// MaxRecall bounds the number of remembered queries.
const MaxRecall = 50

// Validator checks a query as it is typed. A nil error means the query
// can be submitted.
type Validator func(query string) error

// QueryInput is a single-line criteria input. It validates as the user
// types and recalls earlier queries with up/down or ctrl+p/ctrl+n.
type QueryInput struct {
	field    textinput.Model
	styles   *styles.Styles
	validate Validator
	width    int

	recalled []string
	cursor   int // len(recalled) means "not recalling"
	draft    string
	problem  error
}

// NewQueryInput creates a focused query input. validate may be nil.
func NewQueryInput(s *styles.Styles, validate Validator) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	field := textinput.New()
	field.Prompt = "› "
	field.Placeholder = Placeholder
	field.CharLimit = 256
	field.Width = 50
	field.Focus()

	return &QueryInput{
		field:    field,
		styles:   s,
		validate: validate,
		width:    50,
	}
}

// Init starts the cursor blink.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses, recall and revalidation.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && q.field.Focused() {
		switch key.String() {
		case "up", "ctrl+p":
			q.recall(-1)
			return q, nil
		case "down", "ctrl+n":
			q.recall(1)
			return q, nil
		}
	}

	var cmd tea.Cmd
	q.field, cmd = q.field.Update(msg)
	q.check()
	return q, cmd
}

// recall steps through remembered queries. Stepping past the newest entry
// restores whatever was being typed before recall started.
func (q *QueryInput) recall(step int) {
	if len(q.recalled) == 0 {
		return
	}
	if q.cursor == len(q.recalled) {
		q.draft = q.field.Value()
	}

	next := q.cursor + step
	if next < 0 {
		next = 0
	}
	if next > len(q.recalled) {
		next = len(q.recalled)
	}
	q.cursor = next

	if q.cursor == len(q.recalled) {
		q.field.SetValue(q.draft)
	} else {
		q.field.SetValue(q.recalled[q.cursor])
	}
	q.field.CursorEnd()
	q.check()
}

func (q *QueryInput) check() {
	q.problem = nil
	if q.validate == nil || q.field.Value() == "" {
		return
	}
	q.problem = q.validate(q.field.Value())
}

// Remember records a submitted query for recall. Repeating the most recent
// query is a no-op.
func (q *QueryInput) Remember(query string) {
	if query == "" {
		return
	}
	if n := len(q.recalled); n == 0 || q.recalled[n-1] != query {
		q.recalled = append(q.recalled, query)
		if len(q.recalled) > MaxRecall {
			q.recalled = q.recalled[len(q.recalled)-MaxRecall:]
		}
	}
	q.cursor = len(q.recalled)
	q.draft = ""
}

// Recalled returns remembered queries, oldest first.
func (q *QueryInput) Recalled() []string {
	return q.recalled
}

// Problem returns the validation error for the current text, if any.
func (q *QueryInput) Problem() error {
	return q.problem
}

// View renders the field and a one-line hint beneath it.
func (q *QueryInput) View() string {
	field := q.styles.InputField.Width(q.width).Render(q.field.View())

	var hint string
	switch {
	case q.problem != nil:
		hint = q.styles.Error.Render("  " + q.problem.Error())
	case q.field.Value() == "":
		hint = q.styles.Help.Render("  make [model] then key<value, key>value or key=value")
	default:
		hint = q.styles.Muted.Render("  enter to search")
	}

	return lipgloss.JoinVertical(lipgloss.Left, field, hint)
}

// Value returns the current text.
func (q *QueryInput) Value() string {
	return q.field.Value()
}

// SetValue replaces the text and revalidates.
func (q *QueryInput) SetValue(value string) {
	q.field.SetValue(value)
	q.check()
}

// Focus gives the field keyboard focus.
func (q *QueryInput) Focus() tea.Cmd {
	return q.field.Focus()
}

// Blur removes focus.
func (q *QueryInput) Blur() {
	q.field.Blur()
}

// Focused reports whether the field has focus.
func (q *QueryInput) Focused() bool {
	return q.field.Focused()
}

// SetWidth sets the outer width; the field keeps room for its border.
func (q *QueryInput) SetWidth(width int) {
	q.width = max(width-4, 24)
	q.field.Width = q.width - 4
}

// Width returns the outer width.
func (q *QueryInput) Width() int {
	return q.width
}

// Reset clears the text and any validation error. Recall is kept.
func (q *QueryInput) Reset() {
	q.field.Reset()
	q.problem = nil
	q.cursor = len(q.recalled)
	q.draft = ""
}
