// Package tui provides a terminal UI over a live view: the current row
// window rendered as a table, kept fresh by the view's update channel,
// with an input-driven search overlay.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Moe03/suparisma/pkg/liveview"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// refreshMsg signals that the view's observable state changed.
type refreshMsg struct{}

// opDoneMsg carries the result of a fire-and-forget mutation.
type opDoneMsg struct{ err error }

// Model is the bubbletea model wrapping one live view.
type Model struct {
	view        *liveview.View
	searchField string

	input     textinput.Model
	searching bool
	cursor    int
	width     int
	height    int
	opErr     error
}

// New creates a model over view. searchField is the field the search
// input queries; it must be in the view's searchable set.
func New(view *liveview.View, searchField string) Model {
	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "search " + searchField
	input.CharLimit = 64
	return Model{view: view, searchField: searchField, input: input}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

// waitForUpdate blocks on the view's coalesced update channel.
func (m Model) waitForUpdate() tea.Cmd {
	updates := m.view.Updates()
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return tea.Quit()
		}
		return refreshMsg{}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		m.clampCursor()
		return m, m.waitForUpdate()

	case opDoneMsg:
		m.opErr = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

// updateBrowse handles keys while browsing the row list.
func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.searching = true
		m.input.Focus()
		return m, textinput.Blink
	case "j", "down":
		m.cursor++
		m.clampCursor()
	case "k", "up":
		m.cursor--
		m.clampCursor()
	case "r":
		return m, func() tea.Msg {
			return opDoneMsg{err: m.view.Refresh(context.Background(), nil)}
		}
	case "x":
		state := m.view.Snapshot()
		if m.cursor < len(state.Rows) {
			key := state.Rows[m.cursor][m.view.Options().KeyField]
			return m, func() tea.Msg {
				_, err := m.view.Delete(context.Background(), key)
				return opDoneMsg{err: err}
			}
		}
	}
	return m, nil
}

// updateSearch handles keys while the search input is focused. Every
// edit feeds the overlay; the debounce keeps gateway traffic sane.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.input.Blur()
		m.input.SetValue("")
		m.view.ClearQueries()
		return m, nil
	case "enter":
		m.searching = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := strings.TrimSpace(m.input.Value()); value == "" {
		m.view.RemoveQuery(m.searchField)
	} else {
		m.view.AddQuery(m.searchField, value)
	}
	return m, cmd
}

func (m *Model) clampCursor() {
	n := len(m.view.Snapshot().Rows)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View implements tea.Model.
func (m Model) View() string {
	state := m.view.Snapshot()

	var b strings.Builder
	title := fmt.Sprintf(" %s — %d total", m.view.Table(), state.TotalCount)
	if state.Loading || state.Search.Loading {
		title += " (loading…)"
	}
	if state.Search.Active() {
		title += " [search]"
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")

	if len(state.Rows) == 0 {
		b.WriteString(dimStyle.Render("  no rows"))
		b.WriteString("\n")
	}
	for i, row := range state.Rows {
		line := "  " + renderRow(row, m.view.Options().KeyField, m.width)
		if i == m.cursor && !m.searching {
			line = selectedStyle.Render("> " + renderRow(row, m.view.Options().KeyField, m.width))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.searching {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if state.Err != nil {
		b.WriteString(errStyle.Render("error: " + state.Err.Error()))
		b.WriteString("\n")
	} else if m.opErr != nil {
		b.WriteString(errStyle.Render("error: " + m.opErr.Error()))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("j/k move · / search · x delete · r refresh · q quit"))
	return b.String()
}

// renderRow flattens a row into "key  field=value …", identifier first,
// remaining fields in name order, truncated to the terminal width.
func renderRow(row map[string]any, keyField string, width int) string {
	fields := make([]string, 0, len(row))
	for f := range row {
		if f != keyField {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)

	parts := []string{fmt.Sprint(row[keyField])}
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f, row[f]))
	}
	line := strings.Join(parts, "  ")
	if width > 4 && len(line) > width-4 {
		line = line[:width-4] + "…"
	}
	return line
}
