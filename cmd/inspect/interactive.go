package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wirebeam/graphcodec/msgpack"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// row is one visible line of the flattened tree.
type row struct {
	node  *msgpack.Node
	label string
	depth int
}

type inspectModel struct {
	err       error
	expanded  map[*msgpack.Node]bool
	filename  string
	roots     []*msgpack.Node
	rows      []row
	search    textinput.Model
	cursor    int
	offset    int
	height    int
	searching bool
}

type loadedMsg struct {
	err   error
	roots []*msgpack.Node
}

func newInspectModel(filename string) *inspectModel {
	ti := textinput.New()
	ti.Placeholder = "key or value"
	ti.Prompt = "/"
	ti.Width = 40
	return &inspectModel{
		filename: filename,
		expanded: make(map[*msgpack.Node]bool),
		search:   ti,
		height:   24,
	}
}

func (m *inspectModel) Init() tea.Cmd {
	return m.loadFile
}

func (m *inspectModel) loadFile() tea.Msg {
	f, err := os.Open(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	defer f.Close()

	roots, err := readAll(f)
	if err != nil {
		return loadedMsg{err: err}
	}
	if len(roots) == 0 {
		return loadedMsg{err: fmt.Errorf("empty input")}
	}
	return loadedMsg{roots: roots}
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.roots = msg.roots
		for _, root := range m.roots {
			m.expanded[root] = true
		}
		m.reflow()

	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter":
				m.searching = false
				m.search.Blur()
				m.jumpTo(m.search.Value())
			case "esc":
				m.searching = false
				m.search.Blur()
			default:
				var cmd tea.Cmd
				m.search, cmd = m.search.Update(msg)
				return m, cmd
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}

		case "enter", " ":
			m.toggle()

		case "e":
			m.expandAll(true)
			m.reflow()

		case "c":
			m.expandAll(false)
			m.reflow()

		case "/":
			m.searching = true
			m.search.SetValue("")
			m.search.Focus()
		}
	}

	m.clampScroll()
	return m, nil
}

func (m *inspectModel) toggle() {
	if m.cursor >= len(m.rows) {
		return
	}
	n := m.rows[m.cursor].node
	if n.Type != msgpack.ArrayNode && n.Type != msgpack.MapNode {
		return
	}
	m.expanded[n] = !m.expanded[n]
	m.reflow()
}

func (m *inspectModel) expandAll(open bool) {
	var walk func(n *msgpack.Node)
	walk = func(n *msgpack.Node) {
		switch n.Type {
		case msgpack.ArrayNode:
			m.expanded[n] = open
			for _, item := range n.Items {
				walk(item)
			}
		case msgpack.MapNode:
			m.expanded[n] = open
			for _, e := range n.Entries {
				walk(e.Value)
			}
		}
	}
	for _, root := range m.roots {
		walk(root)
	}
	if !open {
		// keep the roots visible
		for _, root := range m.roots {
			m.expanded[root] = true
		}
	}
}

// reflow rebuilds the visible row list from the expansion state.
func (m *inspectModel) reflow() {
	m.rows = m.rows[:0]
	var walk func(n *msgpack.Node, label string, depth int)
	walk = func(n *msgpack.Node, label string, depth int) {
		m.rows = append(m.rows, row{node: n, label: label, depth: depth})
		if !m.expanded[n] {
			return
		}
		switch n.Type {
		case msgpack.ArrayNode:
			for i, item := range n.Items {
				walk(item, fmt.Sprintf("[%d]", i), depth+1)
			}
		case msgpack.MapNode:
			for _, e := range n.Entries {
				walk(e.Value, keyString(e.Key), depth+1)
			}
		}
	}
	for i, root := range m.roots {
		label := ""
		if len(m.roots) > 1 {
			label = fmt.Sprintf("value %d", i+1)
		}
		walk(root, label, 0)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
}

// jumpTo moves the cursor to the next row whose label or summary contains
// the query, wrapping around.
func (m *inspectModel) jumpTo(query string) {
	if query == "" || len(m.rows) == 0 {
		return
	}
	query = strings.ToLower(query)
	for i := 1; i <= len(m.rows); i++ {
		idx := (m.cursor + i) % len(m.rows)
		r := m.rows[idx]
		if strings.Contains(strings.ToLower(r.label), query) ||
			strings.Contains(strings.ToLower(r.node.Summary()), query) {
			m.cursor = idx
			return
		}
	}
}

func (m *inspectModel) clampScroll() {
	visible := m.height - 4
	if visible < 1 {
		visible = 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m *inspectModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if len(m.rows) == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Wire Inspector"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	visible := m.height - 4
	if visible < 1 {
		visible = 1
	}
	end := m.offset + visible
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.formatRow(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.searching {
		b.WriteString(m.search.View())
	} else {
		b.WriteString(helpStyle.Render("↑/↓ move • enter toggle • e expand all • c collapse • / search • q quit"))
	}
	return b.String()
}

func (m *inspectModel) formatRow(i int) string {
	r := m.rows[i]
	marker := "  "
	if r.node.Type == msgpack.ArrayNode || r.node.Type == msgpack.MapNode {
		if m.expanded[r.node] {
			marker = "▾ "
		} else {
			marker = "▸ "
		}
	}

	line := strings.Repeat("  ", r.depth) + marker
	if i == m.cursor {
		text := line
		if r.label != "" {
			text += r.label + ": "
		}
		text += r.node.Summary()
		return selectedStyle.Render(text)
	}
	if r.label != "" {
		line += labelStyle.Render(r.label) + ": "
	}
	return line + valueStyle.Render(r.node.Summary())
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInspectModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
