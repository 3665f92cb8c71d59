package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quillhq/commit-journal/internal/display"
	"github.com/quillhq/commit-journal/internal/journal"
)

// Styles
var (
	listPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	detailPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("255"))
)

// dayEntry flattens all loaded days into one scrollable list.
type dayEntry struct {
	day   time.Time
	entry journal.Entry
}

// model is the Bubble Tea model for the journal browser.
type model struct {
	root         string
	items        []dayEntry
	cursor       int
	listOffset   int
	detailOffset int
	width        int
	height       int
	quitting     bool
}

// newModel loads every day of the journal, newest last, and starts the
// cursor on the newest entry.
func newModel(root string) (model, error) {
	m := model{root: root}
	for _, day := range journal.Days(root) {
		entries, err := journal.ReadDay(root, day)
		if err != nil {
			continue
		}
		for _, e := range entries {
			m.items = append(m.items, dayEntry{day: day, entry: e})
		}
	}
	if len(m.items) == 0 {
		return m, errors.New("journal is empty")
	}
	m.cursor = len(m.items) - 1
	return m, nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "j", "down":
			if m.cursor < len(m.items)-1 {
				m.cursor++
				m.detailOffset = 0
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
				m.detailOffset = 0
			}
		case "g", "home":
			m.cursor = 0
			m.detailOffset = 0
		case "G", "end":
			m.cursor = len(m.items) - 1
			m.detailOffset = 0

		case "J", "shift+down":
			m.detailOffset++
		case "K", "shift+up":
			if m.detailOffset > 0 {
				m.detailOffset--
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	m.adjustListScroll()
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.width < 20 || m.height < 10 {
		return "Loading..."
	}

	contentHeight := max(m.height-3, 5)
	listWidth := max(m.width*2/5, 10)
	detailWidth := max(m.width-listWidth-1, 10)

	listPanel := listPanelStyle.
		Width(max(listWidth-2, 5)).
		Height(max(contentHeight-2, 3)).
		Render(m.renderList(max(listWidth-2, 5), max(contentHeight-2, 3)))

	detailPanel := detailPanelStyle.
		Width(max(detailWidth-2, 5)).
		Height(max(contentHeight-2, 3)).
		Render(m.renderDetail(max(detailWidth-2, 5), max(contentHeight-2, 3)))

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, detailPanel)
	return lipgloss.JoinVertical(lipgloss.Left, content, m.renderStatusBar())
}

func (m model) renderList(width, height int) string {
	var lines []string
	end := min(m.listOffset+height, len(m.items))
	var prevDay string
	if m.listOffset > 0 {
		prevDay = display.Day(m.items[m.listOffset-1].day)
	}
	for i := m.listOffset; i < end; i++ {
		it := m.items[i]
		label := it.entry.Heading
		if d := display.Day(it.day); d != prevDay {
			label = d + "  " + label
			prevDay = d
		}
		line := display.TruncateText(label, width)
		if len(line) < width {
			line += strings.Repeat(" ", width-len(line))
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderDetail(width, height int) string {
	it := m.items[m.cursor]
	content := fmt.Sprintf("%s\n### %s\n\n%s", display.LongDate(it.day), it.entry.Heading, it.entry.Body)
	lines := wrap(content, width)
	if m.detailOffset > 0 && m.detailOffset < len(lines) {
		lines = lines[m.detailOffset:]
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m model) renderStatusBar() string {
	position := fmt.Sprintf("%d/%d", m.cursor+1, len(m.items))
	help := "j/k:nav  g/G:first/last  J/K:scroll  q:quit"
	return statusBarStyle.Width(m.width).Render(fmt.Sprintf(" %s | %s", position, help))
}

func (m *model) adjustListScroll() {
	visible := max(m.height-5, 1)
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visible {
		m.listOffset = m.cursor - visible + 1
	}
}

func wrap(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		r := []rune(line)
		for len(r) > width {
			out = append(out, string(r[:width]))
			r = r[width:]
		}
		out = append(out, string(r))
	}
	return out
}

// RunTUI starts the interactive journal browser.
func RunTUI(root string) error {
	m, err := newModel(root)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
