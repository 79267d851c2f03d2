package browse

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

const allSourcesLabel = "All sources"

// Selection is what the picker hands to the listing.
type Selection struct {
	Sources       []string // nil means every source
	WorldwideOnly bool
}

type pickerModel struct {
	sources   []string
	cursor    int // 0 is "All sources"
	worldwide bool
	chosen    bool
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.sources) {
				m.cursor++
			}
		case "w":
			m.worldwide = !m.worldwide
		case "enter":
			m.chosen = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) selection() Selection {
	sel := Selection{WorldwideOnly: m.worldwide}
	if m.cursor > 0 {
		sel.Sources = []string{m.sources[m.cursor-1]}
	}
	return sel
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Remote Jobs · Select a source")
	s += "\n"

	labels := append([]string{allSourcesLabel}, m.sources...)
	for i, label := range labels {
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	check := " "
	if m.worldwide {
		check = "x"
	}
	s += pickerHintStyle.Render(fmt.Sprintf("[%s] worldwide only", check))
	s += pickerHintStyle.Render("↑/↓/j/k navigate  w toggle worldwide  enter select  q quit")
	return s
}

// RunSourcePicker shows an interactive source selector. ok is false when the
// user quit without choosing.
func RunSourcePicker(sources []string) (Selection, bool, error) {
	m := pickerModel{sources: sources}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return Selection{}, false, err
	}

	final := result.(pickerModel)
	if !final.chosen {
		return Selection{}, false, nil
	}
	return final.selection(), true, nil
}
