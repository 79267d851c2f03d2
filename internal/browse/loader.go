package browse

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/remotehub/internal/filter"
	"github.com/amishk599/remotehub/internal/model"
)

// queryTimeout bounds a single store read issued from the UI.
const queryTimeout = 30 * time.Second

var errCancelled = errors.New("cancelled")

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Finder is the store read the browser pages through.
type Finder interface {
	Find(ctx context.Context, c filter.Criteria) (model.Page, error)
}

type pageLoadedMsg struct {
	criteria filter.Criteria
	page     model.Page
	err      error
}

type spinnerTickMsg struct{}

// findCmd runs one store query off the UI loop.
func findCmd(finder Finder, c filter.Criteria) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()
		page, err := finder.Find(ctx, c)
		return pageLoadedMsg{criteria: c, page: page, err: err}
	}
}

type loaderModel struct {
	label    string
	finder   Finder
	criteria filter.Criteria
	frame    int
	result   model.Page
	err      error
	done     bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(findCmd(m.finder, m.criteria), m.tick())
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pageLoadedMsg:
		m.result = msg.page
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		if m.done {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = errCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s Loading jobs from %s...\n", spinner, m.label)
}

// RunLoader shows a spinner while the first page loads. It renders inline
// (no alt screen).
func RunLoader(label string, finder Finder, c filter.Criteria) (model.Page, error) {
	m := loaderModel{
		label:    label,
		finder:   finder,
		criteria: c,
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return model.Page{}, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
