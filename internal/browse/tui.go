package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/remotehub/internal/adapter"
	"github.com/amishk599/remotehub/internal/filter"
	"github.com/amishk599/remotehub/internal/model"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	worldwideBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	descDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	descHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

type browseModel struct {
	finder   Finder
	criteria filter.Criteria
	page     model.Page
	label    string

	listViewport viewport.Model
	cursor       int
	width        int
	height       int
	ready        bool
	loading      bool
	loadErr      string

	search    textinput.Model
	searching bool

	view            viewState
	detail          model.Record
	detailViewport  viewport.Model
	showDescription bool

	wantQuit bool
}

func newBrowseModel(finder Finder, label string, c filter.Criteria, first model.Page) browseModel {
	search := textinput.New()
	search.Placeholder = "title, company or description"
	search.Prompt = "/ "
	search.CharLimit = 120
	search.SetValue(c.Text)

	return browseModel{
		finder:   finder,
		criteria: c,
		page:     first,
		label:    label,
		search:   search,
	}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case pageLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = fmt.Sprintf("query failed: %v", msg.err)
			return m, nil
		}
		m.loadErr = ""
		m.criteria = msg.criteria
		m.page = msg.page
		m.cursor = 0
		m.recalcContent()
		m.listViewport.SetYOffset(0)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		c := m.criteria
		c.Text = strings.TrimSpace(m.search.Value())
		c.Page = 1
		return m.load(c)
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue(m.criteria.Text)
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.page.Records)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.page.Records)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "right", "n":
		if m.page.Page < m.page.TotalPages {
			c := m.criteria
			c.Page = m.page.Page + 1
			return m.load(c)
		}
		return m, nil
	case "left", "p":
		if m.page.Page > 1 {
			c := m.criteria
			c.Page = m.page.Page - 1
			return m.load(c)
		}
		return m, nil
	case "w":
		c := m.criteria
		c.WorldwideOnly = !c.WorldwideOnly
		c.Page = 1
		return m.load(c)
	case "/":
		m.searching = true
		cmd := m.search.Focus()
		return m, cmd
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detail.URL)
		return m, nil
	case "r":
		m.showDescription = !m.showDescription
		m.detailViewport.SetContent(m.renderDetail())
		m.detailViewport.SetYOffset(0)
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

// load starts an async query; the current page stays visible until it lands.
func (m browseModel) load(c filter.Criteria) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.loading = true
	return m, findCmd(m.finder, c)
}

func (m *browseModel) ensureCursorVisible() {
	vp := &m.listViewport
	cursorTop := m.cursor * jobItemHeight
	cursorBottom := cursorTop + jobItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m browseModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.page.Records) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.detail = m.page.Records[m.cursor]
	m.showDescription = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *browseModel) recalcLayout() {
	// Header (1 line) + search (1) + border top/bottom (2) + status bar (1).
	width := max(m.width-2, 20)
	height := max(m.height-5, 5)

	if !m.ready {
		m.listViewport = viewport.New(width, height)
		m.ready = true
	} else {
		m.listViewport.Width = width
		m.listViewport.Height = height
	}
	m.search.Width = width - 4
	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.listViewport.SetContent(renderRecords(m.page.Records, m.cursor))
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	scope := m.label
	if m.criteria.WorldwideOnly {
		scope += " · worldwide"
	}
	header := headerStyle.Render(fmt.Sprintf("%s (%d jobs)", scope, m.page.Total))
	if m.loading {
		header += "  (loading...)"
	}

	var searchLine string
	switch {
	case m.searching:
		searchLine = m.search.View()
	case m.loadErr != "":
		searchLine = errorStyle.Render("⚠ " + m.loadErr)
	case m.criteria.Text != "":
		searchLine = descHintStyle.Render(fmt.Sprintf("  matching %q", m.criteria.Text))
	}

	list := borderStyle.Width(m.listViewport.Width).Render(m.listViewport.View())

	statusText := fmt.Sprintf(" page %d/%d    ↑/↓ cursor  ←/→ page  / search  w worldwide  Enter detail  Esc back  q quit",
		m.page.Page, max(m.page.TotalPages, 1))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return header + "\n" + searchLine + "\n" + list + "\n" + statusBar
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")
	content := borderStyle.Width(m.width - 2).Render(m.detailViewport.View())
	statusBar := statusBarStyle.Width(m.width).Render(" o open URL  r desc  esc/backspace back  ↑/↓ scroll  q quit")
	return title + "\n" + content + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	r := m.detail
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", r.Title)
	addField("Company", r.Company)
	addField("Location", r.Location)
	if r.IsWorldwide {
		addField("Worldwide", "yes")
	}
	addField("Source", r.Source)
	if len(r.Skills) > 0 {
		addField("Skills", strings.Join(r.Skills, ", "))
	}

	b.WriteByte('\n')
	addField("Posted", r.DatePosted.Format("2006-01-02"))
	addField("Expires", r.ExpiresAt.Format("2006-01-02"))
	addField("Updated", r.UpdatedAt.Format("2006-01-02 15:04"))

	b.WriteByte('\n')
	addField("Apply URL", r.URL)

	wrapWidth := max(m.width-8, 20)
	b.WriteByte('\n')
	if m.showDescription {
		label := "── Job Description "
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		b.WriteString(descDividerStyle.Render(label+fill) + "\n\n")
		b.WriteString(wordWrap(adapter.PlainText(r.Description), wrapWidth) + "\n")
	} else {
		b.WriteString(descHintStyle.Render("  press r to read job description") + "\n")
	}

	return b.String()
}

func renderRecords(records []model.Record, cursor int) string {
	if len(records) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, r := range records {
		titleSt := jobTitleStyle
		subtitleSt := jobSubtitleStyle
		prefix := "  "
		if i == cursor {
			titleSt = selectedJobTitleStyle
			subtitleSt = selectedJobSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(r.Title))
		if r.IsWorldwide {
			b.WriteString(" " + worldwideBadgeStyle.Render("🌍"))
		}
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s · %s",
			r.Company, r.Location, r.Source, r.DatePosted.Format("2006-01-02"))))
		b.WriteByte('\n')

		if i < len(records)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunBrowser launches the paginated job browser over the given first page.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed
// esc to return to the picker.
func RunBrowser(finder Finder, label string, c filter.Criteria, first model.Page) (bool, error) {
	m := newBrowseModel(finder, label, c, first)

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(browseModel)
	return final.wantQuit, nil
}
