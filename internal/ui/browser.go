package ui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/crate/internal/config"
)

// InvalidDirectory is shown when a picked path is not a readable directory.
const InvalidDirectory = "Invalid directory. Try again!"

// BrowserSelectedMsg is sent when a valid source directory was chosen.
type BrowserSelectedMsg struct {
	Path string
}

// BrowserCancelledMsg is sent when the user leaves the picker.
type BrowserCancelledMsg struct{}

type dirItem struct {
	name string
	path string
}

func (i dirItem) Title() string       { return i.name + string(filepath.Separator) }
func (i dirItem) Description() string { return i.path }
func (i dirItem) FilterValue() string { return i.name }

type pathItem struct{}

func (i pathItem) Title() string       { return "Enter a path..." }
func (i pathItem) Description() string { return "type the directory to load sounds from" }
func (i pathItem) FilterValue() string { return "path" }

// BrowserModel asks for the directory to load sounds from. It lists the
// subdirectories of a starting directory and accepts a typed path.
type BrowserModel struct {
	list     list.Model
	input    textinput.Model
	pathMode bool
	errMsg   string
}

// NewBrowser creates a picker listing the subdirectories of dir.
func NewBrowser(dir string) BrowserModel {
	items := []list.Item{pathItem{}}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			items = append(items, dirItem{name: e.Name(), path: filepath.Join(dir, e.Name())})
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(items, delegate, 80, 20)
	l.Title = "Pick a directory to load sounds from"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = headerStyle

	ti := textinput.New()
	ti.Placeholder = "~/Music"
	ti.CharLimit = 4096
	ti.Width = 60

	return BrowserModel{list: l, input: ti}
}

// validDirectory expands ~ and reports whether path names a directory.
func validDirectory(path string) (string, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", false
	}
	path = config.ExpandPath(path)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return path, true
}

func (m BrowserModel) choose(path string) (BrowserModel, tea.Cmd) {
	dir, ok := validDirectory(path)
	if !ok {
		m.errMsg = InvalidDirectory
		return m, nil
	}
	m.errMsg = ""
	return m, func() tea.Msg { return BrowserSelectedMsg{Path: dir} }
}

func (m BrowserModel) Init() tea.Cmd {
	return tea.SetWindowTitle("crate")
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.pathMode {
		return m.updatePathInput(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Don't intercept keys when filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			switch item := m.list.SelectedItem().(type) {
			case pathItem:
				m.pathMode = true
				m.errMsg = ""
				m.input.Focus()
				return m, textinput.Blink
			case dirItem:
				return m.choose(item.path)
			}
		case "q", "esc", "ctrl+c":
			return m, func() tea.Msg { return BrowserCancelledMsg{} }
		}

	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 2)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BrowserModel) updatePathInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			return m.choose(m.input.Value())
		case "esc":
			m.pathMode = false
			m.errMsg = ""
			m.input.Reset()
			m.input.Blur()
			return m, nil
		case "ctrl+c":
			return m, func() tea.Msg { return BrowserCancelledMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m BrowserModel) View() string {
	errLine := ""
	if m.errMsg != "" {
		errLine = "  " + noticeStyle.Render(m.errMsg) + "\n"
	}
	if m.pathMode {
		s := "\n"
		s += "  " + headerStyle.Render("crate") + "\n"
		s += "\n"
		s += "  " + statusStyle.Render("Input a path to load sound files:") + "\n"
		s += "  " + m.input.View() + "\n"
		s += errLine
		s += "\n"
		s += "  " + helpStyle.Render("enter confirm  esc back  ctrl+c quit") + "\n"
		return s
	}
	return m.list.View() + "\n" + errLine
}
