package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/olivier-w/crate/internal/catalog"
	"github.com/olivier-w/crate/internal/keymap"
	"github.com/olivier-w/crate/internal/playback"
	"github.com/olivier-w/crate/internal/player"
	"github.com/olivier-w/crate/internal/playlist"
)

// Leaf addresses in the layout tree.
const (
	leafPlaylist = "playlist"
	leafPlaying  = "playing"
	leafNext     = "next"
	leafControls = "controls"
)

// frame draws a bordered pane of exactly width x height cells around lines.
// Styled lines are cut to the inner width and the list is clipped to the
// inner height.
func frame(width, height int, lines []string) string {
	if width <= 4 || height <= 2 {
		return ""
	}
	inner := width - 4
	rows := height - 2
	if len(lines) > rows {
		lines = lines[:rows]
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, inner, "…")
	}
	return paneStyle.
		Width(width - 2).
		Height(rows).
		MaxHeight(height).
		Render(strings.Join(lines, "\n"))
}

// --- Playlist pane ---

type playlistPane struct {
	width, height int
	rows          []playlist.Row
	selection     int
	count         int
}

func (m playlistPane) Init() tea.Cmd { return nil }

func (m playlistPane) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m playlistPane) View() string {
	header := headerStyle.Render("Playlist")
	if m.count > 0 {
		header += timeStyle.Render(fmt.Sprintf("  %d/%d", m.selection+1, m.count))
	}
	lines := []string{header, ""}
	if m.count == 0 {
		lines = append(lines, helpStyle.Render("No sounds found."))
		return frame(m.width, m.height, lines)
	}

	// Keep the selected row visible when the pane is shorter than the window.
	rows := m.rows
	avail := m.height - 2 - len(lines)
	if avail > 0 && len(rows) > avail {
		sel := 0
		for i, r := range rows {
			if r.Role == playlist.Selected {
				sel = i
				break
			}
		}
		start := 0
		if sel >= avail {
			start = sel - avail + 1
		}
		rows = rows[start : start+avail]
	}

	inner := m.width - 4
	for _, r := range rows {
		lines = append(lines, renderRow(r, inner))
	}
	return frame(m.width, m.height, lines)
}

func renderRow(r playlist.Row, width int) string {
	switch r.Role {
	case playlist.Selected:
		return selectedRowStyle.Render(pad(truncate("> "+r.Item.DisplayName, width), width))
	case playlist.Playing:
		return playingRowStyle.Render(truncate("♪ "+r.Item.DisplayName, width))
	default:
		return rowStyle.Render(truncate("  "+r.Item.DisplayName, width))
	}
}

// --- Playing pane ---

type playingPane struct {
	width, height int
	item          *catalog.Item
	tags          player.Tags
	elapsed       time.Duration
	duration      time.Duration
	isPlaying     bool
	loaded        bool
	repeat        playback.RepeatMode
}

func (m playingPane) Init() tea.Cmd { return nil }

func (m playingPane) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m playingPane) View() string {
	lines := []string{headerStyle.Render("Playing"), ""}
	if m.item == nil {
		lines = append(lines, helpStyle.Render("Nothing yet."))
		return frame(m.width, m.height, lines)
	}

	lines = append(lines, titleStyle.Render(m.item.DisplayName))
	if sub := m.tags.Line(); sub != "" {
		lines = append(lines, artistStyle.Render(sub))
	}
	lines = append(lines, "")

	elapsed, total := formatDuration(m.elapsed), formatDuration(m.duration)
	barWidth := m.width - 4 - len(elapsed) - len(total) - 2
	bar := renderProgressBar(m.elapsed.Seconds(), m.duration.Seconds(), barWidth)
	lines = append(lines, fmt.Sprintf("%s %s %s", timeStyle.Render(elapsed), bar, timeStyle.Render(total)))

	status := "■  stopped"
	switch {
	case m.isPlaying:
		status = "▶  playing"
	case m.loaded:
		status = "❚❚ paused"
	}
	if icon := m.repeat.Icon(); icon != "" {
		status += "  " + icon
	}
	lines = append(lines, statusStyle.Render(status))
	return frame(m.width, m.height, lines)
}

// --- Next pane ---

type nextPane struct {
	width, height int
	item          *catalog.Item
}

func (m nextPane) Init() tea.Cmd { return nil }

func (m nextPane) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m nextPane) View() string {
	lines := []string{headerStyle.Render("Next"), ""}
	if m.item != nil {
		lines = append(lines, m.item.DisplayName)
	}
	return frame(m.width, m.height, lines)
}

// --- Controls pane ---

type controlsPane struct {
	width, height int
	help          help.Model
	keys          *keymap.Resolver
	notice        string
}

func newControlsPane(keys *keymap.Resolver) controlsPane {
	h := help.New()
	h.ShowAll = true
	return controlsPane{help: h, keys: keys}
}

func (m controlsPane) Init() tea.Cmd { return nil }

func (m controlsPane) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width - 4
	}
	return m, nil
}

func (m controlsPane) View() string {
	lines := []string{headerStyle.Render("Controls"), ""}
	lines = append(lines, strings.Split(m.help.View(m.keys), "\n")...)
	if m.notice != "" {
		lines = append(lines, "", noticeStyle.Render(m.notice))
	}
	return frame(m.width, m.height, lines)
}
