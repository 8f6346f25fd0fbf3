package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/treilik/bubbleboxer"

	"github.com/olivier-w/crate/internal/keymap"
	"github.com/olivier-w/crate/internal/playback"
	"github.com/olivier-w/crate/internal/player"
	"github.com/olivier-w/crate/internal/playlist"
)

var baseStyle = lipgloss.NewStyle()

// Model is the Bubbletea model for the playlist browser. Every command is
// applied to the coordinator first; the panes are then redrawn from a fresh
// snapshot.
type Model struct {
	boxer    bubbleboxer.Boxer
	list     *playlist.Playlist
	coord    *playback.Coordinator
	keys     *keymap.Resolver
	readTags func(path string) player.Tags

	watching playback.Stream
	tagsFor  string
	tags     player.Tags
	title    string
	paused   bool

	notice     string
	noticeTime time.Time
	quitting   bool
}

// New lays out the four panes and renders the initial state.
func New(list *playlist.Playlist, coord *playback.Coordinator, keys *keymap.Resolver) Model {
	boxer := bubbleboxer.Boxer{
		ModelMap: make(map[string]tea.Model),
	}

	// CreateLeaf only fails on a duplicate address; the four below are distinct.
	playlistLeaf, _ := boxer.CreateLeaf(leafPlaylist, playlistPane{})
	playingLeaf, _ := boxer.CreateLeaf(leafPlaying, playingPane{})
	nextLeaf, _ := boxer.CreateLeaf(leafNext, nextPane{})
	controlsLeaf, _ := boxer.CreateLeaf(leafControls, newControlsPane(keys))

	side := bubbleboxer.Node{
		Children:        []bubbleboxer.Node{playingLeaf, nextLeaf, controlsLeaf},
		VerticalStacked: true,
		SizeFunc: func(node bubbleboxer.Node, height int) []int {
			playing, next := 9, 5
			controls := height - playing - next
			if controls < 4 {
				controls = 4
			}
			return []int{playing, next, controls}
		},
	}

	boxer.LayoutTree = bubbleboxer.Node{
		Children: []bubbleboxer.Node{playlistLeaf, side},
		SizeFunc: func(node bubbleboxer.Node, width int) []int {
			left := width * 3 / 5
			return []int{left, width - left}
		},
	}

	m := Model{
		boxer:    boxer,
		list:     list,
		coord:    coord,
		keys:     keys,
		readTags: player.ReadTags,
	}
	m.refresh()
	return m
}

// SetNotice shows msg in the controls pane for a few seconds.
func (m *Model) SetNotice(msg string) {
	m.setNotice(msg)
	m.refresh()
}

func (m *Model) setNotice(msg string) {
	m.notice = msg
	m.noticeTime = time.Now()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.SetWindowTitle(windowTitle("", false)))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		updated, cmd := m.boxer.Update(msg)
		m.boxer = updated.(bubbleboxer.Boxer)
		return m, cmd

	case tea.KeyMsg:
		action := m.keys.Resolve(msg.String())
		if action == keymap.ActionNone {
			return m, nil
		}
		log.Debug().Str("key", msg.String()).Stringer("action", action).Msg("command")
		if action == keymap.ActionQuit {
			m.quitting = true
			m.coord.Close()
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
		if err := m.apply(action); err != nil {
			m.setNotice(err.Error())
		}
		m.refresh()
		cmd := m.watch()
		return m, tea.Batch(cmd, m.titleCmd())

	case streamDoneMsg:
		if err := m.coord.Finished(msg.stream); err != nil {
			m.setNotice(err.Error())
		}
		m.refresh()
		cmd := m.watch()
		return m, tea.Batch(cmd, m.titleCmd())

	case tickMsg:
		if m.notice != "" && time.Since(m.noticeTime) > noticeTTL {
			m.notice = ""
		}
		m.refresh()
		return m, tickCmd()
	}

	return m, nil
}

// watch starts waiting on the live stream if it is new.
func (m *Model) watch() tea.Cmd {
	s := m.coord.Stream()
	if s == nil || s == m.watching {
		return nil
	}
	m.watching = s
	return waitDone(s)
}

// titleCmd updates the terminal title when the playing item or its pause
// state changed.
func (m *Model) titleCmd() tea.Cmd {
	var title string
	if item, ok := m.coord.NowPlaying(); ok && m.coord.Stream() != nil {
		title = item.DisplayName
	}
	paused := !m.coord.IsPlaying()
	if title == m.title && paused == m.paused {
		return nil
	}
	m.title, m.paused = title, paused
	return tea.SetWindowTitle(windowTitle(title, paused))
}

// refresh pushes a new snapshot into the panes.
func (m *Model) refresh() {
	snap := m.coord.Snapshot()

	if snap.NowPlaying != nil && snap.NowPlaying.ID != m.tagsFor {
		m.tagsFor = snap.NowPlaying.ID
		m.tags = m.readTags(snap.NowPlaying.Source)
	}

	m.boxer.EditLeaf(leafPlaylist, func(model tea.Model) (tea.Model, error) {
		p := model.(playlistPane)
		p.rows = snap.Rows
		p.selection = snap.Selection
		p.count = snap.Count
		return p, nil
	})
	m.boxer.EditLeaf(leafPlaying, func(model tea.Model) (tea.Model, error) {
		p := model.(playingPane)
		p.item = snap.NowPlaying
		p.tags = m.tags
		p.elapsed = snap.Elapsed
		p.duration = snap.Duration
		p.isPlaying = snap.IsPlaying
		p.loaded = snap.Loaded
		p.repeat = snap.Repeat
		return p, nil
	})
	m.boxer.EditLeaf(leafNext, func(model tea.Model) (tea.Model, error) {
		p := model.(nextPane)
		p.item = snap.UpNext
		return p, nil
	})
	m.boxer.EditLeaf(leafControls, func(model tea.Model) (tea.Model, error) {
		p := model.(controlsPane)
		p.notice = m.notice
		return p, nil
	})
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return baseStyle.Render(m.boxer.View())
}
