package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	zlog "github.com/rs/zerolog/log"

	"github.com/olivier-w/crate/internal/catalog"
	"github.com/olivier-w/crate/internal/config"
	"github.com/olivier-w/crate/internal/keymap"
	"github.com/olivier-w/crate/internal/playback"
	"github.com/olivier-w/crate/internal/playlist"
	"github.com/olivier-w/crate/internal/ui"
)

const fps = 60

type startupPhase uint8

const (
	phasePrompt startupPhase = iota
	phaseScanning
)

type startupOptions struct {
	store  *config.Store
	cfg    config.Config
	port   playback.Port
	roots  []string
	notice string
	cwd    string
}

type scanProgressMsg catalog.Progress

type scanDoneMsg struct {
	items []catalog.Item
	err   error
}

type frameMsg time.Time

type startupModel struct {
	opts     startupOptions
	browser  ui.BrowserModel
	phase    startupPhase
	width    int
	height   int
	progress progress.Model
	spring   harmonica.Spring
	shown    float64
	velocity float64
	status   catalog.Progress
	statusCh chan catalog.Progress
}

func newStartupModel(opts startupOptions) startupModel {
	if opts.roots == nil {
		opts.roots = opts.cfg.SoundPaths
	}

	p := progress.New(
		progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
		progress.WithoutPercentage(),
	)

	m := startupModel{
		opts:     opts,
		phase:    phasePrompt,
		progress: p,
		spring:   harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
	}
	if len(opts.roots) == 0 {
		m.browser = ui.NewBrowser(opts.cwd)
	} else {
		m.phase = phaseScanning
		m.status = catalog.Progress{Total: len(opts.roots)}
		m.statusCh = make(chan catalog.Progress, 16)
	}
	return m
}

func (m startupModel) Init() tea.Cmd {
	if m.phase == phasePrompt {
		return m.browser.Init()
	}
	return m.startScan()
}

// startScan kicks off the catalog build. statusCh must already be open.
func (m startupModel) startScan() tea.Cmd {
	return tea.Batch(
		scanCmd(m.opts.roots, m.statusCh),
		m.waitForStatus(),
		frameCmd(),
	)
}

func (m startupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		barWidth := msg.Width - 8
		if barWidth < 20 {
			barWidth = 20
		}
		if barWidth > 60 {
			barWidth = 60
		}
		m.progress.Width = barWidth
		if m.phase == phasePrompt {
			model, cmd := m.browser.Update(msg)
			if browser, ok := model.(ui.BrowserModel); ok {
				m.browser = browser
			}
			return m, cmd
		}
		return m, nil

	case ui.BrowserCancelledMsg:
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)

	case ui.BrowserSelectedMsg:
		m.opts.cfg.SoundPaths = append(m.opts.cfg.SoundPaths, msg.Path)
		if err := m.opts.store.Save(m.opts.cfg); err != nil {
			zlog.Error().Err(err).Msg("saving config")
			m.opts.notice = "Could not save config: " + err.Error()
		}
		m.opts.roots = []string{msg.Path}
		m.phase = phaseScanning
		m.status = catalog.Progress{Total: 1}
		m.statusCh = make(chan catalog.Progress, 16)
		cmd := m.startScan()
		return m, cmd

	case scanProgressMsg:
		m.status = catalog.Progress(msg)
		return m, m.waitForStatus()

	case frameMsg:
		if m.phase != phaseScanning {
			return m, nil
		}
		m.shown, m.velocity = m.spring.Update(m.shown, m.velocity, m.target())
		return m, frameCmd()

	case scanDoneMsg:
		return m.finish(msg)

	case tea.KeyMsg:
		if m.phase == phaseScanning && startupIsQuit(msg) {
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
	}

	if m.phase == phasePrompt {
		model, cmd := m.browser.Update(msg)
		if browser, ok := model.(ui.BrowserModel); ok {
			m.browser = browser
		}
		return m, cmd
	}

	return m, nil
}

// finish hands over to the playlist browser once the catalog is built.
func (m startupModel) finish(msg scanDoneMsg) (tea.Model, tea.Cmd) {
	notice := m.opts.notice
	if msg.err != nil {
		zlog.Error().Err(msg.err).Strs("roots", m.opts.roots).Msg("scan failed")
		if notice == "" {
			notice = msg.err.Error()
		}
	} else if notice == "" {
		notice = scanSummary(len(msg.items), len(m.opts.roots))
	}

	list := playlist.New(msg.items, m.opts.cfg.WindowSize)
	coord := playback.New(list, m.opts.port)
	model := ui.New(list, coord, keymap.NewResolver(m.opts.cfg.Controls))
	model.SetNotice(notice)

	cmds := []tea.Cmd{model.Init()}
	if m.width > 0 || m.height > 0 {
		w, h := m.width, m.height
		cmds = append(cmds, func() tea.Msg {
			return tea.WindowSizeMsg{Width: w, Height: h}
		})
	}
	return model, tea.Batch(cmds...)
}

func scanSummary(items, roots int) string {
	return fmt.Sprintf("Loaded %s %s from %s",
		humanize.Comma(int64(items)), plural(items, "sound", "sounds"), directories(roots))
}

func directories(n int) string {
	return fmt.Sprintf("%d %s", n, plural(n, "directory", "directories"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (m startupModel) target() float64 {
	if m.status.Total == 0 {
		return 0
	}
	return float64(m.status.Done) / float64(m.status.Total)
}

func (m startupModel) waitForStatus() tea.Cmd {
	if m.statusCh == nil {
		return nil
	}
	statusCh := m.statusCh
	return func() tea.Msg {
		status, ok := <-statusCh
		if !ok {
			return nil
		}
		return scanProgressMsg(status)
	}
}

func scanCmd(roots []string, statusCh chan catalog.Progress) tea.Cmd {
	return func() tea.Msg {
		defer close(statusCh)
		items, err := catalog.Build(roots, func(p catalog.Progress) {
			select {
			case statusCh <- p:
			default:
			}
		})
		if err != nil && !errors.Is(err, catalog.ErrNoSources) {
			err = errors.Wrap(err, "scanning sources")
		}
		return scanDoneMsg{items: items, err: err}
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m startupModel) View() string {
	if m.phase == phasePrompt {
		return m.browser.View()
	}

	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(startupHeaderStyle.Render("crate"))
	b.WriteString("\n\n  ")
	b.WriteString(startupStatusStyle.Render("Loading sounds from " + directories(len(m.opts.roots))))
	b.WriteString("\n  ")
	b.WriteString(m.progress.ViewAs(clamp01(m.shown)))
	b.WriteString(fmt.Sprintf("  %.0f%%\n", clamp01(m.shown)*100))
	if m.status.Root != "" {
		b.WriteString("  ")
		b.WriteString(startupHelpStyle.Render(fmt.Sprintf("%s  ·  %s found", m.status.Root, humanize.Comma(int64(m.status.Found)))))
		b.WriteString("\n")
	}
	b.WriteString("\n  ")
	b.WriteString(startupHelpStyle.Render("esc quit"))
	b.WriteString("\n")
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func startupIsQuit(msg tea.KeyMsg) bool {
	for _, k := range keymap.QuitKeys {
		if msg.String() == k {
			return true
		}
	}
	return false
}

var (
	startupHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"})
	startupStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"})
	startupHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
)
