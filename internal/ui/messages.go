package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/crate/internal/playback"
)

const noticeTTL = 5 * time.Second

type tickMsg time.Time

// streamDoneMsg reports that a stream ended or was stopped.
type streamDoneMsg struct {
	stream playback.Stream
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitDone(s playback.Stream) tea.Cmd {
	return func() tea.Msg {
		<-s.Done()
		return streamDoneMsg{stream: s}
	}
}
