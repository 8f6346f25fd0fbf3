package ui

import (
	"github.com/cockroachdb/errors"

	"github.com/olivier-w/crate/internal/keymap"
	"github.com/olivier-w/crate/internal/playlist"
)

// apply runs one resolved command against the playlist and coordinator.
// Navigation on an empty playlist is silently ignored.
func (m *Model) apply(a keymap.Action) error {
	var err error
	switch a {
	case keymap.ActionMoveUp:
		err = m.list.MoveSelection(-1)
	case keymap.ActionMoveDown:
		err = m.list.MoveSelection(1)
	case keymap.ActionPlay:
		err = m.coord.RequestPlay()
	case keymap.ActionPause:
		err = m.coord.RequestPause()
	case keymap.ActionNext:
		err = m.coord.RequestNext()
	case keymap.ActionPrevious:
		err = m.coord.RequestPrevious()
	case keymap.ActionCycleRepeat:
		mode := m.coord.CycleRepeat()
		m.setNotice("repeat " + mode.String())
	}
	if errors.Is(err, playlist.ErrEmpty) {
		return nil
	}
	return err
}
