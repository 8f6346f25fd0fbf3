// Package playlist owns the ordered item list, the selection cursor, the
// playing position and the paginated window rendered by the UI.
package playlist

import (
	"github.com/cockroachdb/errors"

	"github.com/olivier-w/crate/internal/catalog"
)

// DefaultWindowSize is the number of rows per page when none is configured.
const DefaultWindowSize = 25

// ErrEmpty is returned by navigation on a playlist without items.
var ErrEmpty = errors.New("playlist is empty")

// Role is how a row is presented in the window.
type Role int

const (
	Normal Role = iota
	Selected
	Playing
)

func (r Role) String() string {
	switch r {
	case Selected:
		return "selected"
	case Playing:
		return "playing"
	default:
		return "normal"
	}
}

// Row is one visible line of the window.
type Row struct {
	Index int
	Item  catalog.Item
	Role  Role
}

// Playlist is the navigation state of one session. The item list is fixed at
// construction; only the selection and playing indices change.
// It is only mutated from Bubbletea's single-threaded Update loop.
type Playlist struct {
	items      []catalog.Item
	selection  int
	playing    int // -1 until something has been played
	windowSize int
	window     []Row
}

// New creates a Playlist over a copy of items. A windowSize below 1 falls back
// to DefaultWindowSize.
func New(items []catalog.Item, windowSize int) *Playlist {
	if windowSize < 1 {
		windowSize = DefaultWindowSize
	}
	p := &Playlist{
		items:      append([]catalog.Item(nil), items...),
		playing:    -1,
		windowSize: windowSize,
	}
	p.refresh()
	return p
}

// MoveSelection moves the cursor by delta, wrapping around both ends.
func (p *Playlist) MoveSelection(delta int) error {
	n := len(p.items)
	if n == 0 {
		return ErrEmpty
	}
	p.selection = mod(p.selection+delta, n)
	p.refresh()
	return nil
}

// SetPlaying records i as the playing position.
func (p *Playlist) SetPlaying(i int) error {
	if len(p.items) == 0 {
		return ErrEmpty
	}
	if i < -1 || i >= len(p.items) {
		return errors.Newf("playing index %d out of range [-1, %d)", i, len(p.items))
	}
	p.playing = i
	p.refresh()
	return nil
}

// Window returns the rows computed after the last state change.
func (p *Playlist) Window() []Row {
	out := make([]Row, len(p.window))
	copy(out, p.window)
	return out
}

// CurrentWindow computes the page containing selection. The page starts at a
// multiple of the window size and holds up to windowSize+1 rows: the final
// row of one page is repeated as the first row of the next.
func (p *Playlist) CurrentWindow(selection, playing int) []Row {
	n := len(p.items)
	if n == 0 {
		return nil
	}
	start := (selection / p.windowSize) * p.windowSize

	rows := make([]Row, 0, min(p.windowSize+1, n))
	for i := start; i < n; i++ {
		role := Normal
		switch i {
		case selection:
			role = Selected
		case playing:
			role = Playing
		}
		rows = append(rows, Row{Index: i, Item: p.items[i], Role: role})

		if i-start >= p.windowSize {
			break
		}
	}
	return rows
}

// SelectionIndex returns the cursor position (0 for an empty playlist).
func (p *Playlist) SelectionIndex() int {
	return p.selection
}

// PlayingIndex returns the playing position, or -1 if nothing has played.
func (p *Playlist) PlayingIndex() int {
	return p.playing
}

// Len returns the number of items.
func (p *Playlist) Len() int {
	return len(p.items)
}

// WindowSize returns the configured rows per page.
func (p *Playlist) WindowSize() int {
	return p.windowSize
}

// Item returns the item at i.
func (p *Playlist) Item(i int) (catalog.Item, bool) {
	if i < 0 || i >= len(p.items) {
		return catalog.Item{}, false
	}
	return p.items[i], true
}

func (p *Playlist) refresh() {
	p.window = p.CurrentWindow(p.selection, p.playing)
}

// mod is the mathematical modulo: the result is always in [0, n).
func mod(a, n int) int {
	return ((a % n) + n) % n
}
