package playback

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/olivier-w/crate/internal/catalog"
	"github.com/olivier-w/crate/internal/playlist"
)

var (
	// ErrEmptyPlaylist is returned by every command on a playlist without items.
	ErrEmptyPlaylist = playlist.ErrEmpty
	// ErrSourceUnreadable marks errors from loading an item onto the device.
	ErrSourceUnreadable = errors.New("source unreadable")
)

// Coordinator drives the playback state machine over a playlist. It owns the
// single live Stream and is only used from Bubbletea's Update loop.
type Coordinator struct {
	list    *playlist.Playlist
	port    Port
	stream  Stream
	playing bool
	repeat  RepeatMode
}

// New creates a Coordinator with nothing loaded.
func New(list *playlist.Playlist, port Port) *Coordinator {
	return &Coordinator{list: list, port: port}
}

// RequestPlay starts the selected item. If the selection is the item already
// loaded, the stream is resumed instead of reloaded; if it is already
// producing sound nothing happens.
func (c *Coordinator) RequestPlay() error {
	if c.list.Len() == 0 {
		return ErrEmptyPlaylist
	}
	sel := c.list.SelectionIndex()
	if c.stream != nil && sel == c.list.PlayingIndex() {
		if !c.playing {
			c.stream.Play()
			c.playing = true
			log.Debug().Int("index", sel).Msg("resumed")
		}
		return nil
	}
	return c.load(sel)
}

// RequestPause pauses the live stream. It is a no-op when nothing is playing.
func (c *Coordinator) RequestPause() error {
	if c.list.Len() == 0 {
		return ErrEmptyPlaylist
	}
	if !c.playing {
		return nil
	}
	c.stream.Pause()
	c.playing = false
	log.Debug().Int("index", c.list.PlayingIndex()).Msg("paused")
	return nil
}

// RequestNext moves the selection to the item after the playing one and
// restarts playback there, even when that is the same item.
func (c *Coordinator) RequestNext() error {
	return c.skip(1)
}

// RequestPrevious is RequestNext in the other direction.
func (c *Coordinator) RequestPrevious() error {
	return c.skip(-1)
}

func (c *Coordinator) skip(step int) error {
	n := c.list.Len()
	if n == 0 {
		return ErrEmptyPlaylist
	}
	target := skipTarget(c.list.PlayingIndex(), step, n)
	if err := c.list.MoveSelection(target - c.list.SelectionIndex()); err != nil {
		return err
	}
	return c.load(target)
}

// skipTarget wraps playing+step into [0, n). With nothing played yet, next
// starts from the first item and previous from the last.
func skipTarget(playing, step, n int) int {
	if playing == -1 {
		if step > 0 {
			return 0
		}
		return n - 1
	}
	return ((playing+step)%n + n) % n
}

// Finished handles the end of s. Notifications for streams that were already
// released are ignored. The repeat mode decides what plays next.
func (c *Coordinator) Finished(s Stream) error {
	if s == nil || s != c.stream {
		return nil
	}
	c.release()
	log.Debug().Int("index", c.list.PlayingIndex()).Str("repeat", c.repeat.String()).Msg("stream finished")

	switch c.repeat {
	case RepeatAll:
		return c.RequestNext()
	case RepeatOne:
		return c.load(c.list.PlayingIndex())
	}
	return nil
}

// load releases the live stream, then loads and starts item i. On failure the
// playing index is left where it was.
func (c *Coordinator) load(i int) error {
	item, ok := c.list.Item(i)
	if !ok {
		return errors.Newf("no item at index %d", i)
	}

	c.release()

	s, err := c.port.Load(item.Source)
	if err != nil {
		log.Error().Err(err).Str("source", item.Source).Msg("load failed")
		return errors.Mark(errors.Wrapf(err, "loading %s", item.DisplayName), ErrSourceUnreadable)
	}
	if err := c.list.SetPlaying(i); err != nil {
		s.Stop()
		return err
	}
	c.stream = s
	s.Play()
	c.playing = true
	log.Debug().Int("index", i).Str("source", item.Source).Msg("loaded")
	return nil
}

func (c *Coordinator) release() {
	if c.stream == nil {
		return
	}
	c.stream.Stop()
	c.stream = nil
	c.playing = false
}

// Close releases the live stream.
func (c *Coordinator) Close() {
	c.release()
}

// IsPlaying reports whether the live stream is producing sound.
func (c *Coordinator) IsPlaying() bool {
	return c.playing
}

// Stream returns the live stream, or nil.
func (c *Coordinator) Stream() Stream {
	return c.stream
}

// Repeat returns the current repeat mode.
func (c *Coordinator) Repeat() RepeatMode {
	return c.repeat
}

// CycleRepeat advances the repeat mode and returns the new one.
func (c *Coordinator) CycleRepeat() RepeatMode {
	c.repeat = c.repeat.Next()
	return c.repeat
}

// NowPlaying returns the item at the playing index.
func (c *Coordinator) NowPlaying() (catalog.Item, bool) {
	if c.list.PlayingIndex() == -1 {
		return catalog.Item{}, false
	}
	return c.list.Item(c.list.PlayingIndex())
}

// UpNext returns the item that RequestNext would play.
func (c *Coordinator) UpNext() (catalog.Item, bool) {
	n := c.list.Len()
	if n == 0 {
		return catalog.Item{}, false
	}
	return c.list.Item((c.list.PlayingIndex() + 1) % n)
}

// Snapshot is a read-only copy of everything the renderer needs.
type Snapshot struct {
	Rows       []playlist.Row
	Selection  int
	Playing    int
	Count      int
	WindowSize int
	IsPlaying  bool
	Loaded     bool
	NowPlaying *catalog.Item
	UpNext     *catalog.Item
	Repeat     RepeatMode
	Elapsed    time.Duration
	Duration   time.Duration
}

// Snapshot captures the current navigation and playback state.
func (c *Coordinator) Snapshot() Snapshot {
	s := Snapshot{
		Rows:       c.list.Window(),
		Selection:  c.list.SelectionIndex(),
		Playing:    c.list.PlayingIndex(),
		Count:      c.list.Len(),
		WindowSize: c.list.WindowSize(),
		IsPlaying:  c.playing,
		Loaded:     c.stream != nil,
		Repeat:     c.repeat,
	}
	if item, ok := c.NowPlaying(); ok {
		s.NowPlaying = &item
	}
	if item, ok := c.UpNext(); ok {
		s.UpNext = &item
	}
	if c.stream != nil {
		s.Elapsed = c.stream.Position()
		s.Duration = c.stream.Duration()
	}
	return s
}
