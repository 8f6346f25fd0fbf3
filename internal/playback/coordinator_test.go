package playback

import (
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/olivier-w/crate/internal/catalog"
	"github.com/olivier-w/crate/internal/playlist"
)

func newTestCoordinator(sources ...string) (*Coordinator, *playlist.Playlist, *fakePort) {
	items := make([]catalog.Item, len(sources))
	for i, s := range sources {
		items[i] = catalog.NewItem(s)
	}
	list := playlist.New(items, 25)
	port := newFakePort()
	return New(list, port), list, port
}

func expectCalls(t *testing.T, port *fakePort, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	got := port.calls
	if got == nil {
		got = []string{}
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected device calls %v, got %v", want, got)
	}
}

func TestThreeItemScenario(t *testing.T) {
	c, list, port := newTestCoordinator("a.mp3", "b.wav", "c.m4a")

	if err := c.RequestPlay(); err != nil {
		t.Fatalf("RequestPlay() error = %v", err)
	}
	if list.PlayingIndex() != 0 || !c.IsPlaying() {
		t.Fatalf("expected playing=0 and is_playing, got %d/%v", list.PlayingIndex(), c.IsPlaying())
	}
	expectCalls(t, port, "load a.mp3", "play")

	port.reset()
	if err := c.RequestNext(); err != nil {
		t.Fatalf("RequestNext() error = %v", err)
	}
	if list.SelectionIndex() != 1 || list.PlayingIndex() != 1 {
		t.Fatalf("expected selection=1 playing=1, got %d/%d", list.SelectionIndex(), list.PlayingIndex())
	}
	expectCalls(t, port, "stop a.mp3", "load b.wav", "play")

	port.reset()
	if err := c.RequestPrevious(); err != nil {
		t.Fatalf("RequestPrevious() error = %v", err)
	}
	if list.SelectionIndex() != 0 || list.PlayingIndex() != 0 {
		t.Fatalf("expected selection=0 playing=0, got %d/%d", list.SelectionIndex(), list.PlayingIndex())
	}
	expectCalls(t, port, "stop b.wav", "load a.mp3", "play")
}

func TestRequestPlayTwiceLoadsOnce(t *testing.T) {
	c, _, port := newTestCoordinator("a.mp3", "b.wav")

	if err := c.RequestPlay(); err != nil {
		t.Fatal(err)
	}
	if err := c.RequestPlay(); err != nil {
		t.Fatal(err)
	}
	if got := port.count("load"); got != 1 {
		t.Fatalf("expected exactly one load, got %d", got)
	}
	expectCalls(t, port, "load a.mp3", "play")
}

func TestRequestPlayAfterPauseResumesWithoutReload(t *testing.T) {
	c, _, port := newTestCoordinator("a.mp3", "b.wav")

	_ = c.RequestPlay()
	if err := c.RequestPause(); err != nil {
		t.Fatal(err)
	}
	if c.IsPlaying() {
		t.Fatal("expected paused state")
	}
	if err := c.RequestPlay(); err != nil {
		t.Fatal(err)
	}
	if !c.IsPlaying() {
		t.Fatal("expected playing after resume")
	}
	expectCalls(t, port, "load a.mp3", "play", "pause", "play")
}

func TestRequestPlayOnOtherSelectionReloads(t *testing.T) {
	c, list, port := newTestCoordinator("a.mp3", "b.wav", "c.m4a")

	_ = c.RequestPlay()
	_ = list.MoveSelection(2)
	port.reset()

	if err := c.RequestPlay(); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, port, "stop a.mp3", "load c.m4a", "play")
	if list.PlayingIndex() != 2 {
		t.Fatalf("expected playing=2, got %d", list.PlayingIndex())
	}
}

func TestBrowsingDoesNotTouchPlayback(t *testing.T) {
	c, list, port := newTestCoordinator("a.mp3", "b.wav", "c.m4a")

	_ = c.RequestPlay()
	port.reset()
	_ = list.MoveSelection(1)
	_ = list.MoveSelection(1)

	expectCalls(t, port)
	if list.PlayingIndex() != 0 || !c.IsPlaying() {
		t.Fatal("expected item 0 to keep playing while browsing")
	}
}

func TestRequestPauseWithNothingLoadedIsNoop(t *testing.T) {
	c, list, port := newTestCoordinator("a.mp3", "b.wav", "c.m4a")

	if err := c.RequestPause(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expectCalls(t, port)
	if list.PlayingIndex() != -1 || c.IsPlaying() {
		t.Fatal("expected state untouched")
	}
}

func TestRequestPauseTwiceIsNoop(t *testing.T) {
	c, _, port := newTestCoordinator("a.mp3")

	_ = c.RequestPlay()
	_ = c.RequestPause()
	_ = c.RequestPause()
	if got := port.count("pause"); got != 1 {
		t.Fatalf("expected one pause, got %d", got)
	}
}

func TestRequestNextOnSingleItemReloads(t *testing.T) {
	c, list, port := newTestCoordinator("only.mp3")

	_ = c.RequestPlay()
	port.reset()

	if err := c.RequestNext(); err != nil {
		t.Fatal(err)
	}
	if list.PlayingIndex() != 0 {
		t.Fatalf("expected playing to stay 0, got %d", list.PlayingIndex())
	}
	if got := port.count("load"); got != 1 {
		t.Fatalf("expected exactly one reload, got %d", got)
	}
	expectCalls(t, port, "stop only.mp3", "load only.mp3", "play")
}

func TestSkipWithNothingPlayed(t *testing.T) {
	c, list, port := newTestCoordinator("a.mp3", "b.wav", "c.m4a")
	_ = list.MoveSelection(1)

	if err := c.RequestNext(); err != nil {
		t.Fatal(err)
	}
	if list.PlayingIndex() != 0 || list.SelectionIndex() != 0 {
		t.Fatalf("expected next from nothing to play item 0, got playing=%d selection=%d",
			list.PlayingIndex(), list.SelectionIndex())
	}

	c2, list2, _ := newTestCoordinator("a.mp3", "b.wav", "c.m4a")
	if err := c2.RequestPrevious(); err != nil {
		t.Fatal(err)
	}
	if list2.PlayingIndex() != 2 || list2.SelectionIndex() != 2 {
		t.Fatalf("expected previous from nothing to play the last item, got playing=%d", list2.PlayingIndex())
	}
	expectCalls(t, port, "load a.mp3", "play")
}

func TestSkipWrapsAroundBothEnds(t *testing.T) {
	c, list, _ := newTestCoordinator("a.mp3", "b.wav", "c.m4a")

	_ = c.RequestPrevious() // plays c (index 2)
	if err := c.RequestNext(); err != nil {
		t.Fatal(err)
	}
	if list.PlayingIndex() != 0 {
		t.Fatalf("expected wrap to 0, got %d", list.PlayingIndex())
	}
	if err := c.RequestPrevious(); err != nil {
		t.Fatal(err)
	}
	if list.PlayingIndex() != 2 {
		t.Fatalf("expected wrap to 2, got %d", list.PlayingIndex())
	}
}

func TestCommandsOnEmptyPlaylist(t *testing.T) {
	c, _, port := newTestCoordinator()

	for name, cmd := range map[string]func() error{
		"play":     c.RequestPlay,
		"pause":    c.RequestPause,
		"next":     c.RequestNext,
		"previous": c.RequestPrevious,
	} {
		if err := cmd(); !errors.Is(err, ErrEmptyPlaylist) {
			t.Fatalf("%s: expected ErrEmptyPlaylist, got %v", name, err)
		}
	}
	expectCalls(t, port)
}

func TestLoadFailureKeepsPlayingIndex(t *testing.T) {
	c, list, port := newTestCoordinator("a.mp3", "broken.wav", "c.m4a")
	port.fail["broken.wav"] = true

	_ = c.RequestPlay()
	err := c.RequestNext()
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Fatalf("expected ErrSourceUnreadable, got %v", err)
	}
	if list.PlayingIndex() != 0 {
		t.Fatalf("expected playing index to stay 0, got %d", list.PlayingIndex())
	}
	if list.SelectionIndex() != 1 {
		t.Fatalf("expected selection on the failed item, got %d", list.SelectionIndex())
	}
	if c.IsPlaying() || c.Stream() != nil {
		t.Fatal("expected previous stream to be released")
	}

	// Navigation keeps working and playback recovers on the next item.
	_ = list.MoveSelection(1)
	if err := c.RequestPlay(); err != nil {
		t.Fatalf("RequestPlay() error = %v", err)
	}
	if list.PlayingIndex() != 2 || !c.IsPlaying() {
		t.Fatalf("expected recovery on item 2, got %d", list.PlayingIndex())
	}
}

func TestAtMostOneLiveStream(t *testing.T) {
	c, list, port := newTestCoordinator("a.mp3", "b.wav", "c.m4a")

	_ = c.RequestPlay()
	_ = c.RequestNext()
	_ = list.MoveSelection(1)
	_ = c.RequestPlay()
	_ = c.RequestPrevious()

	live := 0
	for _, s := range port.streams {
		if !s.stopped {
			live++
		}
	}
	if live != 1 {
		t.Fatalf("expected exactly one live stream, got %d", live)
	}
}

func TestFinishedRespectsRepeatMode(t *testing.T) {
	c, list, port := newTestCoordinator("a.mp3", "b.wav")

	_ = c.RequestPlay()
	first := c.Stream()
	if err := c.Finished(first); err != nil {
		t.Fatal(err)
	}
	if c.IsPlaying() || c.Stream() != nil {
		t.Fatal("expected playback to stop with repeat off")
	}
	if list.PlayingIndex() != 0 {
		t.Fatalf("expected playing index kept at 0, got %d", list.PlayingIndex())
	}

	// With the stream released, play on the same selection reloads it.
	port.reset()
	_ = c.RequestPlay()
	expectCalls(t, port, "load a.mp3", "play")

	if c.CycleRepeat() != RepeatAll {
		t.Fatal("expected repeat all")
	}
	if err := c.Finished(c.Stream()); err != nil {
		t.Fatal(err)
	}
	if list.PlayingIndex() != 1 || !c.IsPlaying() {
		t.Fatalf("expected advance to 1, got %d", list.PlayingIndex())
	}

	if c.CycleRepeat() != RepeatOne {
		t.Fatal("expected repeat one")
	}
	port.reset()
	if err := c.Finished(c.Stream()); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, port, "stop b.wav", "load b.wav", "play")
}

func TestFinishedIgnoresStaleStream(t *testing.T) {
	c, list, port := newTestCoordinator("a.mp3", "b.wav")

	_ = c.RequestPlay()
	stale := c.Stream()
	_ = c.RequestNext()
	port.reset()

	if err := c.Finished(stale); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, port)
	if list.PlayingIndex() != 1 || !c.IsPlaying() {
		t.Fatal("expected current stream untouched")
	}
}

func TestSnapshotDerivedViews(t *testing.T) {
	c, _, _ := newTestCoordinator("a.mp3", "b.wav", "c.m4a")

	snap := c.Snapshot()
	if snap.NowPlaying != nil {
		t.Fatal("expected nothing playing initially")
	}
	if snap.UpNext == nil || snap.UpNext.Source != "a.mp3" {
		t.Fatalf("expected up next a.mp3, got %+v", snap.UpNext)
	}

	_ = c.RequestPrevious()
	snap = c.Snapshot()
	if snap.NowPlaying == nil || snap.NowPlaying.Source != "c.m4a" {
		t.Fatalf("expected now playing c.m4a, got %+v", snap.NowPlaying)
	}
	if snap.UpNext == nil || snap.UpNext.Source != "a.mp3" {
		t.Fatalf("expected up next to wrap to a.mp3, got %+v", snap.UpNext)
	}
	if !snap.IsPlaying || !snap.Loaded || snap.Playing != 2 || snap.Selection != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Rows) != 3 || snap.Rows[2].Role != playlist.Selected {
		t.Fatalf("unexpected rows: %+v", snap.Rows)
	}
}

func TestSkipTarget(t *testing.T) {
	cases := []struct {
		playing, step, n, want int
	}{
		{-1, 1, 5, 0},
		{-1, -1, 5, 4},
		{0, -1, 5, 4},
		{4, 1, 5, 0},
		{2, 1, 5, 3},
		{0, 1, 1, 0},
		{0, -1, 1, 0},
	}
	for _, tc := range cases {
		if got := skipTarget(tc.playing, tc.step, tc.n); got != tc.want {
			t.Fatalf("skipTarget(%d, %d, %d) = %d, want %d", tc.playing, tc.step, tc.n, got, tc.want)
		}
	}
}

func TestCloseReleasesStream(t *testing.T) {
	c, _, port := newTestCoordinator("a.mp3")
	_ = c.RequestPlay()
	c.Close()
	if c.IsPlaying() || c.Stream() != nil {
		t.Fatal("expected stream released")
	}
	if !port.streams[0].stopped {
		t.Fatal("expected stream stopped")
	}
}
