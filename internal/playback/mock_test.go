package playback

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// fakePort records every device call in order, e.g. "load a.mp3", "play".
type fakePort struct {
	calls   []string
	streams []*fakeStream
	fail    map[string]bool
}

func newFakePort() *fakePort {
	return &fakePort{fail: make(map[string]bool)}
}

func (p *fakePort) Load(source string) (Stream, error) {
	p.calls = append(p.calls, "load "+source)
	if p.fail[source] {
		return nil, errors.Newf("open %s: no such file", source)
	}
	s := &fakeStream{port: p, source: source, done: make(chan struct{})}
	p.streams = append(p.streams, s)
	return s, nil
}

func (p *fakePort) count(prefix string) int {
	n := 0
	for _, c := range p.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (p *fakePort) reset() {
	p.calls = nil
}

type fakeStream struct {
	port    *fakePort
	source  string
	done    chan struct{}
	stopped bool
}

func (s *fakeStream) Play() {
	s.port.calls = append(s.port.calls, "play")
}

func (s *fakeStream) Pause() {
	s.port.calls = append(s.port.calls, "pause")
}

func (s *fakeStream) Done() <-chan struct{} {
	return s.done
}

func (s *fakeStream) Position() time.Duration {
	return 3 * time.Second
}

func (s *fakeStream) Duration() time.Duration {
	return time.Minute
}

func (s *fakeStream) Stop() {
	s.stopped = true
	s.port.calls = append(s.port.calls, "stop "+s.source)
}
