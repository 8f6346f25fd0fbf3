// Package player is the audio device behind playback.Port. It decodes local
// files and feeds them to a single process-wide oto context.
package player

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog/log"
)

const (
	sampleRate   = 44100
	channelCount = 2
	bitDepth     = 2 // 16-bit = 2 bytes
	bytesPerSec  = sampleRate * channelCount * bitDepth

	pollInterval = 200 * time.Millisecond
	defaultVol   = 0.8
)

// ErrDeviceBusy is returned by Load while another stream is still open.
var ErrDeviceBusy = errors.New("audio device busy")

// countingReader wraps an io.Reader and tracks bytes read and whether the
// source is exhausted.
type countingReader struct {
	reader io.Reader
	pos    int64
	eof    bool
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	if err != nil {
		cr.eof = true
	}
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

func (cr *countingReader) EOF() bool {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.eof
}

// output is the subset of *oto.Player a Stream drives.
type output interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(float64)
	Close() error
}

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channelCount,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// Device opens streams on the sound card, one at a time.
type Device struct {
	newOutput func(io.Reader) output
	open      func(path string) (audioDecoder, io.Closer, error)

	mu      sync.Mutex
	current *Stream
}

// NewDevice initialises the audio context.
func NewDevice() (*Device, error) {
	ctx, err := initOto()
	if err != nil {
		return nil, errors.Wrap(err, "initialising audio output")
	}
	return &Device{
		newOutput: func(r io.Reader) output { return ctx.NewPlayer(r) },
		open:      openFile,
	}, nil
}

func openFile(path string) (audioDecoder, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return dec, f, nil
}

// Load decodes path and prepares a paused stream for it. The previous
// stream must have been stopped first.
func (d *Device) Load(path string) (*Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != nil && !d.current.Closed() {
		return nil, ErrDeviceBusy
	}

	dec, file, err := d.open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	var dur time.Duration
	srcBytesPerSec := int64(dec.SampleRate() * dec.ChannelCount() * bitDepth)
	if srcBytesPerSec > 0 {
		dur = time.Duration(float64(dec.Length()) / float64(srcBytesPerSec) * float64(time.Second))
	}

	cr := &countingReader{reader: newConverter(dec, dec.SampleRate(), dec.ChannelCount())}
	s := &Stream{
		counter:  cr,
		duration: dur,
		paused:   true,
		done:     make(chan struct{}),
		stopMon:  make(chan struct{}),
	}
	s.out = d.newOutput(cr)
	s.out.SetVolume(defaultVol)
	s.cleanup = func() {
		if err := s.out.Close(); err != nil {
			log.Debug().Err(err).Str("source", path).Msg("closing output")
		}
		dec.Close()
		file.Close()
	}
	d.current = s

	go s.monitor()

	log.Debug().Str("source", path).Dur("duration", dur).Int("rate", dec.SampleRate()).
		Int("channels", dec.ChannelCount()).Msg("stream opened")
	return s, nil
}

// Stream is one decoded source attached to the device.
type Stream struct {
	out      output
	counter  *countingReader
	duration time.Duration
	paused   bool
	done     chan struct{}
	doneOnce sync.Once
	stopMon  chan struct{}
	cleanup  func()
	mu       sync.Mutex
	closed   bool
}

func (s *Stream) monitor() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopMon:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		finished := !s.closed && !s.paused && s.counter.EOF() && !s.out.IsPlaying()
		s.mu.Unlock()

		if finished {
			s.finish()
			return
		}
	}
}

// Done returns a channel that closes when the source has been played to the
// end or the stream is stopped.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

func (s *Stream) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Play starts or resumes output.
func (s *Stream) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.out.Play()
	s.paused = false
}

// Pause suspends output without losing the position.
func (s *Stream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.out.Pause()
	s.paused = true
}

// Paused returns whether playback is paused.
func (s *Stream) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Position returns the current playback position.
func (s *Stream) Position() time.Duration {
	secs := float64(s.counter.Pos()) / float64(bytesPerSec)
	return time.Duration(secs * float64(time.Second))
}

// Duration returns the total duration of the source, or 0 if unknown.
func (s *Stream) Duration() time.Duration {
	return s.duration
}

// Stop releases the stream and frees the device. Calling it again is a no-op.
func (s *Stream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.out != nil {
		s.out.Pause()
	}
	close(s.stopMon)
	if s.cleanup != nil {
		s.cleanup()
	}
	s.finish()
}

// Closed reports whether Stop has been called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
