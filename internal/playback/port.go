// Package playback sequences playback over a playlist: it decides when the
// audio device is reloaded with a new source and when the current stream is
// resumed or paused.
package playback

import "time"

// Stream is one loaded source on the audio device. The coordinator owns at
// most one Stream at a time and must Stop it before loading another.
type Stream interface {
	Play()
	Pause()
	Stop()
	// Done is closed when the stream reaches the end of its source or is
	// stopped. Callers tell the two apart by whether they stopped it.
	Done() <-chan struct{}
	Position() time.Duration
	Duration() time.Duration
}

// Port loads sources onto the audio device.
type Port interface {
	Load(source string) (Stream, error)
}

// PortFunc adapts a function to the Port interface.
type PortFunc func(source string) (Stream, error)

// Load calls f(source).
func (f PortFunc) Load(source string) (Stream, error) {
	return f(source)
}
