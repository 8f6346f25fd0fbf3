package player

import (
	"bufio"
	"encoding/binary"
	"io"
)

// converter turns interleaved 16-bit PCM at any rate and channel count into
// the device format: stereo at sampleRate. Mono is duplicated to both
// channels, extra channels are dropped, and the rate is changed with linear
// interpolation between neighbouring frames.
type converter struct {
	src      *bufio.Reader
	channels int
	step     float64
	pos      float64
	cur      [2]int16
	next     [2]int16
	frame    []byte
	primed   bool
	err      error
}

// newConverter returns r unchanged when it already matches the device.
func newConverter(r io.Reader, rate, channels int) io.Reader {
	if rate == sampleRate && channels == channelCount {
		return r
	}
	return &converter{
		src:      bufio.NewReaderSize(r, 16*1024),
		channels: channels,
		step:     float64(rate) / float64(sampleRate),
		frame:    make([]byte, channels*2),
	}
}

func (c *converter) readFrame() ([2]int16, error) {
	if _, err := io.ReadFull(c.src, c.frame); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return [2]int16{}, err
	}
	left := int16(binary.LittleEndian.Uint16(c.frame))
	right := left
	if c.channels > 1 {
		right = int16(binary.LittleEndian.Uint16(c.frame[2:]))
	}
	return [2]int16{left, right}, nil
}

func (c *converter) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if !c.primed {
		if c.cur, c.err = c.readFrame(); c.err != nil {
			return 0, c.err
		}
		if c.next, c.err = c.readFrame(); c.err != nil {
			c.next = c.cur
		}
		c.primed = true
	}

	n := 0
	for n+4 <= len(p) {
		for c.pos >= 1 {
			if c.err != nil {
				return n, c.eof(n)
			}
			c.cur = c.next
			c.pos--
			if c.next, c.err = c.readFrame(); c.err != nil {
				c.next = c.cur
			}
		}
		for ch := 0; ch < 2; ch++ {
			v := float64(c.cur[ch])*(1-c.pos) + float64(c.next[ch])*c.pos
			binary.LittleEndian.PutUint16(p[n+ch*2:], uint16(int16(v)))
		}
		n += 4
		c.pos += c.step
	}
	return n, nil
}

// eof reports the pending source error once buffered output is returned.
func (c *converter) eof(n int) error {
	if n > 0 {
		return nil
	}
	return c.err
}
