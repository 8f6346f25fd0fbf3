package player

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/llehouerou/go-faad2"
)

// ErrUnsupportedFormat is returned for files the device cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported format")

// audioDecoder produces interleaved 16-bit little-endian PCM at the source's
// own rate and channel count.
type audioDecoder interface {
	io.Reader
	// Length is the total PCM size in bytes, or 0 when unknown.
	Length() int64
	SampleRate() int
	ChannelCount() int
	Close() error
}

// newDecoder picks a decoder by file extension. Extensions are matched the
// same way the catalog matches them.
func newDecoder(f *os.File) (audioDecoder, error) {
	ext := filepath.Ext(f.Name())
	switch ext {
	case ".mp3":
		return newMP3Decoder(f)
	case ".wav":
		return newWAVDecoder(f)
	case ".m4a":
		return newM4ADecoder(f)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}
}

// --- MP3 decoder ---

type mp3Decoder struct {
	dec *mp3.Decoder
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, errors.Wrap(err, "decoding MP3")
	}
	return &mp3Decoder{dec: dec}, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) Length() int64              { return d.dec.Length() }
func (d *mp3Decoder) SampleRate() int            { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int          { return 2 }
func (d *mp3Decoder) Close() error               { return nil }

// --- WAV decoder ---

type wavDecoder struct {
	src         io.Reader
	buf         []byte
	totalBytes  int64
	sampleRate  int
	channels    int
	srcBitDepth int
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	// FwdToPCM positions the file at the start of the data chunk.
	if err := dec.FwdToPCM(); err != nil {
		return nil, errors.Wrap(err, "reading WAV PCM data")
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, errors.Newf("unsupported WAV bit depth %d", bitDepth)
	}
	if channels < 1 {
		return nil, errors.New("WAV file has no channels")
	}

	pcmSize := dec.PCMLen()
	srcFrameSize := int64(channels * bitDepth / 8)
	totalBytes := pcmSize / srcFrameSize * int64(channels) * 2

	return &wavDecoder{
		src:         io.LimitReader(f, pcmSize),
		sampleRate:  int(dec.SampleRate),
		channels:    channels,
		srcBitDepth: bitDepth,
		totalBytes:  totalBytes,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if len(d.buf) > 0 {
		n := copy(p, d.buf)
		d.buf = d.buf[n:]
		return n, nil
	}

	srcBytesPerSample := d.srcBitDepth / 8
	numOutputSamples := len(p) / 2
	if numOutputSamples == 0 {
		numOutputSamples = 1
	}
	srcBytes := make([]byte, numOutputSamples*srcBytesPerSample)
	n, err := io.ReadFull(d.src, srcBytes)
	samplesRead := n / srcBytesPerSample
	if samplesRead == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, samplesRead*2)
	for i := 0; i < samplesRead; i++ {
		off := i * srcBytesPerSample
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(pcm16(srcBytes[off:], d.srcBitDepth)))
	}

	written := copy(p, raw)
	if written < len(raw) {
		d.buf = raw[written:]
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if err == io.EOF && len(d.buf) > 0 {
		err = nil
	}
	return written, err
}

// pcm16 converts one little-endian sample of the given depth to 16 bits.
func pcm16(b []byte, depth int) int16 {
	switch depth {
	case 8:
		// 8-bit WAV is unsigned
		return int16((int(b[0]) - 128) << 8)
	case 24:
		s := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if s&0x800000 != 0 {
			s |= ^0xFFFFFF // sign extend
		}
		return int16(s >> 8)
	case 32:
		return int16(int32(binary.LittleEndian.Uint32(b)) >> 16)
	default:
		return int16(binary.LittleEndian.Uint16(b))
	}
}

func (d *wavDecoder) Length() int64     { return d.totalBytes }
func (d *wavDecoder) SampleRate() int   { return d.sampleRate }
func (d *wavDecoder) ChannelCount() int { return d.channels }
func (d *wavDecoder) Close() error      { return nil }

// --- M4A decoder ---

type m4aDecoder struct {
	reader     *faad2.M4AReader
	readBuf    []int16
	buf        []byte
	totalBytes int64
	sampleRate int
	channels   int
}

func newM4ADecoder(f *os.File) (*m4aDecoder, error) {
	reader, err := faad2.OpenM4A(context.Background(), f)
	if err != nil {
		return nil, errors.Wrap(err, "decoding M4A")
	}

	sampleRate := int(reader.SampleRate())
	channels := int(reader.Channels())
	if sampleRate <= 0 || channels < 1 {
		_ = reader.Close(context.Background())
		return nil, errors.Newf("invalid M4A stream (%d Hz, %d channels)", sampleRate, channels)
	}
	totalBytes := int64(reader.Duration().Seconds()*float64(sampleRate)) * int64(channels) * 2

	return &m4aDecoder{
		reader:     reader,
		readBuf:    make([]int16, 8192),
		totalBytes: totalBytes,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

func (d *m4aDecoder) Read(p []byte) (int, error) {
	if len(d.buf) > 0 {
		n := copy(p, d.buf)
		d.buf = d.buf[n:]
		return n, nil
	}

	want := len(p) / 2
	if want == 0 {
		want = 1
	}
	if want > len(d.readBuf) {
		want = len(d.readBuf)
	}
	n, err := d.reader.Read(context.Background(), d.readBuf[:want])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(d.readBuf[i]))
	}
	written := copy(p, raw)
	if written < len(raw) {
		d.buf = raw[written:]
	}
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return written, err
}

func (d *m4aDecoder) Length() int64     { return d.totalBytes }
func (d *m4aDecoder) SampleRate() int   { return d.sampleRate }
func (d *m4aDecoder) ChannelCount() int { return d.channels }

func (d *m4aDecoder) Close() error {
	return d.reader.Close(context.Background())
}
