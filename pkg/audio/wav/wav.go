// Package wav reads and writes 16-bit PCM WAVE clips.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalid is returned for input that is not a readable WAVE file.
var ErrInvalid = errors.New("wav: invalid file")

// Clip is decoded audio with interleaved int16 samples.
type Clip struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	return float64(len(c.Samples)/c.Channels) / float64(c.SampleRate)
}

// Mono returns the clip downmixed to one channel by averaging.
func (c *Clip) Mono() *Clip {
	if c.Channels <= 1 {
		return c
	}
	frames := len(c.Samples) / c.Channels
	out := make([]int16, frames)
	for i := range frames {
		var sum int32
		for ch := range c.Channels {
			sum += int32(c.Samples[i*c.Channels+ch])
		}
		out[i] = int16(sum / int32(c.Channels))
	}
	return &Clip{Samples: out, SampleRate: c.SampleRate, Channels: 1}
}

// Decode reads a PCM WAVE stream. 24 and 32-bit input is reduced to 16 bits.
func Decode(r io.ReadSeeker) (*Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrInvalid
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: decode: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return nil, ErrInvalid
	}

	var shift uint
	switch buf.SourceBitDepth {
	case 16:
	case 24:
		shift = 8
	case 32:
		shift = 16
	default:
		return nil, fmt.Errorf("wav: unsupported bit depth %d", buf.SourceBitDepth)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v >> shift)
	}
	return &Clip{
		Samples:    samples,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}

// ReadFile decodes the WAVE file at path.
func ReadFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes c as a 16-bit PCM WAVE stream.
func Encode(w io.WriteSeeker, c *Clip) error {
	e := wav.NewEncoder(w, c.SampleRate, 16, c.Channels, 1)
	data := make([]int, len(c.Samples))
	for i, s := range c.Samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: c.Channels, SampleRate: c.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := e.Write(buf); err != nil {
		return fmt.Errorf("wav: encode: %w", err)
	}
	return e.Close()
}

// WriteFile writes c to path.
func WriteFile(path string, c *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
