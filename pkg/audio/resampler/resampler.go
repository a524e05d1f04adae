package resampler

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/haivivi/sentio/pkg/audio/pcm"
)

// Resampler is a streaming converter. Close it to release resources.
type Resampler interface {
	io.ReadCloser
	CloseWithError(error) error
}

// Convert resamples interleaved samples from src to dst in one pass.
func Convert(samples []int16, src, dst Format) ([]int16, error) {
	if src == dst {
		return samples, nil
	}
	r, err := New(bytes.NewReader(pcm.EncodeInt16(samples)), src, dst)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("resampler: convert %d Hz to %d Hz: %w", src.SampleRate, dst.SampleRate, err)
	}
	return pcm.DecodeInt16(out), nil
}

// Stream resamples an io.Reader of 16-bit PCM.
type Stream struct {
	srcFmt Format
	src    io.Reader

	dstFmt  Format
	readBuf []byte

	mu            sync.Mutex
	closeErr      error
	resampler     resampling.Resampler
	leftover      []byte
	needsResample bool
}

// New creates a Resampler reading srcFmt PCM from src and producing dstFmt.
func New(src io.Reader, srcFmt, dstFmt Format) (Resampler, error) {
	needsResample := srcFmt.SampleRate != dstFmt.SampleRate

	if srcFmt.SampleRate <= 0 || dstFmt.SampleRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid sample rates %d -> %d", srcFmt.SampleRate, dstFmt.SampleRate)
	}

	var resampler resampling.Resampler
	if needsResample {
		config := &resampling.Config{
			InputRate:  float64(srcFmt.SampleRate),
			OutputRate: float64(dstFmt.SampleRate),
			Channels:   dstFmt.channels(),
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		}
		var err error
		resampler, err = resampling.New(config)
		if err != nil {
			return nil, fmt.Errorf("resampler: create: %w", err)
		}
	}

	rs := &Stream{
		srcFmt: srcFmt,
		src:    newSampleReader(src, srcFmt.sampleBytes()),

		dstFmt: dstFmt,

		resampler:     resampler,
		needsResample: needsResample,
	}

	return rs, nil
}

// Read copies resampled audio into p. Not safe for concurrent use.
func (r *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if len(p) < r.dstFmt.sampleBytes() {
		return 0, io.ErrShortBuffer
	}

	p = p[:len(p)/r.dstFmt.sampleBytes()*r.dstFmt.sampleBytes()]

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.leftover) > 0 {
		n := copy(p, r.leftover)
		r.leftover = r.leftover[n:]
		return n, nil
	}

	if r.closeErr != nil {
		return 0, r.closeErr
	}

	return r.readAndProcess(p)
}

// readAndProcess reads a block of source audio, sized from the rate ratio,
// and runs it through the resampler.
func (r *Stream) readAndProcess(p []byte) (int, error) {
	if !r.needsResample {
		return r.readPassthrough(p)
	}

	ratio := float64(r.srcFmt.SampleRate) / float64(r.dstFmt.SampleRate)
	srcBytesNeeded := int(float64(len(p))*ratio) + r.srcFmt.sampleBytes()*4

	if cap(r.readBuf) < srcBytesNeeded {
		r.readBuf = make([]byte, srcBytesNeeded)
	}

	bytesRead, readErr := r.readSourceWithChannelConv(srcBytesNeeded)
	if bytesRead == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, io.EOF
	}

	raw := pcm.DecodeInt16(r.readBuf[:bytesRead])
	input := make([]float64, len(raw))
	for i, s := range raw {
		input[i] = float64(s) / pcm.Scale
	}

	output, err := r.resampler.Process(input)
	if err != nil {
		return 0, fmt.Errorf("resampler: process: %w", err)
	}

	if len(output) == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, nil
	}

	samples := make([]int16, len(output))
	for i, s := range output {
		switch {
		case s >= 1.0:
			samples[i] = 32767
		case s < -1.0:
			samples[i] = -32768
		default:
			samples[i] = int16(s * pcm.Scale)
		}
	}
	outputBytes := pcm.EncodeInt16(samples)

	outputLen := (len(outputBytes) / r.dstFmt.sampleBytes()) * r.dstFmt.sampleBytes()
	outputBytes = outputBytes[:outputLen]

	n := copy(p, outputBytes)
	if len(outputBytes) > n {
		r.leftover = append(r.leftover, outputBytes[n:]...)
	}

	return n, readErr
}

// readPassthrough reads without sample rate conversion.
func (r *Stream) readPassthrough(p []byte) (int, error) {
	n, err := r.readSourceWithChannelConv(len(p))
	if n == 0 {
		return 0, err
	}
	copy(p, r.readBuf[:n])
	return n, err
}

// readSourceWithChannelConv reads from source and handles channel conversion.
func (r *Stream) readSourceWithChannelConv(dstLen int) (int, error) {
	if cap(r.readBuf) < dstLen {
		r.readBuf = make([]byte, dstLen)
	}

	if r.srcFmt.Stereo && !r.dstFmt.Stereo {
		srcLen := dstLen * 2
		if cap(r.readBuf) < srcLen {
			r.readBuf = make([]byte, srcLen)
		}
		rn, err := r.src.Read(r.readBuf[:srcLen])
		if rn == 0 {
			return 0, err
		}
		return stereoToMono(r.readBuf[:rn]), err
	}

	if r.srcFmt.Stereo == r.dstFmt.Stereo {
		return r.src.Read(r.readBuf[:dstLen])
	}

	rn, err := r.src.Read(r.readBuf[:dstLen/2])
	if rn == 0 {
		return 0, err
	}
	return monoToStereo(r.readBuf[:rn*2]), err
}

// Close releases the resampler. Later reads return io.ErrClosedPipe.
func (r *Stream) Close() error {
	return r.CloseWithError(fmt.Errorf("resampler: %w", io.ErrClosedPipe))
}

// CloseWithError releases the resampler; later reads return err.
func (r *Stream) CloseWithError(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeErr == nil {
		r.closeErr = err
	}
	r.resampler = nil
	return nil
}

// stereoToMono converts stereo 16-bit samples to mono in-place by averaging L
// and R channels.
func stereoToMono(b []byte) int {
	numFrames := len(b) / 4
	for i := range numFrames {
		j := i * 4
		k := i * 2
		l := int16(b[j]) | int16(b[j+1])<<8
		r := int16(b[j+2]) | int16(b[j+3])<<8
		m := int16((int32(l) + int32(r)) / 2)
		b[k] = byte(m)
		b[k+1] = byte(m >> 8)
	}
	return numFrames * 2
}

// monoToStereo converts mono 16-bit samples to stereo in-place by duplicating
// each sample.
func monoToStereo(b []byte) int {
	stereoLen := len(b)
	numSamples := stereoLen / 4
	for i := numSamples - 1; i >= 0; i-- {
		s0, s1 := b[i*2], b[i*2+1]
		j := i * 4
		b[j], b[j+1] = s0, s1
		b[j+2], b[j+3] = s0, s1
	}
	return stereoLen
}
