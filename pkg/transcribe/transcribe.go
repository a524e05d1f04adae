// Package transcribe turns recorded speech into text.
package transcribe

import (
	"fmt"

	"github.com/haivivi/sentio/pkg/audio/pcm"
	"github.com/haivivi/sentio/pkg/audio/resampler"
	"github.com/haivivi/sentio/pkg/audio/wav"
)

// SampleRate is the input rate transcribers expect.
const SampleRate = 16000

// Transcriber converts audio samples to text.
type Transcriber interface {
	// Transcribe converts mono 16 kHz samples in [-1, 1] to text.
	Transcribe(samples []float32) (string, error)
	// Close releases backend resources.
	Close() error
}

// File decodes the WAV file at path, converts it to mono 16 kHz and
// transcribes it with t.
func File(t Transcriber, path string) (string, error) {
	samples, err := LoadSamples(path, SampleRate)
	if err != nil {
		return "", err
	}
	return t.Transcribe(samples)
}

// LoadSamples reads a WAV file as mono float samples at rate.
func LoadSamples(path string, rate int) ([]float32, error) {
	clip, err := wav.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	mono := clip.Mono()
	samples, err := resampler.Convert(mono.Samples, resampler.Mono(mono.SampleRate), resampler.Mono(rate))
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	return pcm.Normalize(samples), nil
}
