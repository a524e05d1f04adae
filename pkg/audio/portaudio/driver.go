package portaudio

import (
	"errors"
	"math"

	"github.com/haivivi/sentio/pkg/capture"
)

// Driver opens the default input device for capture.
type Driver struct{}

// MinBufferFrames returns the default input device's low latency expressed
// in frames at sampleRate. PortAudio has no direct minimum-buffer query, so
// this is the smallest buffer the host API suggests for glitch-free input.
func (Driver) MinBufferFrames(sampleRate int) (int, error) {
	info, err := DefaultInputDevice()
	if err != nil {
		return 0, err
	}
	if info.MaxInputChannels < 1 {
		return 0, errors.New("default input device has no input channels")
	}
	frames := int(math.Ceil(info.DefaultLowInputLatency * float64(sampleRate)))
	return max(frames, 1), nil
}

// Open opens a mono 16-bit input stream.
func (Driver) Open(sampleRate, bufferFrames int) (capture.Device, error) {
	return openInput(1, float64(sampleRate), bufferFrames)
}

var _ capture.Driver = Driver{}
