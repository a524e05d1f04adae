// Package portaudio binds the PortAudio library for microphone capture.
//
// [Driver] opens the default input device as a mono 16-bit blocking stream
// and satisfies the capture package's driver contract.
//
// Requires portaudio installed via pkg-config (brew install portaudio,
// apt install portaudio19-dev).
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_stream(void **stream,
                              const PaStreamParameters *inputParams,
                              const PaStreamParameters *outputParams,
                              double sampleRate,
                              unsigned long framesPerBuffer,
                              PaStreamFlags streamFlags) {
    return Pa_OpenStream((PaStream**)stream, inputParams, outputParams, sampleRate,
                         framesPerBuffer, streamFlags, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	initOnce sync.Once
	initErr  error
)

// paError converts a PortAudio error code to a Go error.
func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New(C.GoString(C.Pa_GetErrorText(code)))
}

// readStatus maps the result of Pa_ReadStream. paInputOverflowed means
// samples were dropped before this read, but the buffer was still filled.
func readStatus(code int) error {
	if code == int(C.paInputOverflowed) {
		return nil
	}
	return paError(C.PaError(code))
}

// Initialize initializes the PortAudio library.
// It is safe to call multiple times.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// Terminate terminates the PortAudio library.
func Terminate() error {
	return paError(C.Pa_Terminate())
}

// DeviceInfo contains information about an audio device.
type DeviceInfo struct {
	Index                    int
	Name                     string
	MaxInputChannels         int
	MaxOutputChannels        int
	DefaultLowInputLatency   float64
	DefaultHighInputLatency  float64
	DefaultLowOutputLatency  float64
	DefaultHighOutputLatency float64
	DefaultSampleRate        float64
	IsDefaultInput           bool
	IsDefaultOutput          bool
}

// Devices returns a list of available audio devices.
func Devices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}

	defaultInput := int(C.Pa_GetDefaultInputDevice())
	defaultOutput := int(C.Pa_GetDefaultOutputDevice())

	devices := make([]DeviceInfo, count)
	for i := 0; i < count; i++ {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil {
			continue
		}
		devices[i] = DeviceInfo{
			Index:                    i,
			Name:                     C.GoString(info.name),
			MaxInputChannels:         int(info.maxInputChannels),
			MaxOutputChannels:        int(info.maxOutputChannels),
			DefaultLowInputLatency:   float64(info.defaultLowInputLatency),
			DefaultHighInputLatency:  float64(info.defaultHighInputLatency),
			DefaultLowOutputLatency:  float64(info.defaultLowOutputLatency),
			DefaultHighOutputLatency: float64(info.defaultHighOutputLatency),
			DefaultSampleRate:        float64(info.defaultSampleRate),
			IsDefaultInput:           i == defaultInput,
			IsDefaultOutput:          i == defaultOutput,
		}
	}
	return devices, nil
}

// DefaultInputDevice returns the default input device.
func DefaultInputDevice() (*DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	idx := C.Pa_GetDefaultInputDevice()
	if idx == C.paNoDevice {
		return nil, errors.New("no default input device")
	}

	info := C.Pa_GetDeviceInfo(idx)
	if info == nil {
		return nil, errors.New("failed to get device info")
	}

	return &DeviceInfo{
		Index:                   int(idx),
		Name:                    C.GoString(info.name),
		MaxInputChannels:        int(info.maxInputChannels),
		DefaultLowInputLatency:  float64(info.defaultLowInputLatency),
		DefaultHighInputLatency: float64(info.defaultHighInputLatency),
		DefaultSampleRate:       float64(info.defaultSampleRate),
		IsDefaultInput:          true,
	}, nil
}

// Stream is a blocking PortAudio input stream.
type Stream struct {
	stream unsafe.Pointer
	buffer unsafe.Pointer
	frames int
	closed bool
	mu     sync.Mutex
}

// openInput opens a paInt16 stream on the default input device. The C
// buffer holds framesPerBuffer frames.
func openInput(channels int, sampleRate float64, framesPerBuffer int) (*Stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	device := C.Pa_GetDefaultInputDevice()
	if device == C.paNoDevice {
		return nil, errors.New("no default input device")
	}
	info := C.Pa_GetDeviceInfo(device)
	params := &C.PaStreamParameters{
		device:                    device,
		channelCount:              C.int(channels),
		sampleFormat:              C.paInt16,
		suggestedLatency:          info.defaultLowInputLatency,
		hostApiSpecificStreamInfo: nil,
	}

	var paStream unsafe.Pointer
	err := paError(C.pa_open_stream(
		&paStream,
		params,
		nil,
		C.double(sampleRate),
		C.paFramesPerBufferUnspecified,
		C.paClipOff,
	))
	if err != nil {
		return nil, err
	}

	return &Stream{
		stream: paStream,
		buffer: C.malloc(C.size_t(framesPerBuffer * channels * 2)),
		frames: framesPerBuffer,
	}, nil
}

// Start starts the audio stream.
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("stream closed")
	}
	return paError(C.pa_start_stream(s.stream))
}

// Stop stops the audio stream.
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	return paError(C.pa_stop_stream(s.stream))
}

// Close closes the audio stream.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	C.pa_stop_stream(s.stream)
	err := paError(C.pa_close_stream(s.stream))
	C.free(s.buffer)
	return err
}

// Read performs one blocking read of len(buf) frames, capped at the
// stream's buffer size, and returns the number of frames copied.
func (s *Stream) Read(buf []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errors.New("stream closed")
	}
	frames := min(len(buf), s.frames)
	if frames == 0 {
		return 0, nil
	}

	if err := readStatus(int(C.pa_read_stream(s.stream, s.buffer, C.ulong(frames)))); err != nil {
		return 0, err
	}
	C.memcpy(unsafe.Pointer(&buf[0]), s.buffer, C.size_t(frames*2))
	return frames, nil
}
