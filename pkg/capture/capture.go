// Package capture records fixed-length microphone clips and returns them
// as normalized float32 samples.
//
// A [Capture] owns at most one open [Device] and moves through four states:
//
//	Uninitialized ──Initialize──▶ Initialized ──Start──▶ Recording ──Stop──▶ Stopped
//
// Every call to [Capture.CaptureAndNormalize] ends by releasing the device
// and opening a fresh one, whether it succeeded or not, so the next call
// starts from Initialized (or Uninitialized if the device could not be
// reopened).
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/haivivi/sentio/pkg/audio/pcm"
)

// Duration is the length of every capture.
const Duration = 4 * time.Second

// diagnosticSamples is how many leading samples are logged at debug level.
const diagnosticSamples = 10

var (
	// ErrDevice is returned when the microphone cannot be opened or driven.
	ErrDevice = errors.New("capture: device error")

	// ErrNotReady is returned when no usable device is held at capture time.
	ErrNotReady = errors.New("capture: recorder not ready")
)

// CaptureError reports a failed or empty read. Result is the raw count
// returned by the device.
type CaptureError struct {
	Result int
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture: read failed (result %d): %v", e.Result, e.Err)
	}
	return fmt.Sprintf("capture: read failed (result %d)", e.Result)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// State is the lifecycle state of a Capture.
type State int

const (
	Uninitialized State = iota
	Initialized
	Recording
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Device is an open mono 16-bit input stream.
type Device interface {
	Start() error
	Stop() error
	// Read blocks until buf is filled or the device fails, and returns the
	// number of samples read.
	Read(buf []int16) (int, error)
	Close() error
}

// Driver opens input devices.
type Driver interface {
	// MinBufferFrames returns the smallest buffer the platform accepts at
	// the given rate.
	MinBufferFrames(sampleRate int) (int, error)
	// Open opens a mono 16-bit input device with a buffer of bufferFrames.
	Open(sampleRate, bufferFrames int) (Device, error)
}

// Option configures a Capture.
type Option func(*Capture)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Capture) { c.logger = l }
}

// Capture records Duration of audio from a Driver's device.
type Capture struct {
	mu           sync.Mutex
	driver       Driver
	sampleRate   int
	samples      int
	bufferFrames int
	dev          Device
	state        State
	logger       *slog.Logger
}

// New creates a Capture for the given sample rate and tries to open the
// device once. A failure to open is logged; the Capture stays
// Uninitialized and the next capture retries.
func New(driver Driver, sampleRate int, opts ...Option) *Capture {
	c := &Capture{
		driver:     driver,
		sampleRate: sampleRate,
		samples:    sampleRate * int(Duration/time.Second),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.bufferFrames = c.samples
	if minFrames, err := driver.MinBufferFrames(sampleRate); err != nil {
		c.logger.Warn("capture: min buffer query failed", "sample_rate", sampleRate, "error", err)
	} else if minFrames > c.bufferFrames {
		c.bufferFrames = minFrames
	}

	if err := c.Initialize(); err != nil {
		c.logger.Error("capture: initialize failed", "error", err)
	}
	return c
}

// Initialize releases any held device and opens a new one.
func (c *Capture) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialize()
}

func (c *Capture) initialize() error {
	c.release()
	dev, err := c.driver.Open(c.sampleRate, c.bufferFrames)
	if err != nil {
		return fmt.Errorf("%w: open at %d Hz: %w", ErrDevice, c.sampleRate, err)
	}
	c.dev = dev
	c.state = Initialized
	return nil
}

func (c *Capture) release() {
	if c.dev == nil {
		c.state = Uninitialized
		return
	}
	if c.state == Recording {
		if err := c.dev.Stop(); err != nil {
			c.logger.Warn("capture: stop on release failed", "error", err)
		}
	}
	if err := c.dev.Close(); err != nil {
		c.logger.Warn("capture: close failed", "error", err)
	}
	c.dev = nil
	c.state = Uninitialized
}

// State returns the current lifecycle state.
func (c *Capture) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SampleRate returns the configured sample rate.
func (c *Capture) SampleRate() int { return c.sampleRate }

// Samples returns the number of samples in one capture.
func (c *Capture) Samples() int { return c.samples }

// BufferFrames returns the device buffer size in frames.
func (c *Capture) BufferFrames() int { return c.bufferFrames }

// CaptureAndNormalize records Duration of audio with a single blocking
// read and returns the samples scaled to [-1, 1). The result holds as many
// samples as the device delivered.
func (c *Capture) CaptureAndNormalize() ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Initialized {
		if err := c.initialize(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
		}
	}

	defer func() {
		if rerr := c.initialize(); rerr != nil {
			c.logger.Error("capture: reinitialize failed", "error", rerr)
		}
	}()

	if err := c.dev.Start(); err != nil {
		return nil, fmt.Errorf("%w: start: %w", ErrDevice, err)
	}
	c.state = Recording
	c.logger.Info("capture: recording", "sample_rate", c.sampleRate, "duration", Duration)

	buf := make([]int16, c.samples)
	n, rerr := c.dev.Read(buf)
	if n <= 0 || rerr != nil {
		c.logger.Error("capture: read failed", "result", n, "error", rerr)
		return nil, &CaptureError{Result: n, Err: rerr}
	}

	if err := c.dev.Stop(); err != nil {
		return nil, fmt.Errorf("%w: stop: %w", ErrDevice, err)
	}
	c.state = Stopped
	c.logger.Info("capture: samples read", "samples", n)

	samples := pcm.Normalize(buf[:n])
	c.logDiagnostics(buf[:n], samples)
	return samples, nil
}

func (c *Capture) logDiagnostics(raw []int16, samples []float32) {
	if !c.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	nonZero := false
	for i := 0; i < len(raw) && i < diagnosticSamples; i++ {
		if raw[i] != 0 {
			nonZero = true
		}
		c.logger.Debug("capture: sample", "index", i, "raw", raw[i], "normalized", samples[i])
	}
	c.logger.Debug("capture: diagnostics", "non_zero", nonZero, "peak", pcm.Peak(samples))
}

// Close releases the device. The Capture can be reused after Initialize.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.release()
	return nil
}
