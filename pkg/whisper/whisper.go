// Package whisper binds whisper.cpp for offline English speech-to-text.
//
// The library is dynamically linked (libwhisper). Models are ggml files
// such as ggml-base.en.bin.
//
//	ctx, err := whisper.Init("models/ggml-base.en.bin")
//	if err != nil {
//		return err
//	}
//	defer ctx.Close()
//	text, err := ctx.TranscribeWAV("clip.wav")
package whisper

/*
#cgo LDFLAGS: -lwhisper
#include <whisper.h>
#include <stdlib.h>

static struct whisper_context *sentio_whisper_init(const char *path) {
	struct whisper_context_params p = whisper_context_default_params();
	return whisper_init_from_file_with_params(path, p);
}

static int sentio_whisper_run(struct whisper_context *ctx, const char *lang,
		int threads, const float *samples, int n) {
	struct whisper_full_params p = whisper_full_default_params(WHISPER_SAMPLING_GREEDY);
	p.language = lang;
	p.print_progress = false;
	p.print_realtime = false;
	p.print_timestamps = false;
	p.print_special = false;
	if (threads > 0) {
		p.n_threads = threads;
	}
	return whisper_full(ctx, p, samples, n);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unsafe"

	"github.com/haivivi/sentio/pkg/audio/pcm"
)

// SampleRate is the rate whisper expects its input at.
const SampleRate = 16000

// Language is the transcription language.
const Language = "en"

// wavHeaderSize is the canonical RIFF/WAVE header length.
const wavHeaderSize = 44

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("whisper: context closed")

	// ErrNoAudio is returned for empty input.
	ErrNoAudio = errors.New("whisper: no audio samples")
)

// Context is a loaded whisper model. Transcriptions are serialized.
type Context struct {
	mu      sync.Mutex
	ctx     *C.struct_whisper_context
	threads int
	once    sync.Once
}

// Init loads the model at modelPath.
func Init(modelPath string) (*Context, error) {
	cpath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cpath))

	ctx := C.sentio_whisper_init(cpath)
	if ctx == nil {
		return nil, fmt.Errorf("whisper: failed to load model %q", modelPath)
	}
	return &Context{ctx: ctx}, nil
}

// SetThreads sets the decoder thread count; 0 keeps the library default.
func (c *Context) SetThreads(n int) {
	c.mu.Lock()
	c.threads = n
	c.mu.Unlock()
}

// Transcribe decodes mono 16 kHz samples in [-1, 1] and returns the
// concatenated segment texts.
func (c *Context) Transcribe(samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", ErrNoAudio
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return "", ErrClosed
	}

	lang := C.CString(Language)
	defer C.free(unsafe.Pointer(lang))

	ret := C.sentio_whisper_run(c.ctx, lang, C.int(c.threads),
		(*C.float)(unsafe.Pointer(&samples[0])), C.int(len(samples)))
	if ret != 0 {
		return "", fmt.Errorf("whisper: whisper_full failed (%d)", int(ret))
	}

	var sb strings.Builder
	n := int(C.whisper_full_n_segments(c.ctx))
	for i := range n {
		sb.WriteString(C.GoString(C.whisper_full_get_segment_text(c.ctx, C.int(i))))
	}
	return sb.String(), nil
}

// TranscribeWAV transcribes a 16-bit mono 16 kHz WAV file. The first 44
// bytes are skipped as the header.
func (c *Context) TranscribeWAV(path string) (string, error) {
	samples, err := readRawWAV(path)
	if err != nil {
		return "", err
	}
	return c.Transcribe(samples)
}

func readRawWAV(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	if len(data) <= wavHeaderSize {
		return nil, ErrNoAudio
	}
	return pcm.Normalize(pcm.DecodeInt16(data[wavHeaderSize:])), nil
}

// Close frees the model. Only the first call has an effect.
func (c *Context) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		C.whisper_free(c.ctx)
		c.ctx = nil
	})
	return nil
}

// Free is an alias for Close.
func (c *Context) Free() { c.Close() }
