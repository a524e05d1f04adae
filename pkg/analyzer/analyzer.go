// Package analyzer drives one analysis mode at a time: it loads the task's
// assets, gates the trigger, runs capture or tokenization, classifies and
// records the outcome.
//
// The trigger is enabled only while a mode is loaded and no analysis is in
// flight. A failed asset load leaves it disabled until the next successful
// [Analyzer.Switch].
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/haivivi/sentio/pkg/audio/pcm"
	"github.com/haivivi/sentio/pkg/capture"
	"github.com/haivivi/sentio/pkg/classifier"
	"github.com/haivivi/sentio/pkg/history"
	"github.com/haivivi/sentio/pkg/storage"
	"github.com/haivivi/sentio/pkg/task"
	"github.com/haivivi/sentio/pkg/tensor"
	"github.com/haivivi/sentio/pkg/tokenizer"
	"github.com/haivivi/sentio/pkg/transcribe"
	"github.com/haivivi/sentio/pkg/vocab"
)

var (
	// ErrAssetIO wraps failures to read a task's model or vocabulary.
	ErrAssetIO = errors.New("analyzer: asset unreadable")

	// ErrDisabled is returned when no mode is loaded.
	ErrDisabled = errors.New("analyzer: trigger disabled")

	// ErrBusy is returned while another analysis or switch is running.
	ErrBusy = errors.New("analyzer: analysis in progress")

	// ErrEmptyInput is returned for blank text.
	ErrEmptyInput = errors.New("analyzer: please enter text")

	// ErrWrongMode is returned when the input does not match the loaded mode.
	ErrWrongMode = errors.New("analyzer: input does not match mode")

	// ErrNoDevice is returned by AnalyzeAudio when no capture driver is set.
	ErrNoDevice = errors.New("analyzer: no capture device")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("analyzer: closed")
)

// EngineFactory builds an inference engine from model bytes.
type EngineFactory func(model []byte, cfg task.Config) (classifier.Engine, error)

// Options configures an Analyzer.
type Options struct {
	// Store holds model and vocabulary files. Required.
	Store storage.FileStore

	// NewEngine creates the engine for a loaded model. Required.
	NewEngine EngineFactory

	// Driver opens the microphone. Without it only AnalyzeSamples and
	// AnalyzeFile work in audio mode.
	Driver capture.Driver

	// History, when set, receives every successful outcome.
	History *history.Store

	// Tasks overrides the built-in descriptor per mode.
	Tasks map[task.Mode]task.Config

	Logger *slog.Logger
}

// Outcome is the result of one analysis.
type Outcome struct {
	Task       string    `json:"task" yaml:"task"`
	Mode       task.Mode `json:"mode" yaml:"mode"`
	Input      string    `json:"input,omitempty" yaml:"input,omitempty"`
	Label      string    `json:"label" yaml:"label"`
	Index      int       `json:"index" yaml:"index"`
	Confidence float32   `json:"confidence" yaml:"confidence"`
	Logits     []float32 `json:"logits,omitempty" yaml:"logits,omitempty"`
	Err        error     `json:"-" yaml:"-"`
}

// Analyzer is safe for concurrent use; concurrent analyses are rejected
// with ErrBusy rather than queued.
type Analyzer struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	cfg     task.Config
	vocab   *vocab.Vocabulary
	clf     *classifier.Classifier
	mic     *capture.Capture
	enabled bool
	busy    bool
	closed  bool
}

// New returns an Analyzer with no mode loaded.
func New(opts Options) (*Analyzer, error) {
	if opts.Store == nil {
		return nil, errors.New("analyzer: Options.Store is required")
	}
	if opts.NewEngine == nil {
		return nil, errors.New("analyzer: Options.NewEngine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{opts: opts, logger: logger}, nil
}

// Config returns the descriptor for mode, honoring overrides.
func (a *Analyzer) Config(mode task.Mode) (task.Config, error) {
	if cfg, ok := a.opts.Tasks[mode]; ok {
		if cfg.Mode() != mode {
			return task.Config{}, fmt.Errorf("%w: override for %s mode describes a %q task", task.ErrInvalid, mode, cfg.Mode())
		}
		return cfg, cfg.Validate()
	}
	cfg, ok := task.Builtin(mode)
	if !ok {
		return task.Config{}, fmt.Errorf("analyzer: unknown mode %q", mode)
	}
	return cfg, nil
}

// Switch releases the current mode's resources and loads mode's assets.
// On failure the trigger stays disabled and the error wraps ErrAssetIO
// for unreadable assets.
func (a *Analyzer) Switch(ctx context.Context, mode task.Mode) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.busy {
		return ErrBusy
	}

	a.release()
	cfg, err := a.Config(mode)
	if err != nil {
		return err
	}

	var v *vocab.Vocabulary
	if cfg.VocabFile != "" {
		if v, err = vocab.Open(ctx, a.opts.Store, cfg.VocabFile); err != nil {
			a.logger.Error("analyzer: load vocabulary failed", "task", cfg.Name, "file", cfg.VocabFile, "error", err)
			return fmt.Errorf("%w: %w", ErrAssetIO, err)
		}
	}
	model, err := storage.ReadAll(ctx, a.opts.Store, cfg.ModelFile)
	if err != nil {
		a.logger.Error("analyzer: load model failed", "task", cfg.Name, "file", cfg.ModelFile, "error", err)
		return fmt.Errorf("%w: %w", ErrAssetIO, err)
	}
	engine, err := a.opts.NewEngine(model, cfg)
	if err != nil {
		a.logger.Error("analyzer: create engine failed", "task", cfg.Name, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrAssetIO, cfg.ModelFile, err)
	}

	a.cfg, a.vocab = cfg, v
	a.clf = classifier.New(engine, cfg)
	if mode == task.ModeAudio && a.opts.Driver != nil {
		a.mic = capture.New(a.opts.Driver, cfg.SampleRate, capture.WithLogger(a.logger))
	}
	a.enabled = true
	a.logger.Info("analyzer: mode switched", "mode", mode, "task", cfg.Name)
	return nil
}

// release closes the loaded mode. Callers hold a.mu.
func (a *Analyzer) release() {
	a.enabled = false
	if a.clf != nil {
		if err := a.clf.Close(); err != nil {
			a.logger.Warn("analyzer: close classifier failed", "error", err)
		}
		a.clf = nil
	}
	if a.mic != nil {
		if err := a.mic.Close(); err != nil {
			a.logger.Warn("analyzer: close capture failed", "error", err)
		}
		a.mic = nil
	}
	a.vocab = nil
	a.cfg = task.Config{}
}

// Enabled reports whether the trigger is enabled.
func (a *Analyzer) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Task returns the loaded descriptor and whether one is loaded.
func (a *Analyzer) Task() (task.Config, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg, a.clf != nil
}

type run struct {
	cfg   task.Config
	vocab *vocab.Vocabulary
	clf   *classifier.Classifier
	mic   *capture.Capture
}

// begin disables the trigger for one analysis in mode.
func (a *Analyzer) begin(mode task.Mode) (run, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.closed:
		return run{}, ErrClosed
	case a.busy:
		return run{}, ErrBusy
	case !a.enabled:
		return run{}, ErrDisabled
	case a.cfg.Mode() != mode:
		return run{}, fmt.Errorf("%w: %s input in %s mode", ErrWrongMode, mode, a.cfg.Mode())
	}
	a.busy, a.enabled = true, false
	return run{cfg: a.cfg, vocab: a.vocab, clf: a.clf, mic: a.mic}, nil
}

// end re-enables the trigger, whatever the outcome.
func (a *Analyzer) end() {
	a.mu.Lock()
	a.busy = false
	a.enabled = !a.closed && a.clf != nil
	a.mu.Unlock()
}

// AnalyzeText classifies text with the loaded text task.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Outcome{}, ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	r, err := a.begin(task.ModeText)
	if err != nil {
		return Outcome{}, err
	}
	defer a.end()

	seq := tokenizer.Tokenize(text, r.vocab, r.cfg.SequenceLength)
	ids, mask := tensor.PackText(seq.IDs, seq.Mask)
	a.logger.Debug("analyzer: tokenized", "tokens", seq.Tokens(), "length", seq.Len())
	return a.classify(ctx, r, text, []tensor.Buffer{ids, mask})
}

// AnalyzeAudio records one capture window from the microphone and
// classifies it.
func (a *Analyzer) AnalyzeAudio(ctx context.Context) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	r, err := a.begin(task.ModeAudio)
	if err != nil {
		return Outcome{}, err
	}
	defer a.end()
	if r.mic == nil {
		return Outcome{}, ErrNoDevice
	}

	a.logger.Info("analyzer: recording", "seconds", capture.Duration.Seconds(), "sample_rate", r.cfg.SampleRate)
	samples, err := r.mic.CaptureAndNormalize()
	if err != nil {
		a.logger.Error("analyzer: capture failed", "error", err)
		return Outcome{}, err
	}
	return a.classify(ctx, r, "", []tensor.Buffer{tensor.PackAudio(samples)})
}

// AnalyzeSamples classifies normalized samples at the task's rate. The
// input is cut or zero-padded to one capture window.
func (a *Analyzer) AnalyzeSamples(ctx context.Context, samples []float32) (Outcome, error) {
	return a.analyzeSamples(ctx, samples, "")
}

func (a *Analyzer) analyzeSamples(ctx context.Context, samples []float32, input string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	r, err := a.begin(task.ModeAudio)
	if err != nil {
		return Outcome{}, err
	}
	defer a.end()

	samples = pcm.Fit(samples, int64(r.cfg.CaptureSamples()))
	return a.classify(ctx, r, input, []tensor.Buffer{tensor.PackAudio(samples)})
}

// AnalyzeFile classifies a WAV file, converted to mono at the task's rate.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (Outcome, error) {
	cfg, ok := a.Task()
	if !ok {
		return Outcome{}, ErrDisabled
	}
	if cfg.Mode() != task.ModeAudio {
		return Outcome{}, fmt.Errorf("%w: audio file in %s mode", ErrWrongMode, cfg.Mode())
	}
	samples, err := transcribe.LoadSamples(path, cfg.SampleRate)
	if err != nil {
		return Outcome{}, err
	}
	return a.analyzeSamples(ctx, samples, path)
}

func (a *Analyzer) classify(ctx context.Context, r run, input string, inputs []tensor.Buffer) (Outcome, error) {
	res, err := r.clf.Classify(inputs)
	if err != nil {
		a.logger.Error("analyzer: classify failed", "task", r.cfg.Name, "error", err)
		return Outcome{}, err
	}
	out := Outcome{
		Task:       r.cfg.Name,
		Mode:       r.cfg.Mode(),
		Input:      input,
		Label:      res.Label,
		Index:      res.Index,
		Confidence: res.Confidence,
		Logits:     res.Logits,
	}
	a.record(ctx, out)
	return out, nil
}

func (a *Analyzer) record(ctx context.Context, out Outcome) {
	if a.opts.History == nil {
		return
	}
	_, err := a.opts.History.Append(ctx, history.Record{
		Task:       out.Task,
		Mode:       out.Mode,
		Input:      out.Input,
		Label:      out.Label,
		Index:      out.Index,
		Confidence: out.Confidence,
		Logits:     out.Logits,
	})
	if err != nil {
		a.logger.Warn("analyzer: record history failed", "error", err)
	}
}

// Request selects one analysis for Go. Text selects AnalyzeText, File
// selects AnalyzeFile, Samples selects AnalyzeSamples; otherwise the
// microphone is used.
type Request struct {
	Text    string
	File    string
	Samples []float32
	Mode    task.Mode
}

// Go runs the request on a new goroutine and delivers exactly one Outcome
// on the returned channel, with Err set on failure.
func (a *Analyzer) Go(ctx context.Context, req Request) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		var (
			out Outcome
			err error
		)
		switch {
		case req.Mode == task.ModeText || req.Text != "":
			out, err = a.AnalyzeText(ctx, req.Text)
		case req.File != "":
			out, err = a.AnalyzeFile(ctx, req.File)
		case req.Samples != nil:
			out, err = a.AnalyzeSamples(ctx, req.Samples)
		default:
			out, err = a.AnalyzeAudio(ctx)
		}
		out.Err = err
		ch <- out
	}()
	return ch
}

// Close releases the loaded mode. Later calls return ErrClosed.
func (a *Analyzer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.release()
	return nil
}
