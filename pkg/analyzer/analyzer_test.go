package analyzer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haivivi/sentio/pkg/audio/wav"
	"github.com/haivivi/sentio/pkg/capture"
	"github.com/haivivi/sentio/pkg/classifier"
	"github.com/haivivi/sentio/pkg/history"
	"github.com/haivivi/sentio/pkg/kv"
	"github.com/haivivi/sentio/pkg/storage"
	"github.com/haivivi/sentio/pkg/task"
	"github.com/haivivi/sentio/pkg/tensor"
)

type fakeEngine struct {
	logits []float32
	err    error
	inputs []tensor.Buffer
	closed bool
	block  chan struct{}
}

func (f *fakeEngine) Run(inputs []tensor.Buffer, _ tensor.OutputSlot) ([]float32, error) {
	if f.block != nil {
		<-f.block
	}
	f.inputs = inputs
	return f.logits, f.err
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

type fakeDevice struct{ n int }

func (d *fakeDevice) Start() error { return nil }
func (d *fakeDevice) Stop() error  { return nil }
func (d *fakeDevice) Close() error { return nil }
func (d *fakeDevice) Read(buf []int16) (int, error) {
	n := min(d.n, len(buf))
	for i := range n {
		buf[i] = 16384
	}
	return n, nil
}

type fakeDriver struct{ n int }

func (f fakeDriver) MinBufferFrames(int) (int, error) { return 0, nil }
func (f fakeDriver) Open(int, int) (capture.Device, error) {
	return &fakeDevice{n: f.n}, nil
}

type fixture struct {
	a       *Analyzer
	dir     string
	engines []*fakeEngine
	logits  map[task.Mode][]float32
	hist    *history.Store
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	vocabLines := make([]string, 103)
	for i := range vocabLines {
		vocabLines[i] = "[unused]"
	}
	vocabLines = append(vocabLines, "i", "love", "this", ".")
	files := map[string]string{
		"vocab.txt":                strings.Join(vocabLines, "\n"),
		"sentiment_model.onnx":     "text-model",
		"emotion_model_quant.onnx": "audio-model",
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	f := &fixture{
		dir: dir,
		logits: map[task.Mode][]float32{
			task.ModeText:  {0.1, 0.9},
			task.ModeAudio: {0, 0, 0, 5, 0, 0, 0},
		},
		hist: history.New(kv.NewMemory()),
	}
	f.a, err = New(Options{
		Store: store,
		NewEngine: func(model []byte, cfg task.Config) (classifier.Engine, error) {
			if string(model) == "broken" {
				return nil, errors.New("bad model")
			}
			e := &fakeEngine{logits: f.logits[cfg.Mode()]}
			f.engines = append(f.engines, e)
			return e, nil
		},
		Driver:  fakeDriver{n: 64000},
		History: f.hist,
		Logger:  quiet(),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.a.Close() })
	return f
}

func (f *fixture) last() *fakeEngine { return f.engines[len(f.engines)-1] }

func TestNewRequiresStoreAndEngine(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New without store should fail")
	}
	store, _ := storage.NewLocal(t.TempDir())
	if _, err := New(Options{Store: store}); err == nil {
		t.Error("New without engine factory should fail")
	}
}

func TestDisabledBeforeSwitch(t *testing.T) {
	f := newFixture(t)
	if f.a.Enabled() {
		t.Error("trigger enabled before any switch")
	}
	if _, err := f.a.AnalyzeText(context.Background(), "hi"); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

func TestAnalyzeText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.a.Switch(ctx, task.ModeText); err != nil {
		t.Fatal(err)
	}
	if !f.a.Enabled() {
		t.Fatal("trigger disabled after switch")
	}

	out, err := f.a.AnalyzeText(ctx, "I love this.")
	if err != nil {
		t.Fatal(err)
	}
	if out.Label != "POSITIVE" || out.Task != "sentiment" || out.Mode != task.ModeText {
		t.Errorf("outcome = %+v", out)
	}

	in := f.last().inputs
	if len(in) != 2 {
		t.Fatalf("inputs = %d buffers, want 2", len(in))
	}
	for i, b := range in {
		if b.Len() != 128 || len(b.Data) != 128*4 {
			t.Fatalf("input %d = %d elements / %d bytes, want 128 / 512", i, b.Len(), len(b.Data))
		}
	}
	ids, _ := in[0].Int32s()
	mask, _ := in[1].Int32s()
	want := []int32{101, 103, 104, 105, 106, 102}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], id)
		}
	}
	ones := 0
	for _, m := range mask {
		ones += int(m)
	}
	if ones != 6 {
		t.Errorf("mask has %d ones, want 6", ones)
	}

	if !f.a.Enabled() {
		t.Error("trigger not re-enabled after analysis")
	}
	recs, _ := f.hist.List(ctx, "sentiment", 0)
	if len(recs) != 1 || recs[0].Input != "I love this." {
		t.Errorf("history = %+v", recs)
	}
}

func TestAnalyzeTextErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.a.Switch(ctx, task.ModeText)

	if _, err := f.a.AnalyzeText(ctx, "   "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("blank: err = %v, want ErrEmptyInput", err)
	}
	if _, err := f.a.AnalyzeAudio(ctx); !errors.Is(err, ErrWrongMode) {
		t.Errorf("audio in text mode: err = %v, want ErrWrongMode", err)
	}

	f.last().err = errors.New("engine fault")
	_, err := f.a.AnalyzeText(ctx, "hello")
	var ie *classifier.InferenceError
	if !errors.As(err, &ie) {
		t.Errorf("err = %v, want InferenceError", err)
	}
	if !f.a.Enabled() {
		t.Error("trigger should be re-enabled after a failure")
	}
}

func TestAnalyzeAudio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.a.Switch(ctx, task.ModeAudio); err != nil {
		t.Fatal(err)
	}

	out, err := f.a.AnalyzeAudio(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if out.Label != "Happy" {
		t.Errorf("Label = %q, want Happy", out.Label)
	}
	in := f.last().inputs
	if len(in) != 1 {
		t.Fatalf("inputs = %d buffers, want 1", len(in))
	}
	if in[0].Len() != 64000 || len(in[0].Data) != 256000 {
		t.Fatalf("audio buffer = %d elements / %d bytes, want 64000 / 256000", in[0].Len(), len(in[0].Data))
	}
	samples, _ := in[0].Float32s()
	if samples[0] != 0.5 {
		t.Errorf("samples[0] = %v, want 0.5", samples[0])
	}
}

func TestAnalyzeSamplesFits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.a.Switch(ctx, task.ModeAudio)

	if _, err := f.a.AnalyzeSamples(ctx, make([]float32, 100)); err != nil {
		t.Fatal(err)
	}
	if n := f.last().inputs[0].Elements(); n != 64000 {
		t.Errorf("elements = %d, want 64000", n)
	}
}

func TestAnalyzeFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.a.Switch(ctx, task.ModeAudio)

	path := filepath.Join(t.TempDir(), "clip.wav")
	clip := &wav.Clip{Samples: make([]int16, 16000), SampleRate: 16000, Channels: 1}
	if err := wav.WriteFile(path, clip); err != nil {
		t.Fatal(err)
	}
	out, err := f.a.AnalyzeFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if out.Input != path || out.Label != "Happy" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestSwitchAssetFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.a.Switch(ctx, task.ModeText); err != nil {
		t.Fatal(err)
	}
	first := f.last()

	os.Remove(filepath.Join(f.dir, "emotion_model_quant.onnx"))
	if err := f.a.Switch(ctx, task.ModeAudio); !errors.Is(err, ErrAssetIO) {
		t.Fatalf("err = %v, want ErrAssetIO", err)
	}
	if f.a.Enabled() {
		t.Error("trigger should stay disabled after asset failure")
	}
	if !first.closed {
		t.Error("previous engine not released")
	}
	if _, ok := f.a.Task(); ok {
		t.Error("no task should be loaded")
	}

	os.WriteFile(filepath.Join(f.dir, "emotion_model_quant.onnx"), []byte("broken"), 0o644)
	if err := f.a.Switch(ctx, task.ModeAudio); !errors.Is(err, ErrAssetIO) {
		t.Errorf("engine failure: err = %v, want ErrAssetIO", err)
	}

	os.Remove(filepath.Join(f.dir, "vocab.txt"))
	if err := f.a.Switch(ctx, task.ModeText); !errors.Is(err, ErrAssetIO) {
		t.Errorf("missing vocab: err = %v, want ErrAssetIO", err)
	}
}

func TestTaskOverride(t *testing.T) {
	f := newFixture(t)
	cfg := task.Emotion()
	cfg.Name = "emotion-lite"
	f.a.opts.Tasks = map[task.Mode]task.Config{task.ModeAudio: cfg}

	if err := f.a.Switch(context.Background(), task.ModeAudio); err != nil {
		t.Fatal(err)
	}
	got, _ := f.a.Task()
	if got.Name != "emotion-lite" {
		t.Errorf("Task().Name = %q", got.Name)
	}

	f.a.opts.Tasks = map[task.Mode]task.Config{task.ModeText: task.Emotion()}
	if err := f.a.Switch(context.Background(), task.ModeText); !errors.Is(err, task.ErrInvalid) {
		t.Errorf("mismatched override: err = %v, want task.ErrInvalid", err)
	}
}

func TestBusy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.a.Switch(ctx, task.ModeText)
	block := make(chan struct{})
	f.last().block = block

	ch := f.a.Go(ctx, Request{Text: "slow"})
	for f.a.Enabled() {
		// wait for the analysis to take the trigger
	}
	if _, err := f.a.AnalyzeText(ctx, "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}
	if err := f.a.Switch(ctx, task.ModeAudio); !errors.Is(err, ErrBusy) {
		t.Errorf("Switch while busy: err = %v, want ErrBusy", err)
	}
	close(block)

	out := <-ch
	if out.Err != nil || out.Label != "POSITIVE" {
		t.Errorf("outcome = %+v", out)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should close after one outcome")
	}
}

func TestGoDeliversError(t *testing.T) {
	f := newFixture(t)
	out := <-f.a.Go(context.Background(), Request{Mode: task.ModeText})
	if !errors.Is(out.Err, ErrEmptyInput) {
		t.Errorf("Err = %v, want ErrEmptyInput", out.Err)
	}
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.a.Switch(ctx, task.ModeAudio)
	f.a.Close()
	f.a.Close()

	if !f.last().closed {
		t.Error("engine not closed")
	}
	if err := f.a.Switch(ctx, task.ModeText); !errors.Is(err, ErrClosed) {
		t.Errorf("Switch after Close = %v, want ErrClosed", err)
	}
	if _, err := f.a.AnalyzeAudio(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("AnalyzeAudio after Close = %v, want ErrClosed", err)
	}
}
