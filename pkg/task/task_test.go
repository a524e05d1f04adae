package task

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinTasks(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		mode    Mode
		classes int
		inputs  int
		samples int
	}{
		{"sentiment", Sentiment(), ModeText, 2, 2, 0},
		{"emotion", Emotion(), ModeAudio, 7, 1, 64000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			if got := tt.cfg.Mode(); got != tt.mode {
				t.Errorf("Mode() = %q, want %q", got, tt.mode)
			}
			if tt.cfg.OutputClasses != tt.classes {
				t.Errorf("OutputClasses = %d, want %d", tt.cfg.OutputClasses, tt.classes)
			}
			if tt.cfg.InputCount != tt.inputs {
				t.Errorf("InputCount = %d, want %d", tt.cfg.InputCount, tt.inputs)
			}
			if got := tt.cfg.CaptureSamples(); got != tt.samples {
				t.Errorf("CaptureSamples() = %d, want %d", got, tt.samples)
			}
		})
	}
}

func TestSentimentDescriptor(t *testing.T) {
	c := Sentiment()
	if c.SequenceLength != 128 {
		t.Errorf("SequenceLength = %d, want 128", c.SequenceLength)
	}
	if c.SampleRate != NotApplicable {
		t.Errorf("SampleRate = %d, want %d", c.SampleRate, NotApplicable)
	}
	if c.OutputLabels[0] != "NEGATIVE" || c.OutputLabels[1] != "POSITIVE" {
		t.Errorf("OutputLabels = %v", c.OutputLabels)
	}
}

func TestEmotionDescriptor(t *testing.T) {
	c := Emotion()
	want := []string{"Angry", "Disgust", "Fear", "Happy", "Neutral", "Sad", "Surprise"}
	for i, l := range want {
		if c.OutputLabels[i] != l {
			t.Errorf("OutputLabels[%d] = %q, want %q", i, c.OutputLabels[i], l)
		}
	}
	if c.VocabFile != "" {
		t.Errorf("VocabFile = %q, want empty", c.VocabFile)
	}
}

func TestLabelsIsCopy(t *testing.T) {
	c := Sentiment()
	l := c.Labels()
	l[0] = "changed"
	if c.OutputLabels[0] != "NEGATIVE" {
		t.Errorf("Labels() shares storage with the descriptor")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"both modalities", func(c *Config) { c.SampleRate = 16000 }},
		{"no modality", func(c *Config) { c.SequenceLength = NotApplicable }},
		{"label mismatch", func(c *Config) { c.OutputLabels = []string{"only"} }},
		{"no model", func(c *Config) { c.ModelFile = "" }},
		{"no vocab", func(c *Config) { c.VocabFile = "" }},
		{"zero inputs", func(c *Config) { c.InputCount = 0 }},
		{"negative output index", func(c *Config) { c.OutputTensorIndex = -1 }},
		{"input names mismatch", func(c *Config) { c.InputNames = []string{"input_ids"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Sentiment()
			tt.mutate(&c)
			err := c.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestBuiltin(t *testing.T) {
	if c, ok := Builtin(ModeText); !ok || c.Name != "sentiment" {
		t.Errorf("Builtin(text) = %q, %v", c.Name, ok)
	}
	if c, ok := Builtin(ModeAudio); !ok || c.Name != "emotion" {
		t.Errorf("Builtin(audio) = %q, %v", c.Name, ok)
	}
	if _, ok := Builtin("video"); ok {
		t.Error("Builtin(video) should not exist")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("audio"); err != nil || m != ModeAudio {
		t.Errorf("ParseMode(audio) = %q, %v", m, err)
	}
	if _, err := ParseMode("Audio"); err == nil {
		t.Error("ParseMode(Audio) should fail")
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
name: emotion-small
model_file: emotion_small.onnx
input_count: 1
output_classes: 3
output_labels: [calm, happy, sad]
sample_rate: 8000
input_names: [audio]
`)
	c, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if c.SequenceLength != NotApplicable {
		t.Errorf("SequenceLength = %d, want %d", c.SequenceLength, NotApplicable)
	}
	if c.Mode() != ModeAudio {
		t.Errorf("Mode() = %q, want audio", c.Mode())
	}
	if c.CaptureSamples() != 32000 {
		t.Errorf("CaptureSamples() = %d, want 32000", c.CaptureSamples())
	}
	if len(c.InputNames) != 1 || c.InputNames[0] != "audio" {
		t.Errorf("InputNames = %v", c.InputNames)
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("name: broken\nmodel_file: m.onnx\ninput_count: 1\noutput_classes: 2\noutput_labels: [a]\nsample_rate: 16000\n"))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Parse() = %v, want ErrInvalid", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentiment.yaml")
	data := []byte("name: s\nmodel_file: s.onnx\nvocab_file: v.txt\nsequence_length: 16\ninput_count: 2\noutput_classes: 2\noutput_labels: [neg, pos]\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.SequenceLength != 16 || c.SampleRate != NotApplicable {
		t.Errorf("got seq=%d rate=%d", c.SequenceLength, c.SampleRate)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) should fail")
	}
}
