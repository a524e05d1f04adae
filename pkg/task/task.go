// Package task describes classification tasks: which model artifact to
// load, how its inputs are shaped and how its output row maps to labels.
//
// Two tasks ship with the package:
//
//   - [Sentiment]: text task, token ids plus attention mask, 2 classes
//   - [Emotion]: audio task, 4 s of normalized samples, 7 classes
//
// Descriptors can also be read from YAML with [Parse] and [Load]:
//
//	name: sentiment
//	model_file: sentiment_model.onnx
//	vocab_file: vocab.txt
//	sequence_length: 128
//	input_count: 2
//	output_classes: 2
//	output_labels: [NEGATIVE, POSITIVE]
package task

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/goccy/go-yaml"
)

// NotApplicable marks a sequence length or sample rate that does not apply
// to the task's modality.
const NotApplicable = -1

// CaptureDuration is the fixed length of one audio capture.
const CaptureDuration = 4 * time.Second

// Mode is the input modality of a task.
type Mode string

const (
	ModeText  Mode = "text"
	ModeAudio Mode = "audio"
)

// ErrInvalid is returned by Validate for a malformed descriptor.
var ErrInvalid = errors.New("task: invalid config")

// Config is an immutable task descriptor. Pass it by value.
type Config struct {
	Name              string   `yaml:"name" json:"name"`
	ModelFile         string   `yaml:"model_file" json:"model_file"`
	VocabFile         string   `yaml:"vocab_file,omitempty" json:"vocab_file,omitempty"`
	SequenceLength    int      `yaml:"sequence_length" json:"sequence_length"`
	InputCount        int      `yaml:"input_count" json:"input_count"`
	OutputTensorIndex int      `yaml:"output_tensor_index" json:"output_tensor_index"`
	OutputClasses     int      `yaml:"output_classes" json:"output_classes"`
	OutputLabels      []string `yaml:"output_labels" json:"output_labels"`
	SampleRate        int      `yaml:"sample_rate" json:"sample_rate"`

	// InputNames optionally binds engine inputs by name. When empty the
	// engine's declared input order is used.
	InputNames []string `yaml:"input_names,omitempty" json:"input_names,omitempty"`
}

// Sentiment returns the text sentiment task.
func Sentiment() Config {
	return Config{
		Name:              "sentiment",
		ModelFile:         "sentiment_model.onnx",
		VocabFile:         "vocab.txt",
		SequenceLength:    128,
		InputCount:        2,
		OutputTensorIndex: 0,
		OutputClasses:     2,
		OutputLabels:      []string{"NEGATIVE", "POSITIVE"},
		SampleRate:        NotApplicable,
	}
}

// Emotion returns the speech emotion task.
func Emotion() Config {
	return Config{
		Name:              "emotion",
		ModelFile:         "emotion_model_quant.onnx",
		SequenceLength:    NotApplicable,
		InputCount:        1,
		OutputTensorIndex: 0,
		OutputClasses:     7,
		OutputLabels:      []string{"Angry", "Disgust", "Fear", "Happy", "Neutral", "Sad", "Surprise"},
		SampleRate:        16000,
	}
}

// Builtin returns the shipped task for the given mode.
func Builtin(m Mode) (Config, bool) {
	switch m {
	case ModeText:
		return Sentiment(), true
	case ModeAudio:
		return Emotion(), true
	}
	return Config{}, false
}

// ParseMode parses "text" or "audio".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeText, ModeAudio:
		return Mode(s), nil
	}
	return "", fmt.Errorf("task: unknown mode %q", s)
}

// Mode reports the modality implied by the descriptor. A descriptor that
// declares neither a sequence length nor a sample rate has no mode.
func (c Config) Mode() Mode {
	switch {
	case c.SequenceLength > 0:
		return ModeText
	case c.SampleRate > 0:
		return ModeAudio
	}
	return ""
}

// Labels returns a copy of the output labels.
func (c Config) Labels() []string {
	return slices.Clone(c.OutputLabels)
}

// CaptureSamples returns the number of samples in one capture, or 0 for
// text tasks.
func (c Config) CaptureSamples() int {
	if c.SampleRate <= 0 {
		return 0
	}
	return c.SampleRate * int(CaptureDuration/time.Second)
}

// Validate checks the descriptor's internal consistency.
func (c Config) Validate() error {
	text, audio := c.SequenceLength > 0, c.SampleRate > 0
	switch {
	case text == audio:
		return fmt.Errorf("%w: exactly one of sequence_length and sample_rate must be set", ErrInvalid)
	case c.ModelFile == "":
		return fmt.Errorf("%w: model_file is required", ErrInvalid)
	case text && c.VocabFile == "":
		return fmt.Errorf("%w: text task %q needs vocab_file", ErrInvalid, c.Name)
	case c.InputCount < 1:
		return fmt.Errorf("%w: input_count must be positive, got %d", ErrInvalid, c.InputCount)
	case c.OutputTensorIndex < 0:
		return fmt.Errorf("%w: output_tensor_index must not be negative", ErrInvalid)
	case c.OutputClasses < 1:
		return fmt.Errorf("%w: output_classes must be positive, got %d", ErrInvalid, c.OutputClasses)
	case len(c.OutputLabels) != c.OutputClasses:
		return fmt.Errorf("%w: %d labels for %d classes", ErrInvalid, len(c.OutputLabels), c.OutputClasses)
	case len(c.InputNames) != 0 && len(c.InputNames) != c.InputCount:
		return fmt.Errorf("%w: %d input names for %d inputs", ErrInvalid, len(c.InputNames), c.InputCount)
	}
	return nil
}

// Parse decodes a YAML descriptor. Absent sequence_length and sample_rate
// default to NotApplicable. The result is validated.
func Parse(data []byte) (Config, error) {
	c := Config{SequenceLength: NotApplicable, SampleRate: NotApplicable}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("task: parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads and parses a YAML descriptor from path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("task: read %s: %w", path, err)
	}
	return Parse(data)
}
