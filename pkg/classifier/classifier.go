// Package classifier runs a task's model on packed inputs and decodes the
// output row into a label.
//
// Decoding picks the index of the strictly greatest logit, so ties resolve
// to the lowest index. An index with no label decodes to [UnknownClass].
package classifier

import (
	"fmt"
	"math"
	"sync"

	"github.com/haivivi/sentio/pkg/task"
	"github.com/haivivi/sentio/pkg/tensor"
)

// UnknownClass is the label for an index outside the label list.
const UnknownClass = "UNKNOWN_CLASS"

// Engine executes a model. Inputs are matched to the model's inputs by
// position; the returned slice holds out.Size logits from output out.Index.
type Engine interface {
	Run(inputs []tensor.Buffer, out tensor.OutputSlot) ([]float32, error)
	Close() error
}

// InferenceError wraps a failure of the engine call.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return "classifier: inference failed: " + e.Err.Error()
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Result is one classification.
type Result struct {
	Label      string    `json:"label" yaml:"label" msgpack:"label"`
	Index      int       `json:"index" yaml:"index" msgpack:"index"`
	Confidence float32   `json:"confidence" yaml:"confidence" msgpack:"confidence"`
	Logits     []float32 `json:"logits" yaml:"logits" msgpack:"logits"`
}

// Classifier pairs an engine with a task descriptor. Calls are serialized.
type Classifier struct {
	mu     sync.Mutex
	engine Engine
	cfg    task.Config
	once   sync.Once
	err    error
}

// New returns a Classifier that owns engine.
func New(engine Engine, cfg task.Config) *Classifier {
	return &Classifier{engine: engine, cfg: cfg}
}

// Task returns the task descriptor.
func (c *Classifier) Task() task.Config { return c.cfg }

// Classify runs the model on inputs, which must be given in the task's
// input order (one buffer for audio, ids then mask for text).
func (c *Classifier) Classify(inputs []tensor.Buffer) (Result, error) {
	if len(inputs) != c.cfg.InputCount {
		return Result{}, fmt.Errorf("classifier: got %d inputs, task %q takes %d", len(inputs), c.cfg.Name, c.cfg.InputCount)
	}

	c.mu.Lock()
	logits, err := c.engine.Run(inputs, tensor.OutputSlot{
		Index: c.cfg.OutputTensorIndex,
		Size:  c.cfg.OutputClasses,
	})
	c.mu.Unlock()
	if err != nil {
		return Result{}, &InferenceError{Err: err}
	}
	if len(logits) < c.cfg.OutputClasses {
		return Result{}, &InferenceError{Err: fmt.Errorf("engine returned %d logits, want %d", len(logits), c.cfg.OutputClasses)}
	}
	logits = logits[:c.cfg.OutputClasses]

	idx := Argmax(logits)
	r := Result{
		Label:  Decode(idx, c.cfg.OutputLabels),
		Index:  idx,
		Logits: logits,
	}
	if idx >= 0 {
		r.Confidence = Softmax(logits)[idx]
	}
	return r, nil
}

// Close closes the engine. Only the first call reaches the engine.
func (c *Classifier) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.err = c.engine.Close()
	})
	return c.err
}

// Argmax returns the index of the first strictly greatest value, or -1 if
// logits is empty or holds only NaN.
func Argmax(logits []float32) int {
	idx := -1
	best := float32(math.Inf(-1))
	for i, v := range logits {
		if v > best || (idx < 0 && v == best) {
			idx, best = i, v
		}
	}
	return idx
}

// Decode maps an index to its label, or UnknownClass.
func Decode(index int, labels []string) string {
	if index < 0 || index >= len(labels) {
		return UnknownClass
	}
	return labels[index]
}

// Softmax returns the normalized exponentials of logits.
func Softmax(logits []float32) []float32 {
	out := make([]float32, len(logits))
	if len(logits) == 0 {
		return out
	}
	peak := logits[0]
	for _, v := range logits[1:] {
		if v > peak {
			peak = v
		}
	}
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - peak))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}
