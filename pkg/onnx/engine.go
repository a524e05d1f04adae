package onnx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/haivivi/sentio/pkg/tensor"
)

// ErrEngineClosed is returned by Run after Close.
var ErrEngineClosed = errors.New("onnx: engine closed")

// Engine runs one classification model. Inputs are bound to the model's
// inputs by position unless explicit names are given. Int32 buffers are
// widened to int64 for models that declare int64 inputs, which is the
// usual export of BERT-style token ids.
type Engine struct {
	mu          sync.Mutex
	session     *Session
	inputNames  []string
	inputTypes  []ElementType
	outputNames []string
	closed      bool
}

// NewEngine creates an engine from model bytes. inputNames, when not
// empty, overrides the model's declared input order.
func NewEngine(env *Env, modelData []byte, inputNames []string) (*Engine, error) {
	session, err := env.NewSession(modelData)
	if err != nil {
		return nil, err
	}

	e, err := newEngine(session, inputNames)
	if err != nil {
		session.Close()
		return nil, err
	}
	return e, nil
}

func newEngine(session *Session, inputNames []string) (*Engine, error) {
	declared, err := session.InputNames()
	if err != nil {
		return nil, err
	}
	types, err := session.InputTypes()
	if err != nil {
		return nil, err
	}
	outputs, err := session.OutputNames()
	if err != nil {
		return nil, err
	}

	e := &Engine{session: session, outputNames: outputs}
	if len(inputNames) == 0 {
		e.inputNames, e.inputTypes = declared, types
		return e, nil
	}

	index := make(map[string]int, len(declared))
	for i, n := range declared {
		index[n] = i
	}
	for _, n := range inputNames {
		i, ok := index[n]
		if !ok {
			return nil, fmt.Errorf("onnx: model has no input %q (inputs: %v)", n, declared)
		}
		e.inputNames = append(e.inputNames, n)
		e.inputTypes = append(e.inputTypes, types[i])
	}
	return e, nil
}

// InputNames returns the bound input names in binding order.
func (e *Engine) InputNames() []string { return e.inputNames }

// OutputNames returns the model's output names.
func (e *Engine) OutputNames() []string { return e.outputNames }

// Run binds inputs in order, runs the model and returns the first Size
// values of the output at out.Index.
func (e *Engine) Run(inputs []tensor.Buffer, out tensor.OutputSlot) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}
	if len(inputs) > len(e.inputNames) {
		return nil, fmt.Errorf("onnx: %d inputs given, model takes %d", len(inputs), len(e.inputNames))
	}
	if out.Index < 0 || out.Index >= len(e.outputNames) {
		return nil, fmt.Errorf("onnx: output index %d out of range (%d outputs)", out.Index, len(e.outputNames))
	}

	tensors := make([]*Tensor, 0, len(inputs))
	defer func() {
		for _, t := range tensors {
			t.Close()
		}
	}()
	for i, b := range inputs {
		t, err := e.bind(b, e.inputTypes[i])
		if err != nil {
			return nil, fmt.Errorf("onnx: input %q: %w", e.inputNames[i], err)
		}
		tensors = append(tensors, t)
	}

	results, err := e.session.Run(e.inputNames[:len(inputs)], tensors, []string{e.outputNames[out.Index]})
	if err != nil {
		return nil, err
	}
	defer results[0].Close()

	data, err := results[0].FloatData()
	if err != nil {
		return nil, err
	}
	if len(data) < out.Size {
		return nil, fmt.Errorf("onnx: output %q has %d values, want %d", e.outputNames[out.Index], len(data), out.Size)
	}
	return data[:out.Size:out.Size], nil
}

func (e *Engine) bind(b tensor.Buffer, want ElementType) (*Tensor, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	switch {
	case b.Type == tensor.Float32:
		return NewTensorFromBytes(b.Shape, b.Data, ElementFloat32)
	case b.Type == tensor.Int32 && want == ElementInt64:
		return NewTensorFromBytes(b.Shape, widen(b), ElementInt64)
	case b.Type == tensor.Int32:
		return NewTensorFromBytes(b.Shape, b.Data, ElementInt32)
	}
	return nil, fmt.Errorf("unsupported buffer type %v", b.Type)
}

// widen re-encodes an int32 buffer as host-order int64.
func widen(b tensor.Buffer) []byte {
	vals, _ := b.Int32s()
	out := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.NativeEndian.PutUint64(out[8*i:], uint64(int64(v)))
	}
	return out
}

// Close releases the session. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.session.Close()
}
