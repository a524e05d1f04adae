// Package tensor packs model inputs into raw byte buffers.
//
// Every element is 4 bytes in the host's native byte order with no header
// or padding: float32 for audio samples, int32 for token ids and attention
// masks. Inference engines receive buffers as an ordered slice and return
// the single output row described by an [OutputSlot].
package tensor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// ElementSize is the width of every element in bytes.
const ElementSize = 4

// ElementType identifies the element encoding of a Buffer.
type ElementType int

const (
	Float32 ElementType = iota + 1
	Int32
)

func (t ElementType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	}
	return fmt.Sprintf("ElementType(%d)", int(t))
}

// ByteOrder is the encoding used for all buffers.
var ByteOrder binary.ByteOrder = binary.NativeEndian

// Buffer is a packed tensor.
type Buffer struct {
	Type  ElementType
	Shape []int64
	Data  []byte
}

// OutputSlot selects the engine output to read back: the tensor at Index,
// holding Size float32 values.
type OutputSlot struct {
	Index int
	Size  int
}

// PackFloat32 encodes values as a flat [n] float32 buffer.
func PackFloat32(values []float32) Buffer {
	data := make([]byte, len(values)*ElementSize)
	for i, v := range values {
		ByteOrder.PutUint32(data[i*ElementSize:], math.Float32bits(v))
	}
	return Buffer{Type: Float32, Shape: []int64{int64(len(values))}, Data: data}
}

// PackInt32 encodes values as a flat [n] int32 buffer.
func PackInt32(values []int32) Buffer {
	data := make([]byte, len(values)*ElementSize)
	for i, v := range values {
		ByteOrder.PutUint32(data[i*ElementSize:], uint32(v))
	}
	return Buffer{Type: Int32, Shape: []int64{int64(len(values))}, Data: data}
}

// PackAudio encodes normalized samples as a [1, n] float32 batch.
func PackAudio(samples []float32) Buffer {
	b := PackFloat32(samples)
	b.Shape = []int64{1, int64(len(samples))}
	return b
}

// PackText encodes token ids and the attention mask as two [1, n] int32
// batches, ids first.
func PackText(ids, mask []int32) (Buffer, Buffer) {
	idb, mb := PackInt32(ids), PackInt32(mask)
	idb.Shape = []int64{1, int64(len(ids))}
	mb.Shape = []int64{1, int64(len(mask))}
	return idb, mb
}

// Len returns the number of elements.
func (b Buffer) Len() int {
	return len(b.Data) / ElementSize
}

// Reader returns a reader positioned at the first byte.
func (b Buffer) Reader() *bytes.Reader {
	return bytes.NewReader(b.Data)
}

// Float32s decodes a float32 buffer.
func (b Buffer) Float32s() ([]float32, error) {
	if err := b.check(Float32); err != nil {
		return nil, err
	}
	out := make([]float32, b.Len())
	for i := range out {
		out[i] = math.Float32frombits(ByteOrder.Uint32(b.Data[i*ElementSize:]))
	}
	return out, nil
}

// Int32s decodes an int32 buffer.
func (b Buffer) Int32s() ([]int32, error) {
	if err := b.check(Int32); err != nil {
		return nil, err
	}
	out := make([]int32, b.Len())
	for i := range out {
		out[i] = int32(ByteOrder.Uint32(b.Data[i*ElementSize:]))
	}
	return out, nil
}

// Elements returns the element count implied by Shape.
func (b Buffer) Elements() int64 {
	if len(b.Shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range b.Shape {
		n *= d
	}
	return n
}

// Validate checks that Data holds exactly the elements Shape describes.
func (b Buffer) Validate() error {
	if b.Type != Float32 && b.Type != Int32 {
		return fmt.Errorf("tensor: unknown element type %v", b.Type)
	}
	if len(b.Data)%ElementSize != 0 {
		return fmt.Errorf("tensor: %d bytes is not a whole number of elements", len(b.Data))
	}
	if want := b.Elements(); int64(b.Len()) != want {
		return fmt.Errorf("tensor: shape %v needs %d elements, have %d", b.Shape, want, b.Len())
	}
	return nil
}

func (b Buffer) check(want ElementType) error {
	if b.Type != want {
		return fmt.Errorf("tensor: buffer holds %v, not %v", b.Type, want)
	}
	if len(b.Data)%ElementSize != 0 {
		return fmt.Errorf("tensor: %d bytes is not a whole number of elements", len(b.Data))
	}
	return nil
}
