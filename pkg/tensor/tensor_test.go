package tensor

import (
	"io"
	"math"
	"testing"
)

func TestPackAudioScenario(t *testing.T) {
	samples := make([]float32, 64000)
	b := PackAudio(samples)

	if len(b.Data) != 256000 {
		t.Fatalf("len(Data) = %d, want 256000", len(b.Data))
	}
	if b.Type != Float32 {
		t.Errorf("Type = %v, want float32", b.Type)
	}
	if len(b.Shape) != 2 || b.Shape[0] != 1 || b.Shape[1] != 64000 {
		t.Errorf("Shape = %v, want [1 64000]", b.Shape)
	}
	if err := b.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	got, err := b.Float32s()
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0", i, v)
		}
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	in := []float32{0, -1, 1, 0.5, -0.999969482421875, float32(math.Inf(1)), math.SmallestNonzeroFloat32, math.MaxFloat32}
	got, err := PackFloat32(in).Float32s()
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if math.Float32bits(got[i]) != math.Float32bits(in[i]) {
			t.Errorf("value %d = %v, want %v", i, got[i], in[i])
		}
	}

	nan := float32(math.NaN())
	got, _ = PackFloat32([]float32{nan}).Float32s()
	if math.Float32bits(got[0]) != math.Float32bits(nan) {
		t.Error("NaN bits not preserved")
	}
}

func TestInt32RoundTrip(t *testing.T) {
	in := []int32{101, 2293, 102, 0, -1, math.MaxInt32, math.MinInt32}
	got, err := PackInt32(in).Int32s()
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("value %d = %d, want %d", i, got[i], in[i])
		}
	}
}

func TestPackText(t *testing.T) {
	ids := []int32{101, 2293, 102, 0}
	mask := []int32{1, 1, 1, 0}
	idb, mb := PackText(ids, mask)

	for _, b := range []Buffer{idb, mb} {
		if len(b.Data) != 4*ElementSize {
			t.Errorf("len(Data) = %d, want 16", len(b.Data))
		}
		if b.Type != Int32 {
			t.Errorf("Type = %v, want int32", b.Type)
		}
		if b.Shape[0] != 1 || b.Shape[1] != 4 {
			t.Errorf("Shape = %v, want [1 4]", b.Shape)
		}
	}
	got, _ := mb.Int32s()
	if got[3] != 0 || got[0] != 1 {
		t.Errorf("mask = %v", got)
	}
}

func TestNativeLayout(t *testing.T) {
	b := PackInt32([]int32{0x01020304})
	if ByteOrder.Uint32(b.Data) != 0x01020304 {
		t.Errorf("element not stored in native order: % x", b.Data)
	}
}

func TestReaderStartsAtZero(t *testing.T) {
	b := PackInt32([]int32{7, 8})
	r := b.Reader()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 8 {
		t.Errorf("read %d bytes, want 8", len(data))
	}
	if b.Reader().Len() != 8 {
		t.Error("second Reader is not rewound")
	}
}

func TestTypeMismatch(t *testing.T) {
	if _, err := PackInt32([]int32{1}).Float32s(); err == nil {
		t.Error("Float32s on int32 buffer should fail")
	}
	if _, err := PackFloat32([]float32{1}).Int32s(); err == nil {
		t.Error("Int32s on float32 buffer should fail")
	}
	ragged := Buffer{Type: Int32, Shape: []int64{1}, Data: []byte{1, 2, 3}}
	if _, err := ragged.Int32s(); err == nil {
		t.Error("Int32s on ragged buffer should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		buf  Buffer
		ok   bool
	}{
		{"audio", PackAudio(make([]float32, 10)), true},
		{"wrong shape", Buffer{Type: Float32, Shape: []int64{1, 3}, Data: make([]byte, 8)}, false},
		{"unknown type", Buffer{Shape: []int64{1}, Data: make([]byte, 4)}, false},
		{"ragged", Buffer{Type: Int32, Shape: []int64{1}, Data: make([]byte, 5)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.buf.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestElementTypeString(t *testing.T) {
	if Float32.String() != "float32" || Int32.String() != "int32" {
		t.Errorf("String() = %q, %q", Float32, Int32)
	}
	if ElementType(9).String() != "ElementType(9)" {
		t.Errorf("String() = %q", ElementType(9))
	}
}
