package pcm

import (
	"encoding/binary"
)

// Scale is the divisor that maps int16 samples onto [-1, 1).
const Scale = 32768.0

// Normalize converts int16 samples to float32 as s / 32768.
func Normalize(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / Scale
	}
	return out
}

// DecodeInt16 decodes little-endian 16-bit samples. A trailing odd byte is
// ignored.
func DecodeInt16(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return out
}

// EncodeInt16 encodes samples as little-endian 16-bit PCM.
func EncodeInt16(samples []int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// Fit returns exactly n samples: samples is truncated, or zero-padded at
// the end.
func Fit(samples []float32, n int64) []float32 {
	if int64(len(samples)) == n {
		return samples
	}
	out := make([]float32, n)
	copy(out, samples)
	return out
}

// Peak returns the largest absolute sample value.
func Peak(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}
