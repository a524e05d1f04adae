// Package pcm provides 16-bit PCM helpers shared by the capture and file
// input paths.
//
// Samples arrive as signed 16-bit integers and are normalized to float32
// by dividing by 32768, which maps the full int16 range onto [-1, 1):
//
//	raw := pcm.DecodeInt16(payload)
//	samples := pcm.Normalize(raw)
//	samples = pcm.Fit(samples, pcm.L16Mono16K.SamplesInDuration(4*time.Second))
package pcm
