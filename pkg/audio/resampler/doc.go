// Package resampler converts 16-bit PCM between sample rates and between
// mono and stereo, in pure Go.
//
// File input for audio tasks arrives at whatever rate the recording used;
// [Convert] brings it to the task's rate in one call:
//
//	mono16k, err := resampler.Convert(samples,
//		resampler.Format{SampleRate: 44100, Stereo: true},
//		resampler.Format{SampleRate: 16000})
//
// [New] offers the same conversion as a streaming io.Reader.
package resampler
