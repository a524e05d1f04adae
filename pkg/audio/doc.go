// Package audio groups the audio sub-packages used by the capture and
// file input paths:
//
//   - pcm: sample formats and int16/float32 conversion
//   - wav: reading and writing RIFF/WAVE clips
//   - resampler: sample rate and channel conversion
//   - portaudio: microphone input through PortAudio
package audio
