package resampler

// Format is a 16-bit PCM layout.
type Format struct {
	SampleRate int
	Stereo     bool
}

// Mono returns a mono format at rate.
func Mono(rate int) Format { return Format{SampleRate: rate} }

func (f Format) channels() int {
	if f.Stereo {
		return 2
	}
	return 1
}

func (f Format) sampleBytes() int {
	return 2 * f.channels()
}
